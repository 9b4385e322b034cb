package pdfsvc

import (
	"bytes"
	"testing"

	"github.com/nm2tech/classroom/core/newsletter"
)

func TestRender(t *testing.T) {
	r := NewRenderer("MRS. SIMMS", "Ksimms@washingtonchristian.org", "240-390-0429")

	doc := newsletter.Document{
		Title: "OUR CLASSROOM newsletter",
		Date:  "2026-09-05",
		LeftColumn: newsletter.LeftColumn{
			UpcomingEvents:   "Sept 12: Picture Day\nSept 19: Field Trip",
			LearningSnapshot: "We are learning about plants.",
			ImportantNews:    "Please return permission slips.",
		},
		RightColumn: newsletter.RightColumn{
			WordList:     "because, friend, listen",
			PracticeHome: "Read 20 minutes each night.",
			MemoryVerse:  "I will exalt you, my God the King.",
		},
	}

	data, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("Render() output does not start with %%PDF header")
	}
	if len(data) < 1000 {
		t.Errorf("Render() produced %d bytes, implausibly small", len(data))
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	r := NewRenderer("", "", "")

	data, err := r.Render(newsletter.Document{})
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("Render() output does not start with %%PDF header")
	}
}
