package newsletter_test

import (
	"context"
	"strings"
	"testing"

	emailsvc "github.com/nm2tech/classroom/services/email"
	pdfsvc "github.com/nm2tech/classroom/services/pdf"
	dummydb "github.com/nm2tech/classroom/storage/database/dummy"

	. "github.com/nm2tech/classroom/core/newsletter"
)

func setup(t *testing.T) *Service {
	t.Helper()
	emailsvc.ResetSentMessages()
	return NewService(
		dummydb.NewStore(),
		emailsvc.NewConsoleServiceMock(),
		pdfsvc.NewRenderer("MRS. SIMMS", "Ksimms@washingtonchristian.org", "240-390-0429"),
	)
}

func create(t *testing.T, svc *Service, title, date string) Newsletter {
	t.Helper()
	nl, err := svc.Create(context.Background(), NewNewsletter{
		Title: title,
		Date:  date,
		Content: Document{
			LeftColumn:  LeftColumn{ImportantNews: "Picture day is coming up."},
			RightColumn: RightColumn{WordList: "sand sang sank"},
		},
	}, "teacher-1")
	if err != nil {
		t.Fatalf("Create(%s): %v", title, err)
	}
	return nl
}

func TestService_CreateGet(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nl := create(t, svc, "Week 1", "2025-09-05")
	if nl.ID == "" {
		t.Fatal("Create() returned empty ID")
	}
	// the document header inherits the newsletter header when blank
	if nl.Content.Title != "Week 1" || nl.Content.Date != "2025-09-05" {
		t.Errorf("document header = (%q, %q), want inherited", nl.Content.Title, nl.Content.Date)
	}

	got, err := svc.Get(ctx, nl.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Title != nl.Title || got.Date != nl.Date || got.TeacherID != "teacher-1" {
		t.Errorf("Get() = %+v, want %+v", got, nl)
	}
	if got.Content.RightColumn.WordList != "sand sang sank" {
		t.Errorf("content did not round-trip: %+v", got.Content)
	}

	if _, err := svc.Get(ctx, "no-such-id"); err != ErrNotFound {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestService_ListLatest(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	create(t, svc, "Week 1", "2025-09-05")
	create(t, svc, "Week 2", "2025-09-12")
	want := create(t, svc, "Week 3", "2025-09-19")

	nls, err := svc.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(nls) != 2 {
		t.Fatalf("List(2) returned %d rows", len(nls))
	}
	if nls[0].ID != want.ID {
		t.Errorf("List() head = %q, want newest %q", nls[0].Title, want.Title)
	}

	latest, err := svc.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() failed: %v", err)
	}
	if latest.ID != want.ID {
		t.Errorf("Latest() = %q, want %q", latest.Title, want.Title)
	}
}

func TestService_LatestEmpty(t *testing.T) {
	svc := setup(t)
	if _, err := svc.Latest(context.Background()); err != ErrNotFound {
		t.Errorf("Latest() on empty store error = %v, want ErrNotFound", err)
	}
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	nl := create(t, svc, "Week 1", "2025-09-05")

	got, err := svc.Update(ctx, nl.ID, NewNewsletter{
		Title:   "Week 1 (rev)",
		Date:    "2025-09-06",
		Content: Document{RightColumn: RightColumn{MemoryVerse: "new verse"}},
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Title != "Week 1 (rev)" {
		t.Errorf("title = %q", got.Title)
	}
	// the edit replaces the whole document
	stored, _ := svc.Get(ctx, nl.ID)
	if stored.Content.RightColumn.WordList != "" {
		t.Errorf("old document content survived the update: %+v", stored.Content)
	}
	if stored.Content.RightColumn.MemoryVerse != "new verse" {
		t.Errorf("new document content missing: %+v", stored.Content)
	}

	if _, err := svc.Update(ctx, "no-such-id", NewNewsletter{Title: "x", Date: "2025-01-01"}); err != ErrNotFound {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	nl := create(t, svc, "Week 1", "2025-09-05")
	create(t, svc, "Week 2", "2025-09-12")

	n, err := svc.Delete(ctx, nl.ID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Delete() = %d, want 1", n)
	}

	// deleting again is a no-op, not an error
	if n, err = svc.Delete(ctx, nl.ID); err != nil || n != 0 {
		t.Errorf("2nd Delete() = (%d, %v), want (0, nil)", n, err)
	}

	if n, err = svc.DeleteAll(ctx); err != nil || n != 1 {
		t.Errorf("DeleteAll() = (%d, %v), want (1, nil)", n, err)
	}
	if n, err = svc.DeleteAll(ctx); err != nil || n != 0 {
		t.Errorf("DeleteAll() on empty store = (%d, %v), want (0, nil)", n, err)
	}
}

func TestService_RenderPDF(t *testing.T) {
	svc := setup(t)
	nl := create(t, svc, "Week 1", "2025-09-05")

	data, err := svc.RenderPDF(nl)
	if err != nil {
		t.Fatalf("RenderPDF() failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("RenderPDF() did not produce a PDF header")
	}
}

func TestService_Send(t *testing.T) {
	svc := setup(t)
	nl := create(t, svc, "Week 1", "2025-09-05")

	if err := svc.Send(nl, nil); err == nil {
		t.Error("Send() with no recipients should fail")
	}

	if err := svc.Send(nl, []string{"parent1@email.com", "parent2@email.com"}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if len(msg.To) != 2 {
		t.Errorf("message has %d recipients, want 2", len(msg.To))
	}
	if !strings.Contains(msg.Subject, "Week 1") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !msg.HasAttachments() {
		t.Error("message has no PDF attachment")
	}
	if !strings.Contains(msg.TextContent, "IMPORTANT NEWS") {
		t.Errorf("body is missing the news section: %q", msg.TextContent)
	}
}

func TestService_LoadSample(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nl, err := svc.LoadSample(ctx, "teacher-1")
	if err != nil {
		t.Fatalf("LoadSample() failed: %v", err)
	}
	if nl.Title != "OUR CLASSROOM newsletter" {
		t.Errorf("title = %q", nl.Title)
	}
	if nl.Content.RightColumn.WordList == "" {
		t.Error("sample document is missing the word list")
	}

	// refuses once any newsletter exists
	if _, err := svc.LoadSample(ctx, "teacher-1"); err == nil {
		t.Error("2nd LoadSample() should fail")
	}
}
