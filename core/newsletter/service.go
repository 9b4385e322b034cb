package newsletter

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

var ErrNotFound = errors.New("newsletter not found")

// PDFRenderer renders a newsletter document to PDF bytes. Pure; no state.
type PDFRenderer interface {
	Render(doc Document) ([]byte, error)
}

type Service struct {
	store    core.Store
	mailSvc  core.EmailService
	renderer PDFRenderer
}

func NewService(store core.Store, mailSvc core.EmailService, renderer PDFRenderer) *Service {
	return &Service{store: store, mailSvc: mailSvc, renderer: renderer}
}

func (svc *Service) Create(ctx context.Context, nn NewNewsletter, teacherID string) (Newsletter, error) {
	nl := Newsletter{
		ID:        uuid.New().String(),
		Title:     nn.Title,
		Content:   nn.Content,
		Date:      nn.Date,
		TeacherID: teacherID,
		CreatedAt: time.Now().UTC(),
	}
	if nl.Content.Title == "" {
		nl.Content.Title = nl.Title
	}
	if nl.Content.Date == "" {
		nl.Content.Date = nl.Date
	}
	if _, err := svc.store.Insert(ctx, core.TableNewsletters, toRecord(nl)); err != nil {
		return Newsletter{}, err
	}
	return nl, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Newsletter, error) {
	recs, err := svc.store.Select(ctx, core.TableNewsletters, []core.Filter{core.Eq("id", id)})
	if err != nil {
		return Newsletter{}, err
	}
	if len(recs) == 0 {
		return Newsletter{}, ErrNotFound
	}
	return fromRecord(recs[0]), nil
}

// List returns newsletters, most recent first. A limit of 0 returns all.
func (svc *Service) List(ctx context.Context, limit int) ([]Newsletter, error) {
	recs, err := svc.store.Select(ctx, core.TableNewsletters, nil, core.DBOrdering{Field: "created_at"})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	nls := make([]Newsletter, 0, len(recs))
	for _, rec := range recs {
		nls = append(nls, fromRecord(rec))
	}
	return nls, nil
}

// Latest returns the most recently published newsletter.
func (svc *Service) Latest(ctx context.Context) (Newsletter, error) {
	nls, err := svc.List(ctx, 1)
	if err != nil {
		return Newsletter{}, err
	}
	if len(nls) == 0 {
		return Newsletter{}, ErrNotFound
	}
	return nls[0], nil
}

// Update replaces the newsletter content in place; there is no versioning.
func (svc *Service) Update(ctx context.Context, id string, nn NewNewsletter) (Newsletter, error) {
	nl, err := svc.Get(ctx, id)
	if err != nil {
		return Newsletter{}, err
	}
	nl.Title = nn.Title
	nl.Date = nn.Date
	nl.Content = nn.Content

	rec := toRecord(nl)
	delete(rec, "id")
	delete(rec, "created_at")
	if _, err := svc.store.Update(ctx, core.TableNewsletters, rec, []core.Filter{core.Eq("id", id)}); err != nil {
		return Newsletter{}, err
	}
	return nl, nil
}

// Delete hard-deletes one newsletter. A second delete of the same id reports
// zero rows affected, not an error.
func (svc *Service) Delete(ctx context.Context, id string) (int, error) {
	return svc.store.Delete(ctx, core.TableNewsletters, []core.Filter{core.Eq("id", id)})
}

// DeleteAll removes every newsletter. With zero newsletters present the
// operation succeeds with zero rows affected.
func (svc *Service) DeleteAll(ctx context.Context) (int, error) {
	return svc.store.Delete(ctx, core.TableNewsletters, nil)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.store.Count(ctx, core.TableNewsletters, nil)
}

// RenderPDF renders the newsletter document via the configured renderer.
func (svc *Service) RenderPDF(nl Newsletter) ([]byte, error) {
	return svc.renderer.Render(nl.Content)
}

// Send dispatches the newsletter to the given recipients with the rendered
// PDF attached. Failures are returned to the caller; nothing is retried.
func (svc *Service) Send(nl Newsletter, recipients []string) error {
	if len(recipients) == 0 {
		return errors.New("no recipient email addresses found")
	}

	to := make([]mail.Address, 0, len(recipients))
	for _, addr := range recipients {
		to = append(to, mail.Address{Address: addr})
	}
	msg := &core.EmailMessage{
		To:          to,
		Subject:     "Classroom Newsletter: " + nl.Title,
		TextContent: emailBody(nl),
	}

	pdf, err := svc.renderer.Render(nl.Content)
	if err != nil {
		return errors.Wrap(err, "rendering newsletter pdf")
	}
	if err := msg.Attach(strings.NewReader(string(pdf)), fmt.Sprintf("newsletter_%s.pdf", nl.Date), "application/pdf"); err != nil {
		return errors.Wrap(err, "attaching newsletter pdf")
	}

	svc.mailSvc.SendMessages(msg)
	return nil
}

func emailBody(nl Newsletter) string {
	doc := nl.Content
	var b strings.Builder
	b.WriteString("Dear Parents and Students,\n\n")
	b.WriteString("Please find attached the latest classroom newsletter.\n\n")
	fmt.Fprintf(&b, "Newsletter: %s\nDate: %s\n\n", nl.Title, doc.Date)

	section := func(label, text string) {
		if text != "" {
			fmt.Fprintf(&b, "%s:\n%s\n\n", label, text)
		}
	}
	section("UPCOMING EVENTS", doc.LeftColumn.UpcomingEvents)
	section("LEARNING SNAPSHOT", doc.LeftColumn.LearningSnapshot)
	section("IMPORTANT NEWS", doc.LeftColumn.ImportantNews)
	section("WORD LIST", doc.RightColumn.WordList)
	section("PRACTICE AT HOME", doc.RightColumn.PracticeHome)
	section("MEMORY VERSE", doc.RightColumn.MemoryVerse)

	b.WriteString("Best regards,\nYour Teacher\n")
	return b.String()
}

// SampleDocument returns the demo newsletter content used to showcase the
// layout on a fresh install.
func SampleDocument() Document {
	return Document{
		Title: "OUR CLASSROOM newsletter",
		Date:  "October 03, 2025",
		LeftColumn: LeftColumn{
			UpcomingEvents: "9/26 - Half day Q1 midterm grading day (school dismisses at 12 noon)\n" +
				"9/26 - Day of Fasting, Prayer & Praise\n" +
				"10/2 - Literacy Night (Next Thursday)\n" +
				"10/9 - Muffins for Moms\n" +
				"10/31 - Field Trip (Bible Museum)",
			LearningSnapshot: "BIBLE/TFT: Unit 1 - The Life of Christ, studying the book of James.\n\n" +
				"LANGUAGE ARTS: Handwriting, Skills 1 Activity. Fables and Fairy Tales.\n\n" +
				"MATH: Sadlier Math 2 Chapter 2 - Subtraction to 20. Test next week.\n\n" +
				"SCIENCE: Cycles of Nature. Seasons, water cycle, life cycles, day & night.\n\n" +
				"SOCIAL STUDIES: Geography - Maps and landforms.",
			ImportantNews: "Happy Fall! Our first Field Trip has been posted for 10/31, " +
				"see details in upcoming events.",
		},
		RightColumn: RightColumn{
			WordList:     "sand sang sank\nhunt hung hunk\nthin thing think\nshould why what",
			PracticeHome: "Read daily to your child for 20 mins as part of our nightly homework assignments.",
			MemoryVerse: "I will exalt you, my God and King; I will praise your name forever and ever. " +
				"Every day I will praise you and extol your name forever and ever.",
		},
	}
}

// LoadSample publishes the sample newsletter for the given teacher if no
// newsletter exists yet.
func (svc *Service) LoadSample(ctx context.Context, teacherID string) (Newsletter, error) {
	n, err := svc.Count(ctx)
	if err != nil {
		return Newsletter{}, err
	}
	if n > 0 {
		return Newsletter{}, errors.New("newsletters already exist")
	}
	doc := SampleDocument()
	return svc.Create(ctx, NewNewsletter{Title: doc.Title, Date: "2025-10-03", Content: doc}, teacherID)
}
