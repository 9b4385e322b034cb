package newsletter

import (
	"encoding/json"
	"time"

	"github.com/nm2tech/classroom/core"
)

// Document is the structured newsletter content: a title, a display date and
// two labeled column groups of free-text sections. It is serialized as JSON
// into the `content` column; an edit overwrites the whole document.
type Document struct {
	Title       string      `json:"title"`
	Date        string      `json:"date"`
	LeftColumn  LeftColumn  `json:"left_column"`
	RightColumn RightColumn `json:"right_column"`
}

type LeftColumn struct {
	UpcomingEvents   string `json:"upcoming_events"`
	LearningSnapshot string `json:"learning_snapshot"`
	ImportantNews    string `json:"important_news"`
}

type RightColumn struct {
	WordList     string `json:"word_list"`
	PracticeHome string `json:"practice_home"`
	MemoryVerse  string `json:"memory_verse"`
}

type Newsletter struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   Document  `json:"content"`
	Date      string    `json:"date"` // YYYY-MM-DD
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewNewsletter contains information needed to publish a newsletter.
type NewNewsletter struct {
	Title   string   `json:"title" validate:"required"`
	Date    string   `json:"date" validate:"required"`
	Content Document `json:"content"`
}

func (nn *NewNewsletter) Validate() error {
	nn.Title = core.CleanString(nn.Title)
	nn.Date = core.CleanString(nn.Date)
	return core.Validate.Struct(nn)
}

func fromRecord(rec core.Record) Newsletter {
	nl := Newsletter{
		ID:        rec.Str("id"),
		Title:     rec.Str("title"),
		Date:      rec.Str("date"),
		TeacherID: rec.Str("teacher_id"),
		CreatedAt: rec.Time("created_at"),
	}
	// a content blob that fails to parse leaves an empty document rather
	// than failing the read
	_ = json.Unmarshal([]byte(rec.Str("content")), &nl.Content)
	return nl
}

func toRecord(nl Newsletter) core.Record {
	content, _ := json.Marshal(nl.Content)
	return core.Record{
		"id":         nl.ID,
		"title":      nl.Title,
		"content":    string(content),
		"date":       nl.Date,
		"teacher_id": nl.TeacherID,
		"created_at": nl.CreatedAt,
	}
}
