package entities

import (
	"time"
)

type AnnotationKind string

const (
	AnnotationKindHighlight AnnotationKind = "highlight"
	AnnotationKindBookmark  AnnotationKind = "bookmark"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Book is keyed by its canonical id, so re-running over the same book file
// always lands on the same row.
type Book struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	CanonicalID     string       `gorm:"uniqueIndex;size:256" json:"canonical_id"`
	Title           string       `gorm:"index;size:512" json:"title"`
	ClippingsTitle  string       `gorm:"size:512" json:"clippings_title,omitempty"` // Title as written in the clippings export
	Authors         string       `gorm:"size:512" json:"authors"`                   // Joined with " and ", BibTeX style
	PublicationYear int          `json:"publication_year,omitempty"`
	ISBN            string       `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher       string       `gorm:"size:256" json:"publisher,omitempty"`
	FilePath        string       `gorm:"size:1024" json:"file_path,omitempty"`
	TextPath        string       `gorm:"size:1024" json:"text_path,omitempty"`
	Annotations     []Annotation `gorm:"foreignKey:BookID" json:"annotations,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type Annotation struct {
	ID     uint           `gorm:"primaryKey" json:"id"`
	BookID uint           `gorm:"index" json:"book_id"`
	Kind   AnnotationKind `gorm:"size:20;default:'highlight'" json:"kind"`
	Text   string         `gorm:"type:text" json:"text"`
	Note   string         `gorm:"type:text" json:"note,omitempty"`

	// Location information
	Page          *int `json:"page,omitempty"`
	LocationStart int  `json:"location_start,omitempty"`
	LocationEnd   int  `json:"location_end,omitempty"`

	// Anchor is the matching passage of the book's plain text, if any
	Anchor string `gorm:"type:text" json:"anchor,omitempty"`

	AddedAt   *time.Time `json:"added_at,omitempty"` // When the reader made the annotation
	CreatedAt time.Time  `json:"created_at"`
}

// ImportRun records one pass over a clippings export.
type ImportRun struct {
	ID                 string     `gorm:"primaryKey;size:26" json:"id"` // ULID
	ClippingsPath      string     `gorm:"size:1024" json:"clippings_path"`
	ClippingsDigest    string     `gorm:"index;size:64" json:"clippings_digest"` // BLAKE3, hex
	Status             RunStatus  `gorm:"size:20;default:'running'" json:"status"`
	BooksProcessed     int        `json:"books_processed"`
	AnnotationsWritten int        `json:"annotations_written"`
	AnnotationsSkipped int        `json:"annotations_skipped"`
	Errors             string     `gorm:"type:text" json:"errors,omitempty"` // JSON array of warnings
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

func (Annotation) TableName() string {
	return "annotations"
}

func (ImportRun) TableName() string {
	return "import_runs"
}
