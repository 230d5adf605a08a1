package note

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noteshub/backend/core"
)

type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Course      string    `json:"course"`
	Semester    string    `json:"semester"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"file_url"`
	UploaderID  string    `json:"uploader_id"`
	Downloads   int       `json:"downloads"`
	FlagCount   int       `json:"flag_count"`
	IsHidden    bool      `json:"is_hidden"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Flag records that a user reported a note. One flag per (note, reporter).
type Flag struct {
	ID         string    `json:"id"`
	NoteID     string    `json:"note_id"`
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewNote contains information needed to upload a new Note.
type NewNote struct {
	Title       string `json:"title" validate:"required,max=200"`
	Course      string `json:"course" validate:"required,max=100"`
	Semester    string `json:"semester" validate:"required,semester"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	FileURL     string `json:"file_url" validate:"required,url"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Course = core.CleanString(nn.Course)
	nn.Semester = core.CleanString(nn.Semester, true /* lower */)
	nn.Description = core.CleanString(nn.Description)
	return validate.Struct(nn)
}

// NewFlag contains the reason a user gives when flagging a Note.
type NewFlag struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (nf *NewFlag) Validate(validate *validator.Validate) error {
	nf.Reason = core.CleanString(nf.Reason)
	return validate.Struct(nf)
}

// QueryFilter narrows down a note query. All provided fields are ANDed.
type QueryFilter struct {
	Search        string `query:"search"` // matches one of Title, Course or Description
	Course        string `query:"course"`
	Semester      string `query:"semester"`
	UploaderID    string `query:"uploader"`
	IncludeHidden bool   `query:"-"` // moderators only; never bound from the request
}

func (f QueryFilter) IsEmpty() bool {
	return f.Search == "" && f.Course == "" && f.Semester == "" && f.UploaderID == "" && !f.IncludeHidden
}
