package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/core/note"
)

type noteRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Course      string      `db:"course"`
	Semester    string      `db:"semester"`
	Description null.String `db:"description"`
	FileURL     string      `db:"file_url"`
	UploaderID  string      `db:"uploader_id"`
	Downloads   int         `db:"downloads"`
	FlagCount   int         `db:"flag_count"`
	IsHidden    bool        `db:"is_hidden"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r noteRow) toNote() note.Note {
	return note.Note{
		ID:          r.ID,
		Title:       r.Title,
		Course:      r.Course,
		Semester:    r.Semester,
		Description: r.Description.String,
		FileURL:     r.FileURL,
		UploaderID:  r.UploaderID,
		Downloads:   r.Downloads,
		FlagCount:   r.FlagCount,
		IsHidden:    r.IsHidden,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const noteColumns = `
n.id, n.title, n.course, n.semester, n.description, n.file_url, n.uploader_id,
n.downloads, n.is_hidden, n.created_at, n.updated_at,
(SELECT COUNT(*) FROM note_flags f WHERE f.note_id = n.id) AS flag_count`

type noteRepository struct {
	db *sqlx.DB
}

var _ note.Repository = (*noteRepository)(nil) // interface compliance check

func NewNoteRepository(db *sqlx.DB) *noteRepository {
	return &noteRepository{db: db}
}

func (repo noteRepository) CreateNote(n note.Note) (note.Note, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	const q = `
INSERT INTO notes (id, title, course, semester, description, file_url, uploader_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`
	if _, err := repo.db.Exec(
		q, n.ID, n.Title, n.Course, n.Semester, n.Description, n.FileURL,
		n.UploaderID, n.CreatedAt, n.UpdatedAt,
	); err != nil {
		return note.Note{}, errors.Wrap(err, "inserting note")
	}
	return repo.GetNoteByID(n.ID)
}

func (repo noteRepository) GetNoteByID(id string) (note.Note, error) {
	var row noteRow
	q := fmt.Sprintf(`SELECT %s FROM notes n WHERE n.id = $1`, noteColumns)
	if err := repo.db.Get(&row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return note.Note{}, note.ErrNotFound
		}
		return note.Note{}, errors.Wrap(err, "getting note")
	}
	return row.toNote(), nil
}

// orderableNoteColumns maps client-facing field names to actual columns.
// Anything else in an ordering is dropped.
var orderableNoteColumns = map[string]string{
	"title":      "n.title",
	"course":     "n.course",
	"semester":   "n.semester",
	"downloads":  "n.downloads",
	"created_at": "n.created_at",
	"updated_at": "n.updated_at",
}

func (repo noteRepository) FilterNotes(filter note.QueryFilter, orderings ...core.DBOrdering) ([]note.Note, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeHidden {
		where = append(where, "NOT n.is_hidden")
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(n.title ILIKE %[1]s OR n.course ILIKE %[1]s OR n.description ILIKE %[1]s)", p))
	}
	if filter.Course != "" {
		where = append(where, "n.course ILIKE "+arg(filter.Course))
	}
	if filter.Semester != "" {
		where = append(where, "n.semester = "+arg(filter.Semester))
	}
	if filter.UploaderID != "" {
		where = append(where, "n.uploader_id::text = "+arg(filter.UploaderID))
	}

	q := fmt.Sprintf(`SELECT %s FROM notes n`, noteColumns)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	orderBy := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := orderableNoteColumns[ord.Field]; ok {
			orderBy = append(orderBy, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "n.created_at DESC")
	}
	q += " ORDER BY " + strings.Join(orderBy, ", ")

	var rows []noteRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering notes")
	}
	notes := make([]note.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes, nil
}

func (repo noteRepository) IncrementDownloads(id string) (note.Note, error) {
	res, err := repo.db.Exec(`UPDATE notes SET downloads = downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "incrementing downloads")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return note.Note{}, note.ErrNotFound
	}
	return repo.GetNoteByID(id)
}

func (repo noteRepository) CreateFlag(flag note.Flag) (note.Flag, error) {
	if flag.ID == "" {
		flag.ID = uuid.New().String()
	}
	const q = `
INSERT INTO note_flags (id, note_id, reporter_id, reason, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (note_id, reporter_id) DO NOTHING`
	res, err := repo.db.Exec(q, flag.ID, flag.NoteID, flag.ReporterID, flag.Reason, flag.CreatedAt)
	if err != nil {
		return note.Flag{}, errors.Wrap(err, "inserting flag")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return note.Flag{}, note.ErrAlreadyFlagged
	}
	return flag, nil
}

func (repo noteRepository) CountFlags(noteID string) (int, error) {
	var count int
	if err := repo.db.Get(&count, `SELECT COUNT(*) FROM note_flags WHERE note_id = $1`, noteID); err != nil {
		return 0, errors.Wrap(err, "counting flags")
	}
	return count, nil
}

func (repo noteRepository) SetNoteHidden(id string, hidden bool) (note.Note, error) {
	res, err := repo.db.Exec(`UPDATE notes SET is_hidden = $1, updated_at = $2 WHERE id = $3`, hidden, time.Now().UTC(), id)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "hiding note")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return note.Note{}, note.ErrNotFound
	}
	return repo.GetNoteByID(id)
}

func (repo noteRepository) DeleteNotesByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.Exec(`DELETE FROM notes WHERE id::text = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting notes")
}
