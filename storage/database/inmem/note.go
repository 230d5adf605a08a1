package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/core/note"
)

type noteRepository struct {
	db *noteTable
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *DB) *noteRepository {
	return &noteRepository{db: db.note}
}

// flagCount assumes the caller holds at least a read lock.
func (repo *noteRepository) flagCount(noteID string) int {
	return len(repo.db.flags[noteID])
}

func (repo *noteRepository) get(id string) (note.Note, error) {
	n, ok := repo.db.notes[id]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}
	out := *n
	out.FlagCount = repo.flagCount(id)
	return out, nil
}

func (repo *noteRepository) CreateNote(n note.Note) (note.Note, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	repo.db.notes[n.ID] = &n
	return n, nil
}

func (repo *noteRepository) GetNoteByID(id string) (note.Note, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.get(id)
}

func (repo *noteRepository) FilterNotes(filter note.QueryFilter, orderings ...core.DBOrdering) ([]note.Note, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matched := make([]note.Note, 0)
	for id, n := range repo.db.notes {
		if n.IsHidden && !filter.IncludeHidden {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(n.Title), s) &&
				!strings.Contains(strings.ToLower(n.Course), s) &&
				!strings.Contains(strings.ToLower(n.Description), s) {
				continue
			}
		}
		if filter.Course != "" && !strings.EqualFold(n.Course, filter.Course) {
			continue
		}
		if filter.Semester != "" && n.Semester != filter.Semester {
			continue
		}
		if filter.UploaderID != "" && n.UploaderID != filter.UploaderID {
			continue
		}
		out := *n
		out.FlagCount = repo.flagCount(id)
		matched = append(matched, out)
	}
	sortNotes(matched, orderings)
	return matched, nil
}

// sortNotes applies the requested orderings, newest first when none apply.
func sortNotes(notes []note.Note, orderings []core.DBOrdering) {
	compare := func(a, b note.Note, field string) int {
		switch field {
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "course":
			return strings.Compare(a.Course, b.Course)
		case "semester":
			return strings.Compare(a.Semester, b.Semester)
		case "downloads":
			return a.Downloads - b.Downloads
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return 0
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		for _, ord := range orderings {
			c := compare(notes[i], notes[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func (repo *noteRepository) IncrementDownloads(id string) (note.Note, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n, ok := repo.db.notes[id]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}
	n.Downloads++
	return repo.get(id)
}

func (repo *noteRepository) CreateFlag(flag note.Flag) (note.Flag, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notes[flag.NoteID]; !ok {
		return note.Flag{}, note.ErrNotFound
	}

	byReporter, ok := repo.db.flags[flag.NoteID]
	if !ok {
		byReporter = make(map[string]*note.Flag)
		repo.db.flags[flag.NoteID] = byReporter
	}
	if _, dup := byReporter[flag.ReporterID]; dup {
		return note.Flag{}, note.ErrAlreadyFlagged
	}

	if flag.ID == "" {
		flag.ID = uuid.New().String()
	}
	byReporter[flag.ReporterID] = &flag
	return flag, nil
}

func (repo *noteRepository) CountFlags(noteID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.flagCount(noteID), nil
}

func (repo *noteRepository) SetNoteHidden(id string, hidden bool) (note.Note, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n, ok := repo.db.notes[id]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}
	n.IsHidden = hidden
	return repo.get(id)
}

func (repo *noteRepository) DeleteNotesByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.notes, id)
		delete(repo.db.flags, id)
	}
	return nil
}
