package note

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("note not found")
	ErrAlreadyFlagged = errors.New("note already flagged by this user")
)

type (
	Repository interface {
		CreateNote(note Note) (Note, error)
		GetNoteByID(id string) (Note, error)
		// FilterNotes applies AND operation on available QueryFilter fields.
		// Hidden notes are excluded unless QueryFilter.IncludeHidden is set.
		// Results come back newest first unless orderings say otherwise.
		FilterNotes(filter QueryFilter, orderings ...core.DBOrdering) ([]Note, error)
		IncrementDownloads(id string) (Note, error)
		// CreateFlag persists a flag and returns ErrAlreadyFlagged when this
		// reporter has flagged this note before.
		CreateFlag(flag Flag) (Flag, error)
		CountFlags(noteID string) (int, error)
		SetNoteHidden(id string, hidden bool) (Note, error)
		DeleteNotesByID(ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		usrSvc  *user.Service
		logger  core.Logger

		flagThreshold int
	}
)

func NewService(repo Repository, mailSvc core.EmailService, usrSvc *user.Service, logger core.Logger) *Service {
	threshold := core.Conf.Notes.FlagThreshold
	if threshold <= 0 {
		threshold = 3
	}
	return &Service{
		repo:          repo,
		mailSvc:       mailSvc,
		usrSvc:        usrSvc,
		logger:        logger,
		flagThreshold: threshold,
	}
}

func (svc *Service) Upload(uploaderID string, nn NewNote) (Note, error) {
	now := time.Now().UTC()
	n := Note{
		Title:       nn.Title,
		Course:      nn.Course,
		Semester:    nn.Semester,
		Description: nn.Description,
		FileURL:     nn.FileURL,
		UploaderID:  uploaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateNote(n)
}

func (svc *Service) GetByID(id string) (Note, error) {
	return svc.repo.GetNoteByID(id)
}

func (svc *Service) Browse(filter QueryFilter, orderings ...core.DBOrdering) ([]Note, error) {
	return svc.repo.FilterNotes(filter, orderings...)
}

// Download bumps the download counter and returns the updated note.
func (svc *Service) Download(id string) (Note, error) {
	return svc.repo.IncrementDownloads(id)
}

// Flag records that reporterID reported the note. A repeat flag by the same
// reporter is a no-op. Once the flag count reaches the configured threshold
// the note is hidden from browse results and moderators are notified.
func (svc *Service) Flag(noteID, reporterID, reason string) (Note, error) {
	n, err := svc.repo.GetNoteByID(noteID)
	if err != nil {
		return Note{}, err
	}

	_, err = svc.repo.CreateFlag(Flag{
		NoteID:     noteID,
		ReporterID: reporterID,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyFlagged {
			return n, nil
		}
		return Note{}, errors.Wrap(err, "creating flag")
	}

	count, err := svc.repo.CountFlags(noteID)
	if err != nil {
		return Note{}, errors.Wrap(err, "counting flags")
	}
	n.FlagCount = count

	if count >= svc.flagThreshold && !n.IsHidden {
		if n, err = svc.repo.SetNoteHidden(noteID, true); err != nil {
			return Note{}, errors.Wrap(err, "hiding note")
		}
		svc.notifyModerators(n, reason)
	}
	return n, nil
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteNotesByID(ids...)
}

func (svc *Service) notifyModerators(n Note, lastReason string) {
	if svc.mailSvc == nil || svc.usrSvc == nil {
		return
	}
	mods, err := svc.usrSvc.Filter(user.QueryFilter{Roles: user.ModeratorRoles})
	if err != nil {
		if svc.logger != nil {
			svc.logger.Error("looking up moderators", err)
		}
		return
	}
	to := make([]mail.Address, 0, len(mods))
	for _, mod := range mods {
		if mod.Email != "" {
			to = append(to, mail.Address{Name: mod.Name, Address: mod.Email})
		}
	}
	if len(to) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("[%s] Note hidden after reaching flag threshold", core.Conf.AppName),
		Body: fmt.Sprintf(
			"Note %q (%s) was flagged %d times and has been hidden pending review.\nLast reason given: %s",
			n.Title, n.ID, n.FlagCount, lastReason,
		),
	})
}
