package services

import (
	"notedit/pkg/errors"
	"notedit/pkg/models"
	"notedit/pkg/storage"
)

// NoteService validates requests before they reach the note store
type NoteService struct {
	store     *storage.NoteStore
	validator *errors.Validator
}

// NewNoteService creates a new note service
func NewNoteService(store *storage.NoteStore) *NoteService {
	return &NoteService{
		store:     store,
		validator: errors.NewValidator(),
	}
}

// ListNotes returns all notes, or only those matching query when it is set
func (s *NoteService) ListNotes(query string) []*models.Note {
	if query == "" {
		return s.store.GetAllNotes()
	}
	return s.store.SearchNotes(query)
}

// GetNote returns a specific note by ID with validation
func (s *NoteService) GetNote(id string) (*models.Note, error) {
	if result := s.validator.ValidateNoteID(id); !result.IsValid {
		return nil, result.GetFirstError()
	}

	note, err := s.store.GetNote(id)
	if err != nil {
		return nil, logged(err)
	}
	return note, nil
}

// CreateNote creates a new note with validation and error handling
func (s *NoteService) CreateNote(title string, contents []models.Block) (*models.Note, error) {
	if result := s.validator.ValidateTitle(title); !result.IsValid {
		return nil, result.GetFirstError()
	}
	if err := validateContents(contents); err != nil {
		return nil, err
	}

	note, err := s.store.CreateNote(title, contents)
	if err != nil {
		return nil, logged(err)
	}
	return note, nil
}

// UpdateNote replaces the title and contents of an existing note
func (s *NoteService) UpdateNote(id, title string, contents []models.Block) (*models.Note, error) {
	if result := s.validator.ValidateNoteID(id); !result.IsValid {
		return nil, result.GetFirstError()
	}
	if result := s.validator.ValidateTitle(title); !result.IsValid {
		return nil, result.GetFirstError().WithContext("noteId", id)
	}
	if err := validateContents(contents); err != nil {
		return nil, err.WithContext("noteId", id)
	}

	note, err := s.store.UpdateNote(id, title, contents)
	if err != nil {
		return nil, logged(err)
	}
	return note, nil
}

// DeleteNote deletes a note with validation
func (s *NoteService) DeleteNote(id string) error {
	if result := s.validator.ValidateNoteID(id); !result.IsValid {
		return result.GetFirstError()
	}

	if err := s.store.DeleteNote(id); err != nil {
		return logged(err)
	}
	return nil
}

// validateContents rejects media blocks that arrived without a reference
// to their media
func validateContents(contents []models.Block) *errors.AppError {
	for i, b := range contents {
		if !b.Type.Valid() {
			return errors.ErrInvalidNote.WithContext("index", i).WithContext("type", string(b.Type))
		}
		if b.Type.IsMedia() && (b.Media == nil || b.Media.PreviewURL == "") {
			return errors.ErrInvalidNote.WithContext("index", i).WithContext("reason", "media block without preview")
		}
	}
	return nil
}

func logged(err error) error {
	if appErr, ok := err.(*errors.AppError); ok {
		appErr.Log()
		return appErr
	}
	return err
}
