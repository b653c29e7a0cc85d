package handlers

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notedit/pkg/errors"
	"notedit/pkg/models"
	"notedit/pkg/services"
)

// maxBodyBytes bounds request bodies; notes carry inline previews
const maxBodyBytes = 32 << 20

// APIHandlers contains API endpoint handlers
type APIHandlers struct {
	notes *services.NoteService
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(notes *services.NoteService) *APIHandlers {
	return &APIHandlers{notes: notes}
}

// Routes returns the note API, meant to be mounted under a prefix such as
// /api/notes
func (h *APIHandlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetNotesHandler)
	r.Post("/", h.CreateNoteHandler)
	r.Get("/{id}", h.GetNoteHandler)
	r.Patch("/{id}", h.UpdateNoteHandler)
	r.Delete("/{id}", h.DeleteNoteHandler)
	return r
}

type noteRequest struct {
	Title    string         `json:"title"`
	Contents []models.Block `json:"contents"`
}

// GetNotesHandler returns all notes as JSON, filtered by ?q when present
func (h *APIHandlers) GetNotesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notes.ListNotes(r.URL.Query().Get("q")))
}

// CreateNoteHandler creates a new note
func (h *APIHandlers) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}

	note, err := h.notes.CreateNote(req.Title, req.Contents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GetNoteHandler returns a specific note by ID
func (h *APIHandlers) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.GetNote(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNoteHandler replaces the title and contents of an existing note
func (h *APIHandlers) UpdateNoteHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}

	note, err := h.notes.UpdateNote(chi.URLParam(r, "id"), req.Title, req.Contents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNoteHandler deletes a note by ID
func (h *APIHandlers) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.DeleteNote(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeNote(w http.ResponseWriter, r *http.Request) (*noteRequest, bool) {
	var req noteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, errors.ErrInvalidNote.WithCause(err))
		return nil, false
	}
	return &req, true
}

// StatusFor maps an error onto the HTTP status the API answers with
func StatusFor(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch {
	case appErr.Is(errors.ErrNoteNotFound):
		return http.StatusNotFound
	case appErr.Type == errors.ErrTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errors.ToFrontendError(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
