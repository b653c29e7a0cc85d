// Package editor holds the editable state of one open note: its title,
// the ordered block list and the save state machine.
//
// The block list always ends with a text block. After the note is loaded
// and after every attach or delete, that trailing block is the empty slot
// where the user types new text.
package editor

import (
	"context"
	stderrors "errors"
	"log"
	"sync"
	"time"

	"notedit/pkg/errors"
	"notedit/pkg/media"
	"notedit/pkg/models"
)

// DefaultSaveTimeout bounds a save when no other timeout is configured
const DefaultSaveTimeout = 30 * time.Second

// DiscardPrompt is the question asked before leaving without saving
const DiscardPrompt = "Are you sure you want to discard changes?"

// State is the save state of an editor
type State int

const (
	StateIdle State = iota
	StateSaving
	StateSaved
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSaving:
		return "saving"
	case StateSaved:
		return "saved"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Loader fetches a note by ID
type Loader interface {
	FetchNote(ctx context.Context, id string) (*models.Note, error)
}

// Persister stores the edited title and contents of a note
type Persister interface {
	UpdateNote(ctx context.Context, id string, note *models.Note) error
}

// Navigator leaves the editor, one step back in history
type Navigator interface {
	Back()
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func()

func (f NavigatorFunc) Back() { f() }

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// CancelOutcome is the result of RequestCancel
type CancelOutcome int

const (
	CancelDeclined CancelOutcome = iota
	CancelConfirmed
	// CancelIgnored means the editor had already been saved or closed;
	// nothing was asked and no navigation happened
	CancelIgnored
)

// Snapshot is a read-only copy of the editor state for rendering
type Snapshot struct {
	ID       string
	Title    string
	Contents []models.Block
	State    State
}

// Option configures an Editor
type Option func(*Editor)

// WithNavigator sets the collaborator invoked after a successful save or
// a confirmed cancel
func WithNavigator(nav Navigator) Option {
	return func(e *Editor) {
		if nav != nil {
			e.nav = nav
		}
	}
}

// WithSaveTimeout bounds each save call
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.saveTimeout = d
		}
	}
}

// WithStateObserver registers fn to be called after each save state
// change, outside the editor lock. Presentation uses it for the saving
// indicator.
func WithStateObserver(fn func(State)) Option {
	return func(e *Editor) {
		if fn != nil {
			e.onState = fn
		}
	}
}

// Editor is the editing controller for one note
type Editor struct {
	mu          sync.Mutex
	id          string
	title       string
	contents    []models.Block
	state       State
	persister   Persister
	nav         Navigator
	saveTimeout time.Duration
	onState     func(State)
}

// New seeds an editor from an already loaded note
func New(id string, note *models.Note, persister Persister, opts ...Option) *Editor {
	e := &Editor{
		id:          id,
		persister:   persister,
		nav:         NavigatorFunc(func() {}),
		saveTimeout: DefaultSaveTimeout,
		onState:     func(State) {},
	}
	for _, opt := range opts {
		opt(e)
	}

	var blocks []models.Block
	if note != nil {
		e.title = note.Title
		blocks = note.Contents
	}
	e.contents = withSlot(blocks)
	return e
}

// Open fetches the note once and seeds an editor with it
func Open(ctx context.Context, loader Loader, id string, persister Persister, opts ...Option) (*Editor, error) {
	if result := errors.NewValidator().ValidateNoteID(id); !result.IsValid {
		return nil, result.GetFirstError()
	}

	note, err := loader.FetchNote(ctx, id)
	if err != nil {
		return nil, err
	}

	return New(id, note, persister, opts...), nil
}

// ID returns the identifier of the note being edited
func (e *Editor) ID() string {
	return e.id
}

// Snapshot returns a copy of the current state
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		ID:       e.id,
		Title:    e.title,
		Contents: models.CloneBlocks(e.contents),
		State:    e.state,
	}
}

// State returns the current save state
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetTitle replaces the title. Any value is accepted, including empty.
func (e *Editor) SetTitle(value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed() {
		return errors.ErrEditorClosed
	}
	e.title = value
	return nil
}

// SetBlockText replaces the value of the text block at index
func (e *Editor) SetBlockText(index int, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed() {
		return errors.ErrEditorClosed
	}
	if result := errors.NewValidator().ValidateIndex(index, len(e.contents)); !result.IsValid {
		return result.GetFirstError()
	}
	if e.contents[index].Type != models.BlockText {
		return errors.ErrNotTextBlock.WithContext("index", index).
			WithContext("type", string(e.contents[index].Type))
	}

	e.contents[index].Text = value
	return nil
}

// AttachMedia validates file against kind, builds its preview and appends
// the media block after the existing content. The preview is built
// without holding the lock, so concurrent attachments land in the order
// they complete.
func (e *Editor) AttachMedia(ctx context.Context, kind models.BlockType, file *models.SourceFile) error {
	if e.isClosed() {
		return errors.ErrEditorClosed
	}

	ref, err := media.NewMediaRef(ctx, kind, file)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed() {
		return errors.ErrEditorClosed
	}
	e.contents = insertMedia(e.contents, models.MediaBlock(kind, ref))
	return nil
}

// DeleteBlock removes the block at index without confirmation
func (e *Editor) DeleteBlock(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed() {
		return errors.ErrEditorClosed
	}
	if result := errors.NewValidator().ValidateIndex(index, len(e.contents)); !result.IsValid {
		return result.GetFirstError()
	}

	e.contents = removeAt(e.contents, index)
	return nil
}

// PreparePayload returns the note as it would be saved: the title as is
// and only the blocks that carry a value. It does not change the editor.
func (e *Editor) PreparePayload() *models.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payload()
}

func (e *Editor) payload() *models.Note {
	return &models.Note{
		Title:    e.title,
		Contents: valued(e.contents),
	}
}

// Save persists the note. A blank title fails with ErrEmptyTitle before
// any network call, and a call made while another save is running fails
// with ErrSaveInProgress. On success the editor navigates back once. On
// failure it returns to idle with its content untouched.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateSaving:
		e.mu.Unlock()
		return errors.ErrSaveInProgress
	case StateSaved, StateClosed:
		e.mu.Unlock()
		return errors.ErrEditorClosed
	}
	if result := errors.NewValidator().ValidateTitle(e.title); !result.IsValid {
		e.mu.Unlock()
		return result.GetFirstError()
	}

	e.state = StateSaving
	payload := e.payload()
	id := e.id
	e.mu.Unlock()
	e.onState(StateSaving)

	ctx, cancel := context.WithTimeout(ctx, e.saveTimeout)
	defer cancel()

	err := e.persister.UpdateNote(ctx, id, payload)

	e.mu.Lock()
	// a confirmed cancel while saving already closed the editor and
	// navigated back
	cancelled := e.state != StateSaving
	if err != nil {
		if !cancelled {
			e.state = StateIdle
		}
		e.mu.Unlock()
		if !cancelled {
			e.onState(StateIdle)
		}

		appErr := saveError(err).WithContext("noteId", id)
		appErr.Log()
		return appErr
	}
	if cancelled {
		e.mu.Unlock()
		log.Printf("Note %s saved after the editor was closed", id)
		return nil
	}
	e.state = StateSaved
	e.mu.Unlock()
	e.onState(StateSaved)

	log.Printf("Note saved successfully: %s", id)
	e.nav.Back()
	return nil
}

// RequestCancel asks whether to discard the changes and navigates back if
// the user agrees
func (e *Editor) RequestCancel(confirmer Confirmer) CancelOutcome {
	if e.isClosed() {
		return CancelIgnored
	}
	if !confirmer.Confirm(DiscardPrompt) {
		return CancelDeclined
	}

	e.mu.Lock()
	if e.closed() {
		// a save finished while the prompt was open
		e.mu.Unlock()
		return CancelIgnored
	}
	e.state = StateClosed
	e.mu.Unlock()
	e.onState(StateClosed)

	e.nav.Back()
	return CancelConfirmed
}

func saveError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Is(errors.ErrSaveTransport) {
		return appErr
	}
	return errors.ErrSaveTransport.WithCause(err)
}

// closed must be called with mu held
func (e *Editor) closed() bool {
	return e.state == StateSaved || e.state == StateClosed
}

func (e *Editor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed()
}
