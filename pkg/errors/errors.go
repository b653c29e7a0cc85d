package errors

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Validation errors (title, block index, file type)
	ErrTypeValidation ErrorType = "validation"
	// Editor lifecycle errors
	ErrTypeState ErrorType = "state"
	// Network/IO errors
	ErrTypeIO ErrorType = "io"
	// File system errors
	ErrTypeFileSystem ErrorType = "filesystem"
	// Configuration errors
	ErrTypeConfig ErrorType = "configuration"
	// Generic application errors
	ErrTypeApp ErrorType = "application"
)

// AppError represents a structured application error
type AppError struct {
	Type        ErrorType              `json:"type"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	UserMessage string                 `json:"userMessage"`
	InternalErr error                  `json:"-"`
	Retryable   bool                   `json:"retryable"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.InternalErr != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.InternalErr)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap exposes the wrapped error to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.InternalErr
}

// Is matches any AppError carrying the same code, so predefined errors
// can be compared against copies that picked up context.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// GetUserMessage returns a user-friendly error message
func (e *AppError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// WithContext returns a copy of the error with the context entry added.
// Predefined errors are shared, so they are never modified in place.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	c := e.clone()
	c.Context[key] = value
	return c
}

// WithUserMessage returns a copy of the error with a user-friendly message
func (e *AppError) WithUserMessage(msg string) *AppError {
	c := e.clone()
	c.UserMessage = msg
	return c
}

// WithRetryable returns a copy of the error marked as retryable
func (e *AppError) WithRetryable(retryable bool) *AppError {
	c := e.clone()
	c.Retryable = retryable
	return c
}

// WithCause returns a copy of the error wrapping err
func (e *AppError) WithCause(err error) *AppError {
	c := e.clone()
	c.InternalErr = err
	return c
}

// IsRetryable checks if the error can be retried
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// Log logs the error with its context in a stable key order
func (e *AppError) Log() {
	contextStr := ""
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}

	log.Printf("ERROR %s%s", e.Error(), contextStr)
}

func (e *AppError) clone() *AppError {
	c := *e
	c.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		c.Context[k] = v
	}
	return &c
}

// New creates a new AppError
func New(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:        errType,
		Code:        code,
		Message:     message,
		InternalErr: err,
	}
}

// Predefined errors for the editor and its collaborators
var (
	// Validation errors
	ErrInvalidFileType = New(ErrTypeValidation, "INVALID_FILE_TYPE", "selected file does not match the attachment kind").
				WithUserMessage("Please select a valid file")

	ErrEmptyTitle = New(ErrTypeValidation, "EMPTY_TITLE", "note title is empty").
			WithUserMessage("Please enter a title before saving")

	ErrBlockIndex = New(ErrTypeValidation, "BLOCK_INDEX", "block index out of range")

	ErrNotTextBlock = New(ErrTypeValidation, "NOT_TEXT_BLOCK", "block is not a text block")

	ErrInvalidNote = New(ErrTypeValidation, "INVALID_NOTE", "invalid note payload").
			WithUserMessage("The note could not be read")

	// State errors
	ErrSaveInProgress = New(ErrTypeState, "SAVE_IN_PROGRESS", "a save is already in progress").
				WithUserMessage("Saving... please wait")

	ErrEditorClosed = New(ErrTypeState, "EDITOR_CLOSED", "editor is closed").
			WithUserMessage("This note is no longer open for editing")

	// Network errors
	ErrSaveTransport = New(ErrTypeIO, "SAVE_TRANSPORT", "failed to save note").
				WithUserMessage("Unable to save changes. Please try again").
				WithRetryable(true)

	ErrFetchFailed = New(ErrTypeIO, "FETCH_FAILED", "failed to fetch note").
			WithUserMessage("Unable to load the requested note").
			WithRetryable(true)

	// File system errors
	ErrNoteNotFound = New(ErrTypeFileSystem, "NOTE_NOT_FOUND", "note not found").
			WithUserMessage("The requested note could not be found")

	ErrFileReadFailed = New(ErrTypeFileSystem, "FILE_READ_FAILED", "failed to read file").
				WithUserMessage("Unable to read file. It may be corrupted or inaccessible")

	ErrFileWriteFailed = New(ErrTypeFileSystem, "FILE_WRITE_FAILED", "failed to write file").
				WithUserMessage("Unable to save file. Check disk space and permissions")

	// Configuration errors
	ErrConfigLoadFailed = New(ErrTypeConfig, "CONFIG_LOAD_FAILED", "failed to load configuration").
				WithUserMessage("Configuration file could not be loaded. Using defaults")

	ErrConfigSaveFailed = New(ErrTypeConfig, "CONFIG_SAVE_FAILED", "failed to save configuration").
				WithUserMessage("Unable to save settings. Check permissions")
)

// InvalidFileType builds the user-visible error naming the expected kind
func InvalidFileType(kind, mimeType string) *AppError {
	return ErrInvalidFileType.
		WithUserMessage(fmt.Sprintf("Please select a valid %s file.", kind)).
		WithContext("kind", kind).
		WithContext("mimeType", mimeType)
}
