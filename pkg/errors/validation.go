package errors

import (
	"strings"
)

// ValidationResult holds validation results
type ValidationResult struct {
	IsValid bool
	Errors  []*AppError
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(err *AppError) {
	vr.IsValid = false
	vr.Errors = append(vr.Errors, err)
}

// GetFirstError returns the first error or nil
func (vr *ValidationResult) GetFirstError() *AppError {
	if len(vr.Errors) > 0 {
		return vr.Errors[0]
	}
	return nil
}

// Validator provides validation utilities
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTitle requires a title with at least one non-space character
func (v *Validator) ValidateTitle(title string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if strings.TrimSpace(title) == "" {
		result.AddError(ErrEmptyTitle)
	}

	return result
}

// ValidateMediaType checks that a declared MIME type belongs to the
// requested category, e.g. "image/png" for kind "image".
func (v *Validator) ValidateMediaType(kind, mimeType string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if kind == "" || !strings.HasPrefix(mimeType, kind+"/") {
		result.AddError(InvalidFileType(kind, mimeType))
	}

	return result
}

// ValidateNoteID validates note ID format
func (v *Validator) ValidateNoteID(id string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if strings.TrimSpace(id) == "" {
		result.AddError(New(ErrTypeValidation, "ID_EMPTY", "note ID cannot be empty").
			WithUserMessage("Note ID is required"))
		return result
	}

	if strings.ContainsAny(id, "/\\?#") || id == "." || id == ".." {
		result.AddError(New(ErrTypeValidation, "ID_INVALID", "invalid note ID format").
			WithUserMessage("Invalid note ID format").
			WithContext("noteId", id))
	}

	return result
}

// ValidateIndex checks that index addresses one of n blocks
func (v *Validator) ValidateIndex(index, n int) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if index < 0 || index >= n {
		result.AddError(ErrBlockIndex.
			WithContext("index", index).
			WithContext("length", n))
	}

	return result
}
