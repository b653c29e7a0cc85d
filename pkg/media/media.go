// Package media turns files picked by the user into attachment values
// with an inline data-URL preview.
package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vincent-petithory/dataurl"

	"notedit/pkg/errors"
	"notedit/pkg/models"
)

// AcceptPattern returns the picker filter for a media kind, e.g. "image/*"
func AcceptPattern(kind models.BlockType) string {
	return string(kind) + "/*"
}

// Matches reports whether the declared MIME type belongs to kind
func Matches(kind models.BlockType, mimeType string) bool {
	return errors.NewValidator().ValidateMediaType(string(kind), mimeType).IsValid
}

// FromPath reads a file from disk. The declared MIME type comes from the
// extension and falls back to content sniffing.
func FromPath(path string) (*models.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrFileReadFailed.WithCause(err).WithContext("path", path)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}

	return &models.SourceFile{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}

// NewMediaRef validates the file against kind and builds the attachment.
// The file is copied, never modified.
func NewMediaRef(ctx context.Context, kind models.BlockType, file *models.SourceFile) (*models.MediaRef, error) {
	if file == nil {
		return nil, errors.InvalidFileType(string(kind), "")
	}
	if !kind.IsMedia() {
		return nil, errors.InvalidFileType(string(kind), file.MimeType)
	}
	if result := errors.NewValidator().ValidateMediaType(string(kind), file.MimeType); !result.IsValid {
		return nil, result.GetFirstError()
	}

	preview, err := Preview(ctx, file)
	if err != nil {
		return nil, err
	}

	source := &models.SourceFile{
		Name:     file.Name,
		MimeType: file.MimeType,
		Data:     bytes.Clone(file.Data),
	}

	return &models.MediaRef{
		Name:        file.Name,
		PreviewURL:  preview,
		ContentType: file.MimeType,
		Size:        int64(len(file.Data)),
		Source:      source,
	}, nil
}

// Preview encodes the file content as a base64 data URL. Encoding runs in
// its own goroutine so a cancelled ctx returns immediately.
func Preview(ctx context.Context, file *models.SourceFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.ErrFileReadFailed.WithCause(err)
	}

	mediaType, _, err := mime.ParseMediaType(file.MimeType)
	if err != nil || strings.Count(mediaType, "/") != 1 {
		return "", errors.ErrInvalidFileType.WithContext("mimeType", file.MimeType)
	}

	done := make(chan string, 1)
	go func() {
		done <- dataurl.New(file.Data, mediaType).String()
	}()

	select {
	case s := <-done:
		return s, nil
	case <-ctx.Done():
		return "", errors.ErrFileReadFailed.WithCause(ctx.Err()).WithContext("file", file.Name)
	}
}

// Decode returns the bytes and content type carried by a preview URL
func Decode(preview string) ([]byte, string, error) {
	du, err := dataurl.DecodeString(preview)
	if err != nil {
		return nil, "", fmt.Errorf("decode preview: %w", err)
	}
	return du.Data, du.MediaType.ContentType(), nil
}
