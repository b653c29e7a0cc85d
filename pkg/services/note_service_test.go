package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedit/pkg/errors"
	"notedit/pkg/models"
	"notedit/pkg/storage"
)

func newTestService(t *testing.T) *NoteService {
	t.Helper()
	store, err := storage.NewNoteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewNoteService(store)
}

func TestNoteService_Validation(t *testing.T) {
	svc := newTestService(t)
	note, err := svc.CreateNote("Title", nil)
	require.NoError(t, err)

	_, err = svc.CreateNote(" ", nil)
	assert.ErrorIs(t, err, errors.ErrEmptyTitle)

	_, err = svc.UpdateNote(note.ID, "", nil)
	assert.ErrorIs(t, err, errors.ErrEmptyTitle)

	_, err = svc.UpdateNote(note.ID, "T", []models.Block{
		models.MediaBlock(models.BlockVideo, &models.MediaRef{ContentType: "video/mp4"}),
	})
	assert.ErrorIs(t, err, errors.ErrInvalidNote)

	_, err = svc.UpdateNote(note.ID, "T", []models.Block{{Type: models.BlockImage}})
	assert.ErrorIs(t, err, errors.ErrInvalidNote, "media block without a value")

	stored, err := svc.GetNote(note.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Contents)

	_, err = svc.GetNote("../etc")
	require.Error(t, err)
	assert.Equal(t, "ID_INVALID", errors.ToFrontendError(err).Code)

	assert.ErrorIs(t, svc.DeleteNote("deadbeef"), errors.ErrNoteNotFound)
}

func TestNoteService_ListNotes(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateNote("Alpha", []models.Block{models.TextBlock("first")})
	require.NoError(t, err)
	_, err = svc.CreateNote("Beta", nil)
	require.NoError(t, err)

	assert.Len(t, svc.ListNotes(""), 2)
	assert.Len(t, svc.ListNotes("alpha"), 1)
	assert.Empty(t, svc.ListNotes("gamma"))
}
