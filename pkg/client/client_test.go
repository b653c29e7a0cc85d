package client

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedit/pkg/errors"
	"notedit/pkg/models"
)

const testBase = "http://notes.test/api/notes"

func newTestClient(t *testing.T, cfg Config) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	cfg.BaseURL = testBase
	cfg.HTTPClient = &http.Client{Transport: mt}

	c, err := New(cfg)
	require.NoError(t, err, "failed to create client")
	return c, mt
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_API_URL", appErr.Code)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, defaultUserAgent, c.userAgent)
	assert.NotNil(t, c.cache)
	assert.Equal(t, "http://localhost:8080/abc", c.noteURL("abc"))
}

func TestUpdateNote_SendsPatch(t *testing.T) {
	c, mt := newTestClient(t, Config{})

	var got map[string]json.RawMessage
	mt.RegisterResponder(http.MethodPatch, testBase+"/n1",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, defaultUserAgent, req.Header.Get("User-Agent"))
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &got))
			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})

	note := &models.Note{
		Title: "Groceries",
		Contents: []models.Block{
			models.TextBlock("milk"),
			models.MediaBlock(models.BlockImage, &models.MediaRef{PreviewURL: "data:image/png;base64,AA==", ContentType: "image/png"}),
		},
	}
	require.NoError(t, c.UpdateNote(t.Context(), "n1", note))

	assert.Equal(t, 1, mt.GetTotalCallCount())
	assert.JSONEq(t, `"Groceries"`, string(got["title"]))
	assert.JSONEq(t, `[
		{"type":"text","value":"milk"},
		{"type":"image","value":{"preview":"data:image/png;base64,AA==","contentType":"image/png"}}
	]`, string(got["contents"]))
	assert.NotContains(t, got, "id")
}

func TestUpdateNote_EmptyContentsSentAsArray(t *testing.T) {
	c, mt := newTestClient(t, Config{})

	mt.RegisterResponder(http.MethodPatch, testBase+"/n1",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			assert.JSONEq(t, `{"title":"T","contents":[]}`, string(body))
			return httpmock.NewStringResponse(http.StatusOK, ""), nil
		})

	require.NoError(t, c.UpdateNote(t.Context(), "n1", &models.Note{Title: "T"}))
}

func TestUpdateNote_NonOKIsFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"created", http.StatusCreated},
		{"no content", http.StatusNoContent},
		{"bad request", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mt := newTestClient(t, Config{})
			mt.RegisterResponder(http.MethodPatch, testBase+"/n1",
				httpmock.NewStringResponder(tt.status, "nope"))

			err := c.UpdateNote(t.Context(), "n1", &models.Note{Title: "T"})

			require.ErrorIs(t, err, errors.ErrSaveTransport)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.status, appErr.Context["status"])
		})
	}
}

func TestUpdateNote_TransportError(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodPatch, testBase+"/n1",
		httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	err := c.UpdateNote(t.Context(), "n1", &models.Note{Title: "T"})

	assert.ErrorIs(t, err, errors.ErrSaveTransport)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRejectsDotSegmentIDs(t *testing.T) {
	c, mt := newTestClient(t, Config{})

	for _, id := range []string{".", ".."} {
		err := c.UpdateNote(t.Context(), id, &models.Note{Title: "T"})
		require.Error(t, err)
		assert.Equal(t, "ID_INVALID", errors.ToFrontendError(err).Code)

		_, err = c.FetchNote(t.Context(), id)
		require.Error(t, err)
		assert.Equal(t, "ID_INVALID", errors.ToFrontendError(err).Code)
	}
	assert.Zero(t, mt.GetTotalCallCount(), "no request leaves the client")
}

func TestFetchNote(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodGet, testBase+"/n1",
		httpmock.NewStringResponder(http.StatusOK, `{
			"title": "Trip",
			"contents": [
				{"type":"text","value":"day one"},
				{"type":"audio","value":{"preview":"data:audio/ogg;base64,AA==","contentType":"audio/ogg"}}
			]
		}`))

	note, err := c.FetchNote(t.Context(), "n1")
	require.NoError(t, err)

	assert.Equal(t, "n1", note.ID)
	assert.Equal(t, "Trip", note.Title)
	require.Len(t, note.Contents, 2)
	assert.Equal(t, models.TextBlock("day one"), note.Contents[0])
	assert.Equal(t, models.BlockAudio, note.Contents[1].Type)
	assert.Equal(t, "audio/ogg", note.Contents[1].Media.ContentType)
}

func TestFetchNote_NotFound(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodGet, testBase+"/missing",
		httpmock.NewStringResponder(http.StatusNotFound, "Note not found"))

	_, err := c.FetchNote(t.Context(), "missing")
	assert.ErrorIs(t, err, errors.ErrNoteNotFound)
}

func TestFetchNote_BadPayload(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodGet, testBase+"/n1",
		httpmock.NewStringResponder(http.StatusOK, `{"title":"x","contents":[{"type":"sticker","value":"?"}]}`))

	_, err := c.FetchNote(t.Context(), "n1")
	assert.ErrorIs(t, err, errors.ErrInvalidNote)
}

func TestFetchNote_CacheAndInvalidation(t *testing.T) {
	c, mt := newTestClient(t, Config{CacheTTL: time.Minute})
	mt.RegisterResponder(http.MethodGet, testBase+"/n1",
		httpmock.NewStringResponder(http.StatusOK, `{"title":"Cached","contents":[]}`))
	mt.RegisterResponder(http.MethodPatch, testBase+"/n1",
		httpmock.NewStringResponder(http.StatusOK, ""))

	first, err := c.FetchNote(t.Context(), "n1")
	require.NoError(t, err)
	first.Title = "mutated by caller"

	second, err := c.FetchNote(t.Context(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "Cached", second.Title, "cache must hand out copies")
	assert.Equal(t, 1, mt.GetCallCountInfo()["GET "+testBase+"/n1"])

	require.NoError(t, c.UpdateNote(t.Context(), "n1", &models.Note{Title: "New"}))

	_, err = c.FetchNote(t.Context(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 2, mt.GetCallCountInfo()["GET "+testBase+"/n1"])
}

func TestFetchNote_CacheExpires(t *testing.T) {
	c, mt := newTestClient(t, Config{CacheTTL: time.Second})
	mt.RegisterResponder(http.MethodGet, testBase+"/n1",
		httpmock.NewStringResponder(http.StatusOK, `{"title":"T","contents":[]}`))

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.FetchNote(t.Context(), "n1")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.FetchNote(t.Context(), "n1")
	require.NoError(t, err)

	assert.Equal(t, 2, mt.GetTotalCallCount())
}

func TestFetchNote_CacheDisabled(t *testing.T) {
	c, mt := newTestClient(t, Config{CacheSize: -1})
	mt.RegisterResponder(http.MethodGet, testBase+"/n1",
		httpmock.NewStringResponder(http.StatusOK, `{"title":"T","contents":[]}`))

	for i := 0; i < 2; i++ {
		_, err := c.FetchNote(t.Context(), "n1")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, mt.GetTotalCallCount())
}
