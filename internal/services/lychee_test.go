package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/shared"
	tu "github.com/desertthunder/photosync/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLychee(t *testing.T, fake *tu.FakeLychee, streaming bool) *LycheeService {
	t.Helper()
	return NewLycheeService(
		models.Credentials{BaseURL: fake.URL(), Username: fake.Username, Password: fake.Password},
		ClientOpts{},
		streaming,
	)
}

func TestLycheeConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("incomplete credentials send nothing", func(t *testing.T) {
		counter := &tu.CountingTransport{}
		svc := NewLycheeService(models.Credentials{BaseURL: "http://localhost"}, ClientOpts{Transport: counter}, true)

		err := svc.Connect(ctx)
		assert.True(t, errors.Is(err, shared.ErrConfig))
		assert.Zero(t, counter.Count())
		assert.False(t, svc.Connected())
	})

	t.Run("login sends decoded xsrf token", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		svc := newLychee(t, fake, true)

		require.NoError(t, svc.Connect(ctx))
		assert.True(t, svc.Connected())
		assert.Equal(t, "xsrf token=1", svc.Tokens().XSRFToken)

		h := fake.LoginHeaders()
		assert.Equal(t, "xsrf token=1", h.Get("X-XSRF-TOKEN"))
		assert.Equal(t, "XMLHttpRequest", h.Get("X-Requested-With"))
		assert.Equal(t, "application/json", h.Get("Accept"))
		assert.Equal(t, "application/json", h.Get("Content-Type"))
	})

	t.Run("missing xsrf cookie", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		fake.XSRFToken = ""
		svc := newLychee(t, fake, true)

		err := svc.Connect(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAuth))
		assert.Equal(t, "Failed to get CSRF token", shared.MessageOf(err))
		assert.Equal(t, 1, fake.Requests())
	})

	t.Run("bad credentials", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		svc := NewLycheeService(models.Credentials{BaseURL: fake.URL(), Username: "admin", Password: "nope"}, ClientOpts{}, true)

		err := svc.Connect(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAuth))
		assert.Contains(t, err.Error(), "Unknown user or invalid password.")
		assert.False(t, svc.Connected())
	})

	t.Run("close", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		svc := newLychee(t, fake, true)
		require.NoError(t, svc.Connect(ctx))

		svc.Close()
		assert.False(t, svc.Connected())
		assert.Empty(t, svc.Tokens().XSRFToken)

		_, err := svc.Albums(ctx)
		assert.True(t, errors.Is(err, shared.ErrNotConnected))
	})
}

func TestLycheeAlbums(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeLychee(t)
	fake.AlbumsBody = []byte(`{"albums":[{"id":"1","title":"Trips","owner_name":"me","albums":[{"id":"2","title":"Paris","owner_name":"me"}]}]}`)
	svc := newLychee(t, fake, true)
	require.NoError(t, svc.Connect(ctx))

	nodes, err := svc.Albums(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.AlbumNode{
		{ID: "1", Title: "Trips", OwnerName: "me", Depth: 0},
		{ID: "2", Title: "Paris", OwnerName: "me", Depth: 1},
	}, nodes)
}

func TestLycheeUpload(t *testing.T) {
	ctx := context.Background()
	data := tu.JPEGBytes(32 * 1024)

	t.Run("accepted on first attempt", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		svc := newLychee(t, fake, true)
		require.NoError(t, svc.Connect(ctx))

		require.NoError(t, svc.Upload(ctx, data, "IMG_1.jpg", "album-1"))

		uploads := fake.Uploads()
		require.Len(t, uploads, 1)
		up := uploads[0]
		assert.Equal(t, "IMG_1.jpg", up.FileName)
		assert.Equal(t, "image/jpeg", up.ContentType)
		assert.Equal(t, data, up.Data)
		assert.Equal(t, "xsrf token=1", up.XSRF)
		assert.Equal(t, map[string]string{
			"file_name":    "IMG_1.jpg",
			"uuid_name":    "",
			"extension":    "",
			"chunk_number": "1",
			"total_chunks": "1",
			"album_id":     "album-1",
		}, up.Fields)
	})

	t.Run("200 also accepted", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		fake.UploadStatuses = []int{http.StatusOK}
		svc := newLychee(t, fake, true)
		require.NoError(t, svc.Connect(ctx))

		require.NoError(t, svc.Upload(ctx, data, "IMG_1.jpg", ""))
		assert.Len(t, fake.Uploads(), 1)
	})

	t.Run("rejection falls back to streaming", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		fake.UploadStatuses = []int{http.StatusInternalServerError, http.StatusCreated}
		svc := newLychee(t, fake, true)
		require.NoError(t, svc.Connect(ctx))

		require.NoError(t, svc.Upload(ctx, data, "clip.mov", ""))

		uploads := fake.Uploads()
		require.Len(t, uploads, 2)
		assert.Equal(t, data, uploads[1].Data)
		assert.Equal(t, "video/quicktime", uploads[1].ContentType)
		assert.Positive(t, uploads[1].ContentLength)
	})

	t.Run("reports first rejection", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		fake.UploadStatuses = []int{http.StatusUnprocessableEntity}
		fake.UploadErrorBody = `{"message":"The file is not a valid image."}`
		svc := newLychee(t, fake, true)
		require.NoError(t, svc.Connect(ctx))

		err := svc.Upload(ctx, data, "IMG_1.jpg", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrTransfer))
		assert.Equal(t, "Upload failed with status 422: The file is not a valid image.", shared.MessageOf(err))
		assert.Len(t, fake.Uploads(), 2)

		stage, _ := shared.StageOf(err)
		assert.Equal(t, shared.StageUpload, stage)
	})

	t.Run("no fallback when disabled", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		fake.UploadStatuses = []int{http.StatusInternalServerError}
		svc := newLychee(t, fake, false)
		require.NoError(t, svc.Connect(ctx))

		require.Error(t, svc.Upload(ctx, data, "IMG_1.jpg", ""))
		assert.Len(t, fake.Uploads(), 1)
	})

	t.Run("not connected", func(t *testing.T) {
		fake := tu.NewFakeLychee(t)
		svc := newLychee(t, fake, true)

		err := svc.Upload(ctx, data, "IMG_1.jpg", "")
		assert.True(t, errors.Is(err, shared.ErrNotConnected))
		assert.Zero(t, fake.Requests())
	})
}
