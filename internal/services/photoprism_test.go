package services

import (
	"bytes"
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

func newPhotoPrism(t *testing.T, fake *tu.FakePhotoPrism) *PhotoPrismService {
	t.Helper()
	return NewPhotoPrismService(
		models.Credentials{BaseURL: fake.URL(), Username: fake.Username, Password: fake.Password},
		ClientOpts{},
	)
}

func TestPhotoPrismConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("incomplete credentials send nothing", func(t *testing.T) {
		counter := &tu.CountingTransport{}
		for _, creds := range []models.Credentials{
			{Username: "u", Password: "p"},
			{BaseURL: "http://localhost", Password: "p"},
			{BaseURL: "http://localhost", Username: "u"},
		} {
			svc := NewPhotoPrismService(creds, ClientOpts{Transport: counter})
			err := svc.Connect(ctx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrConfig))
		}
		assert.Zero(t, counter.Count())
	})

	t.Run("extracts tokens", func(t *testing.T) {
		fake := tu.NewFakePhotoPrism(t)
		svc := newPhotoPrism(t, fake)

		require.NoError(t, svc.Connect(ctx))
		assert.True(t, svc.Connected())
		assert.Equal(t, models.SourceTokens{
			AccessToken:   "access-1",
			PreviewToken:  "preview-1",
			DownloadToken: "download-1",
		}, svc.Tokens())
	})

	t.Run("header token overrides body", func(t *testing.T) {
		fake := tu.NewFakePhotoPrism(t)
		fake.SessionHeaders = http.Header{"X-Download-Token": {"from-header"}}
		svc := newPhotoPrism(t, fake)

		require.NoError(t, svc.Connect(ctx))
		assert.Equal(t, "from-header", svc.Tokens().DownloadToken)
	})

	t.Run("bad credentials", func(t *testing.T) {
		fake := tu.NewFakePhotoPrism(t)
		svc := NewPhotoPrismService(
			models.Credentials{BaseURL: fake.URL(), Username: "admin", Password: "wrong"},
			ClientOpts{},
		)

		err := svc.Connect(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAuth))
		assert.Contains(t, err.Error(), "401")
		assert.False(t, svc.Connected())
	})

	t.Run("missing access token", func(t *testing.T) {
		fake := tu.NewFakePhotoPrism(t)
		fake.SessionBody = map[string]any{"config": map[string]any{"previewToken": "p"}}
		svc := newPhotoPrism(t, fake)

		err := svc.Connect(ctx)
		assert.True(t, errors.Is(err, shared.ErrAuth))
	})

	t.Run("reconnect replaces tokens", func(t *testing.T) {
		fake := tu.NewFakePhotoPrism(t)
		svc := newPhotoPrism(t, fake)
		require.NoError(t, svc.Connect(ctx))

		fake.SessionBody = map[string]any{"access_token": "access-2"}
		require.NoError(t, svc.Connect(ctx))
		assert.Equal(t, models.SourceTokens{AccessToken: "access-2"}, svc.Tokens())
	})

	t.Run("close", func(t *testing.T) {
		fake := tu.NewFakePhotoPrism(t)
		svc := newPhotoPrism(t, fake)
		require.NoError(t, svc.Connect(ctx))

		svc.Close()
		assert.False(t, svc.Connected())

		_, err := svc.Search(ctx, "2024-01-01", 0)
		assert.True(t, errors.Is(err, shared.ErrNotConnected))
	})
}

func TestPhotoPrismSearch(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakePhotoPrism(t)
	fake.Photos = []models.Photo{
		{UID: "p1", Title: "One", Files: []models.File{{Hash: "h1", Name: "2024/one.jpg"}}},
		{UID: "p2", Title: "Two"},
	}
	svc := newPhotoPrism(t, fake)
	require.NoError(t, svc.Connect(ctx))

	t.Run("query parameters", func(t *testing.T) {
		photos, err := svc.Search(ctx, "2024-06-15", 0)
		require.NoError(t, err)
		assert.Len(t, photos, 2)
		assert.Equal(t, "h1", photos[0].Files[0].Hash)

		q := fake.LastQuery()
		assert.Equal(t, "100", q.Get("count"))
		assert.Equal(t, "1", q.Get("quality"))
		assert.Equal(t, "taken:2024-06-15", q.Get("q"))
		assert.Equal(t, "true", q.Get("merged"))
		assert.Equal(t, "Bearer access-1", fake.LastAuthorization())
	})

	t.Run("count", func(t *testing.T) {
		photos, err := svc.Search(ctx, "2024-06-15", 1)
		require.NoError(t, err)
		assert.Len(t, photos, 1)
		assert.Equal(t, "1", fake.LastQuery().Get("count"))
	})

	t.Run("invalid date", func(t *testing.T) {
		before := fake.Requests()
		_, err := svc.Search(ctx, "15/06/2024", 0)
		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
		assert.Equal(t, before, fake.Requests())
	})

	t.Run("rotation header updates download token", func(t *testing.T) {
		fake.RotateHeader = http.Header{"X-Download-Token": {"download-2"}}
		defer func() { fake.RotateHeader = nil }()

		_, err := svc.Search(ctx, "2024-06-15", 0)
		require.NoError(t, err)
		assert.Equal(t, "download-2", svc.Tokens().DownloadToken)
		assert.Equal(t, "access-1", svc.Tokens().AccessToken)
	})

	t.Run("unauthorized maps to auth", func(t *testing.T) {
		fake.SessionBody["access_token"] = "someone-else"
		defer func() { fake.SessionBody["access_token"] = "access-1" }()

		_, err := svc.Search(ctx, "2024-06-15", 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAuth))

		stage, _ := shared.StageOf(err)
		assert.Equal(t, shared.StageSearch, stage)
	})
}

func TestPhotoPrismDetails(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakePhotoPrism(t)
	fake.Details["p1"] = models.Photo{UID: "p1", Files: []models.File{{Hash: "h1", Name: "a/b/IMG_1.jpg", Primary: true, Size: 10}}}
	svc := newPhotoPrism(t, fake)
	require.NoError(t, svc.Connect(ctx))

	t.Run("found", func(t *testing.T) {
		photo, err := svc.PhotoDetails(ctx, "p1")
		require.NoError(t, err)

		file, ok := photo.PrimaryFile()
		require.True(t, ok)
		assert.Equal(t, "IMG_1.jpg", file.BaseName())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.PhotoDetails(ctx, "missing")
		assert.True(t, errors.Is(err, shared.ErrPhotoNotFound))
		assert.True(t, errors.Is(err, shared.ErrTransfer))
	})

	t.Run("empty uid", func(t *testing.T) {
		_, err := svc.PhotoDetails(ctx, "")
		require.Error(t, err)
		assert.Equal(t, "No photo UID found", shared.MessageOf(err))
	})
}

func TestPhotoPrismThumbnail(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakePhotoPrism(t)
	jpeg := tu.JPEGBytes(4096)
	fake.Thumbnails["good"] = tu.FakeFile{Body: jpeg, ContentType: "image/jpeg"}
	fake.Thumbnails["tiny"] = tu.FakeFile{Body: tu.JPEGBytes(999), ContentType: "image/jpeg"}
	fake.Thumbnails["svg"] = tu.FakeFile{
		Body:        append([]byte(`<svg xmlns="http://www.w3.org/2000/svg">`), bytes.Repeat([]byte(" "), 2000)...),
		ContentType: "image/svg+xml",
	}
	fake.Thumbnails["sniffed"] = tu.FakeFile{
		Body:        append([]byte(`<svg xmlns="http://www.w3.org/2000/svg">`), bytes.Repeat([]byte(" "), 2000)...),
		ContentType: "application/octet-stream",
	}
	svc := newPhotoPrism(t, fake)
	require.NoError(t, svc.Connect(ctx))

	photo := func(hash string) models.Photo {
		return models.Photo{UID: "p", Files: []models.File{{Hash: hash}}}
	}

	t.Run("returns bytes", func(t *testing.T) {
		data, err := svc.Thumbnail(ctx, photo("good"))
		require.NoError(t, err)
		assert.Equal(t, jpeg, data)
	})

	for _, hash := range []string{"tiny", "svg", "sniffed"} {
		t.Run("placeholder "+hash, func(t *testing.T) {
			data, err := svc.Thumbnail(ctx, photo(hash))
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}

	t.Run("no file sends nothing", func(t *testing.T) {
		before := fake.Requests()
		data, err := svc.Thumbnail(ctx, models.Photo{UID: "p"})
		require.NoError(t, err)
		assert.Nil(t, data)

		data, err = svc.Thumbnail(ctx, models.Photo{UID: "p", Files: []models.File{{Hash: "good", Missing: true}}})
		require.NoError(t, err)
		assert.Nil(t, data)
		assert.Equal(t, before, fake.Requests())
	})

	t.Run("not found is an error", func(t *testing.T) {
		_, err := svc.Thumbnail(ctx, photo("unknown"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAPIRequest))
	})
}

func TestPhotoPrismDownload(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakePhotoPrism(t)
	fake.Files["h1"] = tu.FakeFile{Body: tu.JPEGBytes(2048), ContentType: "image/jpeg"}
	svc := newPhotoPrism(t, fake)
	require.NoError(t, svc.Connect(ctx))

	resp, err := svc.Download(ctx, "h1", "download-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Body, 2048)
	assert.Equal(t, []string{"download-1"}, fake.DownloadTokens())
}
