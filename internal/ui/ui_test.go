package ui

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/services"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/desertthunder/photosync/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	byDate map[string][]models.Photo
	dates  []string
}

func (s *stubSource) Connect(context.Context) error { return nil }
func (s *stubSource) Close()                        {}
func (s *stubSource) Connected() bool               { return true }
func (s *stubSource) Name() string                  { return "PhotoPrism" }
func (s *stubSource) Tokens() models.SourceTokens   { return models.SourceTokens{} }

func (s *stubSource) Search(_ context.Context, date string, _ int) ([]models.Photo, error) {
	s.dates = append(s.dates, date)
	if date == "1999-01-01" {
		return nil, shared.NewStageError(shared.StageSearch, shared.ErrAPIRequest, "Search failed with status 500", nil)
	}
	return s.byDate[date], nil
}

func (s *stubSource) PhotoDetails(context.Context, string) (*models.Photo, error) {
	return nil, errors.New("not implemented")
}

func (s *stubSource) Thumbnail(context.Context, models.Photo) ([]byte, error) { return nil, nil }

func (s *stubSource) Download(context.Context, string, string) (*services.APIResponse, error) {
	return nil, errors.New("not implemented")
}

type stubDest struct {
	nodes []models.AlbumNode
	err   error
}

func (d *stubDest) Connect(context.Context) error { return nil }
func (d *stubDest) Close()                        {}
func (d *stubDest) Connected() bool               { return true }
func (d *stubDest) Name() string                  { return "Lychee" }

func (d *stubDest) Albums(context.Context) ([]models.AlbumNode, error) { return d.nodes, d.err }

func (d *stubDest) Upload(context.Context, []byte, string, string) error { return nil }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestModel(t *testing.T, source *stubSource, dest *stubDest) *Model {
	t.Helper()
	return NewModel(context.Background(), ModelOpts{
		Source:     source,
		Dest:       dest,
		Prefetcher: tasks.NewPrefetcher(tasks.PrefetchOpts{}),
		Date:       time.Date(2024, 6, 15, 12, 30, 0, 0, time.Local),
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func searchAndApply(t *testing.T, m *Model) {
	t.Helper()
	cmd := m.search()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestRenderPreview(t *testing.T) {
	t.Run("Renders Half Blocks", func(t *testing.T) {
		out, err := RenderPreview(pngBytes(t, 20, 20), 10)
		require.NoError(t, err)

		lines := strings.Split(out, "\n")
		assert.Len(t, lines, 5)
		for _, line := range lines {
			assert.Equal(t, 10, lipgloss.Width(line))
		}
	})

	t.Run("Invalid Image", func(t *testing.T) {
		_, err := RenderPreview([]byte("<svg></svg>"), 10)
		assert.Error(t, err)
	})

	t.Run("Decoder Default Width", func(t *testing.T) {
		v, err := PreviewDecoder(0)(pngBytes(t, 8, 8))
		require.NoError(t, err)

		art, ok := v.(string)
		require.True(t, ok)
		assert.Equal(t, DefaultPreviewWidth, lipgloss.Width(strings.Split(art, "\n")[0]))
	})
}

func TestModel(t *testing.T) {
	photos := []models.Photo{
		{UID: "p1", Title: "Beach", TakenAtLocal: "2024-06-15T10:00:00Z"},
		{UID: "p2", Title: ""},
	}

	t.Run("Search Populates List", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{"2024-06-15": photos}}
		m := newTestModel(t, source, &stubDest{})

		searchAndApply(t, m)

		assert.Equal(t, []string{"2024-06-15"}, source.dates)
		assert.Len(t, m.photoList.Items(), 2)
		assert.Equal(t, "Found 2 photos", m.status)
		assert.False(t, m.statusErr)
	})

	t.Run("Search Failure Is Reported", func(t *testing.T) {
		source := &stubSource{}
		m := newTestModel(t, source, &stubDest{})
		m.date = time.Date(1999, 1, 1, 0, 0, 0, 0, time.Local)

		searchAndApply(t, m)

		assert.True(t, m.statusErr)
		assert.Contains(t, m.status, "Search failed with status 500")
		assert.Empty(t, m.photoList.Items())
	})

	t.Run("Day Navigation", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{}}
		m := newTestModel(t, source, &stubDest{})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
		require.NotNil(t, cmd)
		assert.Equal(t, "2024-06-14", m.dateString())

		_, cmd = m.Update(runes("]"))
		require.NotNil(t, cmd)
		_, cmd = m.Update(runes("]"))
		require.NotNil(t, cmd)
		assert.Equal(t, "2024-06-16", m.dateString())
	})

	t.Run("Stale Search Is Ignored", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{"2024-06-15": photos}}
		m := newTestModel(t, source, &stubDest{})

		cmd := m.search()
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
		m.Update(cmd())

		assert.Empty(t, m.photoList.Items())
	})

	t.Run("Date Input", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{}}
		m := newTestModel(t, source, &stubDest{})

		m.Update(runes("d"))
		require.Equal(t, DateInputView, m.view)

		m.dateInput.SetValue("2024-13-45")
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Equal(t, DateInputView, m.view)
		assert.True(t, m.statusErr)

		m.dateInput.SetValue("2023-12-25")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, PhotoListView, m.view)
		assert.Equal(t, "2023-12-25", m.dateString())

		m.Update(runes("d"))
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, PhotoListView, m.view)
		assert.Equal(t, "2023-12-25", m.dateString())
	})

	t.Run("Thumbnails", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{"2024-06-15": photos}}
		m := newTestModel(t, source, &stubDest{})
		searchAndApply(t, m)

		gen := m.prefetcher.Reset()

		closed := make(chan tasks.ThumbnailResult)
		close(closed)

		_, cmd := m.Update(thumbnailMsg(tasks.ThumbnailResult{UID: "p2", Index: 1, Generation: gen, NoPreview: true}, closed))
		require.NotNil(t, cmd)
		assert.True(t, m.thumbs["p2"].NoPreview)

		item := m.photoList.Items()[1].(photoItem)
		require.NotNil(t, item.thumb)
		assert.Contains(t, item.Description(), "no preview available")

		m.Update(thumbnailMsg(tasks.ThumbnailResult{UID: "p1", Index: 0, Generation: gen - 1, Preview: "old"}, closed))
		_, ok := m.thumbs["p1"]
		assert.False(t, ok)

		m.Update(thumbnailMsg(tasks.ThumbnailResult{UID: "p1", Index: 0, Generation: gen, Preview: "art"}, closed))
		assert.Contains(t, m.renderPreview(), "art")
	})

	t.Run("Albums", func(t *testing.T) {
		nodes := []models.AlbumNode{{ID: "1", Title: "Trips"}, {ID: "2", Title: "Italy", Depth: 1}}
		m := newTestModel(t, &stubSource{}, &stubDest{nodes: nodes})

		m.Update(m.fetchAlbums()())

		items := m.albumList.Items()
		require.Len(t, items, 3)
		assert.Equal(t, services.RootAlbumLabel, items[0].(albumItem).Title())
		assert.Equal(t, "  Italy (ID: 2)", items[2].(albumItem).Title())
	})

	t.Run("Album Failure Retries", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{"2024-06-15": photos}}
		m := newTestModel(t, source, &stubDest{err: shared.NewStageError(shared.StageAlbums, shared.ErrAPIRequest, "Failed to fetch albums", nil)})
		searchAndApply(t, m)

		m.Update(m.fetchAlbums()())
		assert.True(t, m.statusErr)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, PhotoListView, m.view)
	})

	t.Run("Pick Album And Confirm", func(t *testing.T) {
		source := &stubSource{byDate: map[string][]models.Photo{"2024-06-15": photos}}
		m := newTestModel(t, source, &stubDest{nodes: []models.AlbumNode{{ID: "1", Title: "Trips"}}})
		searchAndApply(t, m)
		m.Update(m.fetchAlbums()())

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.Equal(t, AlbumPickerView, m.view)
		require.NotNil(t, m.selected)
		assert.Equal(t, "p1", m.selected.UID)

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.Equal(t, ConfirmView, m.view)
		assert.True(t, m.album.root)
		assert.Contains(t, m.View(), "Beach")

		m.Update(runes("n"))
		assert.Equal(t, AlbumPickerView, m.view)
	})

	t.Run("Result View", func(t *testing.T) {
		m := newTestModel(t, &stubSource{}, &stubDest{})
		m.view = TransferView

		err := shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "All download methods failed", nil)
		m.Update(transferCompleteMsg(nil, err))

		require.Equal(t, ResultView, m.view)
		view := m.View()
		assert.Contains(t, view, "Transfer failed")
		assert.Contains(t, view, "All download methods failed")

		m.Update(runes("r"))
		assert.Equal(t, PhotoListView, m.view)
		assert.Nil(t, m.err)
	})
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[==   ]", progressBar(2, 5, 5))
	assert.Equal(t, "[=====]", progressBar(9, 5, 5))
	assert.Empty(t, progressBar(1, 0, 5))
}
