package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/services"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/desertthunder/photosync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PhotoListView ViewState = iota
	DateInputView
	AlbumPickerView
	ConfirmView
	TransferView
	ResultView
)

// DefaultSearchCount is the number of photos requested per day when none is configured.
const DefaultSearchCount = 50

// ModelOpts holds the dependencies of a [Model].
type ModelOpts struct {
	Source       services.SourceService
	Dest         services.DestinationService
	Engine       *tasks.TransferEngine
	Prefetcher   *tasks.Prefetcher
	SearchCount  int       // Photos per search (default: [DefaultSearchCount])
	Date         time.Time // Initial day (default: today)
	PreviewWidth uint      // Columns of the preview pane (default: [DefaultPreviewWidth])
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	source      services.SourceService
	dest        services.DestinationService
	engine      *tasks.TransferEngine
	prefetcher  *tasks.Prefetcher
	searchCount int
	previewCols int
	width       int
	height      int

	date      time.Time
	searching bool
	photos    []models.Photo
	photoList list.Model
	thumbs    map[string]tasks.ThumbnailResult
	dateInput textinput.Model

	albums    []models.AlbumNode
	albumsErr error
	albumList list.Model
	selected  *models.Photo
	album     albumItem
	status    string
	statusErr bool

	progressChan chan tasks.ProgressUpdate
	transferDone chan transferOutcome
	progress     tasks.ProgressUpdate
	result       *tasks.TransferResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	count := opts.SearchCount
	if count <= 0 {
		count = DefaultSearchCount
	}

	input := textinput.New()
	input.Placeholder = time.DateOnly
	input.CharLimit = len(time.DateOnly)
	input.Width = 12

	photoList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	photoList.SetShowHelp(false)
	albumList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	albumList.Title = "Select Lychee Album"
	albumList.SetShowHelp(false)

	cols := int(opts.PreviewWidth)
	if cols <= 0 {
		cols = DefaultPreviewWidth
	}

	return &Model{
		ctx:         ctx,
		previewCols: cols,
		view:        PhotoListView,
		source:      opts.Source,
		dest:        opts.Dest,
		engine:      opts.Engine,
		prefetcher:  opts.Prefetcher,
		searchCount: count,
		date:        truncateDay(date),
		thumbs:      map[string]tasks.ThumbnailResult{},
		photoList:   photoList,
		albumList:   albumList,
		dateInput:   input,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init searches the initial day and loads the album tree.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.search(), m.fetchAlbums())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PhotoListView:
			return m.handlePhotoListKeys(msg)
		case DateInputView:
			return m.handleDateInputKeys(msg)
		case AlbumPickerView:
			return m.handleAlbumPickerKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case TransferView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchComplete:
		return m.handleSearchComplete(msg.data.(searchResult))

	case MsgThumbnail:
		data := msg.data.(thumbnailResult)
		return m, tea.Batch(m.applyThumbnail(data.result), waitForThumbnail(data.source))

	case MsgThumbnailsDone:
		return m, nil

	case MsgAlbumsFetched:
		data := msg.data.(albumsResult)
		m.albums, m.albumsErr = data.nodes, data.err
		if data.err != nil {
			m.setStatus(fmt.Sprintf("Failed to load albums: %s", shared.MessageOf(data.err)), true)
			return m, nil
		}
		return m, m.albumList.SetItems(albumItems(data.nodes))

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgTransferComplete:
		data := msg.data.(transferOutcome)
		m.result = data.result
		m.err = data.err
		m.progressChan, m.transferDone = nil, nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchComplete(data searchResult) (tea.Model, tea.Cmd) {
	if data.date != m.dateString() {
		return m, nil
	}
	m.searching = false

	if data.err != nil {
		m.photos = nil
		m.setStatus(fmt.Sprintf("Search failed: %s", shared.MessageOf(data.err)), true)
		return m, m.photoList.SetItems(nil)
	}

	m.photos = data.photos
	items := make([]list.Item, len(data.photos))
	for i, p := range data.photos {
		items[i] = photoItem{photo: p}
	}
	cmd := m.photoList.SetItems(items)
	m.photoList.ResetSelected()
	m.setStatus(fmt.Sprintf("Found %d photos", len(data.photos)), false)

	if len(data.photos) == 0 {
		return m, cmd
	}
	results := m.prefetcher.Prefetch(m.ctx, data.photos, m.source.Thumbnail)
	return m, tea.Batch(cmd, waitForThumbnail(results))
}

// applyThumbnail stores a result of the active set and refreshes its list row.
func (m *Model) applyThumbnail(res tasks.ThumbnailResult) tea.Cmd {
	if !m.prefetcher.Current(res) {
		return nil
	}
	if res.Index < 0 || res.Index >= len(m.photos) || m.photos[res.Index].UID != res.UID {
		return nil
	}

	m.thumbs[res.UID] = res
	return m.photoList.SetItem(res.Index, photoItem{photo: m.photos[res.Index], thumb: &res})
}

func (m *Model) handlePhotoListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.photoList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.prevDay):
		m.date = m.date.AddDate(0, 0, -1)
		return m, m.search()
	case key.Matches(msg, m.keys.nextDay):
		m.date = m.date.AddDate(0, 0, 1)
		return m, m.search()
	case key.Matches(msg, m.keys.today):
		m.date = truncateDay(time.Now())
		return m, m.search()
	case key.Matches(msg, m.keys.editDate):
		m.view = DateInputView
		m.dateInput.SetValue(m.dateString())
		m.dateInput.CursorEnd()
		return m, m.dateInput.Focus()
	case key.Matches(msg, m.keys.enter):
		item, ok := m.photoList.SelectedItem().(photoItem)
		if !ok {
			return m, nil
		}
		if m.albumsErr != nil {
			m.setStatus("Retrying album fetch...", false)
			return m, m.fetchAlbums()
		}
		photo := item.photo
		m.selected = &photo
		m.view = AlbumPickerView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleDateInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.dateInput.Blur()
		m.view = PhotoListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(m.dateInput.Value()), time.Local)
		if err != nil {
			m.setStatus("Invalid date format. Use YYYY-MM-DD", true)
			return m, nil
		}
		m.dateInput.Blur()
		m.date = date
		m.view = PhotoListView
		return m, m.search()
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m *Model) handleAlbumPickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.albumList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PhotoListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.albumList.SelectedItem().(albumItem); ok {
			m.album = item
			m.view = ConfirmView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = AlbumPickerView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = TransferView
		return m, m.startTransfer()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PhotoListView
		m.selected = nil
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PhotoListView:
		m.photoList, cmd = m.photoList.Update(msg)
	case AlbumPickerView:
		m.albumList, cmd = m.albumList.Update(msg)
	}
	return m, cmd
}

// search starts a new result set for the current day. Previews of the previous day are discarded.
func (m *Model) search() tea.Cmd {
	date := m.dateString()
	count := m.searchCount

	m.prefetcher.Reset()
	m.thumbs = map[string]tasks.ThumbnailResult{}
	m.searching = true
	m.photoList.Title = fmt.Sprintf("Photos taken on %s", date)
	m.setStatus(fmt.Sprintf("Searching photos for %s...", date), false)

	source := m.source
	ctx := m.ctx
	return func() tea.Msg {
		photos, err := source.Search(ctx, date, count)
		return searchCompleteMsg(date, photos, err)
	}
}

func (m *Model) fetchAlbums() tea.Cmd {
	dest := m.dest
	ctx := m.ctx
	return func() tea.Msg {
		nodes, err := dest.Albums(ctx)
		return albumsFetchedMsg(nodes, err)
	}
}

func waitForThumbnail(results <-chan tasks.ThumbnailResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-results
		if !ok {
			return thumbnailsDoneMsg()
		}
		return thumbnailMsg(res, results)
	}
}

func (m *Model) startTransfer() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.transferDone = make(chan transferOutcome, 1)
	m.progress = tasks.ProgressUpdate{Message: "Starting transfer..."}

	photo := *m.selected
	albumID := m.album.node.ID
	progress, done := m.progressChan, m.transferDone

	go func() {
		result, err := m.engine.Transfer(m.ctx, photo, albumID, progress)
		done <- transferOutcome{result, err}
		close(progress)
	}()

	return m.waitForProgress()
}

// waitForProgress relays one progress update, then the outcome once the channel closes.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.transferDone
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			out := <-done
			return transferCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) dateString() string {
	return m.date.Format(time.DateOnly)
}

func (m *Model) resize() {
	listWidth := max(m.width-m.previewWidth()-6, 20)
	m.photoList.SetSize(listWidth, max(m.height-6, 5))
	m.albumList.SetSize(max(m.width-4, 20), max(m.height-6, 5))
}

func (m *Model) previewWidth() int {
	return m.previewCols + 4
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PhotoListView:
		return m.renderPhotoList()
	case DateInputView:
		return m.renderDateInput()
	case AlbumPickerView:
		return m.renderAlbumPicker()
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderPhotoList() string {
	header := styles.title.Render(fmt.Sprintf("PhotoPrism → Lychee • %s", m.dateString()))
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.photoList.View(), "  ", m.renderPreview())

	helpKeys := []key.Binding{m.keys.prevDay, m.keys.nextDay, m.keys.today, m.keys.editDate, m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

// renderPreview draws the thumbnail of the highlighted photo, or its loading state.
func (m *Model) renderPreview() string {
	item, ok := m.photoList.SelectedItem().(photoItem)
	if !ok {
		if m.searching {
			return styles.preview.Render("Searching...")
		}
		return styles.preview.Render("No photos")
	}

	res, ok := m.thumbs[item.photo.UID]
	switch {
	case !ok:
		return styles.preview.Render("Loading preview...")
	case res.Err != nil:
		return styles.preview.Render(styles.err.Render("Preview failed"))
	case res.NoPreview:
		return styles.preview.Render(styles.warn.Render("No preview available"))
	}

	if art, ok := res.Preview.(string); ok && art != "" {
		return styles.preview.Render(art)
	}
	return styles.preview.Render(fmt.Sprintf("%s preview", humanSize(len(res.Data))))
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return styles.err.Render(m.status)
	}
	return styles.help.Render(m.status)
}

func (m *Model) renderDateInput() string {
	title := styles.title.Render("Search photos by date")
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, m.dateInput.View(), m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderAlbumPicker() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n\n%s", m.albumList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Confirm transfer"))
	b.WriteString("\n")
	if m.selected != nil {
		fmt.Fprintf(&b, "Photo: %s (%s)\n", m.selected.DisplayTitle(), m.selected.UID)
	}
	fmt.Fprintf(&b, "Album: %s\n\n", strings.TrimSpace(m.album.Title()))
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
	return b.String()
}

func (m *Model) renderTransfer() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Transferring..."))
	b.WriteString("\n")

	if m.progress.Total > 0 {
		fmt.Fprintf(&b, "%s %d/%d %s\n", progressBar(m.progress.Step, m.progress.Total, 20), m.progress.Step, m.progress.Total, m.progress.Phase)
	}
	b.WriteString(m.progress.Message)
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.err.Render("Transfer failed"))
		b.WriteString("\n")
		if stage, ok := shared.StageOf(m.err); ok {
			fmt.Fprintf(&b, "Stage: %s\n", stage)
		}
		fmt.Fprintf(&b, "Error: %s\n\n", shared.MessageOf(m.err))
	} else if m.result != nil {
		b.WriteString(styles.ok.Render("Transfer complete"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Photo: %s\n", m.result.Photo.DisplayTitle())
		fmt.Fprintf(&b, "File: %s (%s)\n", m.result.FileName, humanSize(int(m.result.Bytes)))
		fmt.Fprintf(&b, "Album: %s\n", strings.TrimSpace(m.album.Title()))
		fmt.Fprintf(&b, "Token: %s\n\n", m.result.Token)
	}

	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit}))
	return b.String()
}

func progressBar(step, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := min(step*width/total, width)
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
