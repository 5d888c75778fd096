package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchComplete MsgKind = iota
	MsgThumbnail
	MsgThumbnailsDone
	MsgAlbumsFetched
	MsgProgressUpdate
	MsgTransferComplete
)

type searchResult struct {
	date   string
	photos []models.Photo
	err    error
}

type thumbnailResult struct {
	result tasks.ThumbnailResult
	source <-chan tasks.ThumbnailResult
}

type albumsResult struct {
	nodes []models.AlbumNode
	err   error
}

type transferOutcome struct {
	result *tasks.TransferResult
	err    error
}

// searchCompleteMsg is the constructor for [MsgSearchComplete]
func searchCompleteMsg(date string, photos []models.Photo, err error) Msg {
	return Msg{kind: MsgSearchComplete, data: searchResult{date, photos, err}}
}

// thumbnailMsg is the constructor for [MsgThumbnail]. source is drained by the next command.
func thumbnailMsg(res tasks.ThumbnailResult, source <-chan tasks.ThumbnailResult) Msg {
	return Msg{kind: MsgThumbnail, data: thumbnailResult{res, source}}
}

// thumbnailsDoneMsg is the constructor for [MsgThumbnailsDone]
func thumbnailsDoneMsg() Msg {
	return Msg{kind: MsgThumbnailsDone}
}

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(nodes []models.AlbumNode, err error) Msg {
	return Msg{kind: MsgAlbumsFetched, data: albumsResult{nodes, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// transferCompleteMsg is the constructor for [MsgTransferComplete]
func transferCompleteMsg(result *tasks.TransferResult, err error) Msg {
	return Msg{kind: MsgTransferComplete, data: transferOutcome{result, err}}
}
