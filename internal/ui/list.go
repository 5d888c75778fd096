package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/services"
	"github.com/desertthunder/photosync/internal/tasks"
)

var (
	_ list.Item = photoItem{}
	_ list.Item = albumItem{}
)

// photoItem wraps [models.Photo] to implement [list.Item].
type photoItem struct {
	photo models.Photo
	thumb *tasks.ThumbnailResult
}

func (i photoItem) FilterValue() string { return i.photo.Title }
func (i photoItem) Title() string       { return i.photo.DisplayTitle() }
func (i photoItem) Description() string {
	desc := i.photo.UID
	if i.photo.TakenAtLocal != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.photo.TakenAtLocal)
	}
	if i.photo.Type != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.photo.Type)
	}

	switch {
	case i.thumb == nil:
		return desc + " • loading preview"
	case i.thumb.Err != nil:
		return desc + " • preview failed"
	case i.thumb.NoPreview:
		return desc + " • no preview available"
	}
	return desc
}

// albumItem wraps [models.AlbumNode] to implement [list.Item]. The root option has an empty ID.
type albumItem struct {
	node models.AlbumNode
	root bool
}

func rootAlbumItem() albumItem {
	return albumItem{root: true}
}

func (i albumItem) FilterValue() string { return i.node.Title }
func (i albumItem) Title() string {
	if i.root {
		return services.RootAlbumLabel
	}
	return i.node.Label()
}
func (i albumItem) Description() string {
	if i.root {
		return "Upload without an album"
	}
	return "Owner: " + i.node.OwnerName
}

// albumItems builds the picker entries: the root option followed by the flattened tree.
func albumItems(nodes []models.AlbumNode) []list.Item {
	items := make([]list.Item, 0, len(nodes)+1)
	items = append(items, rootAlbumItem())
	for _, n := range nodes {
		items = append(items, albumItem{node: n})
	}
	return items
}
