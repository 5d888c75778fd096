package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/shared"
)

const (
	defaultAlbumTitle = "Untitled"
	defaultAlbumOwner = "Unknown"

	// RootAlbumLabel is the picker entry that uploads without an album (album id "").
	RootAlbumLabel = "Root Album (No specific album)"
)

// albumPayloadKind tags which shape of /api/v2/Albums response was received.
type albumPayloadKind int

const (
	payloadList        albumPayloadKind = iota // top-level array of albums
	payloadWrapped                             // object with non-empty "albums" or "data"
	payloadCategorized                         // object with smart_albums, tag_albums and albums
)

type albumPayload struct {
	kind    albumPayloadKind
	entries []json.RawMessage
}

type albumsObject struct {
	Albums      json.RawMessage `json:"albums"`
	Data        json.RawMessage `json:"data"`
	SmartAlbums json.RawMessage `json:"smart_albums"`
	TagAlbums   json.RawMessage `json:"tag_albums"`
}

// decodeAlbumPayload classifies the response once at the boundary.
func decodeAlbumPayload(raw []byte) (albumPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return albumPayload{}, fmt.Errorf("empty albums response")
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return albumPayload{}, err
		}
		return albumPayload{kind: payloadList, entries: list}, nil

	case '{':
		var obj albumsObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return albumPayload{}, err
		}

		if list := rawList(obj.Albums); len(list) > 0 {
			return albumPayload{kind: payloadWrapped, entries: list}, nil
		}
		if list := rawList(obj.Data); len(list) > 0 {
			return albumPayload{kind: payloadWrapped, entries: list}, nil
		}

		var entries []json.RawMessage
		entries = append(entries, rawList(obj.SmartAlbums)...)
		entries = append(entries, rawList(obj.TagAlbums)...)
		entries = append(entries, rawList(obj.Albums)...)
		return albumPayload{kind: payloadCategorized, entries: entries}, nil

	default:
		return albumPayload{}, fmt.Errorf("unexpected albums response")
	}
}

// rawList accepts a JSON array, or an object whose values are taken in key order.
// Anything else yields nil.
func rawList(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil
		}
		return list
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		list := make([]json.RawMessage, 0, len(keys))
		for _, k := range keys {
			list = append(list, obj[k])
		}
		return list
	default:
		return nil
	}
}

// flexString decodes a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexString(strconv.FormatBool(b))
		return nil
	}

	*f = ""
	return nil
}

type albumEntry struct {
	ID        flexString      `json:"id"`
	Title     *string         `json:"title"`
	OwnerName *string         `json:"owner_name"`
	Albums    json.RawMessage `json:"albums"`
}

// albumTree is the owned form of the decoded hierarchy.
type albumTree struct {
	node     models.AlbumNode
	children []*albumTree
}

func buildAlbumForest(entries []json.RawMessage, depth int) []*albumTree {
	forest := make([]*albumTree, 0, len(entries))
	for _, raw := range entries {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}

		var e albumEntry
		if err := json.Unmarshal(trimmed, &e); err != nil {
			continue
		}

		t := &albumTree{node: models.AlbumNode{
			ID:        string(e.ID),
			Title:     orDefault(e.Title, defaultAlbumTitle),
			OwnerName: orDefault(e.OwnerName, defaultAlbumOwner),
			Depth:     depth,
		}}

		if nested := rawList(e.Albums); len(nested) > 0 {
			t.children = buildAlbumForest(nested, depth+1)
		}
		forest = append(forest, t)
	}
	return forest
}

// walk visits the tree in pre-order.
func (t *albumTree) walk(visit func(models.AlbumNode)) {
	visit(t.node)
	for _, c := range t.children {
		c.walk(visit)
	}
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// FlattenAlbums turns an /api/v2/Albums response into a depth-first list.
//
// Each album is followed immediately by its nested albums at depth+1, preserving input order.
func FlattenAlbums(raw []byte) ([]models.AlbumNode, error) {
	payload, err := decodeAlbumPayload(raw)
	if err != nil {
		return nil, shared.NewStageError(shared.StageAlbums, shared.ErrAPIRequest, "malformed albums response", err)
	}

	nodes := []models.AlbumNode{}
	for _, t := range buildAlbumForest(payload.entries, 0) {
		t.walk(func(n models.AlbumNode) {
			nodes = append(nodes, n)
		})
	}
	return nodes, nil
}
