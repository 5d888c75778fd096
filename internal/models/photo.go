package models

import (
	"path"
	"strings"
)

// DefaultFileName is used when the primary file carries no name.
const DefaultFileName = "photo.jpg"

// Credentials identify an account on one remote service. Immutable once a session starts.
type Credentials struct {
	BaseURL  string
	Username string
	Password string
}

// IsComplete reports whether all three fields are non-empty.
func (c Credentials) IsComplete() bool {
	return c.BaseURL != "" && c.Username != "" && c.Password != ""
}

// Endpoint joins p onto the base URL without doubling slashes.
func (c Credentials) Endpoint(p string) string {
	return strings.TrimRight(c.BaseURL, "/") + p
}

// SourceTokens are the PhotoPrism session tokens.
//
// DownloadToken rotates whenever a response carries a new value.
type SourceTokens struct {
	AccessToken   string
	PreviewToken  string
	DownloadToken string
}

// DestinationTokens are the Lychee session tokens. XSRFToken rotates with the session cookie.
type DestinationTokens struct {
	XSRFToken string
}

// File is one physical file of a [Photo].
type File struct {
	UID     string `json:"UID,omitempty"`
	Hash    string `json:"Hash"`
	Name    string `json:"Name"`
	Mime    string `json:"Mime,omitempty"`
	Size    int64  `json:"Size"`
	Primary bool   `json:"Primary"`
	Missing bool   `json:"Missing"`
}

// BaseName returns the last path element of Name, or [DefaultFileName].
func (f File) BaseName() string {
	if f.Name == "" {
		return DefaultFileName
	}
	return path.Base(f.Name)
}

// Photo is a PhotoPrism search or detail result. Missing fields are tolerated.
type Photo struct {
	UID          string `json:"UID"`
	Title        string `json:"Title"`
	TakenAtLocal string `json:"TakenAtLocal"`
	Type         string `json:"Type"`
	Hash         string `json:"Hash,omitempty"`
	Files        []File `json:"Files"`
}

// DisplayTitle returns Title or "Untitled".
func (p Photo) DisplayTitle() string {
	if p.Title == "" {
		return "Untitled"
	}
	return p.Title
}

// PrimaryFile returns the first file flagged Primary, else the first file.
func (p Photo) PrimaryFile() (File, bool) {
	if len(p.Files) == 0 {
		return File{}, false
	}
	for _, f := range p.Files {
		if f.Primary {
			return f, true
		}
	}
	return p.Files[0], true
}

// ThumbnailHash returns the hash used for tile previews: the first file's, unless it is missing.
func (p Photo) ThumbnailHash() (string, bool) {
	if len(p.Files) == 0 {
		return "", false
	}
	first := p.Files[0]
	if first.Missing || first.Hash == "" {
		return "", false
	}
	return first.Hash, true
}

// AlbumNode is one entry of the flattened album tree. Depth 0 is top level.
type AlbumNode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	OwnerName string `json:"owner"`
	Depth     int    `json:"depth"`
}

// Label renders the node indented by depth, as shown in album pickers.
func (a AlbumNode) Label() string {
	return strings.Repeat("  ", a.Depth) + a.Title + " (ID: " + a.ID + ")"
}
