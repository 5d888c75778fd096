package services

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/models"
)

// extractionRule lists JSON key paths in priority order. The first non-empty value wins.
type extractionRule [][]string

var (
	accessTokenRule   = extractionRule{{"access_token"}, {"session_id"}, {"id"}}
	previewTokenRule  = extractionRule{{"config", "previewToken"}}
	downloadTokenRule = extractionRule{{"download_token"}, {"downloadToken"}, {"config", "downloadToken"}}
)

func (r extractionRule) extract(payload map[string]any) string {
	for _, path := range r {
		if v := lookupString(payload, path); v != "" {
			return v
		}
	}
	return ""
}

func lookupString(payload map[string]any, path []string) string {
	var cur any = payload
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}

	switch v := cur.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// extractSourceTokens applies the token rules to a session response body.
func extractSourceTokens(payload map[string]any) models.SourceTokens {
	return models.SourceTokens{
		AccessToken:   accessTokenRule.extract(payload),
		PreviewToken:  previewTokenRule.extract(payload),
		DownloadToken: downloadTokenRule.extract(payload),
	}
}

// downloadTokenFromHeaders finds a header whose name contains both "download" and "token", case-insensitive.
func downloadTokenFromHeaders(h http.Header) (string, bool) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "download") || !strings.Contains(lower, "token") {
			continue
		}
		if v := h.Get(name); v != "" {
			return v, true
		}
	}
	return "", false
}

// TokenKind selects one of the [models.SourceTokens].
type TokenKind int

const (
	DownloadToken TokenKind = iota
	PreviewToken
	AccessToken
)

func (k TokenKind) String() string {
	switch k {
	case DownloadToken:
		return "download"
	case PreviewToken:
		return "preview"
	case AccessToken:
		return "access"
	default:
		return ""
	}
}

// From picks the token of this kind.
func (k TokenKind) From(t models.SourceTokens) string {
	switch k {
	case DownloadToken:
		return t.DownloadToken
	case PreviewToken:
		return t.PreviewToken
	case AccessToken:
		return t.AccessToken
	default:
		return ""
	}
}

// tokenStore holds the active session tokens. Safe for concurrent use.
type tokenStore struct {
	mu        sync.RWMutex
	tokens    models.SourceTokens
	connected bool
}

// Get returns a copy of the tokens and whether a session is active.
func (s *tokenStore) Get() (models.SourceTokens, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens, s.connected
}

// Replace installs a fresh token set for a new session.
func (s *tokenStore) Replace(t models.SourceTokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	s.connected = true
}

// Clear drops the session.
func (s *tokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = models.SourceTokens{}
	s.connected = false
}

// RotateDownload replaces the download token of the active session. It reports whether the value changed.
func (s *tokenStore) RotateDownload(v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || v == "" || v == s.tokens.DownloadToken {
		return false
	}
	s.tokens.DownloadToken = v
	return true
}

// rotationTransport is an [http.RoundTripper] that refreshes the download token from every response.
type rotationTransport struct {
	base   http.RoundTripper
	store  *tokenStore
	logger *log.Logger
}

func newRotationTransport(base http.RoundTripper, store *tokenStore, logger *log.Logger) *rotationTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &rotationTransport{base: base, store: store, logger: logger}
}

func (t *rotationTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if v, ok := downloadTokenFromHeaders(resp.Header); ok && t.store.RotateDownload(v) && t.logger != nil {
		t.logger.Debug("download token rotated", "path", req.URL.Path)
	}

	return resp, nil
}
