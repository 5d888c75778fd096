// PhotoPrism API implementation of [SourceService]
//
// Endpoints: session login, photo search, photo details, tile thumbnails and original downloads.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/oauth2"
)

const (
	photoprismSessionPath  = "/api/v1/session"
	photoprismPhotosPath   = "/api/v1/photos"
	photoprismThumbPath    = "/api/v1/t"
	photoprismDownloadPath = "/api/v1/dl"

	// ThumbnailSize is the PhotoPrism tile size requested for previews.
	ThumbnailSize = "tile_500"
	// DefaultSearchCount is used when a search asks for zero results.
	DefaultSearchCount = 100
	// minThumbnailBytes rejects placeholder tiles.
	minThumbnailBytes = 1000
)

var jsonHeader = http.Header{"Content-Type": {"application/json"}}

// PhotoPrismService implements [SourceService] for the PhotoPrism REST API.
//
// Session tokens live in a [tokenStore]; every response passes through a [rotationTransport]
// so the download token follows the server. The access token is attached by an [oauth2.Transport].
type PhotoPrismService struct {
	creds  models.Credentials
	opts   ClientOpts
	store  *tokenStore
	logger *log.Logger

	mu  sync.RWMutex
	api *apiClient
}

// NewPhotoPrismService creates a disconnected client bound to creds.
func NewPhotoPrismService(creds models.Credentials, opts ClientOpts) *PhotoPrismService {
	return &PhotoPrismService{
		creds:  creds,
		opts:   opts,
		store:  &tokenStore{},
		logger: opts.logger("photoprism"),
	}
}

func (p *PhotoPrismService) Name() string {
	return "PhotoPrism"
}

// Connect logs in with username and password and installs a fresh token set.
//
// Incomplete credentials fail with [shared.ErrConfig] before any request is sent.
func (p *PhotoPrismService) Connect(ctx context.Context) error {
	if !p.creds.IsComplete() {
		return shared.NewStageError(shared.StageConnection, shared.ErrConfig, "incomplete PhotoPrism credentials", nil)
	}

	p.Close()

	rotation := newRotationTransport(p.opts.Transport, p.store, p.logger)
	login := &apiClient{
		baseURL:    p.creds.BaseURL,
		httpClient: &http.Client{Transport: rotation, Timeout: p.opts.Timeout},
	}

	body, err := jsonBody(map[string]string{"username": p.creds.Username, "password": p.creds.Password})
	if err != nil {
		return err
	}

	resp, err := login.do(ctx, http.MethodPost, photoprismSessionPath, body, jsonHeader)
	if err != nil {
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, "PhotoPrism unreachable", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("Authentication failed: %d", resp.StatusCode)
		if detail := resp.ErrorMessage(); detail != "" {
			msg += ": " + detail
		}
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, msg, nil)
	}

	payload, ok := resp.JSONData.(map[string]any)
	if !ok {
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, "unexpected session response", nil)
	}

	tokens := extractSourceTokens(payload)
	if v, ok := downloadTokenFromHeaders(resp.Headers); ok {
		tokens.DownloadToken = v
	}
	if tokens.AccessToken == "" {
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, "no access token in session response", nil)
	}

	p.store.Replace(tokens)

	p.mu.Lock()
	p.api = &apiClient{
		baseURL: p.creds.BaseURL,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: accessTokenSource{p.store}, Base: rotation},
			Timeout:   p.opts.Timeout,
		},
	}
	p.mu.Unlock()

	p.logger.Info("connected", "url", p.creds.BaseURL, "preview_token", tokens.PreviewToken != "", "download_token", tokens.DownloadToken != "")
	return nil
}

// Close drops the session tokens.
func (p *PhotoPrismService) Close() {
	p.store.Clear()
	p.mu.Lock()
	p.api = nil
	p.mu.Unlock()
}

func (p *PhotoPrismService) Connected() bool {
	_, ok := p.store.Get()
	return ok
}

func (p *PhotoPrismService) Tokens() models.SourceTokens {
	t, _ := p.store.Get()
	return t
}

func (p *PhotoPrismService) client(stage shared.Stage) (*apiClient, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.api == nil {
		return nil, shared.NewStageError(stage, shared.ErrNotConnected, "Not connected to PhotoPrism", nil)
	}
	return p.api, nil
}

// Search lists photos taken on date, newest quality-filtered and merged by stack.
func (p *PhotoPrismService) Search(ctx context.Context, date string, count int) ([]models.Photo, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD: %q", shared.ErrInvalidArgument, date)
	}

	api, err := p.client(shared.StageSearch)
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		count = DefaultSearchCount
	}

	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("quality", "1")
	q.Set("q", "taken:"+date)
	q.Set("merged", "true")

	resp, err := api.do(ctx, http.MethodGet, photoprismPhotosPath+"?"+q.Encode(), nil, jsonHeader)
	if err != nil {
		return nil, shared.NewStageError(shared.StageSearch, shared.ErrAPIRequest, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(shared.StageSearch, shared.ErrAPIRequest, "Photo search failed", resp)
	}

	var photos []models.Photo
	if err := resp.Decode(&photos); err != nil {
		return nil, shared.NewStageError(shared.StageSearch, shared.ErrAPIRequest, "", err)
	}

	p.logger.Debug("search complete", "date", date, "results", len(photos))
	return photos, nil
}

// PhotoDetails fetches /api/v1/photos/{uid}.
func (p *PhotoPrismService) PhotoDetails(ctx context.Context, uid string) (*models.Photo, error) {
	if uid == "" {
		return nil, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "No photo UID found", nil)
	}

	api, err := p.client(shared.StageDownload)
	if err != nil {
		return nil, err
	}

	resp, err := api.do(ctx, http.MethodGet, photoprismPhotosPath+"/"+url.PathEscape(uid), nil, jsonHeader)
	if err != nil {
		return nil, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "Failed to get photo details", shared.ErrPhotoNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(shared.StageDownload, shared.ErrTransfer, "Failed to get photo details", resp)
	}

	var photo models.Photo
	if err := resp.Decode(&photo); err != nil {
		return nil, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "", err)
	}
	if photo.UID == "" {
		photo.UID = uid
	}
	return &photo, nil
}

// Thumbnail fetches the tile_500 preview of the photo's first file.
//
// A nil slice with a nil error means no preview: the file is missing, has no hash,
// or the server returned an SVG or placeholder tile.
func (p *PhotoPrismService) Thumbnail(ctx context.Context, photo models.Photo) ([]byte, error) {
	hash, ok := photo.ThumbnailHash()
	if !ok {
		return nil, nil
	}

	api, err := p.client(shared.StageThumbnail)
	if err != nil {
		return nil, err
	}

	tokens := p.Tokens()
	path := fmt.Sprintf("%s/%s/%s/%s", photoprismThumbPath, url.PathEscape(hash), url.PathEscape(tokens.PreviewToken), ThumbnailSize)

	resp, err := api.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, shared.NewStageError(shared.StageThumbnail, shared.ErrAPIRequest, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(shared.StageThumbnail, shared.ErrAPIRequest, "Thumbnail request failed", resp)
	}

	if isPlaceholderThumbnail(resp) {
		return nil, nil
	}
	return resp.Body, nil
}

func isPlaceholderThumbnail(resp *APIResponse) bool {
	if len(resp.Body) < minThumbnailBytes {
		return true
	}
	if strings.Contains(resp.ContentType(), "svg") {
		return true
	}
	return mimetype.Detect(resp.Body).Is("image/svg+xml")
}

// Download requests /api/v1/dl/{hash}?t={token}. Validation is left to the caller.
func (p *PhotoPrismService) Download(ctx context.Context, hash, token string) (*APIResponse, error) {
	api, err := p.client(shared.StageDownload)
	if err != nil {
		return nil, err
	}

	path := photoprismDownloadPath + "/" + url.PathEscape(hash) + "?t=" + url.QueryEscape(token)
	resp, err := api.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, shared.NewStageError(shared.StageDownload, shared.ErrTransfer, "", err)
	}
	return resp, nil
}

// statusError maps a non-success response to a [shared.StageError]. 401 and 403 become [shared.ErrAuth].
func statusError(stage shared.Stage, kind error, what string, resp *APIResponse) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = shared.ErrAuth
	}

	msg := fmt.Sprintf("%s: %d", what, resp.StatusCode)
	if detail := resp.ErrorMessage(); detail != "" {
		msg += ": " + detail
	}
	return shared.NewStageError(stage, kind, msg, nil)
}

// accessTokenSource feeds the session access token to [oauth2.Transport].
type accessTokenSource struct {
	store *tokenStore
}

func (s accessTokenSource) Token() (*oauth2.Token, error) {
	tokens, ok := s.store.Get()
	if !ok || tokens.AccessToken == "" {
		return nil, shared.ErrNotConnected
	}
	return &oauth2.Token{AccessToken: tokens.AccessToken, TokenType: "Bearer"}, nil
}
