// Lychee API implementation of [DestinationService]
//
// Lychee is a Laravel application: the session lives in cookies and every state-changing
// request must echo the XSRF-TOKEN cookie in the X-XSRF-TOKEN header.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/shared"
)

const (
	lycheeLoginPath  = "/api/v2/Auth::login"
	lycheeAlbumsPath = "/api/v2/Albums"
	lycheePhotoPath  = "/api/v2/Photo"
	xsrfCookieName   = "XSRF-TOKEN"
)

// LycheeService implements [DestinationService] for the Lychee v2 API.
type LycheeService struct {
	creds    models.Credentials
	opts     ClientOpts
	logger   *log.Logger
	encoders []uploadEncoder

	mu   sync.RWMutex
	api  *apiClient
	jar  http.CookieJar
	base *url.URL
}

// NewLycheeService creates a disconnected client bound to creds.
//
// Uploads are sent buffered first; when streamingFallback is set a rejected upload is
// retried once with a streamed body.
func NewLycheeService(creds models.Credentials, opts ClientOpts, streamingFallback bool) *LycheeService {
	encoders := []uploadEncoder{bufferedUpload}
	if streamingFallback {
		encoders = append(encoders, streamingUpload)
	}

	return &LycheeService{
		creds:    creds,
		opts:     opts,
		logger:   opts.logger("lychee"),
		encoders: encoders,
	}
}

func (l *LycheeService) Name() string {
	return "Lychee"
}

// Connect performs the CSRF bootstrap (GET /) followed by Auth::login.
//
// Incomplete credentials fail with [shared.ErrConfig] before any request is sent.
func (l *LycheeService) Connect(ctx context.Context) error {
	if !l.creds.IsComplete() {
		return shared.NewStageError(shared.StageConnection, shared.ErrConfig, "incomplete Lychee credentials", nil)
	}

	l.Close()

	base, err := url.Parse(strings.TrimRight(l.creds.BaseURL, "/") + "/")
	if err != nil {
		return shared.NewStageError(shared.StageConnection, shared.ErrConfig, "invalid Lychee URL", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := l.opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	api := &apiClient{
		baseURL:    l.creds.BaseURL,
		httpClient: &http.Client{Transport: transport, Jar: jar, Timeout: l.opts.Timeout},
	}

	if _, err := api.do(ctx, http.MethodGet, "/", nil, nil); err != nil {
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, "Lychee unreachable", err)
	}

	token := xsrfFromJar(jar, base)
	if token == "" {
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, "Failed to get CSRF token", nil)
	}

	body, err := jsonBody(map[string]string{"username": l.creds.Username, "password": l.creds.Password})
	if err != nil {
		return err
	}

	header := lycheeHeaders(token)
	header.Set("Content-Type", "application/json")

	resp, err := api.do(ctx, http.MethodPost, lycheeLoginPath, body, header)
	if err != nil {
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, "", err)
	}
	if !resp.OK(http.StatusOK, http.StatusNoContent) {
		msg := fmt.Sprintf("Login failed with status %d", resp.StatusCode)
		if detail := resp.ErrorMessage(); detail != "" {
			msg += ": " + detail
		}
		return shared.NewStageError(shared.StageConnection, shared.ErrAuth, msg, nil)
	}

	l.mu.Lock()
	l.api, l.jar, l.base = api, jar, base
	l.mu.Unlock()

	l.logger.Info("connected", "url", l.creds.BaseURL)
	return nil
}

// Close drops the cookie jar and with it the session.
func (l *LycheeService) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.api, l.jar, l.base = nil, nil, nil
}

func (l *LycheeService) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.api != nil
}

// Tokens returns the current XSRF token, read from the cookie jar.
func (l *LycheeService) Tokens() models.DestinationTokens {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.jar == nil {
		return models.DestinationTokens{}
	}
	return models.DestinationTokens{XSRFToken: xsrfFromJar(l.jar, l.base)}
}

// session returns the client and the XSRF token current at call time.
func (l *LycheeService) session(stage shared.Stage) (*apiClient, string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.api == nil {
		return nil, "", shared.NewStageError(stage, shared.ErrNotConnected, "Not connected to Lychee", nil)
	}
	return l.api, xsrfFromJar(l.jar, l.base), nil
}

// Albums fetches /api/v2/Albums and flattens the hierarchy.
func (l *LycheeService) Albums(ctx context.Context) ([]models.AlbumNode, error) {
	api, token, err := l.session(shared.StageAlbums)
	if err != nil {
		return nil, err
	}

	resp, err := api.do(ctx, http.MethodGet, lycheeAlbumsPath, nil, lycheeHeaders(token))
	if err != nil {
		return nil, shared.NewStageError(shared.StageAlbums, shared.ErrAPIRequest, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(shared.StageAlbums, shared.ErrAPIRequest, "Failed to get albums", resp)
	}

	nodes, err := FlattenAlbums(resp.Body)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("albums loaded", "count", len(nodes))
	return nodes, nil
}

// Upload posts data to /api/v2/Photo as a single-chunk multipart form.
//
// Encoders are tried in order until one is accepted with 200 or 201. A transport error
// aborts immediately. When every encoder is rejected, the first response explains the failure.
func (l *LycheeService) Upload(ctx context.Context, data []byte, filename, albumID string) error {
	api, _, err := l.session(shared.StageUpload)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return shared.NewStageError(shared.StageUpload, shared.ErrTransfer, "empty file", nil)
	}

	form := newUploadForm(data, filename, albumID)
	var rejected *APIResponse

	for _, enc := range l.encoders {
		if enc.encode == nil {
			continue
		}

		body, err := enc.encode(form)
		if err != nil {
			l.logger.Warn("upload encoder unavailable", "encoder", enc.name, "error", err)
			continue
		}

		// Re-read the token per attempt; the jar may have rotated it.
		_, token, err := l.session(shared.StageUpload)
		if err != nil {
			return err
		}

		resp, err := l.post(ctx, api, body, token)
		if err != nil {
			return shared.NewStageError(shared.StageUpload, shared.ErrTransfer, "", err)
		}

		if resp.OK(http.StatusOK, http.StatusCreated) {
			l.logger.Info("upload accepted", "file", filename, "album", albumID, "encoder", enc.name, "bytes", len(data))
			return nil
		}

		l.logger.Warn("upload rejected", "file", filename, "encoder", enc.name, "status", resp.StatusCode)
		if rejected == nil {
			rejected = resp
		}
	}

	if rejected == nil {
		return shared.NewStageError(shared.StageUpload, shared.ErrTransfer, "no upload encoder available", nil)
	}

	msg := fmt.Sprintf("Upload failed with status %d", rejected.StatusCode)
	if detail := rejected.ErrorMessage(); detail != "" {
		msg += ": " + detail
	}
	return shared.NewStageError(shared.StageUpload, shared.ErrTransfer, msg, nil)
}

func (l *LycheeService) post(ctx context.Context, api *apiClient, body *encodedBody, token string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(api.baseURL, "/")+lycheePhotoPath, body.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.ContentLength = body.length
	req.Header = lycheeHeaders(token)
	req.Header.Set("Content-Type", body.contentType)

	return api.send(req)
}

// lycheeHeaders are sent with every authenticated Lychee request.
func lycheeHeaders(xsrf string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("X-Requested-With", "XMLHttpRequest")
	if xsrf != "" {
		h.Set("X-XSRF-TOKEN", xsrf)
	}
	return h
}

// xsrfFromJar returns the URL-decoded XSRF-TOKEN cookie for base, or "".
func xsrfFromJar(jar http.CookieJar, base *url.URL) string {
	if jar == nil || base == nil {
		return ""
	}
	for _, c := range jar.Cookies(base) {
		if c.Name != xsrfCookieName {
			continue
		}
		if v, err := url.QueryUnescape(c.Value); err == nil {
			return v
		}
		return c.Value
	}
	return ""
}
