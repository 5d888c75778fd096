package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/photosync/internal/models"
	"github.com/go-chi/chi/v5"
)

// FakeFile is a downloadable original served by [FakePhotoPrism].
type FakeFile struct {
	Body        []byte
	ContentType string
}

// FakePhotoPrism is an httptest PhotoPrism with just enough API for photosync.
//
// Fields may be changed between requests while holding no lock; tests are expected
// to configure the fake before issuing requests.
type FakePhotoPrism struct {
	Server *httptest.Server

	Username string
	Password string

	// SessionBody is returned by POST /api/v1/session on valid credentials.
	SessionBody map[string]any
	// SessionHeaders are added to the login response.
	SessionHeaders http.Header
	// RotateHeader, when set, is added to every non-login response.
	RotateHeader http.Header

	Photos     []models.Photo
	Details    map[string]models.Photo
	Thumbnails map[string]FakeFile
	Files      map[string]FakeFile
	// ValidTokens restricts which ?t= tokens may download. Empty allows all.
	ValidTokens map[string]bool

	requests     atomic.Int64
	mu           sync.Mutex
	lastQuery    url.Values
	lastAuth     string
	downloadUsed []string
}

// NewFakePhotoPrism starts a fake server that is closed when the test ends.
func NewFakePhotoPrism(t *testing.T) *FakePhotoPrism {
	t.Helper()

	f := &FakePhotoPrism{
		Username: "admin",
		Password: "secret",
		SessionBody: map[string]any{
			"access_token": "access-1",
			"config": map[string]any{
				"previewToken":  "preview-1",
				"downloadToken": "download-1",
			},
		},
		Details:    map[string]models.Photo{},
		Thumbnails: map[string]FakeFile{},
		Files:      map[string]FakeFile{},
	}

	r := chi.NewRouter()
	r.Use(f.count)
	r.Post("/api/v1/session", f.session)
	r.Get("/api/v1/photos", f.search)
	r.Get("/api/v1/photos/{uid}", f.details)
	r.Get("/api/v1/t/{hash}/{token}/{size}", f.thumbnail)
	r.Get("/api/v1/dl/{hash}", f.download)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakePhotoPrism) URL() string { return f.Server.URL }

// Requests returns the number of requests served so far.
func (f *FakePhotoPrism) Requests() int { return int(f.requests.Load()) }

// LastQuery returns the query of the most recent search.
func (f *FakePhotoPrism) LastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

// LastAuthorization returns the Authorization header of the most recent non-login request.
func (f *FakePhotoPrism) LastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

// DownloadTokens returns the ?t= values seen by the download endpoint, in order.
func (f *FakePhotoPrism) DownloadTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.downloadUsed...)
}

func (f *FakePhotoPrism) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if r.URL.Path != "/api/v1/session" {
			f.mu.Lock()
			f.lastAuth = r.Header.Get("Authorization")
			f.mu.Unlock()
			for k, vals := range f.RotateHeader {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakePhotoPrism) session(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}
	if body.Username != f.Username || body.Password != f.Password {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
		return
	}

	for k, vals := range f.SessionHeaders {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	WriteJSON(w, http.StatusOK, f.SessionBody)
}

func (f *FakePhotoPrism) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastQuery = r.URL.Query()
	f.mu.Unlock()

	if !f.authorized(r) {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}

	photos := f.Photos
	if photos == nil {
		photos = []models.Photo{}
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && n < len(photos) {
		photos = photos[:n]
	}
	WriteJSON(w, http.StatusOK, photos)
}

func (f *FakePhotoPrism) details(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}

	photo, ok := f.Details[chi.URLParam(r, "uid")]
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{"error": "Photo not found"})
		return
	}
	WriteJSON(w, http.StatusOK, photo)
}

func (f *FakePhotoPrism) thumbnail(w http.ResponseWriter, r *http.Request) {
	file, ok := f.Thumbnails[chi.URLParam(r, "hash")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	_, _ = w.Write(file.Body)
}

func (f *FakePhotoPrism) download(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	f.mu.Lock()
	f.downloadUsed = append(f.downloadUsed, token)
	f.mu.Unlock()

	if len(f.ValidTokens) > 0 && !f.ValidTokens[token] {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
		return
	}

	file, ok := f.Files[chi.URLParam(r, "hash")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	_, _ = w.Write(file.Body)
}

func (f *FakePhotoPrism) authorized(r *http.Request) bool {
	token, _ := f.SessionBody["access_token"].(string)
	return token == "" || r.Header.Get("Authorization") == "Bearer "+token
}

// RecordedUpload is one multipart upload received by [FakeLychee].
type RecordedUpload struct {
	Fields        map[string]string
	FileName      string
	ContentType   string
	Data          []byte
	ContentLength int64
	XSRF          string
}

// FakeLychee is an httptest Lychee serving the CSRF bootstrap, login, albums and upload endpoints.
type FakeLychee struct {
	Server *httptest.Server

	Username string
	Password string
	// XSRFToken is set as the XSRF-TOKEN cookie (URL-encoded) on every response. Empty disables it.
	XSRFToken  string
	AlbumsBody []byte
	// UploadStatuses are returned by successive uploads; the last one repeats. Default 201.
	UploadStatuses []int
	// UploadErrorBody is written with non-2xx upload statuses.
	UploadErrorBody string

	requests atomic.Int64
	mu       sync.Mutex
	uploads  []RecordedUpload
	loginHdr http.Header
}

// NewFakeLychee starts a fake server that is closed when the test ends.
func NewFakeLychee(t *testing.T) *FakeLychee {
	t.Helper()

	f := &FakeLychee{
		Username:   "admin",
		Password:   "secret",
		XSRFToken:  "xsrf token=1",
		AlbumsBody: []byte(`{"albums":[]}`),
	}

	r := chi.NewRouter()
	r.Use(f.middleware)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	})
	r.Post("/api/v2/Auth::login", f.login)
	r.Get("/api/v2/Albums", f.albums)
	r.Post("/api/v2/Photo", f.upload)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeLychee) URL() string { return f.Server.URL }

// Requests returns the number of requests served so far.
func (f *FakeLychee) Requests() int { return int(f.requests.Load()) }

// Uploads returns the uploads received so far.
func (f *FakeLychee) Uploads() []RecordedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedUpload(nil), f.uploads...)
}

// LoginHeaders returns the headers of the last login request.
func (f *FakeLychee) LoginHeaders() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginHdr
}

func (f *FakeLychee) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.XSRFToken != "" {
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: url.QueryEscape(f.XSRFToken), Path: "/"})
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeLychee) checkXSRF(r *http.Request) bool {
	return f.XSRFToken != "" && r.Header.Get("X-XSRF-TOKEN") == f.XSRFToken
}

func (f *FakeLychee) login(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.loginHdr = r.Header.Clone()
	f.mu.Unlock()

	if !f.checkXSRF(r) {
		WriteJSON(w, 419, map[string]any{"message": "CSRF token mismatch."})
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username != f.Username || body.Password != f.Password {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unknown user or invalid password."})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeLychee) albums(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(f.AlbumsBody)
}

func (f *FakeLychee) upload(w http.ResponseWriter, r *http.Request) {
	rec := RecordedUpload{Fields: map[string]string{}, ContentLength: r.ContentLength, XSRF: r.Header.Get("X-XSRF-TOKEN")}

	if err := r.ParseMultipartForm(32 << 20); err == nil {
		for k, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				rec.Fields[k] = vals[0]
			}
		}
		if fhs := r.MultipartForm.File["file"]; len(fhs) > 0 {
			rec.FileName = fhs[0].Filename
			rec.ContentType = fhs[0].Header.Get("Content-Type")
			if file, err := fhs[0].Open(); err == nil {
				rec.Data, _ = io.ReadAll(file)
				file.Close()
			}
		}
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, rec)
	n := len(f.uploads)
	f.mu.Unlock()

	status := http.StatusCreated
	if len(f.UploadStatuses) > 0 {
		idx := n - 1
		if idx >= len(f.UploadStatuses) {
			idx = len(f.UploadStatuses) - 1
		}
		status = f.UploadStatuses[idx]
	}

	if status >= 300 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.UploadErrorBody)
		return
	}
	WriteJSON(w, status, map[string]any{"id": "photo-" + strconv.Itoa(n)})
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JPEGBytes returns n bytes starting with a JPEG signature.
func JPEGBytes(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	for i := 4; i < n; i++ {
		b[i] = byte(i % 251)
	}
	return b
}
