package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/photosync/internal/shared"
	tu "github.com/desertthunder/photosync/internal/testing"
)

func TestAPIClient(t *testing.T) {
	t.Run("Do", func(t *testing.T) {
		t.Run("JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if r.Header.Get("X-Custom") != "yes" {
					t.Errorf("expected custom header, got %q", r.Header.Get("X-Custom"))
				}

				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["k"] != "v" {
					t.Errorf("expected body k=v, got %v", body)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			api := &apiClient{baseURL: server.URL + "/", httpClient: server.Client()}
			payload, err := jsonBody(map[string]string{"k": "v"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			resp, err := api.do(context.Background(), http.MethodPost, "/test", payload, http.Header{"X-Custom": {"yes"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !resp.OK(http.StatusOK) {
				t.Errorf("expected 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected JSON response")
			}
			if resp.ContentType() != "application/json" {
				t.Errorf("unexpected content type %q", resp.ContentType())
			}

			var decoded map[string]string
			if err := resp.Decode(&decoded); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if decoded["status"] != "success" {
				t.Errorf("expected status 'success', got %q", decoded["status"])
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, "upstream down")
			}))
			defer server.Close()

			api := &apiClient{baseURL: server.URL, httpClient: server.Client()}
			resp, err := api.do(context.Background(), http.MethodGet, "/", nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if resp.IsJSON {
				t.Error("expected non-JSON response")
			}
			if resp.ErrorMessage() != "upstream down" {
				t.Errorf("unexpected message %q", resp.ErrorMessage())
			}
		})

		t.Run("Network Error", func(t *testing.T) {
			api := &apiClient{
				baseURL:    "http://example.com",
				httpClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			}

			_, err := api.do(context.Background(), http.MethodGet, "/", nil, nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("ErrorMessage", func(t *testing.T) {
		tt := []struct {
			name string
			body string
			want string
		}{
			{name: "message", body: `{"message":"bad","errors":["x"]}`, want: "bad"},
			{name: "errors", body: `{"errors":{"file":"required"}}`, want: "map[file:required]"},
			{name: "error", body: `{"error":"Unauthorized"}`, want: "Unauthorized"},
			{name: "plain", body: "oops", want: "oops"},
			{name: "truncated", body: strings.Repeat("a", 500), want: strings.Repeat("a", 200)},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				resp := &APIResponse{Body: []byte(tc.body)}
				var data any
				if err := json.Unmarshal(resp.Body, &data); err == nil {
					resp.IsJSON, resp.JSONData = true, data
				}

				if got := resp.ErrorMessage(); got != tc.want {
					t.Errorf("ErrorMessage() = %q, want %q", got, tc.want)
				}
			})
		}
	})
}
