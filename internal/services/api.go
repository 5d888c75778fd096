// Raw HTTP plumbing shared by the PhotoPrism and Lychee clients
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/photosync/internal/shared"
)

// maxErrorSnippet bounds how much of a non-JSON error body is surfaced.
const maxErrorSnippet = 200

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// ContentType returns the lowercased Content-Type header.
func (r *APIResponse) ContentType() string {
	return strings.ToLower(r.Headers.Get("Content-Type"))
}

// OK reports whether the status is one of codes.
func (r *APIResponse) OK(codes ...int) bool {
	for _, c := range codes {
		if r.StatusCode == c {
			return true
		}
	}
	return false
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ErrorMessage extracts the server's explanation: JSON "message", then "errors",
// then the first 200 characters of the body.
func (r *APIResponse) ErrorMessage() string {
	if obj, ok := r.JSONData.(map[string]any); ok {
		if msg, ok := obj["message"]; ok && msg != nil {
			return fmt.Sprint(msg)
		}
		if errs, ok := obj["errors"]; ok && errs != nil {
			return fmt.Sprint(errs)
		}
		if msg, ok := obj["error"]; ok && msg != nil {
			return fmt.Sprint(msg)
		}
	}

	body := string(r.Body)
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return body
}

// apiClient performs requests relative to a base URL.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

// do sends a request and reads the whole response. header may be nil.
func (a *apiClient) do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.baseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	return a.send(req)
}

func (a *apiClient) send(req *http.Request) (*APIResponse, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// jsonBody marshals v for a request body.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}
