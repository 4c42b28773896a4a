// Client for the local playback server, used by the CLI
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spotctl/internal/models"
)

// DefaultServerURL is where `spotctl serve` listens with the default config.
const DefaultServerURL = "http://127.0.0.1:8888"

// APIService makes requests against a running spotctl server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API client for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server address requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns an [*APIError] for non-2xx responses and nil otherwise.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	var body models.ErrorBody
	if err := json.Unmarshal(r.Body, &body); err != nil || body.Detail == "" {
		body.Detail = strings.TrimSpace(string(r.Body))
	}
	return &APIError{StatusCode: r.StatusCode, Detail: body.Detail}
}

// Decode unmarshals the body into v after checking the status.
func (r *APIResponse) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil)
}

// PostJSON marshals v and posts it.
func (a *APIService) PostJSON(ctx context.Context, path string, v any) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (a *APIService) getJSON(ctx context.Context, path string, v any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

func (a *APIService) postJSON(ctx context.Context, path string, in, out any) error {
	var (
		resp *APIResponse
		err  error
	)
	if in == nil {
		resp, err = a.Post(ctx, path, []byte("{}"))
	} else {
		resp, err = a.PostJSON(ctx, path, in)
	}
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// SetupStatus calls GET /api/setup/status.
func (a *APIService) SetupStatus(ctx context.Context) (*models.SetupStatus, error) {
	var s models.SetupStatus
	if err := a.getJSON(ctx, "/api/setup/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AuthURL calls GET /api/auth/url.
func (a *APIService) AuthURL(ctx context.Context) (*models.AuthURL, error) {
	var u models.AuthURL
	if err := a.getJSON(ctx, "/api/auth/url", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GeneratePairing calls GET /api/setup/qr/generate.
func (a *APIService) GeneratePairing(ctx context.Context) (*models.QRSession, error) {
	var s models.QRSession
	if err := a.getJSON(ctx, "/api/setup/qr/generate", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PairingStatus calls GET /api/setup/qr/status/{id}.
func (a *APIService) PairingStatus(ctx context.Context, id string) (*models.QRStatus, error) {
	var s models.QRStatus
	if err := a.getJSON(ctx, "/api/setup/qr/status/"+url.PathEscape(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CompletePairing calls POST /api/setup/qr/complete/{id}.
func (a *APIService) CompletePairing(ctx context.Context, id string) error {
	return a.postJSON(ctx, "/api/setup/qr/complete/"+url.PathEscape(id), nil, nil)
}

// Playback calls GET /api/playback.
func (a *APIService) Playback(ctx context.Context) (*models.Playback, error) {
	var p models.Playback
	if err := a.getJSON(ctx, "/api/playback", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Control posts a playback command such as "play" or "volume" with an optional JSON body.
func (a *APIService) Control(ctx context.Context, command string, body any) error {
	return a.postJSON(ctx, "/api/"+command, body, nil)
}
