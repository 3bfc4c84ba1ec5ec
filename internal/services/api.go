// API service for making raw HTTP requests to the FastAPI proxy
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIService provides methods for making raw HTTP requests to the FastAPI
// proxy. Unlike [YTMusicService] it performs no error shaping; callers get
// the status and body as the proxy sent them.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the FastAPI proxy.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// SetupResponse is the proxy's answer to a browser auth upload.
type SetupResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AuthContent any    `json:"auth_content"`
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// UploadJSON uploads JSON data to the specified path.
func (a *APIService) UploadJSON(ctx context.Context, path string, jsonData []byte) (*APIResponse, error) {
	return a.Post(ctx, path, jsonData)
}

// SetupBrowser sends raw browser headers to the proxy's setup endpoint and
// returns the generated auth content for persisting to browser.json.
//
// Calls POST /api/setup-browser on the proxy.
func (a *APIService) SetupBrowser(ctx context.Context, headersRaw string) (*SetupResponse, error) {
	setupReq := struct {
		HeadersRaw string `json:"headers_raw"`
	}{
		HeadersRaw: headersRaw,
	}

	data, err := json.Marshal(setupReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal setup request: %w", err)
	}

	resp, err := a.Post(ctx, "/api/setup-browser", data)
	if err != nil {
		return nil, err
	}

	var setupResp SetupResponse
	if err := json.Unmarshal(resp.Body, &setupResp); err != nil {
		return nil, fmt.Errorf("failed to decode setup response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if setupResp.Message == "" {
			setupResp.Message = fmt.Sprintf("proxy returned status %d", resp.StatusCode)
		}
		setupResp.Success = false
	}

	return &setupResp, nil
}
