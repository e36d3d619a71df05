// Download queue client implementing [Dispatcher]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

const (
	queueSubmitPath = "/api/queue/submit"
	queueStatusPath = "/api/queue/status"
)

// DownloadService submits albums to the download queue API.
type DownloadService struct {
	baseURL    string
	httpClient *http.Client
}

// NewDownloadService creates a new download queue client.
func NewDownloadService(baseURL string, client *http.Client) *DownloadService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:7172"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &DownloadService{
		baseURL:    strings.TrimRight(baseURL, "/"),
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

// Get performs a GET request to the specified path and returns the raw response.
func (d *DownloadService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return d.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (d *DownloadService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return d.do(ctx, http.MethodPost, path, data)
}

func (d *DownloadService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
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

// SubmitDownload posts req to the queue.
//
// 200, 201 and 202 carry the queued/duplicate partition. 409 means the queue already holds everything
// that was requested; when its body does not say what, the requested album is reported as a duplicate.
func (d *DownloadService) SubmitDownload(ctx context.Context, req models.DownloadRequest) (*models.SubmitResult, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: download url is required", shared.ErrValidation)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	resp, err := d.Post(ctx, queueSubmitPath, payload)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		result := &models.SubmitResult{}
		_ = json.Unmarshal(resp.Body, result)
		if len(result.Duplicates) == 0 && req.AlbumID != "" {
			result.Duplicates = []models.QueuedItem{{AlbumID: req.AlbumID}}
		}
		return result, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: download queue status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: download queue status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var result models.SubmitResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode submission response: %w", err)
	}

	for i := range result.Queued {
		if result.Queued[i].TaskID == "" {
			result.Queued[i].TaskID = shared.GenerateID()
		}
	}
	return &result, nil
}

// QueueStatus returns the raw queue status document.
func (d *DownloadService) QueueStatus(ctx context.Context) (*APIResponse, error) {
	resp, err := d.Get(ctx, queueStatusPath)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, fmt.Errorf("%w: download queue status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return resp, nil
}
