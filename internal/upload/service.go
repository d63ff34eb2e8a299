package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/factbook-ai/factbook-proxy/internal/config"
)

const extractRFPPath = "/api/extract-rfp"

// Service relays RFP documents to the factbook backend for extraction.
type Service struct {
	backendURL        string
	client            *http.Client
	maxBytes          int64
	allowedExtensions []string
}

// NewService creates a new upload service.
func NewService(backendURL string, client *http.Client, maxBytes int64, allowedExtensions []string) *Service {
	return &Service{
		backendURL:        strings.TrimRight(backendURL, "/"),
		client:            client,
		maxBytes:          maxBytes,
		allowedExtensions: config.NormalizeExtensions(allowedExtensions),
	}
}

// Accepts reports whether a file with this name and size may be relayed.
func (s *Service) Accepts(filename string, size int64) bool {
	if size > s.maxBytes {
		return false
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ExtractRFP forwards the document as multipart field "file" and decodes the
// backend's extraction result.
func (s *Service) ExtractRFP(ctx context.Context, filename string, file io.Reader) (*ExtractedRFPData, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.backendURL+extractRFPPath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("backend returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var data ExtractedRFPData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}

	return &data, nil
}
