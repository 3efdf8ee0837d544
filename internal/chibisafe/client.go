package chibisafe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marianozunino/watchdrop/internal/config"
	"github.com/marianozunino/watchdrop/internal/mimeutil"
	"github.com/marianozunino/watchdrop/internal/utils"
)

// Client talks to a chibisafe server: multipart uploads, album listings and
// batch deletions. All calls are attempted exactly once; retry policy is the
// caller's business.
type Client struct {
	UploadURL  string
	ServerBase string
	APIKey     string
	AlbumUUID  string
	HTTPClient *http.Client
}

// AlbumFile is one entry of an album listing as it appears on the wire. The
// creation timestamp stays a string here; selection logic decides what to do
// with unparsable values.
type AlbumFile struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		UploadURL:  cfg.RequestURL,
		ServerBase: strings.TrimSuffix(cfg.ServerBase, "/"),
		APIKey:     cfg.APIKey,
		AlbumUUID:  cfg.AlbumUUID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// uploadResponse covers the three response shapes chibisafe versions have
// produced, in priority order: file.url, url, data.url.
type uploadResponse struct {
	File struct {
		URL string `json:"url"`
	} `json:"file"`
	URL  string `json:"url"`
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (r *uploadResponse) publicURL() string {
	switch {
	case r.File.URL != "":
		return r.File.URL
	case r.URL != "":
		return r.URL
	default:
		return r.Data.URL
	}
}

// Upload reads the file at path fully into memory, posts it as a single
// file[] multipart part and returns the absolute public URL. The error
// messages are the structured failure reasons surfaced to the notification
// sink.
func (c *Client) Upload(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.New("could not read file")
	}

	filename := filepath.Base(path)
	contentType := mimeutil.TypeByExtension(path)
	log.Printf("Uploading %s (%s, %s)", filename, utils.FormatFileSize(int64(len(data))), contentType)
	if sniffed := mimeutil.Sniff(data); sniffed != contentType {
		log.Printf("Note: %s content sniffs as %s, sending extension type %s", filename, sniffed, contentType)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	// Unique boundary per request so file content containing boundary-like
	// sequences can never collide with it.
	if err := writer.SetBoundary("----WebKitFormBoundary" + strings.ReplaceAll(uuid.NewString(), "-", "")); err != nil {
		return "", fmt.Errorf("failed to set boundary: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file[]"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form part: %w", err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, c.UploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("albumuuid", c.AlbumUUID)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.New("invalid JSON response")
	}

	url := parsed.publicURL()
	if url == "" {
		return "", errors.New("URL not found in response")
	}

	if !strings.HasPrefix(url, "http") {
		url = c.ServerBase + url
	}
	return url, nil
}

// albumListing accepts either a top-level files array or one nested inside a
// data object; the first shape present wins.
type albumListing struct {
	Files []AlbumFile `json:"files"`
	Data  struct {
		Files []AlbumFile `json:"files"`
	} `json:"data"`
}

// ListAlbumFiles fetches the current album listing. Nothing is cached; each
// cleanup pass sees a fresh view.
func (c *Client) ListAlbumFiles() ([]AlbumFile, error) {
	url := fmt.Sprintf("%s/api/album/%s", c.ServerBase, c.AlbumUUID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("album listing failed with status %d", resp.StatusCode)
	}

	var listing albumListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode album listing: %w", err)
	}

	if listing.Files != nil {
		return listing.Files, nil
	}
	return listing.Data.Files, nil
}

// DeleteFiles issues one batch deletion for the given identifiers. The
// server treats the batch as a unit; 200 and 204 both mean the whole batch
// is gone.
func (c *Client) DeleteFiles(uuids []string) error {
	payload, err := json.Marshal(map[string][]string{"uuids": uuids})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}

	url := c.ServerBase + "/api/admin/files/delete"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
