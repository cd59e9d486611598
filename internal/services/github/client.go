package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"relcut/internal/services"
)

const userAgent = "relcut/0.1.0"

// Client defines the release operations the publish pipeline depends on.
type Client interface {
	CreateRelease(ctx context.Context, req ReleaseRequest) (*Release, error)
	GetReleaseByTag(ctx context.Context, tag string) (*Release, error)
	UploadAsset(ctx context.Context, rel *Release, path string) (*Asset, error)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ReleaseRequest describes the release to create.
type ReleaseRequest struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Body       string `json:"body"`
	Prerelease bool   `json:"prerelease"`
	Draft      bool   `json:"draft"`
}

// Release is the subset of the API release object the pipeline uses.
type Release struct {
	ID        int64  `json:"id"`
	TagName   string `json:"tag_name"`
	Name      string `json:"name"`
	HTMLURL   string `json:"html_url"`
	UploadURL string `json:"upload_url"`
	Draft     bool   `json:"draft"`
}

// Asset is an uploaded release artifact.
type Asset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

type apiError struct {
	Message string `json:"message"`
}

// httpClient implements Client against the REST API.
type httpClient struct {
	apiBase    string
	uploadBase string
	owner      string
	repo       string
	token      string
	client     HTTPDoer
}

// NewClient constructs a release client. The token authenticates every
// request; its value never appears in errors or logs.
func NewClient(apiBase, uploadBase, owner, repo, token string, timeout time.Duration, doer HTTPDoer) (Client, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, services.Wrap(services.ErrConfiguration, "github", "new client", "project.repository not configured", nil)
	}
	if strings.TrimSpace(token) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "github", "new client", "GITHUB_TOKEN not set", nil)
	}
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &httpClient{
		apiBase:    strings.TrimRight(apiBase, "/"),
		uploadBase: strings.TrimRight(uploadBase, "/"),
		owner:      owner,
		repo:       repo,
		token:      token,
		client:     doer,
	}, nil
}

func (c *httpClient) CreateRelease(ctx context.Context, req ReleaseRequest) (*Release, error) {
	if strings.TrimSpace(req.TagName) == "" {
		return nil, errors.New("tag name required")
	}
	path := fmt.Sprintf("/repos/%s/%s/releases", c.owner, c.repo)
	var rel Release
	if err := c.doJSONRequest(ctx, http.MethodPost, c.apiBase+path, req, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *httpClient) GetReleaseByTag(ctx context.Context, tag string) (*Release, error) {
	path := fmt.Sprintf("/repos/%s/%s/releases/tags/%s", c.owner, c.repo, url.PathEscape(tag))
	var rel Release
	if err := c.doJSONRequest(ctx, http.MethodGet, c.apiBase+path, nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *httpClient) UploadAsset(ctx context.Context, rel *Release, path string) (*Asset, error) {
	if rel == nil || rel.ID == 0 {
		return nil, errors.New("release required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat asset: %w", err)
	}

	name := filepath.Base(path)
	uploadURL := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		c.uploadBase, c.owner, c.repo, rel.ID, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, file)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	c.applyStandardHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return nil, fmt.Errorf("decode asset response: %w", err)
	}
	return &asset, nil
}

func (c *httpClient) doJSONRequest(ctx context.Context, method, requestURL string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyStandardHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return nil
}

func (c *httpClient) applyStandardHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", userAgent)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var apiErr apiError
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
		message = apiErr.Message
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", services.ErrNotFound, message)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: github returned %d: %s", services.ErrTransient, resp.StatusCode, message)
	}
	return fmt.Errorf("github returned %d: %s", resp.StatusCode, message)
}
