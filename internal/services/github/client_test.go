package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relcut/internal/services"
	"relcut/internal/services/github"
)

type fakeDoer struct {
	requests []*http.Request
	bodies   []string
	respond  func(req *http.Request) *http.Response
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	body := ""
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(data)
	}
	f.bodies = append(f.bodies, body)
	if f.respond != nil {
		return f.respond(req), nil
	}
	return jsonResponse(http.StatusOK, `{}`), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newClient(t *testing.T, doer *fakeDoer) github.Client {
	t.Helper()
	client, err := github.NewClient(
		"https://api.github.com",
		"https://uploads.github.com",
		"acme", "demo", "ghp_token",
		0, doer,
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresRepositoryAndToken(t *testing.T) {
	if _, err := github.NewClient("", "", "", "", "token", 0, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("missing repo returned %v, want ErrConfiguration", err)
	}
	if _, err := github.NewClient("", "", "acme", "demo", "", 0, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("missing token returned %v, want ErrConfiguration", err)
	}
}

func TestCreateRelease(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(http.StatusCreated, `{"id": 42, "tag_name": "1.2.0", "html_url": "https://github.com/acme/demo/releases/tag/1.2.0"}`)
	}}
	client := newClient(t, doer)

	rel, err := client.CreateRelease(context.Background(), github.ReleaseRequest{
		TagName:    "1.2.0",
		Name:       "demo 1.2.0",
		Body:       "### Features\n\n- Thing",
		Prerelease: false,
	})
	if err != nil {
		t.Fatalf("CreateRelease failed: %v", err)
	}
	if rel.ID != 42 || rel.HTMLURL == "" {
		t.Fatalf("unexpected release: %+v", rel)
	}

	req := doer.requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.URL.String() != "https://api.github.com/repos/acme/demo/releases" {
		t.Errorf("url = %s", req.URL)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer ghp_token" {
		t.Errorf("authorization header = %q", got)
	}
	if got := req.Header.Get("Accept"); got != "application/vnd.github+json" {
		t.Errorf("accept header = %q", got)
	}
	if got := req.Header.Get("X-GitHub-Api-Version"); got != "2022-11-28" {
		t.Errorf("api version header = %q", got)
	}

	var sent github.ReleaseRequest
	if err := json.Unmarshal([]byte(doer.bodies[0]), &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.TagName != "1.2.0" || sent.Name != "demo 1.2.0" {
		t.Errorf("sent body = %+v", sent)
	}
}

func TestGetReleaseByTagNotFound(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(http.StatusNotFound, `{"message": "Not Found"}`)
	}}
	client := newClient(t, doer)

	_, err := client.GetReleaseByTag(context.Background(), "9.9.9")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("GetReleaseByTag returned %v, want ErrNotFound", err)
	}
}

func TestServerErrorsAreTransient(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(http.StatusBadGateway, `{"message": "upstream"}`)
	}}
	client := newClient(t, doer)

	_, err := client.CreateRelease(context.Background(), github.ReleaseRequest{TagName: "1.0.0"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("CreateRelease returned %v, want ErrTransient", err)
	}
}

func TestErrorsNeverContainToken(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(http.StatusUnauthorized, `{"message": "Bad credentials"}`)
	}}
	client := newClient(t, doer)

	_, err := client.CreateRelease(context.Background(), github.ReleaseRequest{TagName: "1.0.0"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if strings.Contains(err.Error(), "ghp_token") {
		t.Errorf("token leaked into error: %v", err)
	}
}

func TestUploadAsset(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(http.StatusCreated, `{"id": 7, "name": "pkg-1.0.0.tar.gz"}`)
	}}
	client := newClient(t, doer)

	path := filepath.Join(t.TempDir(), "pkg-1.0.0.tar.gz")
	if err := os.WriteFile(path, []byte("artifact-bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	asset, err := client.UploadAsset(context.Background(), &github.Release{ID: 42}, path)
	if err != nil {
		t.Fatalf("UploadAsset failed: %v", err)
	}
	if asset.ID != 7 {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	req := doer.requests[0]
	wantURL := "https://uploads.github.com/repos/acme/demo/releases/42/assets?name=pkg-1.0.0.tar.gz"
	if req.URL.String() != wantURL {
		t.Errorf("url = %s, want %s", req.URL, wantURL)
	}
	if req.ContentLength != int64(len("artifact-bytes")) {
		t.Errorf("content length = %d", req.ContentLength)
	}
	if doer.bodies[0] != "artifact-bytes" {
		t.Errorf("uploaded body = %q", doer.bodies[0])
	}
	if ct := req.Header.Get("Content-Type"); ct == "" {
		t.Error("content type missing")
	}
}

func TestUploadAssetRequiresRelease(t *testing.T) {
	client := newClient(t, &fakeDoer{})
	if _, err := client.UploadAsset(context.Background(), nil, "dist/x.tar.gz"); err == nil {
		t.Error("expected error without a release")
	}
}
