// Package ghstore stores the changelog as a file in a GitHub repository
// through the Contents API. The blob SHA returned by GitHub is the
// concurrency token.
package ghstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/webframp/changelogd/changelog"
)

const (
	DefaultPath      = "public/changelog.json"
	DefaultBranch    = "main"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "changelogd"
)

type Config struct {
	Owner  string
	Repo   string
	Path   string
	Branch string
	Token  string

	// BaseURL overrides https://api.github.com/ (GitHub Enterprise, tests).
	BaseURL string
	Timeout time.Duration
}

type Store struct {
	client *github.Client
	owner  string
	repo   string
	path   string
	branch string
}

func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	client := github.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
	}
	client.UserAgent = DefaultUserAgent

	return &Store{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		path:   strings.TrimPrefix(cfg.Path, "/"),
		branch: cfg.Branch,
	}, nil
}

func (s *Store) Load(ctx context.Context) (*changelog.Document, changelog.Token, error) {
	s.annotate(ctx)

	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, s.path,
		&github.RepositoryContentGetOptions{Ref: s.branch})
	if err != nil {
		status, body := describe(resp, err)
		if status == http.StatusNotFound {
			return changelog.NewDocument(), "", nil
		}
		return nil, "", &changelog.StoreReadError{Status: status, Body: body}
	}
	if file == nil {
		return nil, "", &changelog.StoreReadError{Status: resp.StatusCode, Body: s.path + " is a directory"}
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, "", &changelog.StoreReadError{Status: resp.StatusCode, Body: err.Error()}
	}
	doc, err := changelog.Decode([]byte(content))
	if err != nil {
		return nil, "", err
	}
	return doc, changelog.Token(file.GetSHA()), nil
}

// Save creates the file when token is empty and updates it otherwise. GitHub
// rejects a create over an existing file and an update with a stale SHA.
func (s *Store) Save(ctx context.Context, doc *changelog.Document, token changelog.Token, message string) error {
	s.annotate(ctx)

	content, err := changelog.Encode(doc)
	if err != nil {
		return err
	}
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(s.branch),
	}

	var resp *github.Response
	if token == "" {
		_, resp, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, s.path, opts)
	} else {
		opts.SHA = github.String(string(token))
		_, resp, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, s.path, opts)
	}
	if err != nil {
		status, body := describe(resp, err)
		return &changelog.StoreWriteError{Status: status, Body: body}
	}
	return nil
}

func (s *Store) annotate(ctx context.Context) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("store.backend", "github"),
		attribute.String("store.repo", s.owner+"/"+s.repo),
		attribute.String("store.path", s.path),
		attribute.String("store.branch", s.branch),
	)
}

// describe extracts the HTTP status and GitHub's error message.
func describe(resp *github.Response, err error) (int, string) {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return status, ghErr.Message
	}
	if resp != nil && resp.Response != nil {
		return resp.StatusCode, err.Error()
	}
	return 0, err.Error()
}
