// Package changelog maintains an ordered list of software releases stored as
// a single JSON document. The Service applies read, upsert and delete on top
// of any Store that offers optimistic concurrency.
package changelog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("changelogd/changelog")

// Action describes what a mutation did to the release list.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
)

// UpsertRequest adds or updates one release.
type UpsertRequest struct {
	Release Release

	// ShowOnMain replaces the document field when non-nil.
	ShowOnMain *int
	// APKURL replaces the document field when non-empty after trimming.
	APKURL string

	DryRun bool
}

// DeleteRequest removes a release by version.
type DeleteRequest struct {
	Version string
	DryRun  bool
}

// Result describes a completed (or, with DryRun, computed) mutation.
type Result struct {
	Action   Action
	Version  string
	Message  string
	Diff     string
	Saved    bool
	Document *Document
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the document with releases sorted newest first.
func (s *Service) Get(ctx context.Context) (*Document, error) {
	ctx, span := tracer.Start(ctx, "changelog.get")
	defer span.End()

	doc, _, err := s.load(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	Sort(doc.Releases)
	span.SetAttributes(attribute.Int("changelog.releases", len(doc.Releases)))
	return doc, nil
}

// Upsert merges req.Release into the release with the same version, or
// appends it when there is none, and saves the re-sorted list.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*Result, error) {
	version := req.Release.Version()
	ctx, span := tracer.Start(ctx, "changelog.upsert",
		trace.WithAttributes(attribute.String("changelog.version", version)))
	defer span.End()

	if version == "" {
		return nil, ValidationError{Field: "release.version", Message: "is required"}
	}
	if !req.Release.HasItems() {
		return nil, ValidationError{Field: "release.items", Message: "must be an array"}
	}

	doc, token, err := s.load(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	before, err := Encode(doc)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if req.ShowOnMain != nil {
		doc.ShowOnMain = *req.ShowOnMain
	}
	if apk := strings.TrimSpace(req.APKURL); apk != "" {
		doc.APKURL = apk
	}

	action := ActionAdd
	idx := slices.IndexFunc(doc.Releases, func(r Release) bool { return r.Version() == version })
	if idx >= 0 {
		action = ActionUpdate
		doc.Releases[idx] = doc.Releases[idx].Merge(req.Release)
	} else {
		doc.Releases = append(doc.Releases, req.Release.Clone())
	}
	Sort(doc.Releases)

	res := &Result{
		Action:   action,
		Version:  version,
		Message:  commitMessage(action, version),
		Document: doc,
	}
	if err := s.finish(ctx, res, before, token, req.DryRun); err != nil {
		recordError(span, err)
		return nil, err
	}
	return res, nil
}

// Delete removes every release whose version equals req.Version. Nothing is
// written when no release matches.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*Result, error) {
	ctx, span := tracer.Start(ctx, "changelog.delete",
		trace.WithAttributes(attribute.String("changelog.version", req.Version)))
	defer span.End()

	if req.Version == "" {
		return nil, ValidationError{Field: "version", Message: "is required"}
	}

	doc, token, err := s.load(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	before, err := Encode(doc)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	n := len(doc.Releases)
	doc.Releases = slices.DeleteFunc(doc.Releases, func(r Release) bool { return r.Version() == req.Version })
	if len(doc.Releases) == n {
		return nil, NotFoundError{Version: req.Version}
	}
	Sort(doc.Releases)

	res := &Result{
		Action:   ActionRemove,
		Version:  req.Version,
		Message:  commitMessage(ActionRemove, req.Version),
		Document: doc,
	}
	if err := s.finish(ctx, res, before, token, req.DryRun); err != nil {
		recordError(span, err)
		return nil, err
	}
	return res, nil
}

func (s *Service) load(ctx context.Context) (*Document, Token, error) {
	ctx, span := tracer.Start(ctx, "changelog.load", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	doc, token, err := s.store.Load(ctx)
	if err != nil {
		recordError(span, err)
		return nil, "", fmt.Errorf("load changelog: %w", err)
	}
	span.SetAttributes(attribute.Bool("changelog.exists", token != ""))
	return doc, token, nil
}

// finish computes the diff for res and saves res.Document unless dryRun.
func (s *Service) finish(ctx context.Context, res *Result, before []byte, token Token, dryRun bool) error {
	after, err := Encode(res.Document)
	if err != nil {
		return err
	}
	res.Diff = unifiedDiff(before, after)
	slog.Debug("changelog diff", "action", res.Action, "version", res.Version, "diff", res.Diff)

	if dryRun {
		return nil
	}

	ctx, span := tracer.Start(ctx, "changelog.save",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("changelog.action", string(res.Action)),
			attribute.Int("changelog.releases", len(res.Document.Releases)),
		))
	defer span.End()

	if err := s.store.Save(ctx, res.Document, token, res.Message); err != nil {
		recordError(span, err)
		return fmt.Errorf("save changelog: %w", err)
	}
	res.Saved = true
	slog.Info("changelog saved", "action", res.Action, "version", res.Version)
	return nil
}

func commitMessage(action Action, version string) string {
	return fmt.Sprintf("chore(changelog): %s %s", action, version)
}

func unifiedDiff(before, after []byte) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
