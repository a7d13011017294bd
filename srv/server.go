package srv

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/webframp/changelogd/changelog"
	"github.com/webframp/changelogd/db"
	"github.com/webframp/changelogd/ghstore"
)

// AllowedMethods is sent in the Allow header of a 405 response.
const AllowedMethods = "GET,POST,DELETE"

type Server struct {
	Config       Config
	Changelog    *changelog.Service
	DB           *sql.DB // set for the sqlite backend only
	AdminLimiter *RateLimiter
	Markers      *MarkerClient
	httpServer   *http.Server
}

// New opens the configured store and returns a server backed by it.
func New(cfg Config) (*Server, error) {
	markers := NewMarkerClient(cfg.HoneycombAPIKey, cfg.ServiceName)
	store, conn, err := OpenStore(context.Background(), cfg, markers.CreateMigrationMarker)
	if err != nil {
		return nil, err
	}
	s := NewWithStore(cfg, store)
	s.DB = conn
	s.Markers = markers
	return s, nil
}

// NewWithStore returns a server using store directly.
func NewWithStore(cfg Config, store changelog.Store) *Server {
	return &Server{
		Config:       cfg,
		Changelog:    changelog.NewService(store),
		AdminLimiter: NewRateLimiter(cfg.AdminRateLimit, cfg.AdminRateInterval, cfg.AdminRateBurst),
	}
}

// OpenStore builds the store selected by cfg.StoreBackend. The returned
// *sql.DB is nil for the github backend.
func OpenStore(ctx context.Context, cfg Config, hook db.MigrationHook) (changelog.Store, *sql.DB, error) {
	switch cfg.StoreBackend {
	case BackendSQLite:
		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		if err := db.RunMigrations(ctx, conn, hook); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return db.NewStore(conn, cfg.FilePath), conn, nil
	case BackendGitHub, "":
		store, err := ghstore.New(ghstore.Config{
			Owner:   cfg.RepoOwner,
			Repo:    cfg.RepoName,
			Path:    cfg.FilePath,
			Branch:  cfg.Branch,
			Token:   cfg.GitHubToken,
			BaseURL: cfg.GitHubAPIURL,
			Timeout: cfg.StoreTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create github store: %w", err)
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "unhealthy: database unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// HandleChangelog dispatches /api/changelog by method.
func (s *Server) HandleChangelog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.HandleGetChangelog(w, r)
	case http.MethodPost:
		s.HandleUpsertRelease(w, r)
	case http.MethodDelete:
		s.HandleDeleteRelease(w, r)
	default:
		w.Header().Set("Allow", AllowedMethods)
		WriteError(w, r, &MethodNotAllowedError{Method: r.Method})
	}
}

// HandleGetChangelog returns the changelog with releases newest first.
//
//	@Summary		Get the changelog
//	@Tags			changelog
//	@Produce		json
//	@Success		200	{object}	ChangelogResponse
//	@Failure		500	{object}	errorBody
//	@Router			/api/changelog [get]
func (s *Server) HandleGetChangelog(w http.ResponseWriter, r *http.Request) {
	if missing := s.Config.Missing(false); len(missing) > 0 {
		WriteError(w, r, &ConfigError{Missing: missing})
		return
	}

	doc, err := s.Changelog.Get(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ChangelogResponse{OK: true, Data: doc})
}

// upsertPayload keeps the optional root fields raw so that values of the
// wrong type are ignored rather than rejected.
type upsertPayload struct {
	Release    *changelog.Release `json:"release"`
	ShowOnMain json.RawMessage    `json:"showOnMain"`
	APKURL     json.RawMessage    `json:"apkUrl"`
}

// HandleUpsertRelease adds a release or merges it into the existing one with
// the same version.
//
//	@Summary		Add or update a release
//	@Tags			changelog
//	@Accept			json
//	@Produce		json
//	@Param			x-admin-secret	header		string	true	"Admin secret"
//	@Success		200				{object}	SavedResponse
//	@Failure		400				{object}	errorBody
//	@Failure		401				{object}	errorBody
//	@Failure		429				{object}	errorBody
//	@Failure		500				{object}	errorBody
//	@Router			/api/changelog [post]
func (s *Server) HandleUpsertRelease(w http.ResponseWriter, r *http.Request) {
	if err := s.authorizeAdmin(r); err != nil {
		WriteError(w, r, err)
		return
	}

	var p upsertPayload
	if err := decodeBody(r, &p); err != nil {
		WriteError(w, r, err)
		return
	}

	req := changelog.UpsertRequest{
		ShowOnMain: showOnMain(p.ShowOnMain),
		APKURL:     jsonString(p.APKURL),
	}
	if p.Release != nil {
		req.Release = *p.Release
	}

	res, err := s.Changelog.Upsert(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.recordMutation(r, res)
	WriteJSON(w, http.StatusOK, SavedResponse{OK: true, Saved: true})
}

// HandleDeleteRelease removes a release by version, taken from the query
// string or the JSON body.
//
//	@Summary		Remove a release
//	@Tags			changelog
//	@Accept			json
//	@Produce		json
//	@Param			x-admin-secret	header		string	true	"Admin secret"
//	@Param			version			query		string	false	"Version to remove"
//	@Success		200				{object}	RemovedResponse
//	@Failure		400				{object}	errorBody
//	@Failure		401				{object}	errorBody
//	@Failure		404				{object}	errorBody
//	@Failure		429				{object}	errorBody
//	@Failure		500				{object}	errorBody
//	@Router			/api/changelog [delete]
func (s *Server) HandleDeleteRelease(w http.ResponseWriter, r *http.Request) {
	if err := s.authorizeAdmin(r); err != nil {
		WriteError(w, r, err)
		return
	}

	version := strings.TrimSpace(r.URL.Query().Get("version"))
	if version == "" {
		var p struct {
			Version json.RawMessage `json:"version"`
		}
		if err := decodeBody(r, &p); err != nil {
			WriteError(w, r, err)
			return
		}
		version = jsonScalar(p.Version)
	}

	res, err := s.Changelog.Delete(r.Context(), changelog.DeleteRequest{Version: version})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.recordMutation(r, res)
	WriteJSON(w, http.StatusOK, RemovedResponse{OK: true, Removed: true})
}

func (s *Server) recordMutation(r *http.Request, res *changelog.Result) {
	AddChangelogAttributes(r, string(res.Action), res.Version)
	if s.Markers != nil {
		go s.Markers.CreateChangelogMarker(context.WithoutCancel(r.Context()), res.Message)
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return changelog.ValidationError{Field: "body", Message: "too large"}
		}
		return changelog.ValidationError{Field: "body", Message: "unreadable"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return changelog.ValidationError{Field: "body", Message: "invalid payload"}
	}
	return nil
}

// showOnMain returns the value only for finite JSON numbers.
func showOnMain(raw json.RawMessage) *int {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Trunc(f))
	return &n
}

// jsonString returns raw as a string, or "" for any other JSON type.
func jsonString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// jsonScalar accepts a string or a number, so {"version": 2} names "2".
func jsonScalar(raw json.RawMessage) string {
	if s := jsonString(raw); s != "" {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return ""
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return ""
	}
	return n.String()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("/api/changelog", s.HandleChangelog)
	mux.HandleFunc("GET /api/docs", s.HandleAPIDocs)
	mux.HandleFunc("GET /api/openapi.json", s.HandleAPISpec)

	return otelhttp.NewHandler(RequestLogger(SecurityHeaders(Gzip(LimitRequestBody(mux)))), "changelog")
}

func (s *Server) Serve(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting server", "addr", addr, "backend", s.Config.StoreBackend)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	if s.DB != nil {
		if cerr := s.DB.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
