package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/webframp/changelogd/changelog"
	"github.com/webframp/changelogd/srv"
)

// storeOpener returns the store described by cfg. conn is nil unless the
// backend is sqlite.
type storeOpener func(ctx context.Context, cfg srv.Config) (store changelog.Store, conn *sql.DB, err error)

func defaultOpener(ctx context.Context, cfg srv.Config) (changelog.Store, *sql.DB, error) {
	return srv.OpenStore(ctx, cfg, nil)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	envFile string
	backend string
	dbPath  string
	path    string
	plain   bool
}

// session is an opened store for the duration of one command.
type session struct {
	cfg     srv.Config
	service *changelog.Service
	conn    *sql.DB
}

func (s *session) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

type cli struct {
	open storeOpener
	opts globalOptions
}

func newRootCmd(open storeOpener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:   "changelogctl",
		Short: "Maintain the release changelog",
		Long: `Maintain the release changelog stored in a GitHub repository or a local
SQLite database.

Configuration comes from the same environment variables as the server
(GH_REPO_OWNER, GH_REPO_NAME, GITHUB_TOKEN, STORE_BACKEND, DB_PATH, ...),
optionally seeded from a .env file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.opts.plain {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.envFile, "env-file", ".env", "optional file of environment defaults")
	flags.StringVar(&c.opts.backend, "backend", "", "store backend: github or sqlite (default from STORE_BACKEND)")
	flags.StringVar(&c.opts.dbPath, "db", "", "sqlite database file (default from DB_PATH)")
	flags.StringVar(&c.opts.path, "path", "", "changelog file path (default from GH_FILE_PATH)")
	flags.BoolVar(&c.opts.plain, "plain", false, "plain output without colors")

	root.AddCommand(
		newListCmd(c),
		newUpsertCmd(c),
		newDeleteCmd(c),
		newHistoryCmd(c),
	)
	return root
}

// config resolves configuration from the env file, the environment and flags,
// in increasing order of precedence.
func (c *cli) config() (srv.Config, error) {
	if err := godotenv.Load(c.opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return srv.Config{}, fmt.Errorf("load %s: %w", c.opts.envFile, err)
	}

	cfg := srv.ConfigFromEnv()
	switch c.opts.backend {
	case "":
	case srv.BackendGitHub, srv.BackendSQLite:
		cfg.StoreBackend = c.opts.backend
	default:
		return srv.Config{}, fmt.Errorf("unknown backend %q", c.opts.backend)
	}
	if c.opts.dbPath != "" {
		cfg.DBPath = c.opts.dbPath
	}
	if c.opts.path != "" {
		cfg.FilePath = c.opts.path
	}
	return cfg, nil
}

// openSession opens the store. The admin secret guards the HTTP surface only,
// so it is not required here.
func (c *cli) openSession(ctx context.Context, mutating bool) (*session, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	missing := slices.DeleteFunc(cfg.Missing(mutating), func(k string) bool { return k == srv.EnvAdminSecret })
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", &srv.ConfigError{Missing: missing}, strings.Join(missing, ", "))
	}

	store, conn, err := c.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, service: changelog.NewService(store), conn: conn}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
