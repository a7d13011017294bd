package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webframp/changelogd/changelog"
	"github.com/webframp/changelogd/db"
	"github.com/webframp/changelogd/srv"
)

func newListCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releases, newest first",
		Example: `  # Show releases (entries marked * are shown on the landing view)
  changelogctl list

  # Print the document exactly as the API returns it
  changelogctl list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := c.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.service.Get(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := changelog.Encode(doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printReleases(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the document as JSON")
	return cmd
}

func newUpsertCmd(c *cli) *cobra.Command {
	var (
		file       string
		showOnMain int
		apkURL     string
		dryRun     bool
		showDiff   bool
	)

	cmd := &cobra.Command{
		Use:   "upsert -f FILE",
		Short: "Add a release, or merge into the release with the same version",
		Long: `Add a release, or merge its fields into the existing release with the same
version. The file holds one release object in YAML or JSON and must contain
version and items; every other field is stored as written.`,
		Example: `  # Preview the change without saving
  changelogctl upsert -f release.yaml --dry-run

  # Read the release from stdin and raise the landing view count
  cat release.json | changelogctl upsert -f - --show-on-main 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := readRelease(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			req := changelog.UpsertRequest{
				Release: release,
				APKURL:  apkURL,
				DryRun:  dryRun,
			}
			if cmd.Flags().Changed("show-on-main") {
				req.ShowOnMain = &showOnMain
			}

			ctx := commandContext(cmd)
			s, err := c.openSession(ctx, !dryRun)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.service.Upsert(ctx, req)
			if err != nil {
				return explain(err)
			}
			printResult(cmd.OutOrStdout(), res, showDiff)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "release file (YAML or JSON), or - for stdin")
	cmd.Flags().IntVar(&showOnMain, "show-on-main", 0, "number of releases on the landing view")
	cmd.Flags().StringVar(&apkURL, "apk-url", "", "download link for the app")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the diff without saving")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "show the diff after saving")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	var (
		dryRun   bool
		showDiff bool
	)

	cmd := &cobra.Command{
		Use:   "delete VERSION",
		Short: "Remove a release",
		Example: `  changelogctl delete 1.4.0
  changelogctl delete 1.4.0 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := c.openSession(ctx, !dryRun)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.service.Delete(ctx, changelog.DeleteRequest{Version: args[0], DryRun: dryRun})
			if err != nil {
				return explain(err)
			}
			printResult(cmd.OutOrStdout(), res, showDiff)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the diff without saving")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "show the diff after saving")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved revisions (sqlite backend only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}

			ctx := commandContext(cmd)
			s, err := c.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.cfg.StoreBackend != srv.BackendSQLite || s.conn == nil {
				return errors.New("history is only recorded by the sqlite backend")
			}

			revisions, err := db.NewStore(s.conn, s.cfg.FilePath).History(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(revisions) == 0 {
				fmt.Fprintln(out, "No revisions.")
				return nil
			}
			for _, rev := range revisions {
				fmt.Fprintf(out, "%4d  %s  %s\n", rev.Version, rev.CreatedAt.Format("2006-01-02 15:04:05"), rev.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of revisions to show (0 for all)")
	return cmd
}

// explain adds a hint to errors a CLI user can act on.
func explain(err error) error {
	var werr *changelog.StoreWriteError
	if errors.As(err, &werr) && werr.Conflict() {
		return fmt.Errorf("%w (the changelog changed while saving; run the command again)", err)
	}
	return err
}

func itemCount(r changelog.Release) int {
	raw, ok := r.Get("items")
	if !ok {
		return 0
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return 0
	}
	return len(items)
}
