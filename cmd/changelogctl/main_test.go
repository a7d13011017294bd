package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webframp/changelogd/changelog"
	"github.com/webframp/changelogd/srv"
)

func init() {
	color.NoColor = true
}

// harness runs commands against one sqlite database.
type harness struct {
	t      *testing.T
	dbPath string
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	// Keep ambient configuration out of the tests.
	for _, k := range []string{"STORE_BACKEND", "DB_PATH", "GH_FILE_PATH", "GH_REPO_OWNER", "GH_REPO_NAME", "GITHUB_TOKEN"} {
		t.Setenv(k, "")
	}
	return &harness{t: t, dbPath: filepath.Join(dir, "changelog.sqlite3"), dir: dir}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCmd(defaultOpener)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	base := []string{"--backend", "sqlite", "--db", h.dbPath, "--env-file", filepath.Join(h.dir, "missing.env")}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) writeFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) document() *changelog.Document {
	h.t.Helper()
	out, err := h.run("", "list", "--json")
	require.NoError(h.t, err)
	doc, err := changelog.Decode([]byte(out))
	require.NoError(h.t, err)
	return doc
}

func TestList_Empty(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No releases.")
}

func TestUpsert_YAMLFile(t *testing.T) {
	h := newHarness(t)
	file := h.writeFile("release.yaml", `
version: "1.10"
date: 2025-02-01
items:
  - Faster sync
  - Fixed <crash> on start
channel: beta
`)

	out, err := h.run("", "upsert", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "added 1.10")

	doc := h.document()
	require.Len(t, doc.Releases, 1)
	r := doc.Releases[0]
	assert.Equal(t, "1.10", r.Version())
	assert.Equal(t, "2025-02-01", r.Date())
	assert.Equal(t, []string{"version", "date", "items", "channel"}, r.Keys())
	assert.Equal(t, 2, itemCount(r))
}

func TestUpsert_UnquotedNumericVersionKeepsLiteral(t *testing.T) {
	r, err := parseRelease([]byte("version: 1.10\nitems: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "1.10", r.Version())
}

func TestUpsert_JSONFromStdin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(`{"version":"2.0.0","date":"2025-03-01","items":["Big release"]}`,
		"upsert", "-f", "-", "--show-on-main", "4", "--apk-url", " https://example.com/a.apk ")
	require.NoError(t, err)

	doc := h.document()
	assert.Equal(t, 4, doc.ShowOnMain)
	assert.Equal(t, "https://example.com/a.apk", doc.APKURL)
	require.Len(t, doc.Releases, 1)
}

func TestUpsert_MergesAndSorts(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(`{"version":"1.0.0","date":"2025-01-01","items":["a"],"notes":"keep me"}`, "upsert", "-f", "-")
	require.NoError(t, err)
	_, err = h.run(`{"version":"1.1.0","date":"2025-02-01","items":["b"]}`, "upsert", "-f", "-")
	require.NoError(t, err)

	out, err := h.run(`{"version":"1.0.0","items":["a","a2"]}`, "upsert", "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "updated 1.0.0")

	doc := h.document()
	require.Len(t, doc.Releases, 2)
	assert.Equal(t, "1.1.0", doc.Releases[0].Version())
	merged := doc.Releases[1]
	assert.Equal(t, 2, itemCount(merged))
	_, ok := merged.Get("notes")
	assert.True(t, ok, "fields missing from the patch survive")
}

func TestUpsert_DryRunDoesNotSave(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(`{"version":"3.0.0","items":["x"]}`, "upsert", "-f", "-", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would have added 3.0.0")
	assert.Contains(t, out, `+      "version": "3.0.0"`)

	assert.Empty(t, h.document().Releases)
}

func TestUpsert_ValidationError(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(`{"version":"3.0.0"}`, "upsert", "-f", "-")
	var verr changelog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "release.items", verr.Field)
}

func TestUpsert_RequiresFile(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "upsert")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(`{"version":"1.0.0","items":[]}`, "upsert", "-f", "-")
	require.NoError(t, err)

	out, err := h.run("", "delete", "1.0.0", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would have removed 1.0.0")
	assert.Len(t, h.document().Releases, 1)

	out, err = h.run("", "delete", "1.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1.0.0")
	assert.Empty(t, h.document().Releases)

	_, err = h.run("", "delete", "1.0.0")
	var nf changelog.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(`{"version":"1.0.0","items":[]}`, "upsert", "-f", "-")
	require.NoError(t, err)
	_, err = h.run("", "delete", "1.0.0")
	require.NoError(t, err)

	out, err := h.run("", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "chore(changelog): remove 1.0.0")
	assert.Contains(t, lines[1], "chore(changelog): add 1.0.0")

	out, err = h.run("", "history", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestGitHubBackendRequiresConfig(t *testing.T) {
	h := newHarness(t)
	opened := false
	cmd := newRootCmd(func(ctx context.Context, cfg srv.Config) (changelog.Store, *sql.DB, error) {
		opened = true
		return nil, nil, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--backend", "github", "--env-file", filepath.Join(h.dir, "missing.env"), "delete", "1.0.0"})

	err := cmd.Execute()
	var cfgErr *srv.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{srv.EnvRepoOwner, srv.EnvRepoName, srv.EnvGitHubToken}, cfgErr.Missing)
	assert.False(t, opened, "store must not be opened without configuration")
}

func TestParseRelease_Errors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":      "",
		"not object": "- 1\n- 2\n",
		"bad yaml":   "version: [\n",
		"infinity":   "version: .inf\nitems: []\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseRelease([]byte(input))
			assert.Error(t, err)
		})
	}
}
