package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/logger"
	"github.com/hpungsan/repovault/internal/ops"
	"github.com/hpungsan/repovault/internal/vault"
)

// setupRuntime creates an in-memory runtime shared by every app.Run in a test.
func setupRuntime(t *testing.T) *runtime {
	t.Helper()
	gw := gateway.NewMemory()
	store := vault.New(gw)
	require.NoError(t, store.Load(context.Background()))

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	return &runtime{
		store:   store,
		gw:      gw,
		cfg:     cfg,
		baseDir: t.TempDir(),
		log:     logger.NewNop(),
	}
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, rt *runtime, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(func(context.Context, bool) (*runtime, error) { return rt, nil })
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"repovault"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, rt *runtime, args ...string) string {
	t.Helper()
	out, err := run(t, rt, args...)
	require.NoError(t, err, "args %v", args)
	return out
}

func TestCLIAdd(t *testing.T) {
	rt := setupRuntime(t)

	out := mustRun(t, rt, "add", "--category", "lang", "--notes", "core", "https://github.com/golang/go")

	var output ops.AddOutput
	require.NoError(t, json.Unmarshal([]byte(out), &output), "output: %s", out)
	require.Equal(t, "golang", output.Bookmark.Owner)
	require.Equal(t, "go", output.Bookmark.Repo)
	require.Equal(t, "lang", output.Bookmark.Category)
	require.Equal(t, "core", output.Bookmark.Notes)
	require.Equal(t, 1, output.Total)
	require.True(t, strings.Contains(out, "\n  \"bookmark\""), "expected 2-space indent")
}

func TestCLIAdd_Errors(t *testing.T) {
	rt := setupRuntime(t)
	mustRun(t, rt, "add", "github.com/golang/go")

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"missing url", []string{"add"}, "[INVALID_INPUT] url argument is required"},
		{"not github", []string{"add", "https://gitlab.com/a/b"}, "[INVALID_INPUT] must be a GitHub URL"},
		{"duplicate", []string{"add", "https://github.com/golang/go/pulls"}, "[DUPLICATE_ENTRY] already bookmarked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, rt, tt.args...)
			require.Error(t, err)
			require.Equal(t, tt.wantMsg, err.Error())
		})
	}
	require.Equal(t, 1, rt.store.Len())
}

func TestCLIDelete(t *testing.T) {
	rt := setupRuntime(t)
	rec, err := rt.store.Add(context.Background(), "github.com/a/b", "", "")
	require.NoError(t, err)

	var output ops.DeleteOutput
	out := mustRun(t, rt, "delete", itoa(rec.ID))
	require.NoError(t, json.Unmarshal([]byte(out), &output))
	require.True(t, output.Deleted)
	require.Equal(t, 0, output.Total)

	out = mustRun(t, rt, "delete", itoa(rec.ID))
	require.NoError(t, json.Unmarshal([]byte(out), &output))
	require.False(t, output.Deleted)

	_, err = run(t, rt, "delete", "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[INVALID_INPUT]")
}

func TestCLIClear(t *testing.T) {
	rt := setupRuntime(t)
	mustRun(t, rt, "add", "github.com/a/a")
	mustRun(t, rt, "add", "github.com/b/b")

	_, err := run(t, rt, "clear")
	require.Error(t, err)
	require.Equal(t, "[INVALID_INPUT] clear requires --yes", err.Error())
	require.Equal(t, 2, rt.store.Len())

	var output ops.ClearOutput
	out := mustRun(t, rt, "clear", "--yes")
	require.NoError(t, json.Unmarshal([]byte(out), &output))
	require.Equal(t, 2, output.Removed)
	require.Equal(t, 0, rt.store.Len())
}

func TestCLIList(t *testing.T) {
	rt := setupRuntime(t)
	mustRun(t, rt, "add", "--category", "infra", "github.com/golang/go")
	mustRun(t, rt, "add", "--category", "tools", "github.com/someone/go")
	mustRun(t, rt, "add", "--category", "infra", "--notes", "Structured logs", "github.com/uber-go/zap")

	tests := []struct {
		name      string
		args      []string
		wantRepos []string
		wantMore  bool
	}{
		{"all", []string{"list"}, []string{"uber-go/zap", "someone/go", "golang/go"}, false},
		{"search", []string{"list", "--search", "LOGS"}, []string{"uber-go/zap"}, false},
		{"category", []string{"list", "--category", "infra"}, []string{"uber-go/zap", "golang/go"}, false},
		{"limit", []string{"list", "--limit", "2"}, []string{"uber-go/zap", "someone/go"}, true},
		{"offset", []string{"list", "--offset", "2"}, []string{"golang/go"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output ops.ListOutput
			out := mustRun(t, rt, tt.args...)
			require.NoError(t, json.Unmarshal([]byte(out), &output))

			repos := make([]string, 0, len(output.Items))
			for _, r := range output.Items {
				repos = append(repos, r.FullName())
			}
			require.Equal(t, tt.wantRepos, repos)
			require.Equal(t, tt.wantMore, output.Pagination.HasMore)
		})
	}
}

func TestCLIList_TextFormat(t *testing.T) {
	color.NoColor = true
	rt := setupRuntime(t)

	out := mustRun(t, rt, "list", "--format", "text")
	require.Equal(t, "no bookmarks\n", out)

	mustRun(t, rt, "add", "--category", "lang", "--notes", "core", "github.com/golang/go")
	out = mustRun(t, rt, "list", "--format", "text")
	require.True(t, strings.HasPrefix(out, "golang/go [lang] "), "output: %q", out)
	require.Contains(t, out, "\n    core\n")

	_, err := run(t, rt, "list", "--format", "xml")
	require.Error(t, err)
}

func TestCLICategories(t *testing.T) {
	rt := setupRuntime(t)
	mustRun(t, rt, "add", "--category", "tools", "github.com/a/a")
	mustRun(t, rt, "add", "github.com/b/b")

	var output ops.CategoriesOutput
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, rt, "categories")), &output))
	require.Equal(t, []string{"tools", "uncategorized"}, output.Categories)
}

func TestCLICount(t *testing.T) {
	rt := setupRuntime(t)
	mustRun(t, rt, "add", "github.com/a/a")
	mustRun(t, rt, "add", "github.com/b/b")

	var output ops.MessageResponse
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, rt, "count")), &output))
	require.Equal(t, 2, output.Count)
}

func TestCLIExportImport(t *testing.T) {
	rt := setupRuntime(t)
	mustRun(t, rt, "add", "--category", "lang", "github.com/golang/go")
	mustRun(t, rt, "add", "github.com/redis/go-redis")

	exportPath := filepath.Join(t.TempDir(), "backup.json")
	var exported ops.ExportOutput
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, rt, "export", "--path", exportPath)), &exported))
	require.Equal(t, 2, exported.Count)
	require.Equal(t, exportPath, exported.Path)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "[\n  {\n"))

	// Stdout export matches the file.
	out := mustRun(t, rt, "export", "--stdout")
	require.Equal(t, string(data)+"\n", out)

	fresh := setupRuntime(t)
	var imported ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, fresh, "import", "--path", exportPath)), &imported))
	require.Equal(t, 2, imported.Added)
	require.Equal(t, rt.store.List("", ""), fresh.store.List("", ""))

	// Re-import skips everything already present.
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, fresh, "import", "--path", exportPath)), &imported))
	require.Equal(t, 0, imported.Added)
	require.Equal(t, 2, imported.Total)
}

func TestCLIImport_Errors(t *testing.T) {
	rt := setupRuntime(t)
	dir := t.TempDir()

	_, err := run(t, rt, "import", "--path", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "[FILE_NOT_FOUND]")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"owner":"a"}`), 0600))
	_, err = run(t, rt, "import", "--path", bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), "[PARSE_ERROR]")
}

func TestCLIRuntimeOpenError(t *testing.T) {
	app := newCLIApp(func(context.Context, bool) (*runtime, error) {
		return nil, errors.NewPersistence("read collection", os.ErrPermission)
	})
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"repovault", "count"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "[PERSISTENCE_ERROR]")
}

func TestCLIEphemeralFlagReachesOpener(t *testing.T) {
	rt := setupRuntime(t)
	var gotEphemeral bool
	app := newCLIApp(func(_ context.Context, ephemeral bool) (*runtime, error) {
		gotEphemeral = ephemeral
		return rt, nil
	})
	app.Writer = &bytes.Buffer{}
	require.NoError(t, app.Run([]string{"repovault", "--ephemeral", "count"}))
	require.True(t, gotEphemeral)
}

func TestCLIHelpDoesNotOpenStorage(t *testing.T) {
	opened := false
	app := newCLIApp(func(context.Context, bool) (*runtime, error) {
		opened = true
		return nil, os.ErrNotExist
	})
	app.Writer = &bytes.Buffer{}
	require.NoError(t, app.Run([]string{"repovault", "--help"}))
	require.False(t, opened)
}

func TestOutputError(t *testing.T) {
	err := outputError(errors.NewDuplicateEntry("golang", "go"))
	require.Equal(t, "[DUPLICATE_ENTRY] already bookmarked", err.Error())

	err = outputError(os.ErrClosed)
	require.Equal(t, os.ErrClosed.Error(), err.Error())
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"repovault"}, false},
		{"add command", []string{"repovault", "add"}, true},
		{"serve command", []string{"repovault", "serve"}, true},
		{"ephemeral flag", []string{"repovault", "--ephemeral", "list"}, true},
		{"help flag", []string{"repovault", "--help"}, true},
		{"version flag", []string{"repovault", "--version"}, true},
		{"short help flag", []string{"repovault", "-h"}, true},
		{"unknown arg defaults to MCP", []string{"repovault", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isCLIMode(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"repovault"}, false},
		{"help flag", []string{"repovault", "--help"}, true},
		{"short version flag", []string{"repovault", "-v"}, true},
		{"help subcommand", []string{"repovault", "help"}, true},
		{"add command is not help", []string{"repovault", "add"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isHelpOrVersion(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestOpenRuntime_Ephemeral(t *testing.T) {
	t.Setenv("REPOVAULT_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	rt, err := openRuntime(context.Background(), true)
	require.NoError(t, err)
	defer rt.Close()

	require.Equal(t, config.BackendMemory, rt.cfg.Backend)
	require.True(t, rt.store.Loaded())
	require.Equal(t, config.DefaultCollectionName, rt.store.CollectionName())
}

func TestOpenRuntime_SQLitePersistsAcrossRuns(t *testing.T) {
	t.Setenv("REPOVAULT_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	ctx := context.Background()

	rt, err := openRuntime(ctx, false)
	require.NoError(t, err)
	_, err = rt.store.Add(ctx, "github.com/golang/go", "", "")
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	rt, err = openRuntime(ctx, false)
	require.NoError(t, err)
	defer rt.Close()
	require.Equal(t, 1, rt.store.Len())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
