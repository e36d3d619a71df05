package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
	tu "github.com/desertthunder/discwatch/internal/testing"
	"github.com/urfave/cli/v3"
)

type testEnv struct {
	runner     *Runner
	output     *bytes.Buffer
	provider   *tu.MockProvider
	dispatcher *tu.MockDispatcher
}

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Watch.Enabled = true
	config.Watch.RateLimit = 0
	config.Watch.AlbumTypes = "album,single"
	config.Downloads.AlbumType = "album,single,compilation"
	return config
}

func newTestRunner(t *testing.T, config *shared.Config, output io.Writer) *Runner {
	t.Helper()
	if config == nil {
		config = testConfig()
	}

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Provider:   tu.NewMockProvider(),
		Dispatcher: tu.NewMockDispatcher(),
		DB:         db,
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})
	t.Cleanup(func() { runner.Close() })
	return runner
}

func newTestEnv(t *testing.T, config *shared.Config) *testEnv {
	t.Helper()
	output := &bytes.Buffer{}
	runner := newTestRunner(t, config, output)

	env := &testEnv{
		runner:     runner,
		output:     output,
		provider:   runner.provider.(*tu.MockProvider),
		dispatcher: runner.dispatcher.(*tu.MockDispatcher),
	}
	env.provider.SetDiscography("a1",
		tu.Album("a1", "alb1", "LP", "album"),
		tu.Album("a1", "alb2", "EP", "single"),
		tu.Album("a1", "alb3", "Hits", "compilation"),
	)
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	e.output.Reset()
	app := &cli.Command{
		Name:      "discwatch",
		Commands:  e.runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"discwatch"}, args...))
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := e.run(t, args...); err != nil {
		t.Fatalf("%s failed: %v", strings.Join(args, " "), err)
	}
	return e.output.String()
}

func TestWatchCommands(t *testing.T) {
	t.Run("add then status and list", func(t *testing.T) {
		env := newTestEnv(t, nil)

		out := env.mustRun(t, "watch", "add", "a1")
		if !strings.Contains(out, "Now watching Artist a1 (a1)") {
			t.Errorf("unexpected add output: %q", out)
		}

		out = env.mustRun(t, "watch", "add", "a1")
		if !strings.Contains(out, "Already watching") {
			t.Errorf("expected already watching, got %q", out)
		}

		out = env.mustRun(t, "watch", "status", "--json", "a1")
		var status tasks.WatchStatus
		if err := json.Unmarshal([]byte(out), &status); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if !status.IsWatched || status.Artist == nil || status.Artist.Name != "Artist a1" {
			t.Errorf("unexpected status %+v", status)
		}

		out = env.mustRun(t, "watch", "status", "zz")
		if !strings.Contains(out, "zz is not watched") {
			t.Errorf("unexpected status output: %q", out)
		}

		out = env.mustRun(t, "watch", "list", "--csv")
		if !strings.HasPrefix(out, "ID,Name,Total Albums") || !strings.Contains(out, "a1,Artist a1,3") {
			t.Errorf("unexpected csv: %q", out)
		}
	})

	t.Run("missing artist id", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if err := env.run(t, "watch", "add"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := env.run(t, "watch", "known", "a1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without album ids, got %v", err)
		}
	})

	t.Run("disabled feature", func(t *testing.T) {
		config := testConfig()
		config.Watch.Enabled = false
		env := newTestEnv(t, config)

		if err := env.run(t, "watch", "add", "a1"); !errors.Is(err, shared.ErrFeatureDisabled) {
			t.Errorf("expected ErrFeatureDisabled, got %v", err)
		}
		if err := env.run(t, "watch", "check"); !errors.Is(err, shared.ErrFeatureDisabled) {
			t.Errorf("expected ErrFeatureDisabled for check, got %v", err)
		}
		if out := env.mustRun(t, "watch", "list"); !strings.Contains(out, "No artists") {
			t.Errorf("read-only list should still work, got %q", out)
		}
	})

	t.Run("check queues new albums and records history", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.mustRun(t, "watch", "add", "a1")

		out := env.mustRun(t, "watch", "check", "a1")
		if !strings.Contains(out, "Queued: 2  Duplicates: 0") {
			t.Errorf("unexpected report: %q", out)
		}
		if got := len(env.dispatcher.Requests()); got != 2 {
			t.Errorf("expected 2 submissions for album and single, got %d", got)
		}

		out = env.mustRun(t, "watch", "check", "--json")
		var report tasks.BatchReport
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if report.Queued != 0 || len(report.Checked) != 1 {
			t.Errorf("second check should find nothing new, got %+v", report)
		}

		out = env.mustRun(t, "watch", "albums", "a1")
		if !strings.Contains(out, "Known albums: 2") {
			t.Errorf("unexpected albums output: %q", out)
		}

		out = env.mustRun(t, "watch", "history", "a1")
		if strings.Count(out, "completed") != 2 {
			t.Errorf("expected two completed checks, got %q", out)
		}

		out = env.mustRun(t, "watch", "prune", "--older-than", "1h")
		if !strings.Contains(out, "Pruned 0 check(s)") {
			t.Errorf("unexpected prune output: %q", out)
		}
	})

	t.Run("check unknown artist", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if err := env.run(t, "watch", "check", "nobody"); !errors.Is(err, shared.ErrArtistNotWatched) {
			t.Errorf("expected ErrArtistNotWatched, got %v", err)
		}
		if err := env.run(t, "watch", "albums", "nobody"); !errors.Is(err, shared.ErrArtistNotWatched) {
			t.Errorf("expected ErrArtistNotWatched for albums, got %v", err)
		}
	})

	t.Run("known and missing", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.mustRun(t, "watch", "add", "a1")

		out := env.mustRun(t, "watch", "known", "--json", "a1", "alb1", "alb2")
		var res models.MarkResult
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if res.Processed != 2 || res.Outcome != models.OutcomeComplete {
			t.Errorf("unexpected mark result %+v", res)
		}

		out = env.mustRun(t, "watch", "missing", "a1", "alb2")
		if !strings.Contains(out, "Forgot 1 of 1") {
			t.Errorf("unexpected missing output: %q", out)
		}

		env.mustRun(t, "watch", "check", "a1")
		reqs := env.dispatcher.Requests()
		if len(reqs) != 1 || reqs[0].AlbumID != "alb2" {
			t.Errorf("expected only alb2 to be dispatched, got %+v", reqs)
		}
	})

	t.Run("remove", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.mustRun(t, "watch", "add", "a1")
		env.mustRun(t, "watch", "remove", "a1")

		if err := env.run(t, "watch", "remove", "a1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second remove, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.mustRun(t, "watch", "add", "a1")
		dir := filepath.Join(t.TempDir(), "out")

		out := env.mustRun(t, "watch", "export", "--format", "txt", "--output", dir)
		if !strings.Contains(out, "Exported 1 of 1 artist(s) as txt") {
			t.Errorf("unexpected export output: %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		if err := env.run(t, "watch", "export", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestArtistCommands(t *testing.T) {
	t.Run("info", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.mustRun(t, "watch", "add", "a1")
		env.mustRun(t, "watch", "known", "a1", "alb1")

		out := env.mustRun(t, "artist", "info", "a1")
		if !strings.Contains(out, "Artist a1 (a1)") {
			t.Errorf("missing header: %q", out)
		}
		if !strings.Contains(out, "✓  1. LP") {
			t.Errorf("expected known marker on LP: %q", out)
		}
	})

	t.Run("info provider failure", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.provider.FailDiscography("bad", shared.ErrMetadataFetch)

		if err := env.run(t, "artist", "info", "bad"); !errors.Is(err, shared.ErrMetadataFetch) {
			t.Errorf("expected ErrMetadataFetch, got %v", err)
		}
	})

	t.Run("download uses default album types", func(t *testing.T) {
		env := newTestEnv(t, nil)

		out := env.mustRun(t, "artist", "download", "a1")
		if !strings.Contains(out, "3 album(s) queued") {
			t.Errorf("unexpected output: %q", out)
		}

		out = env.mustRun(t, "artist", "download", "--album-type", "single", "--json", "a1")
		var report models.DispatchReport
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if len(report.Duplicates) != 1 || len(report.Queued) != 0 {
			t.Errorf("expected the single to be a duplicate, got %+v", report)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "discwatch.db")
	if err := os.WriteFile(configPath, []byte(fmt.Sprintf("[database]\npath = %q\n", dbPath)), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	env := newTestEnv(t, nil)

	out := env.mustRun(t, "setup", "database", "--config", configPath)
	if !strings.Contains(out, "Database ready at "+dbPath) {
		t.Errorf("unexpected setup output: %q", out)
	}
	tu.AssertFileExists(t, dbPath)

	out = env.mustRun(t, "setup", "migrations", "--config", configPath)
	if !strings.Contains(out, "0001  applied") {
		t.Errorf("expected first migration listed, got %q", out)
	}

	out = env.mustRun(t, "setup", "database", "--config", configPath)
	if !strings.Contains(out, "(0 migration(s) applied)") {
		t.Errorf("second setup should be a no-op, got %q", out)
	}

	env.mustRun(t, "setup", "rollback", "--config", configPath)
	out = env.mustRun(t, "setup", "database", "--config", configPath)
	if !strings.Contains(out, "(1 migration(s) applied)") {
		t.Errorf("expected rolled back migration to be reapplied, got %q", out)
	}
}
