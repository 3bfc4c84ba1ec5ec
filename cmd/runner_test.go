package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/services"
	"github.com/desertthunder/trx/internal/shared"
	tu "github.com/desertthunder/trx/internal/testing"
)

// newTestRunner builds a runner over fakes with output captured and the
// store pointed at a throwaway database.
func newTestRunner(t *testing.T, source *tu.FakeSource, dest *tu.FakeDestination, input string) (*Runner, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")

	opts := RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
		Input:  strings.NewReader(input),
	}
	if source != nil {
		opts.Source = source
	}
	if dest != nil {
		opts.Dest = dest
	}

	return NewRunner(opts), output
}

func runApp(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "trx", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"trx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			source := &tu.FakeSource{}
			dest := &tu.FakeDestination{}
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Source:     source,
				Dest:       dest,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.source != services.Source(source) {
				t.Error("expected source to be set")
			}
			if runner.dest != services.Destination(dest) {
				t.Error("expected dest to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default config path, got %s", runner.configPath)
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("apiClient returns nil without a proxy client", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.apiClient() != nil {
				t.Error("expected nil APIClient when api is unset")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{
			"list-playlists", "list-albums", "migrate-playlist", "migrate-all",
			"setup-auth", "setup-db", "info", "auth", "history", "cache",
			"export", "diff", "search", "api", "tui",
		} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})
}

func TestListCommands(t *testing.T) {
	playlists := []models.Playlist{
		{SourceID: "pl1", Name: "Road Trip", Description: "Driving songs", TrackCount: 12, Public: true},
		{SourceID: "pl2", Name: "Focus", TrackCount: 40},
	}

	t.Run("list-playlists renders text output", func(t *testing.T) {
		source := &tu.FakeSource{
			PlaylistsFn: func(ctx context.Context) ([]models.Playlist, error) {
				return playlists, nil
			},
		}
		runner, output := newTestRunner(t, source, &tu.FakeDestination{}, "")

		if err := runApp(t, runner, "list-playlists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 2 playlists") {
			t.Errorf("expected playlist count in output, got %s", got)
		}
		if !strings.Contains(got, "Road Trip") || !strings.Contains(got, "Focus") {
			t.Errorf("expected playlist names in output, got %s", got)
		}
		if !strings.Contains(got, "Visibility: PUBLIC") || !strings.Contains(got, "Visibility: PRIVATE") {
			t.Errorf("expected visibility lines, got %s", got)
		}
	})

	t.Run("list-playlists applies limit", func(t *testing.T) {
		source := &tu.FakeSource{
			PlaylistsFn: func(ctx context.Context) ([]models.Playlist, error) {
				return playlists, nil
			},
		}
		runner, output := newTestRunner(t, source, &tu.FakeDestination{}, "")

		if err := runApp(t, runner, "list-playlists", "--limit", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 1 playlists") {
			t.Errorf("expected limited count, got %s", got)
		}
		if strings.Contains(got, "Focus") {
			t.Errorf("expected second playlist to be cut, got %s", got)
		}
	})

	t.Run("list-playlists supports JSON output", func(t *testing.T) {
		source := &tu.FakeSource{
			PlaylistsFn: func(ctx context.Context) ([]models.Playlist, error) {
				return playlists, nil
			},
		}
		runner, output := newTestRunner(t, source, &tu.FakeDestination{}, "")

		if err := runApp(t, runner, "list-playlists", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), `"source_id": "pl1"`) {
			t.Errorf("expected JSON payload, got %s", output.String())
		}
	})

	t.Run("list-playlists without a source fails", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil, &tu.FakeDestination{}, "")

		err := runApp(t, runner, "list-playlists")
		if err == nil {
			t.Fatal("expected error when source service is missing")
		}
		if !strings.Contains(err.Error(), "service unavailable") {
			t.Errorf("expected service unavailable error, got %v", err)
		}
	})

	t.Run("list-albums renders text output", func(t *testing.T) {
		source := &tu.FakeSource{
			AlbumsFn: func(ctx context.Context) ([]models.Album, error) {
				return []models.Album{
					{SourceID: "al1", Name: "Blue Album", Artists: []string{"Weezer"}, ReleaseDate: "1994-05-10", TrackCount: 10},
				}, nil
			},
		}
		runner, output := newTestRunner(t, source, &tu.FakeDestination{}, "")

		if err := runApp(t, runner, "list-albums"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 1 saved albums") {
			t.Errorf("expected album count, got %s", got)
		}
		if !strings.Contains(got, "Weezer - Blue Album") {
			t.Errorf("expected artist and album name, got %s", got)
		}
		if !strings.Contains(got, "Released: 1994-05-10") {
			t.Errorf("expected release date, got %s", got)
		}
	})
}

// migrationFakes builds a source holding one two-track playlist and a
// destination that resolves the first track by ISRC and finds nothing for
// the second.
func migrationFakes() (*tu.FakeSource, *tu.FakeDestination) {
	playlist := models.Playlist{
		SourceID:   "pl1",
		Name:       "Mix",
		TrackCount: 2,
		Tracks: []models.Track{
			{SourceID: "t1", Name: "First Song", Artists: []string{"Artist One"}, ISRC: "USRC17607839"},
			{SourceID: "t2", Name: "Second Song", Artists: []string{"Artist Two"}},
		},
	}

	source := &tu.FakeSource{
		PlaylistsFn: func(ctx context.Context) ([]models.Playlist, error) {
			listing := playlist
			listing.Tracks = nil
			return []models.Playlist{listing}, nil
		},
		PlaylistFn: func(ctx context.Context, playlistID string) (*models.Playlist, error) {
			full := playlist
			return &full, nil
		},
	}

	dest := &tu.FakeDestination{
		SearchTracksFn: func(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
			if query == "USRC17607839" {
				return []models.SearchResult{
					{ID: "yt1", Title: "First Song", Artists: []string{"Artist One"}},
				}, nil
			}
			return []models.SearchResult{}, nil
		},
	}

	return source, dest
}

func TestMigrateCommands(t *testing.T) {
	t.Run("migrate-playlist reports a partial success", func(t *testing.T) {
		source, dest := migrationFakes()
		runner, output := newTestRunner(t, source, dest, "")

		if err := runApp(t, runner, "migrate-playlist", "pl1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Migration Complete!") {
			t.Errorf("expected completion banner, got %s", got)
		}
		if !strings.Contains(got, "Success rate: 1/2 (50.0%)") {
			t.Errorf("expected success rate line, got %s", got)
		}
		if !strings.Contains(got, "Artist Two - Second Song") {
			t.Errorf("expected failed track listing, got %s", got)
		}
	})

	t.Run("migrate-playlist records history", func(t *testing.T) {
		source, dest := migrationFakes()
		runner, output := newTestRunner(t, source, dest, "")

		if err := runApp(t, runner, "migrate-playlist", "pl1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output.Reset()
		if err := runApp(t, runner, "history"); err != nil {
			t.Fatalf("expected no error listing history, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 1 migration runs") {
			t.Errorf("expected one history row, got %s", got)
		}
		if !strings.Contains(got, "spotify → ytmusic") {
			t.Errorf("expected service pair, got %s", got)
		}
		if !strings.Contains(got, "Tracks: 1/2 migrated, 1 failed") {
			t.Errorf("expected track counts, got %s", got)
		}
	})

	t.Run("migrate-playlist requires an argument", func(t *testing.T) {
		source, dest := migrationFakes()
		runner, _ := newTestRunner(t, source, dest, "")

		err := runApp(t, runner, "migrate-playlist")
		if err == nil {
			t.Fatal("expected error without a playlist argument")
		}
		if !strings.Contains(err.Error(), "missing required argument") {
			t.Errorf("expected missing argument error, got %v", err)
		}
	})

	t.Run("migrate-playlist rejects conflicting visibility flags", func(t *testing.T) {
		source, dest := migrationFakes()
		runner, _ := newTestRunner(t, source, dest, "")

		err := runApp(t, runner, "migrate-playlist", "pl1", "--public", "--private")
		if err == nil {
			t.Fatal("expected error for conflicting flags")
		}
		if !strings.Contains(err.Error(), "mutually exclusive") {
			t.Errorf("expected mutual exclusion error, got %v", err)
		}
	})

	t.Run("migrate-all aborts when confirmation is declined", func(t *testing.T) {
		source, dest := migrationFakes()
		runner, output := newTestRunner(t, source, dest, "n\n")

		if err := runApp(t, runner, "migrate-all"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "This will migrate 1 playlists. Continue? [y/N]") {
			t.Errorf("expected confirmation prompt, got %s", got)
		}
		if !strings.Contains(got, "Aborted.") {
			t.Errorf("expected abort message, got %s", got)
		}
	})

	t.Run("migrate-all with --yes runs to a summary", func(t *testing.T) {
		source, dest := migrationFakes()
		runner, output := newTestRunner(t, source, dest, "")

		if err := runApp(t, runner, "migrate-all", "--yes"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if strings.Contains(got, "Continue?") {
			t.Errorf("expected no prompt with --yes, got %s", got)
		}
		if !strings.Contains(got, "Migration Summary") {
			t.Errorf("expected summary banner, got %s", got)
		}
		if !strings.Contains(got, "Playlists: 1 completed, 0 failed (of 1)") {
			t.Errorf("expected playlist tally, got %s", got)
		}
		if !strings.Contains(got, "Tracks: 1/2 migrated (50.0%)") {
			t.Errorf("expected track tally, got %s", got)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("renders candidates in order", func(t *testing.T) {
		dest := &tu.FakeDestination{
			SearchTracksFn: func(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
				if query != "take on me" {
					t.Errorf("expected query to pass through, got %q", query)
				}
				if limit != 5 {
					t.Errorf("expected default limit 5, got %d", limit)
				}
				return []models.SearchResult{
					{ID: "v1", Title: "Take On Me", Artists: []string{"a-ha"}, Album: "Hunting High and Low"},
					{ID: "v2", Title: "Take On Me (Live)", Artists: []string{"a-ha"}},
				}, nil
			},
		}
		runner, output := newTestRunner(t, &tu.FakeSource{}, dest, "")

		if err := runApp(t, runner, "search", "take on me"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Found 2 results") {
			t.Errorf("expected result count, got %s", got)
		}
		if strings.Index(got, "v1") > strings.Index(got, "v2") {
			t.Errorf("expected ranking order preserved, got %s", got)
		}
		if !strings.Contains(got, "Album: Hunting High and Low") {
			t.Errorf("expected album line, got %s", got)
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeSource{}, &tu.FakeDestination{}, "")

		if err := runApp(t, runner, "search"); err == nil {
			t.Fatal("expected error without a query")
		}
	})
}

func TestDiffCommand(t *testing.T) {
	source := &tu.FakeSource{
		PlaylistFn: func(ctx context.Context, playlistID string) (*models.Playlist, error) {
			return &models.Playlist{
				SourceID: playlistID,
				Name:     "Source Mix",
				Tracks: []models.Track{
					{SourceID: "t1", Name: "Shared", Artists: []string{"Band"}, ISRC: "ISRC1"},
					{SourceID: "t2", Name: "Only Here", Artists: []string{"Band"}},
				},
			}, nil
		},
	}
	dest := &tu.FakeDestination{
		PlaylistFn: func(ctx context.Context, playlistID string) (*models.Playlist, error) {
			return &models.Playlist{
				DestID: playlistID,
				Name:   "Dest Mix",
				Tracks: []models.Track{
					{DestID: "y1", Name: "Shared", Artists: []string{"Band"}, ISRC: "ISRC1"},
					{DestID: "y2", Name: "Only There", Artists: []string{"Band"}},
				},
			}, nil
		},
	}

	runner, output := newTestRunner(t, source, dest, "")

	if err := runApp(t, runner, "diff", "pl1", "PL_DEST"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "Matched: 1 tracks") {
		t.Errorf("expected one matched track, got %s", got)
	}
	if !strings.Contains(got, "Missing from destination: 1 tracks") || !strings.Contains(got, "Only Here") {
		t.Errorf("expected missing track report, got %s", got)
	}
	if !strings.Contains(got, "Extra in destination: 1 tracks") || !strings.Contains(got, "Only There") {
		t.Errorf("expected extra track report, got %s", got)
	}
}

func TestAuthStatus(t *testing.T) {
	t.Run("reports proxy health and token state", func(t *testing.T) {
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/health" {
				t.Errorf("expected /health, got %s", req.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok","authenticated":true}`))
		}))
		defer proxy.Close()

		runner, output := newTestRunner(t, &tu.FakeSource{}, &tu.FakeDestination{}, "")
		runner.api = services.NewAPIService(proxy.URL, nil)

		if err := runApp(t, runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "✓ Proxy is healthy") {
			t.Errorf("expected health line, got %s", got)
		}
		if !strings.Contains(got, "YouTube Music: ✓ Authenticated") {
			t.Errorf("expected destination auth line, got %s", got)
		}
		if !strings.Contains(got, "Spotify: ✗ No saved token") {
			t.Errorf("expected spotify token line, got %s", got)
		}
	})

	t.Run("fails when the proxy is unreachable", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeSource{}, &tu.FakeDestination{}, "")
		runner.api = services.NewAPIService("http://127.0.0.1:1", nil)

		if err := runApp(t, runner, "auth", "status"); err == nil {
			t.Fatal("expected error when proxy is down")
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	t.Run("empty store prints a hint", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.FakeSource{}, &tu.FakeDestination{}, "")

		if err := runApp(t, runner, "history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "No migration history yet") {
			t.Errorf("expected empty-history hint, got %s", output.String())
		}
	})
}

func TestCacheCommand(t *testing.T) {
	source := &tu.FakeSource{
		PlaylistFn: func(ctx context.Context, playlistID string) (*models.Playlist, error) {
			return &models.Playlist{
				SourceID: playlistID,
				Name:     "Cached Mix",
				Tracks: []models.Track{
					{SourceID: "t1", Name: "One", Artists: []string{"Band"}},
					{SourceID: "t2", Name: "Two", Artists: []string{"Band"}},
				},
			}, nil
		},
	}

	runner, output := newTestRunner(t, source, &tu.FakeDestination{}, "")

	if err := runApp(t, runner, "cache", "playlist", "pl1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "✓ Playlist cached: Cached Mix") {
		t.Errorf("expected cache confirmation, got %s", got)
	}
	if !strings.Contains(got, "Tracks cached: 2/2") {
		t.Errorf("expected track cache count, got %s", got)
	}
}

func TestAdviceFor(t *testing.T) {
	kinds := []shared.ErrorKind{
		shared.KindConfiguration,
		shared.KindAuthentication,
		shared.KindRateLimit,
		shared.KindNetwork,
		shared.KindPlaylistNotFound,
		shared.KindRetryExhausted,
	}
	for _, kind := range kinds {
		if adviceFor(kind) == "" {
			t.Errorf("expected advice for kind %s", kind)
		}
	}

	if adviceFor(shared.KindUnknown) != "" {
		t.Error("expected no advice for unknown failures")
	}
}
