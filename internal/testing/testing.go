// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/trx/internal/models"
)

// FakeSource is a configurable test double for [services.Source]. Unset
// function fields return empty values.
type FakeSource struct {
	AuthenticateFn func(ctx context.Context, credentials map[string]string) error
	CurrentUserFn  func(ctx context.Context) (*models.UserProfile, error)
	PlaylistsFn    func(ctx context.Context) ([]models.Playlist, error)
	PlaylistFn     func(ctx context.Context, playlistID string) (*models.Playlist, error)
	AlbumsFn       func(ctx context.Context) ([]models.Album, error)
}

func (f *FakeSource) Name() string { return "spotify" }

func (f *FakeSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	if f.AuthenticateFn != nil {
		return f.AuthenticateFn(ctx, credentials)
	}
	return nil
}

func (f *FakeSource) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	if f.CurrentUserFn != nil {
		return f.CurrentUserFn(ctx)
	}
	return &models.UserProfile{}, nil
}

func (f *FakeSource) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if f.PlaylistsFn != nil {
		return f.PlaylistsFn(ctx)
	}
	return []models.Playlist{}, nil
}

func (f *FakeSource) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if f.PlaylistFn != nil {
		return f.PlaylistFn(ctx, playlistID)
	}
	return &models.Playlist{SourceID: playlistID}, nil
}

func (f *FakeSource) GetAlbums(ctx context.Context) ([]models.Album, error) {
	if f.AlbumsFn != nil {
		return f.AlbumsFn(ctx)
	}
	return []models.Album{}, nil
}

// FakeDestination is a configurable test double for [services.Destination].
type FakeDestination struct {
	AuthenticateFn     func(ctx context.Context, credentials map[string]string) error
	SearchTracksFn     func(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	CreatePlaylistFn   func(ctx context.Context, name, description, privacy string) (string, error)
	AddPlaylistItemsFn func(ctx context.Context, playlistID string, videoIDs []string) error
	PlaylistsFn        func(ctx context.Context) ([]models.Playlist, error)
	PlaylistFn         func(ctx context.Context, playlistID string) (*models.Playlist, error)
}

func (f *FakeDestination) Name() string { return "ytmusic" }

func (f *FakeDestination) Authenticate(ctx context.Context, credentials map[string]string) error {
	if f.AuthenticateFn != nil {
		return f.AuthenticateFn(ctx, credentials)
	}
	return nil
}

func (f *FakeDestination) SearchTracks(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if f.SearchTracksFn != nil {
		return f.SearchTracksFn(ctx, query, limit)
	}
	return []models.SearchResult{}, nil
}

func (f *FakeDestination) CreatePlaylist(ctx context.Context, name, description, privacy string) (string, error) {
	if f.CreatePlaylistFn != nil {
		return f.CreatePlaylistFn(ctx, name, description, privacy)
	}
	return "PL_TEST", nil
}

func (f *FakeDestination) AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) error {
	if f.AddPlaylistItemsFn != nil {
		return f.AddPlaylistItemsFn(ctx, playlistID, videoIDs)
	}
	return nil
}

func (f *FakeDestination) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if f.PlaylistsFn != nil {
		return f.PlaylistsFn(ctx)
	}
	return []models.Playlist{}, nil
}

func (f *FakeDestination) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if f.PlaylistFn != nil {
		return f.PlaylistFn(ctx, playlistID)
	}
	return &models.Playlist{DestID: playlistID}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
