package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/trx/internal/shared"
)

// testSpotify builds an authenticated service pointed at the given server.
func testSpotify(t *testing.T, serverURL string) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.baseURL = serverURL
	srv.token = &oauth2.Token{AccessToken: "test_access_token", TokenType: "Bearer"}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "spotify" {
				t.Errorf("expected service name 'spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := map[string]string{
				"client_secret": "test_client_secret",
			}

			_, err := NewSpotifyService(credentials)
			if err == nil {
				t.Fatal("expected error for missing client_id")
			}

			var confErr *shared.ConfigurationError
			if !errors.As(err, &confErr) {
				t.Errorf("expected ConfigurationError, got %T", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := map[string]string{
				"client_id": "test_client_id",
			}

			if _, err := NewSpotifyService(credentials); err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://localhost:8888/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			authCreds := map[string]string{
				"access_token":  "test_access_token",
				"refresh_token": "test_refresh_token",
			}

			err := srv.Authenticate(context.Background(), authCreds)
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil {
				t.Fatal("expected token to be set")
			}

			if srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.token.AccessToken)
			}
			if srv.token.RefreshToken != "test_refresh_token" {
				t.Errorf("expected refresh token to be kept, got %s", srv.token.RefreshToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if err == nil {
				t.Fatal("expected error for missing credentials")
			}
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Token Handling", func(t *testing.T) {
		t.Run("SetToken and CurrentToken round trip", func(t *testing.T) {
			srv := testSpotify(t, "")
			token := &oauth2.Token{AccessToken: "persisted", RefreshToken: "refresh"}

			srv.SetToken(token)
			if got := srv.CurrentToken(); got != token {
				t.Errorf("expected the installed token back, got %v", got)
			}
		})

		t.Run("unauthenticated requests fail", func(t *testing.T) {
			srv := testSpotify(t, "")
			srv.token = nil

			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("expired token without refresh fails", func(t *testing.T) {
			srv := testSpotify(t, "")
			srv.token = &oauth2.Token{
				AccessToken: "stale",
				Expiry:      time.Now().Add(-time.Hour),
			}

			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})
	})

	t.Run("CurrentUser", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("expected path /me, got %s", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test_access_token" {
				t.Errorf("expected bearer token header, got %s", auth)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":           "user123",
				"display_name": "Test User",
				"email":        "test@example.com",
				"country":      "US",
				"product":      "premium",
				"followers":    map[string]any{"total": 42},
			})
		}))
		defer server.Close()

		srv := testSpotify(t, server.URL)
		profile, err := srv.CurrentUser(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if profile.ID != "user123" {
			t.Errorf("expected ID user123, got %s", profile.ID)
		}
		if profile.DisplayName != "Test User" {
			t.Errorf("expected display name 'Test User', got %s", profile.DisplayName)
		}
		if profile.Product != "premium" {
			t.Errorf("expected product premium, got %s", profile.Product)
		}
		if profile.Followers != 42 {
			t.Errorf("expected 42 followers, got %d", profile.Followers)
		}
	})

	t.Run("GetPlaylists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists" {
				t.Errorf("expected path /me/playlists, got %s", r.URL.Path)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id":     "pl1",
						"name":   "Road Trip",
						"owner":  map[string]any{"id": "user123", "display_name": "Test User"},
						"public": true,
						"tracks": map[string]any{"total": 25},
					},
					{
						"id":     "pl2",
						"name":   "Focus",
						"owner":  map[string]any{"id": "user123", "display_name": "Test User"},
						"public": false,
						"tracks": map[string]any{"total": 10},
					},
				},
				"total": 2,
				"next":  nil,
			})
		}))
		defer server.Close()

		srv := testSpotify(t, server.URL)
		playlists, err := srv.GetPlaylists(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].SourceID != "pl1" {
			t.Errorf("expected SourceID pl1, got %s", playlists[0].SourceID)
		}
		if playlists[0].Owner != "Test User" {
			t.Errorf("expected owner 'Test User', got %s", playlists[0].Owner)
		}
		if playlists[0].TrackCount != 25 {
			t.Errorf("expected 25 tracks, got %d", playlists[0].TrackCount)
		}
		if playlists[1].Public {
			t.Error("expected second playlist to be private")
		}
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		trackItem := func(id, name string, artists ...string) map[string]any {
			var artistObjs []map[string]any
			for _, a := range artists {
				artistObjs = append(artistObjs, map[string]any{"name": a})
			}
			return map[string]any{
				"track": map[string]any{
					"id":           id,
					"name":         name,
					"artists":      artistObjs,
					"album":        map[string]any{"name": "Album"},
					"duration_ms":  200000,
					"external_ids": map[string]any{"isrc": "US" + id},
				},
			}
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			switch r.URL.Path {
			case "/playlists/pl1":
				json.NewEncoder(w).Encode(map[string]any{
					"id":          "pl1",
					"name":        "Road Trip",
					"description": "Summer songs",
					"owner":       map[string]any{"display_name": "Test User"},
					"public":      true,
					"tracks":      map[string]any{"total": 3},
				})
			case "/playlists/pl1/tracks":
				offset := r.URL.Query().Get("offset")
				if offset == "0" {
					next := "https://api.spotify.com/v1/playlists/pl1/tracks?offset=100"
					json.NewEncoder(w).Encode(map[string]any{
						"items": []map[string]any{
							trackItem("t1", "Song One", "Artist A", "Artist B"),
							{"track": map[string]any{"id": "", "name": "Local File"}},
						},
						"next": next,
					})
				} else {
					json.NewEncoder(w).Encode(map[string]any{
						"items": []map[string]any{
							trackItem("t2", "Song Two", "Artist C"),
							trackItem("t3", "Song Three", "Artist D"),
						},
						"next": nil,
					})
				}
			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		srv := testSpotify(t, server.URL)
		playlist, err := srv.GetPlaylist(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if playlist.SourceID != "pl1" {
			t.Errorf("expected SourceID pl1, got %s", playlist.SourceID)
		}
		if len(playlist.Tracks) != 3 {
			t.Fatalf("expected 3 tracks after draining pages and skipping local files, got %d", len(playlist.Tracks))
		}
		if playlist.TrackCount != 3 {
			t.Errorf("expected TrackCount 3, got %d", playlist.TrackCount)
		}

		first := playlist.Tracks[0]
		if first.SourceID != "t1" {
			t.Errorf("expected first track t1, got %s", first.SourceID)
		}
		if len(first.Artists) != 2 || first.Artists[0] != "Artist A" || first.Artists[1] != "Artist B" {
			t.Errorf("expected both artists preserved in order, got %v", first.Artists)
		}
		if first.ISRC != "USt1" {
			t.Errorf("expected ISRC USt1, got %s", first.ISRC)
		}
		if playlist.Tracks[2].SourceID != "t3" {
			t.Errorf("expected last track t3, got %s", playlist.Tracks[2].SourceID)
		}
	})

	t.Run("GetAlbums", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/albums" {
				t.Errorf("expected path /me/albums, got %s", r.URL.Path)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"added_at": "2024-01-15T00:00:00Z",
						"album": map[string]any{
							"id":           "alb1",
							"name":         "Discovery",
							"artists":      []map[string]any{{"name": "Daft Punk"}},
							"release_date": "2001-03-12",
							"total_tracks": 14,
						},
					},
				},
				"next": nil,
			})
		}))
		defer server.Close()

		srv := testSpotify(t, server.URL)
		albums, err := srv.GetAlbums(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(albums) != 1 {
			t.Fatalf("expected 1 album, got %d", len(albums))
		}
		if albums[0].SourceID != "alb1" {
			t.Errorf("expected SourceID alb1, got %s", albums[0].SourceID)
		}
		if albums[0].ReleaseDate != "2001-03-12" {
			t.Errorf("expected release date 2001-03-12, got %s", albums[0].ReleaseDate)
		}
		if len(albums[0].Artists) != 1 || albums[0].Artists[0] != "Daft Punk" {
			t.Errorf("expected artist 'Daft Punk', got %v", albums[0].Artists)
		}
	})

	t.Run("Error Handling", func(t *testing.T) {
		t.Run("401 surfaces as token expiry", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"status": 401, "message": "The access token expired"},
				})
			}))
			defer server.Close()

			srv := testSpotify(t, server.URL)
			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})

		t.Run("429 carries the retry hint and status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"status": 429, "message": "API rate limit exceeded"},
				})
			}))
			defer server.Close()

			srv := testSpotify(t, server.URL)
			_, err := srv.GetPlaylists(context.Background())
			if err == nil {
				t.Fatal("expected error for 429")
			}

			var statusErr interface{ HTTPStatus() int }
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected error to carry a status, got %T", err)
			}
			if statusErr.HTTPStatus() != http.StatusTooManyRequests {
				t.Errorf("expected status 429, got %d", statusErr.HTTPStatus())
			}

			var hinted interface{ RetryAfterHint() time.Duration }
			if !errors.As(err, &hinted) {
				t.Fatalf("expected error to carry a retry hint, got %T", err)
			}
			if hinted.RetryAfterHint() != 7*time.Second {
				t.Errorf("expected hint 7s, got %v", hinted.RetryAfterHint())
			}
		})

		t.Run("other statuses keep the API message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"status": 502, "message": "upstream unavailable"},
				})
			}))
			defer server.Close()

			srv := testSpotify(t, server.URL)
			_, err := srv.GetPlaylists(context.Background())
			if err == nil {
				t.Fatal("expected error for 502")
			}
			if !strings.Contains(err.Error(), "upstream unavailable") {
				t.Errorf("expected API message in error, got %v", err)
			}
		})
	})

	t.Run("Interfaces", func(t *testing.T) {
		srv := testSpotify(t, "")

		var _ Source = srv
		var _ OAuthService = srv
	})
}
