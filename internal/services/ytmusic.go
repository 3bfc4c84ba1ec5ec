// YouTube Music implementation of [Destination]
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps ytmusicapi for YouTube Music operations.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

const (
	defaultYTBaseURL   = "http://localhost:8080"
	defaultYTRateLimit = 5.0
)

// YTMusicImage represents an image/thumbnail from YouTube Music.
type YTMusicImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YTMusicArtist represents an artist in YouTube Music responses.
type YTMusicArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type ytmusicAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YTMusicTrack represents a track/video in YouTube Music responses.
type YTMusicTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YTMusicArtist `json:"artists"`
	Album       *ytmusicAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"` // Duration in seconds
	Thumbnails  []YTMusicImage  `json:"thumbnails"`
	ISRC        string          `json:"isrc,omitempty"`
	SetVideoID  string          `json:"setVideoId,omitempty"` // For playlist operations
}

// YTMusicPlaylist represents a playlist from YouTube Music.
type YTMusicPlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Privacy     string         `json:"privacy"`
	Thumbnails  []YTMusicImage `json:"thumbnails"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YTMusicTrack `json:"tracks,omitempty"`
}

// proxyError carries the proxy's error detail and status so the categorizer
// can classify it.
type proxyError struct {
	status int
	detail string
}

func (e *proxyError) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("youtube music API error: status %d", e.status)
	}
	return fmt.Sprintf("youtube music API error (status %d): %s", e.status, e.detail)
}

func (e *proxyError) StatusCode() int { return e.status }

// YTMusicService implements [Destination] for YouTube Music via the proxy.
// All requests share one rate limiter so search, create and insert calls
// draw from a single budget.
type YTMusicService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYTMusicService creates a new YouTube Music service instance. rps caps
// proxy requests per second; zero or negative falls back to the default.
func NewYTMusicService(baseURL string, rps float64) *YTMusicService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if rps <= 0 {
		rps = defaultYTRateLimit
	}

	return &YTMusicService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the service key.
func (y *YTMusicService) Name() string {
	return "ytmusic"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json
// produced by setup-auth.
func (y *YTMusicService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return &shared.ConfigurationError{Detail: "missing auth_file in credentials"}
	}

	if _, err := os.Stat(authFile); err != nil {
		return &shared.ConfigurationError{Detail: fmt.Sprintf("auth file %s is not readable, run setup-auth first", authFile)}
	}

	y.authFile = authFile
	return nil
}

func (y *YTMusicService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := y.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return y.apiError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// apiError shapes a non-2xx proxy response. A 429 becomes a RateLimitError
// carrying the Retry-After header so the retry engine can honor it.
func (y *YTMusicService) apiError(resp *http.Response) error {
	var errResp struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	if resp.StatusCode == http.StatusTooManyRequests {
		limited := &shared.RateLimitError{Service: "ytmusic"}
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			limited.RetryAfter = time.Duration(seconds) * time.Second
		}
		return limited
	}

	return &proxyError{status: resp.StatusCode, detail: errResp.Detail}
}

// SearchTracks runs a song search on the proxy and returns up to limit
// candidates in ranking order. An empty result is not an error; callers
// decide what a miss means.
//
// Calls GET /api/search?q={query}&filter=songs&limit={limit} on the proxy.
func (y *YTMusicService) SearchTracks(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs&limit=%d", url.QueryEscape(query), limit)

	var ytTracks []YTMusicTrack
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &ytTracks); err != nil {
		return nil, err
	}

	if len(ytTracks) > limit {
		ytTracks = ytTracks[:limit]
	}

	results := make([]models.SearchResult, len(ytTracks))
	for i, ytt := range ytTracks {
		result := models.SearchResult{
			ID:         ytt.VideoID,
			Title:      ytt.Title,
			DurationMS: ytt.DurationSec * 1000,
		}
		for _, artist := range ytt.Artists {
			result.Artists = append(result.Artists, artist.Name)
		}
		if ytt.Album != nil {
			result.Album = ytt.Album.Name
		}
		results[i] = result
	}

	return results, nil
}

// CreatePlaylist creates an empty playlist shell and returns its ID.
//
// Calls POST /api/playlists on the proxy.
func (y *YTMusicService) CreatePlaylist(ctx context.Context, name, description, privacy string) (string, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         name,
		Description:   description,
		PrivacyStatus: privacy,
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}

	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return "", err
	}

	if createResp.PlaylistID == "" {
		return "", fmt.Errorf("create playlist returned no id")
	}

	return createResp.PlaylistID, nil
}

// AddPlaylistItems inserts tracks into a playlist in a single call.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YTMusicService) AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) error {
	addReq := struct {
		VideoIDs []string `json:"video_ids"`
	}{
		VideoIDs: videoIDs,
	}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", playlistID)
	return y.doRequest(ctx, http.MethodPost, endpoint, addReq, nil)
}

// GetPlaylists retrieves all playlists in the user's library.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YTMusicService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var ytPlaylists []struct {
		PlaylistID  string         `json:"playlistId"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Privacy     string         `json:"privacy"`
		Count       int            `json:"count"`
		Thumbnails  []YTMusicImage `json:"thumbnails"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/api/library/playlists", nil, &ytPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(ytPlaylists))
	for i, ytp := range ytPlaylists {
		playlists[i] = models.Playlist{
			DestID:      ytp.PlaylistID,
			Name:        ytp.Title,
			Description: ytp.Description,
			TrackCount:  ytp.Count,
			Public:      ytp.Privacy == "PUBLIC",
		}
	}

	return playlists, nil
}

// GetPlaylist retrieves a playlist by ID with its track listing.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YTMusicService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var ytPlaylist struct {
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Privacy     string         `json:"privacy"`
		TrackCount  int            `json:"trackCount"`
		Tracks      []YTMusicTrack `json:"tracks"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s", playlistID)
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &ytPlaylist); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{
		DestID:      ytPlaylist.ID,
		Name:        ytPlaylist.Title,
		Description: ytPlaylist.Description,
		TrackCount:  ytPlaylist.TrackCount,
		Public:      ytPlaylist.Privacy == "PUBLIC",
	}

	for _, ytt := range ytPlaylist.Tracks {
		track := models.Track{
			DestID:     ytt.VideoID,
			Name:       ytt.Title,
			DurationMS: ytt.DurationSec * 1000,
			ISRC:       ytt.ISRC,
		}
		for _, artist := range ytt.Artists {
			track.Artists = append(track.Artists, artist.Name)
		}
		if ytt.Album != nil {
			track.Album = ytt.Album.Name
		}
		playlist.Tracks = append(playlist.Tracks, track)
	}

	return playlist, nil
}
