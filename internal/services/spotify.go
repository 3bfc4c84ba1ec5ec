// Spotify implementation of [Source]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Tracks      albumTracks     `json:"tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

type albumTracks struct {
	Items []SpotifyTrack `json:"items"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       Owner             `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	Images      []SpotifyImage    `json:"images"`
	URI         string            `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents one page of a playlist's tracks.
type SpotifyPaginatedPlaylistTracks struct {
	Items    []SpotifyPlaylistTrack `json:"items"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
	Next     *string                `json:"next"`
	Previous *string                `json:"previous"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       Owner             `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	Images      []SpotifyImage    `json:"images"`
	URI         string            `json:"uri"`
}

// SpotifySavedAlbum represents an album saved in the user's library.
type SpotifySavedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

// SpotifyPaginatedAlbums represents a paginated response of saved albums.
type SpotifyPaginatedAlbums struct {
	Items    []SpotifySavedAlbum `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// spotifyError carries the API's error payload so the categorizer can pull
// the status code and any rate-limit hint off it.
type spotifyError struct {
	status     int
	message    string
	retryAfter time.Duration
}

func (e *spotifyError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.status)
	}
	return fmt.Sprintf("spotify API error (status %d): %s", e.status, e.message)
}

func (e *spotifyError) HTTPStatus() int { return e.status }

func (e *spotifyError) RetryAfterHint() time.Duration { return e.retryAfter }

// SpotifyService implements [Source] for Spotify API interactions.
// Uses [oauth2] for authentication, refreshing expired tokens when a refresh
// token is on hand.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, &shared.ConfigurationError{Detail: "missing client_id in credentials"}
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, &shared.ConfigurationError{Detail: "missing client_secret in credentials"}
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" (with optional "refresh_token") or an "auth_code" in
// credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		}
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return &shared.AuthenticationError{Service: "spotify", Detail: fmt.Sprintf("code exchange failed: %v", err)}
		}
		s.token = token
		return nil
	}

	return fmt.Errorf("%w: access_token or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth client configuration for the callback
// handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetToken installs a previously persisted token.
func (s *SpotifyService) SetToken(token *oauth2.Token) {
	s.token = token
}

// CurrentToken returns the token in use, including any refresh that happened
// mid-session, or nil before authentication.
func (s *SpotifyService) CurrentToken() *oauth2.Token {
	return s.token
}

// ensureToken verifies the token is usable, refreshing it when expired.
func (s *SpotifyService) ensureToken(ctx context.Context) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}
	if s.token.Valid() {
		return nil
	}
	if s.token.RefreshToken == "" {
		return shared.ErrTokenExpired
	}

	token, err := s.config.TokenSource(ctx, s.token).Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	s.token = token
	return nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if err := s.ensureToken(ctx); err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.apiError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// apiError shapes a non-2xx response. A 401 surfaces as ErrTokenExpired so
// the CLI can reauthorize; a 429 carries the Retry-After header as a hint.
func (s *SpotifyService) apiError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, payload.Error.Message)
	}

	apiErr := &spotifyError{status: resp.StatusCode, message: payload.Error.Message}
	if resp.StatusCode == http.StatusTooManyRequests {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			apiErr.retryAfter = time.Duration(seconds) * time.Second
		}
	}
	return apiErr
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, "GET", endpoint, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// PlaylistItems retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistTracks, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var response SpotifyPaginatedPlaylistTracks
	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// SavedAlbums retrieves one page of the user's saved albums.
func (s *SpotifyService) SavedAlbums(ctx context.Context, limit, offset int) (*SpotifyPaginatedAlbums, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/albums?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedAlbums
	if err := s.doRequest(ctx, "GET", endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Source interface implementation

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
	}, nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var allPlaylists []models.Playlist
	limit := 50
	offset := 0

	for {
		response, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			allPlaylists = append(allPlaylists, models.Playlist{
				SourceID:    sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				Owner:       sp.Owner.DisplayName,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if response.Next == nil {
			break
		}
		offset += limit
	}

	return allPlaylists, nil
}

// GetPlaylist retrieves a playlist by ID with its full track listing,
// following pagination until every item is loaded.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	playlist := models.Playlist{
		SourceID:    sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		Public:      sp.Public,
	}

	limit := 100
	offset := 0
	for {
		page, err := s.PlaylistItems(ctx, playlistID, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			// Local files and removed tracks come back with no ID.
			if item.Track.ID == "" {
				continue
			}
			playlist.Tracks = append(playlist.Tracks, trackFromSpotify(item.Track))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	playlist.TrackCount = len(playlist.Tracks)
	return &playlist, nil
}

// GetAlbums retrieves all of the user's saved albums.
func (s *SpotifyService) GetAlbums(ctx context.Context) ([]models.Album, error) {
	var albums []models.Album
	limit := 50
	offset := 0

	for {
		response, err := s.SavedAlbums(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, saved := range response.Items {
			album := models.Album{
				SourceID:    saved.Album.ID,
				Name:        saved.Album.Name,
				ReleaseDate: saved.Album.ReleaseDate,
				TrackCount:  saved.Album.TotalTracks,
			}
			for _, artist := range saved.Album.Artists {
				album.Artists = append(album.Artists, artist.Name)
			}
			for _, track := range saved.Album.Tracks.Items {
				album.Tracks = append(album.Tracks, trackFromSpotify(track))
			}
			albums = append(albums, album)
		}

		if response.Next == nil {
			break
		}
		offset += limit
	}

	return albums, nil
}

// trackFromSpotify maps an API track onto the shared model, keeping every
// artist in order.
func trackFromSpotify(st SpotifyTrack) models.Track {
	track := models.Track{
		SourceID:   st.ID,
		Name:       st.Name,
		Album:      st.Album.Name,
		DurationMS: st.DurationMS,
		ISRC:       st.ExternalIDs.ISRC,
	}
	for _, artist := range st.Artists {
		track.Artists = append(track.Artists, artist.Name)
	}
	return track
}
