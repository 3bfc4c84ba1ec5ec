// package services implements the catalog clients for Spotify and YouTube
// Music (via proxy)
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/desertthunder/trx/internal/models"
)

// Source reads playlists, albums and the account profile from the catalog
// being migrated away from.
type Source interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated account's profile.
	CurrentUser(ctx context.Context) (*models.UserProfile, error)

	// GetPlaylists retrieves all playlists for the authenticated user,
	// without track listings.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a playlist by ID with its full track listing.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// GetAlbums retrieves the user's saved albums.
	GetAlbums(ctx context.Context) ([]models.Album, error)

	// Name returns the service key (e.g. "spotify").
	Name() string
}

// Destination searches and writes the catalog being migrated to.
type Destination interface {
	// Authenticate points the client at the auth artifact produced by
	// setup-auth.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SearchTracks runs a song search and returns up to limit candidates.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.SearchResult, error)

	// CreatePlaylist creates an empty playlist shell and returns its ID.
	// Privacy is "PUBLIC" or "PRIVATE".
	CreatePlaylist(ctx context.Context, name, description, privacy string) (string, error)

	// AddPlaylistItems inserts tracks into a playlist in one call.
	AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) error

	// GetPlaylists retrieves the user's playlists on the destination.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a destination playlist with its track listing.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// Name returns the service key (e.g. "ytmusic").
	Name() string
}

// OAuthService is implemented by sources that authenticate with a
// three-legged OAuth flow driven by the local callback server.
type OAuthService interface {
	Source

	// GetAuthURL builds the authorization URL carrying the CSRF state.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the OAuth client configuration for the
	// callback handler's code exchange.
	GetOAuthConfig() *oauth2.Config

	// SetToken installs a previously persisted token.
	SetToken(token *oauth2.Token)

	// CurrentToken returns the token in use so it can be persisted, or nil.
	CurrentToken() *oauth2.Token
}
