package tasks

import (
	"context"
	"strings"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

const (
	isrcCandidateLimit  = 3
	queryCandidateLimit = 5
)

// Searcher is the slice of the destination service the matcher needs.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// TrackMatcher resolves source tracks to destination IDs with a two-phase
// search: an ISRC lookup first, then a title/artist query.
type TrackMatcher struct {
	dest Searcher
}

// NewTrackMatcher creates a matcher backed by the given destination search.
func NewTrackMatcher(dest Searcher) *TrackMatcher {
	return &TrackMatcher{dest: dest}
}

// Match returns the destination ID for track.
//
// Phase one searches by ISRC and accepts the first candidate sharing an
// artist with the source track. Phase two searches by "{name} {artists}" and
// accepts the first candidate whose title matches in either direction and
// shares an artist. When phase two returns candidates but none pass the
// filters, the top-ranked result is taken. No candidates at all is a
// [shared.TrackNotFoundError]. Search errors propagate so callers can retry.
func (m *TrackMatcher) Match(ctx context.Context, track models.Track) (string, error) {
	if track.ISRC != "" {
		candidates, err := m.dest.SearchTracks(ctx, track.ISRC, isrcCandidateLimit)
		if err != nil {
			return "", err
		}
		for _, candidate := range candidates {
			if artistMatches(track, candidate) {
				return candidate.ID, nil
			}
		}
	}

	candidates, err := m.dest.SearchTracks(ctx, track.SearchQuery(), queryCandidateLimit)
	if err != nil {
		return "", err
	}

	for _, candidate := range candidates {
		if titleMatches(track, candidate) && artistMatches(track, candidate) {
			return candidate.ID, nil
		}
	}

	if len(candidates) > 0 {
		return candidates[0].ID, nil
	}

	return "", &shared.TrackNotFoundError{Name: track.Name, Artists: track.Artists}
}

// artistMatches reports whether any source artist appears in the candidate's
// artist line, case-insensitively.
func artistMatches(track models.Track, candidate models.SearchResult) bool {
	line := strings.ToLower(candidate.ArtistLine())
	for _, artist := range track.Artists {
		if artist == "" {
			continue
		}
		if strings.Contains(line, strings.ToLower(artist)) {
			return true
		}
	}
	return false
}

// titleMatches reports whether either title contains the other,
// case-insensitively.
func titleMatches(track models.Track, candidate models.SearchResult) bool {
	name := strings.ToLower(track.Name)
	title := strings.ToLower(candidate.Title)
	return strings.Contains(title, name) || strings.Contains(name, title)
}
