package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/trx/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCacher on top of TrackRepository.
//
// A resolved track carries both a source ID and a destination ID, so each
// cache write stores up to two rows, one per service. Duplicates are
// deduplicated via the (service, service_id) UNIQUE constraint.
type TrackCacheAdapter struct {
	repo          *TrackRepository
	sourceService string
	destService   string
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter. Service names come
// from the services being migrated between, e.g. "spotify" and "ytmusic".
func NewTrackCacheAdapter(repo *TrackRepository, sourceService, destService string) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo, sourceService: sourceService, destService: destService}
}

// CacheTrack stores the track under its source ID and, when the track has
// been resolved, under its destination ID as well. Existing rows are left
// untouched.
func (a *TrackCacheAdapter) CacheTrack(track models.Track) error {
	if track.SourceID != "" {
		if err := a.cacheOne(a.sourceService, track.SourceID, track); err != nil {
			return err
		}
	}

	if track.DestID != "" {
		if err := a.cacheOne(a.destService, track.DestID, track); err != nil {
			return err
		}
	}

	return nil
}

func (a *TrackCacheAdapter) cacheOne(service, serviceID string, track models.Track) error {
	existing, err := a.repo.GetByServiceID(service, serviceID)
	if err == nil && existing != nil {
		return nil
	}

	stored := models.NewStoredTrack(service, serviceID, track.Name, track.ArtistLine())
	stored.SetAlbum(track.Album)
	stored.SetDurationMS(track.DurationMS)
	stored.SetISRC(track.ISRC)

	if err := a.repo.Create(stored); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}
