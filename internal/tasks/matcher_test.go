package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

type searchCall struct {
	query string
	limit int
}

// scriptedSearcher returns canned results per query and records every call.
type scriptedSearcher struct {
	results map[string][]models.SearchResult
	errs    map[string]error
	calls   []searchCall
}

func (s *scriptedSearcher) SearchTracks(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	s.calls = append(s.calls, searchCall{query: query, limit: limit})
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.results[query], nil
}

func TestTrackMatcher_Match(t *testing.T) {
	ctx := context.Background()

	track := models.Track{
		SourceID: "sp1",
		Name:     "Karma Police",
		Artists:  []string{"Radiohead"},
		ISRC:     "GBAYE9700123",
	}

	t.Run("Matches By ISRC", func(t *testing.T) {
		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				"GBAYE9700123": {
					{ID: "yt1", Title: "Karma Police", Artists: []string{"Radiohead"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, track)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "yt1" {
			t.Errorf("Match() = %q, want yt1", id)
		}
		if len(searcher.calls) != 1 {
			t.Fatalf("expected 1 search call, got %d", len(searcher.calls))
		}
		if searcher.calls[0].query != "GBAYE9700123" {
			t.Errorf("query = %q, want ISRC", searcher.calls[0].query)
		}
		if searcher.calls[0].limit != 3 {
			t.Errorf("limit = %d, want 3", searcher.calls[0].limit)
		}
	})

	t.Run("ISRC Miss Falls Through To Metadata Query", func(t *testing.T) {
		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				// Wrong artist on the ISRC hit, so phase one rejects it.
				"GBAYE9700123": {
					{ID: "cover1", Title: "Karma Police", Artists: []string{"Karaoke Masters"}},
				},
				"Karma Police Radiohead": {
					{ID: "yt2", Title: "Karma Police", Artists: []string{"Radiohead"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, track)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "yt2" {
			t.Errorf("Match() = %q, want yt2", id)
		}
		if len(searcher.calls) != 2 {
			t.Fatalf("expected 2 search calls, got %d", len(searcher.calls))
		}
		if got := searcher.calls[1].query; got != track.SearchQuery() {
			t.Errorf("second query = %q, want %q", got, track.SearchQuery())
		}
		if searcher.calls[1].limit != 5 {
			t.Errorf("second limit = %d, want 5", searcher.calls[1].limit)
		}
	})

	t.Run("Skips ISRC Phase Without ISRC", func(t *testing.T) {
		noISRC := track
		noISRC.ISRC = ""

		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				"Karma Police Radiohead": {
					{ID: "yt3", Title: "Karma Police", Artists: []string{"Radiohead"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, noISRC)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "yt3" {
			t.Errorf("Match() = %q, want yt3", id)
		}
		if len(searcher.calls) != 1 {
			t.Fatalf("expected 1 search call, got %d", len(searcher.calls))
		}
	})

	t.Run("Prefers Filtered Candidate Over Top Result", func(t *testing.T) {
		noISRC := track
		noISRC.ISRC = ""

		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				"Karma Police Radiohead": {
					{ID: "bad", Title: "Completely Different Song", Artists: []string{"Someone Else"}},
					{ID: "good", Title: "Karma Police (Remastered)", Artists: []string{"Radiohead"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, noISRC)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "good" {
			t.Errorf("Match() = %q, want good", id)
		}
	})

	t.Run("Title Containment Works Both Directions", func(t *testing.T) {
		live := models.Track{
			Name:    "Karma Police (Live at the BBC)",
			Artists: []string{"Radiohead"},
		}

		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				live.SearchQuery(): {
					{ID: "short", Title: "Karma Police", Artists: []string{"Radiohead"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, live)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "short" {
			t.Errorf("Match() = %q, want short", id)
		}
	})

	t.Run("Falls Back To Top Result When Nothing Passes Filters", func(t *testing.T) {
		noISRC := track
		noISRC.ISRC = ""

		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				"Karma Police Radiohead": {
					{ID: "first", Title: "Unrelated", Artists: []string{"Nobody"}},
					{ID: "second", Title: "Also Unrelated", Artists: []string{"Nobody"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, noISRC)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "first" {
			t.Errorf("Match() = %q, want first", id)
		}
	})

	t.Run("No Results Returns TrackNotFound", func(t *testing.T) {
		searcher := &scriptedSearcher{}
		matcher := NewTrackMatcher(searcher)

		_, err := matcher.Match(ctx, track)
		if err == nil {
			t.Fatal("expected error for unmatched track")
		}
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}

		var notFound *shared.TrackNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected TrackNotFoundError, got %T", err)
		}
		if notFound.Name != track.Name {
			t.Errorf("Name = %q, want %q", notFound.Name, track.Name)
		}
		if len(searcher.calls) != 2 {
			t.Errorf("expected both phases to run, got %d calls", len(searcher.calls))
		}
	})

	t.Run("ISRC Search Errors Propagate", func(t *testing.T) {
		upstream := errors.New("search backend down")
		searcher := &scriptedSearcher{
			errs: map[string]error{"GBAYE9700123": upstream},
		}
		matcher := NewTrackMatcher(searcher)

		_, err := matcher.Match(ctx, track)
		if !errors.Is(err, upstream) {
			t.Errorf("expected upstream error, got %v", err)
		}
		if len(searcher.calls) != 1 {
			t.Errorf("expected no fallback after search failure, got %d calls", len(searcher.calls))
		}
	})

	t.Run("Query Search Errors Propagate", func(t *testing.T) {
		upstream := errors.New("search backend down")
		searcher := &scriptedSearcher{
			errs: map[string]error{"Karma Police Radiohead": upstream},
		}
		matcher := NewTrackMatcher(searcher)

		_, err := matcher.Match(ctx, track)
		if !errors.Is(err, upstream) {
			t.Errorf("expected upstream error, got %v", err)
		}
	})

	t.Run("Artist Comparison Is Case Insensitive", func(t *testing.T) {
		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				"GBAYE9700123": {
					{ID: "yt4", Title: "KARMA POLICE", Artists: []string{"RADIOHEAD"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, track)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "yt4" {
			t.Errorf("Match() = %q, want yt4", id)
		}
	})

	t.Run("Any Source Artist Can Match", func(t *testing.T) {
		collab := models.Track{
			Name:    "Broken Clocks",
			Artists: []string{"SZA", "Punch"},
			ISRC:    "USRC11700966",
		}

		searcher := &scriptedSearcher{
			results: map[string][]models.SearchResult{
				"USRC11700966": {
					// Only the second source artist appears on the candidate.
					{ID: "yt5", Title: "Broken Clocks", Artists: []string{"Punch"}},
				},
			},
		}
		matcher := NewTrackMatcher(searcher)

		id, err := matcher.Match(ctx, collab)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if id != "yt5" {
			t.Errorf("Match() = %q, want yt5", id)
		}
	})
}
