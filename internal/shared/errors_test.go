package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusCodeErr struct{ code int }

func (e *statusCodeErr) Error() string   { return "upstream rejected the request" }
func (e *statusCodeErr) StatusCode() int { return e.code }

type httpStatusErr struct{ code int }

func (e *httpStatusErr) Error() string   { return "bad gateway from upstream" }
func (e *httpStatusErr) HTTPStatus() int { return e.code }

type hintedErr struct{ after time.Duration }

func (e *hintedErr) Error() string                 { return "too many requests" }
func (e *hintedErr) RetryAfterHint() time.Duration { return e.after }

func TestCategorize(t *testing.T) {
	t.Run("returns nil for nil", func(t *testing.T) {
		if got := Categorize(nil, "spotify"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("passes taxonomy members through unchanged", func(t *testing.T) {
		original := &NetworkError{Detail: "connection reset"}
		if got := Categorize(original, "spotify"); got != error(original) {
			t.Errorf("expected the original error back, got %v", got)
		}
	})

	t.Run("passes wrapped taxonomy members through unchanged", func(t *testing.T) {
		wrapped := fmt.Errorf("during search: %w", &RateLimitError{Service: "ytmusic"})
		if got := Categorize(wrapped, "ytmusic"); got != wrapped {
			t.Errorf("expected the wrapper back, got %v", got)
		}
	})

	t.Run("detects rate limiting from any indicator", func(t *testing.T) {
		for _, msg := range []string{
			"rate limit exceeded",
			"Too Many Requests",
			"server returned 429",
			"daily quota exceeded",
			"request was throttled",
		} {
			got := Categorize(fmt.Errorf("%s", msg), "ytmusic")
			var limited *RateLimitError
			if !errors.As(got, &limited) {
				t.Errorf("%q: expected RateLimitError, got %T", msg, got)
				continue
			}
			if limited.Service != "ytmusic" {
				t.Errorf("%q: expected service ytmusic, got %s", msg, limited.Service)
			}
		}
	})

	t.Run("prefers rate limit over network indicators", func(t *testing.T) {
		got := Categorize(fmt.Errorf("connection throttled by peer"), "ytmusic")
		var limited *RateLimitError
		if !errors.As(got, &limited) {
			t.Errorf("expected RateLimitError when both families match, got %T", got)
		}
	})

	t.Run("detects network failures from any indicator", func(t *testing.T) {
		for _, msg := range []string{
			"connection refused",
			"i/o timeout",
			"network is down",
			"dns lookup failed",
			"host unreachable",
			"socket closed",
		} {
			got := Categorize(fmt.Errorf("%s", msg), "spotify")
			var network *NetworkError
			if !errors.As(got, &network) {
				t.Errorf("%q: expected NetworkError, got %T", msg, got)
				continue
			}
			if network.Detail != msg {
				t.Errorf("%q: expected the original message as detail, got %q", msg, network.Detail)
			}
		}
	})

	t.Run("falls through to an API error", func(t *testing.T) {
		got := Categorize(fmt.Errorf("invalid playlist payload"), "spotify")
		var api *APIError
		if !errors.As(got, &api) {
			t.Fatalf("expected APIError, got %T", got)
		}
		if api.Service != "spotify" {
			t.Errorf("expected service spotify, got %s", api.Service)
		}
		if api.Detail != "invalid playlist payload" {
			t.Errorf("expected the original message as detail, got %q", api.Detail)
		}
		if api.StatusCode != 0 {
			t.Errorf("expected no status code, got %d", api.StatusCode)
		}
	})

	t.Run("extracts a status code from either accessor", func(t *testing.T) {
		got := Categorize(&statusCodeErr{code: 502}, "ytmusic")
		var api *APIError
		if !errors.As(got, &api) {
			t.Fatalf("expected APIError, got %T", got)
		}
		if api.StatusCode != 502 {
			t.Errorf("expected status 502, got %d", api.StatusCode)
		}

		got = Categorize(&httpStatusErr{code: 503}, "ytmusic")
		if !errors.As(got, &api) {
			t.Fatalf("expected APIError, got %T", got)
		}
		if api.StatusCode != 503 {
			t.Errorf("expected status 503, got %d", api.StatusCode)
		}
	})

	t.Run("carries the retry-after hint", func(t *testing.T) {
		got := Categorize(&hintedErr{after: 30 * time.Second}, "spotify")
		var limited *RateLimitError
		if !errors.As(got, &limited) {
			t.Fatalf("expected RateLimitError, got %T", got)
		}
		if limited.RetryAfter != 30*time.Second {
			t.Errorf("expected a 30s hint, got %s", limited.RetryAfter)
		}
	})
}

func TestKindOf(t *testing.T) {
	t.Run("maps each error type to its kind", func(t *testing.T) {
		cases := []struct {
			err  error
			want ErrorKind
		}{
			{&ConfigurationError{Detail: "missing client id"}, KindConfiguration},
			{&AuthenticationError{Service: "spotify"}, KindAuthentication},
			{&RateLimitError{Service: "ytmusic"}, KindRateLimit},
			{&NetworkError{Detail: "timeout"}, KindNetwork},
			{&TrackNotFoundError{Name: "Song"}, KindTrackNotFound},
			{&PlaylistNotFoundError{Name: "Mix"}, KindPlaylistNotFound},
			{&APIError{Service: "spotify"}, KindAPI},
			{&RetryExhaustedError{Operation: "search", Attempts: 3, Err: fmt.Errorf("boom")}, KindRetryExhausted},
		}
		for _, tc := range cases {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("%T: expected kind %s, got %s", tc.err, tc.want, got)
			}
		}
	})

	t.Run("reports the wrapper for exhausted retries", func(t *testing.T) {
		err := &RetryExhaustedError{
			Operation: "search_track",
			Attempts:  3,
			Err:       &RateLimitError{Service: "ytmusic"},
		}
		if got := KindOf(err); got != KindRetryExhausted {
			t.Errorf("expected retry_exhausted, got %s", got)
		}
	})

	t.Run("classifies sentinel-wrapped auth and config failures", func(t *testing.T) {
		cases := []struct {
			err  error
			want ErrorKind
		}{
			{fmt.Errorf("%w: playlist rejected", ErrAuthFailed), KindAuthentication},
			{fmt.Errorf("%w: run setup-auth first", ErrNotAuthenticated), KindAuthentication},
			{fmt.Errorf("%w: refresh it", ErrTokenExpired), KindAuthentication},
			{fmt.Errorf("%w: no config file", ErrMissingConfig), KindConfiguration},
			{fmt.Errorf("%w: client id unset", ErrMissingCredentials), KindConfiguration},
			{fmt.Errorf("%w: no match", ErrTrackNotFound), KindTrackNotFound},
			{fmt.Errorf("%w: bad id", ErrPlaylistNotFound), KindPlaylistNotFound},
		}
		for _, tc := range cases {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("%v: expected kind %s, got %s", tc.err, tc.want, got)
			}
		}
	})

	t.Run("returns unknown for foreign errors", func(t *testing.T) {
		if got := KindOf(fmt.Errorf("something else")); got != KindUnknown {
			t.Errorf("expected unknown, got %s", got)
		}
		if got := KindOf(nil); got != KindUnknown {
			t.Errorf("expected unknown for nil, got %s", got)
		}
	})
}

func TestErrorMessages(t *testing.T) {
	t.Run("track not found lists the artists", func(t *testing.T) {
		err := &TrackNotFoundError{Name: "Song", Artists: []string{"First", "Second"}}
		want := "track not found: Song by First, Second"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("retry exhausted names the operation and attempts", func(t *testing.T) {
		err := &RetryExhaustedError{Operation: "add_tracks", Attempts: 3, Err: fmt.Errorf("boom")}
		want := "maximum retry attempts (3) exceeded for operation: add_tracks: boom"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("api error includes the status only when present", func(t *testing.T) {
		with := &APIError{Service: "spotify", Detail: "bad request", StatusCode: 400}
		if with.Error() != "spotify API error: bad request (status 400)" {
			t.Errorf("unexpected message: %q", with.Error())
		}
		without := &APIError{Service: "spotify", Detail: "bad request"}
		if without.Error() != "spotify API error: bad request" {
			t.Errorf("unexpected message: %q", without.Error())
		}
	})

	t.Run("not-found errors match their sentinels", func(t *testing.T) {
		trackErr := fmt.Errorf("matching failed: %w", &TrackNotFoundError{Name: "Song", Artists: []string{"First"}})
		if !errors.Is(trackErr, ErrTrackNotFound) {
			t.Error("expected a wrapped TrackNotFoundError to match ErrTrackNotFound")
		}
		playlistErr := fmt.Errorf("lookup failed: %w", &PlaylistNotFoundError{Name: "Mix"})
		if !errors.Is(playlistErr, ErrPlaylistNotFound) {
			t.Error("expected a wrapped PlaylistNotFoundError to match ErrPlaylistNotFound")
		}
	})

	t.Run("rate limit includes the hint only when present", func(t *testing.T) {
		with := &RateLimitError{Service: "ytmusic", RetryAfter: 30 * time.Second}
		if with.Error() != "rate limit exceeded for ytmusic, retry after 30s" {
			t.Errorf("unexpected message: %q", with.Error())
		}
		without := &RateLimitError{Service: "ytmusic"}
		if without.Error() != "rate limit exceeded for ytmusic" {
			t.Errorf("unexpected message: %q", without.Error())
		}
	})
}
