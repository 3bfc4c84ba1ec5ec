package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// ErrorKind identifies one class of migration failure. Every error the
// retry engine sees is either one of these kinds or KindUnknown.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindAuthentication
	KindRateLimit
	KindNetwork
	KindTrackNotFound
	KindPlaylistNotFound
	KindAPI
	KindRetryExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindNetwork:
		return "network"
	case KindTrackNotFound:
		return "track_not_found"
	case KindPlaylistNotFound:
		return "playlist_not_found"
	case KindAPI:
		return "api"
	case KindRetryExhausted:
		return "retry_exhausted"
	default:
		return "unknown"
	}
}

// ConfigurationError reports invalid or missing setup (credentials, config
// file, auth artifacts).
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Detail)
}

// AuthenticationError reports an auth failure against one named service.
type AuthenticationError struct {
	Service string
	Detail  string
}

func (e *AuthenticationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("authentication failed for %s", e.Service)
	}
	return fmt.Sprintf("authentication failed for %s: %s", e.Service, e.Detail)
}

// RateLimitError reports request throttling by a service. RetryAfter is the
// service-provided wait hint; zero means the service gave none.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Service, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Service)
}

// NetworkError reports a connectivity-level failure.
type NetworkError struct {
	Detail string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Detail)
}

// TrackNotFoundError reports that no acceptable destination match exists for
// a track.
type TrackNotFoundError struct {
	Name    string
	Artists []string
}

func (e *TrackNotFoundError) Error() string {
	return fmt.Sprintf("track not found: %s by %s", e.Name, strings.Join(e.Artists, ", "))
}

// Is matches the ErrTrackNotFound sentinel so errors.Is works across both
// error vocabularies.
func (e *TrackNotFoundError) Is(target error) bool { return target == ErrTrackNotFound }

// PlaylistNotFoundError reports a playlist lookup miss by name or ID.
type PlaylistNotFoundError struct {
	Name string
}

func (e *PlaylistNotFoundError) Error() string {
	return fmt.Sprintf("playlist not found: %s", e.Name)
}

// Is matches the ErrPlaylistNotFound sentinel so errors.Is works across both
// error vocabularies.
func (e *PlaylistNotFoundError) Is(target error) bool { return target == ErrPlaylistNotFound }

// APIError reports any other service API failure. StatusCode is zero when
// the underlying failure carried no HTTP status.
type APIError struct {
	Service    string
	Detail     string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error: %s (status %d)", e.Service, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %s", e.Service, e.Detail)
}

// RetryExhaustedError reports that an operation kept failing past its
// attempt budget. It wraps the final attempt's error.
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("maximum retry attempts (%d) exceeded for operation: %s: %v", e.Attempts, e.Operation, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// KindOf reports the taxonomy kind of err, or KindUnknown for errors outside
// the taxonomy. Wrapper kinds are checked first so a RetryExhaustedError
// reports as such rather than as its cause. Errors wrapping the auth,
// config and not-found sentinels classify by sentinel, so a failure carried
// as fmt.Errorf("%w: ...", ErrAuthFailed) is never mistaken for a retryable
// API error.
func KindOf(err error) ErrorKind {
	var (
		exhausted *RetryExhaustedError
		rateLimit *RateLimitError
		network   *NetworkError
		track     *TrackNotFoundError
		playlist  *PlaylistNotFoundError
		auth      *AuthenticationError
		config    *ConfigurationError
		api       *APIError
	)
	switch {
	case errors.As(err, &exhausted):
		return KindRetryExhausted
	case errors.As(err, &rateLimit):
		return KindRateLimit
	case errors.As(err, &network):
		return KindNetwork
	case errors.As(err, &track):
		return KindTrackNotFound
	case errors.As(err, &playlist):
		return KindPlaylistNotFound
	case errors.As(err, &auth):
		return KindAuthentication
	case errors.As(err, &config):
		return KindConfiguration
	case errors.As(err, &api):
		return KindAPI
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshFailed),
		errors.Is(err, ErrNoRefreshToken), errors.Is(err, ErrInvalidCredentials):
		return KindAuthentication
	case errors.Is(err, ErrMissingConfig), errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingCredentials):
		return KindConfiguration
	case errors.Is(err, ErrTrackNotFound):
		return KindTrackNotFound
	case errors.Is(err, ErrPlaylistNotFound):
		return KindPlaylistNotFound
	default:
		return KindUnknown
	}
}

var rateLimitIndicators = []string{"rate limit", "too many requests", "429", "quota exceeded", "throttle"}

var networkIndicators = []string{"connection", "timeout", "network", "dns", "unreachable", "socket"}

// Categorize maps an arbitrary failure from a service call into the error
// taxonomy. Errors already in the taxonomy pass through unchanged. The
// mapping is total: any non-nil error comes back as a taxonomy member, with
// rate-limit indicators taking precedence over network indicators and
// everything else falling through to APIError.
func Categorize(err error, service string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	msg := strings.ToLower(err.Error())
	if containsAny(msg, rateLimitIndicators) {
		return &RateLimitError{Service: service, RetryAfter: retryAfterFrom(err)}
	}
	if containsAny(msg, networkIndicators) {
		return &NetworkError{Detail: err.Error()}
	}
	return &APIError{Service: service, Detail: err.Error(), StatusCode: statusCodeFrom(err)}
}

func containsAny(msg string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}

// retryAfterFrom pulls a wait hint off errors that expose one, like the
// Spotify client's 429 responses.
func retryAfterFrom(err error) time.Duration {
	var carrier interface{ RetryAfterHint() time.Duration }
	if errors.As(err, &carrier) {
		return carrier.RetryAfterHint()
	}
	return 0
}

// statusCodeFrom probes the two status accessors used by the service
// clients. Zero means no status was carried.
func statusCodeFrom(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	var hs interface{ HTTPStatus() int }
	if errors.As(err, &hs) {
		return hs.HTTPStatus()
	}
	return 0
}
