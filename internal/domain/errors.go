package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// FetchError represents a backend fetch failure that may be retriable
type FetchError struct {
	Op        string // Operation that failed (e.g., "dial", "request", "read")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *FetchError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) IsRetriable() bool {
	return e.Retriable
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new retriable fetch error
func NewFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err, Retriable: true}
}

// NewFatalFetchError creates a non-retriable fetch error
func NewFatalFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrFetchFailed is returned when the network/vendor call failed or
	// returned unparseable data. Recovered by falling back to stale
	// cache; only surfaced when no fallback exists.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidPayload is returned when a payload parsed but is empty
	// or too short to be usable. Treated like a fetch failure.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrSourceUnavailable is terminal: no tier (disk, network, stale
	// disk) produced a usable payload.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoData means the source was reachable but the requested range
	// contains zero bars after normalization.
	ErrNoData = errors.New("no data in range")

	// ErrInvalidRange is returned for inverted or incomplete ranges
	ErrInvalidRange = errors.New("invalid time range")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
