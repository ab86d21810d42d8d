package eventfolio

import (
	"log/slog"
	"time"
)

// options holds the internal configuration for a Catalog.
type options struct {
	logger       *slog.Logger
	mustExist    bool
	systemDir    string
	exclude      []string
	lockRetries  int
	lockInterval time.Duration
	lockStale    time.Duration
}

// Option defines a functional option for configuring a Catalog.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger for the catalog.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMustExist ensures the catalog directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithSystemDir allows specifying the hidden directory name excluded from
// scans (default ".eventfolio").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithExclude adds glob patterns excluded from every enumeration.
func WithExclude(globs ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, globs...)
	}
}

// WithLockRetries bounds the number of write-lock acquisition attempts.
func WithLockRetries(n int) Option {
	return func(o *options) {
		o.lockRetries = n
	}
}

// WithLockInterval sets the delay between write-lock attempts.
func WithLockInterval(d time.Duration) Option {
	return func(o *options) {
		o.lockInterval = d
	}
}

// WithLockStale sets the age after which a crashed holder's lock file is
// superseded.
func WithLockStale(d time.Duration) Option {
	return func(o *options) {
		o.lockStale = d
	}
}
