// Package gazetteer resolves place names to candidate world coordinates.
package gazetteer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrLimitUnsupported is returned by backends that cannot cap results.
	ErrLimitUnsupported = errors.New("gazetteer: result limit not supported")

	// ErrUnknownMode is returned by Open for an unrecognised backend mode.
	ErrUnknownMode = errors.New("gazetteer: unknown mode")
)

// Backend modes accepted by Open.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Candidate is one gazetteer match for a queried name.
type Candidate struct {
	Name   string  // Matched name; aliases joined with "|" for the offline store
	Lon    float64 // Longitude, degrees
	Lat    float64 // Latitude, degrees
	ID     string  // Location id in the backing store, if any
	Source string  // Gazetteer source name, if any
	Search string  // The query string that produced this candidate
}

// Query is a single name lookup.
type Query struct {
	Name  string
	Limit int    // Max results; 0 means the backend default
	Lang  string // Preferred result language, e.g. "en"
}

// Resolver looks up a place name.
type Resolver interface {
	Resolve(ctx context.Context, q Query) ([]Candidate, error)
}

// Config selects and tunes a gazetteer backend.
type Config struct {
	Mode      string        // ModeOnline or ModeOffline
	DBPath    string        // Offline store path
	BaseURL   string        // Nominatim endpoint
	UserAgent string        // Sent with every online request
	Rate      float64       // Online requests per second
	Timeout   time.Duration // Online HTTP timeout
}

// DefaultConfig returns the default online configuration.
func DefaultConfig() Config {
	return Config{
		Mode:      ModeOnline,
		DBPath:    DefaultDBPath,
		BaseURL:   DefaultNominatimURL,
		UserAgent: DefaultUserAgent,
		Rate:      1,
		Timeout:   30 * time.Second,
	}
}

// ResolveCloser is a Resolver holding resources.
type ResolveCloser interface {
	Resolver
	io.Closer
}

// Open creates the resolver selected by cfg.Mode. The caller closes it
// when done.
func Open(cfg Config) (ResolveCloser, error) {
	switch cfg.Mode {
	case ModeOnline, "":
		return NewNominatim(cfg), nil
	case ModeOffline:
		s, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}
