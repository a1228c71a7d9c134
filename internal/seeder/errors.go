package seeder

import "errors"

// Sentinel error kinds for tile fetches. Wrap these with fmt.Errorf("%w: ...")
// so errors.Is can classify failures.
var (
	// ErrSourceUnavailable marks transient upstream failures: the tile
	// source cannot be reached or answered with a server error.
	ErrSourceUnavailable = errors.New("tile source unavailable")

	// ErrIOFailure marks transient local failures while reading or writing
	// tile data.
	ErrIOFailure = errors.New("tile i/o failure")
)

// IsTransient reports whether err is worth retrying. Anything outside the
// transient kinds (malformed responses, programming errors) is fatal to the
// worker that hit it.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrIOFailure)
}
