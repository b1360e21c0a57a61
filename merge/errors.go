package merge

import "errors"

// Fatal-for-item conditions. Anything else the pipeline encounters is a
// per-file or per-record problem that is logged, counted, and skipped.
var (
	ErrDirMissing = errors.New("data directory not found")
	ErrNoRawFiles = errors.New("no raw fragment files found")
	ErrNoCandles  = errors.New("no candles reconstructed")
)
