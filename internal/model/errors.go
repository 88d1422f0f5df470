package model

import "github.com/rotisserie/eris"

// Load and join failures. Callers wrap these with context and test them
// with eris.Is.
var (
	ErrMissingFile    = eris.New("missing file")
	ErrUnparsableFile = eris.New("unparsable file")
	ErrMissingJoinKey = eris.New("missing join key")
	ErrTypeCoercion   = eris.New("type coercion failure")
	ErrUnknownService = eris.New("unknown service")
)
