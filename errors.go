package regscan

import "errors"

var (
	// ErrEmptyFeature is returned when a nil or zero Feature is added to a Lexer.
	ErrEmptyFeature = errors.New("regscan: empty feature")

	// ErrFeatureInUse is returned when a Feature already belongs to a Lexer.
	ErrFeatureInUse = errors.New("regscan: feature already attached to a lexer")

	// ErrInputType is returned by Matches for input that is not a byte sequence.
	ErrInputType = errors.New("regscan: input is not a string, []byte or io.Reader")

	// ErrFormat is returned when a serialized scanner cannot be loaded.
	ErrFormat = errors.New("regscan: malformed scanner buffer")

	// ErrNegativeRepeat is returned by Repeat and Repeated for a count below zero.
	ErrNegativeRepeat = errors.New("regscan: negative repeat count")

	// ErrTooManyPatterns is returned by Glue for more than MaxGlued automatons.
	ErrTooManyPatterns = errors.New("regscan: too many patterns to glue")

	// ErrTooManyStates is returned when a deterministic automaton would
	// outgrow its state limit.
	ErrTooManyStates = errors.New("regscan: automaton exceeds state limit")
)
