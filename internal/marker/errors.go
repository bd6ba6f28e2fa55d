package marker

import "errors"

var (
	// ErrUnknownMarkerType is returned for a type tag the factory does not know.
	ErrUnknownMarkerType = errors.New("unknown marker type")
	// ErrInvalidDefinition is returned for malformed marker definitions.
	ErrInvalidDefinition = errors.New("invalid marker definition")
	// ErrNoLoader is returned when a function marker is requested from a
	// factory that has no way to load external routines.
	ErrNoLoader = errors.New("no function marker loader configured")
	// ErrNilScan is returned when a function marker's routine yields no
	// iterator for a text.
	ErrNilScan = errors.New("scan routine returned a nil iterator")
)
