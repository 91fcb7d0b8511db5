package models

import "errors"

// Error kinds surfaced by chart calculation. Callers match them with errors.Is;
// every producer wraps them with context.
var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidCoordinate    = errors.New("invalid coordinate")
	ErrHouseSystemUndefined = errors.New("house system undefined at this latitude")
	ErrEphemerisUnavailable = errors.New("ephemeris unavailable")
)

// ErrorCode is a stable identifier for an error kind, used by the HTTP API
type ErrorCode string

const (
	CodeInvalidDate          ErrorCode = "INVALID_DATE"
	CodeInvalidCoordinate    ErrorCode = "INVALID_COORDINATE"
	CodeHouseSystemUndefined ErrorCode = "HOUSE_SYSTEM_UNDEFINED"
	CodeEphemerisUnavailable ErrorCode = "EPHEMERIS_UNAVAILABLE"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// CodeOf maps an error to its stable code
func CodeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrInvalidDate):
		return CodeInvalidDate
	case errors.Is(err, ErrInvalidCoordinate):
		return CodeInvalidCoordinate
	case errors.Is(err, ErrHouseSystemUndefined):
		return CodeHouseSystemUndefined
	case errors.Is(err, ErrEphemerisUnavailable):
		return CodeEphemerisUnavailable
	default:
		return CodeInternal
	}
}
