package youtube

import "errors"

var (
	// ErrNoSession is returned when no authenticated YouTube service is
	// available. It is a precondition failure and is never retried.
	ErrNoSession         = errors.New("no authenticated youtube session")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrInvalidQuery      = errors.New("exactly one of channel id or username is required")
	ErrMalformedResponse = errors.New("malformed youtube response")
	ErrNotImplemented    = errors.New("not implemented")
)
