package domain

import "errors"

var (
	// ErrTransport covers network and HTTP failures talking to the
	// availability API or the push transport.
	ErrTransport = errors.New("transport error")
	// ErrMalformedPayload covers unparseable JSON and bad slot timestamps.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrConfig is fatal at startup only.
	ErrConfig = errors.New("config error")
)
