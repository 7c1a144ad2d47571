package hpack

import "errors"

// ErrCompression marks a malformed-wire-format failure (bad integer,
// illegal index, size-update protocol violation). The root package
// wraps it into a ConnectionError, per spec §4.4/§7.
var ErrCompression = errors.New("hpack: compression error")

// ErrProtocol marks a semantic header-field-ordering/size violation
// (pseudo-header misuse, oversize header list). The root package
// wraps it into a StreamError, per spec §4.4/§7.
var ErrProtocol = errors.New("hpack: protocol error")

// wrapCompression joins err under ErrCompression so callers can match
// with errors.Is(err, hpack.ErrCompression) while keeping the detail.
func wrapCompression(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{cause: err, class: ErrCompression}
}

func wrapProtocol(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{cause: err, class: ErrProtocol}
}

type classifiedError struct {
	cause error
	class error
}

func (e *classifiedError) Error() string { return e.cause.Error() }
func (e *classifiedError) Unwrap() []error {
	return []error{e.cause, e.class}
}
