package server

import "errors"

// Transport-level admission failures (§4.6 steps 1-6). These are
// distinct from the Ok/Rejected/Retry application status: a caller is
// expected to map them onto RPC-transport errors (HTTP 401/400), not onto
// PushResult.
var (
	ErrUnauthenticated = errors.New("server: unauthenticated")
	ErrInvalidArgument = errors.New("server: invalid argument")
)
