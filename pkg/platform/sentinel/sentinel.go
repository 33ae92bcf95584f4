// Package sentinel holds infrastructure facts returned by stores and
// translated by services. Validation failures use pkg/domain-errors.
package sentinel

import "errors"

// ErrUnavailable means a backing service is unreachable, timed out, or is
// shielded by an open breaker.
var ErrUnavailable = errors.New("unavailable")
