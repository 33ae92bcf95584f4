package testutil

import (
	"net/http"

	"pdpnode/pkg/requestcontext"
)

// WithRequestID simulates the request context middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithSubject simulates what the auth middleware does for authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}
