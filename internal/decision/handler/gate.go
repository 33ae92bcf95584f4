package handler

import (
	"net/http"
	"sync/atomic"

	dErrors "pdpnode/pkg/domain-errors"
	"pdpnode/pkg/platform/httputil"
)

// Gate switches the decision routes on and off. It starts disabled.
type Gate struct {
	enabled atomic.Bool
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Enable() {
	g.enabled.Store(true)
}

func (g *Gate) Disable() {
	g.enabled.Store(false)
}

func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

// Middleware rejects requests with 503 while the gate is disabled.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "decision API is not active"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
