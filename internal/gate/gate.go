// Package gate keeps visitors on the maintenance page while maintenance mode is on.
package gate

import (
	"context"
	"net/http"
	"strings"

	"github.com/conradoqg/maintenance-gate/internal/logx"
	"github.com/conradoqg/maintenance-gate/internal/maintenance"
)

// APIPath serves the status API.
const APIPath = "/api/maintenance"

// Resolver is the part of *maintenance.Resolver the gate needs.
type Resolver interface {
	Status(ctx context.Context) maintenance.Status
	Set(ctx context.Context, enabled bool) maintenance.SetResult
	LocalStatus(ctx context.Context) bool
}

type Gate struct {
	res   Resolver
	page  string
	allow []string
}

// New builds a gate redirecting to page. Paths under allowPrefixes, the API,
// /healthz and /metrics are never redirected.
func New(res Resolver, page string, allowPrefixes []string) *Gate {
	if page == "" {
		page = "/maintenance.html"
	}
	allow := []string{APIPath, "/healthz", "/metrics"}
	for _, p := range allowPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			allow = append(allow, p)
		}
	}
	return &Gate{res: res, page: page, allow: allow}
}

func (g *Gate) allowed(path string) bool {
	for _, p := range g.allow {
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

// Middleware redirects every non-allowed request to the maintenance page while
// the status is on, and sends visitors of the maintenance page home when it is off.
//
// Each request resolves the status with its own context. While the remote
// document is failing nothing is cached, so every gated request fetches again
// and can wait up to common.timeout before the local store answers.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if g.allowed(path) {
			next.ServeHTTP(w, r)
			return
		}
		st := g.res.Status(r.Context())
		if st.Degraded {
			logx.Debugf("gate decision from %s for %s (remote degraded)", st.Source, path)
		}
		switch {
		case path == g.page && !st.Enabled:
			redirect(w, r, "/")
		case path != g.page && st.Enabled:
			redirect(w, r, g.page)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	code := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		code = http.StatusTemporaryRedirect
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, to, code)
}
