package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"cms0/internal/rbac"

	"github.com/labstack/echo/v4"
)

// RoleChecker decides whether a role satisfies a set of requirements.
// Satisfied by services.RoleService.
type RoleChecker interface {
	RoleHasPermissions(ctx context.Context, roleSlug string, reqs []rbac.Requirement) (bool, error)
}

// Guard enforces resource/action requirements per route. Requirements are
// attached either to a single operation ("METHOD /path", matched against the
// registered route template) or to a whole group by path prefix. An operation
// entry overrides any group entry outright; the two are never merged, so a
// route can demand less than its group.
//
// Routes with no entry at all pass through untouched.
type Guard struct {
	checker RoleChecker

	mu     sync.RWMutex
	routes map[string][]rbac.Requirement
	groups map[string][]rbac.Requirement
}

func NewGuard(checker RoleChecker) *Guard {
	return &Guard{
		checker: checker,
		routes:  make(map[string][]rbac.Requirement),
		groups:  make(map[string][]rbac.Requirement),
	}
}

// Require attaches requirements to one operation. Requirements are normalized
// at registration: an entry with no actions defaults to read.
func (g *Guard) Require(method, path string, reqs ...rbac.Requirement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes[method+" "+path] = normalize(reqs)
}

// RequireGroup attaches requirements to every route under a path prefix.
func (g *Guard) RequireGroup(prefix string, reqs ...rbac.Requirement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups[prefix] = normalize(reqs)
}

func normalize(reqs []rbac.Requirement) []rbac.Requirement {
	out := make([]rbac.Requirement, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, req.Normalize())
	}
	return out
}

// lookup returns the requirements for a route. Exact operation entries win;
// otherwise the longest matching group prefix applies.
func (g *Guard) lookup(method, path string) ([]rbac.Requirement, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if reqs, ok := g.routes[method+" "+path]; ok {
		return reqs, true
	}

	var (
		best    []rbac.Requirement
		bestLen = -1
	)
	for prefix, reqs := range g.groups {
		if strings.HasPrefix(path, prefix) && len(prefix) > bestLen {
			best = reqs
			bestLen = len(prefix)
		}
	}
	return best, bestLen >= 0
}

// Middleware checks the requesting user's role against the route's
// requirements. Denials are opaque: the response never names the resource or
// action that failed.
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqs, ok := g.lookup(c.Request().Method, c.Path())
			if !ok || len(reqs) == 0 {
				return next(c)
			}

			role := GetUserRole(c)
			if role == "" {
				return echo.NewHTTPError(http.StatusForbidden, "missing role on current user")
			}

			allowed, err := g.checker.RoleHasPermissions(c.Request().Context(), role, reqs)
			if err != nil {
				return err
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permission")
			}

			return next(c)
		}
	}
}
