package rbac

import (
	"context"
	"strings"
)

type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

// Has reports whether role grants perm. "*" grants everything; a trailing
// "*" in a pattern grants the prefix (e.g. "attempt:*").
func (c *Checker) Has(role, perm string) bool {
	for _, p := range c.RolePermissions[role] {
		if p == "*" || p == perm {
			return true
		}
		if strings.HasSuffix(p, "*") && strings.HasPrefix(perm, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
