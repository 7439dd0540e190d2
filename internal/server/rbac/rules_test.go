package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatches(t *testing.T) {
	r := Rule{Pattern: "/admin/**"}
	assert.True(t, r.Matches("GET", "/admin"))
	assert.True(t, r.Matches("DELETE", "/admin/accounts/bob"))
	assert.False(t, r.Matches("GET", "/administrator"))

	exact := Rule{Pattern: "/auth/login", Method: "POST"}
	assert.True(t, exact.Matches("POST", "/auth/login"))
	assert.False(t, exact.Matches("post", "/auth/login"))
	assert.False(t, exact.Matches("GET", "/auth/login"))
	assert.False(t, exact.Matches("POST", "/auth/login/x"))
}

func TestHTTPRules(t *testing.T) {
	tests := []struct {
		method, path string
		access       Access
		allowed      []Role
	}{
		{"POST", "/auth/login", Public, nil},
		{"POST", "/auth/register", Public, nil},
		{"POST", "/auth/refresh", Public, nil},
		{"POST", "/auth/logout", Public, nil},
		{"GET", "/auth/health", Public, nil},
		{"GET", "/docs", Public, nil},
		{"GET", "/auth/me", Authenticated, Roles()},
		{"GET", "/customers", Authenticated, Roles()},
		{"GET", "/admin/accounts/locked", RolesOnly, []Role{Admin}},
		{"GET", "/metrics", RolesOnly, []Role{Admin}},
		{"POST", "/accounting/entries", RolesOnly, []Role{Admin, Owner, Accountant}},
		{"GET", "/reports/monthly", RolesOnly, Roles()},
		{"POST", "/reports/monthly", RolesOnly, []Role{Admin, Owner, Accountant}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rule := HTTPRules.Match(tt.method, tt.path)
			assert.Equal(t, tt.access, rule.Access)
			if tt.access == Public {
				return
			}

			allowed := make(map[Role]bool)
			for _, r := range tt.allowed {
				allowed[r] = true
			}
			for _, role := range Roles() {
				assert.Equalf(t, allowed[role], rule.Allows(role), "role %s", role)
			}
		})
	}
}

func TestMethodMatchIsCaseSensitive(t *testing.T) {
	r := Rule{Pattern: "/reports/**", Method: "GET"}
	assert.True(t, r.Matches("GET", "/reports/x"))
	assert.False(t, r.Matches("get", "/reports/x"))

	rule := HTTPRules.Match("get", "/reports/x")
	assert.False(t, rule.Allows(Viewer))
	assert.True(t, rule.Allows(Accountant))

	assert.Equal(t, Authenticated, HTTPRules.Match("post", "/auth/login").Access)
}

func TestLoginGETIsNotPublic(t *testing.T) {
	assert.Equal(t, Authenticated, HTTPRules.Match("GET", "/auth/login").Access)
}

func TestGRPCRules(t *testing.T) {
	assert.Equal(t, Public, GRPCRules.Match("", "/grpc.health.v1.Health/Check").Access)
	assert.Equal(t, Public, GRPCRules.Match("", "/grpc.health.v1.Health/Watch").Access)
	assert.Equal(t, Authenticated, GRPCRules.Match("", "/bizledger.Ledger/ListEntries").Access)
}
