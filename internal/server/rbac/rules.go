package rbac

import "strings"

// Access is the kind of check a Rule demands.
type Access int

const (
	// Public routes bypass token verification entirely.
	Public Access = iota
	// Authenticated routes need a verified identity of any role.
	Authenticated
	// RolesOnly routes need a verified identity holding one of Rule.Roles.
	RolesOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case RolesOnly:
		return "roles"
	default:
		return "unknown"
	}
}

// Rule grants access to requests whose method and path match.
//
// Pattern is either an exact path or a prefix ending in "/**", which matches
// the prefix itself and everything below it. An empty Method matches any.
type Rule struct {
	Pattern string
	Method  string
	Access  Access
	Roles   []Role
}

// Matches reports whether the rule applies to method and path.
func (r Rule) Matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// Allows reports whether role satisfies a RolesOnly rule. Other access
// kinds admit every defined role.
func (r Rule) Allows(role Role) bool {
	if r.Access != RolesOnly {
		return role.Valid()
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Rules is an ordered rule list; the first matching rule wins.
type Rules []Rule

// fallback applies when nothing matches.
var fallback = Rule{Pattern: "/**", Access: Authenticated}

// Match returns the first rule matching method and path, or a rule
// requiring authentication when none does.
func (rs Rules) Match(method, path string) Rule {
	for _, r := range rs {
		if r.Matches(method, path) {
			return r
		}
	}
	return fallback
}

// HTTPRules is the access table of the HTTP surface.
var HTTPRules = Rules{
	{Pattern: "/auth/login", Method: "POST", Access: Public},
	{Pattern: "/auth/register", Method: "POST", Access: Public},
	{Pattern: "/auth/refresh", Method: "POST", Access: Public},
	{Pattern: "/auth/logout", Method: "POST", Access: Public},
	{Pattern: "/auth/health", Method: "GET", Access: Public},
	{Pattern: "/docs", Method: "GET", Access: Public},

	{Pattern: "/metrics", Access: RolesOnly, Roles: []Role{Admin}},
	{Pattern: "/admin/**", Access: RolesOnly, Roles: []Role{Admin}},
	{Pattern: "/accounting/**", Access: RolesOnly, Roles: []Role{Admin, Owner, Accountant}},
	{Pattern: "/reports/**", Method: "GET", Access: RolesOnly, Roles: []Role{Admin, Owner, Accountant, User, Viewer}},
	{Pattern: "/reports/**", Access: RolesOnly, Roles: []Role{Admin, Owner, Accountant}},
}

// GRPCRules is the access table of the gRPC surface, keyed by full method
// name. Methods not listed require authentication.
var GRPCRules = Rules{
	{Pattern: "/grpc.health.v1.Health/**", Access: Public},
}
