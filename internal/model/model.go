package model

import (
	"slices"
	"strings"
)

// RouteKey identifies a constraint by HTTP method and URL pattern.
type RouteKey struct {
	Method string
	Path   string
}

// SecurityConstraint binds an HTTP method and URL pattern to a role
// restriction.
//
// Roles carries three states. A nil slice means the route is open and left
// to the enforcement adapter's default policy. A non-nil empty slice denies
// the route to everyone. A non-empty slice restricts the route to those
// roles.
type SecurityConstraint struct {
	Method     string   `json:"method" yaml:"method"`
	URLPattern string   `json:"urlPattern" yaml:"urlPattern"`
	Roles      []string `json:"roles" yaml:"roles"`
}

// Key returns the RouteKey of the constraint.
func (c SecurityConstraint) Key() RouteKey {
	return RouteKey{Method: c.Method, Path: c.URLPattern}
}

// IsOpen reports whether the constraint carries no role restriction.
func (c SecurityConstraint) IsOpen() bool {
	return c.Roles == nil
}

// IsDenied reports whether the constraint denies access to everyone.
func (c SecurityConstraint) IsDenied() bool {
	return c.Roles != nil && len(c.Roles) == 0
}

// Allows reports whether a caller holding any of roles passes the
// constraint's role restriction. Open constraints allow everyone.
func (c SecurityConstraint) Allows(roles ...string) bool {
	if c.IsOpen() {
		return true
	}
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// Matches reports whether the constraint applies to a request. Patterns
// ending in "*" match any path with the preceding prefix; other patterns
// match exactly.
func (c SecurityConstraint) Matches(method, path string) bool {
	if !strings.EqualFold(c.Method, method) {
		return false
	}
	if prefix, ok := strings.CutSuffix(c.URLPattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return c.URLPattern == path
}

// SecurityKind is the resolved security state of a resource or operation.
type SecurityKind int

const (
	SecurityNone SecurityKind = iota
	SecurityDenyAll
	SecurityRolesAllowed
	SecurityPermitAll
)

func (k SecurityKind) String() string {
	switch k {
	case SecurityDenyAll:
		return "deny-all"
	case SecurityRolesAllowed:
		return "roles-allowed"
	case SecurityPermitAll:
		return "permit-all"
	default:
		return "none"
	}
}

// Security is a resolved security marker.
type Security struct {
	Kind  SecurityKind
	Roles []string
}

// Declared reports whether any security marker was present.
func (s Security) Declared() bool {
	return s.Kind != SecurityNone
}

// SecurityMarker holds the raw security markers attached to a resource or
// operation. More than one may be set; Resolve picks the winner.
type SecurityMarker struct {
	DenyAll bool `json:"denyAll,omitempty" yaml:"denyAll,omitempty"`
	// RolesAllowed is nil when no roles-allowed marker is present. A present
	// marker with an empty list is a non-nil empty slice.
	RolesAllowed []string `json:"rolesAllowed,omitempty" yaml:"rolesAllowed,omitempty"`
	PermitAll    bool     `json:"permitAll,omitempty" yaml:"permitAll,omitempty"`
}

// Resolve applies marker precedence: deny-all, then roles-allowed, then
// permit-all.
func (m SecurityMarker) Resolve() Security {
	switch {
	case m.DenyAll:
		return Security{Kind: SecurityDenyAll}
	case m.RolesAllowed != nil:
		return Security{Kind: SecurityRolesAllowed, Roles: m.RolesAllowed}
	case m.PermitAll:
		return Security{Kind: SecurityPermitAll}
	default:
		return Security{Kind: SecurityNone}
	}
}

// KeycloakMarker is the application-level Keycloak adapter configuration.
type KeycloakMarker struct {
	JSON          string `json:"json,omitempty" yaml:"json,omitempty"`
	AuthServerURL string `json:"authServerUrl,omitempty" yaml:"authServerUrl,omitempty"`
	SSLRequired   string `json:"sslRequired,omitempty" yaml:"sslRequired,omitempty"`
}

// Application is the root descriptor of a deployed REST application.
type Application struct {
	Name    string `json:"name" yaml:"name"`
	Package string `json:"package" yaml:"package"`
	// Path is nil when the application declares no base path.
	Path *string `json:"path,omitempty" yaml:"path,omitempty"`
	// DeclaredRoles holds one entry per declare-roles marker.
	DeclaredRoles [][]string      `json:"declaredRoles,omitempty" yaml:"declaredRoles,omitempty"`
	Keycloak      *KeycloakMarker `json:"keycloak,omitempty" yaml:"keycloak,omitempty"`
}

// DescribeApplication implements ApplicationDescribed.
func (a *Application) DescribeApplication() *Application {
	return a
}

// Resource describes a type exposing operations under a path prefix.
type Resource struct {
	// Name is the fully-qualified name used by the resource index.
	Name       string         `json:"name" yaml:"name"`
	Package    string         `json:"package,omitempty" yaml:"package,omitempty"`
	Path       *string        `json:"path,omitempty" yaml:"path,omitempty"`
	Security   SecurityMarker `json:"security" yaml:"security,omitempty"`
	Operations []Operation    `json:"operations" yaml:"operations"`
}

// Describe implements Described.
func (r *Resource) Describe() *Resource {
	return r
}

// Operation describes a single method-like member of a resource.
type Operation struct {
	Name string `json:"name" yaml:"name"`
	// Verbs lists HTTP verb markers in scan order.
	Verbs    []string       `json:"verbs,omitempty" yaml:"verbs,omitempty"`
	Path     *string        `json:"path,omitempty" yaml:"path,omitempty"`
	Security SecurityMarker `json:"security" yaml:"security,omitempty"`
}

// Config is the in-memory result of one extraction pass for an application.
type Config struct {
	Application   string               `json:"application"`
	DeclaredRoles []string             `json:"declaredRoles"`
	Constraints   []SecurityConstraint `json:"constraints"`
	KeycloakJSON  string               `json:"-"`
}

// Policies indexes the constraints by RouteKey. When several constraints
// share a key the last one wins.
func (c *Config) Policies() map[RouteKey]SecurityConstraint {
	policies := make(map[RouteKey]SecurityConstraint, len(c.Constraints))
	for _, sc := range c.Constraints {
		policies[sc.Key()] = sc
	}
	return policies
}

// PathOf returns a pointer to p, for populating optional path fields.
func PathOf(p string) *string {
	return &p
}
