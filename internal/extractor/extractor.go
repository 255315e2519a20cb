// Package extractor turns resource descriptors into an ordered list of
// security constraints.
//
// Paths are built by plain concatenation of the application base path, the
// resource path and the operation path. Path parameters are not modelled:
// the first "{" and everything after it collapse to a single "*", so the
// resulting patterns are prefix matches.
package extractor

import (
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/model"
)

// Extractor computes constraints. The zero value is not usable; call New.
type Extractor struct {
	logger *logging.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger overrides the default module logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: logging.GetLogger("routeauthz.extractor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract walks resources in order and returns one constraint per operation
// that is a web endpoint and carries a security marker at either level.
// Duplicate routes are kept.
//
// Patterns start with "/" whenever any of the application, resource or
// operation declares a path. When none does the pattern is "", which hosts
// should treat as the application root.
func (e *Extractor) Extract(app model.ApplicationDescribed, resources []model.Described) []model.SecurityConstraint {
	base := ComputeBasePath(model.UnwrapApplication(app))

	constraints := make([]model.SecurityConstraint, 0)
	for _, d := range resources {
		res := model.Unwrap(d)
		if res == nil {
			continue
		}

		resourcePath := ResolveResourcePath(base, res)
		resourceSecurity := DeriveResourceSecurity(res)

		for _, op := range res.Operations {
			c, ok := DeriveOperationConstraint(resourcePath, resourceSecurity, op)
			if !ok {
				e.logger.Debugw("operation skipped", "resource", res.Name, "operation", op.Name)
				continue
			}
			e.logger.Debugw("constraint derived",
				"resource", res.Name,
				"operation", op.Name,
				"method", c.Method,
				"pattern", c.URLPattern,
				"roles", c.Roles)
			constraints = append(constraints, c)
		}
	}
	return constraints
}

// DeclaredRoles returns the union of every declare-roles marker on the
// application, deduplicated and sorted.
func DeclaredRoles(app model.ApplicationDescribed) []string {
	a := model.UnwrapApplication(app)
	roles := make([]string, 0)
	if a == nil {
		return roles
	}

	seen := make(map[string]struct{})
	for _, group := range a.DeclaredRoles {
		for _, r := range group {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			roles = append(roles, r)
		}
	}
	sort.Strings(roles)
	return roles
}

// ComputeBasePath returns the application base path with a leading slash,
// or "" when none is declared.
func ComputeBasePath(app *model.Application) string {
	if app == nil || app.Path == nil {
		return ""
	}
	p := *app.Path
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// ResolveResourcePath appends the resource's own path to base. A resource
// without a path resolves to base.
func ResolveResourcePath(base string, res *model.Resource) string {
	if res == nil || res.Path == nil {
		return base
	}
	return join(base, *res.Path)
}

// DeriveResourceSecurity resolves the class-level security markers.
func DeriveResourceSecurity(res *model.Resource) model.Security {
	if res == nil {
		return model.Security{}
	}
	return res.Security.Resolve()
}

// DeriveOperationConstraint computes the constraint for one operation. The
// boolean is false when the operation is not a web endpoint or when neither
// it nor its resource declares a security marker.
func DeriveOperationConstraint(resourcePath string, resourceSecurity model.Security, op model.Operation) (model.SecurityConstraint, bool) {
	path := resourcePath
	if op.Path != nil {
		path = CollapseParameters(join(resourcePath, *op.Path))
	}

	method := EffectiveMethod(op)
	if method == "" {
		return model.SecurityConstraint{}, false
	}

	security := op.Security.Resolve()
	if !security.Declared() {
		security = resourceSecurity
	}
	if !security.Declared() {
		return model.SecurityConstraint{}, false
	}

	return model.SecurityConstraint{
		Method:     method,
		URLPattern: path,
		Roles:      rolesFor(security),
	}, true
}

// EffectiveMethod returns the HTTP method of op, or "" when op is not a web
// endpoint. With several verb markers the last one wins; callers should not
// rely on which.
func EffectiveMethod(op model.Operation) string {
	if n := len(op.Verbs); n > 0 {
		return strings.ToUpper(op.Verbs[n-1])
	}
	if op.Path != nil {
		return http.MethodGet
	}
	return ""
}

// CollapseParameters replaces the first path parameter and everything after
// it with "*".
func CollapseParameters(path string) string {
	if i := strings.Index(path, "{"); i >= 0 {
		return path[:i] + "*"
	}
	return path
}

// rolesFor maps a declared security state to constraint roles. An empty
// roles-allowed list is treated as open, the same as permit-all.
func rolesFor(s model.Security) []string {
	switch s.Kind {
	case model.SecurityDenyAll:
		return []string{}
	case model.SecurityRolesAllowed:
		if len(s.Roles) == 0 {
			return nil
		}
		return slices.Clone(s.Roles)
	default:
		return nil
	}
}

func join(prefix, suffix string) string {
	switch {
	case suffix == "":
		return prefix
	case strings.HasPrefix(suffix, "/"):
		return prefix + suffix
	default:
		return prefix + "/" + suffix
	}
}
