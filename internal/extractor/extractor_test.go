package extractor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chr1sbest/routeauthz/internal/model"
)

func ordersResource() *model.Resource {
	return &model.Resource{
		Name:     "com.example.shop.OrdersResource",
		Path:     model.PathOf("orders"),
		Security: model.SecurityMarker{RolesAllowed: []string{"admin"}},
		Operations: []model.Operation{
			{Name: "list", Verbs: []string{"GET"}},
			{Name: "get", Path: model.PathOf("{id}"), Security: model.SecurityMarker{PermitAll: true}},
		},
	}
}

func TestExtract_EndToEnd(t *testing.T) {
	app := &model.Application{Name: "shop", Path: model.PathOf("/api")}

	got := New().Extract(app, []model.Described{ordersResource()})
	want := []model.SecurityConstraint{
		{Method: "GET", URLPattern: "/api/orders", Roles: []string{"admin"}},
		{Method: "GET", URLPattern: "/api/orders/*", Roles: nil},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("constraints mismatch (-want +got):\n%s", diff)
	}
	if !got[1].IsOpen() {
		t.Errorf("expected operation-level permit-all to be open, got %+v", got[1])
	}
}

func TestExtract_NoMarkersProducesNothing(t *testing.T) {
	res := &model.Resource{
		Name: "com.example.shop.PublicResource",
		Path: model.PathOf("public"),
		Operations: []model.Operation{
			{Name: "a", Verbs: []string{"GET"}},
			{Name: "b", Verbs: []string{"POST"}, Path: model.PathOf("x")},
			{Name: "c", Path: model.PathOf("y")},
		},
	}

	got := New().Extract(&model.Application{}, []model.Described{res})
	if len(got) != 0 {
		t.Fatalf("expected no constraints, got %+v", got)
	}
}

func TestExtract_NoPathAnywhereYieldsEmptyPattern(t *testing.T) {
	res := &model.Resource{
		Name:     "com.example.shop.RootResource",
		Security: model.SecurityMarker{PermitAll: true},
		Operations: []model.Operation{
			{Name: "root", Verbs: []string{"GET"}},
			{Name: "child", Verbs: []string{"GET"}, Path: model.PathOf("child")},
		},
	}

	got := New().Extract(&model.Application{}, []model.Described{res})
	want := []model.SecurityConstraint{
		{Method: "GET", URLPattern: "", Roles: nil},
		{Method: "GET", URLPattern: "/child", Roles: nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_UnwrapsProxies(t *testing.T) {
	app := &model.ApplicationProxy{
		Name:   "shop$Proxy$12",
		Target: &model.Application{Path: model.PathOf("api")},
	}
	res := &model.Proxy{
		Name:   "OrdersResource$Proxy$3",
		Target: &model.Proxy{Name: "inner", Target: ordersResource()},
	}

	got := New().Extract(app, []model.Described{res, nil})
	if len(got) != 2 || got[0].URLPattern != "/api/orders" {
		t.Fatalf("expected markers read through proxies, got %+v", got)
	}
}

func TestExtract_KeepsDuplicatesInOrder(t *testing.T) {
	res := &model.Resource{
		Path:     model.PathOf("/dup"),
		Security: model.SecurityMarker{DenyAll: true},
		Operations: []model.Operation{
			{Name: "one", Verbs: []string{"GET"}},
			{Name: "two", Verbs: []string{"GET"}},
		},
	}

	got := New().Extract(&model.Application{}, []model.Described{res, res})
	if len(got) != 4 {
		t.Fatalf("expected 4 constraints, got %d", len(got))
	}
	for _, c := range got {
		if c.Key() != (model.RouteKey{Method: "GET", Path: "/dup"}) {
			t.Errorf("unexpected key %+v", c.Key())
		}
	}
}

func TestComputeBasePath(t *testing.T) {
	tests := []struct {
		name string
		app  *model.Application
		want string
	}{
		{"nil application", nil, ""},
		{"no path", &model.Application{}, ""},
		{"empty path", &model.Application{Path: model.PathOf("")}, ""},
		{"leading slash", &model.Application{Path: model.PathOf("/api")}, "/api"},
		{"no leading slash", &model.Application{Path: model.PathOf("api")}, "/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeBasePath(tt.app); got != tt.want {
				t.Errorf("ComputeBasePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveResourcePath(t *testing.T) {
	tests := []struct {
		name string
		path *string
		want string
	}{
		{"absent", nil, "/api"},
		{"empty", model.PathOf(""), "/api"},
		{"relative", model.PathOf("orders"), "/api/orders"},
		{"absolute", model.PathOf("/orders"), "/api/orders"},
		{"bare slash is not normalized", model.PathOf("/"), "/api/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveResourcePath("/api", &model.Resource{Path: tt.path})
			if got != tt.want {
				t.Errorf("ResolveResourcePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveResourceSecurity_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		marker model.SecurityMarker
		want   model.SecurityKind
	}{
		{"none", model.SecurityMarker{}, model.SecurityNone},
		{"permit-all", model.SecurityMarker{PermitAll: true}, model.SecurityPermitAll},
		{"roles over permit-all", model.SecurityMarker{PermitAll: true, RolesAllowed: []string{"a"}}, model.SecurityRolesAllowed},
		{"deny over roles", model.SecurityMarker{DenyAll: true, RolesAllowed: []string{"a"}, PermitAll: true}, model.SecurityDenyAll},
		{"empty roles still declared", model.SecurityMarker{RolesAllowed: []string{}}, model.SecurityRolesAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveResourceSecurity(&model.Resource{Security: tt.marker})
			if got.Kind != tt.want {
				t.Errorf("kind = %s, want %s", got.Kind, tt.want)
			}
		})
	}
}

func TestDeriveOperationConstraint_PathOnlyDefaultsToGet(t *testing.T) {
	rs := model.Security{Kind: model.SecurityPermitAll}
	c, ok := DeriveOperationConstraint("/users", rs, model.Operation{Path: model.PathOf("")})
	if !ok {
		t.Fatalf("expected constraint")
	}
	if c.Method != "GET" || c.URLPattern != "/users" {
		t.Errorf("unexpected constraint %+v", c)
	}
}

func TestDeriveOperationConstraint_NotAnEndpoint(t *testing.T) {
	rs := model.Security{Kind: model.SecurityDenyAll}
	op := model.Operation{Name: "helper", Security: model.SecurityMarker{PermitAll: true}}
	if c, ok := DeriveOperationConstraint("/users", rs, op); ok {
		t.Fatalf("expected skip, got %+v", c)
	}
}

func TestDeriveOperationConstraint_DenyOverridesResourceRoles(t *testing.T) {
	rs := model.Security{Kind: model.SecurityRolesAllowed, Roles: []string{"admin"}}
	op := model.Operation{Verbs: []string{"DELETE"}, Security: model.SecurityMarker{DenyAll: true}}

	c, ok := DeriveOperationConstraint("/users", rs, op)
	if !ok {
		t.Fatalf("expected constraint")
	}
	if !c.IsDenied() {
		t.Errorf("expected denied constraint, got %+v", c)
	}
	if c.Allows("admin") {
		t.Errorf("deny-all must not allow admin")
	}
}

func TestDeriveOperationConstraint_NoMergeAcrossLevels(t *testing.T) {
	rs := model.Security{Kind: model.SecurityRolesAllowed, Roles: []string{"admin"}}
	op := model.Operation{Verbs: []string{"PUT"}, Security: model.SecurityMarker{RolesAllowed: []string{"editor"}}}

	c, _ := DeriveOperationConstraint("/users", rs, op)
	if diff := cmp.Diff([]string{"editor"}, c.Roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveOperationConstraint_EmptyRolesAllowedIsOpen(t *testing.T) {
	op := model.Operation{Verbs: []string{"GET"}, Security: model.SecurityMarker{RolesAllowed: []string{}}}

	c, ok := DeriveOperationConstraint("/users", model.Security{}, op)
	if !ok {
		t.Fatalf("expected constraint")
	}
	if !c.IsOpen() {
		t.Errorf("expected empty roles-allowed to be open, got %+v", c)
	}
}

func TestDeriveOperationConstraint_CollapsesParameters(t *testing.T) {
	rs := model.Security{Kind: model.SecurityPermitAll}
	tests := []struct {
		path string
		want string
	}{
		{"/{id}/orders", "/users/*"},
		{"{id}", "/users/*"},
		{"active/{id}", "/users/active/*"},
		{"active", "/users/active"},
	}
	for _, tt := range tests {
		c, _ := DeriveOperationConstraint("/users", rs, model.Operation{Path: model.PathOf(tt.path)})
		if c.URLPattern != tt.want {
			t.Errorf("path %q: got %q, want %q", tt.path, c.URLPattern, tt.want)
		}
	}
}

func TestDeriveOperationConstraint_ResourcePathNotCollapsed(t *testing.T) {
	rs := model.Security{Kind: model.SecurityPermitAll}
	c, _ := DeriveOperationConstraint("/tenants/{tenant}", rs, model.Operation{Verbs: []string{"GET"}})
	if c.URLPattern != "/tenants/{tenant}" {
		t.Errorf("got %q", c.URLPattern)
	}
}

// Multiple verb markers on one operation have no defined winner. Only
// determinism is asserted.
func TestEffectiveMethod_MultipleVerbsIsDeterministic(t *testing.T) {
	op := model.Operation{Verbs: []string{"GET", "POST", "PUT"}}
	first := EffectiveMethod(op)
	if first == "" {
		t.Fatalf("expected a method")
	}
	for i := 0; i < 10; i++ {
		if got := EffectiveMethod(op); got != first {
			t.Fatalf("method changed between calls: %q then %q", first, got)
		}
	}
	found := false
	for _, v := range op.Verbs {
		if v == first {
			found = true
		}
	}
	if !found {
		t.Errorf("method %q is not one of the declared verbs", first)
	}
}

func TestDeclaredRoles(t *testing.T) {
	app := &model.Application{DeclaredRoles: [][]string{{"user", "admin"}, {"admin", "auditor"}}}

	got := DeclaredRoles(&model.ApplicationProxy{Target: app})
	if diff := cmp.Diff([]string{"admin", "auditor", "user"}, got); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if got := DeclaredRoles(nil); len(got) != 0 {
		t.Errorf("expected no roles, got %v", got)
	}
}
