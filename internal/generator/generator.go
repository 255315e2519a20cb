// Package generator renders a security constraint table as Go source, so a
// host can compile its policy table in instead of computing it at start.
package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"github.com/chr1sbest/routeauthz/internal/model"
)

var fileTemplate = template.Must(template.New("constraints").Funcs(template.FuncMap{
	"quote":   strconv.Quote,
	"strings": stringSlice,
}).Parse(`// Code generated by routeauthz. DO NOT EDIT.

package {{.Package}}

// SecurityConstraint binds an HTTP method and URL pattern to a role
// restriction. Nil Roles leaves the route open; empty Roles denies it.
type SecurityConstraint struct {
	Method     string
	URLPattern string
	Roles      []string
}

// DeclaredRoles lists the roles declared by the {{.Application}} application.
var DeclaredRoles = {{strings .DeclaredRoles}}

// Constraints is the security constraint table of the {{.Application}} application.
var Constraints = []SecurityConstraint{ {{- range .Constraints}}
	{Method: {{quote .Method}}, URLPattern: {{quote .URLPattern}}, Roles: {{strings .Roles}}},
{{- end}}
{{- if .Constraints}}
{{end}}}
`))

type fileData struct {
	Package       string
	Application   string
	DeclaredRoles []string
	Constraints   []model.SecurityConstraint
}

// Generate returns gofmt-formatted Go source declaring cfg's constraints in
// order. Declared roles are always emitted as a non-nil slice.
func Generate(pkg string, cfg *model.Config) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	roles := cfg.DeclaredRoles
	if roles == nil {
		roles = []string{}
	}

	var buf bytes.Buffer
	err := fileTemplate.Execute(&buf, fileData{
		Package:       pkg,
		Application:   cfg.Application,
		DeclaredRoles: roles,
		Constraints:   cfg.Constraints,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

// stringSlice renders a []string literal, keeping nil and empty distinct.
func stringSlice(values []string) string {
	if values == nil {
		return "nil"
	}
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, strconv.Quote(v))
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
