// Package manifest loads the statically declared route and policy table of
// an application from a YAML document.
//
// A manifest is the build-time counterpart of annotated resource types:
//
//	apiVersion: routeauthz/v1
//	kind: Application
//	application:
//	  name: shop
//	  package: com.example.shop
//	  path: /api
//	  declaredRoles:
//	    - [admin, user]
//	resources:
//	  - name: com.example.shop.OrdersResource
//	    path: orders
//	    security:
//	      rolesAllowed: [admin]
//	    operations:
//	      - name: list
//	        verbs: [GET]
//	      - name: get
//	        path: "{id}"
//	        security:
//	          permitAll: true
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/chr1sbest/routeauthz/internal/discovery"
	"github.com/chr1sbest/routeauthz/internal/model"
)

// Supported preamble values.
const (
	APIVersion = "routeauthz/v1"
	Kind       = "Application"
)

// Manifest is a parsed route and policy table.
type Manifest struct {
	APIVersion  string            `yaml:"apiVersion"`
	Kind        string            `yaml:"kind"`
	Application model.Application `yaml:"application"`
	Resources   []model.Resource  `yaml:"resources"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- CLI tool intentionally reads user-provided paths
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "unmarshal manifest")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	for i := range m.Resources {
		if m.Resources[i].Package == "" {
			m.Resources[i].Package = packageOf(m.Resources[i].Name)
		}
	}
	return &m, nil
}

// Validate checks the preamble and resource names.
func (m *Manifest) Validate() error {
	if m.Kind != Kind {
		return fmt.Errorf("expected kind %s, got %q", Kind, m.Kind)
	}
	if m.APIVersion != APIVersion {
		return fmt.Errorf("unsupported apiVersion %q", m.APIVersion)
	}
	if m.Application.Name == "" {
		return fmt.Errorf("application.name is required")
	}

	seen := make(map[string]bool, len(m.Resources))
	for i, r := range m.Resources {
		if r.Name == "" {
			return fmt.Errorf("resources[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("resources[%d]: duplicate resource %s", i, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// Register adds every resource to reg.
func (m *Manifest) Register(reg *discovery.Registry) error {
	for i := range m.Resources {
		r := &m.Resources[i]
		if err := reg.Register(r.Name, r); err != nil {
			return errors.Wrap(err, "register manifest resources")
		}
	}
	return nil
}

// Index returns the resource names in declaration order, the content of
// the resource index for this manifest.
func (m *Manifest) Index() []string {
	names := make([]string, 0, len(m.Resources))
	for _, r := range m.Resources {
		names = append(names, r.Name)
	}
	return names
}

// WriteIndex writes the resource index to path.
func (m *Manifest) WriteIndex(path string) error {
	f, err := os.Create(path) // #nosec G304 -- CLI tool intentionally writes user-provided paths
	if err != nil {
		return errors.Wrap(err, "create resource index")
	}
	if err := discovery.WriteIndex(f, m.Index()); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close resource index")
}

func packageOf(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return ""
}
