// Package sink contains receivers for the computed security configuration.
package sink

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"

	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/model"
)

// Configurer receives the result of one extraction pass. It is called once
// per application. A returned error aborts initialization.
type Configurer interface {
	ConfigureSecurity(ctx context.Context, jsonConfig string, declaredRoles []string, constraints []model.SecurityConstraint) error
}

// Call is one recorded ConfigureSecurity invocation.
type Call struct {
	JSONConfig    string
	DeclaredRoles []string
	Constraints   []model.SecurityConstraint
}

// Recorder keeps a deep copy of every call. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// ConfigureSecurity implements Configurer.
func (r *Recorder) ConfigureSecurity(_ context.Context, jsonConfig string, declaredRoles []string, constraints []model.SecurityConstraint) error {
	call := Call{
		JSONConfig:    jsonConfig,
		DeclaredRoles: deepcopy.Copy(declaredRoles).([]string),
		Constraints:   deepcopy.Copy(constraints).([]model.SecurityConstraint),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return nil
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Document is the JSON layout written by FileWriter.
type Document struct {
	Config        json.RawMessage            `json:"config"`
	DeclaredRoles []string                   `json:"declaredRoles"`
	Constraints   []model.SecurityConstraint `json:"constraints"`
}

// FileWriter writes each call as an indented JSON Document to Path,
// replacing the previous content.
type FileWriter struct {
	Path string
}

// ConfigureSecurity implements Configurer.
func (w *FileWriter) ConfigureSecurity(_ context.Context, jsonConfig string, declaredRoles []string, constraints []model.SecurityConstraint) error {
	if jsonConfig == "" {
		jsonConfig = "{}"
	}
	doc := Document{
		Config:        json.RawMessage(jsonConfig),
		DeclaredRoles: declaredRoles,
		Constraints:   constraints,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal security document")
	}
	if err := os.WriteFile(w.Path, append(data, '\n'), 0o600); err != nil {
		return errors.Wrapf(err, "write security document %s", w.Path)
	}
	return nil
}

// ReadDocument loads a Document written by FileWriter.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path written by FileWriter
	if err != nil {
		return nil, errors.Wrap(err, "read security document")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal security document")
	}
	return &doc, nil
}

// Log writes every constraint to a logger at info level.
type Log struct {
	Logger *logging.Logger
}

// ConfigureSecurity implements Configurer.
func (l *Log) ConfigureSecurity(_ context.Context, _ string, declaredRoles []string, constraints []model.SecurityConstraint) error {
	logger := l.Logger
	if logger == nil {
		logger = logging.GetLogger("routeauthz.sink")
	}
	logger.Infow("security configured", "declaredRoles", declaredRoles, "constraints", len(constraints))
	for _, c := range constraints {
		logger.Infow("constraint", "method", c.Method, "pattern", c.URLPattern, "roles", c.Roles)
	}
	return nil
}

// Multi fans a call out to several Configurers in order, stopping at the
// first error.
type Multi []Configurer

// ConfigureSecurity implements Configurer.
func (m Multi) ConfigureSecurity(ctx context.Context, jsonConfig string, declaredRoles []string, constraints []model.SecurityConstraint) error {
	for _, c := range m {
		if err := c.ConfigureSecurity(ctx, jsonConfig, declaredRoles, constraints); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ Configurer = (*Recorder)(nil)
	_ Configurer = (*FileWriter)(nil)
	_ Configurer = (*Log)(nil)
	_ Configurer = Multi(nil)
)
