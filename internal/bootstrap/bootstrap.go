// Package bootstrap runs the constraint extraction pass at application
// start.
//
// Hosts register their application descriptors explicitly and call Init
// once from their own startup hook. For every application Init collects the
// declared roles, discovers its resources, extracts the constraints, builds
// the Keycloak adapter document and hands everything to the sink.
package bootstrap

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chr1sbest/routeauthz/internal/config"
	"github.com/chr1sbest/routeauthz/internal/discovery"
	"github.com/chr1sbest/routeauthz/internal/extractor"
	"github.com/chr1sbest/routeauthz/internal/keycloak"
	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/model"
	"github.com/chr1sbest/routeauthz/internal/sink"
)

// ResourceSource supplies the resources of an application. The default
// source reads the index file named by the configuration.
type ResourceSource func(app *model.Application) []model.Described

// Initializer wires configuration, registry and sink together.
type Initializer struct {
	cfg       *config.Config
	registry  *discovery.Registry
	sink      sink.Configurer
	extractor *extractor.Extractor
	logger    *logging.Logger
	source    ResourceSource

	mu   sync.Mutex
	apps []model.ApplicationDescribed
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithResourceSource replaces index-file discovery.
func WithResourceSource(src ResourceSource) Option {
	return func(i *Initializer) {
		i.source = src
	}
}

// WithLogger overrides the module logger. The extractor logs through it too.
func WithLogger(l *logging.Logger) Option {
	return func(i *Initializer) {
		i.logger = l
		i.extractor = extractor.New(extractor.WithLogger(l))
	}
}

// New creates an Initializer. A nil cfg uses built-in defaults.
func New(cfg *config.Config, reg *discovery.Registry, s sink.Configurer, opts ...Option) *Initializer {
	if cfg == nil {
		cfg = &config.Config{
			Namespace: config.DefaultNamespace,
			IndexPath: config.DefaultIndexPath,
		}
	}
	if reg == nil {
		reg = discovery.NewRegistry()
	}

	i := &Initializer{
		cfg:      cfg,
		registry: reg,
		sink:     s,
		logger:   logging.GetLogger("routeauthz.bootstrap"),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.source == nil {
		d := discovery.New(reg)
		i.source = func(app *model.Application) []model.Described {
			return d.DiscoverFile(app, cfg.IndexPath)
		}
	}
	if i.extractor == nil {
		i.extractor = extractor.New()
	}
	return i
}

// Register adds an application to the next Init.
func (i *Initializer) Register(app model.ApplicationDescribed) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.apps = append(i.apps, app)
}

// Compute runs the extraction pass for a single application without calling
// the sink.
func (i *Initializer) Compute(app model.ApplicationDescribed) (*model.Config, error) {
	a := model.UnwrapApplication(app)
	if a == nil {
		return nil, errors.New("application descriptor is nil")
	}

	resources := i.source(a)
	return &model.Config{
		Application:   a.Name,
		DeclaredRoles: extractor.DeclaredRoles(a),
		Constraints:   i.extractor.Extract(a, resources),
		KeycloakJSON:  keycloak.BuildConfig(a.Keycloak, i.cfg.KeycloakJSON),
	}, nil
}

// Init runs the pass for every registered application in registration
// order. The first sink error stops Init and is returned.
func (i *Initializer) Init(ctx context.Context) error {
	if i.sink == nil {
		return errors.New("no security sink configured")
	}

	i.mu.Lock()
	apps := append([]model.ApplicationDescribed(nil), i.apps...)
	i.mu.Unlock()

	pass := uuid.New().String()
	log := i.logger.With("pass", pass)
	log.Infow("computing security constraints", "applications", len(apps))

	for _, app := range apps {
		cfg, err := i.Compute(app)
		if err != nil {
			return err
		}

		log.Infow("configuring security",
			"application", cfg.Application,
			"declaredRoles", len(cfg.DeclaredRoles),
			"constraints", len(cfg.Constraints))

		if err := i.sink.ConfigureSecurity(ctx, cfg.KeycloakJSON, cfg.DeclaredRoles, cfg.Constraints); err != nil {
			return errors.Wrapf(err, "configure security for %s", cfg.Application)
		}
	}
	return nil
}
