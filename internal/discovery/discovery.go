// Package discovery resolves the resources that belong to an application.
//
// The input is a newline-delimited index of fully-qualified resource names,
// typically generated at build time. Names outside the application's package
// are ignored. Failures are never fatal: an unreadable index yields no
// resources, and a name with no registered descriptor is logged and skipped.
package discovery

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/model"
)

var logger = logging.GetLogger("routeauthz.discovery")

// ReadIndex returns the names listed in r in order. Surrounding whitespace is
// trimmed; blank lines and lines starting with "#" are ignored. Names read
// before an I/O error are returned along with the error.
func ReadIndex(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return names, errors.Wrap(err, "read resource index")
	}
	return names, nil
}

// WriteIndex writes names one per line.
func WriteIndex(w io.Writer, names []string) error {
	bw := bufio.NewWriter(w)
	for _, n := range names {
		if _, err := bw.WriteString(n + "\n"); err != nil {
			return errors.Wrap(err, "write resource index")
		}
	}
	return errors.Wrap(bw.Flush(), "write resource index")
}

// Discoverer resolves index entries against a Registry.
type Discoverer struct {
	Registry *Registry
}

// New returns a Discoverer backed by reg.
func New(reg *Registry) *Discoverer {
	return &Discoverer{Registry: reg}
}

// DiscoverFile reads the index at path and resolves it for app. A missing
// or unreadable index is logged and yields no resources.
func (d *Discoverer) DiscoverFile(app *model.Application, path string) []model.Described {
	f, err := os.Open(path) // #nosec G304 -- index path comes from configuration
	if err != nil {
		logger.Warnw("resource index unavailable", "path", path, "error", err)
		return []model.Described{}
	}
	defer func() { _ = f.Close() }()

	return d.Discover(app, f)
}

// Discover resolves the names read from r for app, in index order.
func (d *Discoverer) Discover(app *model.Application, r io.Reader) []model.Described {
	names, err := ReadIndex(r)
	if err != nil {
		logger.Warnw("resource index truncated", "error", err, "entries", len(names))
	}
	return d.Resolve(app, names)
}

// Resolve looks up every name that belongs to app's package.
func (d *Discoverer) Resolve(app *model.Application, names []string) []model.Described {
	prefix := ""
	if app != nil {
		prefix = app.Package
	}

	resources := make([]model.Described, 0, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		desc, ok := d.Registry.Lookup(name)
		if !ok {
			logger.Warnw("resource not registered, skipping", "resource", name)
			continue
		}
		resources = append(resources, desc)
	}
	return resources
}
