// Package keycloak builds the adapter configuration document passed to the
// enforcement sink.
package keycloak

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"

	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/model"
)

// Keys overridden from the application marker.
const (
	AuthServerURLKey = "auth-server-url"
	SSLRequiredKey   = "ssl-required"
)

const emptyObject = "{}"

var logger = logging.GetLogger("routeauthz.keycloak")

// BuildConfig returns the adapter document as compact JSON.
//
// The base document is the marker's embedded JSON, or fallback when the
// marker has none, or "{}". The base is parsed leniently (comments and
// trailing commas are accepted); if it still cannot be parsed, or is not an
// object, it is replaced with "{}". Non-empty AuthServerURL and SSLRequired
// values from the marker are then set on top. BuildConfig never fails.
func BuildConfig(marker *model.KeycloakMarker, fallback string) string {
	raw := fallback
	if marker != nil && marker.JSON != "" {
		raw = marker.JSON
	}

	doc := ParseObject(raw)
	if marker != nil {
		setString(&doc, AuthServerURLKey, marker.AuthServerURL)
		setString(&doc, SSLRequiredKey, marker.SSLRequired)
	}

	doc.Minimize()
	return string(doc.Pack())
}

// ParseObject parses raw as a JSON object. Anything else, including an
// object that repeats a key at any depth, yields an empty object.
func ParseObject(raw string) hujson.Value {
	if raw == "" {
		return emptyValue()
	}

	v, err := hujson.Parse([]byte(raw))
	if err != nil {
		logger.Debugf("discarding unparsable keycloak configuration: %v", err)
		return emptyValue()
	}

	std := v.Clone()
	std.Standardize()
	if !gjson.ParseBytes(std.Pack()).IsObject() {
		logger.Debugf("discarding keycloak configuration that is not an object")
		return emptyValue()
	}
	if key, ok := duplicateKey(&v); ok {
		logger.Debugf("discarding keycloak configuration with duplicate key %q", key)
		return emptyValue()
	}
	return v
}

// duplicateKey reports the first member name repeated within any object of v.
func duplicateKey(v *hujson.Value) (string, bool) {
	for node := range v.All() {
		obj, ok := node.Value.(*hujson.Object)
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(obj.Members))
		for _, m := range obj.Members {
			lit, _ := m.Name.Value.(hujson.Literal)
			name := lit.String()
			if _, dup := seen[name]; dup {
				return name, true
			}
			seen[name] = struct{}{}
		}
	}
	return "", false
}

// AuthServerURL reads the auth-server-url key from a built document.
func AuthServerURL(doc string) string {
	return gjson.Get(doc, AuthServerURLKey).String()
}

// SSLRequired reads the ssl-required key from a built document.
func SSLRequired(doc string) string {
	return gjson.Get(doc, SSLRequiredKey).String()
}

func setString(doc *hujson.Value, key, value string) {
	if value == "" {
		return
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logger.Warnf("encoding %s: %v", key, err)
		return
	}

	std := doc.Clone()
	std.Standardize()
	op := "add"
	if gjson.GetBytes(std.Pack(), key).Exists() {
		op = "replace"
	}

	patch := fmt.Sprintf(`[{"op": %q, "path": "/%s", "value": %s}]`, op, key, encoded)
	if err := doc.Patch([]byte(patch)); err != nil {
		logger.Warnf("setting %s: %v", key, err)
	}
}

func emptyValue() hujson.Value {
	v, _ := hujson.Parse([]byte(emptyObject))
	return v
}
