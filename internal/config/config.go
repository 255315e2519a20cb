// Package config loads routeauthz settings using [Viper].
//
// Settings come from, in increasing priority: built-in defaults, a YAML file
// (routeauthz-config.yaml in the working directory unless overridden with
// ROUTEAUTHZ_CONFIG_PATH and ROUTEAUTHZ_CONFIG_FILENAME), and environment
// variables with the ROUTEAUTHZ_ prefix. Dots and dashes in keys become
// underscores in variable names, so "index.path" is ROUTEAUTHZ_INDEX_PATH.
//
// The fallback Keycloak document is read from ROUTEAUTHZ_SECURITY_KEYCLOAK_JSON
// whatever the namespace. A non-default namespace such as "shop" is also
// looked up as ROUTEAUTHZ_SHOP_SECURITY_KEYCLOAK_JSON, which wins when set.
//
// Example configuration file:
//
//	log:
//	  level: ".:info"
//	namespace: routeauthz
//	index:
//	  path: build/resources.idx
//	routeauthz:
//	  security:
//	    keycloak:
//	      json: '{"realm": "orders", "resource": "orders-api"}'
//
// [Viper]: https://github.com/spf13/viper
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/chr1sbest/routeauthz/internal/logging"
)

// Environment variables and defaults for locating the configuration file.
const (
	// EnvVarPrefix is the prefix of every routeauthz environment variable.
	EnvVarPrefix          = "ROUTEAUTHZ"
	ConfigPathEnv         = "ROUTEAUTHZ_CONFIG_PATH"
	ConfigFileNameEnv     = "ROUTEAUTHZ_CONFIG_FILENAME"
	ConfigDefaultPath     = "."
	ConfigDefaultFilename = "routeauthz-config"

	// KeycloakJSONEnv holds the fallback Keycloak document for any namespace.
	KeycloakJSONEnv = "ROUTEAUTHZ_SECURITY_KEYCLOAK_JSON"
)

// Configuration keys.
const (
	LogLevel = "log.level"

	// Namespace prefixes the Keycloak JSON property key.
	Namespace = "namespace"

	// IndexPath is the newline-delimited resource index read by discovery.
	IndexPath = "index.path"

	// keycloakJSONSuffix is appended to the namespace to form the key of the
	// fallback Keycloak adapter document.
	keycloakJSONSuffix = ".security.keycloak.json"
)

// Defaults.
const (
	DefaultNamespace = "routeauthz"
	DefaultIndexPath = "META-INF/resources.idx"
	DefaultLogLevel  = ".:info"
)

var logger = logging.GetLogger("routeauthz.config")

// Config is the explicit configuration handed to the initializer.
type Config struct {
	Namespace    string
	IndexPath    string
	LogLevel     string
	KeycloakJSON string
}

// KeycloakJSONKey returns the property key holding the fallback Keycloak
// adapter document for namespace.
func KeycloakJSONKey(namespace string) string {
	return namespace + keycloakJSONSuffix
}

// New returns a Viper instance with file lookup, environment handling and
// defaults set up. Nothing is read yet.
func New() *viper.Viper {
	v := viper.New()

	v.AddConfigPath(lookupEnv(ConfigPathEnv, ConfigDefaultPath))
	v.SetConfigName(lookupEnv(ConfigFileNameEnv, ConfigDefaultFilename))
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvVarPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	v.SetDefault(LogLevel, DefaultLogLevel)
	v.SetDefault(Namespace, DefaultNamespace)
	v.SetDefault(IndexPath, DefaultIndexPath)
	return v
}

// Load reads the configuration file, if any, and resolves a Config. A missing
// file is not an error; a malformed one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
		logger.Debugf("no config file found, using defaults and environment")
	}

	cfg := FromViper(v)
	logging.UpdateLogLevels(cfg.LogLevel)
	return cfg, nil
}

// FromViper resolves a Config from an already populated Viper instance.
func FromViper(v *viper.Viper) *Config {
	ns := v.GetString(Namespace)
	if ns == "" {
		ns = DefaultNamespace
	}

	key := KeycloakJSONKey(ns)
	// AutomaticEnv only applies to keys Viper already knows about, and would
	// double the prefix for the default namespace.
	_ = v.BindEnv(append([]string{key}, keycloakJSONEnvNames(ns)...)...)

	return &Config{
		Namespace:    ns,
		IndexPath:    v.GetString(IndexPath),
		LogLevel:     v.GetString(LogLevel),
		KeycloakJSON: v.GetString(key),
	}
}

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

// keycloakJSONEnvNames lists the variables consulted for the Keycloak
// document of namespace, highest priority first.
func keycloakJSONEnvNames(namespace string) []string {
	if namespace == DefaultNamespace {
		return []string{KeycloakJSONEnv}
	}
	scoped := EnvVarPrefix + "_" + strings.ToUpper(envReplacer.Replace(KeycloakJSONKey(namespace)))
	return []string{scoped, KeycloakJSONEnv}
}

func lookupEnv(name, def string) string {
	if val, ok := os.LookupEnv(name); ok {
		return val
	}
	return def
}
