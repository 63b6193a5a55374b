package config

import (
	"reflect"
	"strings"

	"catalog-sync/core/database"
	"catalog-sync/core/logger"
	"catalog-sync/core/ratelimit"
	"catalog-sync/core/server"
	"catalog-sync/core/storage"
	"catalog-sync/core/transport"
	"catalog-sync/feature/sentos"
	"catalog-sync/feature/shopify"
	"catalog-sync/feature/syncjob"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the report archive bucket.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run history database.
	Database database.Config `mapstructure:"database"`
	// Sentos holds the source API credentials.
	Sentos sentos.Config `mapstructure:"sentos"`
	// Shopify holds the destination store credentials.
	Shopify shopify.Config `mapstructure:"shopify"`
	// Sync holds the default run options.
	Sync syncjob.Config `mapstructure:"sync"`
	// RateLimit tunes the destination rate limiter.
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
	// Transport tunes retries of outbound calls.
	Transport transport.Config `mapstructure:"transport"`
}

// Clients returns the settings needed to build the sync clients.
func (c *Config) Clients() syncjob.Clients {
	return syncjob.Clients{
		Sentos:    c.Sentos,
		Shopify:   c.Shopify,
		RateLimit: c.RateLimit,
		Transport: c.Transport,
	}
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is fine, production sets real environment variables.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
