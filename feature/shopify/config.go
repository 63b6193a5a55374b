package shopify

import (
	"errors"
	"strings"
)

// Config holds the storefront connection settings.
type Config struct {
	// StoreURL is the shop domain, with or without scheme.
	StoreURL string `mapstructure:"store_url" default:""`
	// AccessToken is the Admin API access token.
	AccessToken string `mapstructure:"access_token" default:""`
	// APIVersion selects the Admin API version.
	APIVersion string `mapstructure:"api_version" default:"2024-10"`
	// PageSize is the number of products fetched per catalog page.
	PageSize int `mapstructure:"page_size" default:"50"`
}

// Validate reports missing connection settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StoreURL) == "" {
		errs = append(errs, errors.New("shopify store_url is required"))
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		errs = append(errs, errors.New("shopify access_token is required"))
	}
	return errors.Join(errs...)
}

// Endpoint returns the GraphQL endpoint for the configured store and version.
func (c Config) Endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.StoreURL), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	version := c.APIVersion
	if version == "" {
		version = "2024-10"
	}
	return base + "/admin/api/" + version + "/graphql.json"
}
