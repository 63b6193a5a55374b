package sentos

import (
	"errors"
	"strings"
)

// Config holds the Sentos connection settings.
type Config struct {
	// APIURL is the REST base URL, e.g. https://stil.sentos.com.tr/api.
	APIURL string `mapstructure:"api_url" default:""`
	// APIKey and APISecret are the Basic auth credentials.
	APIKey    string `mapstructure:"api_key" default:""`
	APISecret string `mapstructure:"api_secret" default:""`
	// Cookie is a panel session cookie used for the ordered image list.
	Cookie string `mapstructure:"cookie" default:""`
	// PageSize is the number of products requested per page.
	PageSize int `mapstructure:"page_size" default:"100"`
	// ImagePath is the panel endpoint listing product images.
	ImagePath string `mapstructure:"image_path" default:"/urun_sayfalari/include/ajax/fetch_urunresimler.php"`
	// Vendor is used for products that carry no brand.
	Vendor string `mapstructure:"vendor" default:""`
}

// Validate reports missing connection settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("sentos api_url is required"))
	}
	if c.APIKey == "" || c.APISecret == "" {
		errs = append(errs, errors.New("sentos api_key and api_secret are required"))
	}
	return errors.Join(errs...)
}
