package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Attribute keys carried in CatalogEntity.Attributes.
const (
	AttrDescription = "description"
	AttrCategory    = "category"
	AttrVendor      = "vendor"
)

// Option names used when building destination product options.
const (
	OptionColor = "Color"
	OptionSize  = "Size"
)

// OptionValue is one {name, value} pair of a variant.
type OptionValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VariantEntity is one sellable unit of a product.
type VariantEntity struct {
	// SKU is unique across the whole catalog.
	SKU string `json:"sku"`
	// Price has no currency; the store currency applies.
	Price   decimal.Decimal `json:"price"`
	Barcode string          `json:"barcode,omitempty"`
	// Options is ordered as the destination should show it.
	Options []OptionValue `json:"options,omitempty"`
	// StockByLocation maps a source warehouse to its on-hand quantity.
	StockByLocation map[string]int `json:"stock_by_location,omitempty"`
}

// Stock returns the quantity summed over all locations.
func (v VariantEntity) Stock() int {
	total := 0
	for _, q := range v.StockByLocation {
		total += q
	}
	return total
}

// Option returns the value of the named option, or "".
func (v VariantEntity) Option(name string) string {
	for _, o := range v.Options {
		if strings.EqualFold(o.Name, name) {
			return o.Value
		}
	}
	return ""
}

// MediaRef points at one image. Source media only carry a URL; destination
// media also carry their remote ID and alt text.
type MediaRef struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
	// Source is the source URL a destination image was uploaded from, when
	// the destination recorded it.
	Source string `json:"source,omitempty"`
}

// CatalogEntity is the canonical product read from the source.
type CatalogEntity struct {
	// ID is the source system's own identifier.
	ID string `json:"id"`
	// NaturalKey is the product level SKU.
	NaturalKey  string            `json:"natural_key"`
	DisplayName string            `json:"display_name"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Variants    []VariantEntity   `json:"variants"`
	Media       []MediaRef        `json:"media,omitempty"`
}

// Attr returns a trimmed attribute value.
func (e CatalogEntity) Attr(key string) string {
	return strings.TrimSpace(e.Attributes[key])
}

// PrimarySKU is the SKU used first when matching: the natural key, or the
// first variant SKU when the product has none.
func (e CatalogEntity) PrimarySKU() string {
	if sku := strings.TrimSpace(e.NaturalKey); sku != "" {
		return sku
	}
	for _, v := range e.Variants {
		if sku := strings.TrimSpace(v.SKU); sku != "" {
			return sku
		}
	}
	return ""
}

// MediaURLs returns the source image URLs in order.
func (e CatalogEntity) MediaURLs() []string {
	urls := make([]string, 0, len(e.Media))
	for _, m := range e.Media {
		urls = append(urls, m.URL)
	}
	return urls
}

// DestinationRef identifies a destination product.
type DestinationRef struct {
	// ID is the numeric remote id.
	ID string `json:"id"`
	// GID is the global id used by the GraphQL API.
	GID string `json:"gid"`
}

// DestinationProduct is the slice of a destination product the cache needs.
type DestinationProduct struct {
	Ref   DestinationRef
	Title string
	SKUs  []string
}

// DestinationVariant is a variant as it exists on the destination.
type DestinationVariant struct {
	ID              string `json:"id"`
	SKU             string `json:"sku"`
	InventoryItemID string `json:"inventory_item_id"`
}

// Snapshot is the current destination state of one product.
type Snapshot struct {
	Ref             DestinationRef
	Title           string
	DescriptionHTML string
	ProductType     string
	Variants        []DestinationVariant
	Media           []MediaRef
}

// InventoryAdjustment sets the absolute on-hand quantity of one inventory item.
type InventoryAdjustment struct {
	ItemID   string `json:"item_id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// ChangeSet is the minimal set of writes that brings one destination product
// in line with its source. It lives for a single task.
type ChangeSet struct {
	DetailsChanged       bool
	NewVariants          []VariantEntity
	InventoryAdjustments []InventoryAdjustment
	MediaToAdd           []string
	MediaToRemove        []string
	ReorderMedia         bool
}

// Empty reports whether the change set holds no writes. Inventory
// adjustments are idempotent sets and do not count as pending changes.
func (c ChangeSet) Empty() bool {
	return !c.DetailsChanged && len(c.NewVariants) == 0 &&
		len(c.MediaToAdd) == 0 && len(c.MediaToRemove) == 0 && !c.ReorderMedia
}
