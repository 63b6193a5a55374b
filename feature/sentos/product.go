package sentos

import (
	"strconv"
	"strings"

	"catalog-sync/core/catalog"
	"catalog-sync/core/utils"
)

// rawProduct is a product as returned by the REST API. Fields whose type
// varies between accounts are decoded as any.
type rawProduct struct {
	ID                any          `json:"id"`
	SKU               any          `json:"sku"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	DescriptionDetail string       `json:"description_detail"`
	Category          any          `json:"category"`
	Brand             any          `json:"brand"`
	Vendor            string       `json:"vendor"`
	Price             any          `json:"price"`
	Barcode           any          `json:"barcode"`
	Stocks            []rawStock   `json:"stocks"`
	Variants          []rawVariant `json:"variants"`
}

type rawVariant struct {
	SKU     any        `json:"sku"`
	Barcode any        `json:"barcode"`
	Price   any        `json:"price"`
	Color   any        `json:"color"`
	Model   any        `json:"model"`
	Stocks  []rawStock `json:"stocks"`
}

type rawStock struct {
	Warehouse any `json:"warehouse_id"`
	Stock     any `json:"stock"`
}

// toEntity parses a raw product. Variants without a SKU are dropped; a
// product without variants becomes a single variant carrying the product SKU.
func (p rawProduct) toEntity(defaultVendor string) catalog.CatalogEntity {
	e := catalog.CatalogEntity{
		ID:          utils.ToString(p.ID),
		NaturalKey:  strings.TrimSpace(utils.ToString(p.SKU)),
		DisplayName: strings.TrimSpace(p.Name),
		Attributes:  map[string]string{},
	}

	description := p.DescriptionDetail
	if strings.TrimSpace(description) == "" {
		description = p.Description
	}
	setAttr(e.Attributes, catalog.AttrDescription, description)
	setAttr(e.Attributes, catalog.AttrCategory, nameOf(p.Category))

	vendor := nameOf(p.Brand)
	if vendor == "" {
		vendor = p.Vendor
	}
	if strings.TrimSpace(vendor) == "" {
		vendor = defaultVendor
	}
	setAttr(e.Attributes, catalog.AttrVendor, vendor)

	for _, rv := range p.Variants {
		sku := strings.TrimSpace(utils.ToString(rv.SKU))
		if sku == "" {
			continue
		}

		v := catalog.VariantEntity{
			SKU:             sku,
			Price:           utils.ToDecimal(rv.Price),
			Barcode:         strings.TrimSpace(utils.ToString(rv.Barcode)),
			StockByLocation: stockByLocation(rv.Stocks),
		}
		if v.Price.IsZero() {
			v.Price = utils.ToDecimal(p.Price)
		}
		if color := strings.TrimSpace(utils.ToString(rv.Color)); color != "" {
			v.Options = append(v.Options, catalog.OptionValue{Name: catalog.OptionColor, Value: color})
		}
		if size := nameOf(rv.Model); size != "" {
			v.Options = append(v.Options, catalog.OptionValue{Name: catalog.OptionSize, Value: size})
		}
		e.Variants = append(e.Variants, v)
	}

	if len(p.Variants) == 0 && e.NaturalKey != "" {
		e.Variants = []catalog.VariantEntity{{
			SKU:             e.NaturalKey,
			Price:           utils.ToDecimal(p.Price),
			Barcode:         strings.TrimSpace(utils.ToString(p.Barcode)),
			StockByLocation: stockByLocation(p.Stocks),
		}}
	}

	return e
}

// nameOf reads a value that is either a plain scalar or an object with a
// "value" or "name" key.
func nameOf(v any) string {
	if m, ok := v.(map[string]any); ok {
		for _, key := range []string{"value", "name"} {
			if s := strings.TrimSpace(utils.ToString(m[key])); s != "" {
				return s
			}
		}
		return ""
	}
	return strings.TrimSpace(utils.ToString(v))
}

// stockByLocation keys quantities by warehouse. Negative stock counts as zero.
func stockByLocation(stocks []rawStock) map[string]int {
	out := make(map[string]int, len(stocks))
	for i, s := range stocks {
		key := utils.ToString(s.Warehouse)
		if key == "" {
			key = strconv.Itoa(i)
		}
		out[key] += max(utils.ToInt(s.Stock), 0)
	}
	return out
}

func setAttr(attrs map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		attrs[key] = value
	}
}
