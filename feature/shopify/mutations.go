package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"catalog-sync/core/catalog"

	"go.uber.org/zap"
)

const (
	inventoryReason = "correction"
	// The metafield holding the media id to source URL map of a product.
	mediaSourcesNamespace = "catalog_sync"
	mediaSourcesKey       = "media_sources"
	// defaultOption is the single option every product carries when its
	// variants have none.
	defaultOption      = "Title"
	defaultOptionValue = "Default Title"
)

type inventoryItemInput struct {
	SKU     string `json:"sku"`
	Tracked bool   `json:"tracked"`
}

type variantOptionValue struct {
	OptionName string `json:"optionName"`
	Name       string `json:"name"`
}

type variantInput struct {
	Price           string               `json:"price"`
	Barcode         string               `json:"barcode,omitempty"`
	InventoryItem   inventoryItemInput   `json:"inventoryItem"`
	InventoryPolicy string               `json:"inventoryPolicy"`
	OptionValues    []variantOptionValue `json:"optionValues,omitempty"`
}

type inventoryLevelInput struct {
	AvailableQuantity int    `json:"availableQuantity"`
	LocationID        string `json:"locationId"`
}

// bulkVariantInput is a variant for productVariantsBulkCreate.
type bulkVariantInput struct {
	variantInput
	InventoryQuantities []inventoryLevelInput `json:"inventoryQuantities"`
}

type optionValueName struct {
	Name string `json:"name"`
}

type productOptionInput struct {
	Name   string            `json:"name"`
	Values []optionValueName `json:"values"`
}

type setInventoryInput struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

// setVariantInput is a variant for productSet.
type setVariantInput struct {
	variantInput
	InventoryQuantities []setInventoryInput `json:"inventoryQuantities,omitempty"`
}

type productSetInput struct {
	Title           string               `json:"title"`
	DescriptionHTML string               `json:"descriptionHtml,omitempty"`
	Vendor          string               `json:"vendor,omitempty"`
	ProductType     string               `json:"productType,omitempty"`
	Status          string               `json:"status"`
	ProductOptions  []productOptionInput `json:"productOptions"`
	Variants        []setVariantInput    `json:"variants"`
}

// buildProductSet maps a source entity onto a productSet input. Option names
// keep the order in which they first appear on the variants. Variants are
// stocked at locationID when it is set.
func buildProductSet(e catalog.CatalogEntity, locationID string) productSetInput {
	in := productSetInput{
		Title:           strings.TrimSpace(e.DisplayName),
		DescriptionHTML: e.Attr(catalog.AttrDescription),
		Vendor:          e.Attr(catalog.AttrVendor),
		ProductType:     e.Attr(catalog.AttrCategory),
		Status:          "ACTIVE",
	}

	var names []string
	values := map[string][]string{}
	for _, v := range e.Variants {
		for _, o := range v.Options {
			if strings.TrimSpace(o.Value) == "" {
				continue
			}
			if _, ok := values[o.Name]; !ok {
				names = append(names, o.Name)
				values[o.Name] = nil
			}
			if !contains(values[o.Name], o.Value) {
				values[o.Name] = append(values[o.Name], o.Value)
			}
		}
	}

	synthetic := len(names) == 0
	if synthetic {
		names = []string{defaultOption}
		for _, v := range e.Variants {
			values[defaultOption] = append(values[defaultOption], defaultValue(e, v))
		}
	}

	for _, name := range names {
		opt := productOptionInput{Name: name}
		for _, val := range values[name] {
			opt.Values = append(opt.Values, optionValueName{Name: val})
		}
		in.ProductOptions = append(in.ProductOptions, opt)
	}

	for _, v := range e.Variants {
		vi := newVariantInput(v)
		vi.OptionValues = nil
		for _, name := range names {
			val := v.Option(name)
			switch {
			case synthetic:
				val = defaultValue(e, v)
			case val == "":
				val = defaultOptionValue
			}
			vi.OptionValues = append(vi.OptionValues, variantOptionValue{OptionName: name, Name: val})
		}
		sv := setVariantInput{variantInput: vi}
		if locationID != "" {
			sv.InventoryQuantities = []setInventoryInput{{LocationID: locationID, Name: "available", Quantity: v.Stock()}}
		}
		in.Variants = append(in.Variants, sv)
	}
	return in
}

func defaultValue(e catalog.CatalogEntity, v catalog.VariantEntity) string {
	if len(e.Variants) == 1 {
		return defaultOptionValue
	}
	return v.SKU
}

func newVariantInput(v catalog.VariantEntity) variantInput {
	vi := variantInput{
		Price:           v.Price.StringFixed(2),
		Barcode:         strings.TrimSpace(v.Barcode),
		InventoryItem:   inventoryItemInput{SKU: strings.TrimSpace(v.SKU), Tracked: true},
		InventoryPolicy: "DENY",
	}
	for _, o := range v.Options {
		if strings.TrimSpace(o.Value) != "" {
			vi.OptionValues = append(vi.OptionValues, variantOptionValue{OptionName: o.Name, Name: o.Value})
		}
	}
	return vi
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CreateProduct creates the product with options and variants in one
// synchronous productSet call, stocked at the default location.
func (c *Client) CreateProduct(ctx context.Context, e catalog.CatalogEntity) (catalog.DestinationRef, error) {
	locationID, err := c.DefaultLocation(ctx)
	if err != nil {
		return catalog.DestinationRef{}, err
	}
	in := buildProductSet(e, locationID)

	var data struct {
		ProductSet struct {
			Product *struct {
				ID               string `json:"id"`
				LegacyResourceID string `json:"legacyResourceId"`
			} `json:"product"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"productSet"`
	}
	if err := c.execute(ctx, productSetMutation, map[string]any{"input": in}, &data); err != nil {
		return catalog.DestinationRef{}, err
	}
	if err := checkUserErrors("productSet", data.ProductSet.UserErrors); err != nil {
		return catalog.DestinationRef{}, err
	}
	if data.ProductSet.Product == nil || data.ProductSet.Product.ID == "" {
		return catalog.DestinationRef{}, errors.New("productSet returned no product id")
	}
	return catalog.DestinationRef{ID: data.ProductSet.Product.LegacyResourceID, GID: data.ProductSet.Product.ID}, nil
}

// UpdateDetails writes title, description and product type.
func (c *Client) UpdateDetails(ctx context.Context, ref catalog.DestinationRef, e catalog.CatalogEntity) error {
	input := map[string]any{
		"id":              ref.GID,
		"title":           strings.TrimSpace(e.DisplayName),
		"descriptionHtml": e.Attr(catalog.AttrDescription),
		"productType":     e.Attr(catalog.AttrCategory),
	}

	var data struct {
		ProductUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productUpdate"`
	}
	if err := c.execute(ctx, productUpdateMutation, map[string]any{"input": input}, &data); err != nil {
		return err
	}
	return checkUserErrors("productUpdate", data.ProductUpdate.UserErrors)
}

// CreateVariants adds one batch of variants. Each variant is stocked at the
// default location on creation so quantities can be set on it afterwards.
func (c *Client) CreateVariants(ctx context.Context, ref catalog.DestinationRef, variants []catalog.VariantEntity) error {
	locationID, err := c.DefaultLocation(ctx)
	if err != nil {
		return err
	}

	inputs := make([]bulkVariantInput, 0, len(variants))
	for _, v := range variants {
		inputs = append(inputs, bulkVariantInput{
			variantInput: newVariantInput(v),
			InventoryQuantities: []inventoryLevelInput{
				{AvailableQuantity: v.Stock(), LocationID: locationID},
			},
		})
	}

	var data struct {
		ProductVariantsBulkCreate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantsBulkCreate"`
	}
	vars := map[string]any{"productId": ref.GID, "variants": inputs}
	if err := c.execute(ctx, variantsBulkCreateMutation, vars, &data); err != nil {
		return err
	}
	return checkUserErrors("productVariantsBulkCreate", data.ProductVariantsBulkCreate.UserErrors)
}

// SetInventory sets absolute on-hand quantities at the default location.
func (c *Client) SetInventory(ctx context.Context, adjustments []catalog.InventoryAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	locationID, err := c.DefaultLocation(ctx)
	if err != nil {
		return err
	}

	quantities := make([]map[string]any, 0, len(adjustments))
	for _, a := range adjustments {
		quantities = append(quantities, map[string]any{
			"inventoryItemId": a.ItemID,
			"locationId":      locationID,
			"quantity":        a.Quantity,
		})
	}

	var data struct {
		InventorySetOnHandQuantities struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"inventorySetOnHandQuantities"`
	}
	input := map[string]any{"reason": inventoryReason, "setQuantities": quantities}
	if err := c.execute(ctx, inventorySetMutation, map[string]any{"input": input}, &data); err != nil {
		return err
	}
	return checkUserErrors("inventorySetOnHandQuantities", data.InventorySetOnHandQuantities.UserErrors)
}

// AddMedia creates image media from source URLs.
func (c *Client) AddMedia(ctx context.Context, ref catalog.DestinationRef, media []catalog.MediaRef) error {
	inputs := make([]map[string]any, 0, len(media))
	for _, m := range media {
		inputs = append(inputs, map[string]any{
			"originalSource":   m.URL,
			"alt":              m.Alt,
			"mediaContentType": "IMAGE",
		})
	}

	var data struct {
		ProductCreateMedia struct {
			Media []struct {
				ID string `json:"id"`
			} `json:"media"`
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"productCreateMedia"`
	}
	if err := c.execute(ctx, createMediaMutation, map[string]any{"productId": ref.GID, "media": inputs}, &data); err != nil {
		return err
	}
	if err := checkUserErrors("productCreateMedia", data.ProductCreateMedia.MediaUserErrors); err != nil {
		return err
	}

	created := make([]string, 0, len(data.ProductCreateMedia.Media))
	for _, m := range data.ProductCreateMedia.Media {
		created = append(created, m.ID)
	}
	return c.recordMediaSources(ctx, ref, media, created)
}

// recordMediaSources stores the source URL of each new image in a product
// metafield. Image URLs are rehosted on upload and the alt text may carry the
// title, so this is what later runs match on. Entries of deleted media are
// dropped on every write.
func (c *Client) recordMediaSources(ctx context.Context, ref catalog.DestinationRef, media []catalog.MediaRef, created []string) error {
	if len(created) != len(media) {
		c.logger.Warn("Created media do not line up with the request, sources not recorded",
			zap.String("product", ref.GID),
			zap.Int("requested", len(media)),
			zap.Int("created", len(created)))
		return nil
	}

	current, recorded, err := c.media(ctx, ref)
	if err != nil {
		return err
	}
	sources := make(map[string]string, len(current)+len(created))
	for _, m := range current {
		if src, ok := recorded[m.ID]; ok {
			sources[m.ID] = src
		}
	}
	for i, id := range created {
		if id != "" {
			sources[id] = media[i].URL
		}
	}

	value, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to encode media sources: %w", err)
	}

	var data struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	metafields := []map[string]string{{
		"ownerId":   ref.GID,
		"namespace": mediaSourcesNamespace,
		"key":       mediaSourcesKey,
		"type":      "json",
		"value":     string(value),
	}}
	if err := c.execute(ctx, metafieldsSetMutation, map[string]any{"metafields": metafields}, &data); err != nil {
		return fmt.Errorf("failed to record media sources: %w", err)
	}
	return checkUserErrors("metafieldsSet", data.MetafieldsSet.UserErrors)
}

// RemoveMedia deletes media by id.
func (c *Client) RemoveMedia(ctx context.Context, ref catalog.DestinationRef, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var data struct {
		ProductDeleteMedia struct {
			DeletedMediaIDs []string    `json:"deletedMediaIds"`
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"productDeleteMedia"`
	}
	if err := c.execute(ctx, deleteMediaMutation, map[string]any{"productId": ref.GID, "mediaIds": ids}, &data); err != nil {
		return err
	}
	return checkUserErrors("productDeleteMedia", data.ProductDeleteMedia.MediaUserErrors)
}

// ReorderMedia moves media into the order of ids. Fewer than two ids is a no-op.
func (c *Client) ReorderMedia(ctx context.Context, ref catalog.DestinationRef, ids []string) error {
	if len(ids) < 2 {
		return nil
	}

	moves := make([]map[string]string, 0, len(ids))
	for i, id := range ids {
		moves = append(moves, map[string]string{"id": id, "newPosition": strconv.Itoa(i)})
	}

	var data struct {
		ProductReorderMedia struct {
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"productReorderMedia"`
	}
	if err := c.execute(ctx, reorderMediaMutation, map[string]any{"id": ref.GID, "moves": moves}, &data); err != nil {
		return err
	}
	return checkUserErrors("productReorderMedia", data.ProductReorderMedia.MediaUserErrors)
}
