package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"catalog-sync/core/catalog"
	"catalog-sync/core/paginate"
)

type variantNode struct {
	ID            string `json:"id"`
	SKU           string `json:"sku"`
	InventoryItem struct {
		ID string `json:"id"`
	} `json:"inventoryItem"`
}

type mediaNode struct {
	ID    string `json:"id"`
	Alt   string `json:"alt"`
	Image *struct {
		URL string `json:"url"`
	} `json:"image"`
}

func (n variantNode) toVariant() catalog.DestinationVariant {
	return catalog.DestinationVariant{ID: n.ID, SKU: strings.TrimSpace(n.SKU), InventoryItemID: n.InventoryItem.ID}
}

// metafieldValue is a metafield read through an alias; nil when unset.
type metafieldValue struct {
	Value string `json:"value"`
}

func (n mediaNode) toMedia(sources map[string]string) catalog.MediaRef {
	m := catalog.MediaRef{ID: n.ID, Alt: n.Alt, Source: sources[n.ID]}
	if n.Image != nil {
		m.URL = n.Image.URL
	}
	return m
}

// mediaSources decodes the media id to source URL map. A malformed value is
// treated as empty.
func mediaSources(f *metafieldValue) map[string]string {
	sources := map[string]string{}
	if f == nil || f.Value == "" {
		return sources
	}
	if err := json.Unmarshal([]byte(f.Value), &sources); err != nil {
		return map[string]string{}
	}
	return sources
}

// Products walks the store catalog page by page.
func (c *Client) Products(ctx context.Context) iter.Seq2[catalog.DestinationProduct, error] {
	return paginate.Pages(ctx, "", c.fetchProducts)
}

func (c *Client) fetchProducts(ctx context.Context, cursor string) (paginate.Page[catalog.DestinationProduct, string], error) {
	var page paginate.Page[catalog.DestinationProduct, string]

	vars := map[string]any{"first": c.pageSize}
	if cursor != "" {
		vars["after"] = cursor
	}

	var data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []struct {
				ID               string `json:"id"`
				LegacyResourceID string `json:"legacyResourceId"`
				Title            string `json:"title"`
				Variants         struct {
					Nodes []struct {
						SKU string `json:"sku"`
					} `json:"nodes"`
				} `json:"variants"`
			} `json:"nodes"`
		} `json:"products"`
	}
	if err := c.execute(ctx, productsQuery, vars, &data); err != nil {
		return page, fmt.Errorf("failed to list products: %w", err)
	}

	for _, n := range data.Products.Nodes {
		p := catalog.DestinationProduct{
			Ref:   catalog.DestinationRef{ID: n.LegacyResourceID, GID: n.ID},
			Title: n.Title,
		}
		for _, v := range n.Variants.Nodes {
			p.SKUs = append(p.SKUs, v.SKU)
		}
		page.Items = append(page.Items, p)
	}
	page.HasMore = data.Products.PageInfo.HasNextPage && data.Products.PageInfo.EndCursor != ""
	page.Next = data.Products.PageInfo.EndCursor
	return page, nil
}

// Snapshot reads details, variants and media of one product.
func (c *Client) Snapshot(ctx context.Context, ref catalog.DestinationRef) (catalog.Snapshot, error) {
	var data struct {
		Product *struct {
			ID               string `json:"id"`
			LegacyResourceID string `json:"legacyResourceId"`
			Title            string `json:"title"`
			DescriptionHTML  string `json:"descriptionHtml"`
			ProductType      string `json:"productType"`
			Variants         struct {
				Nodes []variantNode `json:"nodes"`
			} `json:"variants"`
			Media struct {
				Nodes []mediaNode `json:"nodes"`
			} `json:"media"`
			MediaSources *metafieldValue `json:"mediaSources"`
		} `json:"product"`
	}
	if err := c.execute(ctx, productQuery, map[string]any{"id": ref.GID}, &data); err != nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to read product %s: %w", ref.GID, err)
	}
	if data.Product == nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to read product %s: %w", ref.GID, ErrProductNotFound)
	}

	p := data.Product
	snap := catalog.Snapshot{
		Ref:             catalog.DestinationRef{ID: p.LegacyResourceID, GID: p.ID},
		Title:           p.Title,
		DescriptionHTML: p.DescriptionHTML,
		ProductType:     p.ProductType,
	}
	for _, v := range p.Variants.Nodes {
		snap.Variants = append(snap.Variants, v.toVariant())
	}
	sources := mediaSources(p.MediaSources)
	for _, m := range p.Media.Nodes {
		snap.Media = append(snap.Media, m.toMedia(sources))
	}
	return snap, nil
}

// Variants reads the variants of one product with their inventory items.
func (c *Client) Variants(ctx context.Context, ref catalog.DestinationRef) ([]catalog.DestinationVariant, error) {
	var data struct {
		Product *struct {
			Variants struct {
				Nodes []variantNode `json:"nodes"`
			} `json:"variants"`
		} `json:"product"`
	}
	if err := c.execute(ctx, variantsQuery, map[string]any{"id": ref.GID}, &data); err != nil {
		return nil, fmt.Errorf("failed to read variants of %s: %w", ref.GID, err)
	}
	if data.Product == nil {
		return nil, fmt.Errorf("failed to read variants of %s: %w", ref.GID, ErrProductNotFound)
	}

	variants := make([]catalog.DestinationVariant, 0, len(data.Product.Variants.Nodes))
	for _, v := range data.Product.Variants.Nodes {
		variants = append(variants, v.toVariant())
	}
	return variants, nil
}

// Media reads the media of one product in display order.
func (c *Client) Media(ctx context.Context, ref catalog.DestinationRef) ([]catalog.MediaRef, error) {
	media, _, err := c.media(ctx, ref)
	return media, err
}

// media reads the media of one product together with the recorded sources.
func (c *Client) media(ctx context.Context, ref catalog.DestinationRef) ([]catalog.MediaRef, map[string]string, error) {
	var data struct {
		Product *struct {
			Media struct {
				Nodes []mediaNode `json:"nodes"`
			} `json:"media"`
			MediaSources *metafieldValue `json:"mediaSources"`
		} `json:"product"`
	}
	if err := c.execute(ctx, mediaQuery, map[string]any{"id": ref.GID}, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to read media of %s: %w", ref.GID, err)
	}
	if data.Product == nil {
		return nil, nil, fmt.Errorf("failed to read media of %s: %w", ref.GID, ErrProductNotFound)
	}

	sources := mediaSources(data.Product.MediaSources)
	media := make([]catalog.MediaRef, 0, len(data.Product.Media.Nodes))
	for _, m := range data.Product.Media.Nodes {
		media = append(media, m.toMedia(sources))
	}
	return media, sources, nil
}
