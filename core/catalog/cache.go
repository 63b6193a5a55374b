package catalog

import (
	"fmt"
	"iter"
	"strings"
)

// SKUKey builds the cache key for a SKU.
func SKUKey(sku string) string {
	return "sku:" + strings.TrimSpace(sku)
}

// TitleKey builds the cache key for a product title.
func TitleKey(title string) string {
	return "title:" + strings.TrimSpace(title)
}

// Cache indexes destination products by natural keys. It is read-only once built.
type Cache struct {
	index    map[string]DestinationRef
	products int
}

// BuildCache consumes the destination catalog and indexes it.
// An error from the sequence aborts the build.
func BuildCache(products iter.Seq2[DestinationProduct, error]) (*Cache, error) {
	c := &Cache{index: make(map[string]DestinationRef)}
	for p, err := range products {
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog cache after %d products: %w", c.products, err)
		}
		c.add(p)
	}
	return c, nil
}

// NewCache indexes an in-memory list of products.
func NewCache(products ...DestinationProduct) *Cache {
	c := &Cache{index: make(map[string]DestinationRef)}
	for _, p := range products {
		c.add(p)
	}
	return c
}

// add indexes p; later products overwrite earlier ones on key collision.
func (c *Cache) add(p DestinationProduct) {
	c.products++
	if t := strings.TrimSpace(p.Title); t != "" {
		c.index[TitleKey(t)] = p.Ref
	}
	for _, sku := range p.SKUs {
		if s := strings.TrimSpace(sku); s != "" {
			c.index[SKUKey(s)] = p.Ref
		}
	}
}

// Lookup returns the product indexed under key.
func (c *Cache) Lookup(key string) (DestinationRef, bool) {
	ref, ok := c.index[key]
	return ref, ok
}

// Len is the number of indexed keys.
func (c *Cache) Len() int {
	return len(c.index)
}

// Products is the number of destination products consumed.
func (c *Cache) Products() int {
	return c.products
}
