package catalog

import "strings"

// MatchedBy records which natural key resolved a match.
type MatchedBy string

const (
	MatchedBySKU   MatchedBy = "sku"
	MatchedByTitle MatchedBy = "title"
)

// MatchResult is a resolved destination product.
type MatchResult struct {
	Ref DestinationRef
	By  MatchedBy
	Key string
}

// Match resolves source to at most one destination product. SKU keys win over
// the title: the primary SKU is tried first, then every variant SKU in order,
// and only then the display name.
func Match(source CatalogEntity, cache *Cache) (MatchResult, bool) {
	if cache == nil {
		return MatchResult{}, false
	}

	for _, sku := range candidateSKUs(source) {
		key := SKUKey(sku)
		if ref, ok := cache.Lookup(key); ok {
			return MatchResult{Ref: ref, By: MatchedBySKU, Key: key}, true
		}
	}

	if name := strings.TrimSpace(source.DisplayName); name != "" {
		key := TitleKey(name)
		if ref, ok := cache.Lookup(key); ok {
			return MatchResult{Ref: ref, By: MatchedByTitle, Key: key}, true
		}
	}

	return MatchResult{}, false
}

func candidateSKUs(source CatalogEntity) []string {
	seen := make(map[string]struct{})
	var skus []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		skus = append(skus, s)
	}

	add(source.PrimarySKU())
	for _, v := range source.Variants {
		add(v.SKU)
	}
	return skus
}
