package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedSKU is returned when a source SKU has no destination inventory
// item after variants were created.
var ErrUnresolvedSKU = errors.New("source SKU missing on destination")

// MediaSource is the source's authoritative, ordered image list.
// When Available is false media are left untouched.
type MediaSource struct {
	URLs      []string
	Available bool
}

// Diff computes the writes needed to bring dst in line with src.
func Diff(src CatalogEntity, dst Snapshot, media MediaSource) ChangeSet {
	var cs ChangeSet

	cs.DetailsChanged = detailsChanged(src, dst)

	known := make(map[string]DestinationVariant, len(dst.Variants))
	for _, v := range dst.Variants {
		if sku := strings.TrimSpace(v.SKU); sku != "" {
			known[sku] = v
		}
	}

	seen := make(map[string]struct{}, len(src.Variants))
	for _, v := range src.Variants {
		sku := strings.TrimSpace(v.SKU)
		if _, dup := seen[sku]; dup || sku == "" {
			continue
		}
		seen[sku] = struct{}{}

		dv, ok := known[sku]
		if !ok {
			cs.NewVariants = append(cs.NewVariants, v)
			continue
		}
		if dv.InventoryItemID != "" {
			cs.InventoryAdjustments = append(cs.InventoryAdjustments, InventoryAdjustment{
				ItemID:   dv.InventoryItemID,
				SKU:      sku,
				Quantity: v.Stock(),
			})
		}
	}

	if media.Available {
		cs.MediaToAdd, cs.MediaToRemove = diffMedia(media.URLs, dst.Media)
		cs.ReorderMedia = len(cs.MediaToAdd) > 0 || len(cs.MediaToRemove) > 0
	}

	return cs
}

// ResolveInventory maps every source variant to the destination inventory
// item carrying the same SKU. It must be called after new variants have been
// created; any SKU still missing is a failure for the whole product.
func ResolveInventory(src CatalogEntity, variants []DestinationVariant) ([]InventoryAdjustment, error) {
	items := make(map[string]string, len(variants))
	for _, v := range variants {
		if sku := strings.TrimSpace(v.SKU); sku != "" && v.InventoryItemID != "" {
			items[sku] = v.InventoryItemID
		}
	}

	var (
		adjustments []InventoryAdjustment
		missing     []string
	)
	seen := make(map[string]struct{}, len(src.Variants))
	for _, v := range src.Variants {
		sku := strings.TrimSpace(v.SKU)
		if _, dup := seen[sku]; dup || sku == "" {
			continue
		}
		seen[sku] = struct{}{}

		itemID, ok := items[sku]
		if !ok {
			missing = append(missing, sku)
			continue
		}
		adjustments = append(adjustments, InventoryAdjustment{ItemID: itemID, SKU: sku, Quantity: v.Stock()})
	}

	if len(missing) > 0 {
		return adjustments, fmt.Errorf("%w: %s", ErrUnresolvedSKU, strings.Join(missing, ", "))
	}
	return adjustments, nil
}

// OrderMedia returns destination media IDs in the order of urls. Media that
// do not correspond to any URL are left out.
func OrderMedia(urls []string, media []MediaRef) []string {
	used := make(map[string]struct{}, len(media))
	var ids []string
	for _, u := range urls {
		for _, m := range media {
			if _, taken := used[m.ID]; taken || m.ID == "" {
				continue
			}
			if mediaMatches(m, u) {
				used[m.ID] = struct{}{}
				ids = append(ids, m.ID)
				break
			}
		}
	}
	return ids
}

func detailsChanged(src CatalogEntity, dst Snapshot) bool {
	return strings.TrimSpace(src.DisplayName) != strings.TrimSpace(dst.Title) ||
		src.Attr(AttrDescription) != strings.TrimSpace(dst.DescriptionHTML) ||
		src.Attr(AttrCategory) != strings.TrimSpace(dst.ProductType)
}

func diffMedia(urls []string, current []MediaRef) (toAdd, toRemove []string) {
	wanted := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := wanted[u]; dup {
			continue
		}
		wanted[u] = struct{}{}

		present := false
		for _, m := range current {
			if mediaMatches(m, u) {
				present = true
				break
			}
		}
		if !present {
			toAdd = append(toAdd, u)
		}
	}

	for _, m := range current {
		keep := false
		for u := range wanted {
			if mediaMatches(m, u) {
				keep = true
				break
			}
		}
		if !keep && m.ID != "" {
			toRemove = append(toRemove, m.ID)
		}
	}
	return toAdd, toRemove
}

// mediaMatches reports whether destination media m was created from source
// url u. Uploads are rehosted, so the recorded source URL and the alt text
// count as well as the image URL itself.
func mediaMatches(m MediaRef, u string) bool {
	return u != "" && (m.Source == u || m.URL == u || m.Alt == u)
}
