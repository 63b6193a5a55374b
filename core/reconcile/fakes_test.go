package reconcile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"catalog-sync/core/catalog"
	"catalog-sync/core/transport"

	"github.com/shopspring/decimal"
)

// userError stands in for an inline userErrors response.
type userError struct{ msg string }

func (e userError) Error() string             { return e.msg }
func (e userError) Kind() transport.ErrorKind { return transport.Terminal }

type fakeSource struct {
	products []catalog.CatalogEntity
	images   map[string][]string
	err      error
	imageErr error
}

func (s *fakeSource) Products(ctx context.Context) iter.Seq2[catalog.CatalogEntity, error] {
	return func(yield func(catalog.CatalogEntity, error) bool) {
		if s.err != nil {
			yield(catalog.CatalogEntity{}, s.err)
			return
		}
		for _, p := range s.products {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (s *fakeSource) OrderedImageURLs(ctx context.Context, entity catalog.CatalogEntity) (catalog.MediaSource, error) {
	if s.imageErr != nil {
		return catalog.MediaSource{}, s.imageErr
	}
	urls, ok := s.images[entity.ID]
	return catalog.MediaSource{URLs: urls, Available: ok}, nil
}

type fakeProduct struct {
	ref      catalog.DestinationRef
	title    string
	desc     string
	ptype    string
	variants []catalog.DestinationVariant
	media    []catalog.MediaRef
}

type fakeDest struct {
	mu       sync.Mutex
	products []*fakeProduct
	nextID   int

	// failCreate makes CreateProduct fail for the given natural keys.
	failCreate map[string]error
	listErr    error
	panicOn    string
	// rehost stores uploads under a new URL and records the source URL.
	rehost bool

	calls     map[string]int
	inventory map[string]int
	setCalls  [][]catalog.InventoryAdjustment
	created   []catalog.VariantEntity
}

func newFakeDest(products ...*fakeProduct) *fakeDest {
	d := &fakeDest{calls: map[string]int{}, inventory: map[string]int{}, failCreate: map[string]error{}}
	for _, p := range products {
		d.add(p)
	}
	return d
}

func (d *fakeDest) add(p *fakeProduct) {
	d.nextID++
	if p.ref.ID == "" {
		p.ref = catalog.DestinationRef{ID: fmt.Sprint(d.nextID), GID: fmt.Sprintf("gid://shopify/Product/%d", d.nextID)}
	}
	d.products = append(d.products, p)
}

func (d *fakeDest) find(ref catalog.DestinationRef) (*fakeProduct, error) {
	for _, p := range d.products {
		if p.ref == ref {
			return p, nil
		}
	}
	return nil, errors.New("product not found")
}

func (d *fakeDest) count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[name]
}

func (d *fakeDest) Products(ctx context.Context) iter.Seq2[catalog.DestinationProduct, error] {
	return func(yield func(catalog.DestinationProduct, error) bool) {
		d.mu.Lock()
		if d.listErr != nil {
			d.mu.Unlock()
			yield(catalog.DestinationProduct{}, d.listErr)
			return
		}
		var list []catalog.DestinationProduct
		for _, p := range d.products {
			dp := catalog.DestinationProduct{Ref: p.ref, Title: p.title}
			for _, v := range p.variants {
				dp.SKUs = append(dp.SKUs, v.SKU)
			}
			list = append(list, dp)
		}
		d.mu.Unlock()

		for _, p := range list {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (d *fakeDest) Snapshot(ctx context.Context, ref catalog.DestinationRef) (catalog.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["Snapshot"]++
	p, err := d.find(ref)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	return catalog.Snapshot{
		Ref: p.ref, Title: p.title, DescriptionHTML: p.desc, ProductType: p.ptype,
		Variants: slices.Clone(p.variants), Media: slices.Clone(p.media),
	}, nil
}

func (d *fakeDest) Variants(ctx context.Context, ref catalog.DestinationRef) ([]catalog.DestinationVariant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["Variants"]++
	p, err := d.find(ref)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.variants), nil
}

func (d *fakeDest) Media(ctx context.Context, ref catalog.DestinationRef) ([]catalog.MediaRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["Media"]++
	p, err := d.find(ref)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.media), nil
}

func (d *fakeDest) CreateProduct(ctx context.Context, e catalog.CatalogEntity) (catalog.DestinationRef, error) {
	if e.PrimarySKU() == d.panicOn && d.panicOn != "" {
		panic("unexpected payload")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["CreateProduct"]++
	if err := d.failCreate[e.PrimarySKU()]; err != nil {
		return catalog.DestinationRef{}, err
	}

	p := &fakeProduct{title: e.DisplayName, desc: e.Attr(catalog.AttrDescription), ptype: e.Attr(catalog.AttrCategory)}
	for _, v := range e.Variants {
		p.variants = append(p.variants, catalog.DestinationVariant{ID: "v-" + v.SKU, SKU: v.SKU, InventoryItemID: "inv-" + v.SKU})
	}
	d.created = append(d.created, e.Variants...)
	d.add(p)
	return p.ref, nil
}

func (d *fakeDest) UpdateDetails(ctx context.Context, ref catalog.DestinationRef, e catalog.CatalogEntity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["UpdateDetails"]++
	p, err := d.find(ref)
	if err != nil {
		return err
	}
	p.title, p.desc, p.ptype = e.DisplayName, e.Attr(catalog.AttrDescription), e.Attr(catalog.AttrCategory)
	return nil
}

func (d *fakeDest) CreateVariants(ctx context.Context, ref catalog.DestinationRef, variants []catalog.VariantEntity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["CreateVariants"]++
	p, err := d.find(ref)
	if err != nil {
		return err
	}
	for _, v := range variants {
		p.variants = append(p.variants, catalog.DestinationVariant{ID: "v-" + v.SKU, SKU: v.SKU, InventoryItemID: "inv-" + v.SKU})
	}
	d.created = append(d.created, variants...)
	return nil
}

func (d *fakeDest) SetInventory(ctx context.Context, adjustments []catalog.InventoryAdjustment) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["SetInventory"]++
	d.setCalls = append(d.setCalls, slices.Clone(adjustments))
	for _, a := range adjustments {
		d.inventory[a.ItemID] = a.Quantity
	}
	return nil
}

func (d *fakeDest) AddMedia(ctx context.Context, ref catalog.DestinationRef, media []catalog.MediaRef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["AddMedia"]++
	p, err := d.find(ref)
	if err != nil {
		return err
	}
	for _, m := range media {
		d.nextID++
		stored := catalog.MediaRef{ID: fmt.Sprintf("m%d", d.nextID), URL: m.URL, Alt: m.Alt}
		if d.rehost {
			stored.URL = fmt.Sprintf("https://cdn.example.com/files/%d.jpg", d.nextID)
			stored.Source = m.URL
		}
		p.media = append(p.media, stored)
	}
	return nil
}

func (d *fakeDest) RemoveMedia(ctx context.Context, ref catalog.DestinationRef, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["RemoveMedia"]++
	p, err := d.find(ref)
	if err != nil {
		return err
	}
	p.media = slices.DeleteFunc(p.media, func(m catalog.MediaRef) bool { return slices.Contains(ids, m.ID) })
	return nil
}

func (d *fakeDest) ReorderMedia(ctx context.Context, ref catalog.DestinationRef, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["ReorderMedia"]++
	p, err := d.find(ref)
	if err != nil {
		return err
	}
	reordered := make([]catalog.MediaRef, 0, len(p.media))
	for _, id := range ids {
		for _, m := range p.media {
			if m.ID == id {
				reordered = append(reordered, m)
			}
		}
	}
	p.media = reordered
	return nil
}

func entity(sku, name string, variants ...catalog.VariantEntity) catalog.CatalogEntity {
	return catalog.CatalogEntity{
		ID:          "src-" + sku,
		NaturalKey:  sku,
		DisplayName: name,
		Attributes:  map[string]string{catalog.AttrDescription: name + " description", catalog.AttrCategory: "Apparel"},
		Variants:    variants,
	}
}

func variant(sku string, stock int) catalog.VariantEntity {
	return catalog.VariantEntity{
		SKU:             sku,
		Price:           decimal.RequireFromString("10.00"),
		StockByLocation: map[string]int{"main": stock},
	}
}
