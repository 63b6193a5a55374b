package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"catalog-sync/core/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runEngine(t *testing.T, src *fakeSource, dest *fakeDest, opts RunOptions) *Results {
	t.Helper()
	res, err := NewEngine(src, dest, zap.NewNop()).Run(context.Background(), opts, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestRun_CreatesMissingProduct(t *testing.T) {
	src := &fakeSource{products: []catalog.CatalogEntity{
		entity("ABC-1", "Basic Tee", variant("ABC-1-S", 5), variant("ABC-1-M", 0)),
	}}
	dest := newFakeDest()

	res := runEngine(t, src, dest, RunOptions{Mode: ModeFull})

	assert.Equal(t, SyncStats{Total: 1, Created: 1, Processed: 1}, res.Stats)
	require.Len(t, res.Results, 1)
	assert.Equal(t, StatusCreated, res.Results[0].Status)
	assert.Equal(t, "ABC-1", res.Results[0].NaturalKey)
	assert.Contains(t, res.Results[0].ChangesApplied, "product created with 2 variants")
	assert.Contains(t, res.Results[0].ChangesApplied, "inventory set for 2 variants")

	assert.Equal(t, 1, dest.count("CreateProduct"))
	require.Len(t, dest.setCalls, 1)
	assert.Equal(t, []catalog.InventoryAdjustment{
		{ItemID: "inv-ABC-1-S", SKU: "ABC-1-S", Quantity: 5},
		{ItemID: "inv-ABC-1-M", SKU: "ABC-1-M", Quantity: 0},
	}, dest.setCalls[0])
}

func TestRun_IsolatesFailures(t *testing.T) {
	var products []catalog.CatalogEntity
	for i := range 100 {
		sku := fmt.Sprintf("P-%03d", i)
		products = append(products, entity(sku, "Product "+sku, variant(sku+"-1", i)))
	}
	dest := newFakeDest()
	dest.failCreate["P-042"] = userError{msg: "Title can't be blank"}

	res := runEngine(t, &fakeSource{products: products}, dest, RunOptions{Mode: ModeFull, Workers: 8})

	assert.Equal(t, 100, res.Stats.Total)
	assert.Equal(t, 100, res.Stats.Processed)
	assert.Equal(t, 99, res.Stats.Created)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.False(t, res.Cancelled)

	require.Len(t, res.Results, 100)
	for i, r := range res.Results {
		assert.Equal(t, fmt.Sprintf("P-%03d", i), r.NaturalKey)
	}
	assert.Equal(t, StatusFailed, res.Results[42].Status)
	assert.Contains(t, res.Results[42].ErrorReason, "Title can't be blank")
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	src := &fakeSource{products: []catalog.CatalogEntity{
		entity("ABC-1", "Basic Tee", variant("ABC-1-S", 5), variant("ABC-1-M", 0)),
	}}
	dest := newFakeDest()

	first := runEngine(t, src, dest, RunOptions{Mode: ModeFull})
	require.Equal(t, 1, first.Stats.Created)

	second := runEngine(t, src, dest, RunOptions{Mode: ModeFull})
	assert.Equal(t, 0, second.Stats.Created)
	assert.Equal(t, 1, second.Stats.Updated)
	assert.Equal(t, catalog.MatchedBySKU, second.Results[0].MatchedBy)
	assert.NotContains(t, second.Results[0].ChangesApplied, "details updated")

	assert.Equal(t, 1, dest.count("CreateProduct"))
	assert.Equal(t, 0, dest.count("CreateVariants"))
	assert.Equal(t, 0, dest.count("UpdateDetails"))
	require.Len(t, dest.setCalls, 2)
	assert.ElementsMatch(t, dest.setCalls[0], dest.setCalls[1])
	assert.Equal(t, map[string]int{"inv-ABC-1-S": 5, "inv-ABC-1-M": 0}, dest.inventory)
}

func existing(title string, skus ...string) *fakeProduct {
	p := &fakeProduct{title: title}
	for _, sku := range skus {
		p.variants = append(p.variants, catalog.DestinationVariant{ID: "v-" + sku, SKU: sku, InventoryItemID: "inv-" + sku})
	}
	return p
}

func TestRun_Modes(t *testing.T) {
	t.Run("missing skips existing products", func(t *testing.T) {
		src := &fakeSource{products: []catalog.CatalogEntity{
			entity("A", "Old Name", variant("A-1", 1)),
			entity("B", "Fresh", variant("B-1", 2)),
		}}
		dest := newFakeDest(existing("Old Name", "A-1"))

		res := runEngine(t, src, dest, RunOptions{Mode: ModeMissing})

		assert.Equal(t, StatusSkipped, res.Results[0].Status)
		assert.Equal(t, "already exists", res.Results[0].ErrorReason)
		assert.Equal(t, StatusCreated, res.Results[1].Status)
		assert.Equal(t, 0, dest.count("Snapshot"))
	})

	t.Run("details writes only details", func(t *testing.T) {
		src := &fakeSource{products: []catalog.CatalogEntity{
			entity("A", "New Name", variant("A-1", 7)),
			entity("B", "Unknown", variant("B-1", 2)),
		}}
		dest := newFakeDest(existing("Old Name", "A-1"))

		res := runEngine(t, src, dest, RunOptions{Mode: ModeDetails})

		assert.Equal(t, StatusUpdated, res.Results[0].Status)
		assert.Equal(t, []string{"details updated"}, res.Results[0].ChangesApplied)
		assert.Equal(t, StatusSkipped, res.Results[1].Status)
		assert.Equal(t, "not found in destination", res.Results[1].ErrorReason)
		assert.Equal(t, 1, dest.count("UpdateDetails"))
		assert.Equal(t, 0, dest.count("SetInventory"))
		assert.Equal(t, 0, dest.count("CreateProduct"))
		assert.Equal(t, "New Name", dest.products[0].title)
	})

	t.Run("stock creates missing variants", func(t *testing.T) {
		src := &fakeSource{products: []catalog.CatalogEntity{
			entity("A", "Name", variant("A-1", 7), variant("A-2", 3)),
		}}
		dest := newFakeDest(existing("Other Name", "A-1"))

		res := runEngine(t, src, dest, RunOptions{Mode: ModeStock})

		assert.Equal(t, StatusUpdated, res.Results[0].Status)
		assert.Equal(t, []string{"1 variants created", "inventory set for 2 variants"}, res.Results[0].ChangesApplied)
		assert.Equal(t, 0, dest.count("UpdateDetails"))
		assert.Equal(t, map[string]int{"inv-A-1": 7, "inv-A-2": 3}, dest.inventory)
	})

	t.Run("title match is flagged", func(t *testing.T) {
		src := &fakeSource{products: []catalog.CatalogEntity{entity("S-1", "Shirt", variant("S-1-M", 3))}}
		dest := newFakeDest(existing("Shirt"))

		res := runEngine(t, src, dest, RunOptions{Mode: ModeFull})

		assert.Equal(t, StatusUpdated, res.Results[0].Status)
		assert.Equal(t, catalog.MatchedByTitle, res.Results[0].MatchedBy)
		assert.Equal(t, 0, dest.count("CreateProduct"))
	})

	t.Run("strict match skips title matches", func(t *testing.T) {
		src := &fakeSource{products: []catalog.CatalogEntity{entity("S-1", "Shirt", variant("S-1-M", 3))}}
		dest := newFakeDest(existing("Shirt"))

		res := runEngine(t, src, dest, RunOptions{Mode: ModeFull, StrictSKUMatch: true})

		assert.Equal(t, StatusSkipped, res.Results[0].Status)
		assert.Equal(t, "matched by title only", res.Results[0].ErrorReason)
		assert.Equal(t, catalog.MatchedByTitle, res.Results[0].MatchedBy)
		assert.Equal(t, 0, dest.count("Snapshot"))
	})
}

func TestRun_SkipsBlankNames(t *testing.T) {
	src := &fakeSource{products: []catalog.CatalogEntity{entity("X", "   ", variant("X-1", 1))}}
	dest := newFakeDest()

	res := runEngine(t, src, dest, RunOptions{})

	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, "missing name", res.Results[0].ErrorReason)
	assert.Equal(t, 0, dest.count("CreateProduct"))
}

func TestRun_Media(t *testing.T) {
	a, b := "https://img.example.com/o_a.jpg", "https://img.example.com/o_b.jpg"
	product := existing("Mug", "M-1")
	product.media = []catalog.MediaRef{{ID: "m-old", URL: "https://cdn.example.com/old.jpg", Alt: "old"}}
	dest := newFakeDest(product)
	src := &fakeSource{
		products: []catalog.CatalogEntity{entity("M", "Mug", variant("M-1", 1))},
		images:   map[string][]string{"src-M": {a, b}},
	}

	res := runEngine(t, src, dest, RunOptions{Mode: ModeMedia})

	require.Equal(t, StatusUpdated, res.Results[0].Status)
	assert.Equal(t, []string{"2 images added", "1 images removed", "image order updated"}, res.Results[0].ChangesApplied)
	require.Len(t, product.media, 2)
	assert.Equal(t, a, product.media[0].URL)
	assert.Equal(t, a, product.media[0].Alt)
	assert.Equal(t, b, product.media[1].URL)
	assert.Equal(t, 0, dest.count("SetInventory"))

	again := runEngine(t, src, dest, RunOptions{Mode: ModeMedia})
	assert.Equal(t, StatusUpdated, again.Results[0].Status)
	assert.Empty(t, again.Results[0].ChangesApplied)
	assert.Equal(t, 1, dest.count("AddMedia"))
	assert.Equal(t, 1, dest.count("ReorderMedia"))
}

func TestRun_MediaSEOUsesTitleAsAlt(t *testing.T) {
	product := existing("Mug", "M-1")
	dest := newFakeDest(product)
	src := &fakeSource{
		products: []catalog.CatalogEntity{entity("M", "Mug", variant("M-1", 1))},
		images:   map[string][]string{"src-M": {"https://img.example.com/o_a.jpg"}},
	}

	runEngine(t, src, dest, RunOptions{Mode: ModeMediaSEO})

	require.Len(t, product.media, 1)
	assert.Equal(t, "Mug", product.media[0].Alt)
	assert.Equal(t, 0, dest.count("ReorderMedia"))
}

func TestRun_MediaSEOStableAfterRehosting(t *testing.T) {
	a, b := "https://img.example.com/a/o_1.jpg", "https://img.example.com/b/o_1.jpg"
	product := existing("Mug", "M-1")
	dest := newFakeDest(product)
	dest.rehost = true
	src := &fakeSource{
		products: []catalog.CatalogEntity{entity("M", "Mug", variant("M-1", 1))},
		images:   map[string][]string{"src-M": {a, b}},
	}

	first := runEngine(t, src, dest, RunOptions{Mode: ModeMediaSEO})
	assert.Contains(t, first.Results[0].ChangesApplied, "2 images added")
	require.Len(t, product.media, 2)
	assert.Equal(t, "Mug", product.media[0].Alt)
	assert.Equal(t, a, product.media[0].Source)
	assert.Equal(t, b, product.media[1].Source)

	second := runEngine(t, src, dest, RunOptions{Mode: ModeMediaSEO})
	assert.Empty(t, second.Results[0].ChangesApplied)
	assert.Equal(t, 1, dest.count("AddMedia"))
	assert.Zero(t, dest.count("RemoveMedia"))
}

func TestRun_UnavailableMediaIsLeftAlone(t *testing.T) {
	product := existing("Mug", "M-1")
	product.media = []catalog.MediaRef{{ID: "m1", URL: "https://cdn.example.com/keep.jpg"}}
	dest := newFakeDest(product)
	src := &fakeSource{products: []catalog.CatalogEntity{entity("M", "Mug", variant("M-1", 1))}}

	res := runEngine(t, src, dest, RunOptions{Mode: ModeMedia})

	assert.Equal(t, StatusUpdated, res.Results[0].Status)
	assert.Len(t, product.media, 1)
	assert.Equal(t, 0, dest.count("RemoveMedia"))
}

func TestRun_ImageOrderFailureKeepsStockAndDetails(t *testing.T) {
	product := existing("Old Mug", "M-1")
	product.media = []catalog.MediaRef{{ID: "m1", URL: "https://cdn.example.com/keep.jpg"}}
	dest := newFakeDest(product)
	src := &fakeSource{
		products: []catalog.CatalogEntity{entity("M", "Mug", variant("M-1", 9))},
		imageErr: errors.New("image endpoint 500"),
	}

	res := runEngine(t, src, dest, RunOptions{Mode: ModeFull})

	require.Len(t, res.Results, 1)
	r := res.Results[0]
	assert.Equal(t, StatusFailed, r.Status)
	assert.Contains(t, r.ErrorReason, "failed to read source images: image endpoint 500")
	assert.Equal(t, []string{"details updated", "inventory set for 1 variants"}, r.ChangesApplied)

	assert.Equal(t, map[string]int{"inv-M-1": 9}, dest.inventory)
	assert.Equal(t, "Mug", product.title)
	assert.Len(t, product.media, 1)
	for _, call := range []string{"AddMedia", "RemoveMedia", "ReorderMedia"} {
		assert.Zero(t, dest.count(call), call)
	}
}

func TestRun_UnresolvedInventoryItemFailsProduct(t *testing.T) {
	product := existing("Tee", "T-1", "T-2")
	product.variants[1].InventoryItemID = ""
	dest := newFakeDest(product)
	src := &fakeSource{products: []catalog.CatalogEntity{
		entity("T", "Tee", variant("T-1", 4), variant("T-2", 6)),
	}}

	res := runEngine(t, src, dest, RunOptions{Mode: ModeStock})

	assert.Equal(t, StatusFailed, res.Results[0].Status)
	assert.Contains(t, res.Results[0].ErrorReason, "T-2")
	assert.Contains(t, res.Results[0].ErrorReason, catalog.ErrUnresolvedSKU.Error())
	assert.Zero(t, dest.count("SetInventory"))
	assert.Zero(t, dest.count("CreateVariants"))
}

func TestRun_DryRunDoesNotWrite(t *testing.T) {
	src := &fakeSource{products: []catalog.CatalogEntity{
		entity("A", "New Name", variant("A-1", 7), variant("A-2", 1)),
		entity("B", "Fresh", variant("B-1", 2)),
	}}
	dest := newFakeDest(existing("Old Name", "A-1"))

	res := runEngine(t, src, dest, RunOptions{Mode: ModeFull, DryRun: true})

	assert.Equal(t, StatusUpdated, res.Results[0].Status)
	assert.Equal(t, []string{
		"would update details",
		"would create 1 variants",
		"would set inventory for 2 variants",
	}, res.Results[0].ChangesApplied)
	assert.Equal(t, StatusCreated, res.Results[1].Status)
	assert.Equal(t, []string{"would create product with 1 variants"}, res.Results[1].ChangesApplied)

	for _, call := range []string{"CreateProduct", "UpdateDetails", "CreateVariants", "SetInventory", "AddMedia", "RemoveMedia", "ReorderMedia"} {
		assert.Zero(t, dest.count(call), call)
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	src := &fakeSource{products: []catalog.CatalogEntity{
		entity("OK-1", "Fine", variant("OK-1-1", 1)),
		entity("BAD", "Broken", variant("BAD-1", 1)),
	}}
	dest := newFakeDest()
	dest.panicOn = "BAD"

	res := runEngine(t, src, dest, RunOptions{Mode: ModeFull, Workers: 2})

	assert.Equal(t, 1, res.Stats.Created)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, StatusFailed, res.Results[1].Status)
	assert.Contains(t, res.Results[1].ErrorReason, "panic")
}

func TestRun_TestModeLimit(t *testing.T) {
	var products []catalog.CatalogEntity
	for i := range 30 {
		sku := fmt.Sprintf("T-%02d", i)
		products = append(products, entity(sku, "Item "+sku, variant(sku+"-1", 1)))
	}

	res := runEngine(t, &fakeSource{products: products}, newFakeDest(), RunOptions{TestMode: true})

	assert.Equal(t, TestModeLimit, res.Stats.Total)
	assert.Len(t, res.Results, TestModeLimit)
}

func TestRun_FatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   *fakeSource
		dest  func() *fakeDest
		stage string
	}{
		{
			name:  "source unreadable",
			src:   &fakeSource{err: errors.New("connection refused")},
			dest:  func() *fakeDest { return newFakeDest() },
			stage: "loading source products",
		},
		{
			name: "destination unreadable",
			src:  &fakeSource{products: []catalog.CatalogEntity{entity("A", "A", variant("A-1", 1))}},
			dest: func() *fakeDest {
				d := newFakeDest()
				d.listErr = errors.New("401 unauthorized")
				return d
			},
			stage: "loading destination catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []Progress
			dest := tt.dest()
			res, err := NewEngine(tt.src, dest, zap.NewNop()).Run(context.Background(), RunOptions{}, func(p Progress) {
				events = append(events, p)
			})

			assert.Nil(t, res)
			var fatal *FatalError
			require.ErrorAs(t, err, &fatal)
			assert.Equal(t, tt.stage, fatal.Stage)
			require.NotEmpty(t, events)
			assert.Equal(t, StateError, events[len(events)-1].State)
			assert.Zero(t, dest.count("CreateProduct"))
		})
	}
}

func TestRun_ProgressIsOrdered(t *testing.T) {
	var products []catalog.CatalogEntity
	for i := range 10 {
		sku := fmt.Sprintf("G-%d", i)
		products = append(products, entity(sku, "Item "+sku, variant(sku+"-1", 1)))
	}

	var events []Progress
	_, err := NewEngine(&fakeSource{products: products}, newFakeDest(), zap.NewNop()).
		Run(context.Background(), RunOptions{Workers: 3}, func(p Progress) { events = append(events, p) })
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 14)
	assert.Equal(t, StateInitializing, events[0].State)
	assert.Equal(t, StateCaching, events[1].State)
	assert.Equal(t, StateProcessing, events[2].State)

	last := events[len(events)-1]
	assert.Equal(t, StateDone, last.State)
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, 10, last.Stats.Processed)

	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Percent, events[i-1].Percent)
		assert.GreaterOrEqual(t, events[i].Stats.Processed, events[i-1].Stats.Processed)
	}
}

func TestRun_CancelDrainsInFlight(t *testing.T) {
	var products []catalog.CatalogEntity
	for i := range 50 {
		sku := fmt.Sprintf("C-%02d", i)
		products = append(products, entity(sku, "Item "+sku, variant(sku+"-1", 1)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		once   sync.Once
		events []Progress
	)
	res, err := NewEngine(&fakeSource{products: products}, newFakeDest(), zap.NewNop()).
		Run(ctx, RunOptions{Workers: 1}, func(p Progress) {
			events = append(events, p)
			if p.Stats.Processed == 1 {
				once.Do(cancel)
			}
		})
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.Less(t, len(res.Results), len(products))
	assert.Equal(t, res.Stats.Processed, len(res.Results))
	for i, r := range res.Results {
		assert.Equal(t, fmt.Sprintf("C-%02d", i), r.NaturalKey)
		assert.Equal(t, StatusCreated, r.Status)
	}
	assert.Equal(t, StateDone, events[len(events)-1].State)
	assert.Equal(t, "Sync cancelled", events[len(events)-1].Message)
}

func TestRun_EmptyCatalog(t *testing.T) {
	res := runEngine(t, &fakeSource{}, newFakeDest(), RunOptions{})

	assert.Equal(t, SyncStats{}, res.Stats)
	assert.Empty(t, res.Results)
	assert.False(t, res.Cancelled)
}

func TestSyncOne(t *testing.T) {
	dest := newFakeDest(existing("Old", "A-1"))
	engine := NewEngine(&fakeSource{}, dest, nil)

	res, err := engine.SyncOne(context.Background(), entity("A", "New", variant("A-1", 4)), RunOptions{Mode: ModeFull})
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.Equal(t, 4, dest.inventory["inv-A-1"])

	dest.listErr = errors.New("boom")
	_, err = engine.SyncOne(context.Background(), entity("A", "New"), RunOptions{})
	var fatal *FatalError
	assert.ErrorAs(t, err, &fatal)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeFull},
		{in: "full", want: ModeFull},
		{in: " Stock ", want: ModeStock},
		{in: "media_seo", want: ModeMediaSEO},
		{in: "everything", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunOptionsNormalized(t *testing.T) {
	assert.Equal(t, DefaultWorkers, RunOptions{}.normalized().Workers)
	assert.Equal(t, ModeFull, RunOptions{}.normalized().Mode)
	assert.Equal(t, MaxWorkers, RunOptions{Workers: 64}.normalized().Workers)
	assert.Equal(t, 3, RunOptions{Workers: 3}.normalized().Workers)
}
