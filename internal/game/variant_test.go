package game

import (
	"math/rand"
	"testing"
)

func TestBuildVariantPoolNeverEmpty(t *testing.T) {
	template := &Template{ID: "freelance", Name: "Freelance Writing"}
	pool := BuildVariantPool(template)
	if len(pool) != 1 {
		t.Fatalf("expected synthetic default variant, got %d", len(pool))
	}
	if pool[0].ID != "default" || pool[0].Weight != 1 {
		t.Fatalf("unexpected default variant: %+v", pool[0])
	}
	if pool[0].DefinitionID != "freelance" {
		t.Fatalf("default variant should point at the template, got %q", pool[0].DefinitionID)
	}
}

func TestBuildVariantPoolIndexIDs(t *testing.T) {
	template := &Template{
		ID: "freelance",
		Market: &MarketConfig{
			Variants: []VariantConfig{
				{Label: "Rush job"},
				{ID: "bulk", Label: "Bulk order"},
			},
		},
	}
	pool := BuildVariantPool(template)
	if len(pool) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(pool))
	}
	if pool[0].ID != "variant-0" {
		t.Fatalf("unnamed variant should get an index id, got %q", pool[0].ID)
	}
	if pool[1].ID != "bulk" {
		t.Fatalf("got %q", pool[1].ID)
	}
}

func TestSelectVariantZeroTotalWeight(t *testing.T) {
	variants := []Variant{
		{ID: "a", Weight: 0},
		{ID: "b", Weight: -3},
	}
	got := SelectVariantFromPool(variants, func() float64 { return 0.99 })
	if got == nil || got.ID != "a" {
		t.Fatalf("zero total weight should return the first variant, got %+v", got)
	}
}

func TestSelectVariantBoundaryRoll(t *testing.T) {
	variants := []Variant{
		{ID: "a", Weight: 1},
		{ID: "b", Weight: 1},
	}
	// A roll of exactly 1 must clamp below the total and land on the last
	// variant instead of falling off the cumulative walk.
	got := SelectVariantFromPool(variants, func() float64 { return 1.0 })
	if got == nil || got.ID != "b" {
		t.Fatalf("expected last variant on boundary roll, got %+v", got)
	}
}

func TestSelectVariantWeightedDistribution(t *testing.T) {
	variants := []Variant{
		{ID: "light", Weight: 1},
		{ID: "heavy", Weight: 3},
	}
	rng := rand.New(rand.NewSource(42))

	counts := map[string]int{}
	const draws = 10000
	for i := 0; i < draws; i++ {
		v := SelectVariantFromPool(variants, rng.Float64)
		if v == nil {
			t.Fatal("selection returned nil")
		}
		counts[v.ID]++
	}

	heavyShare := float64(counts["heavy"]) / draws
	if heavyShare < 0.72 || heavyShare > 0.78 {
		t.Fatalf("expected heavy share near 0.75, got %.3f (counts=%v)", heavyShare, counts)
	}
	if counts["light"]+counts["heavy"] != draws {
		t.Fatalf("draws leaked outside the pool: %v", counts)
	}
}

func TestNormalizeVariantClampsCapacity(t *testing.T) {
	template := &Template{ID: "tpl"}
	copies := 3
	cfg := VariantConfig{ID: "v", Copies: &copies}
	v := normalizeVariant(cfg, 0, template)
	if v.Copies != 3 {
		t.Fatalf("copies = %d", v.Copies)
	}
	if v.MaxActive != 3 {
		t.Fatalf("maxActive should default to copies, got %d", v.MaxActive)
	}
}
