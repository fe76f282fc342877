package content

import (
	"testing"

	"sidegig/internal/game"
)

func TestCatalogTemplatesWellFormed(t *testing.T) {
	registry := Catalog()
	templates := registry.All()
	if len(templates) == 0 {
		t.Fatal("catalog is empty")
	}
	seen := map[string]bool{}
	for _, tpl := range templates {
		if tpl.ID == "" || tpl.Name == "" {
			t.Fatalf("template missing identity: %+v", tpl)
		}
		if seen[tpl.ID] {
			t.Fatalf("duplicate template id %q", tpl.ID)
		}
		seen[tpl.ID] = true
		pool := game.BuildVariantPool(tpl)
		if len(pool) == 0 {
			t.Fatalf("template %q built an empty variant pool", tpl.ID)
		}
		for _, variant := range pool {
			meta := game.ResolveMetadata(tpl, &variant)
			if meta == nil {
				t.Fatalf("template %q variant %q resolved nil metadata", tpl.ID, variant.ID)
			}
		}
	}
}

func TestCatalogCoversBothCategories(t *testing.T) {
	registry := Catalog()
	for _, category := range []string{CategoryHustle, CategoryStudy} {
		if len(registry.ByCategory(category)) == 0 {
			t.Fatalf("no templates in category %q", category)
		}
	}
}

func TestCatalogReturnsIndependentRegistries(t *testing.T) {
	first := Catalog()
	first.Register(&game.Template{ID: "extra", Name: "Extra"})
	second := Catalog()
	if second.Definition("extra") != nil {
		t.Fatal("registries returned by Catalog share registration state")
	}
}
