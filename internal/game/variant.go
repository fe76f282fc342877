package game

import "strconv"

// defaultVariant synthesizes the single fallback variant used when a
// template declares no variants of its own.
func defaultVariant(template *Template) Variant {
	market := template.Market
	if market == nil {
		market = &MarketConfig{}
	}
	label := template.Name
	if label == "" {
		label = template.ID
	}
	return Variant{
		ID:                 "default",
		Label:              label,
		Description:        template.Description,
		DefinitionID:       template.ID,
		Weight:             1,
		DurationDays:       clampDaySpan(market.DurationDays, 0),
		AvailableAfterDays: clampDaySpan(market.AvailableAfterDays, 0),
		Copies:             1,
		MaxActive:          1,
		Seats:              clampPositiveInt(intValue(market.Seats, 1), 1),
	}
}

func normalizeVariant(cfg VariantConfig, index int, template *Template) Variant {
	fallback := defaultVariant(template)

	v := fallback
	if cfg.ID != "" {
		v.ID = cfg.ID
	} else {
		v.ID = variantIndexID(index)
	}
	if cfg.Label != "" {
		v.Label = cfg.Label
	} else if template.Name != "" {
		v.Label = template.Name
	} else {
		v.Label = v.ID
	}
	if cfg.Description != "" {
		v.Description = cfg.Description
	}
	if cfg.DefinitionID != "" {
		v.DefinitionID = cfg.DefinitionID
	}
	v.Weight = clampWeight(cfg.Weight, fallback.Weight)
	v.DurationDays = clampDaySpan(intValue(cfg.DurationDays, fallback.DurationDays), fallback.DurationDays)
	v.AvailableAfterDays = clampDaySpan(intValue(cfg.AvailableAfterDays, fallback.AvailableAfterDays), fallback.AvailableAfterDays)
	v.Copies = clampPositiveInt(intValue(cfg.Copies, fallback.Copies), fallback.Copies)
	if cfg.MaxActive != nil {
		v.MaxActive = clampPositiveInt(*cfg.MaxActive, v.Copies)
	} else {
		v.MaxActive = v.Copies
	}
	if cfg.Seats != nil {
		v.Seats = clampPositiveInt(*cfg.Seats, fallback.Seats)
	}
	v.Metadata = cfg.Metadata.clone()
	return v
}

func variantIndexID(index int) string {
	return "variant-" + strconv.Itoa(index)
}

// BuildVariantPool returns the selection-ready variants for a template. The
// pool is never empty: templates without authored variants get a synthetic
// default.
func BuildVariantPool(template *Template) []Variant {
	if template == nil {
		return nil
	}
	var configs []VariantConfig
	if template.Market != nil {
		configs = template.Market.Variants
	}
	if len(configs) == 0 {
		return []Variant{defaultVariant(template)}
	}
	pool := make([]Variant, 0, len(configs))
	for i, cfg := range configs {
		pool = append(pool, normalizeVariant(cfg, i, template))
	}
	return pool
}

// SelectVariantFromPool performs a weighted random draw. Non-positive
// weights count as zero; if all mass is gone the first variant wins
// deterministically. The roll is clamped just below 1 so the cumulative walk
// cannot fall off the end, and the last variant backstops any remaining
// floating-point edge.
func SelectVariantFromPool(variants []Variant, rng func() float64) *Variant {
	if len(variants) == 0 {
		return nil
	}
	if len(variants) == 1 {
		return &variants[0]
	}

	total := 0.0
	for _, v := range variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total <= 0 {
		return &variants[0]
	}

	roll := 0.0
	if rng != nil {
		roll = rng()
	}
	if roll < 0 {
		roll = 0
	}
	if roll > 0.9999999999 {
		roll = 0.9999999999
	}
	target := roll * total

	cumulative := 0.0
	for i := range variants {
		if variants[i].Weight > 0 {
			cumulative += variants[i].Weight
		}
		if target < cumulative {
			return &variants[i]
		}
	}
	return &variants[len(variants)-1]
}
