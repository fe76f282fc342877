package game

import (
	"math/rand"
	"sort"
)

// RollAuditLimit caps the retained per-roll audit records.
const RollAuditLimit = 20

// RollAudit records what one daily roll did, for debugging offer droughts.
type RollAudit struct {
	Category  string              `json:"category"`
	Day       int                 `json:"day"`
	Timestamp int64               `json:"timestamp"`
	Preserved int                 `json:"preserved"`
	Created   int                 `json:"created"`
	Templates []TemplateRollAudit `json:"templates,omitempty"`
}

// TemplateRollAudit explains what happened to one template during a roll.
type TemplateRollAudit struct {
	TemplateID     string `json:"templateId"`
	SlotsRequested int    `json:"slotsRequested"`
	ExistingActive int    `json:"existingActive"`
	Added          int    `json:"added"`
	Skipped        bool   `json:"skipped"`
	Reason         string `json:"reason,omitempty"`
}

type templateActivity struct {
	total    int
	variants map[string]int
}

// RollParams configures one daily roll.
type RollParams struct {
	Templates []*Template
	Category  string
	Day       int
	Timestamp int64
	Rand      *rand.Rand
}

// rollAuditLog lives on the engine, not the state tree; it is a debugging
// aid, not save data.

// RollDailyOffers tops a category up to capacity for one day. Unexpired
// offers survive the roll so players never lose a multi-day offer to a date
// change; only the gap up to slotsPerRoll/maxActive is filled with fresh
// draws.
func RollDailyOffers(state *State, p RollParams) ([]*Offer, *RollAudit) {
	day := clampDay(p.Day, state.CurrentDay())
	cs := ensureCategoryState(state, p.Category, day)

	timestamp := clampTimestamp(p.Timestamp)
	rng := func() float64 { return rand.Float64() }
	if p.Rand != nil {
		rng = p.Rand.Float64
	}

	preserved := make([]*Offer, 0, len(cs.Offers))
	for _, offer := range cs.Offers {
		if isOfferActiveOnOrAfterDay(offer, day) {
			preserved = append(preserved, offer.Clone())
		}
	}

	// Tally unclaimed preserved offers per template/variant; claims hold a
	// seat and no longer count against roll capacity.
	activity := map[string]*templateActivity{}
	for _, offer := range preserved {
		if offer.Claimed {
			continue
		}
		act, ok := activity[offer.TemplateID]
		if !ok {
			act = &templateActivity{variants: map[string]int{}}
			activity[offer.TemplateID] = act
		}
		act.total++
		act.variants[offer.VariantID]++
	}

	audit := &RollAudit{Category: cs.Category, Day: day, Timestamp: timestamp}

	for _, template := range p.Templates {
		if template == nil || template.ID == "" {
			continue
		}
		act, ok := activity[template.ID]
		if !ok {
			act = &templateActivity{variants: map[string]int{}}
			activity[template.ID] = act
		}

		variants := BuildVariantPool(template)
		slotsPerRoll := 1
		maxActiveDefault := len(variants)
		if template.Market != nil {
			slotsPerRoll = clampPositiveInt(template.Market.SlotsPerRoll, 1)
		}
		if slotsPerRoll > maxActiveDefault {
			maxActiveDefault = slotsPerRoll
		}
		maxActive := maxActiveDefault
		if template.Market != nil && template.Market.MaxActive != nil {
			maxActive = clampPositiveInt(*template.Market.MaxActive, maxActiveDefault)
		}

		ta := TemplateRollAudit{
			TemplateID:     template.ID,
			SlotsRequested: slotsPerRoll,
			ExistingActive: act.total,
		}

		capacity := maxActive - act.total
		if capacity < 0 {
			capacity = 0
		}
		slotsRemaining := slotsPerRoll
		if capacity < slotsRemaining {
			slotsRemaining = capacity
		}
		if slotsRemaining <= 0 {
			ta.Skipped = true
			ta.Reason = "maxActiveReached"
			audit.Templates = append(audit.Templates, ta)
			continue
		}

		pending := map[string]int{}
		for slotsRemaining > 0 {
			eligible := make([]Variant, 0, len(variants))
			for _, v := range variants {
				if v.MaxActive-act.variants[v.ID]-pending[v.ID] > 0 {
					eligible = append(eligible, v)
				}
			}
			if len(eligible) == 0 {
				if ta.Reason == "" {
					ta.Reason = "variantCapacityReached"
				}
				break
			}

			selected := SelectVariantFromPool(eligible, rng)
			if selected == nil {
				if ta.Reason == "" {
					ta.Reason = "selectionFailed"
				}
				break
			}

			variantCapacity := selected.MaxActive - act.variants[selected.ID] - pending[selected.ID]
			if variantCapacity < 0 {
				variantCapacity = 0
			}
			spawn := selected.Copies
			if variantCapacity < spawn {
				spawn = variantCapacity
			}
			if slotsRemaining < spawn {
				spawn = slotsRemaining
			}
			if spawn <= 0 {
				if ta.Reason == "" {
					ta.Reason = "noCapacity"
				}
				break
			}

			for i := 0; i < spawn; i++ {
				offer := CreateOfferFromVariant(template, selected, day, timestamp)
				preserved = append(preserved, offer)
				ta.Added++
			}
			pending[selected.ID] += spawn
			slotsRemaining -= spawn
		}

		for variantID, added := range pending {
			if added <= 0 {
				continue
			}
			act.variants[variantID] += added
			act.total += added
		}

		if ta.Added == 0 {
			ta.Skipped = true
			if ta.Reason == "" {
				ta.Reason = "noOffersSpawned"
			}
		}
		audit.Templates = append(audit.Templates, ta)
	}

	// Deterministic display order regardless of draw order.
	sort.Slice(preserved, func(i, j int) bool {
		a, b := preserved[i], preserved[j]
		if a.AvailableOnDay != b.AvailableOnDay {
			return a.AvailableOnDay < b.AvailableOnDay
		}
		if a.TemplateID != b.TemplateID {
			return a.TemplateID < b.TemplateID
		}
		if a.VariantID != b.VariantID {
			return a.VariantID < b.VariantID
		}
		return a.ID < b.ID
	})

	cs.Offers = cs.Offers[:0]
	for _, offer := range preserved {
		if normalized := normalizeOffer(offer, timestamp, day); normalized != nil {
			cs.Offers = append(cs.Offers, normalized)
		}
	}
	cs.LastRolledAt = timestamp
	cs.LastRolledOnDay = day

	created := 0
	for _, offer := range cs.Offers {
		if offer.RolledOnDay == day {
			created++
		}
	}
	audit.Created = created
	audit.Preserved = len(cs.Offers) - created

	out := make([]*Offer, 0, len(cs.Offers))
	for _, offer := range cs.Offers {
		out = append(out, offer.Clone())
	}
	return out, audit
}

// EnsureDailyOffers rolls a category at most once per day. A store that
// already rolled today and still has offers is returned untouched.
func EnsureDailyOffers(state *State, p RollParams) ([]*Offer, *RollAudit) {
	day := clampDay(p.Day, state.CurrentDay())
	cs := ensureCategoryState(state, p.Category, day)

	if cs.LastRolledOnDay == day && len(cs.Offers) > 0 {
		out := make([]*Offer, 0, len(cs.Offers))
		for _, offer := range cs.Offers {
			out = append(out, offer.Clone())
		}
		return out, nil
	}

	p.Day = day
	return RollDailyOffers(state, p)
}
