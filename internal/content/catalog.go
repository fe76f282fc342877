// Package content holds the authored template catalog. Templates here are
// static data; everything dynamic lives in game state.
package content

import "sidegig/internal/game"

// Categories used by the stock catalog.
const (
	CategoryHustle = "hustle"
	CategoryStudy  = "study"
)

// Catalog returns the stock template set. The returned registry is freshly
// built on every call so callers may register extra templates without
// affecting each other.
func Catalog() *game.Registry {
	return game.NewRegistry(
		freelanceWriting(),
		rideshareShift(),
		webContract(),
		codingBootcamp(),
		communityWorkshop(),
	)
}

// freelanceWriting is an instant gig with weighted quality tiers. Rush jobs
// are rare but pay disproportionately well.
func freelanceWriting() *game.Template {
	return &game.Template{
		ID:          "freelance-writing",
		Name:        "Freelance Writing",
		Description: "Short-form articles for content mills and trade blogs.",
		Time:        game.Float(3),
		Payout: &game.PayoutTerms{
			Amount:   game.Float(25),
			Schedule: game.PayoutOnCompletion,
		},
		Market: &game.MarketConfig{
			Category: CategoryHustle,
			Variants: []game.VariantConfig{
				{
					ID:     "standard",
					Label:  "Blog Post",
					Weight: game.Float(5),
				},
				{
					ID:     "longform",
					Label:  "Longform Feature",
					Weight: game.Float(2),
					Metadata: &game.MetadataSource{
						HoursRequired: game.Float(5),
						PayoutAmount:  game.Float(60),
					},
				},
				{
					ID:     "rush",
					Label:  "Rush Rewrite",
					Weight: game.Float(1),
					Metadata: &game.MetadataSource{
						HoursRequired: game.Float(2),
						PayoutAmount:  game.Float(45),
					},
					DurationDays: game.Int(0),
				},
			},
		},
	}
}

// rideshareShift is a same-day gig that rolls multiple copies so the board
// rarely runs dry.
func rideshareShift() *game.Template {
	return &game.Template{
		ID:          "rideshare-shift",
		Name:        "Rideshare Shift",
		Description: "Evening driving around the stadium district.",
		Time:        game.Float(4),
		Payout: &game.PayoutTerms{
			Amount:   game.Float(48),
			Schedule: game.PayoutOnCompletion,
		},
		Market: &game.MarketConfig{
			Category:  CategoryHustle,
			MaxActive: game.Int(3),
			Variants: []game.VariantConfig{
				{
					ID:     "weeknight",
					Label:  "Weeknight Shift",
					Weight: game.Float(3),
					Copies: game.Int(2),
				},
				{
					ID:     "surge",
					Label:  "Surge Shift",
					Weight: game.Float(1),
					Metadata: &game.MetadataSource{
						PayoutAmount: game.Float(72),
					},
				},
			},
		},
	}
}

// webContract is a multi-day commitment gated on logged hours, with a
// deadline inherited from the offer's expiry window.
func webContract() *game.Template {
	return &game.Template{
		ID:          "web-contract",
		Name:        "Web Contract",
		Description: "Small-business site builds with a hard delivery date.",
		Payout: &game.PayoutTerms{
			Amount:   game.Float(260),
			Schedule: game.PayoutOnCompletion,
		},
		Progress: &game.ProgressSpec{
			Type:          "project",
			Completion:    "manual",
			HoursRequired: game.Float(12),
			Label:         "Client build",
		},
		Market: &game.MarketConfig{
			Category:     CategoryHustle,
			DurationDays: 4,
			MaxActive:    game.Int(1),
			Variants: []game.VariantConfig{
				{
					ID:     "brochure",
					Label:  "Brochure Site",
					Weight: game.Float(3),
				},
				{
					ID:     "storefront",
					Label:  "Storefront Build",
					Weight: game.Float(1),
					Metadata: &game.MetadataSource{
						HoursRequired: game.Float(18),
						PayoutAmount:  game.Float(420),
					},
					DurationDays: game.Int(6),
				},
			},
		},
	}
}

// codingBootcamp is a manual study track: no declared requirement, so it
// never auto-completes and only a deliberate completion call ends it.
func codingBootcamp() *game.Template {
	return &game.Template{
		ID:          "coding-bootcamp",
		Name:        "Coding Bootcamp",
		Description: "Self-paced backend curriculum. Finish when you are ready.",
		Progress: &game.ProgressSpec{
			Type:       "study",
			Completion: "manual",
			Label:      "Curriculum progress",
		},
		Market: &game.MarketConfig{
			Category:     CategoryStudy,
			DurationDays: 13,
			MaxActive:    game.Int(1),
		},
	}
}

// communityWorkshop is a cadence track: show up two hours a day for five
// days. It also offers multiple seats per posting.
func communityWorkshop() *game.Template {
	return &game.Template{
		ID:          "community-workshop",
		Name:        "Community Workshop",
		Description: "Teach an evening class at the neighborhood makerspace.",
		Payout: &game.PayoutTerms{
			Amount:   game.Float(150),
			Schedule: game.PayoutOnCompletion,
		},
		Progress: &game.ProgressSpec{
			Type:         "commitment",
			Completion:   "auto",
			HoursPerDay:  game.Float(2),
			DaysRequired: game.Int(5),
			Label:        "Workshop sessions",
		},
		Market: &game.MarketConfig{
			Category:     CategoryStudy,
			DurationDays: 6,
			Seats:        game.Int(2),
			Variants: []game.VariantConfig{
				{
					ID:     "woodshop",
					Label:  "Woodshop Basics",
					Weight: game.Float(2),
				},
				{
					ID:     "electronics",
					Label:  "Intro Electronics",
					Weight: game.Float(1),
					Metadata: &game.MetadataSource{
						PayoutAmount: game.Float(190),
					},
				},
			},
		},
	}
}
