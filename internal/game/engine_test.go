package game

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *Registry {
	tutoring := &Template{
		ID:     "tutoring",
		Name:   "Evening Tutoring",
		Time:   Float(2),
		Payout: &PayoutTerms{Amount: Float(30), Schedule: PayoutOnCompletion},
		Market: &MarketConfig{
			Category:     "hustle",
			SlotsPerRoll: 2,
			MaxActive:    Int(3),
			DurationDays: 2,
		},
	}
	seminar := &Template{
		ID:   "seminar",
		Name: "Craft Seminar",
		Progress: &ProgressSpec{
			Type:         "study",
			HoursPerDay:  Float(1),
			DaysRequired: Int(2),
		},
		Market: &MarketConfig{
			Category:     "study",
			DurationDays: 6,
		},
	}
	return NewRegistry(tutoring, seminar)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(testCatalog(), testLogger())
	e.Seed(1)
	return e
}

func TestEngineClaimLogComplete(t *testing.T) {
	e := newTestEngine(t)

	offers := e.EnsureOffers("hustle")
	if len(offers) == 0 {
		t.Fatal("ensure produced no offers")
	}

	result, err := e.Claim("hustle", offers[0].ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.Instance == nil || result.Entry.InstanceID != result.Instance.ID {
		t.Fatalf("claim result not linked: %+v", result)
	}
	if result.Instance.HoursRequired == nil || *result.Instance.HoursRequired != 2 {
		t.Fatalf("hoursRequired = %v", result.Instance.HoursRequired)
	}

	advance, err := e.LogHours("tutoring", result.Instance.ID, nil, 2)
	if err != nil {
		t.Fatalf("log hours failed: %v", err)
	}
	if !advance.Completed {
		t.Fatal("two hours should complete the gig")
	}
	if e.Money() != 30 {
		t.Fatalf("money = %v", e.Money())
	}

	claimed := e.Claimed("hustle", EntryQuery{IncludeCompleted: true})
	if len(claimed) != 1 || claimed[0].Status != EntryComplete || !claimed[0].PayoutPaid {
		t.Fatalf("claimed = %+v", claimed)
	}
}

func TestEngineClaimErrors(t *testing.T) {
	e := newTestEngine(t)
	offers := e.EnsureOffers("hustle")

	if _, err := e.Claim("hustle", "no-such-offer"); err != ErrOfferNotFound {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}

	if _, err := e.Claim("hustle", offers[0].ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := e.Claim("hustle", offers[0].ID); err != ErrOfferClaimed {
		t.Fatalf("expected ErrOfferClaimed, got %v", err)
	}
}

func TestEngineReleaseAbandonsInstance(t *testing.T) {
	e := newTestEngine(t)
	offers := e.EnsureOffers("hustle")

	result, err := e.Claim("hustle", offers[0].ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if len(e.Instances("tutoring")) != 1 {
		t.Fatal("claim should create an instance")
	}

	released, err := e.Release("hustle", EntryIdentifiers{OfferID: offers[0].ID})
	if err != nil || !released {
		t.Fatalf("release: %v %v", released, err)
	}
	if len(e.Instances("tutoring")) != 0 {
		t.Fatal("release should abandon the linked instance")
	}
	_ = result

	reOffers := e.Offers("hustle", OfferQuery{})
	found := false
	for _, offer := range reOffers {
		if offer.ID == offers[0].ID {
			found = true
			if offer.Claimed {
				t.Fatal("released offer should be available again")
			}
		}
	}
	if !found {
		t.Fatal("released offer missing from the available pool")
	}
}

func TestEngineAbandonReleasesClaim(t *testing.T) {
	e := newTestEngine(t)
	offers := e.EnsureOffers("hustle")
	result, err := e.Claim("hustle", offers[0].ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if !e.Abandon("tutoring", result.Instance.ID) {
		t.Fatal("abandon failed")
	}
	if entries := e.Claimed("hustle", EntryQuery{}); len(entries) != 0 {
		t.Fatalf("market entry should be gone, got %+v", entries)
	}
}

func TestEngineEndDay(t *testing.T) {
	e := newTestEngine(t)

	summary := e.EndDay()
	if summary.Day != 2 || e.CurrentDay() != 2 {
		t.Fatalf("day = %d", summary.Day)
	}
	if summary.NewOffers == 0 {
		t.Fatal("day roll should create offers")
	}

	if len(e.Offers("hustle", OfferQuery{})) == 0 {
		t.Fatal("hustle category empty after day roll")
	}
	if len(e.Offers("study", OfferQuery{})) == 0 {
		t.Fatal("study category empty after day roll")
	}

	// Same-day re-ensure must not duplicate the pool.
	before := len(e.Offers("hustle", OfferQuery{IncludeUpcoming: true, IncludeClaimed: true}))
	e.EnsureOffers("hustle")
	after := len(e.Offers("hustle", OfferQuery{IncludeUpcoming: true, IncludeClaimed: true}))
	if before != after {
		t.Fatalf("pool size changed %d -> %d", before, after)
	}
}

func TestEngineSnapshotIsolation(t *testing.T) {
	e := newTestEngine(t)
	e.EnsureOffers("hustle")

	snap := e.Snapshot()
	snap.Money = 9999
	snap.ActionMarket.Categories["hustle"].Offers = nil

	if e.Money() == 9999 {
		t.Fatal("snapshot mutation leaked into the engine")
	}
	if len(e.Offers("hustle", OfferQuery{IncludeUpcoming: true})) == 0 {
		t.Fatal("engine pool damaged by snapshot mutation")
	}
}

func TestEngineLoadStateNormalizes(t *testing.T) {
	e := newTestEngine(t)

	// A malformed save: junk day, an offer missing fields, a stale entry.
	state := &State{
		Day: -4,
		ActionMarket: &ActionMarketState{Categories: map[string]*CategoryState{
			"hustle": {
				Offers:   []*Offer{{TemplateID: "tutoring", ExpiresOnDay: 9}},
				Accepted: []*AcceptedEntry{{}},
			},
		}},
	}
	e.LoadState(state)

	if e.CurrentDay() != 1 {
		t.Fatalf("day = %d", e.CurrentDay())
	}
	offers := e.Offers("hustle", OfferQuery{IncludeUpcoming: true})
	if len(offers) != 1 {
		t.Fatalf("offers = %+v", offers)
	}
	if offers[0].ID == "" || offers[0].VariantID != "default" {
		t.Fatalf("offer not repaired: %+v", offers[0])
	}
	if entries := e.Claimed("hustle", EntryQuery{IncludeExpired: true}); len(entries) != 0 {
		t.Fatalf("reference-less entry should drop, got %+v", entries)
	}
}
