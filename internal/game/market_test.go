package game

import (
	"reflect"
	"testing"
)

func seedOffer(state *State, category, id string, availableOn, expiresOn int) *Offer {
	cs := ensureCategoryState(state, category, state.CurrentDay())
	offer := &Offer{
		ID:             id,
		TemplateID:     "tpl",
		VariantID:      "default",
		DefinitionID:   "tpl",
		RolledOnDay:    availableOn,
		RolledAt:       1,
		AvailableOnDay: availableOn,
		ExpiresOnDay:   expiresOn,
		Metadata: &Metadata{
			HoursRequired: Float(4),
			Payout:        PayoutTerms{Amount: Float(25), Schedule: PayoutOnCompletion},
		},
		Seats:  1,
		Status: OfferAvailable,
	}
	cs.Offers = append(cs.Offers, offer)
	return offer
}

func TestClaimReleaseReclaim(t *testing.T) {
	state := NewState()
	seedOffer(state, "hustle", "O1", 1, 5)

	entry, err := ClaimOffer(state, "hustle", "O1", ClaimDetails{})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if entry.Status != EntryActive {
		t.Fatalf("status = %q", entry.Status)
	}
	if entry.DeadlineDay != 5 {
		t.Fatalf("deadline should default to offer expiry, got %d", entry.DeadlineDay)
	}

	cs := ensureCategoryState(state, "hustle", 1)
	offer := cs.findOffer("O1")
	if !offer.Claimed || offer.Status != OfferClaimed {
		t.Fatalf("offer not decorated: claimed=%v status=%q", offer.Claimed, offer.Status)
	}

	released, err := ReleaseOffer(state, "hustle", EntryIdentifiers{OfferID: "O1"})
	if err != nil || !released {
		t.Fatalf("release failed: %v %v", released, err)
	}
	offer = ensureCategoryState(state, "hustle", 1).findOffer("O1")
	if offer.Claimed || offer.Status != OfferAvailable {
		t.Fatalf("offer should revert to available, got claimed=%v status=%q", offer.Claimed, offer.Status)
	}

	second, err := ClaimOffer(state, "hustle", "O1", ClaimDetails{})
	if err != nil {
		t.Fatalf("re-claim failed: %v", err)
	}
	if second.ID == entry.ID {
		t.Fatal("re-claim should produce a fresh entry id")
	}
	if second.OfferID != "O1" {
		t.Fatalf("offerId = %q", second.OfferID)
	}
}

func TestReleaseRequiresIdentifier(t *testing.T) {
	state := NewState()
	if _, err := ReleaseOffer(state, "hustle", EntryIdentifiers{}); err != ErrIdentifierRequired {
		t.Fatalf("expected ErrIdentifierRequired, got %v", err)
	}
}

func TestEntryExpiresPastDeadline(t *testing.T) {
	state := NewState()
	seedOffer(state, "hustle", "O1", 1, 10)
	entry, err := ClaimOffer(state, "hustle", "O1", ClaimDetails{DeadlineDay: Int(3)})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if entry.DeadlineDay != 3 {
		t.Fatalf("deadline = %d", entry.DeadlineDay)
	}

	state.Day = 4
	cs := ensureCategoryState(state, "hustle", 4)
	if len(cs.Accepted) != 1 {
		t.Fatalf("entry count = %d", len(cs.Accepted))
	}
	if cs.Accepted[0].Status != EntryExpired {
		t.Fatalf("status = %q", cs.Accepted[0].Status)
	}

	// Expiry is one-way: rolling the clock back must not resurrect it.
	state.Day = 2
	cs = ensureCategoryState(state, "hustle", 2)
	if cs.Accepted[0].Status != EntryExpired {
		t.Fatalf("expired entry reverted to %q", cs.Accepted[0].Status)
	}
}

func TestOrphanEntryRetention(t *testing.T) {
	state := NewState()
	seedOffer(state, "hustle", "gone", 1, 2)
	if _, err := ClaimOffer(state, "hustle", "gone", ClaimDetails{InstanceID: "inst-1", DeadlineDay: Int(9)}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := CompleteMarketInstance(state, "hustle", "inst-1", Int(2), Float(4)); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// Day 5: the offer is long gone but the completed entry is history
	// worth keeping.
	state.Day = 5
	cs := ensureCategoryState(state, "hustle", 5)
	if len(cs.Offers) != 0 {
		t.Fatalf("expired offer should be pruned, got %d", len(cs.Offers))
	}
	if len(cs.Accepted) != 1 || cs.Accepted[0].Status != EntryComplete {
		t.Fatalf("completed entry should survive offer pruning: %+v", cs.Accepted)
	}

	// An active entry with no offer has no history and is dropped.
	other := NewState()
	seedOffer(other, "hustle", "gone2", 1, 2)
	if _, err := ClaimOffer(other, "hustle", "gone2", ClaimDetails{DeadlineDay: Int(9)}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	other.Day = 5
	cs = ensureCategoryState(other, "hustle", 5)
	if len(cs.Accepted) != 0 {
		t.Fatalf("orphan active entry should drop, got %+v", cs.Accepted)
	}
}

func TestCompleteMarketInstanceIdempotent(t *testing.T) {
	state := NewState()
	seedOffer(state, "hustle", "O1", 1, 5)
	if _, err := ClaimOffer(state, "hustle", "O1", ClaimDetails{InstanceID: "inst-1"}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	first, err := CompleteMarketInstance(state, "hustle", "inst-1", Int(2), Float(3.5))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if first.Status != EntryComplete || first.CompletedOnDay == nil || *first.CompletedOnDay != 2 {
		t.Fatalf("entry = %+v", first)
	}

	again, err := CompleteMarketInstance(state, "hustle", "inst-1", Int(2), Float(3.5))
	if err != nil {
		t.Fatalf("repeat complete failed: %v", err)
	}
	if again.Status != EntryComplete || *again.CompletedOnDay != 2 {
		t.Fatalf("repeat with same args should be a no-op, got %+v", again)
	}
	if again.HoursLogged == nil || *again.HoursLogged != 3.5 {
		t.Fatalf("hoursLogged = %v", again.HoursLogged)
	}

	offer := ensureCategoryState(state, "hustle", 1).findOffer("O1")
	if offer.Status != OfferComplete || offer.Claimed {
		t.Fatalf("offer projection = %+v", offer)
	}
}

func TestAvailableOffersFilters(t *testing.T) {
	state := NewState()
	seedOffer(state, "hustle", "now", 1, 5)
	seedOffer(state, "hustle", "later", 3, 7)
	if _, err := ClaimOffer(state, "hustle", "now", ClaimDetails{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	visible := AvailableOffers(state, "hustle", OfferQuery{Day: 1})
	if len(visible) != 0 {
		t.Fatalf("claimed and upcoming offers should be hidden, got %d", len(visible))
	}

	visible = AvailableOffers(state, "hustle", OfferQuery{Day: 1, IncludeUpcoming: true, IncludeClaimed: true})
	if len(visible) != 2 {
		t.Fatalf("got %d", len(visible))
	}
}

func TestNormalizeOfferFixedPoint(t *testing.T) {
	offer := &Offer{
		TemplateID:   "tpl",
		ExpiresOnDay: -3,
		Seats:        0,
	}
	once := normalizeOffer(offer.Clone(), 7, 2)
	twice := normalizeOffer(once.Clone(), 7, 2)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalization is not a fixed point:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if once.VariantID != "default" || once.DefinitionID != "tpl" {
		t.Fatalf("defaults not applied: %+v", once)
	}
	if once.ID == "" {
		t.Fatal("missing id should be generated")
	}
}
