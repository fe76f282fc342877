package game

import "sort"

// ensureCategoryState is the single normalization entry point for market
// state. Every read and write goes through it first, so offers and entries
// are never acted on while stale relative to the current day.
//
// Pass order matters: entries are normalized before offers so offer
// decoration sees final entry status, and orphan filtering runs last so
// completed/expired history survives offer garbage collection.
func ensureCategoryState(state *State, category string, fallbackDay int) *CategoryState {
	key := normalizeCategoryKey(category)
	market := ensureActionMarket(state)

	cs, ok := market.Categories[key]
	if !ok || cs == nil {
		cs = defaultCategoryState(key)
		market.Categories[key] = cs
	}
	cs.Category = key

	day := clampDay(fallbackDay, 1)
	cs.LastRolledOnDay = clampDaySpan(cs.LastRolledOnDay, 0)
	cs.LastRolledAt = clampTimestamp(cs.LastRolledAt)

	// Accepted entries first. Past-deadline entries flip to expired; the
	// transition is one-way because the game day only moves forward.
	normalizedAccepted := cs.Accepted[:0]
	for _, raw := range cs.Accepted {
		entry := normalizeAcceptedEntry(raw, day)
		if entry == nil {
			continue
		}
		if entry.Status != EntryComplete && entry.DeadlineDay < day {
			entry.Status = EntryExpired
		}
		normalizedAccepted = append(normalizedAccepted, entry)
	}
	cs.Accepted = normalizedAccepted

	byOffer := make(map[string]*AcceptedEntry, len(cs.Accepted))
	for _, entry := range cs.Accepted {
		byOffer[entry.OfferID] = entry
	}

	// Offers: drop expired, dedupe on the composite key, re-project claim
	// state from the surviving entries.
	seen := make(map[string]struct{}, len(cs.Offers))
	liveOffers := cs.Offers[:0]
	offerIDs := make(map[string]struct{}, len(cs.Offers))
	for _, raw := range cs.Offers {
		offer := normalizeOffer(raw, cs.LastRolledAt, day)
		if offer == nil || offer.ExpiresOnDay < day {
			continue
		}
		dedupeKey := offer.TemplateID + "::" + offer.VariantID + "::" + offer.ID
		if _, dup := seen[dedupeKey]; dup {
			continue
		}
		seen[dedupeKey] = struct{}{}

		decorateOfferWithAccepted(offer, byOffer[offer.ID])
		offer.Seats = clampPositiveInt(offer.Seats, 1)
		if offer.TemplateCategory == "" {
			offer.TemplateCategory = key
		}
		liveOffers = append(liveOffers, offer)
		offerIDs[offer.ID] = struct{}{}
	}
	cs.Offers = liveOffers

	// Entries whose offer was pruned are dropped unless they carry history
	// worth keeping for display.
	keptAccepted := cs.Accepted[:0]
	for _, entry := range cs.Accepted {
		if _, live := offerIDs[entry.OfferID]; live || entry.Status == EntryComplete || entry.Status == EntryExpired {
			keptAccepted = append(keptAccepted, entry)
		}
	}
	cs.Accepted = keptAccepted

	return cs
}

// findOffer returns the live offer with the given id, if any.
func (cs *CategoryState) findOffer(offerID string) *Offer {
	if cs == nil || offerID == "" {
		return nil
	}
	for _, offer := range cs.Offers {
		if offer.ID == offerID {
			return offer
		}
	}
	return nil
}

func (cs *CategoryState) findEntryByInstance(instanceID string) *AcceptedEntry {
	if cs == nil || instanceID == "" {
		return nil
	}
	for _, entry := range cs.Accepted {
		if entry.InstanceID == instanceID {
			return entry
		}
	}
	return nil
}

// ClaimOffer claims a live offer, creating (or replacing) its accepted
// entry. Claims of unknown or already-pruned offers fail softly with
// ErrOfferNotFound; players race against offer expiry all the time.
func ClaimOffer(state *State, category, offerID string, details ClaimDetails) (*AcceptedEntry, error) {
	day := state.CurrentDay()
	cs := ensureCategoryState(state, category, day)

	offer := cs.findOffer(offerID)
	if offer == nil {
		return nil, ErrOfferNotFound
	}

	entry := createAcceptedEntryFromOffer(offer, details, day)
	if entry == nil {
		return nil, ErrOfferNotFound
	}

	// Upsert by offer id so a release-then-reclaim replaces the stale entry.
	removeAcceptedEntries(cs, EntryIdentifiers{OfferID: offer.ID})
	cs.Accepted = append(cs.Accepted, entry)
	decorateOfferWithAccepted(offer, entry)

	return entry, nil
}

// ReleaseOffer withdraws a claim, restoring the offer to available. At
// least one identifier is required.
func ReleaseOffer(state *State, category string, ids EntryIdentifiers) (bool, error) {
	if ids.empty() {
		return false, ErrIdentifierRequired
	}
	cs := ensureCategoryState(state, category, state.CurrentDay())

	removed := removeAcceptedEntries(cs, ids)
	for _, entry := range removed {
		if offer := cs.findOffer(entry.OfferID); offer != nil {
			decorateOfferWithAccepted(offer, nil)
		}
	}
	return len(removed) > 0, nil
}

// CompleteMarketInstance marks the accepted entry tied to an instance as
// complete and re-projects its offer. Idempotent: completing an
// already-complete entry only refreshes the completion snapshot.
func CompleteMarketInstance(state *State, category, instanceID string, completionDay *int, hoursLogged *float64) (*AcceptedEntry, error) {
	day := state.CurrentDay()
	cs := ensureCategoryState(state, category, day)

	entry := cs.findEntryByInstance(instanceID)
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	completeAcceptedEntry(entry, completionDay, hoursLogged, day)
	if offer := cs.findOffer(entry.OfferID); offer != nil {
		decorateOfferWithAccepted(offer, entry)
	}
	return entry, nil
}

// OfferQuery filters the available-offer selectors.
type OfferQuery struct {
	Day             int
	IncludeUpcoming bool
	IncludeClaimed  bool
}

// AvailableOffers returns cloned offers visible in one category.
func AvailableOffers(state *State, category string, q OfferQuery) []*Offer {
	day := clampDay(q.Day, state.CurrentDay())
	cs := ensureCategoryState(state, category, day)

	var out []*Offer
	for _, offer := range cs.Offers {
		if offer.ExpiresOnDay < day {
			continue
		}
		if offer.Claimed && !q.IncludeClaimed {
			continue
		}
		if offer.AvailableOnDay > day && !q.IncludeUpcoming {
			continue
		}
		out = append(out, offer.Clone())
	}
	return out
}

// EntryQuery filters the claimed-entry selectors.
type EntryQuery struct {
	Day              int
	IncludeExpired   bool
	IncludeCompleted bool
}

// ClaimedOffers returns cloned accepted entries for one category.
func ClaimedOffers(state *State, category string, q EntryQuery) []*AcceptedEntry {
	day := clampDay(q.Day, state.CurrentDay())
	cs := ensureCategoryState(state, category, day)

	var out []*AcceptedEntry
	for _, entry := range cs.Accepted {
		if entry.Status == EntryComplete {
			if !q.IncludeCompleted {
				continue
			}
		} else if entry.Status == EntryExpired || entry.DeadlineDay < day {
			if !q.IncludeExpired {
				continue
			}
		}
		out = append(out, entry.Clone())
	}
	return out
}

// CategoryKeys returns every known category in stable order.
func CategoryKeys(state *State) []string {
	market := ensureActionMarket(state)
	keys := make([]string, 0, len(market.Categories))
	for key := range market.Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FindEntryByInstance searches every category for the entry tied to an
// instance. Used by the payout bridge, which only knows the instance.
func FindEntryByInstance(state *State, instanceID string) (*AcceptedEntry, string) {
	if instanceID == "" {
		return nil, ""
	}
	day := state.CurrentDay()
	for _, key := range CategoryKeys(state) {
		cs := ensureCategoryState(state, key, day)
		if entry := cs.findEntryByInstance(instanceID); entry != nil {
			return entry, key
		}
	}
	return nil, ""
}
