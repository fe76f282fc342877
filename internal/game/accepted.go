package game

import (
	"fmt"

	"github.com/google/uuid"
)

// AcceptedEntry is the market-side record created when a player claims an
// offer. It owns the claim lifecycle: the offer only mirrors it.
type AcceptedEntry struct {
	ID           string `json:"id"`
	OfferID      string `json:"offerId"`
	TemplateID   string `json:"templateId"`
	DefinitionID string `json:"definitionId"`
	VariantID    string `json:"variantId"`
	InstanceID   string `json:"instanceId,omitempty"`

	AcceptedOnDay int `json:"acceptedOnDay"`
	DeadlineDay   int `json:"deadlineDay"`

	HoursRequired float64  `json:"hoursRequired"`
	HoursLogged   *float64 `json:"hoursLogged,omitempty"`

	Payout          PayoutTerms `json:"payout"`
	PayoutAwarded   *float64    `json:"payoutAwarded,omitempty"`
	PayoutPaid      bool        `json:"payoutPaid"`
	PayoutPaidOnDay *int        `json:"payoutPaidOnDay,omitempty"`

	Status         EntryStatus         `json:"status"`
	CompletedOnDay *int                `json:"completedOnDay,omitempty"`
	Completion     *CompletionSnapshot `json:"completion,omitempty"`

	Seats            int       `json:"seats"`
	TemplateCategory string    `json:"templateCategory,omitempty"`
	Metadata         *Metadata `json:"metadata,omitempty"`
}

// CompletionSnapshot records when and with how many hours an entry closed.
type CompletionSnapshot struct {
	Day         *int     `json:"day,omitempty"`
	HoursLogged *float64 `json:"hoursLogged,omitempty"`
}

// Clone deep-copies an accepted entry.
func (e *AcceptedEntry) Clone() *AcceptedEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.HoursLogged = cloneFloat(e.HoursLogged)
	out.PayoutAwarded = cloneFloat(e.PayoutAwarded)
	out.PayoutPaidOnDay = cloneInt(e.PayoutPaidOnDay)
	out.CompletedOnDay = cloneInt(e.CompletedOnDay)
	out.Payout = e.Payout.clone()
	out.Metadata = e.Metadata.Clone()
	if e.Completion != nil {
		out.Completion = &CompletionSnapshot{
			Day:         cloneInt(e.Completion.Day),
			HoursLogged: cloneFloat(e.Completion.HoursLogged),
		}
	}
	return &out
}

// normalizeAcceptedEntry sanitizes a persisted entry. Returns nil if the
// entry lacks the references needed to mean anything.
func normalizeAcceptedEntry(entry *AcceptedEntry, fallbackDay int) *AcceptedEntry {
	if entry == nil || entry.OfferID == "" || entry.TemplateID == "" {
		return nil
	}

	if entry.VariantID == "" {
		entry.VariantID = "default"
	}
	if entry.DefinitionID == "" {
		entry.DefinitionID = entry.TemplateID
	}

	entry.AcceptedOnDay = clampDay(entry.AcceptedOnDay, clampDay(fallbackDay, 1))
	entry.DeadlineDay = clampDay(entry.DeadlineDay, entry.AcceptedOnDay)
	entry.HoursRequired = clampNonNegative(entry.HoursRequired, 0)

	if entry.Payout.Amount != nil {
		amount := clampNonNegative(*entry.Payout.Amount, 0)
		entry.Payout.Amount = &amount
	}
	if entry.Payout.Schedule == "" {
		entry.Payout.Schedule = PayoutOnCompletion
	}
	if entry.PayoutAwarded != nil {
		awarded := clampNonNegative(*entry.PayoutAwarded, floatValue(entry.Payout.Amount, 0))
		entry.PayoutAwarded = &awarded
	}
	if entry.PayoutPaidOnDay != nil {
		paidOn := clampDay(*entry.PayoutPaidOnDay, entry.AcceptedOnDay)
		entry.PayoutPaidOnDay = &paidOn
	}

	entry.Seats = clampPositiveInt(entry.Seats, 1)

	if entry.CompletedOnDay != nil {
		completedOn := clampDay(*entry.CompletedOnDay, entry.AcceptedOnDay)
		entry.CompletedOnDay = &completedOn
	}
	if entry.HoursLogged != nil {
		logged := clampNonNegative(*entry.HoursLogged, entry.HoursRequired)
		entry.HoursLogged = &logged
	}
	if entry.Completion != nil {
		if entry.Completion.Day == nil && entry.CompletedOnDay != nil {
			entry.Completion.Day = cloneInt(entry.CompletedOnDay)
		}
		if entry.Completion.HoursLogged == nil && entry.HoursLogged != nil {
			entry.Completion.HoursLogged = cloneFloat(entry.HoursLogged)
		}
	}

	// Status never reverts from complete; anything else re-derives against
	// the deadline during store normalization.
	if entry.Status != EntryComplete && entry.Status != EntryExpired {
		entry.Status = EntryActive
	}

	if entry.ID == "" {
		entry.ID = fmt.Sprintf("accepted-%s-%s", entry.OfferID, uuid.NewString())
	}

	return entry
}

// ClaimDetails carries optional overrides supplied when claiming an offer.
type ClaimDetails struct {
	AcceptedOnDay *int
	DeadlineDay   *int
	HoursRequired *float64
	InstanceID    string
	Payout        *PayoutTerms
	Metadata      *Metadata
}

// createAcceptedEntryFromOffer builds the accepted entry for one claim.
// Acceptance day defaults to the current game day, the deadline to the
// offer's expiry.
func createAcceptedEntryFromOffer(offer *Offer, details ClaimDetails, fallbackDay int) *AcceptedEntry {
	if offer == nil {
		return nil
	}

	hoursRequired := 0.0
	if details.HoursRequired != nil {
		hoursRequired = *details.HoursRequired
	} else if offer.Metadata != nil && offer.Metadata.HoursRequired != nil {
		hoursRequired = *offer.Metadata.HoursRequired
	}

	payout := PayoutTerms{}
	if details.Payout != nil {
		payout = details.Payout.clone()
	} else if offer.Metadata != nil {
		payout = offer.Metadata.Payout.clone()
	}

	metadata := details.Metadata
	if metadata == nil {
		metadata = offer.Metadata
	}

	instanceID := details.InstanceID
	if instanceID == "" {
		instanceID = offer.InstanceID
	}

	entry := &AcceptedEntry{
		OfferID:          offer.ID,
		TemplateID:       offer.TemplateID,
		DefinitionID:     offer.DefinitionID,
		VariantID:        offer.VariantID,
		InstanceID:       instanceID,
		AcceptedOnDay:    intValue(details.AcceptedOnDay, clampDay(fallbackDay, 1)),
		DeadlineDay:      intValue(details.DeadlineDay, offer.ExpiresOnDay),
		HoursRequired:    hoursRequired,
		Payout:           payout,
		Seats:            offer.Seats,
		TemplateCategory: offer.TemplateCategory,
		Metadata:         metadata.Clone(),
		Status:           EntryActive,
	}
	return normalizeAcceptedEntry(entry, fallbackDay)
}

// EntryIdentifiers selects accepted entries by any known reference.
type EntryIdentifiers struct {
	OfferID    string
	AcceptedID string
	InstanceID string
}

func (ids EntryIdentifiers) empty() bool {
	return ids.OfferID == "" && ids.AcceptedID == "" && ids.InstanceID == ""
}

func (ids EntryIdentifiers) matches(entry *AcceptedEntry) bool {
	if entry == nil {
		return false
	}
	if ids.OfferID != "" && entry.OfferID == ids.OfferID {
		return true
	}
	if ids.AcceptedID != "" && entry.ID == ids.AcceptedID {
		return true
	}
	if ids.InstanceID != "" && entry.InstanceID == ids.InstanceID {
		return true
	}
	return false
}

// removeAcceptedEntries removes every matching entry. There should be at
// most one per identifier, but stale saves may carry duplicates.
func removeAcceptedEntries(cs *CategoryState, ids EntryIdentifiers) []*AcceptedEntry {
	if cs == nil {
		return nil
	}
	var removed []*AcceptedEntry
	kept := cs.Accepted[:0]
	for _, entry := range cs.Accepted {
		if ids.matches(entry) {
			removed = append(removed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	cs.Accepted = kept
	return removed
}

// completeAcceptedEntry finalizes an entry. Safe to call again on an
// already-complete entry; the status transition is monotonic.
func completeAcceptedEntry(entry *AcceptedEntry, completionDay *int, hoursLogged *float64, fallbackDay int) *AcceptedEntry {
	if entry == nil {
		return nil
	}

	day := clampDay(fallbackDay, clampDay(entry.AcceptedOnDay, 1))
	resolvedDay := clampDay(intValue(completionDay, day), entry.AcceptedOnDay)

	entry.Status = EntryComplete
	entry.CompletedOnDay = &resolvedDay
	if hoursLogged != nil {
		logged := clampNonNegative(*hoursLogged, entry.HoursRequired)
		entry.HoursLogged = &logged
	}
	if entry.Completion == nil {
		entry.Completion = &CompletionSnapshot{}
	}
	entry.Completion.Day = Int(resolvedDay)
	entry.Completion.HoursLogged = cloneFloat(entry.HoursLogged)

	return entry
}
