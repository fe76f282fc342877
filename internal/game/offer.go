package game

import (
	"fmt"

	"github.com/google/uuid"
)

// Offer is a concrete, day-stamped market listing generated from a variant.
// Claim fields (Claimed, Status, InstanceID, ...) are a projection of the
// matching accepted entry; the entry is the source of truth and
// decorateOfferWithAccepted re-derives them on every normalization pass.
type Offer struct {
	ID           string `json:"id"`
	TemplateID   string `json:"templateId"`
	VariantID    string `json:"variantId"`
	DefinitionID string `json:"definitionId"`

	RolledOnDay    int   `json:"rolledOnDay"`
	RolledAt       int64 `json:"rolledAt"`
	AvailableOnDay int   `json:"availableOnDay"`
	ExpiresOnDay   int   `json:"expiresOnDay"`

	Metadata         *Metadata        `json:"metadata,omitempty"`
	Variant          *VariantSnapshot `json:"variant,omitempty"`
	TemplateCategory string           `json:"templateCategory,omitempty"`
	Seats            int              `json:"seats"`

	Claimed      bool        `json:"claimed"`
	ClaimedOnDay *int        `json:"claimedOnDay,omitempty"`
	InstanceID   string      `json:"instanceId,omitempty"`
	Status       OfferStatus `json:"status"`

	ClaimDeadlineDay      *int      `json:"claimDeadlineDay,omitempty"`
	ClaimMetadata         *Metadata `json:"claimMetadata,omitempty"`
	CompletedOnDay        *int      `json:"completedOnDay,omitempty"`
	CompletedInstanceID   string    `json:"completedInstanceId,omitempty"`
	CompletionHoursLogged *float64  `json:"completionHoursLogged,omitempty"`
}

// VariantSnapshot is the variant summary frozen onto an offer when it rolls.
type VariantSnapshot struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Seats       int    `json:"seats"`
}

// Clone deep-copies an offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	out := *o
	out.Metadata = o.Metadata.Clone()
	out.ClaimMetadata = o.ClaimMetadata.Clone()
	out.ClaimedOnDay = cloneInt(o.ClaimedOnDay)
	out.ClaimDeadlineDay = cloneInt(o.ClaimDeadlineDay)
	out.CompletedOnDay = cloneInt(o.CompletedOnDay)
	out.CompletionHoursLogged = cloneFloat(o.CompletionHoursLogged)
	if o.Variant != nil {
		v := *o.Variant
		out.Variant = &v
	}
	return &out
}

// CreateOfferFromVariant builds the concrete offer a roll produces for one
// variant on one day. The grace window keeps the offer claimable for a
// couple of days beyond its visible duration.
func CreateOfferFromVariant(template *Template, variant *Variant, day int, timestamp int64) *Offer {
	rolledOn := clampDay(day, 1)
	availableOn := rolledOn + clampDaySpan(variant.AvailableAfterDays, 0)
	expiresOn := availableOn + clampDaySpan(variant.DurationDays, 0) + OfferExpiryGraceDays

	definitionID := variant.DefinitionID
	if definitionID == "" {
		definitionID = template.ID
	}

	defaultSeats := 1
	if template.Market != nil && template.Market.Seats != nil {
		defaultSeats = clampPositiveInt(*template.Market.Seats, 1)
	} else if variant.Seats > 0 {
		defaultSeats = variant.Seats
	}
	seats := clampPositiveInt(variant.Seats, defaultSeats)

	meta := ResolveMetadata(template, variant)
	meta.Seats = seats

	offer := &Offer{
		ID:             fmt.Sprintf("offer-%s-%s-%s", definitionID, variant.ID, uuid.NewString()),
		TemplateID:     template.ID,
		VariantID:      variant.ID,
		DefinitionID:   definitionID,
		RolledOnDay:    rolledOn,
		RolledAt:       clampTimestamp(timestamp),
		AvailableOnDay: availableOn,
		ExpiresOnDay:   expiresOn,
		Metadata:       meta,
		Variant: &VariantSnapshot{
			ID:          variant.ID,
			Label:       variant.Label,
			Description: variant.Description,
			Seats:       seats,
		},
		TemplateCategory: template.Category(),
		Seats:            seats,
	}
	return normalizeOffer(offer, offer.RolledAt, day)
}

// normalizeOffer sanitizes a persisted offer. It is a fixed point: applying
// it to its own output changes nothing. Returns nil for offers too malformed
// to keep (missing template id).
func normalizeOffer(offer *Offer, fallbackTimestamp int64, fallbackDay int) *Offer {
	if offer == nil || offer.TemplateID == "" {
		return nil
	}

	if offer.VariantID == "" {
		offer.VariantID = "default"
	}
	if offer.DefinitionID == "" {
		offer.DefinitionID = offer.TemplateID
	}

	day := clampDay(fallbackDay, 1)
	rolledFallback := clampDay(offer.RolledOnDay, day)
	offer.AvailableOnDay = clampDay(offer.AvailableOnDay, rolledFallback)
	offer.RolledOnDay = clampDay(offer.RolledOnDay, offer.AvailableOnDay)
	offer.ExpiresOnDay = clampDay(offer.ExpiresOnDay, offer.AvailableOnDay)
	if offer.ExpiresOnDay < offer.AvailableOnDay {
		offer.ExpiresOnDay = offer.AvailableOnDay
	}

	if offer.RolledAt <= 0 {
		offer.RolledAt = clampTimestamp(fallbackTimestamp)
	}

	if offer.ID == "" {
		offer.ID = fmt.Sprintf("market-%s-%d-%s", offer.DefinitionID, offer.RolledOnDay, uuid.NewString())
	}

	if offer.Variant != nil {
		if offer.Variant.ID == "" {
			offer.Variant.ID = offer.VariantID
		}
		offer.Variant.Seats = clampPositiveInt(offer.Variant.Seats, clampPositiveInt(offer.Seats, 1))
	}
	offer.Seats = clampPositiveInt(offer.Seats, 1)

	if offer.ClaimedOnDay != nil {
		clamped := clampDay(*offer.ClaimedOnDay, offer.AvailableOnDay)
		offer.ClaimedOnDay = &clamped
	}
	offer.Claimed = offer.Claimed || offer.ClaimedOnDay != nil
	switch {
	case offer.Status == OfferComplete:
		// Retained; decoration re-derives it from the accepted entry.
	case offer.Claimed:
		offer.Status = OfferClaimed
	default:
		offer.Status = OfferAvailable
	}

	return offer
}

// isOfferActiveOnOrAfterDay reports whether an offer is still claimable (or
// upcoming) relative to a day. Offers past expiry are pruned on the next
// normalization pass.
func isOfferActiveOnOrAfterDay(offer *Offer, day int) bool {
	if offer == nil {
		return false
	}
	return offer.ExpiresOnDay >= clampDay(day, 1)
}

// decorateOfferWithAccepted projects claim state from the accepted entry
// onto the offer. A nil entry resets the offer to available.
func decorateOfferWithAccepted(offer *Offer, entry *AcceptedEntry) {
	if offer == nil {
		return
	}

	if entry == nil {
		offer.Claimed = false
		offer.Status = OfferAvailable
		offer.ClaimedOnDay = nil
		offer.InstanceID = ""
		offer.ClaimMetadata = nil
		offer.ClaimDeadlineDay = nil
		offer.CompletedOnDay = nil
		offer.CompletedInstanceID = ""
		offer.CompletionHoursLogged = nil
		offer.Seats = clampPositiveInt(offer.Seats, 1)
		return
	}

	offer.InstanceID = entry.InstanceID
	offer.ClaimedOnDay = Int(entry.AcceptedOnDay)
	offer.ClaimDeadlineDay = Int(entry.DeadlineDay)
	offer.Seats = clampPositiveInt(offer.Seats, clampPositiveInt(entry.Seats, 1))
	if entry.TemplateCategory != "" {
		offer.TemplateCategory = entry.TemplateCategory
	}
	if entry.VariantID != "" && offer.VariantID != entry.VariantID {
		offer.VariantID = entry.VariantID
	}

	if entry.Status == EntryComplete {
		offer.Claimed = false
		offer.Status = OfferComplete
		if entry.CompletedOnDay != nil {
			offer.CompletedOnDay = cloneInt(entry.CompletedOnDay)
		} else {
			offer.CompletedOnDay = Int(entry.AcceptedOnDay)
		}
		offer.CompletedInstanceID = entry.InstanceID
		offer.CompletionHoursLogged = cloneFloat(entry.HoursLogged)
		offer.ClaimMetadata = entry.Metadata.Clone()
		return
	}

	offer.Claimed = true
	offer.Status = OfferClaimed
	offer.ClaimMetadata = entry.Metadata.Clone()
	offer.CompletedOnDay = nil
	offer.CompletedInstanceID = ""
	offer.CompletionHoursLogged = nil
}
