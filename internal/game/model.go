package game

import (
	"errors"
	"math"
)

const (
	// OfferExpiryGraceDays keeps an offer claimable for a short buffer after
	// its visible active window closes. Deliberate slack, not a bug.
	OfferExpiryGraceDays = 2

	// HoursEpsilon is the tolerance applied when comparing logged hours
	// against a requirement.
	HoursEpsilon = 0.0001

	hoursPrecision = 4

	// MaxInstancesPerDefinition caps how many instances one definition may
	// retain after normalization.
	MaxInstancesPerDefinition = 100

	// CompletedRetentionDays controls how long a completed instance lingers
	// before normalization retires it.
	CompletedRetentionDays = 1

	DefaultCategory = "default"
)

type OfferStatus string

const (
	OfferAvailable OfferStatus = "available"
	OfferClaimed   OfferStatus = "claimed"
	OfferComplete  OfferStatus = "complete"
)

type EntryStatus string

const (
	EntryActive   EntryStatus = "active"
	EntryComplete EntryStatus = "complete"
	EntryExpired  EntryStatus = "expired"
)

type InstanceStatus string

const (
	InstancePending   InstanceStatus = "pending"
	InstanceActive    InstanceStatus = "active"
	InstanceCompleted InstanceStatus = "completed"
)

type PayoutSchedule string

// PayoutOnCompletion is the only schedule the payout bridge disburses for.
const PayoutOnCompletion PayoutSchedule = "onCompletion"

var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferClaimed       = errors.New("offer already claimed")
	ErrOfferNotOpen       = errors.New("offer is not open yet")
	ErrEntryNotFound      = errors.New("accepted entry not found")
	ErrInstanceNotFound   = errors.New("instance not found")
	ErrDefinitionNotFound = errors.New("definition not found")
	ErrDefinitionRequired = errors.New("definition is required")
	ErrIdentifierRequired = errors.New("release requires an offer, entry, or instance id")
	ErrCategoryRequired   = errors.New("category key is required")
)

// RoundHours rounds to four decimal places so repeated small daily logs do
// not accumulate floating-point drift.
func RoundHours(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	factor := math.Pow10(hoursPrecision)
	return math.Round(v*factor) / factor
}
