package game

import (
	"fmt"
	"log/slog"
)

// CompletionContext travels through the completion pipeline: it is built by
// AdvanceInstance or the caller, filled in by CompleteInstance, and handed
// to the definition's hooks and the payout bridge.
type CompletionContext struct {
	State      *State
	Definition *Template
	Instance   *Instance

	CompletionDay   *int
	CompletionHours float64

	// EffectiveHours overrides the instance's logged hours at completion,
	// for flows where the caller knows the true time spent.
	EffectiveHours *float64

	// FinalPayout and PayoutGranted override the payout amount, highest
	// precedence first.
	FinalPayout   *float64
	PayoutGranted *float64

	Metadata *Metadata
	Log      *slog.Logger
}

func (c *CompletionContext) logger() *slog.Logger {
	if c != nil && c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// resolvePayoutAmount scans the payout sources in precedence order and
// returns the first positive amount, or 0 when nothing resolves.
func resolvePayoutAmount(ctx *CompletionContext, entry *AcceptedEntry) float64 {
	candidates := []*float64{ctx.FinalPayout, ctx.PayoutGranted}
	if ctx.Instance != nil && ctx.Instance.PayoutAwarded > 0 {
		candidates = append(candidates, Float(ctx.Instance.PayoutAwarded))
	}
	candidates = append(candidates, entry.PayoutAwarded, entry.Payout.Amount)
	for _, candidate := range candidates {
		if candidate != nil && *candidate > 0 {
			return *candidate
		}
	}
	return 0
}

// ProcessCompletionPayout bridges a completed instance back to its market
// entry and disburses the payout exactly once. Instances with no market
// entry are left alone; not every instance is market-sourced. Re-entrant
// calls are no-ops once PayoutPaid flips true.
func ProcessCompletionPayout(ctx *CompletionContext) *AcceptedEntry {
	if ctx == nil || ctx.State == nil || ctx.Instance == nil {
		return nil
	}
	state := ctx.State
	instance := ctx.Instance

	entry, category := FindEntryByInstance(state, instance.ID)
	if entry == nil {
		return nil
	}

	hours := Float(RoundHours(ctx.CompletionHours))
	if ctx.CompletionHours <= 0 {
		hours = Float(instance.HoursLogged)
	}
	bridged, err := CompleteMarketInstance(state, category, instance.ID, ctx.CompletionDay, hours)
	if err != nil {
		return nil
	}
	entry = bridged

	if entry.Payout.Schedule != PayoutOnCompletion || entry.PayoutPaid {
		return entry
	}
	amount := resolvePayoutAmount(ctx, entry)
	if amount <= 0 {
		return entry
	}

	name := instance.Name
	if name == "" && ctx.Definition != nil {
		name = ctx.Definition.Name
	}
	if name == "" {
		name = entry.TemplateID
	}

	payoutDay := state.CurrentDay()
	if ctx.CompletionDay != nil {
		payoutDay = clampDay(*ctx.CompletionDay, payoutDay)
	}

	state.AddMoney(amount, fmt.Sprintf("%s paid out $%.2f", name, amount), "payout")
	if state.Metrics != nil {
		state.Metrics.RecordPayoutContribution(payoutDay, "action:"+entry.TemplateID, name, category, amount)
	}

	entry.PayoutPaid = true
	entry.PayoutPaidOnDay = &payoutDay
	entry.PayoutAwarded = Float(amount)
	instance.PayoutAwarded = amount

	return entry
}
