package game

import "testing"

func claimedSetup(t *testing.T) (*State, *Template, *Instance) {
	t.Helper()
	state := NewState()
	definition := contractDefinition()
	seedOffer(state, "hustle", "O1", 1, 5)

	instance, err := AcceptInstance(state, definition, AcceptOverrides{HoursRequired: Float(4)})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := ClaimOffer(state, "hustle", "O1", ClaimDetails{
		InstanceID: instance.ID,
		Payout:     &PayoutTerms{Amount: Float(25), Schedule: PayoutOnCompletion},
	}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	return state, definition, instance
}

func TestPayoutExactlyOnce(t *testing.T) {
	state, definition, instance := claimedSetup(t)

	ctx := &CompletionContext{
		State:         state,
		Definition:    definition,
		Instance:      instance,
		CompletionDay: Int(2),
	}
	entry := ProcessCompletionPayout(ctx)
	if entry == nil || !entry.PayoutPaid {
		t.Fatalf("entry = %+v", entry)
	}
	if state.Money != 25 {
		t.Fatalf("money = %v", state.Money)
	}
	if entry.PayoutPaidOnDay == nil || *entry.PayoutPaidOnDay != 2 {
		t.Fatalf("payoutPaidOnDay = %v", entry.PayoutPaidOnDay)
	}
	if instance.PayoutAwarded != 25 {
		t.Fatalf("instance mirror = %v", instance.PayoutAwarded)
	}

	again := ProcessCompletionPayout(ctx)
	if again == nil || !again.PayoutPaid {
		t.Fatalf("repeat entry = %+v", again)
	}
	if state.Money != 25 {
		t.Fatalf("second call double-paid: money = %v", state.Money)
	}
}

func TestPayoutAmountPrecedence(t *testing.T) {
	state, definition, instance := claimedSetup(t)
	ctx := &CompletionContext{
		State:       state,
		Definition:  definition,
		Instance:    instance,
		FinalPayout: Float(40),
	}
	entry := ProcessCompletionPayout(ctx)
	if state.Money != 40 {
		t.Fatalf("finalPayout should win over entry amount, money = %v", state.Money)
	}
	if entry.PayoutAwarded == nil || *entry.PayoutAwarded != 40 {
		t.Fatalf("entry mirror = %v", entry.PayoutAwarded)
	}
}

func TestPayoutSkipsOtherSchedules(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	seedOffer(state, "hustle", "O1", 1, 5)
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})
	if _, err := ClaimOffer(state, "hustle", "O1", ClaimDetails{
		InstanceID: instance.ID,
		Payout:     &PayoutTerms{Amount: Float(25), Schedule: PayoutSchedule("daily")},
	}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	entry := ProcessCompletionPayout(&CompletionContext{State: state, Definition: definition, Instance: instance})
	if entry == nil {
		t.Fatal("bridge should still complete the entry")
	}
	if entry.Status != EntryComplete {
		t.Fatalf("status = %q", entry.Status)
	}
	if entry.PayoutPaid || state.Money != 0 {
		t.Fatalf("non-onCompletion schedule must not pay: paid=%v money=%v", entry.PayoutPaid, state.Money)
	}
}

func TestPayoutWithoutMarketEntryIsSilent(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})

	entry := ProcessCompletionPayout(&CompletionContext{State: state, Definition: definition, Instance: instance})
	if entry != nil {
		t.Fatalf("non-market instance should bridge to nothing, got %+v", entry)
	}
	if state.Money != 0 {
		t.Fatalf("money = %v", state.Money)
	}
}

func TestZeroBalanceNeverBlocksPayout(t *testing.T) {
	state, definition, instance := claimedSetup(t)
	state.Money = 0

	result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(1), Hours: 4})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !result.Completed {
		t.Fatal("instance should complete")
	}
	if state.Money != 25 {
		t.Fatalf("payout is additive income, money = %v", state.Money)
	}
	if state.Metrics == nil || len(state.Metrics.Days) == 0 {
		t.Fatal("payout should record a metrics contribution")
	}
}
