package game

import (
	"testing"
)

func contractDefinition() *Template {
	return &Template{
		ID:   "contract",
		Name: "Site Contract",
		Time: Float(8),
		Payout: &PayoutTerms{
			Amount:   Float(120),
			Schedule: PayoutOnCompletion,
		},
	}
}

func workshopDefinition() *Template {
	return &Template{
		ID:   "workshop",
		Name: "Weekend Workshop",
		Progress: &ProgressSpec{
			Type:         "study",
			Completion:   "deferred",
			HoursPerDay:  Float(2),
			DaysRequired: Int(2),
		},
	}
}

func TestAcceptInstanceResolvesHours(t *testing.T) {
	state := NewState()
	definition := contractDefinition()

	instance, err := AcceptInstance(state, definition, AcceptOverrides{})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if instance.HoursRequired == nil || *instance.HoursRequired != 8 {
		t.Fatalf("hoursRequired = %v", instance.HoursRequired)
	}
	if instance.Status != InstanceActive || !instance.Accepted {
		t.Fatalf("instance = %+v", instance)
	}

	override, err := AcceptInstance(state, definition, AcceptOverrides{HoursRequired: Float(3)})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if *override.HoursRequired != 3 {
		t.Fatalf("override should win, got %v", *override.HoursRequired)
	}
}

func TestAdvanceHoursLogConsistency(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})

	hours := []float64{1.1, 2.25, 0.3333, 1.0001}
	for _, h := range hours {
		result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(1), Hours: h})
		if err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		sum := 0.0
		for _, logged := range result.Instance.Progress.DailyLog {
			sum += logged
		}
		if result.Instance.Progress.HoursLogged != RoundHours(sum) {
			t.Fatalf("hoursLogged %v != round4(sum dailyLog) %v",
				result.Instance.Progress.HoursLogged, RoundHours(sum))
		}
		if result.Instance.HoursLogged != result.Instance.Progress.HoursLogged {
			t.Fatal("instance mirror drifted from progress record")
		}
	}
}

func TestAdvanceAccumulatesSameDay(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})

	AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(2), Hours: 1.5})
	result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(2), Hours: 2})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if got := result.Instance.Progress.DailyLog[2]; got != 3.5 {
		t.Fatalf("dailyLog[2] = %v", got)
	}
	if result.Instance.Progress.LastWorkedDay == nil || *result.Instance.Progress.LastWorkedDay != 2 {
		t.Fatalf("lastWorkedDay = %v", result.Instance.Progress.LastWorkedDay)
	}
}

func TestCompletionViaDaysRequired(t *testing.T) {
	state := NewState()
	definition := workshopDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})

	first, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(1), Hours: 2})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if first.Completed {
		t.Fatal("one qualifying day should not complete a two-day workshop")
	}

	second, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(2), Hours: 2})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if second.Instance.Progress.DaysCompleted != 2 {
		t.Fatalf("daysCompleted = %d", second.Instance.Progress.DaysCompleted)
	}
	if !second.Completed || !second.Instance.Completed {
		t.Fatal("second qualifying day should auto-complete")
	}
	if second.Instance.Status != InstanceCompleted {
		t.Fatalf("status = %q", second.Instance.Status)
	}
}

func TestDaysRequiredGatesAheadOfHours(t *testing.T) {
	state := NewState()
	definition := &Template{
		ID: "course",
		Progress: &ProgressSpec{
			HoursRequired: Float(4),
			HoursPerDay:   Float(2),
			DaysRequired:  Int(3),
		},
	}
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})

	// Log all four hours in one day: the hour requirement is met but only
	// one qualifying day exists, so the instance must not complete.
	result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(1), Hours: 4})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if result.Completed || result.Instance.Completed {
		t.Fatal("daysRequired gate should hold back completion")
	}
}

func TestNoRequirementNeverAutoCompletes(t *testing.T) {
	state := NewState()
	definition := &Template{ID: "open-study", Name: "Open Study"}
	instance, err := AcceptInstance(state, definition, AcceptOverrides{})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if instance.HoursRequired != nil {
		t.Fatalf("no source declared hours, got %v", instance.HoursRequired)
	}

	for day := 1; day <= 5; day++ {
		result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(day), Hours: 8})
		if err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		if result.Completed {
			t.Fatal("instance without a requirement must never auto-complete")
		}
	}
}

func TestAdvanceAutoCompleteDisabled(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{HoursRequired: Float(2)})

	result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{
		Day: Int(1), Hours: 2, DisableAutoComplete: true,
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !result.Completed {
		t.Fatal("condition should report satisfied")
	}
	if result.Instance.Completed {
		t.Fatal("instance must not finalize with auto-complete disabled")
	}
}

func TestResetInstance(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{HoursRequired: Float(2)})
	AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(1), Hours: 2})

	reset, err := ResetInstance(state, definition, instance.ID, true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if reset.HoursLogged != 0 || len(reset.Progress.DailyLog) != 0 {
		t.Fatalf("progress not cleared: %+v", reset.Progress)
	}
	if reset.Completed || reset.Status != InstanceActive || reset.PayoutAwarded != 0 {
		t.Fatalf("completion not cleared: %+v", reset)
	}
}

func TestAbandonInstance(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, _ := AcceptInstance(state, definition, AcceptOverrides{})

	if !AbandonInstance(state, definition, instance.ID) {
		t.Fatal("abandon should remove the instance")
	}
	if AbandonInstance(state, definition, instance.ID) {
		t.Fatal("second abandon should find nothing")
	}
	if len(state.Actions[definition.ID].Instances) != 0 {
		t.Fatalf("instances = %+v", state.Actions[definition.ID].Instances)
	}
}

func TestCompletionHooksAreSwallowed(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	prepared := 0
	hooked := 0
	definition.PrepareCompletion = func(ctx *CompletionContext) error {
		prepared++
		return ErrOfferNotFound
	}
	definition.CompletionHooks = []CompletionHook{
		func(ctx *CompletionContext) error {
			hooked++
			return ErrEntryNotFound
		},
	}

	instance, _ := AcceptInstance(state, definition, AcceptOverrides{HoursRequired: Float(1)})
	result, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Day: Int(1), Hours: 1})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !result.Completed || !result.Instance.Completed {
		t.Fatal("failing hooks must not block completion")
	}
	if prepared != 1 || hooked != 1 {
		t.Fatalf("prepare=%d hooks=%d", prepared, hooked)
	}
}

func TestNormalizeActionStateRetiresAndCaps(t *testing.T) {
	state := NewState()
	state.Day = 10
	definition := contractDefinition()
	entry := ensureActionState(state, definition.ID)

	// A stale completed instance past retention, a fresh one, and an
	// over-cap pile of active instances.
	stale := &Instance{ID: "stale", DefinitionID: definition.ID, Completed: true,
		Status: InstanceCompleted, AcceptedOnDay: 1, CompletedOnDay: Int(8)}
	fresh := &Instance{ID: "fresh", DefinitionID: definition.ID, Completed: true,
		Status: InstanceCompleted, AcceptedOnDay: 9, CompletedOnDay: Int(10)}
	entry.Instances = append(entry.Instances, stale, fresh)
	for i := 0; i < MaxInstancesPerDefinition+5; i++ {
		entry.Instances = append(entry.Instances, &Instance{
			DefinitionID: definition.ID, Accepted: true,
			Status: InstanceActive, AcceptedOnDay: 9,
		})
	}

	normalized := NormalizeActionState(state, definition, definition.ID)
	if len(normalized.Instances) > MaxInstancesPerDefinition {
		t.Fatalf("roster exceeds cap: %d", len(normalized.Instances))
	}
	for _, instance := range normalized.Instances {
		if instance.ID == "stale" {
			t.Fatal("stale completed instance should be retired")
		}
	}
}
