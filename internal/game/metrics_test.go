package game

import "testing"

func TestMetricsAccumulateByKey(t *testing.T) {
	m := NewMetrics()
	m.RecordPayoutContribution(3, "action:tutoring", "Tutoring", "hustle", 30)
	m.RecordPayoutContribution(3, "action:tutoring", "Tutoring", "hustle", 45)
	m.RecordPayoutContribution(4, "action:tutoring", "Tutoring", "hustle", 10)

	day := m.Days[3]
	if day == nil {
		t.Fatal("expected day 3 bucket")
	}
	c := day.Payouts["action:tutoring"]
	if c == nil {
		t.Fatal("expected tutoring contribution")
	}
	if c.Amount != 75 {
		t.Fatalf("expected 75 accumulated, got %.2f", c.Amount)
	}
	if m.Days[4].Payouts["action:tutoring"].Amount != 10 {
		t.Fatal("day buckets must be independent")
	}
}

func TestAdvanceRecordsTimeContribution(t *testing.T) {
	state := NewState()
	definition := contractDefinition()
	instance, err := AcceptInstance(state, definition, AcceptOverrides{})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Hours: 2.5}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := AdvanceInstance(state, definition, instance.ID, AdvanceParams{Hours: 1.5}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	day := state.Metrics.Days[state.CurrentDay()]
	if day == nil {
		t.Fatal("expected time bucket for current day")
	}
	c := day.Time["action:"+definition.ID]
	if c == nil {
		t.Fatal("expected time contribution for the definition")
	}
	if c.Amount != 4 {
		t.Fatalf("expected 4 hours recorded, got %.2f", c.Amount)
	}
}
