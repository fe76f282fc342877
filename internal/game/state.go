package game

import (
	"encoding/json"
	"strings"
)

// State is the whole save-file scope: one player session's mutable tree.
// It is passed explicitly to everything that needs it and is plain data,
// safe under JSON round-trips.
type State struct {
	Day   int     `json:"day"`
	Money float64 `json:"money"`

	ActionMarket *ActionMarketState      `json:"actionMarket,omitempty"`
	Actions      map[string]*ActionState `json:"actions,omitempty"`

	Metrics *Metrics   `json:"metrics,omitempty"`
	Log     []LogEntry `json:"log,omitempty"`
}

// ActionMarketState holds every market category's offer pool.
type ActionMarketState struct {
	Categories map[string]*CategoryState `json:"categories"`
}

// CategoryState is one market partition: its roll markers, live offers, and
// accepted entries.
type CategoryState struct {
	Category        string           `json:"category"`
	LastRolledAt    int64            `json:"lastRolledAt"`
	LastRolledOnDay int              `json:"lastRolledOnDay"`
	Offers          []*Offer         `json:"offers"`
	Accepted        []*AcceptedEntry `json:"accepted"`
}

// ActionState is the per-definition instance container.
type ActionState struct {
	Instances  []*Instance `json:"instances"`
	RunsToday  int         `json:"runsToday,omitempty"`
	LastRunDay int         `json:"lastRunDay,omitempty"`
}

// LogEntry is one line of the player-visible event stream.
type LogEntry struct {
	Day     int    `json:"day"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewState builds an empty day-one state.
func NewState() *State {
	return &State{
		Day:          1,
		ActionMarket: &ActionMarketState{Categories: map[string]*CategoryState{}},
		Actions:      map[string]*ActionState{},
		Metrics:      NewMetrics(),
	}
}

// CurrentDay never returns less than 1, even on malformed saves.
func (s *State) CurrentDay() int {
	if s == nil {
		return 1
	}
	return clampDay(s.Day, 1)
}

// AddLog appends a player-visible message. Fire and forget.
func (s *State) AddLog(message, logType string) {
	if s == nil || message == "" {
		return
	}
	s.Log = append(s.Log, LogEntry{Day: s.CurrentDay(), Type: logType, Message: message})
}

// AddMoney credits the balance and logs the event.
func (s *State) AddMoney(amount float64, message, logType string) {
	if s == nil || amount <= 0 {
		return
	}
	s.Money += amount
	s.AddLog(message, logType)
}

// SpendMoney debits the balance, flooring at zero.
func (s *State) SpendMoney(amount float64) {
	if s == nil || amount <= 0 {
		return
	}
	s.Money -= amount
	if s.Money < 0 {
		s.Money = 0
	}
}

// Clone deep-copies the whole tree through a JSON round-trip. State is
// plain data, so the round-trip is lossless.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return NewState()
	}
	out := &State{}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewState()
	}
	return out
}

func normalizeCategoryKey(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return DefaultCategory
	}
	return trimmed
}

func defaultCategoryState(category string) *CategoryState {
	return &CategoryState{
		Category: category,
		Offers:   []*Offer{},
		Accepted: []*AcceptedEntry{},
	}
}

// ensureActionMarket repairs the market container on malformed saves.
func ensureActionMarket(state *State) *ActionMarketState {
	if state.ActionMarket == nil {
		state.ActionMarket = &ActionMarketState{}
	}
	if state.ActionMarket.Categories == nil {
		state.ActionMarket.Categories = map[string]*CategoryState{}
	}
	return state.ActionMarket
}

// ensureActionState returns the per-definition instance container, creating
// it when absent.
func ensureActionState(state *State, definitionID string) *ActionState {
	if state.Actions == nil {
		state.Actions = map[string]*ActionState{}
	}
	entry, ok := state.Actions[definitionID]
	if !ok || entry == nil {
		entry = &ActionState{Instances: []*Instance{}}
		state.Actions[definitionID] = entry
	}
	if entry.Instances == nil {
		entry.Instances = []*Instance{}
	}
	return entry
}
