package game

import (
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"
)

// Engine owns one session's state tree and serializes every operation on
// it. The underlying package functions are synchronous and single-actor;
// the mutex exists so an HTTP surface or background worker can share one
// engine safely.
type Engine struct {
	mu       sync.Mutex
	state    *State
	registry *Registry
	log      *slog.Logger
	rand     *mathrand.Rand
	now      func() time.Time
	audits   []*RollAudit
}

func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Engine{
		state:    NewState(),
		registry: registry,
		log:      logger,
		rand:     mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Seed makes the roll sequence deterministic. Intended for tests and
// replay tooling.
func (e *Engine) Seed(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rand = mathrand.New(mathrand.NewSource(seed))
}

// LoadState replaces the session state, running the full normalization
// pass so arbitrary persisted shapes are safe to resume from.
func (e *Engine) LoadState(state *State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state == nil {
		state = NewState()
	}
	if state.Metrics == nil {
		state.Metrics = NewMetrics()
	}
	e.state = state
	e.normalizeAllLocked()
}

// Snapshot returns a deep copy of the session state for persistence or
// read-only display.
func (e *Engine) Snapshot() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) CurrentDay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentDay()
}

func (e *Engine) Money() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Money
}

// Registry exposes the static definition catalog.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// normalizeAllLocked sweeps every market category and instance roster.
// Callers hold the mutex.
func (e *Engine) normalizeAllLocked() {
	day := e.state.CurrentDay()
	seen := map[string]struct{}{}
	for _, key := range CategoryKeys(e.state) {
		ensureCategoryState(e.state, key, day)
		seen[key] = struct{}{}
	}
	for _, key := range e.registry.Categories() {
		if _, done := seen[key]; !done {
			ensureCategoryState(e.state, key, day)
		}
	}
	for id := range e.state.Actions {
		NormalizeActionState(e.state, e.registry.Definition(id), id)
	}
}

func (e *Engine) recordAudit(audit *RollAudit) {
	if audit == nil {
		return
	}
	e.audits = append(e.audits, audit)
	if len(e.audits) > RollAuditLimit {
		e.audits = e.audits[len(e.audits)-RollAuditLimit:]
	}
}

// RollAudits returns the retained roll audit trail, newest last.
func (e *Engine) RollAudits() []*RollAudit {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*RollAudit, len(e.audits))
	copy(out, e.audits)
	return out
}

func (e *Engine) rollParamsLocked(category string) RollParams {
	return RollParams{
		Templates: e.registry.ByCategory(category),
		Category:  category,
		Day:       e.state.CurrentDay(),
		Timestamp: e.now().UnixMilli(),
		Rand:      e.rand,
	}
}

// EnsureOffers rolls the category's daily offers if today's roll has not
// happened yet, otherwise returns the existing pool.
func (e *Engine) EnsureOffers(category string) []*Offer {
	e.mu.Lock()
	defer e.mu.Unlock()
	offers, audit := EnsureDailyOffers(e.state, e.rollParamsLocked(category))
	e.recordAudit(audit)
	return offers
}

// RollOffers forces a fresh roll for one category, preserving still-valid
// offers and topping capacity back up.
func (e *Engine) RollOffers(category string) []*Offer {
	e.mu.Lock()
	defer e.mu.Unlock()
	offers, audit := RollDailyOffers(e.state, e.rollParamsLocked(category))
	e.recordAudit(audit)
	if audit != nil {
		e.log.Info("rolled daily offers",
			"category", audit.Category, "day", audit.Day,
			"preserved", audit.Preserved, "created", audit.Created)
	}
	return offers
}

// Offers lists a category's visible offers.
func (e *Engine) Offers(category string, q OfferQuery) []*Offer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return AvailableOffers(e.state, category, q)
}

// Claimed lists a category's accepted entries.
func (e *Engine) Claimed(category string, q EntryQuery) []*AcceptedEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ClaimedOffers(e.state, category, q)
}

// Categories lists every category known to the session or the catalog.
func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, key := range CategoryKeys(e.state) {
		seen[key] = struct{}{}
		out = append(out, key)
	}
	for _, key := range e.registry.Categories() {
		if _, done := seen[key]; !done {
			out = append(out, key)
		}
	}
	return out
}

// ClaimResult pairs the market entry with the instance a claim creates.
type ClaimResult struct {
	Entry    *AcceptedEntry `json:"entry"`
	Instance *Instance      `json:"instance"`
}

// Claim accepts an offer: it creates the action instance for the offer's
// definition, then records the market claim pointing at that instance.
func (e *Engine) Claim(category, offerID string) (*ClaimResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	day := e.state.CurrentDay()
	cs := ensureCategoryState(e.state, category, day)
	offer := cs.findOffer(offerID)
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if offer.Claimed {
		return nil, ErrOfferClaimed
	}
	if offer.AvailableOnDay > day {
		return nil, ErrOfferNotOpen
	}

	definition := e.registry.Definition(offer.DefinitionID)
	if definition == nil {
		definition = e.registry.Definition(offer.TemplateID)
	}
	if definition == nil {
		return nil, ErrDefinitionNotFound
	}

	meta := offer.Metadata
	overrides := AcceptOverrides{
		DeadlineDay: Int(offer.ExpiresOnDay),
		Metadata:    meta,
	}
	if meta != nil {
		overrides.HoursRequired = cloneFloat(meta.HoursRequired)
		overrides.Progress = meta.Progress.clone()
	}
	if offer.Variant != nil && offer.Variant.Label != "" && offer.Variant.Label != definition.Name {
		overrides.Name = definition.Name + ": " + offer.Variant.Label
	}
	instance, err := AcceptInstance(e.state, definition, overrides)
	if err != nil {
		return nil, err
	}

	details := ClaimDetails{
		AcceptedOnDay: Int(day),
		InstanceID:    instance.ID,
		Metadata:      meta,
	}
	if meta != nil {
		details.HoursRequired = cloneFloat(meta.HoursRequired)
		payout := meta.Payout.clone()
		details.Payout = &payout
	}
	entry, err := ClaimOffer(e.state, category, offerID, details)
	if err != nil {
		AbandonInstance(e.state, definition, instance.ID)
		return nil, err
	}

	e.log.Info("offer claimed",
		"category", cs.Category, "offer", offer.ID,
		"definition", definition.ID, "instance", instance.ID)
	e.state.AddLog("Accepted "+instance.Name, "market")

	return &ClaimResult{Entry: entry.Clone(), Instance: instance.Clone()}, nil
}

// Release withdraws a claim: the market entry is removed, its offer
// reverts to available, and the instances it pointed at are abandoned.
func (e *Engine) Release(category string, ids EntryIdentifiers) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs := ensureCategoryState(e.state, category, e.state.CurrentDay())
	var linked []string
	for _, entry := range cs.Accepted {
		if ids.matches(entry) && entry.InstanceID != "" {
			linked = append(linked, entry.InstanceID)
		}
	}

	released, err := ReleaseOffer(e.state, category, ids)
	if err != nil || !released {
		return released, err
	}
	for _, instanceID := range linked {
		e.abandonByInstanceLocked(instanceID)
	}
	return true, nil
}

func (e *Engine) abandonByInstanceLocked(instanceID string) bool {
	for definitionID := range e.state.Actions {
		if AbandonInstance(e.state, e.registry.Definition(definitionID), instanceID) {
			return true
		}
	}
	return false
}

// Accept creates an instance directly, outside the market flow.
func (e *Engine) Accept(definitionID string, overrides AcceptOverrides) (*Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	definition := e.registry.Definition(definitionID)
	if definition == nil {
		return nil, ErrDefinitionNotFound
	}
	instance, err := AcceptInstance(e.state, definition, overrides)
	if err != nil {
		return nil, err
	}
	return instance.Clone(), nil
}

// LogHours records worked hours against an instance and reports whether
// the work completed it.
func (e *Engine) LogHours(definitionID, instanceID string, day *int, hours float64) (AdvanceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	definition := e.registry.Definition(definitionID)
	if definition == nil {
		return AdvanceResult{}, ErrDefinitionNotFound
	}
	result, err := AdvanceInstance(e.state, definition, instanceID, AdvanceParams{
		Day:     day,
		Hours:   hours,
		Context: &CompletionContext{Log: e.log},
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	if result.Completed {
		e.log.Info("instance completed",
			"definition", definitionID, "instance", instanceID,
			"hours", result.Instance.HoursLogged)
	}
	result.Instance = result.Instance.Clone()
	return result, nil
}

// Complete force-finalizes an instance regardless of its logged hours.
func (e *Engine) Complete(definitionID, instanceID string, ctx *CompletionContext) (*Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	definition := e.registry.Definition(definitionID)
	if definition == nil {
		return nil, ErrDefinitionNotFound
	}
	entry := ensureActionState(e.state, definition.ID)
	stored := findInstance(entry, instanceID)
	if stored == nil {
		return nil, ErrInstanceNotFound
	}
	if ctx == nil {
		ctx = &CompletionContext{}
	}
	if ctx.Log == nil {
		ctx.Log = e.log
	}
	return CompleteInstance(e.state, definition, stored, ctx).Clone(), nil
}

// Reset zeroes an instance's progress.
func (e *Engine) Reset(definitionID, instanceID string, clearCompletion bool) (*Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	definition := e.registry.Definition(definitionID)
	if definition == nil {
		return nil, ErrDefinitionNotFound
	}
	instance, err := ResetInstance(e.state, definition, instanceID, clearCompletion)
	if err != nil {
		return nil, err
	}
	return instance.Clone(), nil
}

// Abandon removes an instance and releases any market claim tied to it.
func (e *Engine) Abandon(definitionID, instanceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, category := FindEntryByInstance(e.state, instanceID); entry != nil {
		ReleaseOffer(e.state, category, EntryIdentifiers{InstanceID: instanceID})
	}
	definition := e.registry.Definition(definitionID)
	return AbandonInstance(e.state, definition, instanceID)
}

// Instances lists one definition's roster, cloned.
func (e *Engine) Instances(definitionID string) []*Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := NormalizeActionState(e.state, e.registry.Definition(definitionID), definitionID)
	out := make([]*Instance, 0, len(entry.Instances))
	for _, instance := range entry.Instances {
		out = append(out, instance.Clone())
	}
	return out
}

// ActiveInstances lists every non-completed instance across definitions.
func (e *Engine) ActiveInstances() []*Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Instance
	for id := range e.state.Actions {
		entry := NormalizeActionState(e.state, e.registry.Definition(id), id)
		for _, instance := range entry.Instances {
			if !isInstanceCompleted(instance) {
				out = append(out, instance.Clone())
			}
		}
	}
	return out
}

// DaySummary reports what happened when the clock advanced.
type DaySummary struct {
	Day       int          `json:"day"`
	NewOffers int          `json:"newOffers"`
	Expired   int          `json:"expiredEntries"`
	Audits    []*RollAudit `json:"audits,omitempty"`
}

// EndDay advances the game clock one day, expires what the new day leaves
// behind, and rolls every category's fresh offers. It is the sole driver
// of time-based transitions; nothing expires on a timer.
func (e *Engine) EndDay() DaySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Day = e.state.CurrentDay() + 1
	day := e.state.CurrentDay()
	for _, entry := range e.state.Actions {
		if entry != nil {
			entry.RunsToday = 0
		}
	}
	e.normalizeAllLocked()

	summary := DaySummary{Day: day}
	for _, category := range e.registry.Categories() {
		_, audit := EnsureDailyOffers(e.state, e.rollParamsLocked(category))
		e.recordAudit(audit)
		if audit != nil {
			summary.NewOffers += audit.Created
			summary.Audits = append(summary.Audits, audit)
		}
	}
	for _, category := range CategoryKeys(e.state) {
		cs := ensureCategoryState(e.state, category, day)
		for _, entry := range cs.Accepted {
			if entry.Status == EntryExpired && entry.CompletedOnDay == nil && entry.DeadlineDay == day-1 {
				summary.Expired++
			}
		}
	}

	e.state.AddLog("A new day begins.", "day")
	e.log.Info("day advanced", "day", day, "offers", summary.NewOffers)
	return summary
}
