package game

// Instance lifecycle: pending -> active -> completed, or removal via
// AbandonInstance. The flat aggregates on Instance are mirrors of the
// progress record, refreshed after every mutation.

// AcceptInstance creates a new active instance for a definition. The hour
// requirement resolves from the first source that declares one: explicit
// override, accept-time metadata, then the definition's base time. A
// definition that declares none produces an instance with no requirement.
func AcceptInstance(state *State, definition *Template, overrides AcceptOverrides) (*Instance, error) {
	if definition == nil || definition.ID == "" {
		return nil, ErrDefinitionRequired
	}
	entry := ensureActionState(state, definition.ID)

	hoursRequired := overrides.HoursRequired
	if hoursRequired == nil && overrides.Metadata != nil {
		hoursRequired = overrides.Metadata.HoursRequired
	}
	if hoursRequired == nil {
		hoursRequired = definition.Time
	}
	if hoursRequired != nil {
		rounded := RoundHours(clampNonNegative(*hoursRequired, 0))
		hoursRequired = &rounded
	}

	name := overrides.Name
	if name == "" {
		name = definition.Name
	}
	if name == "" {
		name = definition.ID
	}

	instance := &Instance{
		ID:            newInstanceID(),
		DefinitionID:  definition.ID,
		Name:          name,
		Accepted:      true,
		AcceptedOnDay: state.CurrentDay(),
		HoursRequired: hoursRequired,
		Status:        InstanceActive,
	}
	if overrides.DeadlineDay != nil {
		clamped := clampDay(*overrides.DeadlineDay, 1)
		instance.DeadlineDay = &clamped
	}
	instance.Progress = newInstanceProgress(definition, overrides)
	if overrides.Metadata != nil {
		instance.Metadata = overrides.Metadata.Clone()
	}
	if instance.HoursRequired == nil && instance.Progress.HoursRequired != nil {
		instance.HoursRequired = cloneFloat(instance.Progress.HoursRequired)
	}

	entry.Instances = append(entry.Instances, instance)
	return instance, nil
}

func findInstance(entry *ActionState, instanceID string) *Instance {
	if entry == nil {
		return nil
	}
	for _, instance := range entry.Instances {
		if instance != nil && instance.ID == instanceID {
			return instance
		}
	}
	return nil
}

// AdvanceParams carries one day's worth of logged work.
type AdvanceParams struct {
	// Day defaults to the current game day.
	Day   *int
	Hours float64
	// DisableAutoComplete logs hours without triggering completion even
	// when the requirement is satisfied.
	DisableAutoComplete bool
	Context             *CompletionContext
}

// AdvanceResult reports the post-advance instance and whether its
// completion condition is now satisfied.
type AdvanceResult struct {
	Instance  *Instance
	Completed bool
}

// AdvanceInstance adds hours to the instance's daily log for the given day,
// then recomputes every progress aggregate from the full log. Repeated
// calls for the same day accumulate. When the recomputed state satisfies
// the completion condition the instance completes immediately unless
// auto-completion is disabled.
func AdvanceInstance(state *State, definition *Template, instanceID string, p AdvanceParams) (AdvanceResult, error) {
	if definition == nil || definition.ID == "" {
		return AdvanceResult{}, ErrDefinitionRequired
	}
	entry := ensureActionState(state, definition.ID)
	stored := findInstance(entry, instanceID)
	if stored == nil {
		return AdvanceResult{}, ErrInstanceNotFound
	}

	progress := ensureInstanceProgress(definition, stored)
	workingDay := state.CurrentDay()
	if p.Day != nil {
		workingDay = clampDay(*p.Day, workingDay)
	}
	if workingDay < stored.AcceptedOnDay {
		workingDay = stored.AcceptedOnDay
	}

	if p.Hours != 0 {
		if progress.DailyLog == nil {
			progress.DailyLog = map[int]float64{}
		}
		next := RoundHours(progress.DailyLog[workingDay] + p.Hours)
		if next < 0 {
			next = 0
		}
		progress.DailyLog[workingDay] = next
		if state.Metrics != nil && p.Hours > 0 {
			state.Metrics.RecordTimeContribution(workingDay, "action:"+definition.ID,
				stored.Name, definition.Category(), RoundHours(p.Hours))
		}
	}

	recomputeProgress(progress)
	stored.HoursLogged = RoundHours(progress.HoursLogged)
	if progress.HoursRequired != nil &&
		(stored.HoursRequired == nil || *stored.HoursRequired < *progress.HoursRequired) {
		stored.HoursRequired = cloneFloat(progress.HoursRequired)
	}

	satisfied := IsCompletionSatisfied(stored)
	if satisfied && !p.DisableAutoComplete {
		ctx := p.Context
		if ctx == nil {
			ctx = &CompletionContext{}
		}
		ctx.State = state
		ctx.Definition = definition
		if ctx.CompletionDay == nil {
			day := workingDay
			ctx.CompletionDay = &day
		}
		if ctx.Metadata == nil {
			ctx.Metadata = stored.Metadata
		}
		CompleteInstance(state, definition, stored, ctx)
	}

	return AdvanceResult{Instance: stored, Completed: satisfied}, nil
}

// CompleteInstance finalizes an instance: it stamps completion, mirrors the
// final hours into the progress record, runs the definition's preparation
// hook, disburses the market payout, and fires the completion hooks. Hook
// failures are logged and discarded so a broken extension can never roll
// back or block a completion. Safe to call on an already-completed
// instance; the payout bridge pays at most once.
func CompleteInstance(state *State, definition *Template, instance *Instance, ctx *CompletionContext) *Instance {
	if definition == nil || definition.ID == "" || instance == nil {
		return nil
	}
	entry := ensureActionState(state, definition.ID)
	stored := findInstance(entry, instance.ID)
	if stored == nil {
		stored = instance
	}
	if ctx == nil {
		ctx = &CompletionContext{}
	}
	ctx.State = state
	ctx.Definition = definition
	ctx.Instance = stored

	if ctx.EffectiveHours != nil && *ctx.EffectiveHours >= 0 {
		hours := RoundHours(*ctx.EffectiveHours)
		stored.HoursLogged = hours
		if stored.HoursRequired == nil || *stored.HoursRequired <= 0 {
			stored.HoursRequired = Float(hours)
		}
		progress := ensureInstanceProgress(definition, stored)
		progress.HoursLogged = hours
		progress.DailyLog = normalizeDailyLog(progress.DailyLog)
		if ctx.CompletionDay != nil {
			clamped := clampDay(*ctx.CompletionDay, 1)
			progress.LastWorkedDay = &clamped
		}
	}

	if payout := firstFloat(ctx.FinalPayout, ctx.PayoutGranted); payout != nil {
		stored.PayoutAwarded = *payout
	}
	if ctx.Metadata != nil && stored.Metadata == nil {
		stored.Metadata = ctx.Metadata.Clone()
	}

	stored.Completed = true
	stored.Status = InstanceCompleted
	completionDay := state.CurrentDay()
	if ctx.CompletionDay != nil {
		completionDay = clampDay(*ctx.CompletionDay, completionDay)
	}
	if completionDay < stored.AcceptedOnDay {
		completionDay = stored.AcceptedOnDay
	}
	stored.CompletedOnDay = &completionDay

	progress := ensureInstanceProgress(definition, stored)
	progress.Completed = true
	progress.CompletedOnDay = &completionDay

	ctx.CompletionHours = stored.HoursLogged
	if ctx.CompletionDay == nil {
		ctx.CompletionDay = &completionDay
	}

	if definition.PrepareCompletion != nil {
		if err := definition.PrepareCompletion(ctx); err != nil {
			ctx.logger().Warn("completion preparation hook failed",
				"definition", definition.ID, "instance", stored.ID, "error", err)
		}
	}

	ProcessCompletionPayout(ctx)

	for _, hook := range definition.CompletionHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx); err != nil {
			ctx.logger().Warn("completion hook failed",
				"definition", definition.ID, "instance", stored.ID, "error", err)
		}
	}

	return stored
}

// ResetInstance zeroes all logged progress. With clearCompletion it also
// rewinds completion state back to the instance's pre-completion status;
// any payout already disbursed through the market is not clawed back.
func ResetInstance(state *State, definition *Template, instanceID string, clearCompletion bool) (*Instance, error) {
	if definition == nil || definition.ID == "" {
		return nil, ErrDefinitionRequired
	}
	entry := ensureActionState(state, definition.ID)
	stored := findInstance(entry, instanceID)
	if stored == nil {
		return nil, ErrInstanceNotFound
	}

	progress := ensureInstanceProgress(definition, stored)
	stored.HoursLogged = 0
	progress.DailyLog = map[int]float64{}
	progress.DaysCompleted = 0
	progress.HoursLogged = 0
	progress.LastWorkedDay = nil
	progress.Completed = false
	progress.CompletedOnDay = nil

	if clearCompletion {
		stored.Completed = false
		if stored.Accepted {
			stored.Status = InstanceActive
		} else {
			stored.Status = InstancePending
		}
		stored.CompletedOnDay = nil
		stored.PayoutAwarded = 0
	}

	return stored, nil
}

// AbandonInstance removes the instance outright. There is no soft-delete
// state; an abandoned instance simply stops existing.
func AbandonInstance(state *State, definition *Template, instanceID string) bool {
	if definition == nil || definition.ID == "" || instanceID == "" {
		return false
	}
	entry := ensureActionState(state, definition.ID)
	for i, instance := range entry.Instances {
		if instance != nil && instance.ID == instanceID {
			entry.Instances = append(entry.Instances[:i], entry.Instances[i+1:]...)
			return true
		}
	}
	return false
}

// resolveCompletionDay picks the best-known day an instance finished on.
func resolveCompletionDay(instance *Instance) *int {
	if instance == nil {
		return nil
	}
	candidates := []*int{instance.CompletedOnDay}
	if instance.Progress != nil {
		candidates = append(candidates, instance.Progress.CompletedOnDay, instance.Progress.LastWorkedDay)
	}
	candidates = append(candidates, Int(instance.AcceptedOnDay))
	for _, candidate := range candidates {
		if candidate != nil && *candidate > 0 {
			return cloneInt(candidate)
		}
	}
	return nil
}

func isInstanceCompleted(instance *Instance) bool {
	if instance == nil {
		return false
	}
	if instance.Completed || instance.Status == InstanceCompleted {
		return true
	}
	return instance.Progress != nil && instance.Progress.Completed
}

// shouldRetireInstance reports whether a completed instance has aged past
// the retention window and can be dropped from the roster.
func shouldRetireInstance(instance *Instance, currentDay int) bool {
	completionDay := resolveCompletionDay(instance)
	if completionDay == nil {
		return false
	}
	return currentDay-*completionDay >= CompletedRetentionDays
}

// normalizeInstance repairs a persisted instance in place: missing ids,
// negative hours, status/flag disagreements, and the deadline mirror. The
// definition supplies fallback hour requirements for records that predate
// the progress field.
func normalizeInstance(definition *Template, instance *Instance, fallbackDay int) *Instance {
	if instance == nil {
		return nil
	}
	if instance.ID == "" {
		instance.ID = newInstanceID()
	}
	if instance.DefinitionID == "" && definition != nil {
		instance.DefinitionID = definition.ID
	}
	instance.Accepted = instance.Accepted ||
		instance.Status == InstanceActive || instance.Status == InstanceCompleted

	if instance.HoursRequired != nil && *instance.HoursRequired < 0 {
		instance.HoursRequired = nil
	}
	if instance.HoursRequired == nil && definition != nil && definition.Time != nil && *definition.Time > 0 {
		instance.HoursRequired = Float(RoundHours(*definition.Time))
	}
	if instance.HoursLogged < 0 || instance.HoursLogged != instance.HoursLogged {
		instance.HoursLogged = 0
	}
	if instance.PayoutAwarded != instance.PayoutAwarded {
		instance.PayoutAwarded = 0
	}
	instance.AcceptedOnDay = clampDay(instance.AcceptedOnDay, clampDay(fallbackDay, 1))
	if instance.DeadlineDay != nil && *instance.DeadlineDay < 1 {
		instance.DeadlineDay = nil
	}

	instance.Completed = instance.Completed || instance.Status == InstanceCompleted
	if instance.Completed {
		if instance.CompletedOnDay == nil || *instance.CompletedOnDay < 1 {
			instance.CompletedOnDay = Int(instance.AcceptedOnDay)
		}
	} else if instance.CompletedOnDay != nil && *instance.CompletedOnDay < 1 {
		instance.CompletedOnDay = nil
	}
	if instance.Status == "" {
		switch {
		case instance.Completed:
			instance.Status = InstanceCompleted
		case instance.Accepted:
			instance.Status = InstanceActive
		default:
			instance.Status = InstancePending
		}
	}

	progress := ensureInstanceProgress(definition, instance)
	recomputeProgress(progress)
	if progress.HoursLogged > 0 || len(progress.DailyLog) > 0 {
		instance.HoursLogged = progress.HoursLogged
	} else {
		progress.HoursLogged = instance.HoursLogged
	}
	if instance.Completed && !progress.Completed {
		progress.Completed = true
		progress.CompletedOnDay = cloneInt(instance.CompletedOnDay)
	}

	return instance
}

// NormalizeActionState repairs one definition's roster: every instance is
// normalized, completed instances older than the retention window are
// retired, and the roster is capped at MaxInstancesPerDefinition. Active
// and pending instances are always preferred over retained completed ones;
// when even the active set overflows, the oldest are dropped first.
func NormalizeActionState(state *State, definition *Template, definitionID string) *ActionState {
	if definitionID == "" && definition != nil {
		definitionID = definition.ID
	}
	entry := ensureActionState(state, definitionID)
	currentDay := state.CurrentDay()

	if entry.RunsToday < 0 {
		entry.RunsToday = 0
	}
	if entry.LastRunDay < 0 {
		entry.LastRunDay = 0
	}

	var live []*Instance
	var completed []*Instance
	for _, instance := range entry.Instances {
		if instance == nil {
			continue
		}
		if isInstanceCompleted(instance) {
			if !shouldRetireInstance(instance, currentDay) {
				completed = append(completed, instance)
			}
		} else {
			live = append(live, instance)
		}
	}

	slots := MaxInstancesPerDefinition - len(live)
	if slots < 0 {
		slots = 0
	}
	if len(completed) > slots {
		completed = completed[len(completed)-slots:]
	}
	if len(live) > MaxInstancesPerDefinition {
		live = live[len(live)-MaxInstancesPerDefinition:]
	}

	kept := make([]*Instance, 0, len(live)+len(completed))
	kept = append(kept, live...)
	kept = append(kept, completed...)

	normalized := make([]*Instance, 0, len(kept))
	for _, instance := range kept {
		if fixed := normalizeInstance(definition, instance, currentDay); fixed != nil {
			normalized = append(normalized, fixed)
		}
	}
	entry.Instances = normalized
	return entry
}
