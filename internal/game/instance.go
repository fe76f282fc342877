package game

import (
	"github.com/google/uuid"
)

// Instance is the player-facing unit of work created when a definition is
// accepted. Its progress record owns the daily hour log; the flat
// HoursLogged field is always re-derived from that log.
type Instance struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definitionId"`
	Name         string `json:"name,omitempty"`

	Accepted      bool `json:"accepted"`
	AcceptedOnDay int  `json:"acceptedOnDay"`
	DeadlineDay   *int `json:"deadlineDay,omitempty"`

	// HoursRequired is nil when the definition declares no hour
	// requirement at all. Such instances never auto-complete.
	HoursRequired *float64 `json:"hoursRequired,omitempty"`
	HoursLogged   float64  `json:"hoursLogged"`

	Status         InstanceStatus `json:"status"`
	Completed      bool           `json:"completed"`
	CompletedOnDay *int           `json:"completedOnDay,omitempty"`
	PayoutAwarded  float64        `json:"payoutAwarded"`

	Progress *InstanceProgress `json:"progress,omitempty"`
	Metadata *Metadata         `json:"metadata,omitempty"`
}

// InstanceProgress tracks hour logging for one instance. Aggregates
// (HoursLogged, DaysCompleted, LastWorkedDay) are recomputed from DailyLog
// after every mutation rather than updated incrementally, so they cannot
// drift from the log.
type InstanceProgress struct {
	Type           string          `json:"type"`
	Completion     string          `json:"completion"`
	CompletionMode string          `json:"completionMode,omitempty"`
	HoursRequired  *float64        `json:"hoursRequired,omitempty"`
	HoursPerDay    *float64        `json:"hoursPerDay,omitempty"`
	DaysRequired   *int            `json:"daysRequired,omitempty"`
	DeadlineDay    *int            `json:"deadlineDay,omitempty"`
	DailyLog       map[int]float64 `json:"dailyLog"`
	DaysCompleted  int             `json:"daysCompleted"`
	HoursLogged    float64         `json:"hoursLogged"`
	LastWorkedDay  *int            `json:"lastWorkedDay,omitempty"`
	Completed      bool            `json:"completed"`
	CompletedOnDay *int            `json:"completedOnDay,omitempty"`
	Label          string          `json:"label,omitempty"`
}

// Clone deep-copies an instance.
func (in *Instance) Clone() *Instance {
	if in == nil {
		return nil
	}
	out := *in
	out.DeadlineDay = cloneInt(in.DeadlineDay)
	out.HoursRequired = cloneFloat(in.HoursRequired)
	out.CompletedOnDay = cloneInt(in.CompletedOnDay)
	out.Metadata = in.Metadata.Clone()
	out.Progress = in.Progress.Clone()
	return &out
}

// Clone deep-copies a progress record.
func (p *InstanceProgress) Clone() *InstanceProgress {
	if p == nil {
		return nil
	}
	out := *p
	out.HoursRequired = cloneFloat(p.HoursRequired)
	out.HoursPerDay = cloneFloat(p.HoursPerDay)
	out.DaysRequired = cloneInt(p.DaysRequired)
	out.DeadlineDay = cloneInt(p.DeadlineDay)
	out.LastWorkedDay = cloneInt(p.LastWorkedDay)
	out.CompletedOnDay = cloneInt(p.CompletedOnDay)
	out.DailyLog = make(map[int]float64, len(p.DailyLog))
	for day, hours := range p.DailyLog {
		out.DailyLog[day] = hours
	}
	return &out
}

// normalizeDailyLog drops junk entries and folds duplicate days together.
func normalizeDailyLog(log map[int]float64) map[int]float64 {
	normalized := map[int]float64{}
	for dayKey, hours := range log {
		if hours != hours || hours < 0 { // NaN or negative
			continue
		}
		day := clampDay(dayKey, 1)
		normalized[day] = RoundHours(normalized[day] + hours)
	}
	return normalized
}

// AcceptOverrides tune instance creation beyond what the definition says.
type AcceptOverrides struct {
	Name          string
	HoursRequired *float64
	DeadlineDay   *int
	Progress      *ProgressSpec
	Metadata      *Metadata
}

// newInstanceProgress builds the progress record for a fresh instance from
// the definition's progress template merged with per-accept overrides.
// Override fields win over the definition's template.
func newInstanceProgress(definition *Template, overrides AcceptOverrides) *InstanceProgress {
	var template ProgressSpec
	if definition != nil && definition.Progress != nil {
		template = *definition.Progress
	}
	var supplied ProgressSpec
	if overrides.Progress != nil {
		supplied = *overrides.Progress
	}
	var metaProgress ProgressSpec
	if overrides.Metadata != nil && overrides.Metadata.Progress != nil {
		metaProgress = *overrides.Metadata.Progress
	}

	progress := &InstanceProgress{
		Type:       firstString(supplied.Type, template.Type, "instant"),
		Completion: firstString(supplied.Completion, template.Completion, "instant"),
		DailyLog:   map[int]float64{},
	}

	if hours := firstFloat(supplied.HoursRequired, template.HoursRequired, overrides.HoursRequired); hours != nil {
		rounded := RoundHours(*hours)
		progress.HoursRequired = &rounded
	}
	if hpd := firstPositiveFloat(supplied.HoursPerDay, template.HoursPerDay); hpd != nil {
		rounded := RoundHours(*hpd)
		progress.HoursPerDay = &rounded
	}
	progress.DaysRequired = firstInt(supplied.DaysRequired, template.DaysRequired)

	deadline := supplied.DeadlineDay
	if deadline == nil {
		deadline = template.DeadlineDay
	}
	if deadline == nil {
		deadline = overrides.DeadlineDay
	}
	if deadline != nil {
		clamped := clampDay(*deadline, 1)
		progress.DeadlineDay = &clamped
	}

	progress.Label = firstString(supplied.Label, metaProgress.Label, template.Label)

	mode := firstString(
		supplied.CompletionMode,
		metaProgress.CompletionMode,
		metaProgress.Completion,
		template.CompletionMode,
		progress.Completion,
	)
	progress.CompletionMode = mode
	if progress.Completion == "" {
		progress.Completion = mode
	}

	return progress
}

// ensureInstanceProgress lazily repairs instances whose progress record was
// lost, and keeps the deadline mirrored between instance and progress.
func ensureInstanceProgress(definition *Template, instance *Instance) *InstanceProgress {
	if instance == nil {
		return nil
	}
	if instance.Progress == nil {
		instance.Progress = newInstanceProgress(definition, AcceptOverrides{
			HoursRequired: instance.HoursRequired,
			DeadlineDay:   instance.DeadlineDay,
			Metadata:      instance.Metadata,
		})
	}
	if instance.Progress.DeadlineDay == nil && instance.DeadlineDay != nil {
		clamped := clampDay(*instance.DeadlineDay, 1)
		instance.Progress.DeadlineDay = &clamped
	} else if instance.DeadlineDay == nil && instance.Progress.DeadlineDay != nil {
		clamped := clampDay(*instance.Progress.DeadlineDay, 1)
		instance.DeadlineDay = &clamped
	}
	return instance.Progress
}

// recomputeProgress re-derives every aggregate from the daily log.
// DaysCompleted is only recomputed when an hoursPerDay threshold exists;
// otherwise the stored count is kept (clamped to zero).
func recomputeProgress(progress *InstanceProgress) {
	if progress == nil {
		return
	}
	progress.DailyLog = normalizeDailyLog(progress.DailyLog)

	total := 0.0
	var lastDay *int
	for day, hours := range progress.DailyLog {
		total += hours
		if lastDay == nil || day > *lastDay {
			d := day
			lastDay = &d
		}
	}
	progress.HoursLogged = RoundHours(total)
	progress.LastWorkedDay = lastDay

	if progress.HoursPerDay != nil && *progress.HoursPerDay > 0 {
		threshold := *progress.HoursPerDay - HoursEpsilon
		count := 0
		for _, hours := range progress.DailyLog {
			if hours >= threshold {
				count++
			}
		}
		progress.DaysCompleted = count
	} else if progress.DaysCompleted < 0 {
		progress.DaysCompleted = 0
	}
}

// IsCompletionSatisfied reports whether an instance has met every declared
// requirement. Requirements are checked strictest first: daysRequired gates
// ahead of the hour checks, so an instance with its hours logged but its
// working days unmet does not complete. An instance with no declared
// requirement at all never auto-completes; those are closed by external
// logic (manual study tracks).
func IsCompletionSatisfied(instance *Instance) bool {
	if instance == nil {
		return false
	}
	hasRequirement := false

	if progress := instance.Progress; progress != nil {
		if progress.DaysRequired != nil && *progress.DaysRequired > 0 {
			hasRequirement = true
			if progress.DaysCompleted < *progress.DaysRequired {
				return false
			}
		}
		if progress.HoursRequired != nil && *progress.HoursRequired >= 0 {
			hasRequirement = true
			if instance.HoursLogged < *progress.HoursRequired-HoursEpsilon {
				return false
			}
		}
	}

	if instance.HoursRequired != nil && *instance.HoursRequired >= 0 {
		hasRequirement = true
		if instance.HoursLogged < *instance.HoursRequired-HoursEpsilon {
			return false
		}
	}

	return hasRequirement
}

func newInstanceID() string {
	return uuid.NewString()
}
