package game

// Template is static authored content describing a hustle/job family and its
// market rules. Templates are immutable at runtime; the engine never writes
// back into them.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Time is the base hours cost when neither variant nor market metadata
	// declares one.
	Time *float64 `json:"time,omitempty"`
	// Payout is the base payout when no metadata layer overrides it.
	Payout *PayoutTerms `json:"payout,omitempty"`
	// Progress is the template-level progress shape used when instances are
	// accepted for this definition.
	Progress *ProgressSpec `json:"progress,omitempty"`

	Market *MarketConfig `json:"market,omitempty"`

	// PrepareCompletion runs before the completion payout bridge. Failures
	// are swallowed; completion must never be blocked by an extension.
	PrepareCompletion CompletionHook `json:"-"`
	// CompletionHooks run after completion fully commits. Failures are
	// logged and swallowed.
	CompletionHooks []CompletionHook `json:"-"`
}

// CompletionHook observes instance completion. Hooks may fail; the engine
// never propagates their errors.
type CompletionHook func(ctx *CompletionContext) error

// MarketConfig describes how a template participates in daily offer rolls.
type MarketConfig struct {
	Category           string           `json:"category,omitempty"`
	Variants           []VariantConfig  `json:"variants,omitempty"`
	SlotsPerRoll       int              `json:"slotsPerRoll,omitempty"`
	MaxActive          *int             `json:"maxActive,omitempty"`
	Seats              *int             `json:"seats,omitempty"`
	DurationDays       int              `json:"durationDays,omitempty"`
	AvailableAfterDays int              `json:"availableAfterDays,omitempty"`
	Metadata           *MetadataSource  `json:"metadata,omitempty"`
}

// VariantConfig is one authored flavor of a template's offer. Unset fields
// fall back to the template-level defaults during pool construction.
type VariantConfig struct {
	ID                 string          `json:"id,omitempty"`
	Label              string          `json:"label,omitempty"`
	Description        string          `json:"description,omitempty"`
	DefinitionID       string          `json:"definitionId,omitempty"`
	Weight             *float64        `json:"weight,omitempty"`
	DurationDays       *int            `json:"durationDays,omitempty"`
	AvailableAfterDays *int            `json:"availableAfterDays,omitempty"`
	Copies             *int            `json:"copies,omitempty"`
	MaxActive          *int            `json:"maxActive,omitempty"`
	Seats              *int            `json:"seats,omitempty"`
	Metadata           *MetadataSource `json:"metadata,omitempty"`
}

// Variant is a normalized, selection-ready flavor drawn from a template's
// variant pool.
type Variant struct {
	ID                 string          `json:"id"`
	Label              string          `json:"label"`
	Description        string          `json:"description,omitempty"`
	DefinitionID       string          `json:"definitionId"`
	Weight             float64         `json:"weight"`
	DurationDays       int             `json:"durationDays"`
	AvailableAfterDays int             `json:"availableAfterDays"`
	Copies             int             `json:"copies"`
	MaxActive          int             `json:"maxActive"`
	Seats              int             `json:"seats"`
	Metadata           *MetadataSource `json:"metadata,omitempty"`
}

// MetadataSource is one layer of the offer metadata cascade. Layers are
// merged by ResolveMetadata with a fixed precedence instead of ad hoc
// spreads at each call site.
type MetadataSource struct {
	HoursRequired    *float64       `json:"hoursRequired,omitempty"`
	TimeHours        *float64       `json:"timeHours,omitempty"`
	RequirementHours *float64       `json:"requirementHours,omitempty"`
	PayoutAmount     *float64       `json:"payoutAmount,omitempty"`
	PayoutSchedule   PayoutSchedule `json:"payoutSchedule,omitempty"`
	HoursPerDay      *float64       `json:"hoursPerDay,omitempty"`
	DaysRequired     *int           `json:"daysRequired,omitempty"`
	CompletionMode   string         `json:"completionMode,omitempty"`
	ProgressLabel    string         `json:"progressLabel,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// PayoutTerms pairs an amount with the schedule controlling when it pays.
type PayoutTerms struct {
	Amount   *float64       `json:"amount,omitempty"`
	Schedule PayoutSchedule `json:"schedule,omitempty"`
}

// ProgressSpec declares the shape of progress tracking for a definition or a
// resolved offer: which completion condition applies and its thresholds.
type ProgressSpec struct {
	Type           string   `json:"type,omitempty"`
	Completion     string   `json:"completion,omitempty"`
	CompletionMode string   `json:"completionMode,omitempty"`
	HoursRequired  *float64 `json:"hoursRequired,omitempty"`
	HoursPerDay    *float64 `json:"hoursPerDay,omitempty"`
	DaysRequired   *int     `json:"daysRequired,omitempty"`
	DeadlineDay    *int     `json:"deadlineDay,omitempty"`
	Label          string   `json:"label,omitempty"`
}

func (p *ProgressSpec) clone() *ProgressSpec {
	if p == nil {
		return nil
	}
	out := *p
	out.HoursRequired = cloneFloat(p.HoursRequired)
	out.HoursPerDay = cloneFloat(p.HoursPerDay)
	out.DaysRequired = cloneInt(p.DaysRequired)
	out.DeadlineDay = cloneInt(p.DeadlineDay)
	return &out
}

func (s *MetadataSource) clone() *MetadataSource {
	if s == nil {
		return nil
	}
	out := *s
	out.HoursRequired = cloneFloat(s.HoursRequired)
	out.TimeHours = cloneFloat(s.TimeHours)
	out.RequirementHours = cloneFloat(s.RequirementHours)
	out.PayoutAmount = cloneFloat(s.PayoutAmount)
	out.HoursPerDay = cloneFloat(s.HoursPerDay)
	out.DaysRequired = cloneInt(s.DaysRequired)
	out.Extra = cloneExtra(s.Extra)
	return &out
}

func (p PayoutTerms) clone() PayoutTerms {
	p.Amount = cloneFloat(p.Amount)
	return p
}

// Category returns the market partition this template rolls into.
func (t *Template) Category() string {
	if t == nil || t.Market == nil || t.Market.Category == "" {
		return DefaultCategory
	}
	return t.Market.Category
}
