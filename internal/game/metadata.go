package game

// Metadata is the fully resolved requirement/payout shape stamped onto an
// offer. It is self-contained: claiming an offer needs no further lookups
// into the template or variant that produced it.
type Metadata struct {
	HoursRequired      *float64       `json:"hoursRequired,omitempty"`
	Payout             PayoutTerms    `json:"payout"`
	Progress           *ProgressSpec  `json:"progress,omitempty"`
	AvailableAfterDays int            `json:"availableAfterDays"`
	DurationDays       int            `json:"durationDays"`
	Seats              int            `json:"seats,omitempty"`
	TemplateCategory   string         `json:"templateCategory,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// Clone deep-copies resolved metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	out.HoursRequired = cloneFloat(m.HoursRequired)
	out.Payout = m.Payout.clone()
	out.Progress = m.Progress.clone()
	out.Extra = cloneExtra(m.Extra)
	return &out
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v >= 0 {
			return cloneFloat(v)
		}
	}
	return nil
}

func firstPositiveFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return cloneFloat(v)
		}
	}
	return nil
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil && *v > 0 {
			return cloneInt(v)
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolveMetadata merges the metadata cascade for one offer. Precedence,
// highest first: variant metadata, template market metadata, template raw
// fields (Time, Payout, Progress). Each field is resolved independently by a
// first-non-nil scan, so a variant overriding payout does not hide the
// template's hour requirement.
func ResolveMetadata(template *Template, variant *Variant) *Metadata {
	var tplMeta, varMeta *MetadataSource
	var tplProgress *ProgressSpec
	var tplTime *float64
	var tplPayout PayoutTerms
	if template != nil {
		if template.Market != nil {
			tplMeta = template.Market.Metadata
		}
		tplProgress = template.Progress
		tplTime = template.Time
		if template.Payout != nil {
			tplPayout = *template.Payout
		}
	}
	if variant != nil {
		varMeta = variant.Metadata
	}

	meta := &Metadata{}
	if varMeta != nil {
		meta.Extra = cloneExtra(varMeta.Extra)
	}
	if meta.Extra == nil && tplMeta != nil {
		meta.Extra = cloneExtra(tplMeta.Extra)
	}

	meta.HoursRequired = firstFloat(
		sourceHours(varMeta),
		sourceHours(tplMeta),
		tplTime,
	)
	if meta.HoursRequired != nil {
		rounded := RoundHours(*meta.HoursRequired)
		meta.HoursRequired = &rounded
	}

	meta.Payout.Amount = firstFloat(
		sourcePayout(varMeta),
		sourcePayout(tplMeta),
		tplPayout.Amount,
	)
	meta.Payout.Schedule = PayoutSchedule(firstString(
		string(sourceSchedule(varMeta)),
		string(sourceSchedule(tplMeta)),
		string(tplPayout.Schedule),
		string(PayoutOnCompletion),
	))

	hoursPerDay := firstPositiveFloat(
		sourceHoursPerDay(varMeta),
		sourceHoursPerDay(tplMeta),
		progressHoursPerDay(tplProgress),
	)
	daysRequired := firstInt(
		sourceDaysRequired(varMeta),
		sourceDaysRequired(tplMeta),
		progressDaysRequired(tplProgress),
	)
	completion := firstString(
		sourceCompletion(varMeta),
		sourceCompletion(tplMeta),
		progressCompletion(tplProgress),
	)
	label := firstString(
		sourceLabel(varMeta),
		sourceLabel(tplMeta),
		progressLabel(tplProgress),
	)

	if hoursPerDay != nil || daysRequired != nil || completion != "" || label != "" || meta.HoursRequired != nil {
		progress := &ProgressSpec{
			HoursRequired: cloneFloat(meta.HoursRequired),
			HoursPerDay:   hoursPerDay,
			DaysRequired:  daysRequired,
			Label:         label,
		}
		if tplProgress != nil {
			progress.Type = tplProgress.Type
		}
		if completion != "" {
			progress.Completion = completion
			progress.CompletionMode = completion
		}
		meta.Progress = progress
	}

	if variant != nil {
		meta.AvailableAfterDays = clampDaySpan(variant.AvailableAfterDays, 0)
		meta.DurationDays = clampDaySpan(variant.DurationDays, 0)
		meta.Seats = clampPositiveInt(variant.Seats, 1)
	}
	if template != nil {
		meta.TemplateCategory = template.Category()
	}

	return meta
}

func sourceHours(s *MetadataSource) *float64 {
	if s == nil {
		return nil
	}
	return firstFloat(s.HoursRequired, s.TimeHours, s.RequirementHours)
}

func sourcePayout(s *MetadataSource) *float64 {
	if s == nil {
		return nil
	}
	return s.PayoutAmount
}

func sourceSchedule(s *MetadataSource) PayoutSchedule {
	if s == nil {
		return ""
	}
	return s.PayoutSchedule
}

func sourceHoursPerDay(s *MetadataSource) *float64 {
	if s == nil {
		return nil
	}
	return s.HoursPerDay
}

func sourceDaysRequired(s *MetadataSource) *int {
	if s == nil {
		return nil
	}
	return s.DaysRequired
}

func sourceCompletion(s *MetadataSource) string {
	if s == nil {
		return ""
	}
	return s.CompletionMode
}

func sourceLabel(s *MetadataSource) string {
	if s == nil {
		return ""
	}
	return s.ProgressLabel
}

func progressHoursPerDay(p *ProgressSpec) *float64 {
	if p == nil {
		return nil
	}
	return p.HoursPerDay
}

func progressDaysRequired(p *ProgressSpec) *int {
	if p == nil {
		return nil
	}
	return p.DaysRequired
}

func progressCompletion(p *ProgressSpec) string {
	if p == nil {
		return ""
	}
	return firstString(p.CompletionMode, p.Completion)
}

func progressLabel(p *ProgressSpec) string {
	if p == nil {
		return ""
	}
	return p.Label
}
