package game

// Metrics aggregates daily contribution buckets. Buckets are append-only
// within a day and keyed by a stable string id so repeated contributions
// from the same source accumulate.
type Metrics struct {
	Days map[int]*DayMetrics `json:"days,omitempty"`
}

// DayMetrics is one day's aggregation buckets.
type DayMetrics struct {
	Payouts map[string]*Contribution `json:"payouts,omitempty"`
	Costs   map[string]*Contribution `json:"costs,omitempty"`
	Time    map[string]*Contribution `json:"time,omitempty"`
}

// Contribution is an accumulated amount attributed to one source.
type Contribution struct {
	Key      string  `json:"key"`
	Label    string  `json:"label,omitempty"`
	Category string  `json:"category,omitempty"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

func NewMetrics() *Metrics {
	return &Metrics{Days: map[int]*DayMetrics{}}
}

func (m *Metrics) dayBucket(day int) *DayMetrics {
	if m.Days == nil {
		m.Days = map[int]*DayMetrics{}
	}
	day = clampDay(day, 1)
	bucket, ok := m.Days[day]
	if !ok {
		bucket = &DayMetrics{}
		m.Days[day] = bucket
	}
	return bucket
}

func accumulate(buckets map[string]*Contribution, key, label, category string, amount float64) map[string]*Contribution {
	if buckets == nil {
		buckets = map[string]*Contribution{}
	}
	c, ok := buckets[key]
	if !ok {
		c = &Contribution{Key: key, Label: label, Category: category}
		buckets[key] = c
	}
	if c.Label == "" {
		c.Label = label
	}
	c.Amount += amount
	c.Count++
	return buckets
}

// RecordPayoutContribution attributes earned money to a source.
func (m *Metrics) RecordPayoutContribution(day int, key, label, category string, amount float64) {
	if m == nil || key == "" || amount <= 0 {
		return
	}
	bucket := m.dayBucket(day)
	bucket.Payouts = accumulate(bucket.Payouts, key, label, category, amount)
}

// RecordCostContribution attributes spent money to a source.
func (m *Metrics) RecordCostContribution(day int, key, label, category string, amount float64) {
	if m == nil || key == "" || amount <= 0 {
		return
	}
	bucket := m.dayBucket(day)
	bucket.Costs = accumulate(bucket.Costs, key, label, category, amount)
}

// RecordTimeContribution attributes logged hours to a source.
func (m *Metrics) RecordTimeContribution(day int, key, label, category string, hours float64) {
	if m == nil || key == "" || hours <= 0 {
		return
	}
	bucket := m.dayBucket(day)
	bucket.Time = accumulate(bucket.Time, key, label, category, hours)
}
