package analytics

import (
	"time"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

// DailyStat is one entry of the reserved per-day series.
type DailyStat struct {
	Date  string `json:"date"`
	Scans int    `json:"scans"`
}

// State is the analytics singleton document. Counters only ever grow.
type State struct {
	TotalScans     int                `json:"totalScans"`
	ScamsPrevented int                `json:"scamsPrevented"`
	ThreatTypes    map[scans.Type]int `json:"threatTypes"`
	DailyStats     []DailyStat        `json:"dailyStats"`
}

// NewState returns the zeroed document written on first startup.
func NewState() State {
	return State{
		ThreatTypes: map[scans.Type]int{},
		DailyStats:  []DailyStat{},
	}
}

// Apply counts one ingested scan.
func (s *State) Apply(t scans.Type, level scans.RiskLevel) {
	if s.ThreatTypes == nil {
		s.ThreatTypes = map[scans.Type]int{}
	}
	if s.DailyStats == nil {
		s.DailyStats = []DailyStat{}
	}
	s.TotalScans++
	if level != scans.RiskSafe {
		s.ScamsPrevented++
	}
	s.ThreatTypes[t]++
}

// Snapshot is the public analytics view.
type Snapshot struct {
	State
	ScamsPreventedToday int            `json:"scamsPreventedToday"`
	RecentScans         []scans.Record `json:"recentScans"`
}

// AdminSummary is the operational dashboard view built from a full scan of the records.
type AdminSummary struct {
	TotalScans     int                     `json:"totalScans"`
	ScamsPrevented int                     `json:"scamsPrevented"`
	ThreatCounts   map[scans.Type]int      `json:"threatCounts"`
	RiskLevels     map[scans.RiskLevel]int `json:"riskLevels"`
	RecentActivity []scans.Record          `json:"recentActivity"`
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// PreventedOn counts records created on the calendar day of now whose risk level is not
// safe. Password records carry no risk level and are counted.
func PreventedOn(recs []scans.Record, now time.Time) int {
	n := 0
	for _, r := range recs {
		if notSafe(r.Result) && SameDay(r.Timestamp, now) {
			n++
		}
	}
	return n
}

func notSafe(res scans.Result) bool {
	return res.Risk == nil || res.Risk.RiskLevel != scans.RiskSafe
}

// Histogram counts records per type and per risk level. Every enumerated level is present;
// levels outside the enumeration are not counted.
func Histogram(recs []scans.Record) (map[scans.Type]int, map[scans.RiskLevel]int) {
	types := map[scans.Type]int{}
	levels := make(map[scans.RiskLevel]int, len(scans.RiskLevels))
	for _, l := range scans.RiskLevels {
		levels[l] = 0
	}
	for _, r := range recs {
		types[r.Type]++
		if l := r.Result.Level(); l.Valid() {
			levels[l]++
		}
	}
	return types, levels
}

// Window sizes of the recent lists.
const (
	RecentScansLimit    = 10
	RecentActivityLimit = 20
)

// NewSnapshot builds the public view as of now.
func NewSnapshot(st State, recs []scans.Record, now time.Time) Snapshot {
	return Snapshot{
		State:               st,
		ScamsPreventedToday: PreventedOn(recs, now),
		RecentScans:         scans.Latest(recs, RecentScansLimit),
	}
}

// Summarize builds the admin view. Totals come from the counters, breakdowns from the records.
func Summarize(st State, recs []scans.Record) AdminSummary {
	types, levels := Histogram(recs)
	return AdminSummary{
		TotalScans:     st.TotalScans,
		ScamsPrevented: st.ScamsPrevented,
		ThreatCounts:   types,
		RiskLevels:     levels,
		RecentActivity: scans.Latest(recs, RecentActivityLimit),
	}
}
