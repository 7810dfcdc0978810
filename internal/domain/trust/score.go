// Package trust derives a per-user trust score from that user's scan history.
package trust

import "github.com/bryanwahyu/cyberguard/internal/domain/scans"

// Level names, highest tier first.
const (
	LevelGuardian = "Cyber Guardian"
	LevelSmart    = "Cyber Smart"
	LevelSafe     = "Safe"
	LevelAware    = "Aware"
	LevelBeginner = "Beginner"
)

// RecentLimit is how many of the user's scans are echoed back with the score.
const RecentLimit = 5

// Score is the trust report for one user.
type Score struct {
	Score       int            `json:"score"`
	Level       string         `json:"level"`
	TotalScans  int            `json:"totalScans"`
	SafeActions int            `json:"safeActions"`
	RecentScans []scans.Record `json:"recentScans"`
}

// Calculate scores userScans, which must be in creation order.
//
//	score = min(100, floor(safe/max(total,1)*100) + total*2)
func Calculate(userScans []scans.Record) Score {
	total := len(userScans)
	safe := 0
	for _, r := range userScans {
		if safeAction(r.Result) {
			safe++
		}
	}

	score := safe*100/max(total, 1) + total*2
	score = min(score, 100)

	return Score{
		Score:       score,
		Level:       levelFor(score),
		TotalScans:  total,
		SafeActions: safe,
		RecentScans: scans.Latest(userScans, RecentLimit),
	}
}

// safeAction is a scan judged safe or a password rated strong. Password results have no
// risk level of their own, so only their strength counts here.
func safeAction(r scans.Result) bool {
	if r.Risk != nil && r.Risk.RiskLevel == scans.RiskSafe {
		return true
	}
	return r.Strength() == scans.StrengthStrong
}

func levelFor(score int) string {
	switch {
	case score >= 80:
		return LevelGuardian
	case score >= 60:
		return LevelSmart
	case score >= 40:
		return LevelSafe
	case score >= 20:
		return LevelAware
	default:
		return LevelBeginner
	}
}
