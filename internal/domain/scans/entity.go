package scans

import (
	"bytes"
	"encoding/json"
	"time"
)

// ScanID tipe untuk Record
type ScanID int64

// Type enum
type Type string

const (
	TypeURL      Type = "url"
	TypeMessage  Type = "message"
	TypePassword Type = "password"
	TypeFile     Type = "file"
)

// Types lists every scan type in display order.
var Types = []Type{TypeURL, TypeMessage, TypePassword, TypeFile}

// RiskLevel enum
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists the histogram buckets, lowest first.
var RiskLevels = []RiskLevel{RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Valid reports whether l is one of the five enumerated levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// LevelFromScore buckets a 0-100 risk score.
func LevelFromScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 35:
		return RiskMedium
	case score >= 15:
		return RiskLow
	default:
		return RiskSafe
	}
}

// Strength enum, password only
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// RiskVerdict is the assessment of a url, message or file.
type RiskVerdict struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	Score           int       `json:"score"`
	Threats         []string  `json:"threats,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Summary         string    `json:"summary,omitempty"`
}

// PasswordVerdict is the only part of a password assessment that is ever persisted.
type PasswordVerdict struct {
	Strength Strength `json:"strength"`
	Score    int      `json:"score"`
}

// PasswordAssessment is the full answer returned to the caller of a password scan.
type PasswordAssessment struct {
	Strength  Strength `json:"strength"`
	Score     int      `json:"score"`
	Feedback  []string `json:"feedback,omitempty"`
	CrackTime string   `json:"crackTime,omitempty"`
}

// Verdict narrows the assessment to what may be stored.
func (p PasswordAssessment) Verdict() PasswordVerdict {
	return PasswordVerdict{Strength: p.Strength, Score: p.Score}
}

// Result is a tagged variant: exactly one of Risk or Password is set.
type Result struct {
	Risk     *RiskVerdict
	Password *PasswordVerdict
}

// Level is the risk level readers aggregate on. Password results carry no level and count as safe.
func (r Result) Level() RiskLevel {
	if r.Risk == nil || r.Risk.RiskLevel == "" {
		return RiskSafe
	}
	return r.Risk.RiskLevel
}

// Strength returns the password strength, or "" for non-password results.
func (r Result) Strength() Strength {
	if r.Password == nil {
		return ""
	}
	return r.Password.Strength
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Password != nil:
		return json.Marshal(r.Password)
	case r.Risk != nil:
		return json.Marshal(r.Risk)
	default:
		return []byte("{}"), nil
	}
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var probe struct {
		RiskLevel *string `json:"riskLevel"`
		Strength  *string `json:"strength"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*r = Result{}
	if probe.Strength != nil && probe.RiskLevel == nil {
		var p PasswordVerdict
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		r.Password = &p
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("{}")) {
		return nil
	}
	var v RiskVerdict
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Risk = &v
	return nil
}

// Record is one persisted scan outcome. Records are never mutated after creation.
type Record struct {
	ID        ScanID    `json:"id"`
	Type      Type      `json:"type"`
	Input     string    `json:"input"`
	Result    Result    `json:"result"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// FileInfo describes a file submitted for a scan; the content itself is never uploaded.
type FileInfo struct {
	Name string `json:"fileName"`
	Size int64  `json:"fileSize,omitempty"`
	Type string `json:"fileType,omitempty"`
}

// Latest returns up to n records from the end of recs, most recent first.
func Latest(recs []Record, n int) []Record {
	if n > len(recs) {
		n = len(recs)
	}
	out := make([]Record, 0, n)
	for i := len(recs) - 1; i >= len(recs)-n; i-- {
		out = append(out, recs[i])
	}
	return out
}
