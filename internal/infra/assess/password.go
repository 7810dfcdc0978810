package assess

import (
	"context"
	"strings"
	"unicode"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

var commonPasswords = []string{"password", "123456", "qwerty", "letmein", "admin", "welcome", "iloveyou", "monkey"}

// Password rates strength from length, character classes and common patterns.
type Password struct{}

func (Password) AssessPassword(_ context.Context, pw string) (scans.PasswordAssessment, error) {
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	n := len([]rune(pw))

	score := min(n*4, 40)
	var feedback []string
	for _, has := range []struct {
		ok  bool
		msg string
	}{
		{lower, "Add lowercase letters"},
		{upper, "Add uppercase letters"},
		{digit, "Add numbers"},
		{symbol, "Add symbols"},
	} {
		if has.ok {
			score += 15
		} else {
			feedback = append(feedback, has.msg)
		}
	}
	if n < 8 {
		feedback = append(feedback, "Use at least 8 characters")
	}
	low := strings.ToLower(pw)
	for _, c := range commonPasswords {
		if strings.Contains(low, c) {
			score -= 40
			feedback = append(feedback, "Avoid common words and sequences")
			break
		}
	}
	score = min(max(score, 0), 100)

	a := scans.PasswordAssessment{Score: score, Feedback: feedback}
	switch {
	case score >= 75:
		a.Strength = scans.StrengthStrong
		a.CrackTime = "centuries"
	case score >= 45:
		a.Strength = scans.StrengthMedium
		a.CrackTime = "days to months"
	default:
		a.Strength = scans.StrengthWeak
		a.CrackTime = "seconds to hours"
	}
	return a, nil
}
