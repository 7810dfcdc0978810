package assess

import (
	"context"
	"regexp"
	"strings"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

type signal struct {
	name   string
	weight int
	words  []string
}

var messageSignals = []signal{
	{name: "Creates urgency or pressure", weight: 20, words: []string{"urgent", "immediately", "act now", "within 24 hours", "final notice", "suspended"}},
	{name: "Asks for credentials or codes", weight: 30, words: []string{"password", "otp", "verification code", "pin", "login", "ssn"}},
	{name: "Mentions money or payment", weight: 20, words: []string{"gift card", "wire transfer", "bitcoin", "payment", "refund", "bank account"}},
	{name: "Promises a reward", weight: 15, words: []string{"winner", "congratulations", "prize", "lottery", "free"}},
	{name: "Impersonates an authority", weight: 15, words: []string{"irs", "police", "tax office", "customs", "support team"}},
}

var linkPattern = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)

// Message scores text by scam signals and embedded links.
type Message struct{}

func (Message) AssessMessage(_ context.Context, message string, simple bool) (scans.RiskVerdict, error) {
	lower := strings.ToLower(message)
	score := 0
	var threats []string
	for _, s := range messageSignals {
		for _, w := range s.words {
			if strings.Contains(lower, w) {
				score += s.weight
				threats = append(threats, s.name)
				break
			}
		}
	}
	if links := linkPattern.FindAllString(message, -1); len(links) > 0 {
		score += 10 * min(len(links), 3)
		threats = append(threats, "Contains links")
	}

	advice := "Do not reply, click links or share codes. Contact the sender through an official channel."
	if simple {
		advice = "Be careful. Ask someone you trust before you answer."
		if len(threats) > 0 {
			threats = threats[:1]
		}
	}
	return verdict(score, threats, advice), nil
}
