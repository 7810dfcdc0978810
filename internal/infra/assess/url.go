// Package assess holds the built-in risk heuristics. They are intentionally simple and
// stand in for any assessor plugged into the scan service.
package assess

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".zip", ".mov"}

var phishingWords = []string{"login", "verify", "account", "secure", "update", "banking", "confirm", "password", "wallet", "free", "prize"}

var shorteners = []string{"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd"}

// URL scores links by scheme, host shape and wording.
type URL struct{}

func (URL) AssessURL(_ context.Context, raw string) (scans.RiskVerdict, error) {
	var threats []string
	score := 0

	target := raw
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return verdict(70, []string{"URL could not be parsed"}, "Do not open links that cannot be read as a normal web address."), nil
	}
	host := strings.ToLower(u.Hostname())

	if u.Scheme != "https" {
		score += 15
		threats = append(threats, "Connection is not encrypted (no HTTPS)")
	}
	if net.ParseIP(host) != nil {
		score += 30
		threats = append(threats, "Uses a raw IP address instead of a domain name")
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			score += 25
			threats = append(threats, "Domain uses a TLD often abused for scams ("+tld+")")
			break
		}
	}
	for _, s := range shorteners {
		if host == s {
			score += 15
			threats = append(threats, "Link shortener hides the real destination")
			break
		}
	}
	if strings.Count(host, ".") >= 4 {
		score += 15
		threats = append(threats, "Unusually deep subdomain chain")
	}
	if strings.Contains(host, "xn--") {
		score += 20
		threats = append(threats, "Internationalized domain may imitate a known brand")
	}
	if u.User != nil {
		score += 25
		threats = append(threats, "Credentials or @ in URL can disguise the destination")
	}
	lower := strings.ToLower(raw)
	hits := 0
	for _, w := range phishingWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	if hits > 0 {
		score += min(hits*10, 30)
		threats = append(threats, "Contains words common in phishing links")
	}
	if len(raw) > 100 {
		score += 10
		threats = append(threats, "Very long URL")
	}

	return verdict(score, threats, "Only open links you expected, and check the domain carefully."), nil
}

func verdict(score int, threats []string, advice string) scans.RiskVerdict {
	score = min(max(score, 0), 100)
	level := scans.LevelFromScore(score)
	v := scans.RiskVerdict{
		RiskLevel: level,
		Score:     score,
		Threats:   threats,
	}
	if level == scans.RiskSafe {
		v.Summary = "No obvious risk found."
		return v
	}
	v.Summary = "Potential risk detected."
	v.Recommendations = []string{advice}
	return v
}
