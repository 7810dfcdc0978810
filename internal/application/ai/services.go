// Package ai assesses messages with a language model and falls back to a local heuristic.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/cyberguard/internal/domain/ai"
	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
	"github.com/bryanwahyu/cyberguard/internal/infra/ai/prompt"
)

// MessageAssessor implements scans.MessageAssessor on top of an ai.Client.
type MessageAssessor struct {
	client   ai.Client
	fallback scans.MessageAssessor
}

func NewMessageAssessor(client ai.Client, fallback scans.MessageAssessor) *MessageAssessor {
	return &MessageAssessor{client: client, fallback: fallback}
}

func (s *MessageAssessor) AssessMessage(ctx context.Context, message string, simple bool) (scans.RiskVerdict, error) {
	v, err := s.ask(ctx, message, simple)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, ai.ErrQuotaExceeded) {
		slog.Warn("ai: quota exceeded, using heuristic", "error", err)
	} else {
		slog.Warn("ai: assessment failed, using heuristic", "error", err)
	}
	return s.fallback.AssessMessage(ctx, message, simple)
}

func (s *MessageAssessor) ask(ctx context.Context, message string, simple bool) (scans.RiskVerdict, error) {
	raw, err := s.client.Complete(ctx, prompt.GetSystemPrompt(), prompt.GetUserPrompt(message, simple))
	if err != nil {
		return scans.RiskVerdict{}, err
	}
	var v scans.RiskVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return scans.RiskVerdict{}, fmt.Errorf("decode answer: %w", err)
	}
	if !v.RiskLevel.Valid() {
		return scans.RiskVerdict{}, fmt.Errorf("answer has unknown risk level %q", v.RiskLevel)
	}
	v.Score = min(max(v.Score, 0), 100)
	return v, nil
}
