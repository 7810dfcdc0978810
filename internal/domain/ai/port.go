package ai

import "context"

// Client sends one system/user prompt pair and returns the raw answer.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
