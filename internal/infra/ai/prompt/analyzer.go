package prompt

import (
	"fmt"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a consumer fraud analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- riskLevel is one of: safe, low, medium, high, critical (lowercase).
- score is an integer from 0 to 100; higher means more likely a scam.
- threats lists the concrete warning signs found in the message. Keep items short.
- recommendations tells the reader what to do next.

Schema (example with empty values):
{
  "riskLevel": "safe",
  "score": 0,
  "threats": ["<string>"],
  "recommendations": ["<string>"],
  "summary": "<string>"
}`
}

// GetUserPrompt wraps the message to assess. Simple mode asks for plain words for non-technical readers.
func GetUserPrompt(message string, simple bool) string {
	style := "Use precise language."
	if simple {
		style = "Use very simple words and at most one threat and one recommendation."
	}
	return fmt.Sprintf("Assess whether this message is a scam and respond with the JSON per schema. %s\n\nMessage:\n%s", style, message)
}
