package llm

import "context"

// EchoClient returns the user prompt unchanged. It stands in for a real
// provider in development and tests; tagged prompts come back well formed, so
// documents round-trip untranslated.
type EchoClient struct{}

// Translate returns userPrompt.
func (EchoClient) Translate(_ context.Context, _, userPrompt string) (string, error) {
	return userPrompt, nil
}
