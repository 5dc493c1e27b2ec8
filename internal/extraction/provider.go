// internal/extraction/provider.go
package extraction

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// NewClient creates an extraction client based on configuration. A
// disabled provider returns a NoOpClient so deterministic-only
// deployments need no API key.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "disabled":
		return &NoOpClient{}, nil
	case "anthropic":
		return newAnthropicClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NoOpClient is a no-op implementation of Client. Every call fails, so
// escalation exhausts immediately and the caller falls back to the
// deterministic extractor.
type NoOpClient struct{}

// Extract always reports the provider as disabled.
func (n *NoOpClient) Extract(ctx context.Context, segments []transcript.Segment, model string, temperature float64, simplified bool) ([]RawItem, error) {
	return nil, fmt.Errorf("extraction provider disabled")
}

// Ensure interfaces are implemented.
var _ Client = (*NoOpClient)(nil)
