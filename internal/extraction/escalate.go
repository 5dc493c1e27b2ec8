// internal/extraction/escalate.go
package extraction

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/braindump/internal/logging"
	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// defaultUpgrades maps a primary model to the model tried when the
// primary returns zero items. A model absent from the map upgrades to
// itself.
var defaultUpgrades = map[string]string{
	"claude-3-5-haiku-20241022": "claude-3-5-sonnet-20241022",
	"gpt-4o-mini":               "gpt-4o",
}

// Escalator runs the model call ladder: primary model, upgraded model,
// upgraded model with simplified instructions. The first step returning
// a non-empty item list wins. Client errors are logged and treated the
// same as zero items.
type Escalator struct {
	client      Client
	upgrades    map[string]string
	temperature float64
	logger      *logging.Logger
}

// NewEscalator creates an Escalator. Nil upgrades uses the default
// upgrade map; a nil logger disables logging.
func NewEscalator(client Client, upgrades map[string]string, temperature float64, logger *logging.Logger) *Escalator {
	if upgrades == nil {
		upgrades = defaultUpgrades
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Escalator{
		client:      client,
		upgrades:    upgrades,
		temperature: temperature,
		logger:      logger.Named("escalate"),
	}
}

// upgradeFor returns the upgrade target for a model, defaulting to the
// model itself.
func (e *Escalator) upgradeFor(model string) string {
	if up, ok := e.upgrades[model]; ok && up != "" {
		return up
	}
	return model
}

// Run walks the escalation ladder over the segments. It returns the
// items of the first successful step together with the step's method,
// or (nil, MethodAllFailed) when every step produced zero items.
func (e *Escalator) Run(ctx context.Context, segments []transcript.Segment, model string) ([]RawItem, Method) {
	steps := []struct {
		method     Method
		model      string
		simplified bool
	}{
		{MethodPrimary, model, false},
		{MethodUpgraded, e.upgradeFor(model), false},
		{MethodUpgradedSimple, e.upgradeFor(model), true},
	}

	for _, step := range steps {
		items, err := e.client.Extract(ctx, segments, step.model, e.temperature, step.simplified)
		if err != nil {
			e.logger.Warn(ctx, "model call failed",
				zap.String("step", string(step.method)),
				zap.String("model", step.model),
				zap.Error(err))
			if ctx.Err() != nil {
				return nil, MethodAllFailed
			}
			continue
		}
		if len(items) == 0 {
			e.logger.Debug(ctx, "model returned zero items",
				zap.String("step", string(step.method)),
				zap.String("model", step.model))
			continue
		}
		e.logger.Debug(ctx, "escalation step succeeded",
			zap.String("step", string(step.method)),
			zap.String("model", step.model),
			zap.Int("items", len(items)))
		return items, step.method
	}

	return nil, MethodAllFailed
}
