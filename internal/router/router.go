package router

import (
	"context"

	"go.uber.org/zap"
)

// Router tries the primary provider and falls back to keyword rules when
// the provider errors out. A routing decision is always produced.
type Router struct {
	primary  Provider
	fallback Provider
	logger   *zap.Logger
}

// New builds a router. primary may be nil, in which case only the rule
// fallback runs.
func New(primary Provider, logger *zap.Logger) *Router {
	return &Router{
		primary:  primary,
		fallback: NewRuleRouter(logger),
		logger:   logger,
	}
}

func (r *Router) Route(ctx context.Context, message string) *Decision {
	if r.primary != nil {
		decision, err := r.primary.Route(ctx, message)
		if err == nil {
			return decision
		}
		r.logger.Warn("Primary router failed, using rule fallback",
			zap.String("provider", r.primary.Name()),
			zap.Error(err))
	}

	decision, err := r.fallback.Route(ctx, message)
	if err != nil {
		// the rule router never errors; keep a safe default anyway
		return &Decision{
			Intent:                IntentUnknown,
			Confidence:            ConfidenceLow,
			RequiresClarification: true,
			ClarificationPrompt:   "Sorry, I couldn't understand that. Could you rephrase?",
		}
	}
	decision.Warnings = append(decision.Warnings, "routed by keyword fallback")
	return decision
}
