package router

import "context"

// Provider interprets one customer message into a routing decision.
type Provider interface {
	Name() string
	Route(ctx context.Context, message string) (*Decision, error)
}
