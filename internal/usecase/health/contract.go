package health

import "context"

// Pinger checks storage availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external API provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
