package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker checks whether catalog reads are being served.
type CatalogChecker interface {
	HealthCheck(ctx context.Context) error
}
