package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports are the services the tools and resources call into. Only Query
// is required; tools and resources backed by a nil service are not
// registered.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Document lists and reads stored documents.
	Document driving.DocumentService

	// Usage reports the daily counters.
	Usage driving.UsageService

	// Health backs GET /readyz.
	Health driving.HealthService

	// Tenant is used when a tool call names none.
	Tenant string
}

// Validate reports a missing query service.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}

// tenant picks the caller's tenant, then the configured one, then "default".
func (p *Ports) tenant(requested string) string {
	if requested != "" {
		return requested
	}
	if p.Tenant != "" {
		return p.Tenant
	}
	return "default"
}
