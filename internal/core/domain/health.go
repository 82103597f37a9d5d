package domain

// Overall health states.
const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
)

// ComponentHealth describes one external capability.
type ComponentHealth struct {
	Name       string `json:"name" yaml:"name"`
	Configured bool   `json:"configured" yaml:"configured"`
	Healthy    bool   `json:"healthy" yaml:"healthy"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// HealthReport summarises the state of every external capability.
type HealthReport struct {
	Status     string            `json:"status" yaml:"status"`
	Components []ComponentHealth `json:"components" yaml:"components"`
}

// Healthy reports whether every configured component answered.
func (r HealthReport) Healthy() bool {
	return r.Status == HealthStatusHealthy
}
