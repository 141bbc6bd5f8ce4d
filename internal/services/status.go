package services

// Health is the coarse health classification shown for a service.
type Health string

const (
	HealthHealthy      Health = "healthy"
	HealthStarting     Health = "starting"
	HealthNotRunning   Health = "not running"
	HealthError        Health = "error"
	HealthAvailable    Health = "available"
	HealthNotInstalled Health = "not installed"
)

// ServiceStatus is one row of a status report.
type ServiceStatus struct {
	Name    string  `json:"name"`
	Running bool    `json:"running"`
	Port    *int    `json:"port,omitempty"`
	Health  Health  `json:"health"`
	Details *string `json:"details,omitempty"`
}

// StatusReport lists statuses in registry declaration order.
type StatusReport []ServiceStatus

// Find returns the entry named name.
func (r StatusReport) Find(name string) (ServiceStatus, bool) {
	for _, s := range r {
		if s.Name == name {
			return s, true
		}
	}
	return ServiceStatus{}, false
}

func portPtr(p int) *int {
	if p <= 0 {
		return nil
	}
	return &p
}

func strPtr(s string) *string { return &s }
