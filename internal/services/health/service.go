package health

const serviceName = "AI Tech Career Path Finder"

// Status is the payload returned by the health endpoint.
type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Service encapsulates health-related checks. No dependency is probed.
type Service struct{}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{}
}

// Status returns the static health payload.
func (s *Service) Status() Status {
	return Status{Status: "healthy", Service: serviceName}
}
