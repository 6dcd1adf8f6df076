package domain

import "time"

// Rate limited operations
const (
	EndpointChat         = "chat"
	EndpointContactIP    = "contact-ip"
	EndpointContactEmail = "contact-email"
)

// Quota is a fixed-window admission budget.
type Quota struct {
	Max    int
	Window time.Duration
}

// RateLimitCounter is the single active counter of an (identifier, endpoint) pair.
type RateLimitCounter struct {
	Identifier   string
	Endpoint     string
	WindowStart  time.Time
	RequestCount int
}

// Expired reports whether the counter's window has elapsed at now.
func (c *RateLimitCounter) Expired(window time.Duration, now time.Time) bool {
	return !c.WindowStart.After(now.Add(-window))
}
