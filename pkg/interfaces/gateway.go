package interfaces

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	Allow(principalID string) (bool, error)
	Reset(principalID string) error
	GetLimits(principalID string) (int, int, error) // current, limit
}
