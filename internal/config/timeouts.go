package config

import (
	"context"
	"time"
)

// TimeoutConfig holds timeout settings for MongoDB operations.
// These can be configured via flags, environment or the config file.
type TimeoutConfig struct {
	// Connect bounds server selection and the initial ping.
	// Default: 10s
	Connect time.Duration

	// Operation bounds each bootstrap or verify run as a whole.
	// Default: 30s
	Operation time.Duration
}

// OperationContext derives a context bounded by the operation timeout.
// A zero timeout leaves the parent deadline untouched.
func (t *TimeoutConfig) OperationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if t == nil || t.Operation <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, t.Operation)
}
