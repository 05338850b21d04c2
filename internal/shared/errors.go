package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTrialAccount     = fmt.Errorf("feature not available for trial accounts")

	// Persistence errors
	ErrNotFound  = fmt.Errorf("record not found")
	ErrDuplicate = fmt.Errorf("duplicate record")

	// Delivery errors
	ErrNoEndpoint         = fmt.Errorf("no webhook endpoint configured")
	ErrDeliveryFailed     = fmt.Errorf("webhook delivery failed")
	ErrQueueFull          = fmt.Errorf("delivery queue full")
	ErrQueueClosed        = fmt.Errorf("delivery queue closed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
