package facetsearch

import "github.com/kailas-cloud/facetsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrBackendUnavailable = domain.ErrBackendUnavailable
	ErrUnexpectedStatus   = domain.ErrUnexpectedStatus
	ErrInvalidResponse    = domain.ErrInvalidResponse
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrInvalidArgument    = domain.ErrInvalidArgument
	ErrClosed             = domain.ErrClosed
)
