package grantix

import "github.com/kailas-cloud/grantix/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation              = domain.ErrValidation
	ErrNotFound                = domain.ErrNotFound
	ErrProvider                = domain.ErrProvider
	ErrTransient               = domain.ErrTransient
	ErrIterationBudgetExceeded = domain.ErrIterationBudgetExceeded
	ErrRateLimited             = domain.ErrRateLimited
	ErrQuotaExceeded           = domain.ErrQuotaExceeded
	ErrTurnTimeout             = domain.ErrTurnTimeout
)
