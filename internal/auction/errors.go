package auction

import "errors"

// Operation outcomes. None of them is fatal; each rejects a single call and
// leaves the auction unchanged.
var (
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrStaleNegotiation   = errors.New("stale right-to-match negotiation")
	ErrAlreadySettled     = errors.New("item already settled")
	ErrQuotaExceeded      = errors.New("right-to-match quota exceeded")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrOutbid             = errors.New("outbid")
	ErrSquadFull          = errors.New("squad full")
	ErrNotFound           = errors.New("not found")
)

// Right-to-match quotas.
const (
	QuotaTotal    = "total"
	QuotaDomestic = "domestic"
	QuotaOverseas = "overseas"
)

// QuotaError names the right-to-match quota a team has used up.
// It matches ErrQuotaExceeded.
type QuotaError struct {
	Quota string
	Used  int
	Limit int
}

func (e *QuotaError) Error() string {
	return ErrQuotaExceeded.Error() + ": " + e.Quota
}

// Is reports whether target is ErrQuotaExceeded.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// IsRejection reports whether err is an expected per-operation outcome
// rather than a storage failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInsufficientBudget, ErrStaleNegotiation, ErrAlreadySettled, ErrQuotaExceeded,
		ErrInvalidTransition, ErrOutbid, ErrSquadFull, ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
