package ledger

import "errors"

var (
	ErrNotFound         = errors.New("ledger: transaction not found")
	ErrInvalidAccount   = errors.New("ledger: invalid account id")
	ErrInvalidSignature = errors.New("ledger: invalid transaction signature")
	ErrNotConfirmed     = errors.New("ledger: transaction not confirmed")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
