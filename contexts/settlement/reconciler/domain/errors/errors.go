package errors

import "errors"

var (
	ErrInvalidDrawInput         = errors.New("invalid draw input")
	ErrDrawNotFound             = errors.New("draw not found")
	ErrDuplicateDraw            = errors.New("draw already logged for this transaction")
	ErrDrawNotWon               = errors.New("draw is not in a won state")
	ErrInvalidRedemptionCode    = errors.New("redemption code does not match")
	ErrAlreadyRedeemed          = errors.New("prize already redeemed")
	ErrIdentifierMappingMissing = errors.New("no on-chain identifier mapped for this record")
	ErrInvalidDrawTransition    = errors.New("draw is not in an expected state for this update")
)
