package errors

import "errors"

var (
	ErrInvalidLotteryInput      = errors.New("invalid lottery input")
	ErrCampaignNotFound         = errors.New("campaign not found")
	ErrNoParticipants           = errors.New("campaign has no lottery participants")
	ErrIdentifierMappingMissing = errors.New("no on-chain identifier mapped for this campaign")
	ErrDrawAlreadyRequested     = errors.New("draw already requested for this campaign")
	ErrDrawOutcomeUnknown       = errors.New("draw submitted but outcome not recorded; check the ledger before retrying")
)
