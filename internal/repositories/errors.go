package repositories

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyFlagged      = errors.New("listing is already flagged as harmful")
	ErrDiscountAlreadyUsed = errors.New("discount has already been used")
	ErrReferralExhausted   = errors.New("referral code is inactive or has no uses left")
	ErrAlreadyReferred     = errors.New("customer has already redeemed a referral code")
)
