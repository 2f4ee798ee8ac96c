package contract

import "errors"

// 业务错误定义。错误信息即对外暴露的 revert 原因字符串，
// handler 层原样返回给调用方，前端可直接展示。
var (
	// 参数校验错误
	ErrInvalidBeneficiary = errors.New("Invalid beneficiary address")
	ErrEmptyTitle         = errors.New("Title cannot be empty")
	ErrGoalTooLow         = errors.New("Goal amount too low")
	ErrInvalidDuration    = errors.New("Duration must be positive")
	ErrZeroDonation       = errors.New("Donation must be greater than 0")

	// 状态错误
	ErrCampaignExists   = errors.New("Campaign already exists")
	ErrCampaignNotFound = errors.New("Campaign does not exist")
	ErrAlreadyFinalized = errors.New("Campaign already finalized")
	ErrNotFinalized     = errors.New("Campaign not finalized")
	ErrDeadlinePassed   = errors.New("Campaign deadline passed")
	ErrNotEligible      = errors.New("Campaign deadline not reached and goal not met")
	ErrEditFinalized    = errors.New("Cannot edit finalized campaign")
	ErrRefundsDisabled  = errors.New("Refunds not enabled for this campaign")
	ErrNoContribution   = errors.New("No contribution to refund")

	// 权限错误
	ErrNotCreator    = errors.New("Only campaign creator can edit")
	ErrNotAuthorized = errors.New("Only creator, beneficiary or owner can finalize")
)

// IsValidationError 判断是否为参数校验错误
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidBeneficiary),
		errors.Is(err, ErrEmptyTitle),
		errors.Is(err, ErrGoalTooLow),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrZeroDonation):
		return true
	}
	return false
}

// IsAuthorizationError 判断是否为权限错误
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotCreator) || errors.Is(err, ErrNotAuthorized)
}
