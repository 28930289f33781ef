package presale

import (
	"errors"
	"fmt"
)

// ErrorCode names a presale failure. Codes are stable and safe to branch on.
type ErrorCode string

const (
	// Authorization
	CodeUnauthorized ErrorCode = "Unauthorized"

	// State
	CodeAlreadyInitialized ErrorCode = "AlreadyInitialized"
	CodeNotInitialized     ErrorCode = "NotInitialized"
	CodePresalePaused      ErrorCode = "PresalePaused"
	CodeNoActivePhase      ErrorCode = "NoActivePhase"
	CodePresaleNotEnded    ErrorCode = "PresaleNotEnded"

	// Limit violations
	CodeExceedsMaxPerTransaction ErrorCode = "ExceedsMaxPerTransaction"
	CodeExceedsMaxPerWallet      ErrorCode = "ExceedsMaxPerWallet"
	CodeTooSoonSinceLastPurchase ErrorCode = "TooSoonSinceLastPurchase"
	CodeExceedsPhaseAllocation   ErrorCode = "ExceedsPhaseAllocation"
	CodeExceedsTotalSupply       ErrorCode = "ExceedsTotalSupply"

	// Accounting
	CodeArithmeticOverflow   ErrorCode = "ArithmeticOverflow"
	CodeNoTokensToClaim      ErrorCode = "NoTokensToClaim"
	CodeInsufficientFunds    ErrorCode = "InsufficientFunds"
	CodeInsufficientTreasury ErrorCode = "InsufficientTreasury"
	CodeNothingToBurn        ErrorCode = "NothingToBurn"

	// Input and configuration
	CodeInvalidQuantity        ErrorCode = "InvalidQuantity"
	CodeInvalidPaymentType     ErrorCode = "InvalidPaymentType"
	CodeInvalidPhaseConfig     ErrorCode = "InvalidPhaseConfig"
	CodeInvalidVestingSchedule ErrorCode = "InvalidVestingSchedule"
	CodeInvalidConfig          ErrorCode = "InvalidConfig"
	CodeInvalidTokenMint       ErrorCode = "InvalidTokenMint"
	CodeInvalidTreasury        ErrorCode = "InvalidTreasury"
	CodePurchaseNotFound       ErrorCode = "PurchaseNotFound"
	CodeInvalidRecipient       ErrorCode = "InvalidRecipient"
)

// Category groups error codes by cause.
type Category string

const (
	CategoryAuthorization Category = "authorization"
	CategoryState         Category = "state"
	CategoryLimit         Category = "limit"
	CategoryAccounting    Category = "accounting"
	CategoryInput         Category = "input"
)

var categories = map[ErrorCode]Category{
	CodeUnauthorized: CategoryAuthorization,

	CodeAlreadyInitialized: CategoryState,
	CodeNotInitialized:     CategoryState,
	CodePresalePaused:      CategoryState,
	CodeNoActivePhase:      CategoryState,
	CodePresaleNotEnded:    CategoryState,

	CodeExceedsMaxPerTransaction: CategoryLimit,
	CodeExceedsMaxPerWallet:      CategoryLimit,
	CodeTooSoonSinceLastPurchase: CategoryLimit,
	CodeExceedsPhaseAllocation:   CategoryLimit,
	CodeExceedsTotalSupply:       CategoryLimit,

	CodeArithmeticOverflow:   CategoryAccounting,
	CodeNoTokensToClaim:      CategoryAccounting,
	CodeInsufficientFunds:    CategoryAccounting,
	CodeInsufficientTreasury: CategoryAccounting,
	CodeNothingToBurn:        CategoryAccounting,

	CodeInvalidQuantity:        CategoryInput,
	CodeInvalidPaymentType:     CategoryInput,
	CodeInvalidPhaseConfig:     CategoryInput,
	CodeInvalidVestingSchedule: CategoryInput,
	CodeInvalidConfig:          CategoryInput,
	CodeInvalidTokenMint:       CategoryInput,
	CodeInvalidTreasury:        CategoryInput,
	CodePurchaseNotFound:       CategoryInput,
	CodeInvalidRecipient:       CategoryInput,
}

// Category returns the group the code belongs to.
// Unknown codes are reported as input errors.
func (c ErrorCode) Category() Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return CategoryInput
}

// Error is a rejected presale operation.
//
// Two Errors compare equal under errors.Is when their codes match, so the
// sentinel values below can be used to test returned errors that carry
// call-specific messages and details.
type Error struct {
	// Code identifies the failure.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (requested amounts, limits).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// With returns a copy of e carrying an extra detail.
func (e *Error) With(key string, value any) *Error {
	out := &Error{Code: e.Code, Message: e.Message, Details: make(map[string]string, len(e.Details)+1)}
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = fmt.Sprint(value)
	return out
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized             = &Error{Code: CodeUnauthorized, Message: "caller is not the presale authority"}
	ErrAlreadyInitialized       = &Error{Code: CodeAlreadyInitialized, Message: "presale config account already in use"}
	ErrNotInitialized           = &Error{Code: CodeNotInitialized, Message: "presale has not been initialized"}
	ErrPresalePaused            = &Error{Code: CodePresalePaused, Message: "presale is currently paused"}
	ErrNoActivePhase            = &Error{Code: CodeNoActivePhase, Message: "no active phase at this time"}
	ErrPresaleNotEnded          = &Error{Code: CodePresaleNotEnded, Message: "presale has not ended yet"}
	ErrExceedsMaxPerTransaction = &Error{Code: CodeExceedsMaxPerTransaction, Message: "purchase amount exceeds maximum per transaction"}
	ErrExceedsMaxPerWallet      = &Error{Code: CodeExceedsMaxPerWallet, Message: "purchase would exceed maximum per wallet"}
	ErrTooSoonSinceLastPurchase = &Error{Code: CodeTooSoonSinceLastPurchase, Message: "minimum time between purchases not met"}
	ErrExceedsPhaseAllocation   = &Error{Code: CodeExceedsPhaseAllocation, Message: "not enough tokens available in this phase"}
	ErrExceedsTotalSupply       = &Error{Code: CodeExceedsTotalSupply, Message: "purchase would exceed total tokens for sale"}
	ErrArithmeticOverflow       = &Error{Code: CodeArithmeticOverflow, Message: "math overflow"}
	ErrNoTokensToClaim          = &Error{Code: CodeNoTokensToClaim, Message: "no tokens available to claim"}
	ErrInsufficientFunds        = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds for payment"}
	ErrInsufficientTreasury     = &Error{Code: CodeInsufficientTreasury, Message: "treasury balance is below the required amount"}
	ErrNothingToBurn            = &Error{Code: CodeNothingToBurn, Message: "no unsold tokens to burn"}
	ErrInvalidQuantity          = &Error{Code: CodeInvalidQuantity, Message: "quantity must be positive"}
	ErrInvalidPaymentType       = &Error{Code: CodeInvalidPaymentType, Message: "invalid payment type"}
	ErrInvalidPhaseConfig       = &Error{Code: CodeInvalidPhaseConfig, Message: "invalid phase configuration"}
	ErrInvalidVestingSchedule   = &Error{Code: CodeInvalidVestingSchedule, Message: "invalid vesting schedule"}
	ErrInvalidConfig            = &Error{Code: CodeInvalidConfig, Message: "invalid configuration value"}
	ErrInvalidTokenMint         = &Error{Code: CodeInvalidTokenMint, Message: "invalid token mint"}
	ErrInvalidTreasury          = &Error{Code: CodeInvalidTreasury, Message: "invalid treasury account"}
	ErrPurchaseNotFound         = &Error{Code: CodePurchaseNotFound, Message: "no purchase record for wallet"}
	ErrInvalidRecipient         = &Error{Code: CodeInvalidRecipient, Message: "account cannot be funded directly"}
)

// newError builds an Error with a formatted message.
func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the presale code carried by err, or "" if err is not a
// presale error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsPresaleError reports whether err (or anything it wraps) is a presale rejection.
func IsPresaleError(err error) bool {
	return CodeOf(err) != ""
}

// CategoryOf returns the category of the presale error carried by err, or ""
// if err is not a presale error.
func CategoryOf(err error) Category {
	code := CodeOf(err)
	if code == "" {
		return ""
	}
	return code.Category()
}
