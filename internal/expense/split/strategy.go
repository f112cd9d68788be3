package split

import (
	"errors"
	"fmt"
)

// Method defines the split method for an expense
type Method string

const (
	MethodEqual  Method = "EQUAL"
	MethodRatio  Method = "RATIO"
	MethodAmount Method = "AMOUNT"
	MethodFull   Method = "FULL"
)

// Participant represents one member taking part in a split.
// The slice order given to Calculate is significant: remainder yen are
// distributed by input order, so callers must pass a stable ordering.
type Participant struct {
	MemberID int64  `json:"member_id"`
	Ratio    *int64 `json:"ratio,omitempty"`  // percentage weight, for RATIO
	Amount   *int64 `json:"amount,omitempty"` // explicit share, for AMOUNT
	Bearer   bool   `json:"bearer,omitempty"` // single bearer flag, for FULL
}

// Share is the calculated share for a single member.
type Share struct {
	MemberID int64 `json:"member_id"`
	Amount   int64 `json:"amount"`
}

// Strategy is the interface that all split methods implement.
// Calculate must return shares in participant input order whose amounts
// sum exactly to the expense total; no yen is ever lost or duplicated.
type Strategy interface {
	// Calculate computes the per-member shares for the given total
	Calculate(amount int64, participants []Participant) ([]Share, error)

	// Method returns the method identifier for this strategy
	Method() Method

	// Validate checks if the inputs are valid for this strategy
	Validate(amount int64, participants []Participant) error
}

// Factory creates split strategies based on the requested method
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given method
func (f *Factory) Create(method Method) (Strategy, error) {
	switch method {
	case MethodEqual:
		return &EqualStrategy{}, nil
	case MethodRatio:
		return &RatioStrategy{}, nil
	case MethodAmount:
		return &AmountStrategy{}, nil
	case MethodFull:
		return &FullStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown split method: %s", method)
	}
}

// CreateFromString creates a strategy from a string method (useful for API requests)
func (f *Factory) CreateFromString(method string) (Strategy, error) {
	return f.Create(Method(method))
}

var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrDuplicateParticipant = errors.New("duplicate participant in split")
	ErrMissingRatio         = errors.New("ratio value required for all participants")
	ErrRatioOutOfRange      = errors.New("ratio must be between 0 and 100")
	ErrInvalidRatios        = errors.New("ratios must sum to 100")
	ErrMissingAmount        = errors.New("amount value required for all participants")
	ErrNegativeShare        = errors.New("share amounts cannot be negative")
	ErrInvalidAmounts       = errors.New("share amounts must sum to total amount")
	ErrNoBearer             = errors.New("exactly one bearer is required")
	ErrMultipleBearers      = errors.New("only one bearer is allowed")
)

// validateCommon checks the constraints shared by every split method:
// a positive total, a non-empty participant list, and no duplicates.
func validateCommon(amount int64, participants []Participant) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[int64]bool, len(participants))
	for _, p := range participants {
		if seen[p.MemberID] {
			return ErrDuplicateParticipant
		}
		seen[p.MemberID] = true
	}
	return nil
}
