package split

import (
	"sort"

	"github.com/warikan-app/warikan/internal/money"
)

// =============================================================================
// RATIO SPLIT STRATEGY
// Divides the expense by integer percentage weights summing to 100
// =============================================================================

// RatioStrategy implements the Strategy interface for ratio-based splits
type RatioStrategy struct{}

// Method returns the split method identifier
func (s *RatioStrategy) Method() Method {
	return MethodRatio
}

// Validate checks if the inputs are valid for a ratio split
func (s *RatioStrategy) Validate(amount int64, participants []Participant) error {
	if err := validateCommon(amount, participants); err != nil {
		return err
	}

	var total int64
	for _, p := range participants {
		if p.Ratio == nil {
			return ErrMissingRatio
		}
		if *p.Ratio < 0 || *p.Ratio > 100 {
			return ErrRatioOutOfRange
		}
		total += *p.Ratio
	}
	if total != 100 {
		return ErrInvalidRatios
	}

	return nil
}

// Calculate divides the total by each participant's percentage weight.
// Each raw share is floor(amount*ratio/100); the shortfall left by the
// floors is handed out one yen at a time in descending order of
// (amount*ratio) mod 100, ties broken by input order. Largest-remainder
// assignment keeps every share within one yen of the ideal value.
func (s *RatioStrategy) Calculate(amount int64, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	shares := make([]Share, len(participants))
	remainders := make([]int64, len(participants))
	raws := make([]int64, len(participants))
	for i, p := range participants {
		product := amount * (*p.Ratio)
		raws[i] = product / 100
		remainders[i] = product % 100
		shares[i] = Share{
			MemberID: p.MemberID,
			Amount:   raws[i],
		}
	}

	shortfall := amount - money.Sum(raws)

	// Rank participants by remainder, largest first; stable sort preserves
	// input order between equal remainders.
	order := make([]int, len(participants))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for i := int64(0); i < shortfall; i++ {
		shares[order[i]].Amount++
	}

	return shares, nil
}
