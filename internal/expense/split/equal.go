package split

import "github.com/warikan-app/warikan/internal/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally among all participants
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Method returns the split method identifier
func (s *EqualStrategy) Method() Method {
	return MethodEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(amount int64, participants []Participant) error {
	return validateCommon(amount, participants)
}

// Calculate divides the total evenly among all participants.
// Every participant gets floor(amount/n); the remaining r yen go one each
// to the first r participants in input order. The ordering rule is what
// keeps shares reproducible for the same request.
func (s *EqualStrategy) Calculate(amount int64, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	base, remainder, err := money.DivideEqually(amount, len(participants))
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[i] = Share{
			MemberID: p.MemberID,
			Amount:   share,
		}
	}

	return shares, nil
}
