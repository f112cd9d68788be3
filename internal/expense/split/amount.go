package split

// =============================================================================
// AMOUNT SPLIT STRATEGY
// Each participant owes an explicit integer amount (must sum to total)
// =============================================================================

// AmountStrategy implements the Strategy interface for explicit amount splits
type AmountStrategy struct{}

// Method returns the split method identifier
func (s *AmountStrategy) Method() Method {
	return MethodAmount
}

// Validate checks if the inputs are valid for an explicit amount split
func (s *AmountStrategy) Validate(amount int64, participants []Participant) error {
	if err := validateCommon(amount, participants); err != nil {
		return err
	}

	var total int64
	for _, p := range participants {
		if p.Amount == nil {
			return ErrMissingAmount
		}
		if *p.Amount < 0 {
			return ErrNegativeShare
		}
		total += *p.Amount
	}
	if total != amount {
		return ErrInvalidAmounts
	}

	return nil
}

// Calculate returns the explicit amounts specified for each participant.
// No rounding happens here: Validate already requires the inputs to sum
// exactly to the total.
func (s *AmountStrategy) Calculate(amount int64, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{
			MemberID: p.MemberID,
			Amount:   *p.Amount,
		}
	}

	return shares, nil
}
