package split

// =============================================================================
// FULL SPLIT STRATEGY
// A single bearer takes the whole expense, everyone else owes nothing
// =============================================================================

// FullStrategy implements the Strategy interface for single-bearer splits
type FullStrategy struct{}

// Method returns the split method identifier
func (s *FullStrategy) Method() Method {
	return MethodFull
}

// Validate checks if the inputs are valid for a full split
func (s *FullStrategy) Validate(amount int64, participants []Participant) error {
	if err := validateCommon(amount, participants); err != nil {
		return err
	}

	bearers := 0
	for _, p := range participants {
		if p.Bearer {
			bearers++
		}
	}
	if bearers == 0 {
		return ErrNoBearer
	}
	if bearers > 1 {
		return ErrMultipleBearers
	}

	return nil
}

// Calculate assigns the whole amount to the bearer and zero to everyone else
func (s *FullStrategy) Calculate(amount int64, participants []Participant) ([]Share, error) {
	if err := s.Validate(amount, participants); err != nil {
		return nil, err
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		var share int64
		if p.Bearer {
			share = amount
		}
		shares[i] = Share{
			MemberID: p.MemberID,
			Amount:   share,
		}
	}

	return shares, nil
}
