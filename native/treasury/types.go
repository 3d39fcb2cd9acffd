package treasury

import "math/big"

// RevenueSplit allocates collected value across the creator, project, and
// treasury destinations. The three shares are percentages and must sum to
// exactly 100 whenever a split is active.
type RevenueSplit struct {
	CreatorShare  uint64 `json:"creatorShare"`
	ProjectShare  uint64 `json:"projectShare"`
	TreasuryShare uint64 `json:"treasuryShare"`
}

// Valid reports whether the shares sum to exactly 100. Each share is bounded
// first so the uint64 sum cannot wrap.
func (s RevenueSplit) Valid() bool {
	if s.CreatorShare > 100 || s.ProjectShare > 100 || s.TreasuryShare > 100 {
		return false
	}
	return s.CreatorShare+s.ProjectShare+s.TreasuryShare == 100
}

// Withdrawal records one settlement of the treasury balance.
type Withdrawal struct {
	Amount      *big.Int `json:"amount"`
	Destination [20]byte `json:"destination"`
	WithdrawnAt int64    `json:"withdrawnAt"`
}

// Clone returns a deep copy of the withdrawal record.
func (w *Withdrawal) Clone() *Withdrawal {
	if w == nil {
		return nil
	}
	clone := *w
	if w.Amount != nil {
		clone.Amount = new(big.Int).Set(w.Amount)
	}
	return &clone
}
