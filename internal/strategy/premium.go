package strategy

// PremiumFilter gates buys on the cross-exchange price premium. Buying into a
// rich domestic premium means overpaying relative to the global price, so
// entries only pass when the premium is low, and size doubles when it has
// gone negative.
type PremiumFilter struct {
	negativeThreshold float64
	lowThreshold      float64
}

func NewPremiumFilter(negativeThreshold, lowThreshold float64) *PremiumFilter {
	return &PremiumFilter{
		negativeThreshold: negativeThreshold,
		lowThreshold:      lowThreshold,
	}
}

// ShouldAllowBuy reports whether the premium is cheap enough to enter.
func (f *PremiumFilter) ShouldAllowBuy(premium float64) bool {
	return premium <= f.lowThreshold || premium <= f.negativeThreshold
}

// SizeMultiplier scales order size. A negative premium is a discount to the
// global price and doubles the position.
func (f *PremiumFilter) SizeMultiplier(premium float64) float64 {
	if premium <= f.negativeThreshold {
		return 2.0
	}
	return 1.0
}
