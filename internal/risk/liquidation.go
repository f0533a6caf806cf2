package risk

// Liquidation-risk heuristic. This is a fixed linear scoring rule layered
// alongside the model probability, never model output. Inputs are clipped
// before weighting; the final score is clamped to 0..100.
//
// The dynamic weight set sums to ~80 at the nominal clip ceilings; 100 is
// reachable only when all four terms hit their extremes at once.

const (
	oiGrowthClip = 0.5
	fundingZClip = 3.0
	oiAccelClip  = 0.3
	volAccelClip = 0.02
)

// liquidationRiskStatic scores leverage pressure from OI growth and the
// funding z-score alone.
func liquidationRiskStatic(oiGrowth, fundingZ float64) float64 {
	oi := clipAbs(oiGrowth, oiGrowthClip)
	fz := clipAbs(fundingZ, fundingZClip)
	return clamp(oi*60+fz*12, 0, 100)
}

// liquidationRiskDynamic adds the acceleration terms available on the
// dynamic feature path.
func liquidationRiskDynamic(oiGrowth, fundingZ, oiAccel, volAccel float64) float64 {
	oi := clipAbs(oiGrowth, oiGrowthClip)
	fz := clipAbs(fundingZ, fundingZClip)
	oa := clipAbs(oiAccel, oiAccelClip)
	va := clipAbs(volAccel, volAccelClip)
	return clamp(oi*50+fz*10+oa*50+va*500, 0, 100)
}

func clipAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
