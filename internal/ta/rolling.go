package ta

import (
	"math"
	"sort"
)

func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// RollingMean returns the trailing-window mean ending at idx, NaN when the
// window does not fit.
func RollingMean(values []float64, idx, window int) float64 {
	if window <= 0 || idx-window+1 < 0 || idx >= len(values) {
		return math.NaN()
	}
	mean, _ := MeanStd(values[idx-window+1 : idx+1])
	return mean
}

// RollingZ returns the z-score of values[idx] against the trailing window
// ending at idx (window includes idx). Zero stddev yields 0, not NaN.
func RollingZ(values []float64, idx, window int) float64 {
	if window <= 0 || idx-window+1 < 0 || idx >= len(values) {
		return math.NaN()
	}
	mean, std := MeanStd(values[idx-window+1 : idx+1])
	if std == 0 {
		return 0
	}
	return (values[idx] - mean) / std
}

// PctChange returns the fractional change over lag rows, NaN when the base is
// missing or zero.
func PctChange(values []float64, idx, lag int) float64 {
	if idx-lag < 0 || idx >= len(values) {
		return math.NaN()
	}
	base := values[idx-lag]
	if base == 0 {
		return math.NaN()
	}
	return (values[idx] - base) / base
}

// Percentile computes the p-th percentile (0..100) with linear interpolation.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// RSISeries computes Wilder-smoothed RSI over closes. Entries before the
// warmup period are NaN.
func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := make([]float64, len(closes))
	for i := range series {
		series[i] = math.NaN()
	}

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := 0.0
		loss := 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFrom(avgGain, avgLoss)
	}
	return series
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
