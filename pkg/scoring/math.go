// Package scoring provides score math utilities shared by the sub-scorers.
package scoring

// Clamp bounds a score to the canonical [0, 100] range.
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Clamp01 bounds a normalized value to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Saturate maps a raw accumulated quantity onto [0, 1] against a
// saturation constant: values at or above the constant read as 1.
// A non-positive constant saturates immediately for any positive value.
func Saturate(raw, saturation float64) float64 {
	if raw <= 0 {
		return 0
	}
	if saturation <= 0 {
		return 1
	}
	return Clamp01(raw / saturation)
}

// DistanceDecay discounts a record's weight by its distance to the site,
// 1/(1+d) with d in kilometers. At the site itself the weight is unchanged;
// at 1 km it is halved.
func DistanceDecay(weight, distanceKm float64) float64 {
	if distanceKm < 0 {
		distanceKm = 0
	}
	return weight / (1 + distanceKm)
}

// WeightedSum combines values with weights. Lengths must match; mismatched
// input returns 0 so a caller bug cannot smuggle in a partial sum.
func WeightedSum(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sum float64
	for i, v := range values {
		sum += v * weights[i]
	}
	return sum
}
