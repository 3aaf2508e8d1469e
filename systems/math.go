package systems

import "math"

// Clamp functions for common value ranges

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	return clampFloat(v, 0, 1)
}

// sqrt32 is math.Sqrt for float32.
func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// lerp32 blends a toward b by t.
func lerp32(a, b, t float32) float32 {
	return a + (b-a)*t
}

// contactSpeed returns the normal speed a particle had when it reached a
// wall, given its speed vn past the wall, how far it overshot, and the
// acceleration an along the outward normal.
func contactSpeed(vn, overshoot, an float32) float32 {
	s := vn*vn - 2*an*overshoot
	if s <= 0 {
		return 0
	}
	return sqrt32(s)
}
