package motion

// Remap converts x from [xMin, xMax] to [outMin, outMax].
// x is clamped to its input range first, so the result never extrapolates.
// outMin may be greater than outMax to invert the axis.
func Remap(x, xMin, xMax, outMin, outMax float64) float64 {
	if x <= xMin {
		return outMin
	}
	if x >= xMax {
		return outMax
	}
	ratio := (x - xMin) / (xMax - xMin)
	return outMin + ratio*(outMax-outMin)
}

