package roofline

import "math"

// MinArithmeticIntensity floors the intensity so degenerate shapes never classify at zero.
const MinArithmeticIntensity = 0.1

// OpsToByteRatio is the hardware balance point: effective FLOP/s per byte/s of bandwidth.
func OpsToByteRatio(flops, bandwidthBps, computeMultiplier float64) float64 {
	return flops * computeMultiplier / bandwidthBps
}

// ArithmeticIntensity of one attention pass over n tokens with head dimension d, scaled by batch.
// Memory movement is normalized against FP16, hence the division by 2.
func ArithmeticIntensity(n, d, bytesPerParameter, batch float64) float64 {
	movement := (8*n*n + 8*n*d) * bytesPerParameter / 2
	compute := 4*n*n*d + 3*n*n
	if movement <= 0 {
		return MinArithmeticIntensity
	}
	return math.Max(MinArithmeticIntensity, compute/movement*batch)
}

// ClassifyBound returns BoundMemory when intensity is below the ratio; equality is compute-bound.
func ClassifyBound(intensity, opsToByte float64) BoundType {
	if intensity < opsToByte {
		return BoundMemory
	}
	return BoundCompute
}
