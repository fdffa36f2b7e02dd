// Package numeric provides the error-function and inverse-normal-CDF
// approximations the Qubits rating engine needs. Both are self-contained
// (no cgo, no external numeric library) since the engine's accuracy
// requirements are comfortably met by well-known rational/polynomial
// approximations.
package numeric

import "math"

// Erf approximates the error function using the Abramowitz & Stegun 7.1.26
// rational approximation, good to |error| <= 1.5e-7 for all real z — inside
// the 5e-7 bound the rating engine requires.
func Erf(z float64) float64 {
	sign := 1.0
	if z < 0 {
		sign = -1.0
		z = -z
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1.0 / (1.0 + p*z)
	poly := ((((a5*t+a4)*t+a3)*t+a2)*t + a1) * t
	y := 1.0 - poly*math.Exp(-z*z)

	return sign * y
}

// Erfc is the complementary error function, 1 - Erf(z).
func Erfc(z float64) float64 {
	return 1.0 - Erf(z)
}
