package util

import "math"

// RoundTo rounds v to the given number of decimals, resolving exact ties to
// the even neighbour.
func RoundTo(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	pow := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*pow) / pow
}

// Percentage returns part/total*100 rounded to one decimal place.
// A zero total yields 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return RoundTo(float64(part)/float64(total)*100, 1)
}
