package engine

import "math"

// IdealTime returns the transit duration, in days, at which a delivery earns
// half its value. It never drops below one day.
func IdealTime(distanceTiles, speedKPH float64) float64 {
	return math.Max(1, distanceTiles*20/speedKPH)
}

// RevenuePenalty returns the late-delivery multiplier in (0, 1]
func RevenuePenalty(distanceTiles, transitTimeDays, speedKPH float64) float64 {
	ratio := transitTimeDays / IdealTime(distanceTiles, speedKPH)
	return 1 / (1 + ratio*ratio)
}

// CalculateRevenue scores a delivery. speedKPH must be positive; zero speed
// yields an infinite ideal time and is the caller's responsibility.
func CalculateRevenue(cargoValue, distanceTiles, transitTimeDays, speedKPH float64) float64 {
	return cargoValue * RevenuePenalty(distanceTiles, transitTimeDays, speedKPH)
}
