package respiration

// RatePoint is the frequency implied by one inter-breath interval, stamped
// with the time of the breath that opens the interval.
type RatePoint struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
}

// InstantaneousRate returns 1/interval for every pair of consecutive peak
// times. Non-positive intervals are skipped.
func InstantaneousRate(peakTimes []float64) []RatePoint {
	if len(peakTimes) < 2 {
		return []RatePoint{}
	}

	points := make([]RatePoint, 0, len(peakTimes)-1)
	for i := 1; i < len(peakTimes); i++ {
		interval := peakTimes[i] - peakTimes[i-1]
		if interval <= 0 {
			continue
		}
		points = append(points, RatePoint{
			Time:      peakTimes[i-1],
			Frequency: 1 / interval,
		})
	}
	return points
}
