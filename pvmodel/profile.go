package pvmodel

// AverageDailyProfile averages AC power by hour of day across the whole
// result, yielding the mean daily production shape. Hours with no samples
// stay at zero.
func (r Result) AverageDailyProfile() [24]float64 {
	var sums [24]float64
	var counts [24]int
	for i, ts := range r.Times {
		h := ts.Hour()
		sums[h] += r.ACPower[i]
		counts[h]++
	}

	var profile [24]float64
	for h := 0; h < 24; h++ {
		if counts[h] > 0 {
			profile[h] = sums[h] / float64(counts[h])
		}
	}
	return profile
}
