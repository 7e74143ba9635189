package edgecase

// outlierSigma is how many standard deviations from the rolling mean flag a value.
const outlierSigma = 2

// IsOutlier reports whether value lies more than two standard deviations
// from the mean of recent. Needs at least three samples with some spread.
func IsOutlier(value int, recent []int) bool {
	if len(recent) < 3 {
		return false
	}
	sd := stdDev(recent)
	if sd == 0 {
		return false
	}
	var sum float64
	for _, v := range recent {
		sum += float64(v)
	}
	mean := sum / float64(len(recent))
	diff := float64(value) - mean
	if diff < 0 {
		diff = -diff
	}
	return diff > outlierSigma*sd
}
