package analysis

// DetectPeaks returns the local maxima of the excitation-maxima curve.
//
// It folds over adjacent pairs with a rising/falling state seeded from the
// first pair. A rise sets rising; a drop while rising emits the previous
// point and sets falling; equal neighbours leave the state alone, so a
// plateau is reported once, at its last point, when the curve drops after
// it. A point only counts once a lower successor has been seen: the last
// point is never reported, however high it is.
func DetectPeaks(curve []ExMaxPoint) []PeakPoint {
	peaks := make([]PeakPoint, 0)

	rising := len(curve) > 1 && curve[1].MaxF > curve[0].MaxF

	for k := 1; k < len(curve); k++ {
		prev, curr := curve[k-1], curve[k]
		switch {
		case curr.MaxF > prev.MaxF:
			rising = true
		case curr.MaxF < prev.MaxF:
			if rising {
				peaks = append(peaks, PeakPoint{Ex: prev.Ex, Em: prev.Em, MaxF: prev.MaxF})
				rising = false
			}
		}
	}
	return peaks
}
