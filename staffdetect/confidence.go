package staffdetect

// computeConfidence blends three independent signals into the single
// score the UI uses to decide whether to trust a detection outright or
// ask the user to review it (spec.md §4.2's 0.3/0.7 thresholds), weighted
// 0.50 barline confirmation / 0.25 gap consistency / 0.25 stave quality,
// mirroring projection.py's compute_confidence.
func computeConfidence(systems []systemCandidate, perBand [][]staveCandidate, orphansPerBand []int) float64 {
	if len(systems) == 0 {
		return 0
	}
	score := 0.50*scoreBarlines(systems) + 0.25*scoreGaps(systems) + 0.25*scoreStaveQuality(perBand, orphansPerBand)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// scoreBarlines is the fraction of systems Phase C confirmed (solo
// systems count as confirmed, since they have no barline to confirm).
func scoreBarlines(systems []systemCandidate) float64 {
	confirmed := 0
	for _, s := range systems {
		if s.confirmed {
			confirmed++
		}
	}
	return float64(confirmed) / float64(len(systems))
}

// scoreGaps is 1 minus the coefficient of variation of the inter-system
// gaps, clipped to [0, 1] (spec.md §4.2): a real page holds systems at a
// near-constant vertical interval, so a high CV signals that assembleSystems
// grouped staves into systems incorrectly. A page with fewer than two
// systems has no inter-system gap to judge, so it scores 1 rather than
// being penalised for something that isn't there.
func scoreGaps(systems []systemCandidate) float64 {
	if len(systems) < 2 {
		return 1
	}
	gaps := make([]float64, len(systems)-1)
	for i := 1; i < len(systems); i++ {
		prev := systems[i-1].staves[len(systems[i-1].staves)-1]
		gaps[i-1] = systems[i].staves[0].top() - prev.bottom()
	}
	mean, stddev := meanStddev(gaps)
	if mean <= 0 {
		return 0
	}
	cv := stddev / mean
	score := 1 - cv
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// scoreStaveQuality is 1 minus the orphan penalty (spec.md §4.2): an
// orphan is a stave-shaped group of peaks Phase B could not cluster into a
// full stave (orphansPerBand, set by detectStavesInBand), or a band that
// produced exactly one stave with no neighbours to corroborate it being a
// real system rather than noise ("whose band contains only one stave").
// The penalty is the orphan count over the total unit count (detected
// staves plus orphans) across every band.
func scoreStaveQuality(perBand [][]staveCandidate, orphansPerBand []int) float64 {
	var totalUnits, totalOrphans float64
	for i, staves := range perBand {
		totalUnits += float64(len(staves)) + float64(orphansPerBand[i])
		totalOrphans += float64(orphansPerBand[i])
		if len(staves) == 1 {
			totalOrphans++
		}
	}
	if totalUnits == 0 {
		return 0
	}
	score := 1 - totalOrphans/totalUnits
	if score < 0 {
		score = 0
	}
	return score
}
