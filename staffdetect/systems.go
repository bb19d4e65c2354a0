package staffdetect

// assembleSystems groups per-band staves into systems. When Phase A's
// bands are usable — each contains the same number of staves — that
// "balance check" is trusted and each band becomes one system directly.
// Otherwise (Phase A collapsed to a single whole-page band, or its bands
// disagree on stave count) systems are instead recovered by clustering
// all detected staves by the vertical gap between them, the fallback
// projection.py's cluster_into_systems falls back to via
// _cluster_by_gap when _cluster_by_barlines' balance check fails.
func assembleSystems(perBand [][]staveCandidate) []systemCandidate {
	if balanced(perBand) {
		systems := make([]systemCandidate, 0, len(perBand))
		for _, staves := range perBand {
			if len(staves) == 0 {
				continue
			}
			systems = append(systems, systemCandidate{staves: staves})
		}
		return systems
	}

	var all []staveCandidate
	for _, staves := range perBand {
		all = append(all, staves...)
	}
	sortStaves(all)
	return clusterByGap(all)
}

// balanced reports whether perBand has at least two non-empty bands and
// every non-empty band has the same stave count, the signal projection.py
// treats as confirmation that Phase A's band boundaries are trustworthy
// system divisions.
func balanced(perBand [][]staveCandidate) bool {
	count := -1
	nonEmpty := 0
	for _, staves := range perBand {
		if len(staves) == 0 {
			continue
		}
		nonEmpty++
		if count == -1 {
			count = len(staves)
		} else if len(staves) != count {
			return false
		}
	}
	return nonEmpty > 1
}

// clusterByGap groups an ordered stave list into systems by inter-stave
// gap: a gap much larger than the typical within-system gap marks a
// system boundary. Ported from projection.py's _cluster_by_gap.
func clusterByGap(staves []staveCandidate) []systemCandidate {
	if len(staves) == 0 {
		return nil
	}
	if len(staves) == 1 {
		return []systemCandidate{{staves: staves}}
	}

	gaps := make([]float64, len(staves)-1)
	for i := 1; i < len(staves); i++ {
		gaps[i-1] = staves[i].top() - staves[i-1].bottom()
	}
	threshold := median(gaps) * 2.5
	if threshold <= 0 {
		threshold = percentile(gaps, 0.75)
	}

	var systems []systemCandidate
	cur := []staveCandidate{staves[0]}
	for i := 1; i < len(staves); i++ {
		if gaps[i-1] > threshold {
			systems = append(systems, systemCandidate{staves: cur})
			cur = []staveCandidate{staves[i]}
		} else {
			cur = append(cur, staves[i])
		}
	}
	systems = append(systems, systemCandidate{staves: cur})
	return systems
}

// confirmBarlines marks each multi-stave system as confirmed when the
// left-margin ink signal spans at least opts.BarlineMinSpanRatio of the
// system's row height without a long gap — a vertical morphological
// opening, approximated here by requiring the ink run to be contiguous
// rather than checking true erosion/dilation, which projection.py's
// detect_system_barlines implements with a literal 1-D binary opening.
// A solo (single-stave) system has nothing to confirm against and is
// trivially confirmed.
func confirmBarlines(systems []systemCandidate, mask [][]bool, opts Options) {
	for i := range systems {
		sys := &systems[i]
		if len(sys.staves) < 2 {
			sys.confirmed = true
			continue
		}
		top := int(sys.staves[0].top())
		bottom := int(sys.staves[len(sys.staves)-1].bottom())
		if bottom <= top {
			continue
		}
		marginWidth := opts.BarlineMarginPx
		if marginWidth <= 0 {
			marginWidth = 20
		}
		signal := verticalStripSignal(mask, 0, marginWidth)
		if bottom > len(signal) {
			bottom = len(signal)
		}
		// Staff lines crossing the strip make a few rows far inkier than
		// the barline alone, so rows are judged against the system's
		// typical (median) row rather than its inkiest one.
		typical := median(signal[top:bottom])
		if typical == 0 {
			continue
		}
		inkThreshold := typical * 0.3

		longestRun, cur := 0, 0
		for y := top; y < bottom; y++ {
			if signal[y] >= inkThreshold {
				cur++
				if cur > longestRun {
					longestRun = cur
				}
			} else {
				cur = 0
			}
		}
		span := float64(longestRun) / float64(bottom-top)
		sys.confirmed = span >= opts.BarlineMinSpanRatio
	}
}
