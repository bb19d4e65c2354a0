package staffdetect

// detectStavesInBand runs Phase B over one system band: horizontal
// projection, peak detection, clustering into staves, and a squint-rescue
// retry over any leftover peaks too sparse to cluster on their own.
// orphans is 1 when the band left over ungrouped peaks that squint-rescue
// also failed to recover into a stave, and 0 otherwise (including when
// squint-rescue succeeded, since the leftover was then folded into a real
// stave) — it feeds scoreStaveQuality's orphan penalty (spec.md §4.2).
// Grounded on projection.py's per-band loop inside cluster_into_staves.
func detectStavesInBand(mask [][]bool, b band, pageWidth int, opts Options) (staves []staveCandidate, orphans int) {
	top, bottom := int(b.top), int(b.bottom)
	if bottom <= top {
		return nil, 0
	}
	profile := horizontalProjection(mask, top, bottom, 0, pageWidth)
	smoothed := smooth(profile, 1)
	mean, stddev := meanStddev(smoothed)
	threshold := mean + opts.PeakStdDevMultiplier*stddev

	roughPeaks := findPeaks(smoothed, 3, threshold)
	spacing := typicalSpacing(roughPeaks)
	minSep := 3
	if spacing > 0 {
		minSep = int(spacing * 0.5)
		if minSep < 1 {
			minSep = 1
		}
	}
	finalPeaks := findPeaks(smoothed, minSep, threshold)

	for i := range finalPeaks {
		finalPeaks[i].row += top
	}

	var leftover []peak
	staves, leftover = clusterIntoStaves(finalPeaks, opts.StaveGroupTolerance)

	if len(leftover) > 0 {
		rescued := false
		if spacing > 0 {
			expectedHeight := spacing * float64(ExpectedLines-1)
			if r := squintRescue(profile, top, expectedHeight); r != nil {
				staves = append(staves, *r)
				rescued = true
			}
		}
		if !rescued {
			orphans = 1
		}
	}

	for i := range staves {
		lines := append([]float64(nil), staves[i].lines...)
		sorted := false
		for !sorted {
			sorted = true
			for j := 1; j < len(lines); j++ {
				if lines[j-1] > lines[j] {
					lines[j-1], lines[j] = lines[j], lines[j-1]
					sorted = false
				}
			}
		}
		staves[i].lines = lines
	}
	sortStaves(staves)
	return staves, orphans
}

func sortStaves(staves []staveCandidate) {
	for i := 1; i < len(staves); i++ {
		for j := i; j > 0 && staves[j-1].top() > staves[j].top(); j-- {
			staves[j-1], staves[j] = staves[j], staves[j-1]
		}
	}
}
