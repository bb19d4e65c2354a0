package staffdetect

import "sort"

// peak is a detected local maximum in a projection profile, in
// profile-local row coordinates.
type peak struct {
	row   int
	value float64
}

// findPeaks locates local maxima above threshold, suppressing any
// candidate within minSep rows of an already-accepted, stronger peak.
// Grounded on projection.py's find_staff_line_peaks(), which uses the
// same "sort by strength, greedily suppress neighbours" scheme instead
// of scipy's find_peaks so the minimum-distance constraint is exact
// rather than approximate.
func findPeaks(profile []float64, minSep int, threshold float64) []peak {
	if minSep < 1 {
		minSep = 1
	}
	var candidates []peak
	for i, v := range profile {
		if v <= threshold {
			continue
		}
		leftOK := i == 0 || profile[i-1] <= v
		rightOK := i == len(profile)-1 || profile[i+1] <= v
		if leftOK && rightOK {
			candidates = append(candidates, peak{row: i, value: v})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].value > candidates[j].value })

	var accepted []peak
	for _, c := range candidates {
		tooClose := false
		for _, a := range accepted {
			d := a.row - c.row
			if d < 0 {
				d = -d
			}
			if d < minSep {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, c)
		}
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].row < accepted[j].row })
	return accepted
}

// typicalSpacing estimates the expected inter-line distance from a raw
// peak list by taking the 25th percentile of consecutive gaps: in a page
// of mixed staves and noise peaks, the smallest consistent gaps are the
// real staff-line spacings, while spurious/noise gaps (between systems,
// across blank bars) are much larger and pull the mean up.
func typicalSpacing(peaks []peak) float64 {
	if len(peaks) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		gaps = append(gaps, float64(peaks[i].row-peaks[i-1].row))
	}
	return percentile(gaps, 0.25)
}

// clusterIntoStaves groups an ordered peak list into staveCandidates of
// ExpectedLines lines each, tolerating modest spacing jitter. Ported from
// projection.py's cluster_into_staves: a greedy gap-based grouping pass,
// then each group is kept (exactly ExpectedLines peaks), repaired (one
// line missing) or split (more than ExpectedLines peaks); there is no
// separate pass that trims a single stray extra peak.
func clusterIntoStaves(peaks []peak, tolerance float64) (staves []staveCandidate, leftover []peak) {
	if len(peaks) == 0 {
		return nil, nil
	}
	spacing := typicalSpacing(peaks)
	if spacing <= 0 {
		return nil, peaks
	}

	var groups [][]peak
	cur := []peak{peaks[0]}
	for i := 1; i < len(peaks); i++ {
		gap := float64(peaks[i].row - peaks[i-1].row)
		if gap <= spacing*(1+tolerance)*1.6 {
			cur = append(cur, peaks[i])
		} else {
			groups = append(groups, cur)
			cur = []peak{peaks[i]}
		}
	}
	groups = append(groups, cur)

	for _, g := range groups {
		switch {
		case len(g) == ExpectedLines:
			staves = append(staves, toStave(g))
		case len(g) == ExpectedLines-1:
			if repaired := repairStave(g, spacing); repaired != nil {
				staves = append(staves, *repaired)
			} else {
				leftover = append(leftover, g...)
			}
		case len(g) > ExpectedLines:
			split := splitOversizedGroup(g, spacing, tolerance)
			staves = append(staves, split...)
		default:
			leftover = append(leftover, g...)
		}
	}
	return staves, leftover
}

func toStave(g []peak) staveCandidate {
	lines := make([]float64, len(g))
	for i, p := range g {
		lines[i] = float64(p.row)
	}
	return staveCandidate{lines: lines}
}

// repairStave fills a single missing line by finding the one gap in g
// that is roughly double the median gap and inserting an interpolated
// point there, mirroring _repair_stave's "one gap is ~2x the rest"
// heuristic.
func repairStave(g []peak, spacing float64) *staveCandidate {
	if len(g) != ExpectedLines-1 {
		return nil
	}
	gaps := make([]float64, len(g)-1)
	for i := 1; i < len(g); i++ {
		gaps[i-1] = float64(g[i].row - g[i-1].row)
	}
	med := median(gaps)
	for i, gap := range gaps {
		if gap > med*1.6 {
			lines := make([]float64, 0, ExpectedLines)
			for j := 0; j <= i; j++ {
				lines = append(lines, float64(g[j].row))
			}
			lines = append(lines, float64(g[i].row)+gap/2)
			for j := i + 1; j < len(g); j++ {
				lines = append(lines, float64(g[j].row))
			}
			return &staveCandidate{lines: lines}
		}
	}
	return nil
}

// splitOversizedGroup handles a group with more than ExpectedLines peaks,
// which usually means two staves were merged by a too-generous gap
// threshold. It cuts the group, in order, into consecutive runs of
// ExpectedLines peaks; a trailing run of ExpectedLines-1 peaks goes to
// repairStave and any other trailing peaks are dropped. The gaps between
// peaks are not consulted when choosing the cut points. Grounded on
// _split_oversized_group.
func splitOversizedGroup(g []peak, spacing, tolerance float64) []staveCandidate {
	var out []staveCandidate
	for len(g) >= ExpectedLines {
		chunk := g[:ExpectedLines]
		out = append(out, toStave(chunk))
		g = g[ExpectedLines:]
	}
	if len(g) == ExpectedLines-1 {
		if repaired := repairStave(g, spacing); repaired != nil {
			out = append(out, *repaired)
		}
	}
	return out
}

// squintRescue re-scans a row range with heavier smoothing, looking for
// one broad "hill" whose width roughly matches an expected stave block
// (4 * typical inter-line spacing), to recover a stave the sharp-peak
// pass missed entirely — e.g. a stave printed very lightly, or scanned at
// an angle that smeared its lines together. Grounded on
// projection.py's _squint_rescue.
func squintRescue(profile []float64, rowOffset int, expectedHeight float64) *staveCandidate {
	if len(profile) == 0 || expectedHeight <= 0 {
		return nil
	}
	blurred := smooth(profile, int(expectedHeight/4)+1)
	mean, stddev := meanStddev(blurred)
	threshold := mean + 0.5*stddev

	start, bestStart, bestLen := -1, -1, 0
	for i, v := range blurred {
		if v >= threshold {
			if start == -1 {
				start = i
			}
		} else if start != -1 {
			if i-start > bestLen {
				bestStart, bestLen = start, i-start
			}
			start = -1
		}
	}
	if start != -1 && len(blurred)-start > bestLen {
		bestStart, bestLen = start, len(blurred)-start
	}
	if bestStart == -1 {
		return nil
	}
	width := float64(bestLen)
	if width < expectedHeight*0.5 || width > expectedHeight*1.8 {
		return nil
	}

	top := float64(rowOffset + bestStart)
	step := width / float64(ExpectedLines-1)
	lines := make([]float64, ExpectedLines)
	for i := 0; i < ExpectedLines; i++ {
		lines[i] = top + step*float64(i)
	}
	return &staveCandidate{lines: lines}
}
