package staffdetect

// systemBands segments a page's row range into bands, one per musical
// system, using a coarse pass over the whole page height. This is Phase A
// of spec.md §4.2, grounded on projection.py's detect_system_barlines()
// and find_barline_runs(): the barline/brace ink at the page's left
// margin is continuous for the vertical extent of one system and drops
// to near-zero in the gaps between systems, so low-signal runs in that
// narrow column are a cheap, robust system-boundary signal that doesn't
// depend on first finding individual staves.
func systemBands(mask [][]bool, pageWidth, pageHeight int, opts Options) []band {
	if pageHeight == 0 {
		return nil
	}

	coarseProfile := smooth(horizontalProjection(mask, 0, pageHeight, 0, pageWidth), 2)
	mean, stddev := meanStddev(coarseProfile)
	threshold := mean + opts.PeakStdDevMultiplier*stddev
	coarsePeaks := findPeaks(coarseProfile, max(3, pageHeight/300), threshold)

	staveSpan := float64(pageHeight) / 20 // fallback when too sparse to estimate
	if spacing := typicalSpacing(coarsePeaks); spacing > 0 {
		staveSpan = spacing * float64(ExpectedLines-1)
	}

	marginWidth := opts.BarlineMarginPx
	if marginWidth <= 0 || marginWidth > pageWidth {
		marginWidth = pageWidth / 10
	}
	signal := verticalStripSignal(mask, 0, marginWidth)
	signal = smooth(signal, 2)
	maxSignal := maxOf(signal)
	if maxSignal == 0 {
		return []band{{top: 0, bottom: float64(pageHeight)}}
	}
	lowThreshold := opts.LowSignalFraction * maxSignal

	type run struct{ start, end int }
	var runs []run
	inRun := false
	runStart := 0
	for y, v := range signal {
		if v <= lowThreshold {
			if !inRun {
				inRun = true
				runStart = y
			}
		} else if inRun {
			runs = append(runs, run{runStart, y})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{runStart, len(signal)})
	}

	// Drop runs overlapping a coarse staff-line peak: those are gaps
	// within a system (e.g. a bar with no visible barline stroke at the
	// sampled column), not between-system gaps.
	filtered := runs[:0]
	for _, r := range runs {
		overlaps := false
		for _, p := range coarsePeaks {
			if p.row >= r.start && p.row < r.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			filtered = append(filtered, r)
		}
	}
	runs = filtered

	// Merge runs closer together than 1.5x the estimated stave span;
	// such runs are noise splitting what should be one between-system
	// gap (e.g. a stray light patch inside a blank measure of margin).
	merged := runs[:0]
	for _, r := range runs {
		if len(merged) > 0 && float64(r.start-merged[len(merged)-1].end) < 1.5*staveSpan {
			merged[len(merged)-1].end = r.end
		} else {
			merged = append(merged, r)
		}
	}
	runs = merged

	if len(runs) == 0 {
		return []band{{top: 0, bottom: float64(pageHeight)}}
	}

	var bands []band
	prev := 0
	for _, r := range runs {
		mid := float64(r.start+r.end) / 2
		if mid > float64(prev) {
			bands = append(bands, band{top: float64(prev), bottom: mid})
		}
		prev = int(mid)
	}
	if float64(prev) < float64(pageHeight) {
		bands = append(bands, band{top: float64(prev), bottom: float64(pageHeight)})
	}
	return bands
}
