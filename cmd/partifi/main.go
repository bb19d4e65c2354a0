// Command partifi exercises the core pipeline end to end against a PDF on
// disk: rasterize, detect staves on every page, partition by stave
// position, generate each part's PDF, and write the results to an output
// directory. It stands in for the HTTP layer and browser editor spec.md
// §1 treats as external collaborators, auto-confirming the StaffDetector's
// output rather than prompting a human.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/timotif/divisi-partifi-v2/partifi"
	"github.com/timotif/divisi-partifi-v2/session"
)

func main() {
	pdfPath := flag.String("pdf", "", "path to the input score PDF")
	outDir := flag.String("out", "./out", "directory to write generated part PDFs to")
	budgetMB := flag.Int64("cache-budget-mb", 512, "session store raster cache budget, in megabytes")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *pdfPath == "" {
		log.Error("missing required -pdf flag")
		os.Exit(2)
	}

	if err := run(*pdfPath, *outDir, *budgetMB*1024*1024, log); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(pdfPath, outDir string, budgetBytes int64, log *slog.Logger) error {
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", pdfPath, err)
	}

	store := session.New(budgetBytes, log)
	svc := partifi.NewService(store, log)

	const scoreID = "cli"
	summary, err := svc.Rasterize(scoreID, pdfBytes)
	if err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}
	log.Info("rasterized", "pages", summary.PageCount)

	pages := make(map[int]partifi.PagePayload, summary.PageCount)
	for i, p := range summary.Pages {
		displayWidth := p.WidthPx // 1:1 display scale for the CLI harness
		detection, err := svc.Detect(scoreID, i, displayWidth)
		if err != nil {
			return fmt.Errorf("detect page %d: %w", i, err)
		}
		log.Info("detected page", "page", i, "confidence", detection.Confidence, "dividers", len(detection.Dividers))
		pages[i] = partifi.PagePayload{
			Dividers:    detection.Dividers,
			SystemFlags: detection.SystemFlags,
			StripNames:  autoName(detection.SystemFlags),
		}
	}

	partitionResp, err := svc.Partition(partifi.PartitionRequest{
		ScoreID:      scoreID,
		DisplayWidth: summary.Pages[0].WidthPx,
		Pages:        pages,
	})
	if err != nil {
		return fmt.Errorf("partition: %w", err)
	}
	log.Info("partitioned", "parts", len(partitionResp.Parts))

	genParams := make(map[string]partifi.GeneratePartParams, len(partitionResp.Parts))
	for _, p := range partitionResp.Parts {
		genParams[p.Name] = partifi.GeneratePartParams{}
	}
	generateResp, err := svc.Generate(scoreID, genParams)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	for _, p := range generateResp.Parts {
		pdfBytes, err := svc.GetPartPDF(scoreID, p.Name)
		if err != nil {
			return fmt.Errorf("get part pdf %q: %w", p.Name, err)
		}
		outPath := filepath.Join(outDir, p.Name+".pdf")
		if err := os.WriteFile(outPath, pdfBytes, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		log.Info("wrote part", "name", p.Name, "pages", p.PageCount, "path", outPath)
	}
	return nil
}

// autoName assigns each live strip a name by its position within its
// system ("Part 1", "Part 2", ...), the positional convention a consistent
// orchestral layout follows page to page, standing in for the browser
// editor's interactive naming (spec.md §1's "strip names" collaborator
// input). Strip j (between divider j and j+1) is dead when
// systemFlags[j+1] is set and otherwise starts a new system when
// systemFlags[j] is set, mirroring score.Score.Strips's classification.
func autoName(systemFlags []bool) []string {
	if len(systemFlags) == 0 {
		return nil
	}
	names := make([]string, len(systemFlags)-1)
	position := 0
	for j := range names {
		if systemFlags[j+1] {
			names[j] = ""
			continue
		}
		if systemFlags[j] {
			position = 0
		}
		names[j] = fmt.Sprintf("Part %d", position+1)
		position++
	}
	return names
}
