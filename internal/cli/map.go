package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/assets"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/catalog"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/config"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/export"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/iec"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/logger"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/mapper"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/matrix"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/render"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/rules"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/threat"
)

var (
	threatsPath string
	rulesPath   string
	matrixPath  string
	catalogPath string

	targetLevel int
	modeFlag    string
	familiesCSV string

	ridCol    string
	traceCol  string
	assetsCol string

	outPath  string
	showDiag bool
	workers  int
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map threats to requirement coverage",
	Long: `Run the mapping: join threats to candidate rules by normalized
description, expand required IEC tokens for the target security level,
trace them against the requirement matrix, apply the asset gate, and
resolve a coverage status per threat.

  threat2pcya map --threats tmt.csv --rules candidates.csv --matrix pcya.xlsx --level 2 --out result.csv`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVar(&threatsPath, "threats", "", "Threat export CSV (required)")
	mapCmd.Flags().StringVar(&rulesPath, "rules", "", "Candidate rule table CSV (required)")
	mapCmd.Flags().StringVar(&matrixPath, "matrix", "", "Requirement matrix CSV or XLSX (required)")
	mapCmd.Flags().StringVar(&catalogPath, "catalog", "", "IEC 62443-4-2 catalog XLSX (optional, enriches diagnostics)")
	mapCmd.Flags().IntVar(&targetLevel, "level", 0, "Target security level 1..4 (default from config)")
	mapCmd.Flags().StringVar(&modeFlag, "mode", "", "Level expansion: cascade or exact (default from config)")
	mapCmd.Flags().StringVar(&familiesCSV, "families", "", "Comma-separated allowed families (default from config)")
	mapCmd.Flags().StringVar(&ridCol, "rid-col", "", "Requirement id column name")
	mapCmd.Flags().StringVar(&traceCol, "trace-col", "", "Traceability column name")
	mapCmd.Flags().StringVar(&assetsCol, "assets-col", "", "Allocated-assets column name")
	mapCmd.Flags().StringVar(&outPath, "out", "", "Write result rows to this CSV file")
	mapCmd.Flags().BoolVar(&showDiag, "diag", false, "Print the full diagnostics bundle")
	mapCmd.Flags().IntVar(&workers, "workers", 0, "Per-threat worker bound (default: GOMAXPROCS)")
	rootCmd.AddCommand(mapCmd)
}

func parseFamilies(csv string) (map[string]bool, error) {
	fams := make(map[string]bool)
	for _, f := range strings.Split(csv, ",") {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !iec.IsFamily(f) {
			return nil, fmt.Errorf("unknown family %q (want CR, SAR, EDR, HDR or NDR)", f)
		}
		fams[f] = true
	}
	if len(fams) == 0 {
		return nil, fmt.Errorf("no families selected")
	}
	return fams, nil
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override config.
	if targetLevel == 0 {
		targetLevel = cfg.TargetLevel
	}
	if modeFlag == "" {
		modeFlag = cfg.Mode
	}
	if familiesCSV == "" {
		familiesCSV = strings.Join(cfg.Families, ",")
	}
	cols := matrix.Columns{RID: cfg.Matrix.RID, Trace: cfg.Matrix.Trace, Assets: cfg.Matrix.Assets}
	if ridCol != "" {
		cols.RID = ridCol
	}
	if traceCol != "" {
		cols.Trace = traceCol
	}
	if assetsCol != "" {
		cols.Assets = assetsCol
	}

	mode, err := rules.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	families, err := parseFamilies(familiesCSV)
	if err != nil {
		return err
	}

	// Required inputs are checked before any parsing starts.
	for _, in := range []struct{ path, name string }{
		{threatsPath, "threats"},
		{rulesPath, "rules"},
		{matrixPath, "matrix"},
	} {
		if in.path == "" {
			return &table.InputMissingError{Input: in.name}
		}
	}

	threatTab, err := table.Open(threatsPath, "threats")
	if err != nil {
		return err
	}
	threats, err := threat.Load(threatTab)
	if err != nil {
		return err
	}

	ruleTab, err := table.Open(rulesPath, "rules")
	if err != nil {
		return err
	}
	ruleSet, err := rules.Load(ruleTab)
	if err != nil {
		return err
	}

	matrixTab, err := table.Open(matrixPath, "matrix")
	if err != nil {
		return err
	}
	m, err := matrix.Load(matrixTab, cols)
	if err != nil {
		return err
	}

	var cat *catalog.Catalog
	if catalogPath != "" {
		catTab, err := table.Open(catalogPath, "catalog")
		if err != nil {
			return err
		}
		if cat, err = catalog.Load(catTab); err != nil {
			return err
		}
	}

	runLogPath := logPath
	if runLogPath == "" {
		if runLogPath, err = cfg.ResolveLogPath(); err != nil {
			return fmt.Errorf("resolve log path: %w", err)
		}
	}
	runLog, err := logger.New(runLogPath)
	if err != nil {
		slog.Warn("run log unavailable", "path", runLogPath, "err", err)
		runLog = nil
	}
	defer runLog.Close()

	opts := mapper.Options{
		TargetLevel: targetLevel,
		Mode:        mode,
		Families:    families,
		Synonyms:    assets.NewSynonyms(cfg.AssetSynonyms),
		Workers:     workers,
	}
	eng, err := mapper.New(ruleSet, m, cat, opts, slog.Default())
	if err != nil {
		return err
	}

	runLog.Log(logger.RunEvent{
		Kind:        "run_start",
		TargetLevel: targetLevel,
		Mode:        string(mode),
		Families:    sortedFamilies(families),
		Threats:     len(threats),
	})

	out, err := eng.Run(threats)
	if err != nil {
		runLog.Log(logger.RunEvent{Kind: "run_done", Error: err.Error()})
		return err
	}

	for _, u := range out.Diagnostics.Unmapped {
		runLog.Log(logger.RunEvent{Kind: "unmapped", ThreatID: u.ThreatID, DescKey: u.DescKey})
	}
	for _, ex := range out.Diagnostics.Exclusions {
		runLog.Log(logger.RunEvent{
			Kind:         "gate_excluded",
			ThreatID:     ex.ThreatID,
			Token:        ex.Token,
			RID:          ex.RID,
			Required:     ex.Required,
			RecordAssets: ex.RecordAssets,
			Allocation:   ex.Allocation,
		})
	}
	runLog.Log(logger.RunEvent{
		Kind:     "run_done",
		Threats:  len(threats),
		Results:  len(out.Results),
		Unmapped: len(out.Diagnostics.Unmapped),
	})

	if outPath != "" {
		if err := export.WriteCSVFile(outPath, out.Results); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else if err := export.WriteCSV(cmd.OutOrStdout(), out.Results); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	styled := term.IsTerminal(int(os.Stderr.Fd()))
	render.Summary(cmd.ErrOrStderr(), out, styled)
	if showDiag {
		render.Diagnostics(cmd.ErrOrStderr(), &out.Diagnostics)
	}
	return nil
}

func sortedFamilies(fams map[string]bool) []string {
	var out []string
	for _, f := range iec.Families {
		if fams[f] {
			out = append(out, f)
		}
	}
	return out
}
