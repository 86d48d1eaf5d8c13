package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kilianp07/firmflex/config"
	"github.com/kilianp07/firmflex/core/batch"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/infra/source"
	"github.com/kilianp07/firmflex/pkg/export"
)

// SummaryFile collects the stats of every analysed substation.
const SummaryFile = "summary.csv"

var analyzeFlags struct {
	competitions bool
	schema       string
	year         int
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute firm capacities for the configured substations",
	RunE:  analyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.BoolVar(&analyzeFlags.competitions, "competitions", false, "generate competitions")
	f.StringVar(&analyzeFlags.schema, "schema", "", "competition JSON schema for validation")
	f.IntVar(&analyzeFlags.year, "year", 0, "move demand timestamps to this year")
	rootCmd.AddCommand(analyzeCmd)
}

// substationSource reads each configured substation, honouring per-site
// demand files and nominal voltages.
func substationSource(cfg *config.Config) source.Source {
	in := cfg.Input
	base := source.DirSource{Dir: in.DemandDir, File: in.DemandFile, DeltaT: in.DeltaT}
	if in.InSubstationFolder {
		base.Dir = cfg.Output.BaseDir
		base.InSubstationFolder = true
	}
	files := map[string]string{}
	voltages := map[string]string{}
	for _, s := range cfg.Substations {
		if s.DemandFile != "" {
			if in.InSubstationFolder {
				files[s.Name] = filepath.Join(cfg.Output.BaseDir, s.Name, s.DemandFile)
			} else {
				files[s.Name] = filepath.Join(in.DemandDir, s.DemandFile)
			}
		}
		if s.NominalVoltage != "" {
			voltages[s.Name] = s.NominalVoltage
		}
	}
	return source.Override{Base: base, Files: files, Voltages: voltages, DeltaT: in.DeltaT}
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, competitions bool, schemaPath string, year int) {
	if cmd.Flags().Changed("competitions") {
		cfg.Competitions.Enabled = competitions
	}
	if schemaPath != "" {
		cfg.Competitions.SchemaPath = schemaPath
	}
	if year != 0 {
		cfg.Input.TargetYear = year
	}
}

func analyze(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg, analyzeFlags.competitions, analyzeFlags.schema, analyzeFlags.year)
	if len(cfg.Substations) == 0 {
		return fmt.Errorf("no substations configured")
	}
	log := newLogger(cfg, "analyze")

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Errorf("close: %v", err)
		}
	}()
	rt.watch()

	src := substationSource(cfg)
	p, err := rt.pipeline(src)
	if err != nil {
		return err
	}
	reqs := lo.Map(cfg.Substations, func(s config.SubstationConfig, _ int) batch.Request {
		return batch.Request{Site: s.Name}
	})
	sum := rt.orchestrator(p, cfg.Batch.Workers, false).Run(ctx, reqs)

	stats := lo.FilterMap(sum.Jobs, func(j batch.Job, _ int) (model.SiteStats, bool) {
		if j.Status != batch.StatusSuccess || j.Report == nil {
			return model.SiteStats{}, false
		}
		return j.Report.Stats, true
	})
	if len(stats) > 0 {
		path := filepath.Join(cfg.Output.BaseDir, SummaryFile)
		if err := export.WriteFile(path, func(w io.Writer) error { return export.WriteStatsCSV(w, stats) }); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		log.Infof("summary saved to %s", path)
	}
	if sum.Failed > 0 {
		log.Warnf("%d of %d substations failed", sum.Failed, sum.Total)
	}
	return nil
}
