package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kilianp07/firmflex/config"
	"github.com/kilianp07/firmflex/core/batch"
	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/infra/source"
	"github.com/kilianp07/firmflex/pkg/export"
)

// BatchSummaryBase is the batch summary path without extension.
const BatchSummaryBase = "batch_processing_summary"

var batchFlags struct {
	firmCapacities string
	grouped        string
	listGroups     bool
	workers        int
	skipExisting   bool
	filter         []string
	competitions   bool
	schema         string
	year           int
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process many sites concurrently",
	Long: "Process every site of a firm capacities file, a grouped demand file or the configured substations.\n" +
		"Sites with a known firm capacity skip the inversion.",
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchFlags.firmCapacities, "firm-capacities", "", "CSV with Site,Firm_Capacity_MW columns")
	f.StringVar(&batchFlags.grouped, "grouped", "", "bulk demand CSV with a network group column")
	f.BoolVar(&batchFlags.listGroups, "list-groups", false, "print the network groups of --grouped and exit")
	f.IntVar(&batchFlags.workers, "workers", 0, "number of concurrent workers")
	f.BoolVar(&batchFlags.skipExisting, "skip-existing", false, "skip sites that already have results")
	f.StringSliceVar(&batchFlags.filter, "filter", nil, "only process these sites")
	f.BoolVar(&batchFlags.competitions, "competitions", true, "generate competitions")
	f.StringVar(&batchFlags.schema, "schema", "", "competition JSON schema for validation")
	f.IntVar(&batchFlags.year, "year", 0, "move demand timestamps to this year")
	rootCmd.AddCommand(batchCmd)
}

func applyBatchFlags(cmd *cobra.Command, cfg *config.Config) {
	applyRunFlags(cmd, cfg, batchFlags.competitions, batchFlags.schema, batchFlags.year)
	if !cmd.Flags().Changed("competitions") {
		cfg.Competitions.Enabled = true
	}
	if batchFlags.workers > 0 {
		cfg.Batch.Workers = batchFlags.workers
	}
	if batchFlags.skipExisting {
		cfg.Batch.SkipExisting = true
	}
	if len(batchFlags.filter) > 0 {
		cfg.Batch.Filter = batchFlags.filter
	}
	if batchFlags.firmCapacities != "" {
		cfg.Input.FirmCapacitiesFile = batchFlags.firmCapacities
	}
	if batchFlags.grouped != "" {
		cfg.Input.GroupedFile = batchFlags.grouped
	}
}

// batchPlan picks the demand source and the site list. Known capacities
// take precedence over grouped files, which take precedence over the
// configured substations.
func batchPlan(cfg *config.Config, log logger.Logger) (source.Source, []batch.Request, error) {
	var (
		src  source.Source = substationSource(cfg)
		reqs []batch.Request
	)
	var grouped *source.GroupedSource
	if cfg.Input.GroupedFile != "" {
		grouped = &source.GroupedSource{Path: cfg.Input.GroupedFile, OutputDir: cfg.Output.BaseDir, DeltaT: cfg.Input.DeltaT, Log: log}
		src = grouped
	}
	switch {
	case cfg.Input.FirmCapacitiesFile != "":
		caps, err := source.LoadFirmCapacities(cfg.Input.FirmCapacitiesFile, log)
		if err != nil {
			return nil, nil, err
		}
		reqs = lo.Map(caps, func(c source.KnownCapacity, _ int) batch.Request {
			mw := c.MW
			return batch.Request{Site: c.Site, FirmCapacity: &mw}
		})
	case grouped != nil:
		groups, err := grouped.Groups()
		if err != nil {
			return nil, nil, err
		}
		reqs = lo.Map(groups, func(g string, _ int) batch.Request { return batch.Request{Site: g} })
	default:
		reqs = lo.Map(cfg.Substations, func(s config.SubstationConfig, _ int) batch.Request {
			return batch.Request{Site: s.Name}
		})
	}
	if len(cfg.Batch.Filter) > 0 {
		reqs = lo.Filter(reqs, func(r batch.Request, _ int) bool { return lo.Contains(cfg.Batch.Filter, r.Site) })
		log.Infof("filtered to %d sites", len(reqs))
	}
	return src, reqs, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBatchFlags(cmd, cfg)
	log := newLogger(cfg, "batch")

	if batchFlags.listGroups {
		if cfg.Input.GroupedFile == "" {
			return fmt.Errorf("--list-groups needs --grouped")
		}
		groups, err := (&source.GroupedSource{Path: cfg.Input.GroupedFile, Log: log}).Groups()
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Fprintln(cmd.OutOrStdout(), g)
		}
		return nil
	}

	src, reqs, err := batchPlan(cfg, log)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no sites to process")
	}

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

	p, err := rt.pipeline(src)
	if err != nil {
		return err
	}
	sum := rt.orchestrator(p, cfg.Batch.Workers, cfg.Batch.SkipExisting).Run(ctx, reqs)

	base := filepath.Join(cfg.Output.BaseDir, BatchSummaryBase)
	if err := export.WriteFile(base+".csv", func(w io.Writer) error { return export.WriteBatchSummaryCSV(w, sum) }); err != nil {
		return fmt.Errorf("write batch summary: %w", err)
	}
	if err := export.WriteFile(base+".json", func(w io.Writer) error { return export.WriteBatchSummaryJSON(w, sum) }); err != nil {
		return fmt.Errorf("write batch summary: %w", err)
	}
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printSummary(w io.Writer, sum batch.Summary) {
	fmt.Fprintf(w, "Processed %d sites in %s (%.2f s per site)\n",
		sum.Total, sum.Elapsed.Round(time.Millisecond), sum.AvgPerSite.Seconds())
	fmt.Fprintf(w, "Successful: %d  Failed: %d  Skipped: %d\n", sum.Succeeded, sum.Failed, sum.Skipped)
	if sum.Capacity.N > 0 {
		fmt.Fprintf(w, "Firm capacity MW: min %.2f  max %.2f  mean %.2f\n",
			sum.Capacity.Min, sum.Capacity.Max, sum.Capacity.Mean)
	}
}
