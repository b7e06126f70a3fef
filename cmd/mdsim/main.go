package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mdsim/internal/analysis"
	"github.com/san-kum/mdsim/internal/automation"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/experiment"
	"github.com/san-kum/mdsim/internal/export"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/optim"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"github.com/san-kum/mdsim/internal/traj"
	"github.com/san-kum/mdsim/internal/viz"
)

var (
	dataDir string
	verbose bool
	logger  = slog.Default()

	configFile   string
	preset       string
	seed         int64
	evaluator    string
	steps        int
	interval     int
	temperature  float64
	output       string
	zeroMomentum bool
	save         bool

	series    string
	outFile   string
	runs      int
	seedStart int64
	rdfBins   int
	rdfRange  float64

	species    string
	outDir     string
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepN     int
)

// main registers the commands and runs the default copper simulation when no
// subcommand is given. It exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "mdsim",
		Short:         "NVE molecular dynamics of FCC metals with EMT",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
		RunE: runSimulation,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSPECIES\tSIZE\tT\tSTEPS\tEVALUATOR")
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%dx%dx%d\t%.0fK\t%d\t%s\n",
					name, c.Species, c.Size[0], c.Size[1], c.Size[2], c.TemperatureK, c.Steps, c.Evaluator)
			}
			return w.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy series of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "etot", "series to plot: epot, ekin, etot or temperature")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render the energy series of a stored run to an image",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.png)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [trajectory]",
		Short: "show the header and frame count of a trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectTrajectory,
	}

	inspectCmd.Flags().IntVar(&rdfBins, "rdf", 0, "also plot g(r) of the last frame with this many bins")
	inspectCmd.Flags().Float64Var(&rdfRange, "rdf-range", 0, "g(r) range in Å (default half the shortest cell edge)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "temperature and energy statistics of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run several seeds concurrently",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 4, "number of runs")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first run")

	relaxCmd := &cobra.Command{
		Use:   "relax",
		Short: "find the equilibrium lattice constant of a perfect crystal",
		Args:  cobra.NoArgs,
		RunE:  relaxLattice,
	}
	relaxCmd.Flags().StringVar(&species, "species", config.DefaultSpecies, "element symbol")
	relaxCmd.Flags().StringVar(&evaluator, "evaluator", config.DefaultEvaluator, "potential evaluator: emt or emt-reference")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for trajectories of named steps")
	batchCmd.Flags().BoolVar(&save, "save", false, "store every step under the data directory")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "repeat a run over a range of timesteps or temperatures",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "timestep_fs", "parameter to sweep: timestep_fs or temperature_k")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 4, "last value")
	sweepCmd.Flags().IntVar(&sweepN, "points", 4, "number of values")
	sweepCmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for sweep trajectories")

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, plotCmd, exportPNGCmd, exportJSONCmd, inspectCmd, analyzeCmd, liveCmd, ensembleCmd, relaxCmd, batchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 draws one from the clock)")
	cmd.Flags().StringVar(&evaluator, "evaluator", config.DefaultEvaluator, "potential evaluator: emt or emt-reference")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().IntVar(&interval, "interval", config.DefaultInterval, "steps between frames and reports")
	cmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "initial temperature in K")
	cmd.Flags().StringVar(&output, "out", config.DefaultOutput, "trajectory file")
	cmd.Flags().BoolVar(&zeroMomentum, "zero-momentum", false, "remove centre-of-mass momentum after sampling")
}

// resolveConfig applies, in order, the defaults, the preset, the config file
// and the flags that were set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("evaluator") {
		cfg.Evaluator = evaluator
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	if flags.Changed("temperature") {
		cfg.TemperatureK = temperature
	}
	if flags.Changed("out") {
		cfg.Output = output
	}
	if flags.Changed("zero-momentum") {
		cfg.ZeroMomentum = zeroMomentum
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var prom *metrics.RunMetrics
	if save {
		prom = metrics.NewRunMetrics(nil)
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(sim.Options{Stdout: cmd.OutOrStdout(), Logger: logger, Prom: prom}); err != nil {
		return err
	}
	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, res)
	if err != nil {
		return err
	}
	if err := st.SavePrometheus(runID, prom); err != nil {
		return err
	}
	logger.Info("saved run", "id", runID, "dir", st.RunDir(runID))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSPECIES\tATOMS\tSTEPS\tFRAMES\tEVALUATOR\tSEED\tDRIFT")

	for _, run := range runs {
		c := run.Config
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%d\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			c.Species,
			4*c.Size[0]*c.Size[1]*c.Size[2],
			run.Steps,
			run.Frames,
			run.Evaluator,
			run.Seed,
			run.Metrics["energy_drift"],
		)
	}

	return w.Flush()
}

func seriesValue(name string) (func(metrics.Report) float64, string, error) {
	switch name {
	case "epot":
		return func(r metrics.Report) float64 { return r.PotentialPerAtom }, "Epot per atom (eV)", nil
	case "ekin":
		return func(r metrics.Report) float64 { return r.KineticPerAtom }, "Ekin per atom (eV)", nil
	case "etot":
		return func(r metrics.Report) float64 { return r.TotalPerAtom }, "Etot per atom (eV)", nil
	case "temperature":
		return func(r metrics.Report) float64 { return r.Temperature }, "Temperature (K)", nil
	default:
		return nil, "", fmt.Errorf("unknown series: %s", name)
	}
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	if _, err := st.Load(runID); err != nil {
		return err
	}
	reports, err := st.LoadReports(runID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("no data to plot")
	}

	value, caption, err := seriesValue(series)
	if err != nil {
		return err
	}
	data := make([]float64, len(reports))
	for i, r := range reports {
		data[i] = value(r)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Precision(4),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	reports, err := st.LoadReports(runID)
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = runID + ".png"
	}
	if err := export.SaveEnergies(path, reports); err != nil {
		return err
	}
	logger.Info("exported", "run", runID, "file", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return st.ExportJSON(cmd.OutOrStdout(), args[0])
	}
	return st.ExportJSONFile(outFile, args[0])
}

func inspectTrajectory(cmd *cobra.Command, args []string) error {
	path := args[0]
	r, err := traj.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var frames int
	var last *traj.Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		frames++
		last = f
	}

	h := r.Header
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "file\t%s\n", filepath.Clean(path))
	fmt.Fprintf(w, "atoms\t%d\n", h.NAtoms)
	fmt.Fprintf(w, "cell\t%.4f %.4f %.4f\n", h.Cell.X, h.Cell.Y, h.Cell.Z)
	fmt.Fprintf(w, "pbc\t%v\n", h.PBC)
	fmt.Fprintf(w, "frames\t%d\n", frames)
	if last != nil {
		fmt.Fprintf(w, "last step\t%d\n", last.Step)
		fmt.Fprintf(w, "last epot\t%.6f eV\n", last.Energy)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if rdfBins == 0 || last == nil {
		return nil
	}
	rmax := rdfRange
	if rmax == 0 {
		rmax = 0.5 * min(last.Cell.X, last.Cell.Y, last.Cell.Z)
	}
	_, g, err := analysis.RDF(last.Positions, last.Cell, rmax, rdfBins)
	if err != nil {
		return err
	}
	graph := asciigraph.Plot(g,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("g(r), 0 to %.2f Å, step %d", rmax, last.Step)),
	)
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	reports, err := st.LoadReports(runID)
	if err != nil {
		return err
	}

	s, err := analysis.Summarize(reports, float64(meta.Config.Interval)*meta.Config.TimestepFs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "reports\t%d\n", s.Reports)
	fmt.Fprintf(w, "temperature\t%.1f ± %.1f K\n", s.MeanTemperature, s.StdTemperature)
	fmt.Fprintf(w, "etot per atom\t%.6f ± %.2e eV\n", s.MeanTotal, s.StdTotal)
	fmt.Fprintf(w, "max drift\t%.2e eV\n", s.MaxDrift)
	if s.KineticPeriod > 0 {
		fmt.Fprintf(w, "ekin period\t%.1f fs\n", s.KineticPeriod)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	exp := experiment.New(cfg)
	if err := exp.Setup(sim.Options{Logger: quiet}); err != nil {
		return err
	}

	title := fmt.Sprintf("mdsim live: %s %dx%dx%d, %.0f K, %s",
		cfg.Species, cfg.Size[0], cfg.Size[1], cfg.Size[2], cfg.TemperatureK, cfg.Evaluator)
	p := tea.NewProgram(viz.NewModel(title, cfg.Steps, cancel))
	exp.GetDriver().AddBaselineObserver(cfg.Interval, viz.Observer(p.Send))

	done := make(chan error, 1)
	go func() {
		res, err := exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: res, Err: err})
		done <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	if err := <-done; err != nil && !errors.Is(err, dynamo.ErrContextCanceled) {
		return err
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble(cfg, experiment.Factory(sim.Options{Logger: logger}), runs, seedStart)
	results, err := ens.Run(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTRAJECTORY\tFRAMES\tFINAL")
	for _, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", res.Seed, res.Trajectory, res.Frames, res.Final())
	}
	return w.Flush()
}

func relaxLattice(cmd *cobra.Command, args []string) error {
	calc, err := experiment.NewRegistry().GetPotential(evaluator)
	if err != nil {
		return err
	}
	eq, err := optim.EquilibriumLatticeConstant(cmd.Context(), species, calc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: a = %.4f Å, Epot = %.4f eV/atom (%d evaluations)\n",
		species, eq.LatticeConstant, eq.EnergyPerAtom, eq.Evaluations)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, outDir, sim.Options{Logger: logger})
	if save {
		st := storage.New(dataDir)
		if ierr := st.Init(); ierr != nil {
			return ierr
		}
		for _, r := range results {
			runID, serr := st.Save(r.Config, r.Result)
			if serr != nil {
				return serr
			}
			logger.Info("saved run", "step", r.Name, "id", runID)
		}
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tFRAMES\tDRIFT\tFINAL")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.2e\t%s\n", r.Name, r.Result.Frames, r.Result.Metrics["energy_drift"], r.Result.Final())
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{Base: cfg, Param: sweepParam, ParamMin: sweepMin, ParamMax: sweepMax, NumSteps: sweepN}
	results, err := automation.RunSweep(cmd.Context(), sweep, outDir, sim.Options{Logger: logger})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tDRIFT\tMEAN T\tFINAL ETOT\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.2e\t%.1f\t%.4f\n", r.ParamValue, r.EnergyDrift, r.MeanTemperature, r.Final)
	}
	return w.Flush()
}
