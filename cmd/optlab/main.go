package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/optlab/internal/analysis"
	"github.com/san-kum/optlab/internal/catalog"
	"github.com/san-kum/optlab/internal/config"
	"github.com/san-kum/optlab/internal/export"
	"github.com/san-kum/optlab/internal/mathprog"
	"github.com/san-kum/optlab/internal/multibody"
	"github.com/san-kum/optlab/internal/sliders"
	"github.com/san-kum/optlab/internal/solvers"
	"github.com/san-kum/optlab/internal/storage"
	"github.com/san-kum/optlab/internal/systems"
	"github.com/san-kum/optlab/internal/viewer"
	"github.com/san-kum/optlab/internal/viz"
)

var (
	dataDir    string
	solverName string
	guessFlag  string
	trace      bool
	starts     int
	dt         float64
	duration   float64
	integrator string
	kp         float64
	ki         float64
	kd         float64
	initFlag   string
	desired    string
	configFile string
	preset     string
	xAxis      int
	yAxis      int
	signal     int
	outFile    string
	svgScale   float64
	viewerAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "optlab",
		Short: "optimization and dynamical-systems lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".optlab", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve a demo optimization problem",
		Args:  cobra.ExactArgs(1),
		RunE:  solveProblem,
	}
	solveCmd.Flags().StringVar(&solverName, "solver", "auto", "solver: auto, penalty, interior-point, grid-search, multi-start")
	solveCmd.Flags().StringVar(&guessFlag, "guess", "", "initial guess, comma separated")
	solveCmd.Flags().BoolVar(&trace, "trace", false, "print iterates as the solver walks")
	solveCmd.Flags().IntVar(&starts, "starts", 8, "start count for multi-start")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list demo optimization problems",
		RunE:  listProblems,
	}

	simCmd := &cobra.Command{
		Use:   "sim [diagram]",
		Short: "simulate a diagram and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runSim,
	}
	simCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	simCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	simCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator: euler, rk4, rk45")
	simCmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	simCmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	simCmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	simCmd.Flags().StringVar(&initFlag, "init", "", "initial state, comma separated")
	simCmd.Flags().StringVar(&desired, "desired", "", "desired state, comma separated")
	simCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	simCmd.Flags().StringVar(&preset, "preset", "", "preset name")

	diagramsCmd := &cobra.Command{
		Use:   "diagrams",
		Short: "list diagram rigs",
		RunE:  listDiagrams,
	}

	graphCmd := &cobra.Command{
		Use:   "graph [diagram]",
		Short: "print a diagram as graphviz dot",
		Args:  cobra.ExactArgs(1),
		RunE:  printGraph,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [diagram]",
		Short: "list presets for a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for diagram: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run signals",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase plot of two signals",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "signal index for x")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "signal index for y")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of one signal",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&signal, "signal", 0, "signal index")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a phase plot as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "signal index for x")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "signal index for y")
	exportSVGCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")
	exportSVGCmd.Flags().Float64Var(&svgScale, "scale", 4, "dot scale in pixels")

	inspectCmd := &cobra.Command{
		Use:   "inspect [model.sdf]",
		Short: "serve a model in the viewer with joint sliders",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectModel,
	}
	inspectCmd.Flags().StringVar(&viewerAddr, "addr", viewer.DefaultAddr, "viewer listen address")

	rootCmd.AddCommand(solveCmd, problemsCmd, simCmd, diagramsCmd, graphCmd,
		presetsCmd, listCmd, plotCmd, phaseCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseFloatList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", part, err)
		}
		out[i] = v
	}
	return out, nil
}

func pickSolver(prog *mathprog.Program) (solvers.Solver, error) {
	switch solverName {
	case "auto":
		if prog.HasInequalities() {
			return solvers.NewInteriorPoint(), nil
		}
		return solvers.NewPenalty(), nil
	case "penalty":
		return solvers.NewPenalty(), nil
	case "interior-point":
		return solvers.NewInteriorPoint(), nil
	case "grid-search":
		return solvers.NewGridSearch(), nil
	case "multi-start":
		var inner solvers.Solver = solvers.NewPenalty()
		if prog.HasInequalities() {
			inner = solvers.NewInteriorPoint()
		}
		return solvers.NewMultiStart(inner, starts, time.Now().UnixNano()), nil
	}
	return nil, fmt.Errorf("unknown solver: %s", solverName)
}

func solveProblem(cmd *cobra.Command, args []string) error {
	problem, err := catalog.LookupProblem(args[0])
	if err != nil {
		return err
	}
	prog, vars := problem.Build()

	fmt.Printf("problem: %s\n", problem.Name)
	for _, c := range prog.Constraints() {
		fmt.Printf("  constraint: %s\n", c)
	}
	for _, c := range prog.Costs() {
		fmt.Printf("  cost: %s\n", c)
	}

	if guessFlag != "" {
		guess, err := parseFloatList(guessFlag)
		if err != nil {
			return err
		}
		if err := prog.SetInitialGuessVector(vars, guess); err != nil {
			return err
		}
	}
	if trace {
		prog.AddVisualizationCallback(func(x []float64) {
			fmt.Printf("  x = %v\n", x)
		}, vars)
	}

	solver, err := pickSolver(prog)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := solver.Solve(prog, prog.InitialGuess(), solvers.DefaultOptions())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("\nsolver: %s\n", result.Solver)
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("success: %v\n", result.Success())
	if result.Success() {
		fmt.Printf("x* = %v\n", result.GetSolutionVector(vars))
		fmt.Printf("optimal cost = %.6f\n", result.Cost)
	}
	fmt.Printf("iterations: %d in %v\n", result.Iterations, elapsed)
	return nil
}

func listProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, name := range catalog.ProblemNames() {
		p, err := catalog.LookupProblem(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Description)
	}
	return w.Flush()
}

// buildScenario merges preset, config file, and explicit flags, with the
// flags winning.
func buildScenario(cmd *cobra.Command, diagram string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Diagram = diagram

	if preset != "" {
		p := config.GetPreset(diagram, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(diagram))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Diagram = diagram
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if cmd.Flags().Changed("init") {
		state, err := parseFloatList(initFlag)
		if err != nil {
			return nil, err
		}
		cfg.InitState = state
	}
	if cmd.Flags().Changed("desired") {
		state, err := parseFloatList(desired)
		if err != nil {
			return nil, err
		}
		cfg.Desired = state
	}
	return cfg, nil
}

func runSim(cmd *cobra.Command, args []string) error {
	rig, err := catalog.LookupRig(args[0])
	if err != nil {
		return err
	}
	cfg, err := buildScenario(cmd, args[0])
	if err != nil {
		return err
	}

	run, err := rig.Build(cfg)
	if err != nil {
		return err
	}
	integ, err := catalog.NewIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	simCfg := systems.Config{Dt: cfg.Dt, ValidateState: true}
	if cfg.Integrator == "rk45" {
		simCfg.Adaptive = true
		simCfg.Tolerance = 1e-8
	}
	sim, err := systems.NewSimulator(run.Diagram, run.Context, integ, simCfg)
	if err != nil {
		return err
	}
	if err := sim.Initialize(); err != nil {
		return err
	}

	fmt.Printf("running %s...\n", rig.Name)
	start := time.Now()
	if err := sim.AdvanceTo(context.Background(), cfg.Duration); err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	metrics := map[string]float64{"energy_drift": sim.EnergyDrift()}
	if n := run.Log.NumSamples(); n > 0 {
		final := run.Log.Samples()[n-1]
		for i, label := range rig.StateLabels {
			if i < len(final) {
				metrics["final_"+label] = final[i]
			}
		}
	}

	runID, err := st.Save(storage.RunMetadata{
		Diagram:    rig.Name,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Metrics:    metrics,
	}, run.Log)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", sim.StepsTaken())
	fmt.Println("\nmetrics:")
	for name, val := range metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func listDiagrams(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tDESCRIPTION")
	for _, name := range catalog.RigNames() {
		rig, err := catalog.LookupRig(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", rig.Name, strings.Join(rig.StateLabels, ","), rig.Description)
	}
	return w.Flush()
}

func printGraph(cmd *cobra.Command, args []string) error {
	rig, err := catalog.LookupRig(args[0])
	if err != nil {
		return err
	}
	run, err := rig.Build(config.DefaultConfig())
	if err != nil {
		return err
	}
	fmt.Print(run.Diagram.Graphviz())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDIAGRAM\tTIME\tDURATION\tDT\tINTEG\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Diagram,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
		)
	}
	return w.Flush()
}

func loadSignals(runID string) (*storage.RunMetadata, [][]float64, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, errors.New("no data in run")
	}
	return meta, states, times, nil
}

func signalLabels(diagram string, n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("x%d", i)
	}
	if rig, err := catalog.LookupRig(diagram); err == nil {
		for i, name := range rig.StateLabels {
			if i < n {
				labels[i] = name
			}
		}
	}
	return labels
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, states, _, err := loadSignals(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("diagram: %s\n", meta.Diagram)
	fmt.Printf("samples: %d\n\n", len(states))

	labels := signalLabels(meta.Diagram, len(states[0]))
	for idx, label := range labels {
		data := make([]float64, len(states))
		for i := range states {
			data[i] = states[i][idx]
		}
		fmt.Println(viz.TimeSeries(data, 80, 10, label+" vs time"))
		fmt.Println()
	}
	return nil
}

func phaseSignals(runID string) ([]float64, []float64, []string, error) {
	meta, states, _, err := loadSignals(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if xAxis >= len(states[0]) || yAxis >= len(states[0]) {
		return nil, nil, nil, errors.New("state dimension too small for selected axes")
	}

	xs := make([]float64, len(states))
	ys := make([]float64, len(states))
	for i := range states {
		xs[i] = states[i][xAxis]
		ys[i] = states[i][yAxis]
	}
	labels := signalLabels(meta.Diagram, len(states[0]))
	return xs, ys, []string{labels[xAxis], labels[yAxis]}, nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	xs, ys, labels, err := phaseSignals(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("phase plot: %s vs %s\n\n", labels[1], labels[0])
	fmt.Print(viz.PhasePlotString(xs, ys, 70, 20, labels[0], labels[1]))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, states, times, err := loadSignals(args[0])
	if err != nil {
		return err
	}
	if signal >= len(states[0]) {
		return fmt.Errorf("run has %d signals", len(states[0]))
	}

	// The stored times are authoritative: an rk45 run resizes its steps
	// as it goes, and the FFT needs the real spacing (or to refuse).
	sampleDt, err := analysis.SampleSpacing(times)
	if err != nil {
		if errors.Is(err, analysis.ErrNonUniform) {
			return fmt.Errorf("run %s: %w (re-run with a fixed-step integrator)", meta.ID, err)
		}
		return err
	}

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][signal]
	}

	spectrum, err := analysis.PowerSpectrum(data, sampleDt)
	if err != nil {
		return err
	}

	labels := signalLabels(meta.Diagram, len(states[0]))
	fmt.Printf("frequency analysis: %s (%s)\n\n", meta.ID, labels[signal])

	plotLen := len(spectrum.Power) / 4
	if plotLen < 8 {
		plotLen = len(spectrum.Power)
	}
	fmt.Println(viz.TimeSeries(spectrum.Power[:plotLen], 80, 15, "power spectrum"))

	freq, power := spectrum.DominantFrequency()
	fmt.Printf("\ndominant frequency: %.3f hz (power %.3e)\n", freq, power)
	if period := spectrum.OscillationPeriod(); !math.IsNaN(period) {
		fmt.Printf("period: %.3f s\n", period)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, states, times, err := loadSignals(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	xs, ys, _, err := phaseSignals(args[0])
	if err != nil {
		return err
	}

	canvas := viz.PhasePlot(xs, ys, 70, 20)
	svg := export.CanvasToSVG(canvas, svgScale)

	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func inspectModel(cmd *cobra.Command, args []string) error {
	model, err := multibody.LoadModel(args[0])
	if err != nil {
		return err
	}
	plant := multibody.NewPlant(model)
	if err := plant.Finalize(); err != nil {
		return err
	}

	srv := viewer.NewServer(viewerAddr)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "viewer: %v\n", err)
		}
	}()

	if err := srv.PublishPlant(plant, plant.DefaultPositions()); err != nil {
		return err
	}

	fmt.Printf("model %s: %d links, %d joints\n", model.Name, len(model.Links), plant.NumPositions())
	fmt.Printf("viewer listening on %s\n", viewerAddr)

	return sliders.Run(plant, srv)
}
