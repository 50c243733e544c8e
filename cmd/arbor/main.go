package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/export"
	"github.com/san-kum/arbor/internal/gui"
	"github.com/san-kum/arbor/internal/lsystem"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/session"
	"github.com/san-kum/arbor/internal/storage"
	"github.com/san-kum/arbor/internal/turtle"
	"github.com/san-kum/arbor/internal/viz"
	"github.com/san-kum/arbor/internal/watch"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	verbose    bool
	quiet      bool
	configFile string
	axiom      string
	rules      []string
	iterations int
	angle      float64
	height     float64
	policy     string
	modelName  string
	modelPath  string
	trees      int
	seed       int64
	output     string
	noSave     bool
	width      int
	rows       int
	ground     bool
	theme      string
	useTUI     bool
	presetName string
	statsOnly  bool
	asJSON     bool
	format     string
)

var logger = slog.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:   "arbor",
		Short: "l-system structure generator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(os.Stderr)
			slog.SetDefault(logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(newSession(config.DefaultConfig()))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".arbor", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	generateCmd := &cobra.Command{
		Use:   "generate [preset]",
		Short: "print the expanded l-system string",
		Args:  cobra.MaximumNArgs(1),
		RunE:  generate,
	}
	addConfigFlags(generateCmd)
	generateCmd.Flags().BoolVar(&statsOnly, "stats", false, "print lengths instead of the string")

	buildCmd := &cobra.Command{
		Use:   "build [preset]",
		Short: "build a structure and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  build,
	}
	addConfigFlags(buildCmd)
	buildCmd.Flags().StringVarP(&output, "out", "o", "", "also export to file ("+formatList()+")")
	buildCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata and a preview",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&width, "width", 60, "columns")
	showCmd.Flags().IntVar(&rows, "rows", 30, "rows")
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print metadata as JSON only")

	previewCmd := &cobra.Command{
		Use:   "preview [preset|run_id]",
		Short: "draw a structure in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  preview,
	}
	addConfigFlags(previewCmd)
	previewCmd.Flags().IntVar(&width, "width", 60, "columns")
	previewCmd.Flags().IntVar(&rows, "rows", 30, "rows")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run (" + formatList() + ")",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&output, "out", "o", "", "output file, stdout when empty")
	exportCmd.Flags().StringVarP(&format, "format", "f", "", "output format, taken from --out when empty")
	exportCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportCmd.Flags().IntVar(&rows, "height", 800, "image height")
	exportCmd.Flags().BoolVar(&ground, "ground", false, "draw the ground outline")
	exportCmd.Flags().StringVar(&theme, "theme", "grove", "color theme")

	growthCmd := &cobra.Command{
		Use:   "growth [preset]",
		Short: "show string growth per iteration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  growth,
	}
	addConfigFlags(growthCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAXIOM\tITER\tANGLE\tRULES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%v\n", name, p.Axiom, p.Iterations, p.Angle, p.RuleStrings())
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a config file (yaml or toml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, nil)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	addConfigFlags(initCmd)

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "edit a structure with live terminal preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			_, err = viz.NewLiveProgram(newSession(cfg), *cfg).Run()
			return err
		},
	}
	addConfigFlags(liveCmd)

	watchCmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "regenerate whenever a config file changes",
		Args:  cobra.ExactArgs(1),
		RunE:  watchFile,
	}
	watchCmd.Flags().BoolVar(&useTUI, "tui", false, "show the live terminal preview")
	watchCmd.Flags().StringVarP(&output, "out", "o", "", "export every regeneration to file")

	viewCmd := &cobra.Command{
		Use:   "view [preset]",
		Short: "open the 3D viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && configFile == "" && presetName == "" {
				gui.RunInteractive(newSession(config.DefaultConfig()), logger)
				return nil
			}
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			gui.Run(newSession(cfg), *cfg, logger)
			return nil
		},
	}
	addConfigFlags(viewCmd)

	rootCmd.AddCommand(generateCmd, buildCmd, listCmd, showCmd, previewCmd, exportCmd, growthCmd, presetsCmd, initCmd, liveCmd, watchCmd, viewCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func formatList() string {
	return fmt.Sprint(export.Formats())
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVarP(&presetName, "preset", "p", "", "start from a preset "+fmt.Sprint(config.ListPresets()))
	cmd.Flags().StringVar(&axiom, "axiom", config.DefaultAxiom, "start string")
	cmd.Flags().StringArrayVar(&rules, "rule", nil, `production "F -> FF" (repeatable)`)
	cmd.Flags().IntVarP(&iterations, "iterations", "n", config.DefaultIterations, "rewrite rounds")
	cmd.Flags().Float64VarP(&angle, "angle", "a", config.DefaultAngle, "turn angle in degrees")
	cmd.Flags().Float64Var(&height, "height", config.DefaultTargetHeight, "target height")
	cmd.Flags().StringVar(&policy, "policy", "strict", "unknown symbols: strict or lenient")
	cmd.Flags().StringVar(&modelName, "model", config.DefaultModel, "builtin unit model "+fmt.Sprint(model.Names()))
	cmd.Flags().StringVar(&modelPath, "obj", "", "unit model from a Wavefront OBJ file")
	cmd.Flags().IntVar(&trees, "trees", config.DefaultTrees, "forest size, 0 for a single structure")
	cmd.Flags().Int64Var(&seed, "seed", 0, "placement seed, 0 for random")
}

// resolveConfig layers defaults, then a preset (first argument or
// --preset), then --config, then any flag set on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	name := presetName
	if len(args) > 0 {
		name = args[0]
	}
	if name != "" {
		p := config.GetPreset(name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("axiom") {
		cfg.Axiom = axiom
	}
	if flags.Changed("rule") {
		parsed, err := lsystem.ParseRules(rules)
		if err != nil {
			return nil, err
		}
		cfg.Rules = make([]config.RuleConfig, len(parsed))
		for i, r := range parsed {
			cfg.Rules[i] = config.RuleConfig{Symbol: string(r.Symbol), Replacement: r.Replacement}
		}
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("angle") {
		cfg.Angle = angle
	}
	if flags.Changed("height") {
		cfg.TargetHeight = height
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("model") {
		cfg.Model = modelName
	}
	if flags.Changed("obj") {
		cfg.ModelPath = modelPath
	}
	if flags.Changed("trees") {
		cfg.Forest.Count = trees
	}
	if flags.Changed("seed") {
		cfg.Forest.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func assemble(cfg *config.Config) (*scene.Scene, error) {
	unit, err := cfg.Unit()
	if err != nil {
		return nil, err
	}
	return scene.Assemble(*cfg, unit, nil, scene.WithLogger(logger))
}

// newSession starts a session on cfg's unit model, falling back to the
// default cylinder if the model cannot be loaded.
func newSession(cfg *config.Config) *session.Session {
	unit, err := cfg.Unit()
	if err != nil {
		logger.Warn("unit model unavailable, using default", "err", err)
		unit, _ = model.Builtin(config.DefaultModel)
	}
	return session.New(unit, session.WithLogger(logger))
}

// syncModel switches the session's unit when a reloaded config names a
// different one.
func syncModel(sess *session.Session, cfg config.Config) error {
	unit, err := cfg.Unit()
	if err != nil {
		return err
	}
	if unit != sess.Model() {
		sess.SetModel(unit)
	}
	return nil
}

func generate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	g := cfg.Grammar()

	if statsOnly {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROUND\tLENGTH\tDRAWS")
		for _, r := range g.Stats(cfg.Iterations, turtle.IsDraw) {
			fmt.Fprintf(w, "%d\t%d\t%d\n", r.Round, r.Length, r.Draws)
		}
		return w.Flush()
	}

	if n := g.Length(cfg.Iterations); n > scene.MaxSymbols {
		return fmt.Errorf("%w: %d symbols", scene.ErrTooManySymbols, n)
	}
	bw := bufio.NewWriter(os.Stdout)
	for r := range g.Symbols(cfg.Iterations) {
		bw.WriteRune(r)
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func build(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	start := time.Now()
	sc, err := assemble(cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("generated in %v\n", elapsed)
	fmt.Printf("symbols: %d\n", sc.Symbols)
	fmt.Printf("segments: %d (%d instances)\n", sc.Len(), len(sc.Instances))
	fmt.Printf("height: %.3f (raw %.3f)\n", sc.Height, sc.RawHeight)
	fmt.Printf("max depth: %d\n", sc.MaxDepth)
	if sc.Skipped > 0 {
		fmt.Printf("skipped symbols: %d\n", sc.Skipped)
	}
	if sc.Pending > 0 {
		fmt.Printf("unclosed branches: %d\n", sc.Pending)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(*cfg, sc)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if output != "" {
		if err := export.File(output, sc, nil, export.DefaultOptions()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", output)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tITER\tANGLE\tSEGMENTS\tINSTANCES\tHEIGHT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\t%d\t%d\t%.2f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Iterations,
			run.Angle,
			run.Transforms,
			run.Instances,
			run.Height,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	sc, err := st.LoadScene(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.Preview(sc, width, rows, nil))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run:\t%s\n", meta.ID)
	fmt.Fprintf(w, "name:\t%s\n", meta.Name)
	fmt.Fprintf(w, "created:\t%s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "iterations:\t%d\n", meta.Iterations)
	fmt.Fprintf(w, "angle:\t%.1f\n", meta.Angle)
	fmt.Fprintf(w, "model:\t%s\n", meta.Model.Name)
	fmt.Fprintf(w, "symbols:\t%d\n", meta.Symbols)
	fmt.Fprintf(w, "segments:\t%d (%d instances)\n", meta.Transforms, meta.Instances)
	fmt.Fprintf(w, "height:\t%.3f (raw %.3f)\n", meta.Height, meta.RawHeight)
	fmt.Fprintf(w, "seed:\t%d\n", meta.Seed)
	return w.Flush()
}

// preview draws a stored run when the argument names one, and otherwise
// generates from a preset or flags.
func preview(cmd *cobra.Command, args []string) error {
	var sc *scene.Scene
	if len(args) == 1 && config.GetPreset(args[0]) == nil {
		loaded, err := storage.New(dataDir).LoadScene(args[0])
		if err != nil {
			return err
		}
		sc = loaded
	} else {
		cfg, err := resolveConfig(cmd, args)
		if err != nil {
			return err
		}
		if sc, err = assemble(cfg); err != nil {
			return err
		}
	}

	fmt.Println(viz.Preview(sc, width, rows, nil))
	fmt.Printf("%d segments, height %.2f\n", sc.Len(), sc.Height)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	f := format
	if f == "" {
		if output == "" {
			return fmt.Errorf("--format is required when writing to stdout")
		}
		var err error
		if f, err = export.FormatFor(output); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	sc, err := st.LoadScene(runID)
	if err != nil {
		return err
	}

	opts := export.ThemeOptions(viz.GetTheme(theme))
	opts.Width, opts.Height = width, rows
	opts.Ground = ground

	var mesh *model.Mesh
	if sc.Config.ModelPath != "" {
		if mesh, err = model.LoadOBJ(sc.Config.ModelPath); err != nil {
			return err
		}
	}

	if output == "" {
		return export.Write(os.Stdout, f, sc, mesh, opts)
	}
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := export.Write(out, f, sc, mesh, opts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	logger.Info("exported run", "run", runID, "path", output, "format", f)
	return nil
}

func growth(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	if chart := viz.GrowthChart(*cfg, 60, 10); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tLENGTH\tDRAWS")
	for _, g := range cfg.Grammar().Stats(cfg.Iterations, turtle.IsDraw) {
		fmt.Fprintf(w, "%d\t%d\t%d\n", g.Round, g.Length, g.Draws)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if n := cfg.Grammar().Length(cfg.Iterations); n > scene.MaxSymbols {
		fmt.Printf("\nfinal length %d exceeds the generation limit of %d symbols\n", n, int64(scene.MaxSymbols))
	}
	return nil
}

func watchFile(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	sess := newSession(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if useTUI {
		prog := viz.NewLiveProgram(sess, *cfg)
		w := watch.New(path,
			func(c config.Config) error {
				if err := syncModel(sess, c); err != nil {
					return err
				}
				prog.Send(viz.ConfigMsg{Config: c})
				return nil
			},
			watch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			watch.WithErrorHandler(func(err error) { prog.Send(viz.ErrMsg{Err: err}) }),
		)
		go func() {
			if err := w.Run(ctx); err != nil {
				prog.Send(viz.ErrMsg{Err: err})
			}
		}()
		_, err := prog.Run()
		return err
	}

	w := watch.New(path,
		func(c config.Config) error {
			if err := syncModel(sess, c); err != nil {
				return err
			}
			changed, err := sess.Update(c)
			if err != nil || !changed {
				return err
			}
			sc := sess.Scene()
			fmt.Printf("[%s] generation %d: %d segments, height %.2f\n",
				time.Now().Format("15:04:05"), sess.Generation(), sc.Len(), sc.Height)
			if output != "" {
				if err := export.File(output, sc, nil, export.DefaultOptions()); err != nil {
					logger.Error("export failed", "path", output, "err", err)
				}
			}
			return nil
		},
		watch.WithLogger(logger),
	)
	return w.Run(ctx)
}
