package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"qdeck/internal/bench"
	"qdeck/internal/circuit"
	"qdeck/internal/config"
	"qdeck/internal/register"
	"qdeck/internal/snapshot"
	"qdeck/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs once flags and environment are read.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func newApp() *cli.App {
	a := &app{}
	return &cli.App{
		Name:  "qdeck",
		Usage: "edit, simulate and benchmark small quantum circuits",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Usage: "gate application strategy: indexed or dense"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error or disabled"},
		},
		Before: a.setup,
		Action: a.tui,
		Commands: []*cli.Command{
			{
				Name:   "bench",
				Usage:  "time gate programs on fresh registers",
				Action: a.bench,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "suite", Usage: "YAML suite file (default: builtin suite)"},
					&cli.IntFlag{Name: "parallel", Aliases: []string{"p"}, Usage: "scenarios run at once"},
					&cli.IntFlag{Name: "reps", Usage: "override every scenario's repetition count"},
					&cli.StringSliceFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "only run the named scenarios"},
					&cli.BoolFlag{Name: "dump", Usage: "print the suite as YAML and exit"},
				},
			},
			{
				Name:      "run",
				Usage:     "simulate a QASM file and print the final state",
				ArgsUsage: "FILE.qasm",
				Action:    a.run,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "step", Value: -1, Usage: "stop after this step (-1 runs everything)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "save the state as a msgpack snapshot"},
				},
			},
			{
				Name:      "inspect",
				Usage:     "print a stored snapshot",
				ArgsUsage: "SNAPSHOT",
				Action:    a.inspect,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "source", Usage: "also print the program that produced the state"},
				},
			},
		},
	}
}

func (a *app) setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if s := c.String("strategy"); s != "" {
		cfg.Strategy = s
	}
	if l := c.String("log-level"); l != "" {
		cfg.LogLevel = l
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: c.App.ErrWriter})
	logger.SetGlobalLogger(a.log)
	return nil
}

func (a *app) registerOptions() []register.Option {
	return []register.Option{
		register.WithStrategy(a.cfg.RegisterStrategy()),
		register.WithLogger(a.log),
	}
}

func (a *app) tui(c *cli.Context) error {
	// stdout belongs to the terminal UI; logs go to a file or nowhere.
	log := zerolog.Nop()
	if a.cfg.LogFile != "" {
		f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log = logger.New(logger.Config{Level: a.cfg.LogLevel, Output: f})
	}

	mc := modelConfig{
		strategy: a.cfg.RegisterStrategy(),
		qasmFile: a.cfg.QASMFile,
		log:      log,
	}
	if data, err := os.ReadFile(a.cfg.QASMFile); err == nil {
		if parsed, err := circuit.ParseQASM(string(data)); err == nil && parsed.Validate() == nil {
			mc.initial = parsed
		} else {
			log.Warn().Str("file", a.cfg.QASMFile).Msg("ignoring unreadable circuit file")
		}
	}

	p := tea.NewProgram(initialModel(mc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *app) bench(c *cli.Context) error {
	suite := bench.DefaultSuite()
	path := a.cfg.BenchSuite
	if c.IsSet("suite") {
		path = c.String("suite")
	}
	if path != "" {
		var err error
		if suite, err = bench.LoadSuite(path); err != nil {
			return err
		}
	}
	suite, err := suite.Filter(c.StringSlice("scenario")...)
	if err != nil {
		return err
	}

	if c.Bool("dump") {
		data, err := suite.Marshal()
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(data)
		return err
	}

	parallel := a.cfg.BenchParallel
	if c.IsSet("parallel") {
		parallel = c.Int("parallel")
	}
	runner := bench.NewRunner(
		bench.WithStrategy(a.cfg.RegisterStrategy()),
		bench.WithParallel(parallel),
		bench.WithRepetitions(c.Int("reps")),
		bench.WithLogger(a.log),
	)
	results, err := runner.Run(c.Context, suite)
	if err != nil {
		return err
	}
	bench.WriteReport(c.App.Writer, results)
	return nil
}

func (a *app) run(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: qdeck run FILE.qasm")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	circ, err := circuit.ParseQASM(string(data))
	if err != nil {
		return err
	}
	reg, err := circ.Simulate(c.Int("step"), a.registerOptions()...)
	if err != nil {
		return err
	}

	a.log.Info().
		Int("qubits", reg.Qubits()).
		Int("gates", len(circ.Gates)).
		Stringer("strategy", reg.Strategy()).
		Msg("circuit simulated")
	writeState(c.App.Writer, reg)

	if out := c.String("out"); out != "" {
		snap := snapshot.Take(reg, circ.ToQASM())
		if err := snap.Save(out); err != nil {
			return err
		}
		a.log.Info().Str("file", out).Str("id", snap.ID.String()).Msg("snapshot saved")
	}
	return nil
}

func (a *app) inspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: qdeck inspect SNAPSHOT")
	}
	snap, err := snapshot.Load(c.Args().First())
	if err != nil {
		return err
	}
	reg, err := snap.Restore(register.WithLogger(a.log))
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "id:       %s\n", snap.ID)
	fmt.Fprintf(w, "taken:    %s\n", snap.TakenAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "qubits:   %d\n", snap.Qubits)
	fmt.Fprintf(w, "strategy: %s\n", snap.Strategy)
	fmt.Fprintf(w, "norm:     %.6f\n\n", reg.Norm())
	writeState(w, reg)
	if c.Bool("source") && snap.Source != "" {
		fmt.Fprintf(w, "\n%s", snap.Source)
	}
	return nil
}
