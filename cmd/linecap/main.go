package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"linecap/internal/capture"
	"linecap/internal/config"
	"linecap/internal/logging"
	"linecap/internal/record"
	"linecap/internal/report"
	"linecap/pkg/line"
	"linecap/pkg/outputlog"
)

// exitCodeError makes main exit with the code of the captured process
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.code)
}

// exitCodeOf maps a status to a shell style exit code: the exit code, or
// 128 plus the signal number.
func exitCodeOf(status capture.ExitStatus) int {
	if !status.Exited() {
		return 128 + status.SignalNumber
	}
	return status.Code
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	cfg        *config.Config
	logger     *slog.Logger

	jobFile   string
	dir       string
	recordDir string
	outputLog string
	logLines  bool
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linecap",
		Short: "linecap - run commands and capture their output line by line",
		Long: `linecap runs a command, captures every line it prints to stdout and stderr
with the time it was read, and reports the lines together with the exit status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", fmt.Sprintf("Config file (default: %s)", config.ConfigFile()))
	flags.StringP("format", "f", string(report.FormatText), "Output format: text, json, yaml, markdown, html or outputlog")
	flags.String("color", config.ColorAuto, "Color the text format: auto, always or never")
	flags.String("log-level", logging.LevelWarn, "Log level: DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", logging.FormatText, "Log format: text or json")

	runCmd := &cobra.Command{
		Use:   "run [flags] -- cmd [args...]",
		Short: "Run a command and capture its output",
		Long: `Run a command, capture its output and report it.

The command is given after "--" or read from a job file (--job). linecap exits
with the exit code of the command, or 128 plus the signal number if the
command was killed by a signal.`,
		RunE: a.run,
	}
	runCmd.Flags().StringVar(&a.jobFile, "job", "", "Read the command from a YAML job file")
	runCmd.Flags().StringVarP(&a.dir, "dir", "C", "", "Working directory of the command")
	runCmd.Flags().StringVar(&a.recordDir, "record", "", "Record the invocation into this directory")
	runCmd.Flags().StringVar(&a.outputLog, "output-log", "", "Append the lines to this file in outputlog format while the command runs")
	runCmd.Flags().BoolVar(&a.logLines, "log-lines", false, "Log every line as it is read")

	showCmd := &cobra.Command{
		Use:   "show DIR|FILE",
		Short: "Show a recorded invocation or an output log",
		Args:  cobra.ExactArgs(1),
		RunE:  a.show,
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	return rootCmd
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for key, name := range map[string]string{
		"format":     "format",
		"color":      "color",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(a.stderr, cfg.Log.Level, cfg.Log.Format)
	a.logger.Debug("configuration loaded", "file", v.ConfigFileUsed(), "format", cfg.Format, "color", cfg.Color)
	return nil
}

// useColor resolves the color mode; auto means stdout is a terminal and
// NO_COLOR is unset.
func (a *app) useColor() bool {
	switch a.cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := a.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) options() report.Options {
	format, _ := report.ParseFormat(a.cfg.Format) // validated by config.Load
	return report.Options{Format: format, Color: a.useColor()}
}

func (a *app) job(args []string) (*config.Job, error) {
	var job *config.Job
	switch {
	case a.jobFile != "" && len(args) > 0:
		return nil, errors.New("use either --job or a command, not both")
	case a.jobFile != "":
		loaded, err := config.LoadJob(a.jobFile)
		if err != nil {
			return nil, err
		}
		job = loaded
	case len(args) > 0:
		job = &config.Job{Command: args}
		if err := job.Validate(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("no command given")
	}
	if a.dir != "" {
		job.Dir = a.dir
	}
	return job, nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	job, err := a.job(args)
	if err != nil {
		return err
	}
	command := job.String()

	var observers []capture.Observer
	if a.logLines {
		observers = append(observers, capture.LogObserver(a.logger))
	}

	var logWriter *outputlog.Writer
	if a.outputLog != "" {
		f, err := os.OpenFile(a.outputLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open output log: %w", err)
		}
		defer f.Close()
		logWriter = outputlog.NewWriter(f)
		observers = append(observers, logWriter.Observer())
	}

	var rec *record.Recorder
	if a.recordDir != "" {
		rec, err = record.Create(a.recordDir, command)
		if err != nil {
			return err
		}
		observers = append(observers, rec.Observer())
	}

	a.logger.Info("running", "command", command, "dir", job.Dir)
	res, runErr := capture.RunFuncsWithLines(job.Cmd(),
		capture.Collector(line.Stdout, observers...),
		capture.Collector(line.Stderr, observers...),
	)

	var errs []error
	if logWriter != nil {
		if err := logWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to write output log: %w", err))
		}
	}
	if runErr != nil {
		if rec != nil {
			errs = append(errs, rec.Abort())
		}
		return errors.Join(append([]error{runErr}, errs...)...)
	}
	if rec != nil {
		if err := rec.Finish(res); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Debug("recorded", "dir", rec.Dir())
		}
	}
	a.logger.Info("finished", "id", res.ID(), "status", res.ExitStatus().String(), "duration", res.Duration())

	if err := report.Write(a.stdout, report.FromResult(command, res), a.options()); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if code := exitCodeOf(res.ExitStatus()); code != 0 {
		return &exitCodeError{code: code}
	}
	return nil
}

func (a *app) show(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var inv report.Invocation
	if info.IsDir() {
		rec, err := record.Load(path)
		if err != nil {
			return err
		}
		inv = report.FromRecord(rec)
	} else {
		inv, err = loadOutputLog(path)
		if err != nil {
			return err
		}
	}
	a.logger.Debug("showing", "path", path, "lines", len(inv.Lines))
	return report.Write(a.stdout, inv, a.options())
}

// loadOutputLog turns a bare output log into an invocation without an exit
// status, spanning its first to its last line.
func loadOutputLog(path string) (report.Invocation, error) {
	f, err := os.Open(path)
	if err != nil {
		return report.Invocation{}, err
	}
	defer f.Close()
	lines, err := outputlog.NewReader(f).All()
	if err != nil {
		return report.Invocation{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	line.Sort(lines)
	inv := report.Invocation{
		Command:  filepath.Base(path),
		Captured: true,
		Lines:    lines,
	}
	if len(lines) > 0 {
		inv.Start = lines[0].Time
		inv.End = lines[len(lines)-1].Time
	}
	return inv, nil
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
