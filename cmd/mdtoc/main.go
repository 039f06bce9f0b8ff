package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mdtoc/config"
	"mdtoc/generate"
	"mdtoc/misc"
	"mdtoc/state"
)

// setupEnv runs after flags are parsed and before any subcommand: it loads
// configuration, opens the debug report when --debug is given and builds
// the logger.
func setupEnv(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		// help only
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)
	configFile := cmd.String("config")

	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	env.Cfg = cfg

	if cmd.Bool("debug") {
		if env.Rpt, err = cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if len(configFile) > 0 {
			if data, err := config.Dump(cfg); err == nil {
				env.Rpt.StoreData(config.EntryName("config", filepath.Base(configFile)), data)
			}
		}
	}

	if env.Log, err = cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()))
	switch {
	case env.Rpt != nil:
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()), zap.String("id", env.Rpt.ID()))
	case len(configFile) == 0:
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

// teardownEnv flushes the log, finalizes the debug report and drops an empty
// panic log. Logger is unusable after RestoreStdLog, problems are returned.
func teardownEnv(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.RestoreStdLog()

	var err error
	if er := env.Rpt.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
	}
	if env.Cfg != nil {
		err = multierr.Append(err, removeEmptyPanicLog(env.Cfg.Logging.FileLogger.Destination))
	}
	return err
}

// removeEmptyPanicLog detaches crash output and deletes the panic log placed
// next to the file log when the run did not crash.
func removeEmptyPanicLog(logFile string) error {
	if len(logFile) == 0 {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})

	name := filepath.Join(filepath.Dir(logFile), misc.GetAppName()+"-panic.log")
	if fi, err := os.Stat(name); err != nil || fi.Size() > 0 {
		return nil
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("unable to remove empty panic log file '%s': %w", name, err)
	}
	return nil
}

// errLogged is set when the failure already reached the user through the
// logger, main then only sets exit code.
var errLogged bool

func logExitError(ctx context.Context, _ *cli.Command, err error) {
	log := state.EnvFromContext(ctx).Log
	log.Error("Program ended with error", zap.Error(err))
	errLogged = log.Core().Enabled(zap.ErrorLevel)
}

// usage errors are returned as is, main reports them.
func passUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func unknownCommand(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

const generateHelp = `%s
Every directory under root which has at least one document (not marked with
toc-ignore tag) somewhere below it produces an entry. Directory containing
ignore file is excluded together with all its subdirectories.

Recognized tags in leading HTML comments of a document:
    <!-- toc-name: Display Name -->
    <!-- toc-order: 10 -->       (integer or "last")
    <!-- toc-ignore -->
`

const dumpconfigHelp = `%s

DESTINATION:
    file to receive YAML, standard output when omitted

Without --default prints settings this run would use: embedded defaults
merged with the file given by --config. Command line flags of "generate"
are not reflected. With --default prints the embedded template, a good
starting point for your own configuration file.
`

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "maintains table of contents for a tree of Markdown documents",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          setupEnv,
		After:           teardownEnv,
		OnUsageError:    passUsageError,
		ExitErrHandler:  logExitError,
		CommandNotFound: unknownCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and collect inputs and results into report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:               "generate",
				Usage:              "Builds table of contents and puts it between markers of the target document",
				OnUsageError:       passUsageError,
				Action:             generate.Run,
				Flags:              generate.Flags(),
				CustomHelpTemplate: fmt.Sprintf(generateHelp, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Prints default or effective configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "print embedded configuration template"},
				},
				OnUsageError:       passUsageError,
				Action:             dumpConfiguration,
				ArgsUsage:          "[DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(dumpconfigHelp, cli.CommandHelpTemplate),
			},
		},
	}
}

func main() {
	// walk checks context between directories, interrupt stops it before
	// target is written
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	err := newApp().Run(ctx, os.Args)
	stop()
	if err == nil {
		return
	}
	if !errLogged {
		fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
	}
	os.Exit(1)
}

func dumpConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	kind, data := "actual", []byte(nil)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	var out io.Writer = cmd.Root().Writer
	dest := "STDOUT"
	if name := cmd.Args().First(); len(name) > 0 {
		f, ferr := os.Create(name)
		if ferr != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", name, ferr)
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		out, dest = f, name
	}
	env.Log.Info("Writing configuration", zap.String("kind", kind), zap.String("destination", dest))

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
