// Package app provides CLI functionality for runarchive.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/lefinal/meh"
	"github.com/lefinal/runarchive/archiver"
	"github.com/lefinal/runarchive/config"
	"github.com/lefinal/runarchive/input"
	"github.com/lefinal/runarchive/validate"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const envPrefix = "RUNARCHIVE_"

type commandOptions struct {
	// Logger is set if the caller of RunCLI provided one. Otherwise, the logger
	// is created when running a command as the log directory is configured by
	// flags.
	Logger *zap.Logger
	Config config.Config
	// ConfigReport holds the issues of the config file and the effective Config.
	// It contains no errors but may contain warnings.
	ConfigReport *validate.Report
	FS           afero.Fs
	Confirmer    archiver.Confirmer
}

type buildSettings struct {
	revision string
	time     time.Time
}

func parseBuildSettings() buildSettings {
	settings := buildSettings{}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			settings.revision = setting.Value
		case "vcs.time":
			settings.time, _ = time.Parse(time.RFC3339, setting.Value)
		}
	}
	return settings
}

type cliOptions struct {
	configFilename string
	cfg            config.Config
	onCollision    string
}

// RunCLI the app as CLI. If the given logger is not nil, it will be used for
// console output instead of creating a new one with provided flags. The log
// file is written in any case.
func RunCLI(ctx context.Context, logger *zap.Logger, args []string) error {
	return runCLI(ctx, args, os.Stdout, commandOptions{
		Logger:    logger,
		FS:        afero.NewOsFs(),
		Confirmer: &input.Stdin{},
	})
}

func runCLI(ctx context.Context, args []string, writer io.Writer, commandOpts commandOptions) error {
	buildSettings := parseBuildSettings()
	cliOpts := cliOptions{cfg: config.Default()}

	cliApp := &cli.App{
		Name:  "runarchive",
		Usage: "Saves a copy of a template file in a run directory indexed by date and time.",
		ExtraInfo: func() map[string]string {
			return map[string]string{
				"version":      buildSettings.revision,
				"version from": buildSettings.time.Format(time.DateTime),
			}
		},
		Compiled: buildSettings.time,
		Writer:   writer,

		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        config.KeyDebug,
				Aliases:     []string{"d"},
				Usage:       "Run in debug mode.",
				EnvVars:     []string{envPrefix + "DEBUG"},
				Destination: &cliOpts.cfg.Debug,
			},
			&cli.StringFlag{
				Name:        config.KeyLogDir,
				Usage:       "Save the logs in `DIR`. It is created if it does not exist.",
				Value:       cliOpts.cfg.LogDir,
				EnvVars:     []string{envPrefix + "LOG_DIR"},
				Destination: &cliOpts.cfg.LogDir,
			},
			&cli.StringFlag{
				Name:        config.KeyTemplate,
				Aliases:     []string{"t"},
				Usage:       "Template `FILE` to be copied.",
				Value:       cliOpts.cfg.Template,
				EnvVars:     []string{envPrefix + "TEMPLATE"},
				Destination: &cliOpts.cfg.Template,
			},
			&cli.StringFlag{
				Name:        config.KeySavePath,
				Aliases:     []string{"s"},
				Usage:       "Save `PATH` for the copied file. If empty or '.', the copy is named by date and time in a run directory.",
				EnvVars:     []string{envPrefix + "SAVE_PATH"},
				Destination: &cliOpts.cfg.SavePath,
			},
			&cli.StringFlag{
				Name:        config.KeyOnCollision,
				Usage:       "`POLICY` if the destination already exists. Valid values are 'fail', 'overwrite' and 'ask'.",
				Value:       string(cliOpts.cfg.OnCollision),
				EnvVars:     []string{envPrefix + "ON_COLLISION"},
				Destination: &cliOpts.onCollision,
			},
			&cli.IntFlag{
				Name:        config.KeyLogMaxSizeMB,
				Usage:       "Rotate the log file after `MB` megabytes.",
				Value:       cliOpts.cfg.LogMaxSizeMB,
				EnvVars:     []string{envPrefix + "LOG_MAX_SIZE_MB"},
				Destination: &cliOpts.cfg.LogMaxSizeMB,
			},
			&cli.IntFlag{
				Name:        config.KeyLogBackups,
				Usage:       "Keep `N` rotated log files.",
				Value:       cliOpts.cfg.LogBackups,
				EnvVars:     []string{envPrefix + "LOG_BACKUPS"},
				Destination: &cliOpts.cfg.LogBackups,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Read defaults from the YAML config `FILE`. Flags take precedence.",
				EnvVars:     []string{envPrefix + "CONFIG"},
				Destination: &cliOpts.configFilename,
			},
		},

		Commands: []*cli.Command{
			{
				Name:    "archive",
				Aliases: []string{"a"},
				Usage:   "Copies the template to the save path. This is the default command.",
				Action: func(c *cli.Context) error {
					return meh.NilOrWrap(commandArchive(c.Context, commandOpts), "command archive", nil)
				},
			},
			{
				Name:  "config",
				Usage: "Prints the effective configuration.",
				Action: func(c *cli.Context) error {
					return meh.NilOrWrap(commandConfig(c.App.Writer, commandOpts), "command config", nil)
				},
			},
			{
				Name:  "version",
				Usage: "Prints the current runarchive version.",
				Action: func(c *cli.Context) error {
					_, _ = fmt.Fprintln(c.App.Writer, buildSettings.revision)
					return nil
				},
			},
		},

		Before: func(c *cli.Context) error {
			cliOpts.cfg.OnCollision = archiver.CollisionPolicy(cliOpts.onCollision)
			cfg, report, err := loadConfig(cliOpts, c.IsSet)
			if err != nil {
				return meh.Wrap(err, "load config", nil)
			}
			commandOpts.Config = cfg
			commandOpts.ConfigReport = report
			return nil
		},

		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				_, _ = fmt.Fprintf(c.App.Writer, "unsupported command: %s\n\n", c.Args().First())
				_ = cli.ShowAppHelp(c)
				return meh.NewBadInputErr("unsupported command", meh.Details{"command": c.Args().First()})
			}
			return meh.NilOrWrap(commandArchive(c.Context, commandOpts), "command archive", nil)
		},
		Suggest: true,
	}

	return cliApp.RunContext(ctx, args)
}

// loadConfig applies the config file from cliOptions, if set, to the config
// from flags and validates the result. The returned report holds the issues of
// both the config file and the effective config.
func loadConfig(cliOpts cliOptions, isSet func(name string) bool) (config.Config, *validate.Report, error) {
	cfg := cliOpts.cfg
	reporter := validate.NewReporter()
	if cliOpts.configFilename != "" {
		file, err := config.FromFile(cliOpts.configFilename)
		if err != nil {
			return config.Config{}, nil, meh.Wrap(err, "config from file", meh.Details{"filename": cliOpts.configFilename})
		}
		fileReport := file.Validate()
		if !fileReport.OK() {
			return config.Config{}, nil, reportErr("invalid config file", fileReport)
		}
		reporter.AddReport(fileReport)
		cfg = cfg.Apply(file, isSet)
	}
	reporter.AddReport(cfg.Validate())
	report := reporter.Report()
	if !report.OK() {
		return config.Config{}, nil, reportErr("invalid config", report)
	}
	return cfg, report, nil
}

func reportErr(message string, report *validate.Report) error {
	if len(report.Errors) > 0 {
		message = fmt.Sprintf("%s: %s: %s", message, report.Errors[0].Field, report.Errors[0].Detail)
	}
	return meh.NewBadInputErr(message, meh.Details{
		"errors":   report.Errors,
		"warnings": report.Warnings,
	})
}
