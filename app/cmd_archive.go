package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/gofrs/uuid"
	"github.com/lefinal/meh"
	"github.com/lefinal/runarchive/archiver"
	"github.com/lefinal/runarchive/logging"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const dirPerm = 0750

// commandArchive copies the configured template to the save path. The template
// is checked before anything is written, including the log directory.
func commandArchive(ctx context.Context, options commandOptions) error {
	cfg := options.Config
	template, err := archiver.OpenTemplate(options.FS, cfg.Template)
	if err != nil {
		return meh.Wrap(err, "open template", meh.Details{"template": cfg.Template})
	}
	// Set up logging.
	logger, closeLogger, err := newLogger(options)
	if err != nil {
		return meh.Wrap(err, "new logger", nil)
	}
	defer closeLogger()
	if options.ConfigReport != nil {
		options.ConfigReport.Log(logger, "config")
	}
	// Archive.
	target := archiver.ParseTarget(cfg.SavePath)
	logger.Debug("archive", zap.String("template", template.Path()), zap.Stringer("target", target))
	if explicit, ok := target.(archiver.ExplicitDestination); ok {
		err = assureParentDir(logger, options.FS, explicit.Path)
		if err != nil {
			return meh.Wrap(err, "assure parent directory", meh.Details{"save_path": explicit.Path})
		}
	}
	runArchiver := archiver.New(logger.Named("archiver"), archiver.Options{
		FS:          options.FS,
		OnCollision: cfg.OnCollision,
		Confirmer:   options.Confirmer,
	})
	result, err := runArchiver.Archive(ctx, template, target)
	if err != nil {
		return meh.Wrap(err, "archive", meh.Details{
			"template": template.Path(),
			"target":   target.String(),
		})
	}
	if result.Anomalous() {
		logger.Error(fmt.Sprintf("copy returned path %q for save path %q", result.Written, result.Intended),
			zap.String("written", result.Written),
			zap.String("intended", result.Intended))
		return nil
	}
	logger.Info(fmt.Sprintf("created copy %q", result.Written),
		zap.String("size", logging.FormatByteCountDecimal(result.Bytes)))
	return nil
}

// newLogger creates the log directory and the logger for commandArchive. The
// returned function must be called when done.
func newLogger(options commandOptions) (*zap.Logger, func(), error) {
	cfg := options.Config
	err := options.FS.MkdirAll(cfg.LogDir, dirPerm)
	if err != nil {
		return nil, nil, meh.NewBadInputErrFromErr(err, "create log directory", meh.Details{"dir": cfg.LogDir})
	}
	logLevel := zap.InfoLevel
	if cfg.Debug {
		logLevel = zap.DebugLevel
	}
	var consoleCore zapcore.Core
	if options.Logger != nil {
		consoleCore = options.Logger.Core()
	}
	logger, logFile, err := logging.NewLogger(logging.Options{
		Level:      logLevel,
		LogDir:     cfg.LogDir,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogBackups,
		Console:    consoleCore,
	})
	if err != nil {
		return nil, nil, meh.Wrap(err, "new logger", meh.Details{"log_level": logLevel})
	}
	runID, err := uuid.NewV4()
	if err != nil {
		_ = logFile.Close()
		return nil, nil, meh.NewInternalErrFromErr(err, "new run id", nil)
	}
	logger = logger.With(zap.String("run_id", runID.String()))
	logger.Debug(fmt.Sprintf("logging level set to %s", logLevel.String()))
	return logger, func() {
		_ = logger.Sync()
		_ = logFile.Close()
	}, nil
}

// assureParentDir creates the parent directory of the given path if it does not
// exist.
func assureParentDir(logger *zap.Logger, filesystem afero.Fs, path string) error {
	dir := filepath.Dir(path)
	_, err := filesystem.Stat(dir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return meh.NewInternalErrFromErr(err, "stat directory", meh.Details{"dir": dir})
	}
	logger.Info("path to save location does not exist, creating directories", zap.String("dir", dir))
	err = filesystem.MkdirAll(dir, dirPerm)
	if err != nil {
		return meh.NewBadInputErrFromErr(err, "create directories", meh.Details{"dir": dir})
	}
	return nil
}
