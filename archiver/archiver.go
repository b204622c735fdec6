// Package archiver copies template files into an archive location. The copy is
// either placed at an explicit destination or auto-named by date and time in a
// per-day run directory.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/lefinal/meh"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const runDirPerm = 0750

// CollisionPolicy decides what happens if the archive destination file already
// exists.
type CollisionPolicy string

const (
	// CollisionFail aborts with an ErrCollision error.
	CollisionFail CollisionPolicy = "fail"
	// CollisionOverwrite replaces the existing file.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionAsk requests confirmation via the Confirmer and overwrites if
	// confirmed. Otherwise, it behaves like CollisionFail.
	CollisionAsk CollisionPolicy = "ask"
)

// CollisionPolicies lists all valid values for CollisionPolicy.
var CollisionPolicies = []CollisionPolicy{CollisionFail, CollisionOverwrite, CollisionAsk}

// Confirmer requests confirmation from the user.
type Confirmer interface {
	RequestConfirm(ctx context.Context, prompt string, defaultValue bool) (bool, error)
}

// Options for creating an Archiver with New.
type Options struct {
	// FS is the filesystem to operate on. If not set, the OS filesystem is used.
	FS afero.Fs
	// WorkDir is the directory in which run directories are created. If empty,
	// they are created relative to the process working directory.
	WorkDir string
	// Clock returns the current time. If not set, time.Now is used.
	Clock func() time.Time
	// OnCollision is the CollisionPolicy to apply. Defaults to CollisionFail.
	OnCollision CollisionPolicy
	// Confirmer is required for CollisionAsk.
	Confirmer Confirmer
}

// Result of Archiver.Archive.
type Result struct {
	// Intended is the destination path the copy was supposed to be written to.
	Intended string
	// Written is the path the copy was actually written to.
	Written string
	// Bytes is the number of copied bytes.
	Bytes int64
}

// Anomalous reports whether the copy was written to a different path than
// intended.
func (result Result) Anomalous() bool {
	return result.Intended != result.Written
}

// Archiver copies a TemplateFile to a Target. Create one with New.
type Archiver struct {
	logger      *zap.Logger
	fs          afero.Fs
	workDir     string
	clock       func() time.Time
	onCollision CollisionPolicy
	confirmer   Confirmer
}

// New creates a new Archiver that logs to the given logger.
func New(logger *zap.Logger, options Options) *Archiver {
	archiver := &Archiver{
		logger:      logger,
		fs:          options.FS,
		workDir:     options.WorkDir,
		clock:       options.Clock,
		onCollision: options.OnCollision,
		confirmer:   options.Confirmer,
	}
	if archiver.fs == nil {
		archiver.fs = afero.NewOsFs()
	}
	if archiver.clock == nil {
		archiver.clock = time.Now
	}
	if archiver.onCollision == "" {
		archiver.onCollision = CollisionFail
	}
	return archiver
}

// Archive copies the given template to the target and returns the Result. The
// caller should check Result.Anomalous as a copy to a different path than
// intended is not reported as error.
//
// If the template does not exist (anymore), an error with code ErrMissingInput
// is returned before anything is written.
func (archiver *Archiver) Archive(ctx context.Context, template TemplateFile, target Target) (Result, error) {
	err := assureRegularFile(archiver.fs, template.Path())
	if err != nil {
		return Result{}, meh.Wrap(err, "assure template", nil)
	}
	switch target := target.(type) {
	case ExplicitDestination:
		if target.Path == "" {
			return Result{}, meh.NewBadInputErr("explicit destination without path", nil)
		}
		return archiver.copy(ctx, template, target.Path)
	case AutoNamed:
		return archiver.archiveAutoNamed(ctx, template)
	default:
		return Result{}, meh.NewInternalErr(fmt.Sprintf("unsupported target: %T", target), nil)
	}
}

func (archiver *Archiver) archiveAutoNamed(ctx context.Context, template TemplateFile) (Result, error) {
	stamp := NewStamp(archiver.clock())
	runDir := filepath.Join(archiver.workDir, RunDirName(stamp))
	exists, err := afero.DirExists(archiver.fs, runDir)
	if err != nil {
		return Result{}, meh.NewInternalErrFromErr(err, "check run directory", meh.Details{"dir": runDir})
	}
	if !exists {
		archiver.logger.Debug("create run directory", zap.String("dir", runDir))
		err = archiver.fs.MkdirAll(runDir, runDirPerm)
		if err != nil {
			return Result{}, meh.NewInternalErrFromErr(err, "create run directory", meh.Details{"dir": runDir})
		}
	}
	dst := filepath.Join(runDir, DeriveName(template.Path(), stamp))
	archiver.logger.Debug("derived archive name",
		zap.String("template", template.Path()),
		zap.String("stamp", stamp.String()),
		zap.String("dst", dst))
	return archiver.copy(ctx, template, dst)
}

func (archiver *Archiver) copy(ctx context.Context, template TemplateFile, dst string) (Result, error) {
	overwrite, err := archiver.allowOverwrite(ctx, template, dst)
	if err != nil {
		return Result{}, meh.Wrap(err, "check collision", meh.Details{"dst": dst})
	}
	written, n, err := CopyFile(archiver.fs, template.Path(), dst, overwrite)
	if err != nil {
		return Result{}, meh.Wrap(err, "copy file", meh.Details{
			"template": template.Path(),
			"dst":      dst,
		})
	}
	return Result{
		Intended: dst,
		Written:  written,
		Bytes:    n,
	}, nil
}

// allowOverwrite applies the CollisionPolicy for the path CopyFile would write
// to. If the policy refuses to overwrite an existing file, an ErrCollision
// error is returned. A destination that is the template itself is rejected
// before the policy is consulted.
func (archiver *Archiver) allowOverwrite(ctx context.Context, template TemplateFile, dst string) (bool, error) {
	resolved, err := ResolveCopyDestination(archiver.fs, template.Path(), dst)
	if err != nil {
		return false, meh.Wrap(err, "resolve copy destination", nil)
	}
	_, err = archiver.fs.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, meh.NewInternalErrFromErr(err, "stat destination", meh.Details{"dst": resolved})
	}
	templateInfo, err := archiver.fs.Stat(template.Path())
	if err != nil {
		return false, meh.NewInternalErrFromErr(err, "stat template", meh.Details{"template": template.Path()})
	}
	err = assureNotSameFile(archiver.fs, template.Path(), templateInfo, resolved)
	if err != nil {
		return false, meh.Wrap(err, "assure destination is not template", nil)
	}
	archiver.logger.Debug("destination already exists",
		zap.String("dst", resolved),
		zap.String("on_collision", string(archiver.onCollision)))
	switch archiver.onCollision {
	case CollisionOverwrite:
		return true, nil
	case CollisionAsk:
		if archiver.confirmer == nil {
			return false, meh.NewInternalErr("missing confirmer for collision policy", meh.Details{"on_collision": archiver.onCollision})
		}
		confirmed, err := archiver.confirmer.RequestConfirm(ctx, fmt.Sprintf("%s already exists. Overwrite", resolved), false)
		if err != nil {
			return false, meh.Wrap(err, "request overwrite confirmation", nil)
		}
		if confirmed {
			return true, nil
		}
	case CollisionFail:
	default:
		return false, meh.NewBadInputErr(fmt.Sprintf("unsupported collision policy: %s", archiver.onCollision), nil)
	}
	return false, meh.NewErr(ErrCollision, "destination already exists", meh.Details{"dst": resolved})
}
