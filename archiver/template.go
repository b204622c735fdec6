package archiver

import (
	"errors"
	"io/fs"

	"github.com/lefinal/meh"
	"github.com/spf13/afero"
)

const (
	// ErrMissingInput is the error code for a template file that does not exist
	// or is no regular file.
	ErrMissingInput meh.Code = "missing-input"
	// ErrCollision is the error code for an archive destination that already
	// exists while the CollisionPolicy forbids overwriting it.
	ErrCollision meh.Code = "collision"
)

// TemplateFile references an existing regular file that serves as archive
// source. Create one using OpenTemplate.
type TemplateFile struct {
	path string
}

// OpenTemplate checks that the given path references an existing regular file
// and returns the TemplateFile for it. Otherwise, an error with code
// ErrMissingInput is returned. Nothing is written.
func OpenTemplate(filesystem afero.Fs, path string) (TemplateFile, error) {
	err := assureRegularFile(filesystem, path)
	if err != nil {
		return TemplateFile{}, meh.Wrap(err, "assure regular file", meh.Details{"template": path})
	}
	return TemplateFile{path: path}, nil
}

// Path of the template file.
func (template TemplateFile) Path() string {
	return template.path
}

func assureRegularFile(filesystem afero.Fs, path string) error {
	info, err := filesystem.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return meh.NewErrFromErr(err, ErrMissingInput, "template file does not exist", meh.Details{"path": path})
		}
		return meh.NewInternalErrFromErr(err, "stat template file", meh.Details{"path": path})
	}
	if !info.Mode().IsRegular() {
		return meh.NewErr(ErrMissingInput, "template is no regular file", meh.Details{
			"path": path,
			"mode": info.Mode().String(),
		})
	}
	return nil
}
