package archiver

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lefinal/meh"
	"github.com/spf13/afero"
)

// ResolveCopyDestination returns the path CopyFile writes to when copying src
// to dst. This is dst itself unless dst is an existing directory. Then the
// base name of src inside dst is used.
func ResolveCopyDestination(filesystem afero.Fs, src string, dst string) (string, error) {
	isDir, err := afero.IsDir(filesystem, dst)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dst, nil
		}
		return "", meh.NewInternalErrFromErr(err, "check if destination is directory", meh.Details{"dst": dst})
	}
	if isDir {
		return filepath.Join(dst, filepath.Base(src)), nil
	}
	return dst, nil
}

// assureNotSameFile returns an error if dst exists and is the same file as
// src. Opening dst for writing would truncate src before it is read.
func assureNotSameFile(filesystem afero.Fs, src string, srcInfo fs.FileInfo, dst string) error {
	dstInfo, err := filesystem.Stat(dst)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return meh.NewInternalErrFromErr(err, "stat destination", meh.Details{"dst": dst})
	}
	if !sameFile(src, srcInfo, dst, dstInfo) {
		return nil
	}
	return meh.NewBadInputErr("source and destination are the same file", meh.Details{
		"src": src,
		"dst": dst,
	})
}

// sameFile reports whether both paths reference the same file. os.SameFile
// only detects this for infos of the OS filesystem, so cleaned absolute paths
// are compared as well.
func sameFile(src string, srcInfo fs.FileInfo, dst string, dstInfo fs.FileInfo) bool {
	if os.SameFile(srcInfo, dstInfo) {
		return true
	}
	srcAbs, srcErr := filepath.Abs(src)
	dstAbs, dstErr := filepath.Abs(dst)
	return srcErr == nil && dstErr == nil && srcAbs == dstAbs
}

// CopyFile copies the content and permission bits of the regular file src to
// dst. It returns the path that was written to, which differs from dst if dst
// is an existing directory (see ResolveCopyDestination), as well as the number
// of copied bytes.
//
// If overwrite is false and the destination file already exists, an error with
// code ErrCollision is returned and the file is left untouched. If the
// destination is src itself, a bad input error is returned regardless of
// overwrite.
func CopyFile(filesystem afero.Fs, src string, dst string, overwrite bool) (string, int64, error) {
	srcInfo, err := filesystem.Stat(src)
	if err != nil {
		return "", 0, meh.NewInternalErrFromErr(err, "stat source", meh.Details{"src": src})
	}
	if !srcInfo.Mode().IsRegular() {
		return "", 0, meh.NewErr(ErrMissingInput, "source is no regular file", meh.Details{"src": src})
	}
	dst, err = ResolveCopyDestination(filesystem, src, dst)
	if err != nil {
		return "", 0, meh.Wrap(err, "resolve copy destination", nil)
	}
	err = assureNotSameFile(filesystem, src, srcInfo, dst)
	if err != nil {
		return "", 0, meh.Wrap(err, "assure destination is not source", nil)
	}
	srcFile, err := filesystem.Open(src)
	if err != nil {
		return "", 0, meh.NewInternalErrFromErr(err, "open source", meh.Details{"src": src})
	}
	defer func() { _ = srcFile.Close() }()
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flag |= os.O_EXCL
	}
	perm := srcInfo.Mode().Perm()
	dstFile, err := filesystem.OpenFile(dst, flag, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", 0, meh.NewErrFromErr(err, ErrCollision, "destination already exists", meh.Details{"dst": dst})
		}
		return "", 0, meh.NewInternalErrFromErr(err, "open destination", meh.Details{"dst": dst})
	}
	defer func() { _ = dstFile.Close() }()
	written, err := io.Copy(dstFile, srcFile)
	if err != nil {
		return "", 0, meh.NewInternalErrFromErr(err, "copy", meh.Details{
			"src":     src,
			"dst":     dst,
			"written": written,
		})
	}
	err = dstFile.Close()
	if err != nil {
		return "", 0, meh.NewInternalErrFromErr(err, "close destination", meh.Details{"dst": dst})
	}
	// Permission bits of an overwritten file are kept by OpenFile.
	err = filesystem.Chmod(dst, perm)
	if err != nil {
		return "", 0, meh.NewInternalErrFromErr(err, "copy permission bits", meh.Details{
			"dst":  dst,
			"perm": perm.String(),
		})
	}
	return dst, written, nil
}
