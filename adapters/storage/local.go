// Package storage provides StorageAdapter implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
)

// maxDirAttempts bounds the suffix search when a batch directory name is taken.
const maxDirAttempts = 1000

// Local stores batch output on the local filesystem.
type Local struct {
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// NewLocal creates a Local storage adapter writing files with perm.
func NewLocal(perm os.FileMode) *Local {
	if perm == 0 {
		perm = 0o644
	}
	return &Local{filePerm: perm, dirPerm: 0o755}
}

// CreateBatchDir creates output_YYYYMMDD_HHMMSS under root, creating root as
// needed. When the name is taken (two batches in the same second) it appends
// _2, _3, ... Each candidate is claimed with a single Mkdir so concurrent
// batches never share a directory.
func (l *Local) CreateBatchDir(ctx context.Context, root string, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryIO, "local.mkdir", err)
	}
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, l.dirPerm); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryIO, "local.mkdir.root", err)
	}

	name := core.BatchDirName(now)
	for i := 1; i <= maxDirAttempts; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d", name, i)
		}
		dir := filepath.Join(root, candidate)
		err := os.Mkdir(dir, l.dirPerm)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", apperrors.Wrap(apperrors.CategoryIO, "local.mkdir", err)
		}
	}
	return "", apperrors.New(apperrors.CategoryIO, "local.mkdir",
		fmt.Errorf("no free directory name for %s after %d attempts", name, maxDirAttempts))
}

// Put writes r to key.Path inside the directory key.Bucket and returns the
// written path.
func (l *Local) Put(ctx context.Context, key core.StorageKey, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryIO, "local.put", err)
	}

	path := filepath.Join(key.Bucket, filepath.Base(filepath.Clean(key.Path)))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, l.filePerm)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CategoryIO, "local.put.open", err)
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		return "", apperrors.Wrap(apperrors.CategoryIO, "local.put.copy", err)
	}
	if err = f.Close(); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryIO, "local.put.close", err)
	}
	return path, nil
}

var _ core.StorageAdapter = (*Local)(nil)
