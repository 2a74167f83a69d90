// Package workspace owns the ephemeral per-submission directory.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	appErr "javaexec/pkg/errors"
	"javaexec/pkg/utils/logger"

	"go.uber.org/zap"
)

const dirPrefix = "submission-"

// Workspace is an exclusively owned directory holding one submission's
// source, class files and nothing else. It must be released exactly once.
type Workspace struct {
	path    string
	release sync.Once
}

// Acquire creates a unique directory under root. An empty root uses os.TempDir.
func Acquire(root, submissionID string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create work root failed: %v", err)
	}
	pattern := dirPrefix
	if submissionID != "" {
		pattern += submissionID + "-"
	}
	path, err := os.MkdirTemp(root, pattern)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create workspace failed: %v", err)
	}
	return &Workspace{path: path}, nil
}

// Path returns the absolute workspace directory.
func (w *Workspace) Path() string {
	return w.path
}

// Join resolves name inside the workspace.
func (w *Workspace) Join(name string) string {
	return filepath.Join(w.path, name)
}

// WriteFile writes content to name inside the workspace.
func (w *Workspace) WriteFile(name string, content []byte) error {
	if err := os.WriteFile(w.Join(name), content, 0644); err != nil {
		return appErr.Wrapf(err, appErr.WorkspaceError, "write source failed: %v", err)
	}
	return nil
}

// Release removes the directory tree. Safe to call more than once and on a
// nil receiver; removal failures are logged, never returned.
func (w *Workspace) Release(ctx context.Context) {
	if w == nil {
		return
	}
	w.release.Do(func() {
		if err := os.RemoveAll(w.path); err != nil {
			logger.Warn(ctx, "remove workspace failed", zap.String("path", w.path), zap.Error(err))
			return
		}
		logger.Debug(ctx, "workspace removed", zap.String("path", w.path))
	})
}
