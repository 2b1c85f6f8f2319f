// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// BackupSuffix is appended to a file name to form its backup
const BackupSuffix = ".retarget.bak"

// 📊 FileStatus represents the outcome for a single file
type FileStatus int

const (
	StatusUnknown     FileStatus = iota
	StatusUnchanged              // No rule changed the content
	StatusModified               // Content was rewritten
	StatusWouldModify            // Dry run found changes
	StatusUnreadable             // No configured encoding could decode it
	StatusFailed                 // Read or write error
	StatusRestored               // Backup copied back over the file
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusModified:
		return "modified"
	case StatusWouldModify:
		return "would-modify"
	case StatusUnreadable:
		return "unreadable"
	case StatusFailed:
		return "failed"
	case StatusRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in reports
func (s FileStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText
func (s *FileStatus) UnmarshalText(text []byte) error {
	for candidate := StatusUnknown; candidate <= StatusRestored; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return errors.Errorf("unknown file status %q", string(text))
}

// 📄 FileInfo contains metadata about a processed file
type FileInfo struct {
	Path         string      `json:"path" yaml:"path"`                             // Path as walked
	Root         string      `json:"root" yaml:"root"`                             // Scan root it was found under
	Status       FileStatus  `json:"status" yaml:"status"`                         // Outcome
	Encoding     string      `json:"encoding,omitempty" yaml:"encoding,omitempty"` // Encoding that decoded it
	Replacements int         `json:"replacements" yaml:"replacements"`             // Replacements made or planned
	Markers      int         `json:"markers,omitempty" yaml:"markers,omitempty"`   // Marker hits, never applied
	Size         int64       `json:"size" yaml:"size"`                             // Size in bytes as read
	Mode         os.FileMode `json:"-" yaml:"-"`                                   // File permissions
	Checksum     string      `json:"checksum,omitempty" yaml:"checksum,omitempty"` // SHA-256 of the bytes written
	Error        error       `json:"-" yaml:"-"`                                   // Any error associated with this file
	ErrorMessage string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// 💾 FileManager handles all file system operations
type FileManager interface {
	// Core operations
	WriteFile(ctx context.Context, path string, content []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	FileExists(ctx context.Context, path string) (bool, error)

	// Atomic operations
	WriteFileAtomic(ctx context.Context, path string, content []byte) error

	// Backup operations
	BackupFile(ctx context.Context, path string) error
	RestoreFile(ctx context.Context, path string) error
}

// 📈 StatusReporter tracks file status and reports progress
type StatusReporter interface {
	// Status tracking
	TrackFile(ctx context.Context, path string, info FileInfo)
	GetFileInfo(ctx context.Context, path string) (FileInfo, error)
	ListFiles(ctx context.Context) ([]FileInfo, error)
	Summary(ctx context.Context) Summary
	WriteReport(ctx context.Context, path string, r Report) error

	// Progress reporting
	StartOperation(ctx context.Context, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// 🔧 Manager implements both FileManager and StatusReporter
type Manager struct {
	baseDir   string          // Base directory for relative paths
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	// Status tracking, in first-seen order
	mu    sync.RWMutex
	files map[string]FileInfo
	order []string

	// Progress tracking
	total     int
	processed int
}

var (
	_ FileManager    = (*Manager)(nil)
	_ StatusReporter = (*Manager)(nil)
)

// 🏭 New creates a new status manager. Absolute paths are used as is,
// relative ones are resolved against baseDir.
func New(baseDir string, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// 🔒 getAbsPath returns the path operations should touch
func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 Checksum generates a SHA-256 hash of the content
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// FileManager interface implementation

func (m *Manager) WriteFile(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	// Write file atomically
	return m.WriteFileAtomic(ctx, path, content)
}

// WriteFileAtomic writes through a temp file in the same directory and
// renames it into place. An existing file keeps its permissions, and a
// symlink is written through to its target.
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	mode := os.FileMode(0644)
	if fi, err := os.Stat(absPath); err == nil {
		mode = fi.Mode().Perm()
		resolved, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			return errors.Errorf("resolving symlinks: %w", err)
		}
		absPath = resolved
	} else if !os.IsNotExist(err) {
		return errors.Errorf("checking file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	// Clean up the temp file on any failure below
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return errors.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, absPath); err != nil {
		return errors.Errorf("renaming temp file: %w", err)
	}
	ok = true

	m.logger.Trace().Str("path", absPath).Int("bytes", len(content)).Msg("wrote file")
	return nil
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

func (m *Manager) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(m.getAbsPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// BackupFile copies path to path+BackupSuffix, replacing an older backup
func (m *Manager) BackupFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)
	backupPath := absPath + BackupSuffix

	// Only backup if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Errorf("checking file existence: %w", err)
	}

	// Copy file to backup
	if err := copyFile(absPath, backupPath); err != nil {
		return errors.Errorf("creating backup: %w", err)
	}

	return nil
}

// RestoreFile copies path+BackupSuffix back over path and removes the backup
func (m *Manager) RestoreFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)
	backupPath := absPath + BackupSuffix

	// Check if backup exists
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return errors.Errorf("backup file does not exist: %s", backupPath)
	} else if err != nil {
		return errors.Errorf("checking backup existence: %w", err)
	}

	// Restore from backup
	if err := copyFile(backupPath, absPath); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	// Remove backup
	if err := os.Remove(backupPath); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	return nil
}

// StatusReporter interface implementation

func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info.Path == "" {
		info.Path = path
	}
	if info.Error != nil {
		info.ErrorMessage = info.Error.Error()
	}
	if _, seen := m.files[path]; !seen {
		m.order = append(m.order, path)
	}
	m.files[path] = info

	msg := m.formatter.FormatFileOperation(info)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}
	m.logger.Debug().Str("path", path).Stringer("status", info.Status).Msg(msg)
}

func (m *Manager) GetFileInfo(ctx context.Context, path string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[path]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", path)
	}
	return info, nil
}

// ListFiles returns tracked files in the order they were first tracked
func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.order))
	for _, path := range m.order {
		files = append(files, m.files[path])
	}
	return files, nil
}

func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = total
	m.processed = 0
	msg := m.formatter.FormatProgress(0, total)
	m.logger.Debug().Int("total", total).Msg(msg)
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	msg := m.formatter.FormatProgress(processed, m.total)
	m.logger.Trace().
		Int("processed", processed).
		Int("total", m.total).
		Msg(msg)
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := m.formatter.FormatProgress(m.processed, m.total)
	m.logger.Debug().
		Int("processed", m.processed).
		Int("total", m.total).
		Msg(msg)
}

// Helper functions

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	fi, err := source.Stat()
	if err != nil {
		return errors.Errorf("reading source file mode: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return errors.Errorf("copying file: %w", err)
	}

	if err := destination.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}
	return nil
}
