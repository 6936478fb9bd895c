// Package logging owns the process logger. It starts in a stderr-only
// bootstrap mode and is upgraded once configuration is known.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions controls rotation of the JSON log file.
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func DefaultFileOptions() FileOptions {
	return FileOptions{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
}

// Manager hands out a logger that stays valid across Upgrade calls.
type Manager struct {
	handler *swappableHandler
	logger  *slog.Logger
	level   *slog.LevelVar
	stderr  io.Writer

	mu   sync.Mutex
	file *lumberjack.Logger
}

type ManagerOption func(*Manager)

// WithStderr redirects the console handler, mostly for tests.
func WithStderr(w io.Writer) ManagerOption {
	return func(m *Manager) {
		m.stderr = w
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		level:  new(slog.LevelVar),
		stderr: os.Stderr,
	}
	m.level.Set(DefaultLevel)
	for _, opt := range opts {
		opt(m)
	}

	m.handler = newSwappableHandler(slog.NewTextHandler(m.stderr, &slog.HandlerOptions{Level: m.level}))
	m.logger = slog.New(m.handler)
	return m
}

func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

func (m *Manager) Level() slog.Level {
	return m.level.Level()
}

// Upgrade sets the level and, when path is not empty, adds a rotating
// JSON file next to the stderr text output.
func (m *Manager) Upgrade(path string, level slog.Level, fo FileOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level.Set(level)
	opts := &slog.HandlerOptions{Level: m.level}
	console := slog.NewTextHandler(m.stderr, opts)

	if path == "" {
		_ = m.closeFile()
		m.handler.swap(console)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %q: %w", dir, err)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fo.MaxSizeMB,
		MaxBackups: fo.MaxBackups,
		MaxAge:     fo.MaxAgeDays,
	}
	// lumberjack opens on first write.
	if _, err := file.Write(nil); err != nil {
		return fmt.Errorf("open log file %q: %w", path, err)
	}

	_ = m.closeFile()
	m.file = file
	m.handler.swap(slogmulti.Fanout(console, slog.NewJSONHandler(file, opts)))
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeFile()
}

func (m *Manager) closeFile() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}
