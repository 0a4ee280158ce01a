package stagehand

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type loadTask struct {
	key  string
	kind string
	run  func() error
}

// LoadManager is a scene's queue of pending asset loads. Scenes fill it in
// Preload; Scene.Run steps it until nothing is pending. Keys that are
// already loaded are skipped, so restarting a scene reuses its assets.
type LoadManager struct {
	// PerStep caps how many tasks one Run executes. Zero or less runs all.
	PerStep int

	loader *Loader
	tasks  []loadTask
	cursor int
	err    error
	log    *zap.Logger
}

// NewLoadManager creates an empty queue feeding loader.
func NewLoadManager(loader *Loader, log *zap.Logger) *LoadManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoadManager{loader: loader, log: log.Named("load")}
}

func (m *LoadManager) push(key, kind string, run func() error) {
	m.tasks = append(m.tasks, loadTask{key: key, kind: kind, run: run})
}

// Image queues Loader.Image.
func (m *LoadManager) Image(key, name string) {
	m.push(key, "image", func() error {
		_, err := m.loader.Image(key, name, false)
		return err
	})
}

// Spritesheet queues Loader.Spritesheet.
func (m *LoadManager) Spritesheet(key, name string, fw, fh int) {
	m.push(key, "spritesheet", func() error {
		_, err := m.loader.Spritesheet(key, name, fw, fh, false)
		return err
	})
}

// JSON queues Loader.JSON.
func (m *LoadManager) JSON(key, name string) {
	m.push(key, "json", func() error {
		_, err := m.loader.JSON(key, name, false)
		return err
	})
}

// Text queues Loader.Text.
func (m *LoadManager) Text(key, name string) {
	m.push(key, "text", func() error {
		_, err := m.loader.Text(key, name, false)
		return err
	})
}

// LineByLine queues Loader.LineByLine.
func (m *LoadManager) LineByLine(key, name string) {
	m.push(key, "lines", func() error {
		_, err := m.loader.LineByLine(key, name, false)
		return err
	})
}

// Font queues Loader.Font.
func (m *LoadManager) Font(key, name string, size float64) {
	m.push(key, "font", func() error {
		_, err := m.loader.Font(key, name, size, false)
		return err
	})
}

// Sound queues Loader.Sound.
func (m *LoadManager) Sound(key, name string) {
	m.push(key, "sound", func() error {
		_, err := m.loader.Sound(key, name, false)
		return err
	})
}

// Music queues Loader.Music.
func (m *LoadManager) Music(key, name string) {
	m.push(key, "music", func() error {
		_, err := m.loader.Music(key, name, false)
		return err
	})
}

// Func queues an arbitrary load step under key.
func (m *LoadManager) Func(key string, fn func() error) {
	m.push(key, "func", fn)
}

// Run executes up to PerStep pending tasks. Failures do not stop loading;
// they are joined, logged once per step, and kept for Err.
func (m *LoadManager) Run() {
	n := len(m.tasks) - m.cursor
	if m.PerStep > 0 {
		n = min(n, m.PerStep)
	}
	var stepErr error
	for range n {
		t := m.tasks[m.cursor]
		m.cursor++
		if m.loader != nil && t.kind != "func" && m.loader.Has(t.key) {
			m.log.Debug("asset already loaded", zap.String("key", t.key))
			continue
		}
		if err := t.run(); err != nil && !errors.Is(err, ErrAssetExists) {
			stepErr = multierr.Append(stepErr, err)
		}
	}
	if stepErr != nil {
		m.log.Error("load step failed",
			zap.Int("failures", len(multierr.Errors(stepErr))), zap.Error(stepErr))
		m.err = multierr.Append(m.err, stepErr)
	}
}

// StillLoading reports whether tasks remain.
func (m *LoadManager) StillLoading() bool {
	return m.cursor < len(m.tasks)
}

// Len returns the number of tasks queued since the last Reset.
func (m *LoadManager) Len() int { return len(m.tasks) }

// Progress returns the completed fraction in [0, 1]; an empty queue is done.
func (m *LoadManager) Progress() float64 {
	if len(m.tasks) == 0 {
		return 1
	}
	return float64(m.cursor) / float64(len(m.tasks))
}

// Err returns every failure since the last Reset, or nil.
func (m *LoadManager) Err() error { return m.err }

// Reset drops all tasks and errors.
func (m *LoadManager) Reset() {
	clear(m.tasks)
	m.tasks = m.tasks[:0]
	m.cursor = 0
	m.err = nil
}
