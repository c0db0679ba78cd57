// Package trace records render calls to disk for later inspection: the IR
// input, the rendered result, and the chat messages of every call land in a
// numbered file series inside a per-run directory. Media payloads are
// deduplicated into a content-addressed store keyed by BLAKE3.
package trace

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Tracer writes the trace file series for one run.
type Tracer struct {
	mu  sync.Mutex
	dir string
	seq int
}

// New creates a tracer whose run directory is a fresh timestamped child of
// base. Base is created if missing.
func New(base string) (*Tracer, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace base: %w", err)
	}
	name := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	dir := filepath.Join(base, name)
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace run dir: %w", err)
	}
	return &Tracer{dir: dir}, nil
}

// Open reuses an existing directory as the run directory, continuing its
// numbering after the highest prefix already present.
func Open(dir string) (*Tracer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace dir: %w", err)
	}
	seq := 0
	for _, e := range entries {
		var n int
		if _, err := fmt.Sscanf(e.Name(), "%04d.", &n); err == nil && n > seq {
			seq = n
		}
	}
	return &Tracer{dir: dir, seq: seq}, nil
}

// Dir returns the run directory.
func (t *Tracer) Dir() string {
	return t.dir
}

// RecordCall writes one render call as the next numbered triple: the IR
// source, the raw result, and the chat messages. It returns the numeric
// prefix assigned to the call.
func (t *Tracer) RecordCall(source string, result interface{}, messages interface{}) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	prefix := fmt.Sprintf("%04d", t.seq)

	if err := os.WriteFile(filepath.Join(t.dir, prefix+".pml"), []byte(source), 0644); err != nil {
		return "", fmt.Errorf("failed to write trace source: %w", err)
	}
	if err := t.writeJSON(prefix+".result.json", result); err != nil {
		return "", err
	}
	if messages != nil {
		if err := t.writeJSON(prefix+".messages.json", messages); err != nil {
			return "", err
		}
	}
	return prefix, nil
}

// Artifact attaches an extra file to the most recent call, named by the
// call's prefix plus the given suffix.
func (t *Tracer) Artifact(suffix string, data []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seq == 0 {
		return "", fmt.Errorf("no trace call to attach artifact to")
	}
	name := fmt.Sprintf("%04d.%s", t.seq, suffix)
	path := filepath.Join(t.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write trace artifact: %w", err)
	}
	return path, nil
}

// StoreMedia stores a media payload in the run's content-addressed store and
// returns its BLAKE3 hash. Storing the same payload twice is a no-op.
func (t *Tracer) StoreMedia(data []byte) (string, error) {
	sum := blake3.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	dir := filepath.Join(t.dir, "media", hash[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}
	path := filepath.Join(dir, hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media blob: %w", err)
	}
	return hash, nil
}

func (t *Tracer) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(t.dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
