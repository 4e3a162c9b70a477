// Package syncq is the CLI's offline command queue. Mutating commands that
// cannot reach the desk server are appended here and replayed later through
// /v1/sync/replay.
package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type Command struct {
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	Body           json.RawMessage `json:"body,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type Queue struct {
	path string
}

func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".desk", "queue.json"), nil
}

// Open returns the queue stored at path, or at DefaultPath when path is empty.
func Open(path string) (*Queue, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &Queue{path: path}, nil
}

func (q *Queue) Path() string { return q.path }

func (q *Queue) Load() ([]Command, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queue) Save(commands []Command) error {
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, raw, 0o600)
}

func (q *Queue) Push(cmd Command) error {
	commands, err := q.Load()
	if err != nil {
		return err
	}
	commands = append(commands, cmd)
	return q.Save(commands)
}

// Clear empties the queue.
func (q *Queue) Clear() error {
	err := os.Remove(q.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
