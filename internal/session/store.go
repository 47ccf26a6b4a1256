// Package session persists conversation history as JSONL under the
// nanocoder home directory, one file per session, so a later run can pick
// up where the previous one stopped.
package session

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store manages session persistence under ~/.nanocoder.
type Store struct {
	// BaseDir is the root for all persisted data.
	BaseDir string
}

// Turn is one persisted conversation entry.
type Turn struct {
	// Role is user or assistant.
	Role string `json:"role"`
	// Content is the message text; for assistant turns this is the raw
	// reply, tags included.
	Content string `json:"content"`
	// Interrupted marks an assistant turn cut short by the user.
	Interrupted bool `json:"interrupted,omitempty"`
	// Time records when the turn finished.
	Time time.Time `json:"time"`
}

// NewStore constructs a Store using the default base directory.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}
	return &Store{BaseDir: filepath.Join(home, ".nanocoder")}, nil
}

// ProjectHash returns a stable hash for a workspace path, used to track
// the most recent session per project.
func ProjectHash(path string) string {
	clean := filepath.Clean(path)
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:8])
}

// SessionPath returns the JSONL path for a session.
func (s *Store) SessionPath(sessionID string) string {
	return filepath.Join(s.BaseDir, "sessions", sessionID+".jsonl")
}

// AppendTurn writes one turn to the session log.
func (s *Store) AppendTurn(sessionID string, turn Turn) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	path := s.SessionPath(sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write turn: %w", err)
	}
	return nil
}

// LoadTurns reads every turn for a session. Undecodable lines are skipped
// so a truncated log from a crash still loads.
func (s *Store) LoadTurns(sessionID string) ([]Turn, error) {
	file, err := os.Open(s.SessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	var turns []Turn
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var turn Turn
		if err := json.Unmarshal(scanner.Bytes(), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session file: %w", err)
	}
	return turns, nil
}

// SaveLatest records the most recent session id for a project hash.
func (s *Store) SaveLatest(projectHash string, sessionID string) error {
	path := filepath.Join(s.BaseDir, "projects", projectHash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(sessionID), 0o600); err != nil {
		return fmt.Errorf("save latest session: %w", err)
	}
	return nil
}

// Latest returns the most recent session id for a project hash, or "".
func (s *Store) Latest(projectHash string) string {
	data, err := os.ReadFile(filepath.Join(s.BaseDir, "projects", projectHash))
	if err != nil {
		return ""
	}
	return string(data)
}
