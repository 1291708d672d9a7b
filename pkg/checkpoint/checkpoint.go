package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"twitterkeywordsearch/pkg/logger"
)

// Version is the current checkpoint file format.
const Version = 1

// Checkpoint records how far a search stream has been ingested. MaxID is
// the pager cursor to resume from: the next request asks for results with
// ids at or below it.
type Checkpoint struct {
	Query          string    `json:"query"`
	Sort           string    `json:"sort"`
	Collection     string    `json:"collection"`
	MaxID          int64     `json:"max_id"`
	PagesProcessed int       `json:"pages_processed"`
	TotalInserted  int       `json:"total_inserted"`
	RunID          string    `json:"run_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// Key identifies the search stream a checkpoint belongs to.
func Key(query, sort, collection string) string {
	sum := sha256.Sum256([]byte(query + "\x00" + sort + "\x00" + collection))
	return hex.EncodeToString(sum[:8])
}

// Manager handles checkpoint operations for one search stream.
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a manager storing its file in the user data
// directory.
func NewManager(key string, log logger.Logger) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerInDir(filepath.Join(dataDir, "checkpoints"), key, log)
}

// NewManagerInDir creates a manager storing its file in dir.
func NewManagerInDir(dir, key string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		checkpointPath: filepath.Join(dir, fmt.Sprintf("search-%s.checkpoint.json", key)),
		logger:         log.WithField("checkpoint", key),
	}, nil
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a fresh checkpoint for a search stream.
func (m *Manager) Create(query, sort, collection, runID string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		Query:      query,
		Sort:       sort,
		Collection: collection,
		RunID:      runID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    Version,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"path": m.checkpointPath,
	})
	return cp, nil
}

// Load reads the checkpoint; it returns nil and no error when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version != Version {
		return nil, fmt.Errorf("unsupported checkpoint version %d", cp.Version)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"max_id":         cp.MaxID,
		"total_inserted": cp.TotalInserted,
		"updated_at":     cp.UpdatedAt,
	})
	return &cp, nil
}

// Save writes the checkpoint atomically through a temporary file.
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"max_id":         cp.MaxID,
		"total_inserted": cp.TotalInserted,
	})
	return nil
}

// UpdateProgress records a fully ingested page.
func (m *Manager) UpdateProgress(cp *Checkpoint, maxID int64, inserted int) error {
	cp.MaxID = maxID
	cp.PagesProcessed++
	cp.TotalInserted += inserted
	return m.Save(cp)
}

// Delete removes the checkpoint file.
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "twitterkeywordsearch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "twitterkeywordsearch")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "twitterkeywordsearch")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "twitterkeywordsearch")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}
