// Package workspace owns the per-job working directories and the static
// configuration artifact the acquisition tool reads from them.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tunedrop/tunedrop/internal/config"
)

const (
	libraryDir       = "Apple Music"
	zipStagingDir    = "Zips"
	configStagingDir = "Configs"
	toolConfig       = "config.yaml"
)

// Manager creates and destroys job workspaces under a fixed storage root.
type Manager struct {
	cfg *config.Config
	log *zap.Logger
}

// NewManager constructs a Manager.
func NewManager(cfg *config.Config, log *zap.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// BasePath is the directory all user workspaces live under. Remote sync
// computes object keys relative to it.
func (m *Manager) BasePath() string {
	return filepath.Join(m.cfg.StorageRoot, libraryDir)
}

// Create returns the deterministic workspace for a user, creating it if
// needed. The same directory is reused across retries, which is why two
// concurrent jobs for one user must be serialized by the caller.
func (m *Manager) Create(userID string) (string, error) {
	dir := filepath.Join(m.BasePath(), userID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	m.log.Debug("workspace ready", zap.String("dir", dir))
	return dir, nil
}

// ZipDir returns the per-user staging directory for bundle archives.
func (m *Manager) ZipDir(userID string) (string, error) {
	dir := filepath.Join(m.cfg.StorageRoot, zipStagingDir, userID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create zip dir: %w", err)
	}
	return dir, nil
}

// toolSettings mirrors the key: value file the acquisition tool expects to
// find next to its output.
type toolSettings struct {
	MediaUserToken       string `yaml:"media-user-token"`
	AlacSaveFolder       string `yaml:"alac-save-folder"`
	AtmosSaveFolder      string `yaml:"atmos-save-folder"`
	AlacMax              string `yaml:"alac-max"`
	AtmosMax             string `yaml:"atmos-max"`
	CoverSize            string `yaml:"cover-size"`
	CoverFormat          string `yaml:"cover-format"`
	AlbumFolderFormat    string `yaml:"album-folder-format"`
	PlaylistFolderFormat string `yaml:"playlist-folder-format"`
	ArtistFolderFormat   string `yaml:"artist-folder-format"`
	SongFileFormat       string `yaml:"song-file-format"`
}

// WriteToolConfig writes the tool configuration artifact for a user and
// returns its path. The artifact carries the credential token, so it is staged
// outside the workspace: the workspace subtree gets archived and synced to the
// user as-is and must hold media only. The file is written once per user and
// never rewritten mid-job.
func (m *Manager) WriteToolConfig(userID, workDir string) (string, error) {
	dir := filepath.Join(m.cfg.StorageRoot, configStagingDir, userID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, toolConfig)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	settings := toolSettings{
		MediaUserToken:       m.cfg.MediaUserToken,
		AlacSaveFolder:       workDir,
		AtmosSaveFolder:      workDir,
		AlacMax:              m.cfg.AlacQuality,
		AtmosMax:             m.cfg.AtmosQuality,
		CoverSize:            m.cfg.CoverSize,
		CoverFormat:          m.cfg.CoverFormat,
		AlbumFolderFormat:    "{AlbumName}",
		PlaylistFolderFormat: "{PlaylistName}",
		ArtistFolderFormat:   "{ArtistName}",
		SongFileFormat:       "{SongNumer}. {SongName}",
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("encode tool config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write tool config: %w", err)
	}
	m.log.Debug("tool config written", zap.String("path", path))
	return path, nil
}

// Destroy removes a job workspace. It is idempotent and must not fail the
// job: removal errors are logged and swallowed so cleanup can run on every
// exit path.
func (m *Manager) Destroy(dir string) {
	if dir == "" {
		return
	}
	rel, err := filepath.Rel(m.cfg.StorageRoot, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		m.log.Warn("refusing to destroy path outside storage root", zap.String("dir", dir))
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		m.log.Error("workspace cleanup failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	m.log.Debug("workspace removed", zap.String("dir", dir))
}
