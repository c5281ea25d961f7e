// backend-go/internal/drive/sync.go
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/config"
	"github.com/glowmart/storesight/backend-go/internal/ingest"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

// Stores with no sales booked in this many trailing months get flagged
// inactive after a sales sync, so fits and landings stop projecting them.
const inactiveAfterMonths = 3

// SyncService mirrors the sales and budget export folders out of Drive and
// loads them through the CSV processor. Each folder lands in its own
// subdirectory of DownloadDir, which is how the processor tells file kinds
// apart.
type SyncService struct {
	service   *Service
	processor *ingest.Processor
	repo      *repository.IngestRepository
	cfg       config.DriveConfig
}

func NewSyncService(service *Service, processor *ingest.Processor, repo *repository.IngestRepository, cfg config.DriveConfig) *SyncService {
	return &SyncService{
		service:   service,
		processor: processor,
		repo:      repo,
		cfg:       cfg,
	}
}

type SyncResult struct {
	Downloaded  []string `json:"downloaded"`
	Loaded      int      `json:"loaded"`
	Deactivated int64    `json:"deactivated"`
}

// SyncAll downloads both configured folders, loads every file, then sweeps
// stores that have gone quiet. A folder without a configured id is skipped
// with a warning rather than failing the whole sync.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncResult, error) {
	folders := []struct {
		kind     string
		folderID string
	}{
		{"sales", s.cfg.SalesFolderID},
		{"budgets", s.cfg.BudgetFolderID},
	}

	result := &SyncResult{}
	for _, folder := range folders {
		if folder.folderID == "" {
			log.Warn().Str("kind", folder.kind).Msg("drive folder not configured, skipping")
			continue
		}

		paths, err := s.downloadFolder(ctx, folder.folderID, filepath.Join(s.cfg.DownloadDir, folder.kind))
		if err != nil {
			return nil, fmt.Errorf("failed to download %s folder: %w", folder.kind, err)
		}
		result.Downloaded = append(result.Downloaded, paths...)

		for _, path := range paths {
			if err := s.processor.ProcessFile(ctx, path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
			}
			result.Loaded++
		}
	}

	cutoff := time.Now().UTC().AddDate(0, -inactiveAfterMonths, 0)
	deactivated, err := s.repo.MarkInactiveSince(ctx, cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("failed to sweep inactive stores")
	} else {
		result.Deactivated = deactivated
	}

	log.Info().Int("files", result.Loaded).Int64("deactivated", result.Deactivated).
		Msg("drive sync completed")
	return result, nil
}

// IngestFileByID downloads a single Drive file into the given kind's
// subdirectory and loads it. The admin handler uses this for ad-hoc re-loads.
func (s *SyncService) IngestFileByID(ctx context.Context, fileID, kind string) (string, error) {
	switch kind {
	case "stores", "sales", "budgets":
	default:
		return "", fmt.Errorf("unknown file kind: %s", kind)
	}

	meta, err := s.service.GetFile(fileID)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.cfg.DownloadDir, kind)
	localPath, err := s.fetchFile(dir, meta)
	if err != nil {
		return "", err
	}
	if localPath == "" {
		return "", fmt.Errorf("unsupported file type: %s", meta.Name)
	}

	if err := s.processor.ProcessFile(ctx, localPath); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", meta.Name, err)
	}
	return localPath, nil
}

// downloadFolder mirrors every CSV and XLSX in the folder into dir,
// converting XLSX first sheets to CSV, and returns the local CSV paths.
func (s *SyncService) downloadFolder(ctx context.Context, folderID, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := s.service.ListFiles(folderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		localPath, err := s.fetchFile(dir, f)
		if err != nil {
			return nil, err
		}
		if localPath == "" {
			continue
		}
		log.Debug().Str("file", f.Name).Msg("downloaded drive file")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

// fetchFile downloads one file into dir and returns the local CSV path, or ""
// when the file is neither CSV nor XLSX.
func (s *SyncService) fetchFile(dir string, f *File) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext != ".csv" && ext != ".xlsx" {
		return "", nil
	}

	localPath := filepath.Join(dir, f.Name)
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := s.service.DownloadFile(f.ID, out); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	out.Close()

	if ext == ".csv" {
		return localPath, nil
	}

	csvPath := strings.TrimSuffix(localPath, filepath.Ext(localPath)) + ".csv"
	if err := convertXLSXToCSV(localPath, csvPath); err != nil {
		return "", fmt.Errorf("failed to convert %s to csv: %w", f.Name, err)
	}
	_ = os.Remove(localPath)
	return csvPath, nil
}
