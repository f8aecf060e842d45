// Package snapshot сохраняет выгрузки прогонов в локальную директорию.
package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
)

// DirExporter пишет выгрузку в <dir>/snapshots/<shop>/<run>.json.
type DirExporter struct {
	dir string
}

func NewDirExporter(dir string) *DirExporter {
	return &DirExporter{dir: dir}
}

func (d *DirExporter) Export(ctx context.Context, snapshot *domain.SyncSnapshot) (string, error) {
	const op = "DirExporter.Export"

	if err := ctx.Err(); err != nil {
		return "", e.Wrap(op, err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", e.Wrap(op, err)
	}

	key := domain.SnapshotKey(snapshot.Shop, snapshot.RunID)
	path := filepath.Join(d.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", e.Wrap(op, err)
	}

	// запись через временный файл, чтобы читатель не увидел половину JSON
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", e.Wrap(op, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", e.Wrap(op, err)
	}

	return path, nil
}
