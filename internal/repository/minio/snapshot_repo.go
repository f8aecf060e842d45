package minio

import (
	"bytes"
	"context"
	"sort"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// SnapshotRepo хранит выгрузки прогонов в бакете MinIO.
type SnapshotRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewSnapshotRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *SnapshotRepo {
	return &SnapshotRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Put загружает объект и возвращает его ключ.
func (s *SnapshotRepo) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	info, err := s.mc.PutObject(ctx, s.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// List возвращает ключи с префиксом prefix от старых к новым.
func (s *SnapshotRepo) List(ctx context.Context, prefix string) ([]string, error) {
	var objects []minio.ObjectInfo
	for obj := range s.mc.ListObjects(ctx, s.cfg.BucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), obj.Err)
		}
		objects = append(objects, obj)
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.Before(objects[j].LastModified)
	})

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (s *SnapshotRepo) Delete(ctx context.Context, key string) error {
	if err := s.mc.RemoveObject(ctx, s.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
