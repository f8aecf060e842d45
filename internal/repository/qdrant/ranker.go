package qdrant

import (
	"context"
	"sort"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/pipeline"
	"github.com/DRSN-tech/cartwhisper/pkg/clients"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/DRSN-tech/cartwhisper/pkg/vecmath"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

const (
	upsertBatchSize = 256
	dropTimeout     = 10 * time.Second

	payloadProductID = "product_id"
	payloadIndex     = "index"
)

// PointsAPI — методы клиента Qdrant, нужные ранжировщику.
type PointsAPI interface {
	clients.QdrantCollections
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	DeleteCollection(ctx context.Context, name string) error
}

// Ranker ищет ближайших соседей через Qdrant. Для каждого прогона создаётся временная
// коллекция, которая удаляется по завершении, так что векторы не переживают прогон.
type Ranker struct {
	client PointsAPI
	prefix string
	logger logger.Logger
}

func NewRanker(client PointsAPI, collectionPrefix string, logger logger.Logger) *Ranker {
	return &Ranker{
		client: client,
		prefix: collectionPrefix,
		logger: logger,
	}
}

func (r *Ranker) Rank(ctx context.Context, vectors []domain.EmbeddingVector, topN int) (map[string][]domain.SimilarityEntry, error) {
	if topN <= 0 {
		topN = pipeline.DefaultTopN
	}
	if len(vectors) == 0 {
		return map[string][]domain.SimilarityEntry{}, nil
	}
	if err := pipeline.CheckDimensions(vectors); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	collection := r.prefix + uuid.NewString()
	if err := clients.EnsureCollection(ctx, r.client, collection, uint64(len(vectors[0].Vector))); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer r.drop(ctx, collection)

	if err := r.upsert(ctx, collection, vectors); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	order := make(map[string]int, len(vectors))
	for i, v := range vectors {
		order[v.ProductID] = i
	}

	out := make(map[string][]domain.SimilarityEntry, len(vectors))
	for _, src := range vectors {
		if err := ctx.Err(); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		limit := uint64(topN)
		points, err := r.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collection,
			Query:          qdrant.NewQuery(vecmath.ToFloat32(src.Vector)...),
			Filter: &qdrant.Filter{
				MustNot: []*qdrant.Condition{qdrant.NewHasID(pointID(src.ProductID))},
			},
			Limit:       &limit,
			WithPayload: qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		out[src.ProductID] = toEntries(points, order)
	}

	return out, nil
}

func (r *Ranker) upsert(ctx context.Context, collection string, vectors []domain.EmbeddingVector) error {
	wait := true
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      pointID(vectors[i].ProductID),
				Vectors: qdrant.NewVectors(vecmath.ToFloat32(vectors[i].Vector)...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadProductID: vectors[i].ProductID,
					payloadIndex:     i,
				}),
			})
		}

		if _, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           &wait,
			Points:         points,
		}); err != nil {
			return err
		}
	}
	return nil
}

// drop удаляет временную коллекцию даже при отменённом контексте прогона.
func (r *Ranker) drop(ctx context.Context, collection string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dropTimeout)
	defer cancel()

	if err := r.client.DeleteCollection(ctx, collection); err != nil {
		r.logger.Warnf("failed to drop scratch collection %s: %v", collection, e.Wrap(whereami.WhereAmI(), err))
	}
}

// toEntries округляет оценки и упорядочивает их как MemoryRanker: по убыванию, равные в порядке входа.
func toEntries(points []*qdrant.ScoredPoint, order map[string]int) []domain.SimilarityEntry {
	type scored struct {
		entry domain.SimilarityEntry
		index int
	}

	items := make([]scored, 0, len(points))
	for _, p := range points {
		id := p.GetPayload()[payloadProductID].GetStringValue()
		idx, ok := order[id]
		if !ok {
			continue
		}
		items = append(items, scored{
			entry: domain.NewSimilarityEntry(id, vecmath.Round(float64(p.GetScore()), pipeline.ScoreDigits)),
			index: idx,
		})
	}

	sort.Slice(items, func(a, b int) bool {
		if items[a].entry.Score != items[b].entry.Score {
			return items[a].entry.Score > items[b].entry.Score
		}
		return items[a].index < items[b].index
	})

	out := make([]domain.SimilarityEntry, 0, len(items))
	for _, it := range items {
		out = append(out, it.entry)
	}
	return out
}

// pointID детерминированно отображает идентификатор товара в UUID точки.
func pointID(productID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(productID)).String())
}
