// Package qdrant provides a Qdrant vector driver over the gRPC client.
//
// Records are embedded client-side; text and metadata are carried in the
// point payload. The relevance threshold is pushed down to the server via
// ScoreThreshold.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/embeddings"
	"github.com/papercomputeco/engram/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for memory records.
	DefaultCollectionName = "engram"

	// payloadTextKey is the payload field holding the record text.
	payloadTextKey = "text"
)

// QdrantDriver implements vector.Driver against a Qdrant instance.
type QdrantDriver struct {
	client         *qdrant.Client
	collectionName string
	embedder       embeddings.Embedder
	logger         *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port. Defaults to 6334 if zero.
	Port int

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the embedding vector size for collection creation.
	Dimensions uint
}

// NewQdrantDriver creates a new Qdrant vector driver bound to one
// collection, creating the collection if it does not exist.
func NewQdrantDriver(c Config, embedder embeddings.Embedder, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("%w: qdrant host is required", vector.ErrConnection)
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("%w: qdrant embedding dimensions cannot be 0, must be configured", vector.ErrCollection)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required for qdrant", vector.ErrCollection)
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: c.Host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	ctx := context.Background()
	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %v", vector.ErrCollection, collectionName, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: creating collection %q: %v", vector.ErrCollection, collectionName, err)
		}
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", collectionName),
	)

	return &QdrantDriver{
		client:         client,
		collectionName: collectionName,
		embedder:       embedder,
		logger:         logger,
	}, nil
}

// Store persists a record under the given id. Upsert semantics: an existing
// id is overwritten.
func (d *QdrantDriver) Store(ctx context.Context, id, text string, metadata map[string]any) error {
	embedding, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding record %s: %w", id, err)
	}

	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload[payloadTextKey] = text

	_, err = d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(embedding...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", id, err)
	}

	d.logger.Debug("stored record in qdrant",
		zap.String("id", id),
	)

	return nil
}

// Update overwrites the record at id wholesale. Same operation as Store
// under upsert semantics.
func (d *QdrantDriver) Update(ctx context.Context, id, text string, metadata map[string]any) error {
	return d.Store(ctx, id, text, metadata)
}

// Search embeds the query text and runs a similarity query with the
// threshold pushed down to the server.
func (d *QdrantDriver) Search(ctx context.Context, query string, topK int, threshold float32) ([]vector.Hit, error) {
	if topK <= 0 {
		topK = 10
	}

	queryEmbedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(threshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying qdrant: %w", err)
	}

	hits := make([]vector.Hit, 0, len(points))
	for _, point := range points {
		hit := vector.Hit{
			ID:    point.Id.GetUuid(),
			Score: point.Score,
		}

		metadata := make(map[string]any, len(point.Payload))
		for k, v := range point.Payload {
			if k == payloadTextKey {
				hit.Text = v.GetStringValue()
				continue
			}
			metadata[k] = v.GetStringValue()
		}
		hit.Metadata = metadata

		hits = append(hits, hit)
	}

	hits = vector.FilterHits(hits, threshold)

	d.logger.Debug("queried qdrant",
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// Delete removes the record at id.
func (d *QdrantDriver) Delete(ctx context.Context, id string) error {
	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collectionName,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	d.logger.Debug("deleted record from qdrant",
		zap.String("id", id),
	)

	return nil
}

// Close releases the underlying gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}
