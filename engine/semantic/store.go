// Package semantic provides a Qdrant-backed project index. It is the
// optional ranking backend for catalogs too large to brute-force in memory;
// the in-memory ranker remains the reference behaviour. Qdrant does not
// guarantee the catalog-order tie-break of the in-memory ranker.
package semantic

import (
	"context"
	"fmt"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	"github.com/MuseLabAI/muse-mvp/engine/rank"
	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// pointsClient is the subset of pb.PointsClient the index uses.
type pointsClient interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsClient is the subset of pb.CollectionsClient the index uses.
type collectionsClient interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// ProjectIndex is the sole owner of all Qdrant operations.
type ProjectIndex struct {
	conn        *grpc.ClientConn
	points      pointsClient
	collections collectionsClient
	collection  string
	count       int // items upserted by Sync; bounds Rank's result size
}

// New creates a ProjectIndex connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*ProjectIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &ProjectIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a ProjectIndex from injected clients. Used in tests.
func NewWithClients(points pointsClient, collections collectionsClient, collection string) *ProjectIndex {
	return &ProjectIndex{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (p *ProjectIndex) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// EnsureCollection creates the cosine-distance collection if it doesn't exist.
func (p *ProjectIndex) EnsureCollection(ctx context.Context, dims int) error {
	list, err := p.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == p.collection {
			return nil
		}
	}

	d := uint64(dims)
	_, err = p.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: p.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", p.collection, err)
	}
	return nil
}

// DeleteCollection deletes the collection.
func (p *ProjectIndex) DeleteCollection(ctx context.Context) error {
	_, err := p.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: p.collection,
	})
	if err != nil {
		return fmt.Errorf("semantic: delete collection %s: %w", p.collection, err)
	}
	return nil
}

// pointID derives a stable UUID from an item's combined text, so re-syncing
// an unchanged catalog overwrites points instead of duplicating them.
func pointID(it catalog.Item) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("muse:"+it.CombinedText)).String()
}

// Sync upserts every catalog item into the collection. Called once at
// startup, after the catalog is built.
func (p *ProjectIndex) Sync(ctx context.Context, items []catalog.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("semantic: nothing to sync")
	}

	points := make([]*pb.PointStruct, len(items))
	for i, it := range items {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(it)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: it.Embedding},
				},
			},
			Payload: map[string]*pb.Value{
				"title":       strValue(it.Title),
				"description": strValue(it.Description),
				"category":    strValue(it.Category),
				"technology":  strValue(it.Technology),
			},
		}
	}

	wait := true
	_, err := p.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: p.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(items), err)
	}
	p.count = len(items)
	return nil
}

// Rank returns every indexed project ordered by descending similarity to
// the embedding. Satisfies the suggestion service's Ranker seam; filtering
// and truncation stay with the assembler.
func (p *ProjectIndex) Rank(ctx context.Context, embedding []float32) ([]rank.ScoredCandidate, error) {
	if p.count == 0 {
		return nil, fmt.Errorf("semantic: index is empty, Sync first")
	}

	resp, err := p.points.Search(ctx, &pb.SearchPoints{
		CollectionName: p.collection,
		Vector:         embedding,
		Limit:          uint64(p.count),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	ranked := make([]rank.ScoredCandidate, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		payload := r.GetPayload()
		ranked[i] = rank.ScoredCandidate{
			Item: catalog.Item{
				Title:       payload["title"].GetStringValue(),
				Description: payload["description"].GetStringValue(),
				Category:    payload["category"].GetStringValue(),
				Technology:  payload["technology"].GetStringValue(),
			},
			Similarity: float64(r.GetScore()),
		}
	}
	return ranked, nil
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
