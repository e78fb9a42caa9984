package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// --- Mocks ---

type mockPoints struct {
	upsertResp *pb.PointsOperationResponse
	upsertErr  error
	searchResp *pb.SearchResponse
	searchErr  error

	lastUpsert *pb.UpsertPoints
	lastSearch *pb.SearchPoints
}

func (m *mockPoints) Upsert(_ context.Context, req *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.lastUpsert = req
	return m.upsertResp, m.upsertErr
}
func (m *mockPoints) Search(_ context.Context, req *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.lastSearch = req
	return m.searchResp, m.searchErr
}

type mockCollections struct {
	listResp   *pb.ListCollectionsResponse
	listErr    error
	createResp *pb.CollectionOperationResponse
	createErr  error
	deleteResp *pb.CollectionOperationResponse
	deleteErr  error
}

func (m *mockCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	return m.listResp, m.listErr
}
func (m *mockCollections) Create(_ context.Context, _ *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	return m.createResp, m.createErr
}
func (m *mockCollections) Delete(_ context.Context, _ *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	return m.deleteResp, m.deleteErr
}

func testItems() []catalog.Item {
	return []catalog.Item{
		{
			Title:        "Smart Irrigation",
			Description:  "Water plants automatically",
			Category:     "Hardware",
			Technology:   "IoT",
			CombinedText: "Smart Irrigation. Water plants automatically. IoT",
			Embedding:    []float32{1, 0, 0, 0},
		},
		{
			Title:        "Chat Assistant",
			Description:  "Conversational helper",
			Category:     "Software",
			Technology:   "NLP",
			CombinedText: "Chat Assistant. Conversational helper. NLP",
			Embedding:    []float32{0, 1, 0, 0},
		},
	}
}

// --- Tests ---

func TestNewWithClients(t *testing.T) {
	idx := NewWithClients(&mockPoints{}, &mockCollections{}, "test")
	if idx == nil {
		t.Fatal("expected non-nil")
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestEnsureCollection_AlreadyExists(t *testing.T) {
	cols := &mockCollections{
		listResp: &pb.ListCollectionsResponse{
			Collections: []*pb.CollectionDescription{{Name: "test"}},
		},
	}
	idx := NewWithClients(&mockPoints{}, cols, "test")
	if err := idx.EnsureCollection(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureCollection_Creates(t *testing.T) {
	cols := &mockCollections{
		listResp:   &pb.ListCollectionsResponse{Collections: []*pb.CollectionDescription{{Name: "other"}}},
		createResp: &pb.CollectionOperationResponse{Result: true},
	}
	idx := NewWithClients(&mockPoints{}, cols, "test")
	if err := idx.EnsureCollection(context.Background(), 128); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureCollection_ListError(t *testing.T) {
	cols := &mockCollections{listErr: errors.New("rpc fail")}
	idx := NewWithClients(&mockPoints{}, cols, "test")
	if err := idx.EnsureCollection(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureCollection_CreateError(t *testing.T) {
	cols := &mockCollections{
		listResp:  &pb.ListCollectionsResponse{Collections: []*pb.CollectionDescription{}},
		createErr: errors.New("create fail"),
	}
	idx := NewWithClients(&mockPoints{}, cols, "test")
	if err := idx.EnsureCollection(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

func TestDeleteCollection_Success(t *testing.T) {
	cols := &mockCollections{deleteResp: &pb.CollectionOperationResponse{Result: true}}
	idx := NewWithClients(&mockPoints{}, cols, "test")
	if err := idx.DeleteCollection(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteCollection_Error(t *testing.T) {
	cols := &mockCollections{deleteErr: errors.New("fail")}
	idx := NewWithClients(&mockPoints{}, cols, "test")
	if err := idx.DeleteCollection(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSync_Empty(t *testing.T) {
	idx := NewWithClients(&mockPoints{}, &mockCollections{}, "test")
	if err := idx.Sync(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestSync_Success(t *testing.T) {
	pts := &mockPoints{upsertResp: &pb.PointsOperationResponse{}}
	idx := NewWithClients(pts, &mockCollections{}, "test")

	if err := idx.Sync(context.Background(), testItems()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(pts.lastUpsert.GetPoints()); got != 2 {
		t.Fatalf("expected 2 points upserted, got %d", got)
	}
	p := pts.lastUpsert.GetPoints()[0]
	if p.GetPayload()["title"].GetStringValue() != "Smart Irrigation" {
		t.Errorf("wrong title payload: %v", p.GetPayload())
	}
	if p.GetId().GetUuid() == "" {
		t.Error("expected uuid point id")
	}
}

func TestSync_StableIDs(t *testing.T) {
	pts := &mockPoints{upsertResp: &pb.PointsOperationResponse{}}
	idx := NewWithClients(pts, &mockCollections{}, "test")

	if err := idx.Sync(context.Background(), testItems()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := pts.lastUpsert.GetPoints()[0].GetId().GetUuid()

	if err := idx.Sync(context.Background(), testItems()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again := pts.lastUpsert.GetPoints()[0].GetId().GetUuid(); again != first {
		t.Errorf("point id changed across syncs: %s vs %s", first, again)
	}
}

func TestSync_Error(t *testing.T) {
	pts := &mockPoints{upsertErr: errors.New("fail")}
	idx := NewWithClients(pts, &mockCollections{}, "test")
	if err := idx.Sync(context.Background(), testItems()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRank_BeforeSync(t *testing.T) {
	idx := NewWithClients(&mockPoints{}, &mockCollections{}, "test")
	if _, err := idx.Rank(context.Background(), []float32{1, 0}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRank_Success(t *testing.T) {
	pts := &mockPoints{
		upsertResp: &pb.PointsOperationResponse{},
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "p1"}},
					Score: 0.95,
					Payload: map[string]*pb.Value{
						"title":       {Kind: &pb.Value_StringValue{StringValue: "Chat Assistant"}},
						"description": {Kind: &pb.Value_StringValue{StringValue: "Conversational helper"}},
						"category":    {Kind: &pb.Value_StringValue{StringValue: "Software"}},
						"technology":  {Kind: &pb.Value_StringValue{StringValue: "NLP"}},
					},
				},
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "p2"}},
					Score: 0.4,
					Payload: map[string]*pb.Value{
						"title": {Kind: &pb.Value_StringValue{StringValue: "Smart Irrigation"}},
					},
				},
			},
		},
	}
	idx := NewWithClients(pts, &mockCollections{}, "test")
	if err := idx.Sync(context.Background(), testItems()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	ranked, err := idx.Rank(context.Background(), []float32{0, 1, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(ranked))
	}
	if ranked[0].Item.Title != "Chat Assistant" || ranked[0].Similarity != 0.95 {
		t.Errorf("wrong first candidate: %+v", ranked[0])
	}
	if ranked[0].Item.Category != "Software" {
		t.Errorf("wrong category: %s", ranked[0].Item.Category)
	}
	if got := pts.lastSearch.GetLimit(); got != 2 {
		t.Errorf("expected search limit to cover the whole index, got %d", got)
	}
}

func TestRank_Error(t *testing.T) {
	pts := &mockPoints{
		upsertResp: &pb.PointsOperationResponse{},
		searchErr:  errors.New("fail"),
	}
	idx := NewWithClients(pts, &mockCollections{}, "test")
	if err := idx.Sync(context.Background(), testItems()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := idx.Rank(context.Background(), []float32{1}); err == nil {
		t.Fatal("expected error")
	}
}
