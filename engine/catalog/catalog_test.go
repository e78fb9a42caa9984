package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/MuseLabAI/muse-mvp/engine/domain"
)

func TestCombinedText(t *testing.T) {
	got := CombinedText("Chat Assistant", "software chatbot using NLP", "NLP")
	want := "Chat Assistant. software chatbot using NLP. NLP"
	if got != want {
		t.Errorf("CombinedText = %q, want %q", got, want)
	}

	// Missing technology stays an empty string, never dropped from the derivation.
	got = CombinedText("X", "desc", "")
	if got != "X. desc. " {
		t.Errorf("CombinedText with empty tech = %q", got)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, domain.ErrCatalogEmpty) {
		t.Errorf("empty catalog: got %v, want ErrCatalogEmpty", err)
	}

	_, err := New([]Item{{Title: "", Embedding: []float32{1}}})
	if err == nil {
		t.Error("item without title should fail")
	}

	_, err = New([]Item{{Title: "a", Embedding: []float32{1, 2}}, {Title: "b", Embedding: []float32{1}}})
	if err == nil {
		t.Error("inconsistent dims should fail")
	}

	_, err = New([]Item{{Title: "a"}})
	if err == nil {
		t.Error("missing embedding should fail")
	}
}

func TestNew_OK(t *testing.T) {
	c, err := New([]Item{
		{Title: "a", Embedding: []float32{1, 0}},
		{Title: "b", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 || c.Dims() != 2 {
		t.Errorf("Len=%d Dims=%d, want 2/2", c.Len(), c.Dims())
	}
	if c.Items()[1].Title != "b" {
		t.Error("item order must be preserved")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `projects:
  - title: Smart Irrigation
    description: soil moisture sensor system
    category: Hardware
    technology: IoT
  - title: Chat Assistant
    description: software chatbot using NLP
    category: Software
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	specs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Technology != "IoT" {
		t.Errorf("technology = %q", specs[0].Technology)
	}
	// Absent optional field defaults to the empty string.
	if specs[1].Technology != "" {
		t.Errorf("missing technology should be empty, got %q", specs[1].Technology)
	}
}

func TestLoadFile_MissingTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("projects:\n  - description: no title here\n"), 0o644)

	if _, err := LoadFile(path); err == nil {
		t.Error("spec without title should fail to load")
	}
}

func TestLoadGlob(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "nested"), 0o755)
	os.WriteFile(filepath.Join(dir, "a.yaml"),
		[]byte("projects:\n  - title: A\n    description: first\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "nested", "b.yaml"),
		[]byte("projects:\n  - title: B\n    description: second\n"), 0o644)

	specs, err := LoadGlob(filepath.Join(dir, "**", "*.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	// Sorted path order: a.yaml before nested/b.yaml.
	if specs[0].Title != "A" || specs[1].Title != "B" {
		t.Errorf("unexpected order: %s, %s", specs[0].Title, specs[1].Title)
	}

	if _, err := LoadGlob(filepath.Join(dir, "*.json")); err == nil {
		t.Error("no matching files should be an error")
	}
}

func TestEmbedCache_RoundTrip(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Get("m1", "text"); ok {
		t.Error("unexpected hit on empty cache")
	}

	vec := []float32{0.1, 0.2, 0.3}
	if err := cache.Put("m1", "text", vec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := cache.Get("m1", "text")
	if !ok || len(got) != 3 || got[1] != 0.2 {
		t.Errorf("get = %v, %v", got, ok)
	}

	// Different model misses: cache entries are model-scoped.
	if _, ok := cache.Get("m2", "text"); ok {
		t.Error("different model should miss")
	}

	n, err := cache.Count()
	if err != nil || n != 1 {
		t.Errorf("count = %d, %v", n, err)
	}
}

// --- build ---

type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) Model() string { return "stub-model" }

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("embedder down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestBuild(t *testing.T) {
	specs := []ItemSpec{
		{Title: "Smart Irrigation", Description: "soil moisture sensor system", Category: "Hardware", Technology: "IoT"},
		{Title: "Chat Assistant", Description: "software chatbot using NLP", Category: "Software", Technology: "NLP"},
	}
	emb := &stubEmbedder{}

	c, err := Build(context.Background(), specs, emb, DefaultBuildOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}
	items := c.Items()
	if items[0].Title != "Smart Irrigation" || items[1].Title != "Chat Assistant" {
		t.Error("spec order must be preserved")
	}
	if items[0].CombinedText != "Smart Irrigation. soil moisture sensor system. IoT" {
		t.Errorf("combined text = %q", items[0].CombinedText)
	}
	for i, it := range items {
		if len(it.Embedding) == 0 {
			t.Errorf("item %d has no embedding", i)
		}
	}
}

func TestBuild_EmbedderError(t *testing.T) {
	specs := []ItemSpec{{Title: "A", Description: "d"}}
	_, err := Build(context.Background(), specs, &stubEmbedder{fail: true}, DefaultBuildOpts())
	if err == nil {
		t.Fatal("expected error when embedder fails")
	}
}

func TestBuild_UsesCache(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	specs := []ItemSpec{{Title: "A", Description: "d", Category: "Software"}}
	opts := DefaultBuildOpts()
	opts.Cache = cache

	emb := &stubEmbedder{}
	if _, err := Build(context.Background(), specs, emb, opts); err != nil {
		t.Fatal(err)
	}
	if emb.calls != 1 {
		t.Fatalf("expected 1 embed call, got %d", emb.calls)
	}

	// Second build with a warm cache embeds nothing.
	emb2 := &stubEmbedder{}
	if _, err := Build(context.Background(), specs, emb2, opts); err != nil {
		t.Fatal(err)
	}
	if emb2.calls != 0 {
		t.Errorf("expected 0 embed calls on warm cache, got %d", emb2.calls)
	}
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(context.Background(), nil, &stubEmbedder{}, DefaultBuildOpts())
	if !errors.Is(err, domain.ErrCatalogEmpty) {
		t.Errorf("got %v, want ErrCatalogEmpty", err)
	}
}
