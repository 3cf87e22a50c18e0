package dense

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
)

// mockEmbedder maps texts to fixed vectors so similarity is deterministic.
type mockEmbedder struct {
	vectors    map[string][]float32
	batchCalls int
	embedErr   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedErr != nil {
		return domain.EmbeddingResult{}, m.embedErr
	}
	return domain.EmbeddingResult{Embedding: m.vectors[text]}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	return domain.BatchFallback(ctx, m, texts)
}

func testEmbedder() *mockEmbedder {
	return &mockEmbedder{vectors: map[string][]float32{
		"fibre offer text":   {1, 0, 0},
		"adsl offer text":    {0, 1, 0},
		"payment doc text":   {0, 0, 1},
		"query about fibre":  {0.9, 0.1, 0},
		"query about bills":  {0, 0.2, 0.9},
	}}
}

func testDocs() []document.Document {
	return []document.Document{
		{ID: "fibre", DenseText: "fibre offer text", Position: 0},
		{ID: "adsl", DenseText: "adsl offer text", Position: 1},
		{ID: "payment", DenseText: "payment doc text", Position: 2},
	}
}

func TestSearchBeforeBuild(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{}, zap.NewNop())

	_, err := idx.Search(context.Background(), "query about fibre", 5, nil)
	if !errors.Is(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("err = %v, want ErrIndexNotBuilt", err)
	}
}

func TestBuildAndSearch(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{}, zap.NewNop())

	if err := idx.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !idx.Built() {
		t.Fatal("index should report built")
	}

	scored, err := idx.Search(context.Background(), "query about fibre", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(scored) != 3 {
		t.Fatalf("results = %d, want 3", len(scored))
	}
	if scored[0].ID != "fibre" {
		t.Fatalf("top = %s, want fibre", scored[0].ID)
	}
}

func TestSearchSubset(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{}, zap.NewNop())
	if err := idx.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	scored, err := idx.Search(context.Background(), "query about fibre", 5, []string{"adsl", "payment"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, s := range scored {
		if s.ID == "fibre" {
			t.Fatal("subset restriction leaked the fibre doc")
		}
	}
	if len(scored) != 2 {
		t.Fatalf("results = %d, want 2", len(scored))
	}
}

func TestBuildCancellation(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{BatchSize: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := idx.Build(ctx, testDocs())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if idx.Built() {
		t.Fatal("cancelled build must leave the index unbuilt")
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{}, zap.NewNop())

	if err := idx.Build(context.Background(), nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("err = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildBatching(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{BatchSize: 2}, zap.NewNop())

	if err := idx.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if emb.batchCalls != 2 {
		t.Fatalf("batch calls = %d, want 2 for 3 docs at batch size 2", emb.batchCalls)
	}
}

func TestSearchEmbedError(t *testing.T) {
	emb := testEmbedder()
	idx := NewIndex(emb, emb, Config{}, zap.NewNop())
	if err := idx.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	emb.embedErr = domain.ErrEmbeddingProviderError
	_, err := idx.Search(context.Background(), "query about fibre", 5, nil)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err = %v, want ErrEmbeddingProviderError", err)
	}
}
