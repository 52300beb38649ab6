package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Document is one attachment to retrieve context from.
type Document struct {
	Name string
	Text string
}

// Record is one embedded chunk of a document.
type Record struct {
	Source  string    `json:"source"`
	ChunkID int       `json:"chunk_id"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"vector"`
}

// Index holds embedded chunks for similarity search. It lives for one
// enhancement invocation; attachments are re-read each run.
type Index struct {
	Records []Record
}

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// BuildIndex chunks every document and embeds all chunks in one batch.
func BuildIndex(ctx context.Context, emb Embedder, docs []Document, chunkSize, overlap int) (*Index, error) {
	type pending struct {
		source  string
		chunkID int
		text    string
	}
	var all []pending
	for _, d := range docs {
		for i, c := range Chunk(d.Text, chunkSize, overlap) {
			all = append(all, pending{source: d.Name, chunkID: i, text: c})
		}
	}
	if len(all) == 0 {
		return &Index{}, nil
	}
	texts := make([]string, len(all))
	for i := range all {
		texts[i] = all[i].text
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(all) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(all))
	}
	idx := &Index{Records: make([]Record, len(all))}
	for i, p := range all {
		idx.Records[i] = Record{Source: p.source, ChunkID: p.chunkID, Text: p.text, Vector: vecs[i]}
	}
	return idx, nil
}

// CosineSim returns the cosine similarity of two vectors, 0 on dimension
// mismatch or zero norm.
func CosineSim(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Search returns the topK records most similar to the query vector, scored
// at or above minScore, best first. Ties keep document order.
func (idx *Index) Search(query []float32, topK int, minScore float64) []Record {
	type scored struct {
		rec   Record
		score float64
		pos   int
	}
	hits := make([]scored, 0, len(idx.Records))
	for i, r := range idx.Records {
		s := CosineSim(query, r.Vector)
		if s >= minScore {
			hits = append(hits, scored{rec: r, score: s, pos: i})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].score > hits[j].score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out
}
