package retrieval

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/datascopehq/datascope-cli/internal/utils"
)

const (
	// DefaultTopK is how many chunks get spliced into the prompt.
	DefaultTopK = 4
	// DefaultContextTokens caps the assembled context text.
	DefaultContextTokens = 1500
)

// Options tune context assembly. Zero values fall back to the defaults.
type Options struct {
	TopK      int
	MaxTokens int
	ChunkSize int
	Overlap   int
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultContextTokens
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Overlap <= 0 {
		o.Overlap = DefaultChunkOverlap
	}
	return o
}

// BuildContext assembles prompt context from attachment documents. With a
// working embedder it retrieves the chunks most similar to the query;
// without one (nil, or the embeddings runtime is unreachable) it falls back
// to the head of each attachment. retrieved reports which path was taken.
func BuildContext(ctx context.Context, emb Embedder, query string, docs []Document, opts Options) (text string, retrieved bool) {
	opts = opts.withDefaults()
	if len(docs) == 0 {
		return "", false
	}
	if emb == nil {
		return headContext(docs, opts.MaxTokens), false
	}
	idx, err := BuildIndex(ctx, emb, docs, opts.ChunkSize, opts.Overlap)
	if err != nil {
		log.Debug().Err(err).Msg("context retrieval unavailable, truncating attachments")
		return headContext(docs, opts.MaxTokens), false
	}
	qvecs, err := emb.Embed(ctx, []string{query})
	if err != nil || len(qvecs) == 0 {
		log.Debug().Err(err).Msg("query embedding failed, truncating attachments")
		return headContext(docs, opts.MaxTokens), false
	}
	hits := idx.Search(qvecs[0], opts.TopK, 0)
	if len(hits) == 0 {
		return headContext(docs, opts.MaxTokens), false
	}
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[source: ")
		b.WriteString(h.Source)
		b.WriteString("]\n")
		b.WriteString(h.Text)
	}
	return utils.TruncateToTokenLimit(b.String(), opts.MaxTokens), true
}

// headContext concatenates attachment heads within the token budget, split
// evenly across documents.
func headContext(docs []Document, maxTokens int) string {
	if len(docs) == 0 {
		return ""
	}
	per := maxTokens / len(docs)
	if per < 1 {
		per = 1
	}
	var parts []string
	for _, d := range docs {
		t := strings.TrimSpace(utils.TruncateToTokenLimit(d.Text, per))
		if t == "" {
			continue
		}
		parts = append(parts, "[source: "+d.Name+"]\n"+t)
	}
	return strings.Join(parts, "\n\n")
}
