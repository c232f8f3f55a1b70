// Package retriever implements the knowledge-store retrieval backend over
// Postgres with pgvector, supporting hybrid (lexical + semantic) search and
// structured metadata filtering.
package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"kb-connector/internal/domain"
)

// rrfK is the reciprocal-rank-fusion constant; 60 is the standard choice.
const rrfK = 60

// PassageRetriever serves one passage collection from a kb_passages table.
type PassageRetriever struct {
	pool       *pgxpool.Pool
	encoder    domain.VectorEncoder
	collection string
	logger     *slog.Logger
}

// NewPassageRetriever creates a retriever scoped to the named collection.
func NewPassageRetriever(pool *pgxpool.Pool, encoder domain.VectorEncoder, collection string, logger *slog.Logger) *PassageRetriever {
	return &PassageRetriever{pool: pool, encoder: encoder, collection: collection, logger: logger}
}

type passageHit struct {
	id        string
	text      string
	metadata  map[string]interface{}
	sourceURI string
	score     float32
	rank      int
}

// Retrieve fetches up to limit passages for the query. In hybrid mode the
// semantic and lexical branches run concurrently and are fused with
// reciprocal-rank fusion; in semantic mode only vector search runs.
func (r *PassageRetriever) Retrieve(
	ctx context.Context,
	query string,
	filter *domain.MetadataFilter,
	limit int,
	mode domain.SearchMode,
) ([]domain.RetrievedPassage, error) {
	if limit <= 0 {
		return nil, domain.NewBackendError("knowledge base", domain.BackendErrValidation,
			fmt.Errorf("result limit must be positive, got %d", limit))
	}

	embeddings, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	queryVector := pgvector.NewVector(embeddings[0])

	// Each branch over-fetches so fusion has enough candidates.
	branchLimit := limit * 2

	if mode != domain.SearchModeHybrid {
		hits, err := r.semanticSearch(ctx, queryVector, filter, limit)
		if err != nil {
			return nil, err
		}
		return toPassages(hits), nil
	}

	var semantic, lexical []passageHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semantic, err = r.semanticSearch(gctx, queryVector, filter, branchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		lexical, err = r.lexicalSearch(gctx, query, filter, branchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuseHits(semantic, lexical, limit)
	r.logger.Debug("hybrid_search_completed",
		slog.Int("semantic_hits", len(semantic)),
		slog.Int("lexical_hits", len(lexical)),
		slog.Int("fused_hits", len(fused)))
	return toPassages(fused), nil
}

func (r *PassageRetriever) semanticSearch(ctx context.Context, vec pgvector.Vector, filter *domain.MetadataFilter, limit int) ([]passageHit, error) {
	clause, args, err := compileFilter(filter, []interface{}{vec, r.collection})
	if err != nil {
		return nil, domain.NewBackendError("knowledge base", domain.BackendErrValidation,
			fmt.Errorf("failed to compile metadata filter: %w", err))
	}
	sql := `
		SELECT id, content, metadata, COALESCE(source_uri, ''), 1 - (embedding <=> $1) AS score
		FROM kb_passages
		WHERE collection = $2`
	if clause != "" {
		sql += " AND " + clause
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	return r.queryHits(ctx, sql, args)
}

func (r *PassageRetriever) lexicalSearch(ctx context.Context, query string, filter *domain.MetadataFilter, limit int) ([]passageHit, error) {
	clause, args, err := compileFilter(filter, []interface{}{query, r.collection})
	if err != nil {
		return nil, domain.NewBackendError("knowledge base", domain.BackendErrValidation,
			fmt.Errorf("failed to compile metadata filter: %w", err))
	}
	sql := `
		SELECT id, content, metadata, COALESCE(source_uri, ''),
		       ts_rank_cd(to_tsvector('english', content), websearch_to_tsquery('english', $1)) AS score
		FROM kb_passages
		WHERE collection = $2
		  AND to_tsvector('english', content) @@ websearch_to_tsquery('english', $1)`
	if clause != "" {
		sql += " AND " + clause
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args))

	return r.queryHits(ctx, sql, args)
}

func (r *PassageRetriever) queryHits(ctx context.Context, sql string, args []interface{}) ([]passageHit, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.NewBackendError("knowledge base", domain.BackendErrGeneric,
			fmt.Errorf("passage query failed: %w", err))
	}
	defer rows.Close()

	var hits []passageHit
	for rows.Next() {
		var (
			hit      passageHit
			metaJSON []byte
		)
		if err := rows.Scan(&hit.id, &hit.text, &metaJSON, &hit.sourceURI, &hit.score); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &hit.metadata); err != nil {
				return nil, fmt.Errorf("failed to decode passage metadata: %w", err)
			}
		}
		hit.rank = len(hits) + 1
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewBackendError("knowledge base", domain.BackendErrGeneric,
			fmt.Errorf("passage rows error: %w", err))
	}
	return hits, nil
}

// fuseHits merges two ranked lists with reciprocal-rank fusion and returns
// the top limit hits.
func fuseHits(semantic, lexical []passageHit, limit int) []passageHit {
	type fusedHit struct {
		hit   passageHit
		score float64
	}
	byID := make(map[string]*fusedHit)
	accumulate := func(hits []passageHit) {
		for _, h := range hits {
			contribution := 1.0 / float64(rrfK+h.rank)
			if existing, ok := byID[h.id]; ok {
				existing.score += contribution
				continue
			}
			byID[h.id] = &fusedHit{hit: h, score: contribution}
		}
	}
	accumulate(semantic)
	accumulate(lexical)

	fused := make([]*fusedHit, 0, len(byID))
	for _, fh := range byID {
		fused = append(fused, fh)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].hit.id < fused[j].hit.id
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}
	out := make([]passageHit, len(fused))
	for i, fh := range fused {
		out[i] = fh.hit
		out[i].score = float32(fh.score)
	}
	return out
}

func toPassages(hits []passageHit) []domain.RetrievedPassage {
	passages := make([]domain.RetrievedPassage, len(hits))
	for i, h := range hits {
		passages[i] = domain.RetrievedPassage{
			Text:      h.text,
			Metadata:  h.metadata,
			SourceURI: h.sourceURI,
			Score:     h.score,
		}
	}
	return passages
}

var _ domain.Retriever = (*PassageRetriever)(nil)
