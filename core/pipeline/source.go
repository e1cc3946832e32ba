package pipeline

import "context"

// funcSource adapts an extract closure to the Source interface.
type funcSource struct {
	name     string
	endpoint string
	extract  func(ctx context.Context) (Batch, error)
}

// NewSource builds a Source from an extract step.
func NewSource(name, endpoint string, extract func(ctx context.Context) (Batch, error)) Source {
	return &funcSource{name: name, endpoint: endpoint, extract: extract}
}

func (s *funcSource) Name() string     { return s.name }
func (s *funcSource) Endpoint() string { return s.endpoint }

func (s *funcSource) Extract(ctx context.Context) (Batch, error) {
	return s.extract(ctx)
}

// funcBatch adapts a persist closure to the Batch interface.
type funcBatch struct {
	rows    int
	persist func(ctx context.Context) (int, error)
}

// NewBatch wraps a normalized row count and its persistence step.
func NewBatch(rows int, persist func(ctx context.Context) (int, error)) Batch {
	return &funcBatch{rows: rows, persist: persist}
}

func (b *funcBatch) Len() int { return b.rows }

func (b *funcBatch) Persist(ctx context.Context) (int, error) {
	return b.persist(ctx)
}
