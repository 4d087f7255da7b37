package template

import "context"

// Catalog supplies the template index and full version documents.
// Consumed read-only. Both operations are idempotent and cacheable, and
// fail with a distinguishable error rather than returning partial data.
type Catalog interface {
	FetchIndex(ctx context.Context) ([]Summary, error)
	FetchVersionDocument(ctx context.Context, templateID, file string) (*Document, error)
}
