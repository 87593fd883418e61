package news

import "context"

// SearchBackend runs one news search. Implementations return the normalised
// hits in backend order and wrap failures with errors.ErrSearchUnavailable.
type SearchBackend interface {
	Search(ctx context.Context, q NewsQuery) ([]Article, error)
	Name() string
}
