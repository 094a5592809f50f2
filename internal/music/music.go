// Package music defines the pluggable song discovery capabilities.
//
// Search and recommendations are deliberately behind single-method
// interfaces: the rest of the application only knows "query in, song titles
// out". Swapping the bundled stubs for a real provider (Spotify, YouTube
// Music, ...) means implementing one interface and changing one line in the
// server wiring — no core code moves.
package music

import "context"

// SearchProvider answers free-text song searches.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Recommender suggests songs for a user.
type Recommender interface {
	Recommend(ctx context.Context, username string) ([]string, error)
}

// StubProvider is the bundled placeholder implementation of both
// capabilities. It returns fixed lists regardless of input, which is what
// the application has always shipped with.
type StubProvider struct{}

var _ SearchProvider = StubProvider{}
var _ Recommender = StubProvider{}

// Search returns the fixed demo result list. An empty query returns nothing,
// matching how a real provider would treat it.
func (StubProvider) Search(_ context.Context, query string) ([]string, error) {
	if query == "" {
		return nil, nil
	}
	return []string{"Song 1", "Song 2", "Song 3"}, nil
}

// Recommend returns the fixed demo recommendation list.
func (StubProvider) Recommend(_ context.Context, _ string) ([]string, error) {
	return []string{"Recommended Song 1", "Recommended Song 2", "Recommended Song 3"}, nil
}
