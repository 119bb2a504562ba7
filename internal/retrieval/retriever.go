package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/parley-ai/chat-platform/pkg/metrics"
)

// collections maps retrieval-eligible scenarios to their index collections.
// Scenarios absent from this map skip retrieval entirely.
var collections = map[string]string{
	"ops-assistant":  "devops_tool",
	"product-manual": "product_manual",
}

// Eligible reports whether a scenario uses context retrieval.
func Eligible(scenario string) bool {
	_, ok := collections[scenario]
	return ok
}

// CollectionFor returns the index collection backing a scenario.
func CollectionFor(scenario string) (string, bool) {
	c, ok := collections[scenario]
	return c, ok
}

// Retriever fetches grounding snippets for a scenario. It is an explicitly
// constructed capability: callers hold a *Retriever, nothing is process-wide.
type Retriever struct {
	index    *Index
	embedder Embedder
}

// NewRetriever creates a retriever over an index and an embedder.
func NewRetriever(index *Index, embedder Embedder) *Retriever {
	return &Retriever{index: index, embedder: embedder}
}

// Retrieve embeds the query and returns the text bodies of the k nearest
// chunks in the scenario's collection. Scenarios without a collection yield
// no snippets and no error.
func (r *Retriever) Retrieve(ctx context.Context, scenario, query string, k int) ([]string, error) {
	collection, ok := collections[scenario]
	if !ok {
		return nil, nil
	}
	if k <= 0 {
		k = 3
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		metrics.RetrievalRequests.WithLabelValues(collection, "embed_error").Inc()
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	snippets, err := r.index.Search(ctx, collection, embedding, k)
	if err != nil {
		metrics.RetrievalRequests.WithLabelValues(collection, "search_error").Inc()
		return nil, fmt.Errorf("failed to search collection %s: %w", collection, err)
	}

	metrics.RetrievalRequests.WithLabelValues(collection, "ok").Inc()
	metrics.RetrievalSnippets.WithLabelValues(collection).Observe(float64(len(snippets)))

	bodies := make([]string, 0, len(snippets))
	for _, sn := range snippets {
		bodies = append(bodies, sn.Content)
	}
	return bodies, nil
}

// String implements fmt.Stringer for debug logging.
func (r *Retriever) String() string {
	return "retriever(dims=" + strconv.Itoa(r.embedder.Dimensions()) + ")"
}
