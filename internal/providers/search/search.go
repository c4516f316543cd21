package search

import "context"

// Hit is one ranked result from the retrieval backend, ordered by the
// backend from most to least similar.
type Hit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Service is the black-box similarity search consumed by the pipeline.
// A failure is a typed error; zero hits is a valid empty result.
type Service interface {
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
	Healthy(ctx context.Context) bool
}
