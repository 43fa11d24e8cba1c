package nlgeval

import (
	"github.com/datar-psa/nlgeval/api"
)

type Embedder = api.Embedder
type BatchEmbedder = api.BatchEmbedder
type EmbedderProvider = api.EmbedderProvider
type EmbedderProviderFunc = api.EmbedderProviderFunc
type Tokenizer = api.Tokenizer
type BatchScorer = api.BatchScorer
type SimilarityMeasure = api.SimilarityMeasure
type MeasureSelector = api.MeasureSelector
