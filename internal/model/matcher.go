package model

// Concept is one side of a similarity pair.
type Concept struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name"`
	Description string `json:"description" validate:"required"`
}

// ConceptPair is one unit of work for the matcher: two concepts whose
// descriptions are embedded and compared.
type ConceptPair struct {
	ConceptA Concept `json:"conceptA" validate:"required"`
	ConceptB Concept `json:"conceptB" validate:"required"`
}

// SimilarityResult carries the cosine similarity for one pair.
type SimilarityResult struct {
	ConceptAID string  `json:"conceptA_id"`
	ConceptBID string  `json:"conceptB_id"`
	Similarity float64 `json:"similarity"`
}
