package dtos

import "github.com/justsurfingit/job-recommender/internal/models"

type ProfileRecommendationRequest struct {
	UserProfile models.UserProfile `json:"user_profile" binding:"required"`
	Jobs        []models.Job       `json:"jobs"`

	// Optional Fields
	MinScore *float64 `json:"min_score,omitempty"` // no score filter when nil
}

type ProfileRecommendationResponse struct {
	Prompt          string       `json:"prompt"`
	ResultsFound    int          `json:"results_found"`
	Recommendations []models.Job `json:"recommendations"`
}

type PromptRecommendationRequest struct {
	Prompt string              `json:"prompt" binding:"required"`
	Jobs   []models.JobListing `json:"jobs"`

	// Optional Fields
	Location string `json:"location"`
}

// ScoredListing is a listing as returned to the caller, with its cosine similarity.
type ScoredListing struct {
	models.JobListing
	SimilarityScore float64 `json:"Similarity_Score"`
}

type PromptRecommendationResponse struct {
	Recommendations []ScoredListing `json:"recommendations"`
}

type DatasetUploadRequest struct {
	Jobs []models.JobListing `json:"jobs" binding:"required"`
}

type DatasetUploadResponse struct {
	JobsIndexed int    `json:"jobs_indexed"`
	Fingerprint string `json:"fingerprint"`
}

type CatalogRecommendationRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Location string `json:"location"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	IndexType      string `json:"index_type"`
	EmbeddingModel string `json:"embedding_model"`
	CatalogJobs    int    `json:"catalog_jobs"`
}
