package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/job-recommender/internal/dtos"
	"github.com/justsurfingit/job-recommender/internal/formatter"
	"github.com/justsurfingit/job-recommender/internal/models"
	"github.com/justsurfingit/job-recommender/internal/services"
	"github.com/justsurfingit/job-recommender/internal/vectorindex"
)

const (
	msgNoJobs      = "No jobs provided for recommendation"
	msgUnavailable = "Recommendation service is temporarily unavailable. Please try again later."
	msgDegenerate  = "Could not build a usable embedding for this query. Please add more detail."
)

type RecommendHandler struct {
	RecommendService *services.RecommendService
	HistoryService   *services.HistoryService
}

func NewRecommendHandler(r *services.RecommendService, h *services.HistoryService) *RecommendHandler {
	return &RecommendHandler{
		RecommendService: r,
		HistoryService:   h,
	}
}

// RecommendForProfile is the POST /recommend_jobs endpoint
func (h *RecommendHandler) RecommendForProfile(c *gin.Context) {
	var req dtos.ProfileRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}

	resp, err := h.RecommendService.RecommendForProfile(c.Request.Context(), &req)
	results := 0
	if resp != nil {
		results = resp.ResultsFound
	}
	h.record(c, formatter.ProfileQuery(req.UserProfile), len(req.Jobs), results, err)

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, services.ErrNoJobs):
		h.fail(c, http.StatusBadRequest, msgNoJobs)
	case errors.Is(err, services.ErrNoSearchResults), errors.Is(err, services.ErrNoMatches):
		h.fail(c, http.StatusNotFound, fmt.Sprintf(
			"No suitable jobs found for location '%s'. Try changing your location or job roles.",
			req.UserProfile.Location))
	default:
		h.failInternal(c, err)
	}
}

// RecommendForPrompt is the POST /recommend-jobs endpoint
func (h *RecommendHandler) RecommendForPrompt(c *gin.Context) {
	var req dtos.PromptRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}

	resp, err := h.RecommendService.RecommendForPrompt(c.Request.Context(), &req)
	h.respondListings(c, req.Prompt, len(req.Jobs), resp, err)
}

// UploadDataset is the POST /api/v1/datasets endpoint
func (h *RecommendHandler) UploadDataset(c *gin.Context) {
	var req dtos.DatasetUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}

	resp, err := h.RecommendService.LoadCatalog(c.Request.Context(), req.Jobs)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, services.ErrNoJobs):
		h.fail(c, http.StatusBadRequest, msgNoJobs)
	default:
		h.failInternal(c, err)
	}
}

// RecommendFromCatalog is the POST /api/v1/datasets/recommend endpoint
func (h *RecommendHandler) RecommendFromCatalog(c *gin.Context) {
	var req dtos.CatalogRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}

	resp, err := h.RecommendService.RecommendFromCatalog(c.Request.Context(), &req)
	if errors.Is(err, services.ErrNoCatalog) {
		h.fail(c, http.StatusNotFound, "No job dataset has been uploaded yet")
		return
	}
	h.respondListings(c, req.Prompt, h.RecommendService.CatalogSize(), resp, err)
}

func (h *RecommendHandler) respondListings(c *gin.Context, prompt string, jobs int, resp *dtos.PromptRecommendationResponse, err error) {
	results := 0
	if resp != nil {
		results = len(resp.Recommendations)
	}
	h.record(c, prompt, jobs, results, err)

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, services.ErrNoJobs):
		h.fail(c, http.StatusBadRequest, msgNoJobs)
	default:
		h.failInternal(c, err)
	}
}

// HealthCheck is the GET /api/v1/health endpoint
func (h *RecommendHandler) HealthCheck(c *gin.Context) {
	cfg := h.RecommendService.Config
	c.JSON(http.StatusOK, dtos.HealthResponse{
		Status:         "ok",
		IndexType:      cfg.IndexType,
		EmbeddingModel: h.RecommendService.Embedder.Model(),
		CatalogJobs:    h.RecommendService.CatalogSize(),
	})
}

// History is the GET /api/v1/recommendations/history endpoint
func (h *RecommendHandler) History(c *gin.Context) {
	limit := services.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := h.HistoryService.Recent(c.Request.Context(), limit)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"history": logs})
	case errors.Is(err, services.ErrHistoryDisabled):
		h.fail(c, http.StatusNotFound, "Recommendation history is disabled")
	default:
		h.failInternal(c, err)
	}
}

func (h *RecommendHandler) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, dtos.ErrorResponse{Error: msg, RequestID: requestID(c)})
}

// failInternal logs the real cause and answers with a generic message.
func (h *RecommendHandler) failInternal(c *gin.Context, err error) {
	if errors.Is(err, vectorindex.ErrDegenerateVector) {
		h.fail(c, http.StatusUnprocessableEntity, msgDegenerate)
		return
	}
	if errors.Is(err, services.ErrEmptyQuery) {
		h.fail(c, http.StatusBadRequest, "Prompt must not be empty")
		return
	}
	log.Printf("❌ [%s] %s %s failed: %v", requestID(c), c.Request.Method, c.FullPath(), err)
	h.fail(c, http.StatusServiceUnavailable, msgUnavailable)
}

func (h *RecommendHandler) record(c *gin.Context, query string, jobs, results int, err error) {
	entry := &models.RecommendationLog{
		RequestID:     requestID(c),
		Route:         c.FullPath(),
		Query:         query,
		JobsSubmitted: jobs,
		ResultsFound:  results,
		Outcome:       outcome(err, results),
	}
	if err := h.HistoryService.Record(c.Request.Context(), entry); err != nil {
		log.Printf("⚠️  Failed to record recommendation history: %v", err)
	}
}

func outcome(err error, results int) string {
	switch {
	case err == nil && results == 0:
		return "no_match"
	case err == nil:
		return "ok"
	case errors.Is(err, services.ErrNoJobs):
		return "no_jobs"
	case errors.Is(err, services.ErrNoSearchResults):
		return "no_results"
	case errors.Is(err, services.ErrNoMatches):
		return "no_match"
	case errors.Is(err, vectorindex.ErrDegenerateVector):
		return "degenerate_query"
	default:
		return "error"
	}
}
