package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/justsurfingit/job-recommender/internal/config"
	"github.com/justsurfingit/job-recommender/internal/dtos"
	"github.com/justsurfingit/job-recommender/internal/embedding"
	"github.com/justsurfingit/job-recommender/internal/formatter"
	"github.com/justsurfingit/job-recommender/internal/models"
	"github.com/justsurfingit/job-recommender/internal/vectorindex"
)

type RecommendService struct {
	Config   *config.Config
	Embedder embedding.Embedder
	// Store holds the index of the most recent per-request job list.
	Store *vectorindex.Store

	catalogStore *vectorindex.Store
	rebuilds     singleflight.Group

	mu      sync.RWMutex
	catalog *catalog
}

func NewRecommendService(cfg *config.Config, embedder embedding.Embedder) *RecommendService {
	return &RecommendService{
		Config:   cfg,
		Embedder: embedder,
		Store: vectorindex.NewStore(vectorindex.Paths{
			Index:      cfg.IndexPath(),
			Mapping:    cfg.MappingPath(),
			MasterData: cfg.MasterDataPath(),
		}),
		catalogStore: vectorindex.NewStore(vectorindex.Paths{
			Index:      filepath.Join(cfg.CatalogDir(), cfg.IndexFile),
			Mapping:    filepath.Join(cfg.CatalogDir(), cfg.MappingFile),
			MasterData: filepath.Join(cfg.CatalogDir(), cfg.MasterDataFile),
		}),
	}
}

// Fingerprint identifies an index build: same model, index layout and texts give the same value.
func (s *RecommendService) Fingerprint(texts []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00", s.Embedder.Model(), s.Config.IndexType, s.Config.EmbeddingDim)
	if s.Config.IndexType == config.IndexPQ {
		fmt.Fprintf(h, "pq%d\x00", s.Config.PQSubvectors)
	}
	for _, t := range texts {
		fmt.Fprintf(h, "%d:%s\x00", len(t), t)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EnsureIndex returns a snapshot for texts, reusing the one on disk when its fingerprint
// matches. Otherwise it embeds, builds and saves. Concurrent calls for the same build
// share one rebuild.
func (s *RecommendService) EnsureIndex(ctx context.Context, store *vectorindex.Store, texts, ids []string, records any) (*vectorindex.Snapshot, error) {
	fp := s.Fingerprint(texts)

	v, err, shared := s.rebuilds.Do(store.Paths().Index+"|"+fp, func() (any, error) {
		snap, err := store.Load()
		if err == nil && snap.Fingerprint == fp {
			log.Printf("✅ Reusing cached index (%d jobs)", snap.Index.Len())
			return snap, nil
		}
		if err != nil {
			log.Printf("Index cache miss: %v", err)
		} else {
			log.Printf("Index cache miss: job list changed")
		}

		// a caller that goes away must not fail the others waiting on this build
		buildCtx := context.WithoutCancel(ctx)
		return s.buildSnapshot(buildCtx, store, fp, texts, ids, records)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("Index build for %s shared between concurrent requests", fp[:12])
	}
	return v.(*vectorindex.Snapshot), nil
}

func (s *RecommendService) buildSnapshot(ctx context.Context, store *vectorindex.Store, fp string, texts, ids []string, records any) (*vectorindex.Snapshot, error) {
	start := time.Now()
	vectors, err := s.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &StageError{Stage: StageEmbedJobs, Err: err}
	}
	log.Printf("Embedded %d jobs in %v", len(texts), time.Since(start).Round(time.Millisecond))

	idx, err := vectorindex.Build(vectorindex.Kind(s.Config.IndexType), s.Config.EmbeddingDim, vectors, vectorindex.Options{
		Subvectors: s.Config.PQSubvectors,
	})
	if err != nil {
		return nil, &StageError{Stage: StageBuildIndex, Err: err}
	}

	jobs, err := json.Marshal(records)
	if err != nil {
		return nil, &StageError{Stage: StageBuildIndex, Err: fmt.Errorf("encode jobs: %w", err)}
	}
	mapping := make([]vectorindex.MappingRow, len(texts))
	for i := range texts {
		mapping[i] = vectorindex.MappingRow{Row: i, Position: i, JobID: ids[i]}
	}

	snap := &vectorindex.Snapshot{Fingerprint: fp, Index: idx, Mapping: mapping, Jobs: jobs}
	if err := store.Save(snap); err != nil {
		// the in-memory index still answers this request
		log.Printf("⚠️  Failed to persist index: %v", err)
	}
	return snap, nil
}

// Search embeds query and returns at most k hits from idx.
func (s *RecommendService) Search(ctx context.Context, idx vectorindex.Index, query string, k int) ([]vectorindex.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	q, err := s.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &StageError{Stage: StageEmbedQuery, Err: err}
	}
	hits, err := idx.Search(q, k)
	if err != nil {
		return nil, &StageError{Stage: StageSearch, Err: err}
	}
	return hits, nil
}

// RecommendForProfile ranks structured jobs against a user profile. Jobs outside the user's
// city are dropped, as are jobs below MinScore when it is set.
func (s *RecommendService) RecommendForProfile(ctx context.Context, req *dtos.ProfileRecommendationRequest) (*dtos.ProfileRecommendationResponse, error) {
	if len(req.Jobs) == 0 {
		return nil, ErrNoJobs
	}
	start := time.Now()

	texts := make([]string, len(req.Jobs))
	ids := make([]string, len(req.Jobs))
	for i, job := range req.Jobs {
		texts[i] = formatter.Job(job)
		ids[i] = job.ID
		if ids[i] == "" {
			ids[i] = strconv.Itoa(i)
		}
	}

	snap, err := s.EnsureIndex(ctx, s.Store, texts, ids, req.Jobs)
	if err != nil {
		return nil, err
	}

	query := formatter.ProfileQuery(req.UserProfile)
	hits, err := s.Search(ctx, snap.Index, query, vectorindex.DefaultK)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNoSearchResults
	}

	matched := make([]models.Job, 0, len(hits))
	for _, hit := range hits {
		pos := snap.Mapping[hit.Row].Position
		if pos >= len(req.Jobs) {
			continue
		}
		job := req.Jobs[pos]
		if !meetsThreshold(hit.Score, req.MinScore) || !matchesLocation(req.UserProfile.Location, job.Location.City) {
			continue
		}
		matched = append(matched, job)
	}
	if len(matched) == 0 {
		return nil, ErrNoMatches
	}

	log.Printf("Job Recommendation took %v (%d of %d hits kept)", time.Since(start).Round(time.Millisecond), len(matched), len(hits))
	return &dtos.ProfileRecommendationResponse{
		Prompt:          query,
		ResultsFound:    len(matched),
		Recommendations: matched,
	}, nil
}

// RecommendForPrompt ranks listings against a free-text prompt. Listings scoring below the
// configured threshold are dropped; an empty result is not an error.
func (s *RecommendService) RecommendForPrompt(ctx context.Context, req *dtos.PromptRecommendationRequest) (*dtos.PromptRecommendationResponse, error) {
	if len(req.Jobs) == 0 {
		return nil, ErrNoJobs
	}

	texts, ids := listingTexts(req.Jobs)
	snap, err := s.EnsureIndex(ctx, s.Store, texts, ids, req.Jobs)
	if err != nil {
		return nil, err
	}
	return s.rankListings(ctx, snap, req.Jobs, req.Prompt, req.Location)
}

func (s *RecommendService) rankListings(ctx context.Context, snap *vectorindex.Snapshot, listings []models.JobListing, prompt, location string) (*dtos.PromptRecommendationResponse, error) {
	hits, err := s.Search(ctx, snap.Index, prompt, vectorindex.DefaultK)
	if err != nil {
		return nil, err
	}

	threshold := s.Config.SimilarityThreshold
	out := make([]dtos.ScoredListing, 0, len(hits))
	for _, hit := range hits {
		pos := snap.Mapping[hit.Row].Position
		if pos >= len(listings) {
			continue
		}
		l := listings[pos]
		if !meetsThreshold(hit.Score, &threshold) || !matchesLocation(location, l.Location) {
			continue
		}
		out = append(out, dtos.ScoredListing{JobListing: l, SimilarityScore: float64(hit.Score)})
	}
	log.Printf("Filtered down to %d jobs above threshold %.2f", len(out), threshold)
	return &dtos.PromptRecommendationResponse{Recommendations: out}, nil
}

func listingTexts(listings []models.JobListing) (texts, ids []string) {
	texts = make([]string, len(listings))
	ids = make([]string, len(listings))
	for i, l := range listings {
		texts[i] = formatter.Listing(l)
		ids[i] = strconv.Itoa(i)
	}
	return texts, ids
}
