package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/justsurfingit/job-recommender/internal/dtos"
	"github.com/justsurfingit/job-recommender/internal/models"
	"github.com/justsurfingit/job-recommender/internal/vectorindex"
)

// catalog is an uploaded dataset kept indexed between requests.
type catalog struct {
	snap     *vectorindex.Snapshot
	listings []models.JobListing
}

// LoadCatalog indexes a dataset so later prompts can be answered without resubmitting it.
func (s *RecommendService) LoadCatalog(ctx context.Context, listings []models.JobListing) (*dtos.DatasetUploadResponse, error) {
	if len(listings) == 0 {
		return nil, ErrNoJobs
	}

	texts, ids := listingTexts(listings)
	snap, err := s.EnsureIndex(ctx, s.catalogStore, texts, ids, listings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.catalog = &catalog{snap: snap, listings: listings}
	s.mu.Unlock()

	log.Printf("✅ Catalog ready with %d jobs", len(listings))
	return &dtos.DatasetUploadResponse{JobsIndexed: len(listings), Fingerprint: snap.Fingerprint}, nil
}

// LoadCatalogFile reads a JSON dataset, either a bare array of listings or {"jobs": [...]}.
func (s *RecommendService) LoadCatalogFile(ctx context.Context, path string) (*dtos.DatasetUploadResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var listings []models.JobListing
	if err := json.Unmarshal(data, &listings); err != nil {
		var wrapped dtos.DatasetUploadRequest
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
		listings = wrapped.Jobs
	}
	return s.LoadCatalog(ctx, listings)
}

// RestoreCatalog picks up the catalog persisted by a previous run, if any.
func (s *RecommendService) RestoreCatalog() error {
	snap, err := s.catalogStore.Load()
	if err != nil {
		return err
	}
	var listings []models.JobListing
	if err := json.Unmarshal(snap.Jobs, &listings); err != nil {
		return fmt.Errorf("%w: master data: %w", vectorindex.ErrCacheMiss, err)
	}
	if len(listings) != snap.Index.Len() {
		return fmt.Errorf("%w: master data has %d jobs, index has %d", vectorindex.ErrCacheMiss, len(listings), snap.Index.Len())
	}

	s.mu.Lock()
	s.catalog = &catalog{snap: snap, listings: listings}
	s.mu.Unlock()
	return nil
}

// CatalogSize is the number of jobs in the loaded catalog, 0 when none is loaded.
func (s *RecommendService) CatalogSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return 0
	}
	return len(s.catalog.listings)
}

// RecommendFromCatalog answers a prompt against the loaded catalog.
func (s *RecommendService) RecommendFromCatalog(ctx context.Context, req *dtos.CatalogRecommendationRequest) (*dtos.PromptRecommendationResponse, error) {
	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()
	if cat == nil {
		return nil, ErrNoCatalog
	}
	return s.rankListings(ctx, cat.snap, cat.listings, req.Prompt, req.Location)
}

// IsCacheMiss reports whether err only means nothing usable was on disk.
func IsCacheMiss(err error) bool {
	return errors.Is(err, vectorindex.ErrCacheMiss)
}
