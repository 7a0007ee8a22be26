package services

import (
	"errors"
	"fmt"
)

// Pipeline stages named in StageError.
const (
	StageEmbedJobs  = "embed_jobs"
	StageBuildIndex = "build_index"
	StageEmbedQuery = "embed_query"
	StageSearch     = "search"
)

var (
	ErrNoJobs          = errors.New("no jobs provided for recommendation")
	ErrEmptyQuery      = errors.New("query text is empty")
	ErrNoSearchResults = errors.New("similarity search returned no results")
	ErrNoMatches       = errors.New("no job passed the filters")
	ErrNoCatalog       = errors.New("no job catalog loaded")
)

// StageError records which step of a recommendation failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
