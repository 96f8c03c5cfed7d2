package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
	"github.com/emonupg/essync/internal/core/ports/driving"
	"github.com/emonupg/essync/internal/logger"
)

// Ensure RebuildValidator implements the interface.
var _ driving.RebuildValidator = (*RebuildValidator)(nil)

// maxSampleDocuments bounds the sample_document checks per validation.
const maxSampleDocuments = 5

// RebuildValidator checks a rebuilt index against the content repository.
type RebuildValidator struct {
	content driven.ContentRepository
	engine  driven.SearchEngine
	intN    func(n int) int
}

// NewRebuildValidator creates a validator that samples with math/rand.
func NewRebuildValidator(content driven.ContentRepository, engine driven.SearchEngine) *RebuildValidator {
	return &RebuildValidator{
		content: content,
		engine:  engine,
		intN:    rand.IntN,
	}
}

// WithSampler replaces the random source used to pick sample documents.
// intN must return a value in [0, n).
func (v *RebuildValidator) WithSampler(intN func(n int) int) *RebuildValidator {
	v.intN = intN
	return v
}

// ValidateRebuild checks that index exists, holds exactly as many documents as
// the collection has live records, and contains a random sample of them.
// A missing sample is a failed check; any other retrieval error is returned.
func (v *RebuildValidator) ValidateRebuild(ctx context.Context, collection, index string) (*domain.ValidationResult, error) {
	if collection == "" {
		return nil, domain.ConfigurationError("validate rebuild", "", domain.ErrCollectionRequired)
	}
	result := &domain.ValidationResult{
		Success:        true,
		CollectionName: collection,
		IndexName:      index,
	}

	exists, err := v.engine.IndexExists(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("check index exists: %w", err)
	}
	if !exists {
		result.Add(domain.ValidationCheck{
			Type:    domain.CheckIndexExistence,
			Message: fmt.Sprintf("Index %s does not exist", index),
		})
		return result, nil
	}
	result.Add(domain.ValidationCheck{
		Type:    domain.CheckIndexExistence,
		Passed:  true,
		Message: fmt.Sprintf("Index %s exists", index),
	})

	schema, err := v.content.Schema(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	records, err := v.content.FindMany(ctx, collection, domain.LiveRecordOptions(schema, domain.PopulateFor(schema)))
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	indexCount, err := v.engine.Count(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	repoCount := len(records)
	countCheck := domain.ValidationCheck{
		Type:            domain.CheckDocumentCount,
		Passed:          repoCount == indexCount,
		RepositoryCount: repoCount,
		IndexCount:      indexCount,
	}
	if countCheck.Passed {
		countCheck.Message = fmt.Sprintf("Document count matches: %d documents", repoCount)
	} else {
		countCheck.Message = fmt.Sprintf("Document count mismatch: repository has %d, index has %d", repoCount, indexCount)
	}
	result.Add(countCheck)

	for _, i := range v.samplePositions(len(records)) {
		docID := domain.IndexItemID(collection, records[i].DocumentID())
		_, err := v.engine.GetDocument(ctx, index, docID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			result.Add(domain.ValidationCheck{
				Type:       domain.CheckSampleDocument,
				Message:    fmt.Sprintf("Sample document %s not found in index", docID),
				DocumentID: docID,
			})
		case err != nil:
			return nil, fmt.Errorf("get sample document %s: %w", docID, err)
		default:
			result.Add(domain.ValidationCheck{
				Type:       domain.CheckSampleDocument,
				Passed:     true,
				Message:    fmt.Sprintf("Sample document %s exists in index", docID),
				DocumentID: docID,
			})
		}
	}

	logger.Debug("Validated %s for %s: success=%t, %d checks", index, collection, result.Success, len(result.Checks))
	return result, nil
}

// samplePositions draws min(5, n) times and drops repeated positions,
// so fewer than five samples may be checked.
func (v *RebuildValidator) samplePositions(n int) []int {
	if n == 0 {
		return nil
	}
	draws := min(maxSampleDocuments, n)
	seen := make(map[int]bool, draws)
	positions := make([]int, 0, draws)
	for range draws {
		i := v.intN(n)
		if seen[i] {
			continue
		}
		seen[i] = true
		positions = append(positions, i)
	}
	return positions
}
