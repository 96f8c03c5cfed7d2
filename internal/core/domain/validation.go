package domain

// CheckType identifies a validation check.
type CheckType string

// Validation check types.
const (
	CheckIndexExistence CheckType = "index_existence"
	CheckDocumentCount  CheckType = "document_count"
	CheckSampleDocument CheckType = "sample_document"
)

// ValidationCheck is the outcome of a single check.
type ValidationCheck struct {
	Type    CheckType `json:"type"`
	Passed  bool      `json:"passed"`
	Message string    `json:"message"`

	// RepositoryCount and IndexCount are set on document_count checks.
	RepositoryCount int `json:"repositoryCount,omitempty"`
	IndexCount      int `json:"indexCount,omitempty"`

	// DocumentID is set on sample_document checks.
	DocumentID string `json:"documentId,omitempty"`
}

// ValidationResult is the post-rebuild correctness report.
type ValidationResult struct {
	Success        bool              `json:"success"`
	CollectionName string            `json:"collectionName"`
	IndexName      string            `json:"indexName"`
	Checks         []ValidationCheck `json:"checks"`

	// Error is set when validation itself could not run to completion.
	Error string `json:"error,omitempty"`
}

// Add records a check and folds it into Success.
func (r *ValidationResult) Add(check ValidationCheck) {
	r.Checks = append(r.Checks, check)
	if !check.Passed {
		r.Success = false
	}
}

// ChecksOfType returns the checks of one type in recorded order.
func (r *ValidationResult) ChecksOfType(t CheckType) []ValidationCheck {
	var out []ValidationCheck
	for _, c := range r.Checks {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// RebuildResult is the outcome of rebuilding one collection.
type RebuildResult struct {
	Success        bool              `json:"success"`
	CollectionName string            `json:"collectionName"`
	NewIndexName   string            `json:"newIndexName,omitempty"`
	OldIndexName   string            `json:"oldIndexName,omitempty"`
	Validation     *ValidationResult `json:"validation,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// FullRebuildResult is the outcome of rebuilding every configured collection.
type FullRebuildResult struct {
	Success bool            `json:"success"`
	Results []RebuildResult `json:"results"`
}

// Counts returns the number of succeeded and failed collections.
func (r *FullRebuildResult) Counts() (succeeded, failed int) {
	for _, res := range r.Results {
		if res.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
