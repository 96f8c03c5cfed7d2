package domain

import "time"

// CollectionIndexRecord maps a collection to its live physical index.
// It is written only after an alias swap succeeds.
type CollectionIndexRecord struct {
	// CollectionName is the unique key, e.g. "api::article.article".
	CollectionName string

	// CurrentIndexName is the physical index the alias points at, e.g. "search-plugin-article-article-index_003".
	CurrentIndexName string

	// Version is the numeric suffix of CurrentIndexName.
	Version int

	// AliasName is CollectionAlias(CollectionName).
	AliasName string

	// LastRebuiltAt is when the alias was last moved.
	LastRebuiltAt time.Time
}

// NewCollectionIndexRecord builds a registry record for a freshly swapped index.
func NewCollectionIndexRecord(collection, indexName string, rebuiltAt time.Time) CollectionIndexRecord {
	return CollectionIndexRecord{
		CollectionName:   collection,
		CurrentIndexName: indexName,
		Version:          ParseIndexVersion(indexName),
		AliasName:        CollectionAlias(collection),
		LastRebuiltAt:    rebuiltAt,
	}
}

// ContentRecord is one entry from the content repository.
// Values are JSON-shaped: strings, numbers, bools, nil, []any and map[string]any.
type ContentRecord map[string]any

// DocumentIDKey is the stable item identifier of every content record.
const DocumentIDKey = "documentId"

// ComponentKey tags elements of dynamic-zone lists with their component type.
const ComponentKey = "__component"

// DocumentID returns the record's stable identifier, or "" when absent.
func (r ContentRecord) DocumentID() string {
	switch v := r[DocumentIDKey].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return toString(v)
	}
}

// Document is a flat search document ready for indexing.
type Document map[string]any

// AttributeType is the schema type of a content attribute.
type AttributeType string

// Attribute types that influence population.
const (
	AttributeComponent   AttributeType = "component"
	AttributeDynamicZone AttributeType = "dynamiczone"
	AttributeMedia       AttributeType = "media"
	AttributeRelation    AttributeType = "relation"
	AttributeScalar      AttributeType = "scalar"
)

// AttributeSchema describes one attribute of a collection or component.
type AttributeSchema struct {
	Type AttributeType

	// Component is the component uid for AttributeComponent.
	Component string

	// Components lists allowed component uids for AttributeDynamicZone.
	Components []string
}

// CollectionSchema describes a content collection.
type CollectionSchema struct {
	// Name is the collection uid.
	Name string

	// DraftPublish is true when only published records are searchable.
	DraftPublish bool

	// Attributes maps attribute names to their schema.
	Attributes map[string]AttributeSchema

	// Components holds the attribute schema of every component the collection references.
	Components map[string]map[string]AttributeSchema
}

// PublicationStatus filters records by draft/publish state.
type PublicationStatus string

// Publication statuses.
const (
	StatusAny       PublicationStatus = ""
	StatusPublished PublicationStatus = "published"
)

// FindOptions configures a content repository query.
type FindOptions struct {
	// Sort is a "field:direction" expression, e.g. "createdAt:desc".
	Sort string

	// Populate is the opaque nested population spec.
	Populate map[string]any

	// Status filters by publication state.
	Status PublicationStatus
}

// LiveRecordsSort orders records newest first.
const LiveRecordsSort = "createdAt:desc"

// LiveRecordOptions returns the query used for bulk indexing and validation:
// newest first, published only for draft/publish collections.
func LiveRecordOptions(schema *CollectionSchema, populate map[string]any) FindOptions {
	opts := FindOptions{Sort: LiveRecordsSort, Populate: populate}
	if schema != nil && schema.DraftPublish {
		opts.Status = StatusPublished
	}
	return opts
}

// IndexItemID is the search document id of a record. Each collection has its
// own index, so the record's document id is used as is.
func IndexItemID(_ string, documentID string) string {
	return documentID
}
