// Package elastic implements driven.SearchEngine on top of Elasticsearch 7
// using github.com/olivere/elastic/v7.
//
// Index, alias and document operations are idempotent where the port requires
// it: creating an existing index, deleting an absent index and deleting an
// absent document all succeed. Transport failures are reported as
// connectivity errors so callers can tell an unreachable cluster from a
// rejected request.
package elastic
