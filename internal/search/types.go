// File path: internal/search/types.go
package search

// Request and response shapes for the backend's _search API. Only the
// fragments this service issues are modeled: term filters, bool/must
// combinations, a terms aggregation, size capping, and field sorts.

type SearchRequest struct {
	Query *Query                 `json:"query,omitempty"`
	Aggs  map[string]Aggregation `json:"aggs,omitempty"`
	Size  *int                   `json:"size,omitempty"`
	Sort  []map[string]SortOrder `json:"sort,omitempty"`
}

type Query struct {
	Term map[string]string `json:"term,omitempty"`
	Bool *BoolQuery        `json:"bool,omitempty"`
}

type BoolQuery struct {
	Must []Query `json:"must,omitempty"`
}

type Aggregation struct {
	Terms *TermsAggregation `json:"terms,omitempty"`
}

type TermsAggregation struct {
	Field string `json:"field"`
	Size  int    `json:"size"`
}

type SortOrder struct {
	Order string `json:"order"`
}

// TermQuery builds an exact-match filter on a single keyword field.
func TermQuery(field, value string) *Query {
	return &Query{Term: map[string]string{field: value}}
}

// MustQuery combines clauses into a bool query whose clauses all have to
// match.
func MustQuery(clauses ...*Query) *Query {
	must := make([]Query, 0, len(clauses))
	for _, clause := range clauses {
		if clause == nil {
			continue
		}
		must = append(must, *clause)
	}
	return &Query{Bool: &BoolQuery{Must: must}}
}

// TermsAgg builds a terms aggregation over field, bounded to size buckets.
func TermsAgg(field string, size int) Aggregation {
	return Aggregation{Terms: &TermsAggregation{Field: field, Size: size}}
}

// SortDesc builds a descending sort clause on field.
func SortDesc(field string) map[string]SortOrder {
	return map[string]SortOrder{field: {Order: "desc"}}
}

// Size returns a pointer suitable for SearchRequest.Size.
func Size(n int) *int {
	return &n
}

type SearchResponse struct {
	Hits         HitsSection                  `json:"hits"`
	Aggregations map[string]AggregationResult `json:"aggregations"`
}

type HitsSection struct {
	Hits []Hit `json:"hits"`
}

type Hit struct {
	ID     string   `json:"_id"`
	Source Document `json:"_source"`
}

type AggregationResult struct {
	Buckets []TermBucket `json:"buckets"`
}

// TermBucket is one row of a terms aggregation: a distinct field value and
// the number of documents carrying it.
type TermBucket struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

// Document is a captured query-telemetry record as stored by the receiver.
// IsPlanQuery discriminates plan captures ("yes") from statement captures
// ("no").
type Document struct {
	QueryHash   string `json:"query_hash"`
	IsPlanQuery string `json:"isplanquery"`
	Statement   string `json:"statement,omitempty"`
	QueryPlan   string `json:"query_plan,omitempty"`
	Timestamp   string `json:"@timestamp,omitempty"`
}
