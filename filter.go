package doclite

import (
	"sort"
	"strings"
)

// Document is a schemaless document as stored in a collection.
type Document = map[string]any

// Filter selects rows by exact equality on document fields. Keys
// address fields inside the stored JSON document; nested fields use a
// dotted path ("a.b.c") or the double-underscore form ("a__b__c").
// Values are always bound as statement parameters.
type Filter map[string]any

// jsonPath rewrites a filter key to a JSON path accessor.
func jsonPath(key string) string {
	return "$." + strings.ReplaceAll(key, "__", ".")
}

// sortedKeys keeps the generated SQL text deterministic for a given
// filter, which matters for debugging, not correctness.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildWhere renders f as a WHERE clause over the data column, one
// parameterized equality term per entry, AND-joined. Each term binds
// the JSON path first, then the target value. A limit greater than
// zero appends a LIMIT clause with the count bound as a parameter.
// An empty filter yields an empty clause; rejecting that where it is
// not allowed is the caller's job.
func buildWhere(limit int, f Filter) (string, []any) {
	var (
		clause strings.Builder
		args   []any
	)
	if len(f) > 0 {
		clause.WriteString(" WHERE ")
		for i, k := range sortedKeys(f) {
			if i > 0 {
				clause.WriteString(" AND ")
			}
			clause.WriteString("data->>? = ?")
			args = append(args, jsonPath(k), f[k])
		}
	}
	if limit > 0 {
		clause.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	return clause.String(), args
}

// buildSet renders fields as a json_set patch of the data column. Only
// the addressed paths are touched; the rest of the stored document is
// left as is. Values must already be JSON text; json() turns each one
// back into a JSON value, so booleans stay booleans and objects patch
// in as objects rather than escaped strings.
func buildSet(fields map[string]any) (string, []any) {
	var clause strings.Builder
	clause.WriteString("SET data = json_set(data")
	args := make([]any, 0, len(fields)*2)
	for _, k := range sortedKeys(fields) {
		clause.WriteString(", ?, json(?)")
		args = append(args, jsonPath(k), fields[k])
	}
	clause.WriteString(")")
	return clause.String(), args
}
