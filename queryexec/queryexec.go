package queryexec

import (
	"context"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	filepicker "github.com/droidbridge/go-filepicker"
)

var log = logging.Logger("fp-queryexec")

// QuerySpec describes one value lookup across an ordered set of candidate
// root locators. Candidates are tried in order and the first non-empty value
// wins. With AggregateAll set the projection is ignored and every column of
// every returned row is joined with "/" as a last-resort composite value.
type QuerySpec struct {
	CandidateRoots []string
	Projection     []string
	FilterExpr     string
	FilterArgs     filepicker.QueryArgs
	SortOrder      string
	AggregateAll   bool
}

// Executor runs query specs against the generic resolution service
type Executor struct {
	resolver filepicker.ContentResolver
}

// NewExecutor returns an executor backed by the given resolver
func NewExecutor(resolver filepicker.ContentResolver) *Executor {
	return &Executor{resolver: resolver}
}

// Execute runs the spec's candidates in order. A provider error on one
// candidate does not abort execution; the next candidate is tried. The
// returned error is non-nil only when no candidate produced a value and at
// least one raised, so single-candidate callers can distinguish a provider
// rejection from an empty result.
func (e *Executor) Execute(ctx context.Context, spec QuerySpec) (string, bool, error) {
	var lastErr error
	for _, root := range spec.CandidateRoots {
		if err := e.resolver.GrantReadPermission(root); err != nil {
			log.Warnf("granting read permission on %s: %s", root, err)
			lastErr = err
			continue
		}
		rows, err := e.resolver.Query(ctx, root, spec.Projection, spec.FilterExpr, spec.FilterArgs, spec.SortOrder)
		if err != nil {
			log.Warnf("querying %s: %s", root, err)
			lastErr = err
			continue
		}
		var value string
		var found bool
		if spec.AggregateAll {
			value, found = aggregateAll(rows)
		} else {
			value, found = firstValue(rows, spec.Projection)
		}
		if found {
			return value, true, nil
		}
		log.Debugf("candidate %s produced no value", root)
	}
	return "", false, lastErr
}

// firstValue returns the first row's value for the first projected column
// that the provider actually returned
func firstValue(rows filepicker.RowSet, projection []string) (string, bool) {
	if len(projection) == 0 {
		return "", false
	}
	idx := rows.ColumnIndex(projection[0])
	if idx == -1 {
		return "", false
	}
	for _, row := range rows.Rows {
		if idx < len(row) && row[idx] != "" {
			return row[idx], true
		}
	}
	return "", false
}

// aggregateAll joins every column value of every row in row/column order
func aggregateAll(rows filepicker.RowSet) (string, bool) {
	if rows.Empty() {
		return "", false
	}
	var values []string
	for _, row := range rows.Rows {
		values = append(values, row...)
	}
	joined := strings.Join(values, "/")
	return joined, joined != ""
}
