package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	filepicker "github.com/droidbridge/go-filepicker"
)

// ErrProvider is the error fake providers raise when scripted to fail
var ErrProvider = errors.New("provider raised")

// ErrScalarArgs is raised when a fake provider scripted to reject the
// scalar argument shape receives one
var ErrScalarArgs = errors.New("filter arguments: sequence expected")

// QueryCall records the arguments of one Query invocation
type QueryCall struct {
	URI        string
	Projection []string
	FilterExpr string
	FilterArgs filepicker.QueryArgs
	SortOrder  string
}

// FakeContentResolver is a scriptable resolution service. Rows and errors
// are stubbed per (uri, projection) pair; every grant, query and open is
// recorded for assertions.
type FakeContentResolver struct {
	lk           sync.Mutex
	rows         map[string]filepicker.RowSet
	queryErrs    map[string]error
	contents     map[string][]byte
	rejectScalar bool
	grantErr     error

	Granted []string
	Queries []QueryCall
	Opened  []string
}

// NewFakeContentResolver returns a new instance of a fake content resolver
func NewFakeContentResolver() *FakeContentResolver {
	return &FakeContentResolver{
		rows:      make(map[string]filepicker.RowSet),
		queryErrs: make(map[string]error),
		contents:  make(map[string][]byte),
	}
}

func queryKey(uri string, projection []string) string {
	return uri + "|" + strings.Join(projection, ",")
}

// StubRows sets the result set returned for queries against uri with the
// given projection
func (f *FakeContentResolver) StubRows(uri string, projection []string, rs filepicker.RowSet) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.rows[queryKey(uri, projection)] = rs
}

// StubQueryError makes queries against uri with the given projection raise
func (f *FakeContentResolver) StubQueryError(uri string, projection []string, err error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.queryErrs[queryKey(uri, projection)] = err
}

// RejectScalarArgs makes any query carrying scalar-shaped filter arguments
// raise, the way providers that only accept the sequence overload do
func (f *FakeContentResolver) RejectScalarArgs() {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.rejectScalar = true
}

// StubGrantError makes permission grants fail
func (f *FakeContentResolver) StubGrantError(err error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.grantErr = err
}

// StubContent sets the bytes streamed for Open(uri)
func (f *FakeContentResolver) StubContent(uri string, data []byte) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.contents[uri] = data
}

// Query implements filepicker.ContentResolver
func (f *FakeContentResolver) Query(ctx context.Context, uri string, projection []string, filterExpr string, filterArgs filepicker.QueryArgs, sortOrder string) (filepicker.RowSet, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.Queries = append(f.Queries, QueryCall{uri, projection, filterExpr, filterArgs, sortOrder})
	if f.rejectScalar && filterArgs.Scalar != "" {
		return filepicker.RowSet{}, ErrScalarArgs
	}
	key := queryKey(uri, projection)
	if err, stubbed := f.queryErrs[key]; stubbed {
		return filepicker.RowSet{}, err
	}
	return f.rows[key], nil
}

// GrantReadPermission implements filepicker.ContentResolver
func (f *FakeContentResolver) GrantReadPermission(uri string) error {
	f.lk.Lock()
	defer f.lk.Unlock()
	if f.grantErr != nil {
		return f.grantErr
	}
	f.Granted = append(f.Granted, uri)
	return nil
}

// Open implements filepicker.ContentResolver
func (f *FakeContentResolver) Open(uri string) (io.ReadCloser, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.Opened = append(f.Opened, uri)
	data, stubbed := f.contents[uri]
	if !stubbed {
		return nil, ErrProvider
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ filepicker.ContentResolver = &FakeContentResolver{}
