package filepicker

import (
	"context"
	"fmt"
	"io"
)

type errorString string

func (es errorString) Error() string {
	return string(es)
}

// ErrListenerBound indicates a second attempt to bind the process-wide
// result listener
const ErrListenerBound = errorString("result listener already bound")

// ErrTokenInUse indicates a freshly issued token collided with a live
// operation
const ErrTokenInUse = errorString("token already held by a live operation")

// ErrOperationNotFound indicates the given token maps to no live operation
const ErrOperationNotFound = errorString("no operation for this token")

// ErrNoResult indicates every resolution stage for a locator came up empty
const ErrNoResult = errorString("locator could not be resolved")

// Token is the correlation key matching a later asynchronous result to the
// operation that requested it. Tokens are unique among live operations.
type Token uint64

func (t Token) String() string {
	return fmt.Sprintf("op-%d", uint64(t))
}

// Kind is the kind of pick operation requested
type Kind int

const (
	// KindOpen asks the picker to select one or more existing documents
	KindOpen Kind = iota

	// KindSave asks for a writable destination path
	KindSave
)

// Kinds are human readable names for operation kinds
var Kinds = map[Kind]string{
	KindOpen: "Open",
	KindSave: "Save",
}

// ResultStatus is the completion status carried by a delivered result
type ResultStatus int

const (
	// ResultOK means the picker completed with a selection
	ResultOK ResultStatus = iota

	// ResultCancelled means the user dismissed the picker
	ResultCancelled
)

// ResultStatuses are human readable names for result statuses
var ResultStatuses = map[ResultStatus]string{
	ResultOK:        "OK",
	ResultCancelled: "Cancelled",
}

// Payload is the ordered list of raw locator references carried by one
// delivered result, one per selected item
type Payload []string

// Path is a resolved filesystem location for one selected item
type Path string

// Selection is the ordered outcome of resolving one payload. It always has
// the payload's cardinality and order; an entry is nil when that item could
// not be resolved.
type Selection []*Path

// NewPath returns a selection entry for the given location
func NewPath(location string) *Path {
	p := Path(location)
	return &p
}

// SelectionCallback receives the final resolved selection for an operation.
// It is invoked at most once per operation.
type SelectionCallback func(Selection)

// ResultListener receives every asynchronous result delivered in the
// process, not only results belonging to this system
type ResultListener func(token Token, status ResultStatus, payload Payload)

// ResultSource is the host primitive for binding the single global result
// listener. Implementations must reject a second binding with
// ErrListenerBound.
type ResultSource interface {
	BindResultListener(listener ResultListener) error
}

// PickerLauncher invokes the host's native chooser. The launch is
// fire-and-forget: the eventual result arrives through the ResultSource
// carrying the same token.
type PickerLauncher interface {
	LaunchPicker(ctx context.Context, kind Kind, mimeFilter string, allowMultiple bool, token Token) error
}

// QueryArgs carries selection arguments in one of the two shapes the host
// query call accepts. Providers differ in which shape they tolerate: some
// reject the scalar shape with a provider error, so callers retry with the
// wrapped shape.
type QueryArgs struct {
	Scalar  string
	Wrapped []string
}

// Empty returns true when no argument is set in either shape
func (a QueryArgs) Empty() bool {
	return a.Scalar == "" && a.Wrapped == nil
}

// RowSet is a snapshot of one provider query result. Column order is
// significant for aggregate-all resolution.
type RowSet struct {
	Columns []string
	Rows    [][]string
}

// Empty returns true when the result set holds no rows
func (rs RowSet) Empty() bool {
	return len(rs.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1 when the
// provider did not return it
func (rs RowSet) ColumnIndex(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ContentResolver is the generic content-resolution primitive. Query and
// GrantReadPermission map onto the host resolver; Open streams the bytes
// behind a locator for cache materialization.
type ContentResolver interface {
	Query(ctx context.Context, uri string, projection []string, filterExpr string, filterArgs QueryArgs, sortOrder string) (RowSet, error)

	// GrantReadPermission grants this application read access to the given
	// locator. Idempotent, safe to repeat.
	GrantReadPermission(uri string) error

	Open(uri string) (io.ReadCloser, error)
}

// StorageRoots exposes the storage locations resolution composes paths
// against
type StorageRoots interface {
	// PrimaryRoot is the app-visible primary shared storage root
	PrimaryRoot() string

	// DocumentsDirName is the name of the documents subdirectory under the
	// primary root
	DocumentsDirName() string

	// PublicDownloadsRoot is the shared public downloads directory
	PublicDownloadsRoot() string

	// RemovableRoots lists mounted removable media roots
	RemovableRoots() []string

	// AppCacheDir is the application-private external cache directory
	AppCacheDir() string

	// AppDocumentsDir is the application's documents directory used for
	// save destinations
	AppDocumentsDir() string
}

// Platform reports host platform facts that change resolution behavior
type Platform interface {
	APIVersion() int
}

// ScopedStorageMinAPI is the first API version that enforces scoped storage
// access. At or above it, selected content must be copied into the
// app-private cache before direct filesystem access is permitted.
const ScopedStorageMinAPI = 29

// Manager is the public surface of the file picker bridge
type Manager interface {
	// Open registers a pick operation and launches the picker. The callback
	// is invoked at most once, with one entry per selected item in
	// selection order. If the picker never returns a result the callback
	// never fires (bound by the configured TTL, if any).
	Open(ctx context.Context, mimeFilter string, multiple bool, cb SelectionCallback) (Token, error)

	// Save composes a deterministic writable path under the app documents
	// directory and invokes the callback synchronously with a single-entry
	// selection. No picker launch or correlation is involved.
	Save(cb SelectionCallback) error

	// Cancel withdraws a live operation. Its callback will never fire.
	Cancel(token Token) error

	// OutstandingTokens lists tokens with a live operation
	OutstandingTokens() []Token

	// SubscribeToEvents observes operation lifecycle events
	SubscribeToEvents(subscriber Subscriber) Unsubscribe
}
