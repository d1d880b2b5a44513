package providers

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	filepicker "github.com/droidbridge/go-filepicker"
	"github.com/droidbridge/go-filepicker/locator"
	"github.com/droidbridge/go-filepicker/queryexec"
)

var log = logging.Logger("fp-providers")

// Provider column names used by resolution queries
const (
	ColID          = "_id"
	ColData        = "_data"
	ColDisplayName = "_display_name"
)

// Strategy resolves an indirect locator for one provider authority. A
// strategy either composes the path itself or issues queries through the
// shared executor.
type Strategy interface {
	Resolve(ctx context.Context, loc locator.Locator) (string, error)
}

// Resolver dispatches locators to the strategy for their authority, with a
// generic strategy for anything unrecognized
type Resolver struct {
	byAuthority map[string]Strategy
	generic     Strategy
}

// NewResolver builds the dispatch table over the known authority set
func NewResolver(exec *queryexec.Executor, roots filepicker.StorageRoots) *Resolver {
	return &Resolver{
		byAuthority: map[string]Strategy{
			locator.AuthorityLocalStorage: &localStorageStrategy{roots: roots},
			locator.AuthorityDownloads:    &downloadsStrategy{exec: exec, roots: roots},
			locator.AuthorityMedia:        &mediaStrategy{exec: exec},
		},
		generic: &genericStrategy{exec: exec},
	}
}

// ResolvePath turns one raw locator into a filesystem path
func (r *Resolver) ResolvePath(ctx context.Context, raw string) (string, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return "", err
	}
	if loc.Scheme == locator.SchemeDirect {
		return loc.Path(), nil
	}
	strategy, known := r.byAuthority[loc.Authority]
	if !known {
		strategy = r.generic
	}
	return strategy.Resolve(ctx, loc)
}

// contentFlow is the shared lookup for content locators: query the root for
// a _data column, retry with the filter argument wrapped as a sequence when
// the provider rejects the scalar shape, and fall back to a _display_name
// query against the original unmodified locator for providers that only
// expose a name.
func contentFlow(ctx context.Context, exec *queryexec.Executor, root string, filterExpr string, filterArg string, original locator.Locator) (string, error) {
	spec := queryexec.QuerySpec{
		CandidateRoots: []string{root},
		Projection:     []string{ColData},
		FilterExpr:     filterExpr,
	}
	if filterArg != "" {
		spec.FilterArgs = filepicker.QueryArgs{Scalar: filterArg}
	}
	value, found, err := exec.Execute(ctx, spec)
	if err != nil {
		log.Debugf("retrying %s with wrapped filter args: %s", root, err)
		spec.FilterArgs = filepicker.QueryArgs{Wrapped: []string{filterArg}}
		value, found, _ = exec.Execute(ctx, spec)
	}
	if found {
		return value, nil
	}

	nameSpec := queryexec.QuerySpec{
		CandidateRoots: []string{original.Raw},
		Projection:     []string{ColDisplayName},
	}
	value, found, err = exec.Execute(ctx, nameSpec)
	if err != nil {
		return "", xerrors.Errorf("resolving %s: %w", original.Raw, err)
	}
	if !found {
		return "", xerrors.Errorf("resolving %s: %w", original.Raw, filepicker.ErrNoResult)
	}
	return value, nil
}
