package providers

import (
	"context"
	"path/filepath"
	"strconv"

	"golang.org/x/xerrors"

	filepicker "github.com/droidbridge/go-filepicker"
	"github.com/droidbridge/go-filepicker/locator"
	"github.com/droidbridge/go-filepicker/queryexec"
)

// Known download index locations. They differ between machines, so each is
// tried in turn.
var downloadIndexes = []string{
	"content://downloads/public_downloads",
	"content://downloads/my_downloads",

	// all_downloads requires a separate elevated permission and may be
	// denied outright
	"content://downloads/all_downloads",
}

// downloadsStrategy resolves documents picked from the downloads menu. The
// opaque id is a numeric row id in one of several possible download indexes;
// resolution is a staged fallback chain, first non-empty result wins.
type downloadsStrategy struct {
	exec  *queryexec.Executor
	roots filepicker.StorageRoots
}

func (s *downloadsStrategy) Resolve(ctx context.Context, loc locator.Locator) (string, error) {
	if _, err := strconv.ParseUint(loc.OpaqueID, 10, 64); err != nil {
		return "", xerrors.Errorf("downloads id %q is not a row id: %w", loc.OpaqueID, locator.ErrMalformedID)
	}

	candidates := make([]string, len(downloadIndexes))
	for i, index := range downloadIndexes {
		candidates[i] = index + "/" + loc.OpaqueID
	}

	fallback := &chain{name: "downloads", attempts: []attempt{
		{name: "public downloads display name", run: func(ctx context.Context) (string, bool, error) {
			name, found, err := s.exec.Execute(ctx, queryexec.QuerySpec{
				CandidateRoots: []string{loc.Raw},
				Projection:     []string{ColDisplayName},
			})
			if err != nil || !found {
				return "", false, err
			}
			return filepath.Join(s.roots.PublicDownloadsRoot(), name), true, nil
		}},
		{name: "indexed row data", run: func(ctx context.Context) (string, bool, error) {
			return s.exec.Execute(ctx, queryexec.QuerySpec{
				CandidateRoots: candidates,
				Projection:     []string{ColData},
			})
		}},
		{name: "aggregate all columns", run: func(ctx context.Context) (string, bool, error) {
			return s.exec.Execute(ctx, queryexec.QuerySpec{
				CandidateRoots: candidates,
				AggregateAll:   true,
			})
		}},
	}}

	path, ok := fallback.run(ctx)
	if !ok {
		return "", xerrors.Errorf("downloads row %s: %w", loc.OpaqueID, filepicker.ErrNoResult)
	}
	return path, nil
}
