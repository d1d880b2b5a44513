package providers

import (
	"context"

	"github.com/droidbridge/go-filepicker/locator"
	"github.com/droidbridge/go-filepicker/queryexec"
)

// genericStrategy handles content locators from any provider outside the
// known authority set: an unfiltered _data query against the locator itself,
// with the shared wrapped-args retry and display-name fallback.
type genericStrategy struct {
	exec *queryexec.Executor
}

func (s *genericStrategy) Resolve(ctx context.Context, loc locator.Locator) (string, error) {
	return contentFlow(ctx, s.exec, loc.Raw, "", "", loc)
}
