package aggregator

import (
	"context"
	"io"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	filepicker "github.com/droidbridge/go-filepicker"
	"github.com/droidbridge/go-filepicker/providers"
)

var log = logging.Logger("fp-aggregator")

// cacheSubdir holds materialized copies inside the app cache directory
const cacheSubdir = "FromSharedStorage"

// Aggregator resolves every item of a delivered result and, under scoped
// storage, materializes the first item into the app-private cache
type Aggregator struct {
	resolver *providers.Resolver
	content  filepicker.ContentResolver
	roots    filepicker.StorageRoots
	platform filepicker.Platform
}

// New returns a new selection aggregator
func New(resolver *providers.Resolver, content filepicker.ContentResolver, roots filepicker.StorageRoots, platform filepicker.Platform) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		content:  content,
		roots:    roots,
		platform: platform,
	}
}

// Resolve turns the raw locators of one delivered result into an ordered
// selection. Output order and cardinality always match the payload; a slot
// is nil when that item could not be resolved. Items resolve independently:
// one failure never aborts the batch.
func (a *Aggregator) Resolve(ctx context.Context, payload filepicker.Payload) filepicker.Selection {
	selection := make(filepicker.Selection, len(payload))

	var eg errgroup.Group
	for i, raw := range payload {
		i, raw := i, raw
		eg.Go(func() error {
			ctx, span := otel.Tracer("filepicker").Start(ctx, "resolveItem",
				trace.WithAttributes(
					attribute.Int("item", i),
					attribute.String("locator", raw),
				))
			defer span.End()

			path, err := a.resolver.ResolvePath(ctx, raw)
			if err != nil {
				span.RecordError(err)
				log.Warnf("item %d (%s) did not resolve: %s", i, raw, err)
				return nil
			}
			selection[i] = filepicker.NewPath(path)
			return nil
		})
	}
	_ = eg.Wait()

	if a.platform.APIVersion() >= filepicker.ScopedStorageMinAPI {
		a.materializeFirst(payload, selection)
	}
	return selection
}

// materializeFirst copies the first resolved item's bytes into the app
// cache and substitutes the cached path for that slot. Only the first item
// is ever materialized; later items of a multi-selection keep their
// directly-resolved shared-storage paths. On any copy failure the slot
// keeps its uncached path.
func (a *Aggregator) materializeFirst(payload filepicker.Payload, selection filepicker.Selection) {
	if len(selection) == 0 || selection[0] == nil {
		return
	}
	cached, err := a.cacheCopy(payload[0], string(*selection[0]))
	if err != nil {
		log.Warnf("materializing first selection item: %s", err)
		return
	}
	selection[0] = filepicker.NewPath(cached)
}

func (a *Aggregator) cacheCopy(rawLocator string, resolved string) (string, error) {
	dir := filepath.Join(a.roots.AppCacheDir(), cacheSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", xerrors.Errorf("creating cache dir: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(resolved))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return "", xerrors.Errorf("clearing stale cache file: %w", err)
	}

	source, err := a.content.Open(rawLocator)
	if err != nil {
		return "", xerrors.Errorf("opening %s: %w", rawLocator, err)
	}
	defer source.Close()

	out, err := os.Create(target)
	if err != nil {
		return "", xerrors.Errorf("creating cache file: %w", err)
	}
	if _, err := io.Copy(out, source); err != nil {
		out.Close()
		return "", xerrors.Errorf("copying %s: %w", rawLocator, err)
	}
	if err := out.Close(); err != nil {
		return "", xerrors.Errorf("closing cache file: %w", err)
	}
	return target, nil
}
