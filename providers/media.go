package providers

import (
	"context"

	"github.com/droidbridge/go-filepicker/locator"
	"github.com/droidbridge/go-filepicker/queryexec"
)

// Media collection roots, one per media kind, plus the generic files
// collection for anything else
const (
	imageCollection = "content://media/external/images/media"
	videoCollection = "content://media/external/video/media"
	audioCollection = "content://media/external/audio/media"
	filesCollection = "content://media/external/file"
)

// mediaStrategy resolves documents picked from the images, videos or audio
// menus. The opaque id is type:name where name is a row id in the selected
// collection; the path still comes from a column query through the shared
// content flow.
type mediaStrategy struct {
	exec *queryexec.Executor
}

func (s *mediaStrategy) Resolve(ctx context.Context, loc locator.Locator) (string, error) {
	kind, name, err := locator.SplitOpaqueID(loc.OpaqueID)
	if err != nil {
		return "", err
	}
	return contentFlow(ctx, s.exec, collectionFor(kind), ColID+"=?", name, loc)
}

func collectionFor(kind string) string {
	switch kind {
	case "image":
		return imageCollection
	case "video":
		return videoCollection
	case "audio":
		return audioCollection
	default:
		// picked from a documents folder rather than a media menu
		return filesCollection
	}
}
