package providers

import (
	"context"
	"path/filepath"
	"strings"

	filepicker "github.com/droidbridge/go-filepicker"
	"github.com/droidbridge/go-filepicker/locator"
)

// localStorageStrategy resolves documents picked from the phone's own
// storage menu. The opaque id is type:name where type selects a storage
// root; the path is composed directly, no query needed.
type localStorageStrategy struct {
	roots filepicker.StorageRoots
}

func (s *localStorageStrategy) Resolve(ctx context.Context, loc locator.Locator) (string, error) {
	kind, name, err := locator.SplitOpaqueID(loc.OpaqueID)
	if err != nil {
		return "", err
	}

	root := s.roots.PrimaryRoot()
	switch kind {
	case "primary":
	case "home":
		root = filepath.Join(s.roots.PrimaryRoot(), s.roots.DocumentsDirName())
	default:
		// removable media roots embed their volume token in the path
		for _, removable := range s.roots.RemovableRoots() {
			if strings.Contains(removable, kind) {
				root = removable
				break
			}
		}
	}
	return filepath.Join(root, name), nil
}
