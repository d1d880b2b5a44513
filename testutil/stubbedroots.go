package testutil

import filepicker "github.com/droidbridge/go-filepicker"

// StubbedRoots is a fixed set of storage roots for tests
type StubbedRoots struct {
	Primary         string
	DocumentsName   string
	PublicDownloads string
	Removable       []string
	CacheDir        string
	DocumentsDir    string
}

// DefaultRoots returns roots shaped like a typical device layout
func DefaultRoots() *StubbedRoots {
	return &StubbedRoots{
		Primary:         "/storage/emulated/0",
		DocumentsName:   "Documents",
		PublicDownloads: "/storage/emulated/0/Download",
		Removable:       []string{"/storage/1D04-3F0E"},
		CacheDir:        "/storage/emulated/0/Android/data/app/cache",
		DocumentsDir:    "/storage/emulated/0/Documents/app",
	}
}

func (s *StubbedRoots) PrimaryRoot() string         { return s.Primary }
func (s *StubbedRoots) DocumentsDirName() string    { return s.DocumentsName }
func (s *StubbedRoots) PublicDownloadsRoot() string { return s.PublicDownloads }
func (s *StubbedRoots) RemovableRoots() []string    { return s.Removable }
func (s *StubbedRoots) AppCacheDir() string         { return s.CacheDir }
func (s *StubbedRoots) AppDocumentsDir() string     { return s.DocumentsDir }

var _ filepicker.StorageRoots = &StubbedRoots{}

// StubbedPlatform reports a fixed API version
type StubbedPlatform struct {
	Version int
}

// APIVersion implements filepicker.Platform
func (s StubbedPlatform) APIVersion() int {
	return s.Version
}

var _ filepicker.Platform = StubbedPlatform{}
