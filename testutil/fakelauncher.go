package testutil

import (
	"context"
	"sync"

	filepicker "github.com/droidbridge/go-filepicker"
)

// LaunchCall records the arguments of one picker launch
type LaunchCall struct {
	Kind          filepicker.Kind
	MimeFilter    string
	AllowMultiple bool
	Token         filepicker.Token
}

// FakePickerLauncher records launches and optionally fails them
type FakePickerLauncher struct {
	lk       sync.Mutex
	err      error
	Launches []LaunchCall
}

// NewFakePickerLauncher returns a new instance of a fake picker launcher
func NewFakePickerLauncher() *FakePickerLauncher {
	return &FakePickerLauncher{}
}

// StubLaunchError makes every launch fail with err
func (f *FakePickerLauncher) StubLaunchError(err error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.err = err
}

// LaunchPicker implements filepicker.PickerLauncher
func (f *FakePickerLauncher) LaunchPicker(ctx context.Context, kind filepicker.Kind, mimeFilter string, allowMultiple bool, token filepicker.Token) error {
	f.lk.Lock()
	defer f.lk.Unlock()
	if f.err != nil {
		return f.err
	}
	f.Launches = append(f.Launches, LaunchCall{kind, mimeFilter, allowMultiple, token})
	return nil
}

var _ filepicker.PickerLauncher = &FakePickerLauncher{}
