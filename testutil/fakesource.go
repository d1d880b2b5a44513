package testutil

import (
	"sync"

	filepicker "github.com/droidbridge/go-filepicker"
)

// FakeResultSource captures the single bound result listener and lets tests
// play the host's global result channel
type FakeResultSource struct {
	lk       sync.Mutex
	listener filepicker.ResultListener
}

// NewFakeResultSource returns a new instance of a fake result source
func NewFakeResultSource() *FakeResultSource {
	return &FakeResultSource{}
}

// BindResultListener implements filepicker.ResultSource. A second binding
// is rejected.
func (f *FakeResultSource) BindResultListener(listener filepicker.ResultListener) error {
	f.lk.Lock()
	defer f.lk.Unlock()
	if f.listener != nil {
		return filepicker.ErrListenerBound
	}
	f.listener = listener
	return nil
}

// Bound reports whether a listener was bound
func (f *FakeResultSource) Bound() bool {
	f.lk.Lock()
	defer f.lk.Unlock()
	return f.listener != nil
}

// Deliver feeds one result through the bound listener, the way the host's
// event dispatch would. No-op when nothing is bound.
func (f *FakeResultSource) Deliver(token filepicker.Token, status filepicker.ResultStatus, payload filepicker.Payload) {
	f.lk.Lock()
	listener := f.listener
	f.lk.Unlock()
	if listener != nil {
		listener(token, status, payload)
	}
}

var _ filepicker.ResultSource = &FakeResultSource{}
