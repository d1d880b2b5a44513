package registry

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/atomic"

	filepicker "github.com/droidbridge/go-filepicker"
)

var log = logging.Logger("fp-registry")

// Operation is one outstanding pick request awaiting its result
type Operation struct {
	Token    filepicker.Token
	Kind     filepicker.Kind
	Multiple bool
	Filter   string
	Callback filepicker.SelectionCallback

	expiry *clock.Timer
}

// ResultHandler receives the operation matched by a delivered result
// together with the raw payload. The handler resolves the payload and
// invokes the operation's callback; by the time it runs the operation is
// already removed from the live set.
type ResultHandler func(op Operation, payload filepicker.Payload)

// Notifier observes lifecycle transitions that never reach a callback
type Notifier func(code filepicker.EventCode, token filepicker.Token)

// Option customizes registry construction
type Option func(*Registry)

// WithTTL bounds how long an operation may stay outstanding. Expired
// operations are removed without invoking their callback. Zero (the
// default) means operations never expire.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithClock substitutes the clock used for expiry timers
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithNotifier sets the lifecycle notifier
func WithNotifier(n Notifier) Option {
	return func(r *Registry) {
		r.notify = n
	}
}

// Registry issues one token per outstanding operation and routes results
// from the single global channel to the matching operation. Constructed
// once per process; construction binds the global result listener.
type Registry struct {
	handler ResultHandler
	notify  Notifier
	ttl     time.Duration
	clock   clock.Clock

	// next is monotonic, so a fresh token can never collide with a live
	// operation
	next *atomic.Uint64

	lk   sync.Mutex
	live map[filepicker.Token]*Operation
}

// New returns a registry with its result listener bound. Binding the
// listener a second time anywhere in the process is a configuration error
// surfaced by the source.
func New(source filepicker.ResultSource, handler ResultHandler, opts ...Option) (*Registry, error) {
	r := &Registry{
		handler: handler,
		notify:  func(filepicker.EventCode, filepicker.Token) {},
		clock:   clock.New(),
		next:    atomic.NewUint64(0),
		live:    make(map[filepicker.Token]*Operation),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := source.BindResultListener(r.Dispatch); err != nil {
		return nil, err
	}
	return r, nil
}

// Register records a new operation and returns its token
func (r *Registry) Register(kind filepicker.Kind, multiple bool, filter string, cb filepicker.SelectionCallback) (filepicker.Token, error) {
	token := filepicker.Token(r.next.Inc())

	r.lk.Lock()
	defer r.lk.Unlock()
	if _, held := r.live[token]; held {
		return 0, filepicker.ErrTokenInUse
	}
	op := &Operation{Token: token, Kind: kind, Multiple: multiple, Filter: filter, Callback: cb}
	if r.ttl > 0 {
		op.expiry = r.clock.AfterFunc(r.ttl, func() {
			r.expire(token)
		})
	}
	r.live[token] = op
	log.Debugf("registered %s %s", filepicker.Kinds[kind], token)
	return token, nil
}

// Dispatch routes one result from the global channel. Safe to invoke from
// the host's delivery context: it never blocks on I/O. Results for unknown
// tokens are foreign and dropped. A matched result with a non-success
// status or an empty payload is dropped without unregistering, so the host
// may still deliver a later result for the same token. On a match the
// operation is removed before the handler runs, so concurrent deliveries of
// the same token reach the handler at most once.
func (r *Registry) Dispatch(token filepicker.Token, status filepicker.ResultStatus, payload filepicker.Payload) {
	r.lk.Lock()
	op, live := r.live[token]
	if !live {
		r.lk.Unlock()
		log.Debugf("dropping result for unknown token %s", token)
		return
	}
	if status != filepicker.ResultOK || len(payload) == 0 {
		r.lk.Unlock()
		log.Debugf("dropping %s result with %d items for %s", filepicker.ResultStatuses[status], len(payload), token)
		r.notify(filepicker.ResultDiscarded, token)
		return
	}
	delete(r.live, token)
	if op.expiry != nil {
		op.expiry.Stop()
	}
	r.lk.Unlock()

	r.handler(*op, payload)
}

// Cancel withdraws a live operation; its callback will never fire
func (r *Registry) Cancel(token filepicker.Token) error {
	r.lk.Lock()
	op, live := r.live[token]
	if !live {
		r.lk.Unlock()
		return filepicker.ErrOperationNotFound
	}
	delete(r.live, token)
	if op.expiry != nil {
		op.expiry.Stop()
	}
	r.lk.Unlock()

	r.notify(filepicker.Cancelled, token)
	return nil
}

// Outstanding lists tokens with a live operation
func (r *Registry) Outstanding() []filepicker.Token {
	r.lk.Lock()
	defer r.lk.Unlock()
	tokens := make([]filepicker.Token, 0, len(r.live))
	for token := range r.live {
		tokens = append(tokens, token)
	}
	return tokens
}

func (r *Registry) expire(token filepicker.Token) {
	r.lk.Lock()
	_, live := r.live[token]
	if !live {
		r.lk.Unlock()
		return
	}
	delete(r.live, token)
	r.lk.Unlock()

	log.Infof("%s expired with no result", token)
	r.notify(filepicker.Expired, token)
}
