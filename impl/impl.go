package impl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hannahhoward/go-pubsub"
	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"

	filepicker "github.com/droidbridge/go-filepicker"
	"github.com/droidbridge/go-filepicker/aggregator"
	"github.com/droidbridge/go-filepicker/providers"
	"github.com/droidbridge/go-filepicker/queryexec"
	"github.com/droidbridge/go-filepicker/registry"
)

var log = logging.Logger("fp-impl")

// saveFileName is the deterministic destination composed by Save
const saveFileName = "__temp_file__"

// Config carries the host collaborators the manager is wired against
type Config struct {
	Launcher filepicker.PickerLauncher
	Source   filepicker.ResultSource
	Content  filepicker.ContentResolver
	Roots    filepicker.StorageRoots
	Platform filepicker.Platform

	// TTL bounds how long an operation may remain outstanding. Zero means
	// operations never expire.
	TTL time.Duration

	// Clock substitutes the expiry clock, for tests
	Clock clock.Clock
}

type manager struct {
	launcher   filepicker.PickerLauncher
	roots      filepicker.StorageRoots
	registry   *registry.Registry
	aggregator *aggregator.Aggregator
	pubSub     *pubsub.PubSub
}

func dispatcher(evt pubsub.Event, subscriberFn pubsub.SubscriberFn) error {
	ie, ok := evt.(filepicker.Event)
	if !ok {
		return errors.New("wrong type of event")
	}
	cb, ok := subscriberFn.(filepicker.Subscriber)
	if !ok {
		return errors.New("wrong type of subscriber")
	}
	cb(ie)
	return nil
}

// New initializes a new instance of a file picker manager. Construction
// binds the process-wide result listener; constructing a second manager
// against the same source fails with ErrListenerBound.
func New(cfg Config) (filepicker.Manager, error) {
	if cfg.Launcher == nil || cfg.Source == nil || cfg.Content == nil || cfg.Roots == nil || cfg.Platform == nil {
		return nil, xerrors.New("file picker config is missing a collaborator")
	}

	exec := queryexec.NewExecutor(cfg.Content)
	resolver := providers.NewResolver(exec, cfg.Roots)
	m := &manager{
		launcher:   cfg.Launcher,
		roots:      cfg.Roots,
		aggregator: aggregator.New(resolver, cfg.Content, cfg.Roots, cfg.Platform),
		pubSub:     pubsub.New(dispatcher),
	}

	opts := []registry.Option{registry.WithNotifier(m.notifyLifecycle)}
	if cfg.TTL > 0 {
		opts = append(opts, registry.WithTTL(cfg.TTL))
	}
	if cfg.Clock != nil {
		opts = append(opts, registry.WithClock(cfg.Clock))
	}
	reg, err := registry.New(cfg.Source, m.handleResult, opts...)
	if err != nil {
		return nil, err
	}
	m.registry = reg
	return m, nil
}

// Open registers a pick operation and launches the picker
func (m *manager) Open(ctx context.Context, mimeFilter string, multiple bool, cb filepicker.SelectionCallback) (filepicker.Token, error) {
	token, err := m.registry.Register(filepicker.KindOpen, multiple, mimeFilter, cb)
	if err != nil {
		return 0, err
	}
	if err := m.launcher.LaunchPicker(ctx, filepicker.KindOpen, mimeFilter, multiple, token); err != nil {
		_ = m.registry.Cancel(token)
		return 0, xerrors.Errorf("launching picker: %w", err)
	}
	m.publish(filepicker.Opened, token, "")
	return token, nil
}

// Save composes a deterministic destination under the app documents
// directory and invokes the callback synchronously. No picker launch or
// correlation is involved.
func (m *manager) Save(cb filepicker.SelectionCallback) error {
	dir := m.roots.AppDocumentsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return xerrors.Errorf("creating documents dir: %w", err)
	}
	destination := filepath.Join(dir, saveFileName)
	cb(filepicker.Selection{filepicker.NewPath(destination)})
	m.publish(filepicker.SaveComposed, 0, destination)
	return nil
}

// Cancel withdraws a live operation
func (m *manager) Cancel(token filepicker.Token) error {
	return m.registry.Cancel(token)
}

// OutstandingTokens lists tokens with a live operation
func (m *manager) OutstandingTokens() []filepicker.Token {
	return m.registry.Outstanding()
}

// SubscribeToEvents registers a subscriber for operation lifecycle events
func (m *manager) SubscribeToEvents(subscriber filepicker.Subscriber) filepicker.Unsubscribe {
	return filepicker.Unsubscribe(m.pubSub.Subscribe(subscriber))
}

// handleResult runs after the registry matched a delivered result.
// Resolution queries providers and may copy bytes, so it is kept off the
// host's delivery context.
func (m *manager) handleResult(op registry.Operation, payload filepicker.Payload) {
	m.publish(filepicker.ResultReceived, op.Token, "")
	go func() {
		ctx, span := otel.Tracer("filepicker").Start(context.Background(), "dispatchResult",
			trace.WithAttributes(
				attribute.Int64("token", int64(op.Token)),
				attribute.Int("items", len(payload)),
			))
		defer span.End()

		m.publish(filepicker.ResolveStarted, op.Token, "")
		selection := m.aggregator.Resolve(ctx, payload)
		op.Callback(selection)
		m.publish(filepicker.Delivered, op.Token, "")
	}()
}

func (m *manager) notifyLifecycle(code filepicker.EventCode, token filepicker.Token) {
	m.publish(code, token, "")
}

func (m *manager) publish(code filepicker.EventCode, token filepicker.Token, message string) {
	evt := filepicker.Event{Code: code, Token: token, Message: message, Timestamp: time.Now()}
	if err := m.pubSub.Publish(evt); err != nil {
		log.Warnf("publishing %s event: %s", filepicker.Events[code], err)
	}
}
