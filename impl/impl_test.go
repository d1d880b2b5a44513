package impl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	filepicker "github.com/droidbridge/go-filepicker"
	"github.com/droidbridge/go-filepicker/impl"
	"github.com/droidbridge/go-filepicker/testutil"
)

type harness struct {
	launcher *testutil.FakePickerLauncher
	source   *testutil.FakeResultSource
	content  *testutil.FakeContentResolver
	roots    *testutil.StubbedRoots
	manager  filepicker.Manager
}

func setup(t *testing.T, apiVersion int, extra func(*impl.Config)) *harness {
	t.Helper()
	h := &harness{
		launcher: testutil.NewFakePickerLauncher(),
		source:   testutil.NewFakeResultSource(),
		content:  testutil.NewFakeContentResolver(),
		roots:    testutil.DefaultRoots(),
	}
	h.roots.CacheDir = t.TempDir()
	h.roots.DocumentsDir = filepath.Join(t.TempDir(), "app")
	cfg := impl.Config{
		Launcher: h.launcher,
		Source:   h.source,
		Content:  h.content,
		Roots:    h.roots,
		Platform: testutil.StubbedPlatform{Version: apiVersion},
	}
	if extra != nil {
		extra(&cfg)
	}
	manager, err := impl.New(cfg)
	require.NoError(t, err)
	h.manager = manager
	return h
}

func awaitSelection(ctx context.Context, t *testing.T, selections chan filepicker.Selection) filepicker.Selection {
	t.Helper()
	select {
	case selection := <-selections:
		return selection
	case <-ctx.Done():
		t.Fatal("callback never fired")
		return nil
	}
}

func TestOpenResolvesMediaSelection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h := setup(t, 28, nil)
	h.content.StubRows("content://media/external/images/media", []string{"_data"}, filepicker.RowSet{
		Columns: []string{"_data"},
		Rows:    [][]string{{"/storage/emulated/0/DCIM/Camera/IMG_0042.jpg"}},
	})

	selections := make(chan filepicker.Selection, 1)
	token, err := h.manager.Open(ctx, "image", false, func(selection filepicker.Selection) {
		selections <- selection
	})
	require.NoError(t, err)

	// the launch carried our token so the result can be correlated
	require.Len(t, h.launcher.Launches, 1)
	require.Equal(t, token, h.launcher.Launches[0].Token)
	require.Equal(t, filepicker.KindOpen, h.launcher.Launches[0].Kind)

	h.source.Deliver(token, filepicker.ResultOK, filepicker.Payload{
		"content://com.android.providers.media.documents/document/image%3A42",
	})

	selection := awaitSelection(ctx, t, selections)
	require.Len(t, selection, 1)
	require.NotNil(t, selection[0])
	require.Equal(t, filepicker.Path("/storage/emulated/0/DCIM/Camera/IMG_0042.jpg"), *selection[0])

	// exactly one query, against the image collection, filtered by row id
	require.Len(t, h.content.Queries, 1)
	require.Equal(t, "content://media/external/images/media", h.content.Queries[0].URI)
	require.Equal(t, "_id=?", h.content.Queries[0].FilterExpr)
	require.Equal(t, "42", h.content.Queries[0].FilterArgs.Scalar)

	require.Len(t, selections, 0)
	require.Empty(t, h.manager.OutstandingTokens())
}

func TestForeignAndNonSuccessResultsAreDropped(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h := setup(t, 28, nil)
	selections := make(chan filepicker.Selection, 1)
	token, err := h.manager.Open(ctx, "", false, func(selection filepicker.Selection) {
		selections <- selection
	})
	require.NoError(t, err)

	// results for other activities in the process share the channel
	h.source.Deliver(token+1000, filepicker.ResultOK, filepicker.Payload{"content://foreign/1"})
	// the user backed out of the picker
	h.source.Deliver(token, filepicker.ResultCancelled, nil)
	// malformed delivery
	h.source.Deliver(token, filepicker.ResultOK, nil)
	require.Len(t, selections, 0)

	// the operation stayed live and a later success still resolves
	h.source.Deliver(token, filepicker.ResultOK, filepicker.Payload{"file:///storage/emulated/0/Download/a.txt"})
	selection := awaitSelection(ctx, t, selections)
	require.Len(t, selection, 1)
}

func TestMultiSelectionPreservesOrderWithFailures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h := setup(t, 28, nil)
	selections := make(chan filepicker.Selection, 1)
	token, err := h.manager.Open(ctx, "", true, func(selection filepicker.Selection) {
		selections <- selection
	})
	require.NoError(t, err)
	require.True(t, h.launcher.Launches[0].AllowMultiple)

	h.source.Deliver(token, filepicker.ResultOK, filepicker.Payload{
		"file:///storage/emulated/0/Download/a.txt",
		"content://unknown.provider/item/7",
		"file:///storage/emulated/0/Download/c.txt",
	})

	selection := awaitSelection(ctx, t, selections)
	require.Len(t, selection, 3)
	require.NotNil(t, selection[0])
	require.Nil(t, selection[1])
	require.NotNil(t, selection[2])
}

func TestScopedStorageEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h := setup(t, 30, nil)
	first := "file:///storage/emulated/0/Download/a.txt"
	second := "file:///storage/emulated/0/Download/b.txt"
	h.content.StubContent(first, []byte("alpha"))

	selections := make(chan filepicker.Selection, 1)
	token, err := h.manager.Open(ctx, "", true, func(selection filepicker.Selection) {
		selections <- selection
	})
	require.NoError(t, err)

	h.source.Deliver(token, filepicker.ResultOK, filepicker.Payload{first, second})
	selection := awaitSelection(ctx, t, selections)

	// only the first item is rewritten into the cache; the second keeps its
	// directly-resolved path
	cached := filepath.Join(h.roots.CacheDir, "FromSharedStorage", "a.txt")
	require.Equal(t, filepicker.Path(cached), *selection[0])
	require.Equal(t, filepicker.Path("/storage/emulated/0/Download/b.txt"), *selection[1])
}

func TestSaveComposesDeterministicPath(t *testing.T) {
	h := setup(t, 28, nil)

	var selection filepicker.Selection
	require.NoError(t, h.manager.Save(func(s filepicker.Selection) {
		selection = s
	}))

	// synchronous, single entry, under the app documents dir
	require.Len(t, selection, 1)
	require.Equal(t, filepicker.Path(filepath.Join(h.roots.DocumentsDir, "__temp_file__")), *selection[0])
	info, err := os.Stat(h.roots.DocumentsDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	// no picker involved
	require.Empty(t, h.launcher.Launches)
}

func TestLaunchFailureUnregisters(t *testing.T) {
	ctx := context.Background()
	h := setup(t, 28, nil)
	h.launcher.StubLaunchError(errors.New("no activity to handle intent"))

	_, err := h.manager.Open(ctx, "", false, func(filepicker.Selection) {
		t.Error("callback must not fire")
	})
	require.Error(t, err)
	require.Empty(t, h.manager.OutstandingTokens())
}

func TestSecondManagerRejected(t *testing.T) {
	h := setup(t, 28, nil)

	_, err := impl.New(impl.Config{
		Launcher: h.launcher,
		Source:   h.source,
		Content:  h.content,
		Roots:    h.roots,
		Platform: testutil.StubbedPlatform{Version: 28},
	})
	require.ErrorIs(t, err, filepicker.ErrListenerBound)
}

func TestCancelMakesResultForeign(t *testing.T) {
	ctx := context.Background()
	h := setup(t, 28, nil)

	token, err := h.manager.Open(ctx, "", false, func(filepicker.Selection) {
		t.Error("callback must not fire")
	})
	require.NoError(t, err)
	require.NoError(t, h.manager.Cancel(token))
	require.Empty(t, h.manager.OutstandingTokens())

	h.source.Deliver(token, filepicker.ResultOK, filepicker.Payload{"file:///a.txt"})
}

func TestExpiryEmitsEventWithoutCallback(t *testing.T) {
	mock := clock.NewMock()
	h := setup(t, 28, func(cfg *impl.Config) {
		cfg.TTL = time.Minute
		cfg.Clock = mock
	})

	events := make(chan filepicker.Event, 8)
	unsubscribe := h.manager.SubscribeToEvents(func(event filepicker.Event) {
		events <- event
	})
	defer unsubscribe()

	token, err := h.manager.Open(context.Background(), "", false, func(filepicker.Selection) {
		t.Error("callback must not fire")
	})
	require.NoError(t, err)

	mock.Add(time.Minute)

	for {
		select {
		case event := <-events:
			if event.Code == filepicker.Opened {
				continue
			}
			require.Equal(t, filepicker.Expired, event.Code)
			require.Equal(t, token, event.Token)
		case <-time.After(time.Second):
			t.Fatal("no expiry event")
		}
		break
	}
	require.Empty(t, h.manager.OutstandingTokens())
}

func TestLifecycleEventsAndTracing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	collector := &testutil.Collector{}
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(collector))
	otel.SetTracerProvider(tracerProvider)
	defer func() { _ = tracerProvider.Shutdown(ctx) }()

	h := setup(t, 28, nil)

	events := make(chan filepicker.Event, 8)
	unsubscribe := h.manager.SubscribeToEvents(func(event filepicker.Event) {
		events <- event
	})
	defer unsubscribe()

	selections := make(chan filepicker.Selection, 1)
	token, err := h.manager.Open(ctx, "", false, func(selection filepicker.Selection) {
		selections <- selection
	})
	require.NoError(t, err)

	h.source.Deliver(token, filepicker.ResultOK, filepicker.Payload{"file:///storage/emulated/0/Download/a.txt"})
	awaitSelection(ctx, t, selections)

	var codes []filepicker.EventCode
	for len(codes) < 4 {
		select {
		case event := <-events:
			codes = append(codes, event.Code)
		case <-ctx.Done():
			t.Fatalf("saw only %v", codes)
		}
	}
	require.Equal(t, []filepicker.EventCode{
		filepicker.Opened,
		filepicker.ResultReceived,
		filepicker.ResolveStarted,
		filepicker.Delivered,
	}, codes)

	// the dispatch span ends just after the Delivered event is published
	require.Eventually(t, func() bool {
		return len(collector.FindSpans("dispatchResult")) == 1
	}, time.Second, 10*time.Millisecond)
	dispatches := collector.FindSpans("dispatchResult")
	items := collector.FindSpansWithParent(dispatches[0])
	require.Len(t, items, 1)
	require.Equal(t, "resolveItem", items[0].Name)
}
