package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/siadash/internal/clock"
	"github.com/npratt/siadash/internal/events"
)

type memSaver struct {
	mu    sync.Mutex
	saves []Record
	err   error
}

func (m *memSaver) Save(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, r)
	return nil
}

func (m *memSaver) snapshot() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.saves...)
}

func changed(r Record) *ChangedEvent {
	s, _ := r.apply(Default())
	return &ChangedEvent{
		BaseEvent: events.NewEventAt(events.EventSettingsChanged, events.SourceSettings, epoch),
		Settings:  s,
		Record:    r,
	}
}

func themed(t Theme) Record {
	return Record{Theme: ptr(string(t))}
}

func TestSink_DebouncesAndFlushesOnClose(t *testing.T) {
	fc := clock.Fake(epoch.Add(time.Hour))
	saver := &memSaver{}
	sink := NewSink(saver, fc, nil)

	in := make(chan events.Event)
	sink.Start(context.Background(), in)

	in <- changed(themed(ThemeDark))
	in <- changed(themed(ThemeLight))
	in <- events.NewNotice(events.SourceSettings, events.NoticeInfo, "ignored", nil)
	close(in)
	sink.Stop()

	saves := saver.snapshot()
	require.Len(t, saves, 2)
	assert.Equal(t, "dark", *saves[0].Theme, "first change writes immediately")
	assert.Equal(t, "light", *saves[1].Theme, "last record written at shutdown")
	assert.False(t, sink.Dirty())
}

func TestSink_WritesWhenDebounceWindowCloses(t *testing.T) {
	fc := clock.Fake(epoch.Add(time.Hour))
	saver := &memSaver{}
	sink := NewSink(saver, fc, nil)

	in := make(chan events.Event)
	sink.Start(context.Background(), in)
	defer func() {
		close(in)
		sink.Stop()
	}()

	in <- changed(themed(ThemeDark))
	in <- changed(themed(ThemeLight))

	// The second change is inside the window; a write is scheduled for when
	// it closes.
	fc.WaitForTimers(1)
	assert.True(t, sink.Dirty())
	require.Len(t, saver.snapshot(), 1)

	fc.Advance(DefaultMinSaveDelay)

	saves := saver.snapshot()
	require.Len(t, saves, 2, "no further change is needed to persist the last one")
	assert.Equal(t, "light", *saves[1].Theme)
	assert.False(t, sink.Dirty())
	assert.Zero(t, fc.Pending())
}

func TestSink_StopCancelsScheduledWrite(t *testing.T) {
	fc := clock.Fake(epoch.Add(time.Hour))
	saver := &memSaver{}
	sink := NewSink(saver, fc, nil)

	in := make(chan events.Event)
	sink.Start(context.Background(), in)

	in <- changed(themed(ThemeDark))
	in <- changed(themed(ThemeLight))
	fc.WaitForTimers(1)
	close(in)
	sink.Stop()

	assert.Zero(t, fc.Pending(), "shutdown flush replaces the scheduled write")
	fc.Advance(time.Minute)
	assert.Len(t, saver.snapshot(), 2)
}

func TestSink_WritesAfterDelay(t *testing.T) {
	fc := clock.Fake(epoch.Add(time.Hour))
	saver := &memSaver{}
	sink := NewSink(saver, fc, nil)
	sink.SetMinDelay(0)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan events.Event)
	sink.Start(ctx, in)

	for _, th := range Themes {
		in <- changed(themed(th))
	}
	cancel()
	sink.Stop()

	saves := saver.snapshot()
	require.Len(t, saves, len(Themes))
	for i, th := range Themes {
		assert.Equal(t, string(th), *saves[i].Theme)
	}
}

func TestSink_FailureKeepsPending(t *testing.T) {
	fc := clock.Fake(epoch.Add(time.Hour))
	saver := &memSaver{err: errors.New("disk full")}
	sink := NewSink(saver, fc, nil)

	in := make(chan events.Event, 1)
	in <- changed(Record{})
	close(in)
	sink.Start(context.Background(), in)
	sink.Stop()

	assert.True(t, sink.Dirty())
	assert.Empty(t, saver.snapshot())
}

func TestSink_WithStoreAndFile(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir + "/settings.json")
	router := events.NewRouter(0)
	sub := router.SubscribeTo(SinkBufferSize, events.EventSettingsChanged)

	sink := NewSink(fs, clock.Fake(epoch.Add(time.Hour)), nil)
	sink.SetMinDelay(0)
	sink.Start(context.Background(), sub)

	store := New(Options{Loader: fs, Emitter: router, Clock: clock.Fake(epoch)})
	require.NoError(t, store.SetRequestSettings(RequestUpdate{Theme: ptr(ThemeDark)}))
	require.NoError(t, store.SetDisplaySettings(DisplayUpdate{FiatCurrency: ptr("jpy")}))
	store.Close()

	// Closing the router closes the subscription; the sink drains it first.
	router.Close()
	sink.Stop()

	reloaded := New(Options{Loader: fs, Clock: clock.Fake(epoch)})
	defer reloaded.Close()
	assert.Equal(t, ThemeDark, reloaded.Get().Theme)
	assert.Equal(t, "jpy", reloaded.Get().FiatCurrency)
	assert.Empty(t, reloaded.Warnings())
}

func TestSink_PersistsOnlyUserSetKeys(t *testing.T) {
	path := t.TempDir() + "/settings.json"
	fs := NewFileStore(path)
	router := events.NewRouter(0)
	sub := router.SubscribeTo(SinkBufferSize, events.EventSettingsChanged)

	sink := NewSink(fs, clock.Fake(epoch.Add(time.Hour)), nil)
	sink.SetMinDelay(0)
	sink.Start(context.Background(), sub)

	store := New(Options{
		Loader:    fs,
		Overrides: Overrides{Theme: "dark"},
		Emitter:   router,
		Clock:     clock.Fake(epoch),
	})
	require.Equal(t, ThemeDark, store.Get().Theme)
	require.NoError(t, store.SetDisplaySettings(DisplayUpdate{FiatCurrency: ptr("eur")}))
	store.Close()
	router.Close()
	sink.Stop()

	rec, err := fs.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Nil(t, rec.Theme, "configured default must not be written")
	require.NotNil(t, rec.CurrencyFiat)
	assert.Equal(t, "eur", *rec.CurrencyFiat)

	// A later change of the configured default still takes effect.
	reloaded := New(Options{Loader: fs, Overrides: Overrides{Theme: "light"}, Clock: clock.Fake(epoch)})
	defer reloaded.Close()
	assert.Equal(t, ThemeLight, reloaded.Get().Theme)
	assert.Equal(t, "eur", reloaded.Get().FiatCurrency)
}
