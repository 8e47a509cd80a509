package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySinkRecords(t *testing.T) {
	sink := &MemorySink{}

	sink.Emit(context.Background(), Event{Name: EventAttempt, At: time.Now(), Fields: map[string]any{"attempt": 1}})
	sink.Emit(context.Background(), Event{Name: EventCredentialsInvalidated, At: time.Now()})
	sink.Emit(context.Background(), Event{Name: EventAttempt, At: time.Now(), Fields: map[string]any{"attempt": 2}})

	assert.Len(t, sink.Events(), 3)
	assert.Len(t, sink.Named(EventAttempt), 2)
	assert.Len(t, sink.Named(EventCredentialsInvalidated), 1)
	assert.Empty(t, sink.Named("unknown"))
}

func TestMemorySinkSnapshotIsolation(t *testing.T) {
	sink := &MemorySink{}
	sink.Emit(context.Background(), Event{Name: "a"})

	snapshot := sink.Events()
	sink.Emit(context.Background(), Event{Name: "b"})

	assert.Len(t, snapshot, 1)
	assert.Len(t, sink.Events(), 2)
}

func TestMemorySinkConcurrentEmit(t *testing.T) {
	sink := &MemorySink{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sink.Emit(context.Background(), Event{Name: EventAttempt})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sink.Events(), 1000)
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	sink.Emit(context.Background(), Event{Name: "ignored"})
}
