package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions configures batching. Zero values take the defaults.
type AsyncOptions struct {
	BufferSize     int           // events queued before Store falls back to a synchronous write
	BatchSize      int           // events per StoreBatch call
	BatchTimeout   time.Duration // max wait for a partial batch
	StorageTimeout time.Duration // per batch write timeout
}

// AsyncStorage queues events and writes them in batches from a background
// goroutine. Store blocks until the batch holding the event was written, so
// callers still see storage errors, but many requests share one round trip.
type AsyncStorage struct {
	batchStorage BatchStorage
	eventChan    chan pendingEvent
	done         chan struct{}
	stopped      chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	options      AsyncOptions
}

type pendingEvent struct {
	event  Event
	result chan error
}

var _ Storage = (*AsyncStorage)(nil)

// NewAsyncStorage starts the batching worker. Call Close on shutdown to
// flush queued events.
func NewAsyncStorage(bs BatchStorage, opts AsyncOptions) *AsyncStorage {
	if bs == nil {
		panic("audit: batch storage cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	as := &AsyncStorage{
		batchStorage: bs,
		eventChan:    make(chan pendingEvent, opts.BufferSize),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		options:      opts,
	}

	as.wg.Add(1)
	go as.worker()

	return as
}

// Store queues event and waits for its batch to be written. When the queue
// is full the event is written synchronously instead of being dropped.
func (as *AsyncStorage) Store(ctx context.Context, event Event) error {
	select {
	case <-as.done:
		return ErrStorageNotAvailable
	default:
	}

	result := make(chan error, 1)

	select {
	case as.eventChan <- pendingEvent{event: event, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-as.stopped:
			select {
			case err := <-result:
				return err
			default:
				return ErrStorageNotAvailable
			}
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-as.done:
		return ErrStorageNotAvailable
	default:
		return as.batchStorage.StoreBatch(ctx, []Event{event})
	}
}

func (as *AsyncStorage) worker() {
	defer as.wg.Done()
	defer close(as.stopped)

	batch := make([]Event, 0, as.options.BatchSize)
	waiting := make([]chan error, 0, as.options.BatchSize)

	ticker := time.NewTicker(as.options.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		// request contexts may already be done; the write must not inherit them
		ctx, cancel := context.WithTimeout(context.Background(), as.options.StorageTimeout)
		err := as.batchStorage.StoreBatch(ctx, batch)
		cancel()

		for _, ch := range waiting {
			ch <- err
		}

		clear(batch)
		clear(waiting)
		batch = batch[:0]
		waiting = waiting[:0]
	}

	for {
		select {
		case p := <-as.eventChan:
			batch = append(batch, p.event)
			waiting = append(waiting, p.result)
			if len(batch) >= as.options.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-as.done:
			for {
				select {
				case p := <-as.eventChan:
					batch = append(batch, p.event)
					waiting = append(waiting, p.result)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting events and flushes the queue. The context bounds the
// wait.
func (as *AsyncStorage) Close(ctx context.Context) error {
	as.closeOnce.Do(func() {
		close(as.done)
	})

	flushed := make(chan struct{})
	go func() {
		as.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
