package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// ============================================================
// Write Queue
// ============================================================

// StateSaver - долговременное хранилище снимков.
type StateSaver interface {
	Save(ctx context.Context, key string, data []byte) error
}

// DefaultWriteTimeout ограничивает одну запись в хранилище.
const DefaultWriteTimeout = 5 * time.Second

// WriteQueue пишет снимки в фоне одним воркером. Пока снимок ждет записи,
// новый снимок того же ключа заменяет его (последняя запись побеждает).
// Ошибки записи только логируются: состояние в памяти остается главным.
type WriteQueue struct {
	saver   StateSaver
	timeout time.Duration

	mu         sync.Mutex
	pending    map[string][]byte
	closed     bool
	idle       chan struct{}
	idleClosed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewWriteQueue(saver StateSaver, timeout time.Duration) *WriteQueue {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	q := &WriteQueue{
		saver:      saver,
		timeout:    timeout,
		pending:    make(map[string][]byte),
		idle:       make(chan struct{}),
		idleClosed: true,
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	close(q.idle)
	go q.run()
	return q
}

// Enqueue не блокирует вызывающего.
func (q *WriteQueue) Enqueue(key string, data []byte) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		log.Printf("[PERSIST] %s: dropped write, queue closed", key)
		return
	}
	q.pending[key] = data
	if q.idleClosed {
		q.idle = make(chan struct{})
		q.idleClosed = false
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush ждет, пока очередь опустеет и текущая запись завершится.
func (q *WriteQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close дописывает оставшиеся снимки и останавливает воркер.
func (q *WriteQueue) Close() error {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.stop)
	})
	<-q.done
	return nil
}

func (q *WriteQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.wake:
			q.drain()
		case <-q.stop:
			q.drain()
			return
		}
	}
}

func (q *WriteQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			if !q.idleClosed {
				close(q.idle)
				q.idleClosed = true
			}
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = make(map[string][]byte)
		q.mu.Unlock()

		for key, data := range batch {
			q.write(key, data)
		}
	}
}

func (q *WriteQueue) write(key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := q.saver.Save(ctx, key, data); err != nil {
		log.Printf("[PERSIST] %s: write failed, keeping in-memory state: %v", key, err)
	}
}
