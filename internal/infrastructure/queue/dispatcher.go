package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/ports"
	"github.com/ballotbox/voting-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// ErrQueueFull is returned when the worker owning a recipient has no room left.
var ErrQueueFull = errors.New("notification queue full")

// Sender delivers one reset notification. Implementations may block on the
// network; the dispatcher keeps that off the request path.
type Sender interface {
	SendPasswordReset(ctx context.Context, n ports.ResetNotification) error
}

// Dispatcher routes reset notifications to a fixed set of workers using
// consistent hashing on the recipient, so mails to one address go out in
// the order they were requested.
type Dispatcher struct {
	workers []chan ports.ResetNotification
	sender  Sender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ResetNotification, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ResetNotification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// NotifyPasswordReset queues n without waiting for delivery.
func (d *Dispatcher) NotifyPasswordReset(ctx context.Context, n ports.ResetNotification) error {
	idx := d.shardIndex(n.Email)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ResetNotification) {
	defer d.wg.Done()
	depth := metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.sender.SendPasswordReset(ctx, n); err != nil {
				metrics.NotificationsSentTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Int("worker_id", id).
					Msg("reset notification failed")
				continue
			}
			metrics.NotificationsSentTotal.WithLabelValues("sent").Inc()
		}
	}
}
