package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"go.uber.org/atomic"
)

// streamBuffer is how many snapshots a slow subscriber may lag behind before
// ticks are dropped for it.
const streamBuffer = 4

type subscriber struct {
	ch     chan entity.Snapshot
	closed *atomic.Bool
}

// StreamCodes subscribes to the refresher's snapshots. The current snapshot is
// delivered first; the channel is closed once ctx is done or the refresher
// stops.
func (s *Usecase) StreamCodes(ctx context.Context) <-chan entity.Snapshot {
	sub := &subscriber{
		ch:     make(chan entity.Snapshot, streamBuffer),
		closed: atomic.NewBool(false),
	}

	if snap, err := s.snapshot(ctx, s.clock.Now()); err == nil {
		sub.ch <- *snap
	} else {
		slog.WarnContext(ctx, "failed to build initial snapshot for stream", "error", err)
	}

	s.streamMu.Lock()
	if s.streamsDone {
		sub.closed.Store(true)
		close(sub.ch)
		s.streamMu.Unlock()
		return sub.ch
	}
	s.streams[sub] = struct{}{}
	s.streamMu.Unlock()

	if s.metrics.subscribers != nil {
		s.metrics.subscribers.Add(ctx, 1)
	}

	context.AfterFunc(ctx, func() {
		s.unsubscribe(context.WithoutCancel(ctx), sub)
	})

	return sub.ch
}

func (s *Usecase) unsubscribe(ctx context.Context, sub *subscriber) {
	s.streamMu.Lock()
	if !sub.closed.CompareAndSwap(false, true) {
		s.streamMu.Unlock()
		return
	}
	delete(s.streams, sub)
	close(sub.ch)
	s.streamMu.Unlock()

	if s.metrics.subscribers != nil {
		s.metrics.subscribers.Add(ctx, -1)
	}
}

// closeStreams ends every open stream and rejects new ones.
func (s *Usecase) closeStreams(ctx context.Context) {
	s.streamMu.Lock()
	s.streamsDone = true
	subs := make([]*subscriber, 0, len(s.streams))
	for sub := range s.streams {
		subs = append(subs, sub)
	}
	s.streamMu.Unlock()

	for _, sub := range subs {
		s.unsubscribe(ctx, sub)
	}
}

// subscriberCount returns the number of open streams.
func (s *Usecase) subscriberCount() int {
	s.streamMu.RLock()
	defer s.streamMu.RUnlock()

	return len(s.streams)
}

// publish offers snap to every subscriber without blocking; a subscriber whose
// buffer is full misses this tick.
func (s *Usecase) publish(ctx context.Context, snap entity.Snapshot) {
	s.streamMu.RLock()
	defer s.streamMu.RUnlock()

	for sub := range s.streams {
		if sub.closed.Load() {
			continue
		}

		select {
		case sub.ch <- snap:
		default:
			slog.DebugContext(ctx, "stream subscriber is lagging, tick dropped")
		}
	}
}
