package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhornak/meridian/pkg/common"
)

type EventId uint8

const (
	SignalEvent EventId = iota
	BarEvent
	OrderAcceptedEvent
	OrderRejectedEvent
	FillEvent
	SnapshotEvent
	HaltEvent
)

type event struct {
	id   EventId
	data interface{}
}

type Router struct {
	// Channels
	done   chan error
	events chan event

	// Handlers
	SignalHandler        SignalEventHandler
	BarHandler           BarEventHandler
	OrderAcceptedHandler OrderAcceptanceEventHandler
	OrderRejectedHandler OrderRejectionEventHandler
	FillHandler          FillEventHandler
	SnapshotHandler      SnapshotEventHandler
	HaltHandler          HaltEventHandler

	// Statistics
	runTime       time.Duration
	postCount     uint64
	postFails     uint64
	dispatchCount uint64
	dispatchFails uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		done:   make(chan error),
		events: make(chan event, eventCapacity),
	}
}

func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount++
		return nil
	default:
		r.postFails++
		return errors.New("event capacity reached")
	}
}

func (r *Router) Exec(ctx context.Context) {
	r.resetStatistics()

	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			r.done <- ctx.Err()
			return
		case ev := <-r.events:
			r.dispatchCount++
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails++
			}
		}
	}
}

// ExecLoop drains pending events and calls doOnceCb whenever the queue is
// empty. The callback drives the simulation forward one step at a time, so
// event dispatch order matches bar order exactly.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) {
	r.resetStatistics()

	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			r.done <- ctx.Err()
			return
		case ev := <-r.events:
			r.dispatchCount++
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails++
			}
		default:
			if err := doOnceCb(); err != nil {
				r.done <- err
				return
			}
		}
	}
}

func (r *Router) Done() <-chan error {
	return r.done
}

func (r *Router) Statistics() Statistics {
	return Statistics{
		RunTime:       r.runTime,
		PostCount:     r.postCount,
		PostFails:     r.postFails,
		DispatchCount: r.dispatchCount,
		DispatchFails: r.dispatchFails,
		Throughput:    float64(r.postCount) / r.runTime.Seconds(),
	}
}

func (r *Router) resetStatistics() {
	r.runTime = 0
	r.postCount = 0
	r.postFails = 0
	r.dispatchCount = 0
	r.dispatchFails = 0
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case SignalEvent:
		sig, ok := ev.data.(common.Signal)
		if !ok {
			return errors.New("invalid type assertion for signal event")
		}
		if r.SignalHandler != nil {
			r.SignalHandler(ctx, sig)
		}
	case BarEvent:
		bar, ok := ev.data.(common.Bar)
		if !ok {
			return errors.New("invalid type assertion for bar event")
		}
		if r.BarHandler != nil {
			r.BarHandler(ctx, bar)
		}
	case OrderAcceptedEvent:
		acc, ok := ev.data.(common.OrderAccepted)
		if !ok {
			return errors.New("invalid type assertion for order accepted event")
		}
		if r.OrderAcceptedHandler != nil {
			r.OrderAcceptedHandler(ctx, acc)
		}
	case OrderRejectedEvent:
		rej, ok := ev.data.(common.OrderRejected)
		if !ok {
			return errors.New("invalid type assertion for order rejected event")
		}
		if r.OrderRejectedHandler != nil {
			r.OrderRejectedHandler(ctx, rej)
		}
	case FillEvent:
		fill, ok := ev.data.(common.Fill)
		if !ok {
			return errors.New("invalid type assertion for fill event")
		}
		if r.FillHandler != nil {
			r.FillHandler(ctx, fill)
		}
	case SnapshotEvent:
		snap, ok := ev.data.(common.AccountSnapshot)
		if !ok {
			return errors.New("invalid type assertion for snapshot event")
		}
		if r.SnapshotHandler != nil {
			r.SnapshotHandler(ctx, snap)
		}
	case HaltEvent:
		halt, ok := ev.data.(common.Halt)
		if !ok {
			return errors.New("invalid type assertion for halt event")
		}
		if r.HaltHandler != nil {
			r.HaltHandler(ctx, halt)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
