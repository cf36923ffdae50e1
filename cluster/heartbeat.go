// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"

	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
)

const (
	heartbeatJobKey      = "update-sequence-heartbeat"
	heartbeatStopTimeout = 5 * time.Second
)

// heartbeat periodically re-announces the current update sequence so that a
// service which missed an UpdateSequenceChanged event converges anyway.
type heartbeat struct {
	mu        sync.Mutex
	scheduler quartz.Scheduler
	interval  time.Duration
	announce  func(ctx context.Context) error
	logger    log.Logger
}

func newHeartbeat(interval time.Duration, announce func(ctx context.Context) error, logger log.Logger) *heartbeat {
	return &heartbeat{
		interval: interval,
		announce: announce,
		logger:   logger,
	}
}

// start creates a fresh scheduler, a stopped one cannot be restarted
func (x *heartbeat) start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	scheduler, err := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		return err
	}

	// the jobs outlive the Start call
	scheduler.Start(context.WithoutCancel(ctx))

	beat := job.NewFunctionJob[bool](func(ctx context.Context) (bool, error) {
		if err := x.announce(ctx); err != nil {
			x.logger.Warnf("failed to announce the update sequence: %v", err)
			return false, err
		}
		return true, nil
	})

	detail := quartz.NewJobDetail(beat, quartz.NewJobKey(heartbeatJobKey))
	if err := scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(x.interval)); err != nil {
		scheduler.Stop()
		return fmt.Errorf("failed to schedule the heartbeat: %w", err)
	}

	x.scheduler = scheduler
	x.logger.Debugf("update sequence heartbeat every %s", x.interval)
	return nil
}

func (x *heartbeat) stop(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.scheduler == nil {
		return nil
	}

	_ = x.scheduler.Clear()
	x.scheduler.Stop()

	ctx, cancel := context.WithTimeout(ctx, heartbeatStopTimeout)
	defer cancel()
	x.scheduler.Wait(ctx)
	x.scheduler = nil
	return nil
}

// announceSequence dispatches the current update sequence. Nothing is
// announced before the first mutation.
func (x *Node) announceSequence(ctx context.Context) error {
	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	if !x.started.Load() {
		return nil
	}

	current, err := x.config.counter.Current(ctx)
	if err != nil {
		return err
	}
	if current == 0 {
		return nil
	}
	return x.dispatch(ctx, events.NewUpdateSequenceChanged(current))
}
