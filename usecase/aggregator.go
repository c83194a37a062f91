package usecase

import (
	"sync"
	"time"

	domainPost "github.com/agromov/postwatch/domains/post"
	"github.com/sirupsen/logrus"
)

// IngestOutcome reports what the aggregator did with a raw event.
type IngestOutcome int

const (
	// OutcomeProcessed means the event formed a logical post on its own and
	// was handed downstream immediately.
	OutcomeProcessed IngestOutcome = iota
	// OutcomeBuffered means the event joined its group's buffer and a
	// debounce timer was armed.
	OutcomeBuffered
	// OutcomeDroppedNoContent means the event carried nothing usable.
	OutcomeDroppedNoContent
	// OutcomeDuplicateGroup means the event's group was already finalized;
	// the platform re-delivered a part of an album we have handled.
	OutcomeDuplicateGroup
	// OutcomeClosed means the aggregator is shutting down.
	OutcomeClosed
)

// GroupAggregator turns raw channel events into logical posts, exactly once
// each. Sibling parts of an album arrive as a fast burst sharing a group id;
// each arrival buffers the part and arms a debounce timer, and the first
// timer that finds at least two buffered parts finalizes the group. The
// group is marked finalized under the lock, before any downstream work, so a
// second in-flight timer (or a re-delivered part) can never merge it again.
type GroupAggregator struct {
	mu        sync.Mutex
	debounce  time.Duration
	groups    map[string][]domainPost.RawEvent
	finalized map[string]struct{}
	timers    map[*time.Timer]struct{}
	closed    bool
	sink      func(domainPost.LogicalPost)
}

func NewGroupAggregator(debounce time.Duration, sink func(domainPost.LogicalPost)) *GroupAggregator {
	return &GroupAggregator{
		debounce:  debounce,
		groups:    make(map[string][]domainPost.RawEvent),
		finalized: make(map[string]struct{}),
		timers:    make(map[*time.Timer]struct{}),
		sink:      sink,
	}
}

// Ingest accepts one raw event. Ungrouped events are logical posts of size
// one and go downstream right away (after the content filter); grouped
// events buffer until their debounce window closes.
func (a *GroupAggregator) Ingest(ev domainPost.RawEvent) IngestOutcome {
	if ev.GroupID == "" {
		a.mu.Lock()
		closed := a.closed
		a.mu.Unlock()
		if closed {
			return OutcomeClosed
		}
		merged, ok := domainPost.Merge([]domainPost.RawEvent{ev})
		if !ok {
			logrus.Debugf("[AGGREGATOR] Dropping message %d from channel %d: no usable content", ev.MessageID, ev.ChannelID)
			return OutcomeDroppedNoContent
		}
		a.sink(merged)
		return OutcomeProcessed
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return OutcomeClosed
	}
	if _, done := a.finalized[ev.GroupID]; done {
		a.mu.Unlock()
		logrus.Debugf("[AGGREGATOR] Group %s already processed, skipping message %d", ev.GroupID, ev.MessageID)
		return OutcomeDuplicateGroup
	}

	a.groups[ev.GroupID] = append(a.groups[ev.GroupID], ev)
	buffered := len(a.groups[ev.GroupID])

	var timer *time.Timer
	timer = time.AfterFunc(a.debounce, func() {
		a.forgetTimer(timer)
		a.Flush(ev.GroupID)
	})
	a.timers[timer] = struct{}{}
	a.mu.Unlock()

	logrus.Debugf("[AGGREGATOR] Buffered message %d in group %s (%d parts so far)", ev.MessageID, ev.GroupID, buffered)
	return OutcomeBuffered
}

// Flush finalizes the group if it has accumulated at least two parts and has
// not been finalized yet. Groups stuck at one part are intentionally left
// buffered; see the design notes on single-survivor groups.
func (a *GroupAggregator) Flush(groupID string) (domainPost.LogicalPost, bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return domainPost.LogicalPost{}, false
	}
	if _, done := a.finalized[groupID]; done {
		a.mu.Unlock()
		return domainPost.LogicalPost{}, false
	}
	events := a.groups[groupID]
	if len(events) < 2 {
		a.mu.Unlock()
		return domainPost.LogicalPost{}, false
	}
	// Mark before any downstream work: a concurrent timer for the same group
	// observes the flag and backs off.
	a.finalized[groupID] = struct{}{}
	delete(a.groups, groupID)
	a.mu.Unlock()

	merged, ok := domainPost.Merge(events)
	if !ok {
		logrus.Warnf("[AGGREGATOR] Group %s had no usable content after filtering, dropping", groupID)
		return domainPost.LogicalPost{}, false
	}

	logrus.Infof("[AGGREGATOR] Finalized group %s: %d parts, %d photos, representative message %d",
		groupID, len(events), len(merged.PhotoPaths), merged.MessageID)
	a.sink(merged)
	return merged, true
}

// PendingGroups returns the number of groups still buffering.
func (a *GroupAggregator) PendingGroups() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.groups)
}

// Close stops all armed debounce timers. Buffered groups are abandoned
// without touching the finalized set, so a restart re-processes nothing
// twice within one process lifetime.
func (a *GroupAggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for timer := range a.timers {
		timer.Stop()
	}
	a.timers = make(map[*time.Timer]struct{})
}

func (a *GroupAggregator) forgetTimer(timer *time.Timer) {
	a.mu.Lock()
	delete(a.timers, timer)
	a.mu.Unlock()
}
