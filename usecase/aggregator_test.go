package usecase

import (
	"sync"
	"testing"
	"time"

	domainPost "github.com/agromov/postwatch/domains/post"
)

type sinkRecorder struct {
	mu    sync.Mutex
	posts []domainPost.LogicalPost
	ch    chan domainPost.LogicalPost
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{ch: make(chan domainPost.LogicalPost, 16)}
}

func (s *sinkRecorder) sink(post domainPost.LogicalPost) {
	s.mu.Lock()
	s.posts = append(s.posts, post)
	s.mu.Unlock()
	s.ch <- post
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func (s *sinkRecorder) wait(t *testing.T) domainPost.LogicalPost {
	t.Helper()
	select {
	case post := <-s.ch:
		return post
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a merged post")
		return domainPost.LogicalPost{}
	}
}

func TestAggregatorUngroupedPostGoesStraightThrough(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(10*time.Millisecond, rec.sink)
	defer agg.Close()

	outcome := agg.Ingest(domainPost.RawEvent{
		ChannelID: -100200,
		MessageID: 42,
		Text:      "hello",
	})
	if outcome != OutcomeProcessed {
		t.Fatalf("outcome = %v, want OutcomeProcessed", outcome)
	}

	post := rec.wait(t)
	if post.MessageID != 42 || post.Text != "hello" {
		t.Fatalf("unexpected post: %+v", post)
	}
}

func TestAggregatorDropsContentlessEvent(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(10*time.Millisecond, rec.sink)
	defer agg.Close()

	outcome := agg.Ingest(domainPost.RawEvent{
		ChannelID: -100200,
		MessageID: 43,
		Media:     domainPost.MediaVideo,
	})
	if outcome != OutcomeDroppedNoContent {
		t.Fatalf("outcome = %v, want OutcomeDroppedNoContent", outcome)
	}
	if rec.count() != 0 {
		t.Fatalf("sink received %d posts, want 0", rec.count())
	}
}

func TestAggregatorMergesAlbumExactlyOnce(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(20*time.Millisecond, rec.sink)
	defer agg.Close()

	events := []domainPost.RawEvent{
		{ChannelID: -100200, MessageID: 10, GroupID: "g1", Text: "Launch", Media: domainPost.MediaPhoto, PhotoPath: "a.jpg"},
		{ChannelID: -100200, MessageID: 11, GroupID: "g1", Media: domainPost.MediaPhoto, PhotoPath: "b.jpg"},
		{ChannelID: -100200, MessageID: 12, GroupID: "g1", Text: "day!"},
	}
	for _, ev := range events {
		if outcome := agg.Ingest(ev); outcome != OutcomeBuffered {
			t.Fatalf("Ingest(%d) = %v, want OutcomeBuffered", ev.MessageID, outcome)
		}
	}

	post := rec.wait(t)
	if post.Text != "Launch day!" {
		t.Fatalf("merged text = %q, want %q", post.Text, "Launch day!")
	}
	if len(post.PhotoPaths) != 2 || post.PhotoPaths[0] != "a.jpg" || post.PhotoPaths[1] != "b.jpg" {
		t.Fatalf("merged photos = %v", post.PhotoPaths)
	}
	if post.MessageID != 10 {
		t.Fatalf("representative message = %d, want 10", post.MessageID)
	}

	// Later timers for the same group must find it finalized.
	time.Sleep(60 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("sink received %d posts, want exactly 1", rec.count())
	}
}

func TestAggregatorRepresentativeIsFirstPhotoEvent(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(10*time.Millisecond, rec.sink)
	defer agg.Close()

	agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 20, GroupID: "g2", Text: "caption"})
	agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 21, GroupID: "g2", Media: domainPost.MediaPhoto, PhotoPath: "p.jpg"})

	post := rec.wait(t)
	if post.MessageID != 21 {
		t.Fatalf("representative message = %d, want the photo event 21", post.MessageID)
	}
}

func TestAggregatorRejectsRedeliveredGroupPart(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(10*time.Millisecond, rec.sink)
	defer agg.Close()

	agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 30, GroupID: "g3", Text: "one"})
	agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 31, GroupID: "g3", Text: "two"})
	rec.wait(t)

	outcome := agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 30, GroupID: "g3", Text: "one"})
	if outcome != OutcomeDuplicateGroup {
		t.Fatalf("outcome = %v, want OutcomeDuplicateGroup", outcome)
	}
	if rec.count() != 1 {
		t.Fatalf("sink received %d posts, want 1", rec.count())
	}
}

func TestAggregatorLeavesSingletonGroupBuffered(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(10*time.Millisecond, rec.sink)
	defer agg.Close()

	outcome := agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 40, GroupID: "g4", Text: "alone"})
	if outcome != OutcomeBuffered {
		t.Fatalf("outcome = %v, want OutcomeBuffered", outcome)
	}

	time.Sleep(60 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("singleton group was flushed, want it left buffered")
	}
	if agg.PendingGroups() != 1 {
		t.Fatalf("PendingGroups() = %d, want 1", agg.PendingGroups())
	}
}

func TestAggregatorFlushRequiresTwoParts(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(time.Hour, rec.sink)
	defer agg.Close()

	agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 50, GroupID: "g5", Text: "solo"})
	if _, ok := agg.Flush("g5"); ok {
		t.Fatal("Flush merged a single-part group")
	}

	agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 51, GroupID: "g5", Text: "pair"})
	post, ok := agg.Flush("g5")
	if !ok {
		t.Fatal("Flush refused a two-part group")
	}
	if post.Text != "solo pair" {
		t.Fatalf("merged text = %q", post.Text)
	}

	if _, ok := agg.Flush("g5"); ok {
		t.Fatal("second Flush merged the group again")
	}
}

func TestAggregatorClosedRejectsEvents(t *testing.T) {
	rec := newSinkRecorder()
	agg := NewGroupAggregator(10*time.Millisecond, rec.sink)
	agg.Close()

	outcome := agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 60, GroupID: "g6", Text: "late"})
	if outcome != OutcomeClosed {
		t.Fatalf("grouped outcome = %v, want OutcomeClosed", outcome)
	}

	outcome = agg.Ingest(domainPost.RawEvent{ChannelID: -1, MessageID: 61, Text: "ungrouped late"})
	if outcome != OutcomeClosed {
		t.Fatalf("ungrouped outcome = %v, want OutcomeClosed", outcome)
	}
	if rec.count() != 0 {
		t.Fatalf("sink received %d posts after Close", rec.count())
	}
}
