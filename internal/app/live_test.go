package app_test

import (
	"sync"
	"testing"
	"time"

	"medlearn-service/internal/app"
	"medlearn-service/internal/domain"
)

func TestLiveBoardsPublish(t *testing.T) {
	live := app.NewLiveBoards()
	ch, cancel := live.Subscribe("t1")
	defer cancel()

	live.Publish("t1", domain.Leaderboard{TopicID: "t1"})
	live.Publish("t2", domain.Leaderboard{TopicID: "t2"})

	select {
	case board := <-ch:
		if board.TopicID != "t1" {
			t.Fatalf("expected t1 board, got %+v", board)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	select {
	case board := <-ch:
		t.Fatalf("received another topic's board: %+v", board)
	default:
	}
}

func TestLiveBoardsDropsStaleUpdates(t *testing.T) {
	live := app.NewLiveBoards()
	ch, cancel := live.Subscribe("t1")
	defer cancel()

	// a slow client never blocks the broadcaster
	for i := 0; i < 50; i++ {
		live.Publish("t1", domain.Leaderboard{TopicID: "t1", Entries: []domain.LeaderboardEntry{{Rank: 1, TotalScore: i}}})
	}

	var last domain.Leaderboard
	for {
		select {
		case board := <-ch:
			last = board
			continue
		default:
		}
		break
	}
	if len(last.Entries) != 1 || last.Entries[0].TotalScore != 49 {
		t.Fatalf("newest update must survive, got %+v", last.Entries)
	}
}

func TestLiveBoardsConcurrentPublishers(t *testing.T) {
	live := app.NewLiveBoards()
	// A subscriber that never drains: its channel stays full while two
	// publishers race on the drop-stale path.
	_, cancel := live.Subscribe("t1")

	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				live.Publish("t1", domain.Leaderboard{TopicID: "t1"})
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publishers deadlocked against a stalled subscriber")
	}
	cancel()
}

func TestLiveBoardsCancelIdempotent(t *testing.T) {
	live := app.NewLiveBoards()
	_, cancel := live.Subscribe("t1")
	cancel()
	cancel() // double cancel must not panic or double-close

	live.Publish("t1", domain.Leaderboard{TopicID: "t1"})
}
