package app

import (
	"sync"

	"medlearn-service/internal/domain"
)

// LiveBoards fans leaderboard updates out to in-process subscribers,
// keyed by topic. It backs the websocket transport; cross-instance
// distribution would pair this with a pub/sub projector.
type LiveBoards struct {
	mu     sync.RWMutex
	topics map[string]map[chan domain.Leaderboard]struct{}
}

func NewLiveBoards() *LiveBoards {
	return &LiveBoards{
		topics: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel that receives leaderboard updates for a
// topic. The caller must invoke the returned cancel function to avoid leaks.
func (l *LiveBoards) Subscribe(topicID string) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	l.mu.Lock()
	subs, ok := l.topics[topicID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		l.topics[topicID] = subs
	}
	subs[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if subs, ok := l.topics[topicID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(l.topics, topicID)
			}
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a fresh board to every subscriber of the topic.
// Slow clients have their stale update dropped rather than blocking
// the broadcast. The exclusive lock keeps publishers serialized: the
// drain-then-send on a full channel is only safe with a single sender,
// since a concurrent publisher could refill the drained slot and turn
// the second send into a blocking one.
func (l *LiveBoards) Publish(topicID string, lb domain.Leaderboard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.topics[topicID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
