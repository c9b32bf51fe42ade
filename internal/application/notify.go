package application

import "sync"

// LibraryNotifier fans out coarse change notifications to interested
// collaborators, chiefly the download scheduler. The payload is the ID of
// the server whose library may have changed; subscribers re-evaluate
// persistence for that server's songs.
type LibraryNotifier struct {
	mu   sync.Mutex
	subs map[int]chan string
	next int
}

// NewLibraryNotifier creates an empty notifier.
func NewLibraryNotifier() *LibraryNotifier {
	return &LibraryNotifier{subs: make(map[int]chan string)}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. The channel is buffered; a subscriber that falls behind misses
// notifications rather than blocking publishers, which is fine because a
// notification only says "re-check server S", not what changed.
func (n *LibraryNotifier) Subscribe() (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan string, 16)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Publish notifies all subscribers that the given server's library may have
// changed. Never blocks.
func (n *LibraryNotifier) Publish(serverID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- serverID:
		default:
		}
	}
}
