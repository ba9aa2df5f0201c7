package world

import (
	"sync"

	"example.com/parentator/world/entities"
)

// Bus fans out feedback lines about an entity to whoever watches it.
type Bus struct {
	mu             sync.RWMutex
	subscribers    map[entities.ID]map[entities.ID]chan string // target -> (watcher -> inbox channel)
	watcherTargets map[entities.ID]entities.ID                 // watcher -> target
}

func NewBus() *Bus {
	return &Bus{
		subscribers:    make(map[entities.ID]map[entities.ID]chan string),
		watcherTargets: make(map[entities.ID]entities.ID),
	}
}

func (b *Bus) Subscribe(target, watcher entities.ID, inbox chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// a watcher follows one target at a time
	b.unsubscribeLocked(watcher)

	subscribers := b.subscribers[target]
	if subscribers == nil {
		subscribers = make(map[entities.ID]chan string)
		b.subscribers[target] = subscribers
	}
	subscribers[watcher] = inbox

	// update index
	b.watcherTargets[watcher] = target
}

func (b *Bus) Unsubscribe(watcher entities.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(watcher)
}

func (b *Bus) unsubscribeLocked(watcher entities.ID) {
	target, ok := b.watcherTargets[watcher]
	if !ok {
		return
	}

	if subscribers := b.subscribers[target]; subscribers != nil {
		delete(subscribers, watcher)
		if len(subscribers) == 0 {
			delete(b.subscribers, target)
		}
	}
	delete(b.watcherTargets, watcher)
}

// Drop forgets a target and all of its watchers, e.g. once it is deleted.
func (b *Bus) Drop(target entities.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for watcher := range b.subscribers[target] {
		delete(b.watcherTargets, watcher)
	}
	delete(b.subscribers, target)
}

func (b *Bus) Target(watcher entities.ID) (entities.ID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	target, ok := b.watcherTargets[watcher]
	return target, ok
}

func (b *Bus) Publish(target entities.ID, text string, exclude []entities.ID) {
	excludeSet := make(map[entities.ID]struct{}, len(exclude))
	for _, ex := range exclude {
		excludeSet[ex] = struct{}{}
	}

	b.mu.RLock()
	var inboxes []chan string
	for watcher, inbox := range b.subscribers[target] {
		if _, excluded := excludeSet[watcher]; excluded {
			continue
		}
		inboxes = append(inboxes, inbox)
	}
	b.mu.RUnlock()

	for _, inbox := range inboxes {
		select {
		case inbox <- text:
		default:
			// drop if receiver is slow
		}
	}
}

func (b *Bus) PublishTo(watcher entities.ID, text string) {
	b.mu.RLock()
	var inbox chan string
	if target, ok := b.watcherTargets[watcher]; ok {
		inbox = b.subscribers[target][watcher]
	}
	b.mu.RUnlock()

	if inbox == nil {
		return
	}

	select {
	case inbox <- text:
	default:
		// drop if receiver is slow
	}
}
