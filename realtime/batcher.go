package realtime

import (
	"sync"
	"time"
)

// Batcher menahan event keluar sebentar lalu mem-flush per kelompok kind,
// supaya burst mutasi (mis. order dengan banyak item) tidak jadi badai pesan.
// Flush terjadi saat timer jalan atau antrian mencapai threshold.
type Batcher struct {
	target    Publisher
	interval  time.Duration
	threshold int

	mu      sync.Mutex
	pending []Event

	stop     chan struct{}
	kick     chan struct{}
	stopOnce sync.Once
}

func NewBatcher(target Publisher, interval time.Duration, threshold int) *Batcher {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if threshold <= 0 {
		threshold = 16
	}
	b := &Batcher{
		target:    target,
		interval:  interval,
		threshold: threshold,
		stop:      make(chan struct{}),
		kick:      make(chan struct{}, 1),
	}
	go b.loop()
	return b
}

func (b *Batcher) Publish(evt Event) {
	b.mu.Lock()
	b.pending = append(b.pending, evt)
	full := len(b.pending) >= b.threshold
	b.mu.Unlock()

	if full {
		select {
		case b.kick <- struct{}{}:
		default:
		}
	}
}

func (b *Batcher) loop() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.kick:
			b.Flush()
		case <-b.stop:
			b.Flush()
			return
		}
	}
}

// Flush mengelompokkan antrian per kind (urutan kind sesuai kemunculan
// pertama, urutan event di dalam kind dipertahankan) lalu meneruskannya.
func (b *Batcher) Flush() {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	order := make([]EventKind, 0, len(pending))
	groups := make(map[EventKind][]Event)
	for _, evt := range pending {
		k := evt.Kind()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], evt)
	}

	for _, k := range order {
		for _, evt := range groups[k] {
			b.target.Publish(evt)
		}
	}
}

func (b *Batcher) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}
