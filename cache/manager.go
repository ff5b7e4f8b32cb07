package cache

import (
	"fmt"
	"sync"
	"time"
)

// FetchFunc mengambil ulang data otoritatif sebuah query dari REST layer.
type FetchFunc func() (interface{}, error)

type entry struct {
	key         string
	tags        map[string]struct{}
	fetch       FetchFunc
	value       interface{}
	stale       bool
	lastFetched time.Time
}

// Manager adalah index tag -> cached query untuk menjaga cache client tetap
// konsisten. Setiap hasil query terdaftar dengan tag resource yang menjadi
// dependensinya; invalidasi tag menandai stale semua query yang beririsan
// dan menjadwalkan re-fetch. Manager dibuat per instance (bukan singleton
// modul) supaya test bisa mengisolasi state.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// Tag membentuk tag "resource:id", atau "resource" saja untuk id 0
// (invalidasi seluruh koleksi).
func Tag(resource string, id uint) string {
	if id == 0 {
		return resource
	}
	return fmt.Sprintf("%s:%d", resource, id)
}

// RegisterQuery mencatat tag dependensi sebuah query dan langsung mengisi
// nilai awalnya lewat fetch.
func (m *Manager) RegisterQuery(key string, fetch FetchFunc, tags ...string) error {
	e := &entry{
		key:   key,
		tags:  make(map[string]struct{}, len(tags)),
		fetch: fetch,
	}
	for _, t := range tags {
		e.tags[t] = struct{}{}
	}

	value, err := fetch()
	if err != nil {
		return err
	}
	e.value = value
	e.lastFetched = time.Now()

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Invalidate menandai stale semua query yang tag-nya beririsan dengan tags,
// lalu menjadwalkan re-fetch asinkron. Mengembalikan key yang terdampak
// (dipakai test untuk memverifikasi cakupan tag).
func (m *Manager) Invalidate(tags ...string) []string {
	m.mu.Lock()
	var affected []*entry
	for _, e := range m.entries {
		if e.intersects(tags) {
			e.stale = true
			affected = append(affected, e)
		}
	}
	m.mu.Unlock()

	keys := make([]string, 0, len(affected))
	for _, e := range affected {
		keys = append(keys, e.key)
		m.scheduleRefetch(e)
	}
	return keys
}

// InvalidateResource -> sugar untuk satu resource/instance.
func (m *Manager) InvalidateResource(resource string, id uint) []string {
	return m.Invalidate(Tag(resource, id))
}

func (e *entry) intersects(tags []string) bool {
	for _, t := range tags {
		if _, ok := e.tags[t]; ok {
			return true
		}
	}
	return false
}

func (m *Manager) scheduleRefetch(e *entry) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		value, err := e.fetch()
		if err != nil {
			// Biarkan stale; Get berikutnya akan mencoba fetch lagi.
			return
		}
		m.mu.Lock()
		e.value = value
		e.stale = false
		e.lastFetched = time.Now()
		m.mu.Unlock()
	}()
}

// Get mengembalikan nilai cache; kalau stale, fetch dilakukan sinkron.
func (m *Manager) Get(key string) (interface{}, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("query %q not registered", key)
	}
	stale := e.stale
	value := e.value
	m.mu.Unlock()

	if !stale {
		return value, nil
	}

	fresh, err := e.fetch()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	e.value = fresh
	e.stale = false
	e.lastFetched = time.Now()
	m.mu.Unlock()
	return fresh, nil
}

func (m *Manager) IsStale(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return ok && e.stale
}

// Flush menunggu semua re-fetch terjadwal selesai (untuk test/shutdown).
func (m *Manager) Flush() {
	m.wg.Wait()
}
