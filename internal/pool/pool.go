// Package pool tracks registered meeting hosts and hands out idle ones on
// demand. A host stays busy until it is released, or until its lease expires
// when a lease TTL is configured.
package pool

import (
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Descriptor is one registered meeting host.
type Descriptor struct {
	ID          string    `json:"id" validate:"required,max=256"`
	URL         string    `json:"url" validate:"required,max=2048"`
	Status      bool      `json:"status"`
	AllocatedAt time.Time `json:"-"`
}

// Stats summarizes pool occupancy.
type Stats struct {
	Total int `json:"total"`
	Busy  int `json:"busy"`
	Idle  int `json:"idle"`
}

// Pool is the allocator. Every exported method runs under one mutex, so an
// allocation's scan and flip happen atomically.
type Pool struct {
	mu      sync.Mutex
	entries []*Descriptor
	index   map[string]int
	store   Store
	log     *slog.Logger
	nowFn   func() time.Time
}

// New creates a Pool. When store is non-nil the pool is loaded from it and
// every mutation is written through.
func New(log *slog.Logger, store Store) (*Pool, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p := &Pool{
		index: make(map[string]int),
		store: store,
		log:   log,
		nowFn: time.Now,
	}
	if store == nil {
		return p, nil
	}

	descriptors, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	for _, d := range descriptors {
		p.index[d.ID] = len(p.entries)
		p.entries = append(p.entries, &d)
	}
	log.Info("Instance pool loaded", "instances", len(p.entries))
	return p, nil
}

// Add registers d as idle. Registering an existing ID replaces that entry in
// place and leaves it idle.
func (p *Pool) Add(d Descriptor) {
	d.Status = false
	d.AllocatedAt = time.Time{}

	p.mu.Lock()
	defer p.mu.Unlock()

	seq, exists := p.index[d.ID]
	if exists {
		*p.entries[seq] = d
	} else {
		seq = len(p.entries)
		p.index[d.ID] = seq
		p.entries = append(p.entries, &d)
	}
	p.log.Info("Instance registered", "id", d.ID, "url", d.URL, "replaced", exists)
	p.persistLocked(seq)
}

// List returns a snapshot of every descriptor in registration order.
func (p *Pool) List() []Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	return lo.Map(p.entries, func(d *Descriptor, _ int) Descriptor {
		return *d
	})
}

// Get returns the descriptor registered under id.
func (p *Pool) Get(id string) (Descriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq, ok := p.index[id]
	if !ok {
		return Descriptor{}, false
	}
	return *p.entries[seq], true
}

// Allocate marks the first idle descriptor busy and returns it. It reports
// false when every descriptor is busy.
func (p *Pool) Allocate() (Descriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for seq, d := range p.entries {
		if d.Status {
			continue
		}
		d.Status = true
		d.AllocatedAt = p.nowFn()
		p.log.Info("Instance allocated", "id", d.ID)
		p.persistLocked(seq)
		return *d, true
	}

	p.log.Debug("No idle instance available", "instances", len(p.entries))
	return Descriptor{}, false
}

// Release marks the descriptor registered under id idle. Unknown IDs are
// ignored.
func (p *Pool) Release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq, ok := p.index[id]
	if !ok {
		return
	}
	p.releaseLocked(seq)
	p.log.Info("Instance released", "id", id)
}

// Sweep releases every descriptor allocated more than ttl before now and
// returns their IDs. A non-positive ttl disables expiry.
func (p *Pool) Sweep(now time.Time, ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var expired []string
	for seq, d := range p.entries {
		if !d.Status || now.Sub(d.AllocatedAt) < ttl {
			continue
		}
		expired = append(expired, d.ID)
		p.releaseLocked(seq)
	}
	if len(expired) > 0 {
		p.log.Warn("Released expired instance leases", "ids", expired)
	}
	return expired
}

// Stats returns the current occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	busy := lo.CountBy(p.entries, func(d *Descriptor) bool {
		return d.Status
	})
	return Stats{Total: len(p.entries), Busy: busy, Idle: len(p.entries) - busy}
}

func (p *Pool) releaseLocked(seq int) {
	d := p.entries[seq]
	d.Status = false
	d.AllocatedAt = time.Time{}
	p.persistLocked(seq)
}

// persistLocked writes the entry at seq through to the store. Failures are
// logged; the in-memory pool stays authoritative.
func (p *Pool) persistLocked(seq int) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(seq, *p.entries[seq]); err != nil {
		p.log.Error("Failed to persist instance", "id", p.entries[seq].ID, "error", err)
	}
}
