package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lormic/ecomax360/internal/logging"
	"github.com/lormic/ecomax360/internal/protocol"
)

// staleAfter is how many missed cycles mark a snapshot stale.
const staleAfter = 3

// Fetcher is the subset of the protocol client the poller needs. The
// monitor wires in *client.Client; tests wire in a fake.
type Fetcher interface {
	FetchBulkData(ctx context.Context) (protocol.Values, error)
	FetchThermostatState(ctx context.Context) (protocol.Values, error)
}

// Snapshot is the latest known controller state. Values maps are never
// mutated after publication; a Snapshot is safe to share.
type Snapshot struct {
	Bulk       protocol.Values `json:"bulk"`
	Thermostat protocol.Values `json:"thermostat"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Stale is set when several consecutive poll cycles have failed;
	// the values above are the last good readings.
	Stale bool `json:"stale"`

	// LastError is the most recent cycle failure, empty when the last
	// cycle succeeded.
	LastError string `json:"last_error,omitempty"`
}

// Poller periodically reads the controller state and fans the resulting
// snapshots out to subscribers.
//
// Both reads of a cycle run sequentially: the controller is half-duplex
// and the client rejects overlapping exchanges.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	log      *zap.Logger

	mu          sync.RWMutex
	snapshot    Snapshot
	failures    int
	subscribers map[chan Snapshot]struct{}
}

// New creates a poller reading controller state every interval.
func New(fetcher Fetcher, interval time.Duration) *Poller {
	return &Poller{
		fetcher:     fetcher,
		interval:    interval,
		log:         logging.GetLogger(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Run polls until ctx is canceled. The first cycle runs immediately so the
// monitor has data before the first tick.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started", zap.Duration("interval", p.interval))

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Snapshot returns the latest published state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Subscribe registers for snapshot updates. The channel is buffered;
// subscribers that fall behind miss intermediate snapshots rather than
// blocking the poll loop. The returned func unsubscribes and closes the
// channel.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (p *Poller) poll(ctx context.Context) {
	bulk, bulkErr := p.fetcher.FetchBulkData(ctx)
	thermostat, thermErr := p.fetcher.FetchThermostatState(ctx)

	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()

	cycleErr := bulkErr
	if cycleErr == nil {
		cycleErr = thermErr
	}

	if bulk != nil {
		p.snapshot.Bulk = bulk
	}
	if thermostat != nil {
		p.snapshot.Thermostat = thermostat
	}

	if bulkErr == nil && thermErr == nil {
		p.failures = 0
		p.snapshot.UpdatedAt = time.Now()
		p.snapshot.Stale = false
		p.snapshot.LastError = ""
	} else {
		p.failures++
		p.snapshot.LastError = cycleErr.Error()
		if p.failures >= staleAfter {
			p.snapshot.Stale = true
		}
		if bulkErr == nil || thermErr == nil {
			// One read got through; the timestamp moves.
			p.snapshot.UpdatedAt = time.Now()
		}
	}

	snapshot := p.snapshot
	p.notifyLocked(snapshot)
	p.mu.Unlock()

	if cycleErr != nil {
		p.log.Warn("poll cycle failed",
			zap.Int("consecutive_failures", p.failures),
			zap.Error(cycleErr),
		)
	} else {
		p.log.Debug("poll cycle completed",
			zap.Int("bulk_values", len(snapshot.Bulk)),
			zap.Int("thermostat_values", len(snapshot.Thermostat)),
		)
	}
}

// notifyLocked pushes snapshot to every subscriber without blocking. A
// full channel is drained first so the subscriber always finds the newest
// snapshot. Caller holds p.mu.
func (p *Poller) notifyLocked(snapshot Snapshot) {
	for ch := range p.subscribers {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
