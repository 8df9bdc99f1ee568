package sqlcore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// txEntry pairs a Tx with when it was registered, plus its own mutex so
// GetMut can serialize access to one transaction without blocking lookups
// for every other tx_id.
type txEntry struct {
	mu        sync.Mutex
	tx        *Tx
	startedAt time.Time
}

// TxManager is the shared registry of named transactions: it supports
// cross-task access (a transaction begun under one tx_id can be committed
// from anywhere holding a reference to the manager), enforces a
// wall-clock lock-wait budget via a background sweep, and rolls back
// every still-registered transaction on shutdown.
type TxManager struct {
	mu      sync.RWMutex
	entries map[string]*txEntry

	lockWaitTimeout time.Duration
	checkInterval   time.Duration
	logger          TxLogger

	alive atomic.Bool
	done  chan struct{}
}

// NewTxManager starts a TxManager and its background sweeper. lockWait is
// the wall-clock budget a registered transaction may stay open
// (tx_lock_wait_timeout); checkInterval is how often the sweeper scans
// (tx_check_interval). A nil logger is replaced with a no-op that reports
// itself disabled.
func NewTxManager(lockWait, checkInterval time.Duration, logger TxLogger) *TxManager {
	if logger == nil {
		logger = noopTxLogger{}
	}
	m := &TxManager{
		entries:         make(map[string]*txEntry),
		lockWaitTimeout: lockWait,
		checkInterval:   checkInterval,
		logger:          logger,
		done:            make(chan struct{}),
	}
	m.alive.Store(true)
	go m.sweep()
	return m
}

// Begin opens a new transaction via pool.Begin and registers it under
// tx_id. A duplicate tx_id overwrites the existing entry: once the map
// entry is replaced, nothing else holds a reference to the prior Tx, so
// its rollback is kicked off in the background rather than left to leak
// the connection it still owns.
func (m *TxManager) Begin(ctx context.Context, txID string, pool *Pool) error {
	if txID == "" {
		return ErrInvalidTxID
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	entry := &txEntry{tx: tx, startedAt: time.Now()}

	m.mu.Lock()
	prev, existed := m.entries[txID]
	m.entries[txID] = entry
	m.mu.Unlock()

	if existed {
		go func() { _ = prev.tx.Rollback(context.Background()) }()
	}
	return nil
}

// GetMut drives an in-flight transaction: it looks up tx_id, takes that
// entry's per-key lock for the duration of fn, and calls fn with the live
// Tx. Only one caller can drive a given transaction at a time; the
// sweeper's own remove-then-rollback doesn't need this lock because it
// never calls fn — it races the entry out of the map instead.
func (m *TxManager) GetMut(txID string, fn func(*Tx) error) error {
	m.mu.RLock()
	entry, ok := m.entries[txID]
	m.mu.RUnlock()
	if !ok {
		return ErrTxNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.tx)
}

// Commit atomically removes tx_id from the registry and commits the
// extracted Tx. Removing the entry before the driver call is what lets a
// concurrent sweeper lose the race cleanly instead of double-finalizing.
func (m *TxManager) Commit(ctx context.Context, txID string) error {
	tx, err := m.remove(txID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Rollback is Commit's rollback counterpart.
func (m *TxManager) Rollback(ctx context.Context, txID string) error {
	tx, err := m.remove(txID)
	if err != nil {
		return err
	}
	return tx.Rollback(ctx)
}

func (m *TxManager) remove(txID string) (*Tx, error) {
	m.mu.Lock()
	entry, ok := m.entries[txID]
	if ok {
		delete(m.entries, txID)
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrTxNotFound
	}
	return entry.tx, nil
}

// Close stops the sweeper: it flips the alive flag and blocks until the
// sweeper finishes draining every registered transaction and closes
// m.done. Idempotent: a second Close call sees alive already false and
// returns immediately without waiting.
func (m *TxManager) Close() {
	if !m.alive.CompareAndSwap(true, false) {
		return
	}
	<-m.done
}

type staleTx struct {
	id      string
	elapsed time.Duration
}

// sweep runs in the background: on each iteration it either drains for
// shutdown (alive == false) or rolls back every entry whose lock-wait
// budget elapsed, then sleeps tx_check_interval.
func (m *TxManager) sweep() {
	for {
		if !m.alive.Load() {
			m.drainOnShutdown()
			close(m.done)
			return
		}

		now := time.Now()
		m.mu.RLock()
		var stale []staleTx
		for id, e := range m.entries {
			if d := now.Sub(e.startedAt); d > m.lockWaitTimeout {
				stale = append(stale, staleTx{id: id, elapsed: d})
			}
		}
		m.mu.RUnlock()

		for _, s := range stale {
			tx, err := m.remove(s.id)
			if err != nil {
				// Lost the race to a user-initiated commit/rollback; nothing
				// left to do for this id.
				continue
			}
			if m.logger.IsEnable() {
				m.logger.DoLog(fmt.Sprintf("rollback tx_id:%s,out of time:%s", s.id, s.elapsed))
			}
			// The sweeper recovers from its own rollback failures so one bad
			// transaction doesn't stall the sweep.
			_ = tx.Rollback(context.Background())
		}

		if len(stale) > 0 {
			m.compact()
		}

		// Sleep for tx_check_interval, waking early once Close clears
		// alive so shutdown never waits out a full interval.
		wake := time.Now().Add(m.checkInterval)
		for m.alive.Load() && time.Now().Before(wake) {
			time.Sleep(min(time.Until(wake), 10*time.Millisecond))
		}
	}
}

// compact reclaims the map's bucket memory once the registry has fully
// drained, since Go maps never shrink their backing storage on delete.
func (m *TxManager) compact() {
	m.mu.Lock()
	if len(m.entries) == 0 {
		m.entries = make(map[string]*txEntry)
	}
	m.mu.Unlock()
}

func (m *TxManager) drainOnShutdown() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		tx, err := m.remove(id)
		if err != nil {
			continue
		}
		if m.logger.IsEnable() {
			m.logger.DoLog(fmt.Sprintf("rollback tx_id:%s,Because the manager exits", id))
		}
		_ = tx.Rollback(context.Background())
	}
}
