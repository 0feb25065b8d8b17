package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/mpq/internal/models"
)

// Mirror is a client-side copy of the queue kept current with incremental change queries.
type Mirror struct {
	status models.QueueStatus
	items  []models.QueueItem
	synced bool
}

// Status returns the server status as of the last applied change set.
func (m *Mirror) Status() models.QueueStatus { return m.status }

// Items returns the mirrored entries in queue order.
func (m *Mirror) Items() []models.QueueItem { return m.items }

// Since returns the baseline to ask the server for: one past the last version seen,
// or the zero baseline for a mirror that has never synced.
func (m *Mirror) Since() models.Baseline {
	if !m.synced {
		return models.Baseline{}
	}
	return models.Baseline{Epoch: m.status.Epoch, Version: m.status.Version + 1}
}

// Apply merges a change set into the mirror.
//
// A full change set, or one from a different epoch, replaces the mirror outright.
func (m *Mirror) Apply(cs models.ChangeSet) error {
	if cs.Full || !m.synced || cs.Status.Epoch != m.status.Epoch {
		if !cs.Full && m.synced {
			return fmt.Errorf("epoch changed from %d to %d without a full change set", m.status.Epoch, cs.Status.Epoch)
		}
		m.items = m.items[:0]
	}

	n := cs.Status.Length
	if n < len(m.items) {
		clear(m.items[n:])
		m.items = m.items[:n]
	}
	for len(m.items) < n {
		m.items = append(m.items, models.QueueItem{Position: len(m.items)})
	}

	for _, item := range cs.Items {
		if item.Position < 0 || item.Position >= n {
			return fmt.Errorf("change for position %d outside queue of %d", item.Position, n)
		}
		m.items[item.Position] = item
	}

	m.status = cs.Status
	m.synced = true
	return nil
}

// Reset forgets everything, forcing a full resync on the next [Mirror.Sync].
func (m *Mirror) Reset() {
	m.items = nil
	m.synced = false
	m.status = models.QueueStatus{}
}

// Sync pulls and applies changes from the server. It reports whether anything changed.
func (m *Mirror) Sync(ctx context.Context, c *QueueClient) (bool, error) {
	if m.synced {
		st, err := c.Status(ctx)
		if err != nil {
			return false, err
		}
		if st.Epoch != m.status.Epoch {
			m.Reset()
		} else if st.Version == m.status.Version && st.Current == m.status.Current {
			return false, nil
		}
	}

	cs, err := c.Changes(ctx, m.Since(), 0, nil, false)
	if err != nil {
		return false, err
	}
	if err := m.Apply(cs); err != nil {
		m.Reset()
		return false, err
	}
	return true, nil
}
