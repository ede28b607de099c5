package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memRepo is an in-memory Repository that enforces administration scoping
// the way the SQL store does.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*Transaction
	lists  int
}

func (m *memRepo) Insert(_ context.Context, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tx.ID = m.nextID
	cp := *tx
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRepo) InsertBatch(ctx context.Context, administration string, txs []*Transaction) error {
	for _, tx := range txs {
		if tx.Administration != administration {
			return ErrTenantMismatch
		}
	}
	for _, tx := range txs {
		if err := m.Insert(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRepo) List(_ context.Context, administration string, f Filter) ([]*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []*Transaction
	for _, r := range m.rows {
		if r.Administration != administration {
			continue
		}
		if f.Account != "" && r.Debet != f.Account && r.Credit != f.Account {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) LatestByDescriptionPrefix(_ context.Context, administration, prefix string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Transaction
	for _, r := range m.rows {
		if r.Administration == administration && strings.HasPrefix(r.Description, prefix) {
			if best == nil || r.Date.After(best.Date) || (r.Date.Equal(best.Date) && r.ID > best.ID) {
				best = r
			}
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memRepo) History(_ context.Context, administration, account string, since time.Time, limit int) ([]*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Transaction
	for _, r := range m.rows {
		if r.Administration == administration && (r.Debet == account || r.Credit == account) && !r.Date.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
