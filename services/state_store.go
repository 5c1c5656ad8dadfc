package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/keepsake/engagement"
	"github.com/cppla/keepsake/models"
)

// StateCache is a read-through cache in front of the store. Entries carry the
// row version; Set must keep the stored entry when it is newer than version.
// Implementations treat every failure as a miss.
type StateCache interface {
	Get(ctx context.Context, identity string) (engagement.State, bool)
	Set(ctx context.Context, identity string, version int64, s engagement.State)
}

// StateStore persists one engagement record per identity.
//
// Every write runs in a transaction holding the row lock, so concurrent
// merges for one identity commit one after the other as whole records.
type StateStore struct {
	db    *gorm.DB
	cache StateCache
}

// NewStateStore creates a store. cache may be nil.
func NewStateStore(db *gorm.DB, cache StateCache) *StateStore {
	return &StateStore{db: db, cache: cache}
}

// Get returns the record for identity, creating the default record first if
// none exists.
func (s *StateStore) Get(ctx context.Context, identity string) (engagement.State, error) {
	if s.cache != nil {
		if st, ok := s.cache.Get(ctx, identity); ok {
			return st, nil
		}
	}

	db := s.db.WithContext(ctx)
	if err := ensureRow(db, identity); err != nil {
		return engagement.State{}, err
	}
	var row models.EngagementState
	if err := db.Where("identity = ?", identity).First(&row).Error; err != nil {
		return engagement.State{}, fmt.Errorf("load engagement state: %w", err)
	}
	st, err := row.State()
	if err != nil {
		return engagement.State{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, identity, row.Version, st)
	}
	return st, nil
}

// Merge applies the set fields of patch to the record of identity and
// returns the committed record. The record is created when missing.
func (s *StateStore) Merge(ctx context.Context, identity string, patch engagement.Patch) (engagement.State, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, identity)
	}
	return s.update(ctx, identity, func(cur engagement.State) (engagement.State, error) {
		next, err := engagement.ApplyPatch(cur, patch)
		if err != nil {
			return cur, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return next, nil
	})
}

// Visit counts today's visit and assigns today's content in one step, using
// the committed record as the snapshot. A visit before nextAvailableDate is
// not counted but still receives today's content. Repeating it on the same
// day changes nothing.
func (s *StateStore) Visit(ctx context.Context, identity, today string, pools engagement.Pools, rng engagement.Rand) (engagement.State, error) {
	return s.update(ctx, identity, func(cur engagement.State) (engagement.State, error) {
		var err error
		next := cur
		if engagement.CanAdvance(cur, today) {
			if next, err = engagement.Advance(cur, today); err != nil {
				return cur, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
		}
		if _, next, err = engagement.SelectForDate(next, today, pools, rng); err != nil {
			return cur, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return next, nil
	})
}

func (s *StateStore) update(ctx context.Context, identity string, fn func(engagement.State) (engagement.State, error)) (engagement.State, error) {
	var (
		out     engagement.State
		version int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRow(tx, identity); err != nil {
			return err
		}
		var row models.EngagementState
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("identity = ?", identity).First(&row).Error; err != nil {
			return fmt.Errorf("lock engagement state: %w", err)
		}
		cur, err := row.State()
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if err := row.SetState(next); err != nil {
			return err
		}
		row.Version++
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("save engagement state: %w", err)
		}
		out, version = next, row.Version
		return nil
	})
	if err != nil {
		return engagement.State{}, err
	}
	// Written after commit; a reader holding an older snapshot cannot replace it.
	if s.cache != nil {
		s.cache.Set(context.WithoutCancel(ctx), identity, version, out)
	}
	return out, nil
}

// ensureRow inserts the default record unless one already exists.
func ensureRow(db *gorm.DB, identity string) error {
	if identity == "" {
		return errors.New("empty identity")
	}
	row, err := models.NewEngagementState(identity, engagement.NewState())
	if err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return fmt.Errorf("create engagement state: %w", err)
	}
	return nil
}
