// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memrp provides an in-memory Store which implements the
// repo.Pool, repo.Slots, repo.Movements, and repo.Settings interfaces
// for the use case unit tests.
//
// Transactions are serialized by one mutex and roll back by restoring
// a snapshot of the whole store, so the fake is only suitable for
// small data sets. Raw SQL statements are not supported.
package memrp

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
)

// ErrRawSQL is returned by the Exec and Query methods.
var ErrRawSQL = errors.New("raw sql is not supported by memrp")

type state struct {
	slots     []model.Slot
	movements []model.Movement
	settings  *model.Settings
	nextSlot  int64
	nextMove  int64
}

func (st *state) clone() *state {
	c := &state{
		slots:     slices.Clone(st.slots),
		movements: make([]model.Movement, len(st.movements)),
		nextSlot:  st.nextSlot,
		nextMove:  st.nextMove,
	}
	copy(c.movements, st.movements)
	if st.settings != nil {
		s := *st.settings
		s.Tariffs = maps.Clone(st.settings.Tariffs)
		c.settings = &s
	}
	return c
}

// Store keeps the slots, movements, and settings in memory.
type Store struct {
	mu sync.Mutex
	st *state

	// BeforeTx is called (if non-nil) at the beginning of each
	// transaction. Its non-nil error aborts that transaction.
	BeforeTx func() error

	txCount int
}

// New creates an empty Store with the s settings. A nil s makes the
// Fetch method report a missing setting.
func New(s *model.Settings) *Store {
	st := &state{nextSlot: 1, nextMove: 1}
	if s != nil {
		c := *s
		c.Tariffs = maps.Clone(s.Tariffs)
		st.settings = &c
	}
	return &Store{st: st}
}

// AddSlots appends free slots with the given codes and class and
// returns them.
func (s *Store) AddSlots(class model.VehicleType, codes ...string) []model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := make([]model.Slot, 0, len(codes))
	for _, code := range codes {
		sl := model.Slot{
			ID: s.st.nextSlot, Code: code, Class: class,
			State: model.SlotStateFree,
		}
		s.st.nextSlot++
		s.st.slots = append(s.st.slots, sl)
		added = append(added, sl)
	}
	return added
}

// Slot returns a copy of the id slot.
func (s *Store) Slot(id int64) (model.Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.st.slotIndex(id); i >= 0 {
		return s.st.slots[i], true
	}
	return model.Slot{}, false
}

// SetSlotState changes the state of the id slot, reporting false if
// it does not exist.
func (s *Store) SetSlotState(id int64, st model.SlotState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.st.slotIndex(id)
	if i < 0 {
		return false
	}
	s.st.slots[i].State = st
	return true
}

// Movements returns a copy of all movements, in insertion order.
func (s *Store) Movements() []model.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.movements)
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() *model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.clone().settings
}

// TxCount returns the number of transactions which were begun.
func (s *Store) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// Conn implements the repo.Pool interface.
func (s *Store) Conn(ctx context.Context, f repo.ConnHandler) error {
	return f(ctx, &conn{s: s})
}

type conn struct {
	s *Store
}

func (c *conn) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrRawSQL
}

func (c *conn) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, ErrRawSQL
}

func (c *conn) IsConn() {}

func (c *conn) Tx(ctx context.Context, f repo.TxHandler) (err error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	if s.BeforeTx != nil {
		if err = s.BeforeTx(); err != nil {
			return err
		}
	}
	snapshot := s.st.clone()
	defer func() {
		if r := recover(); r != nil {
			s.st = snapshot
			err = fmt.Errorf("panicked: %v", r)
			return
		}
		if err != nil {
			s.st = snapshot
			err = fmt.Errorf("handler: %w", err)
		}
	}()
	return f(ctx, &tx{s: s})
}

type tx struct {
	s *Store
}

func (t *tx) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrRawSQL
}

func (t *tx) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, ErrRawSQL
}

func (t *tx) IsTx() {}

// access runs f on the state, taking the mutex unless it is held by
// an ongoing transaction already.
type access struct {
	s      *Store
	locked bool
}

func (a access) do(f func(st *state) error) error {
	if !a.locked {
		a.s.mu.Lock()
		defer a.s.mu.Unlock()
	}
	return f(a.s.st)
}

func connAccess(c repo.Conn) access {
	return access{s: c.(*conn).s}
}

func txAccess(t repo.Tx) access {
	return access{s: t.(*tx).s, locked: true}
}

func (st *state) slotIndex(id int64) int {
	for i := range st.slots {
		if st.slots[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *state) movementIndex(id int64) int {
	for i := range st.movements {
		if st.movements[i].ID == id {
			return i
		}
	}
	return -1
}

// SlotsRepo returns the repo.Slots view of the store.
func (s *Store) SlotsRepo() repo.Slots {
	return slotsRepo{}
}

type slotsRepo struct{}

func (slotsRepo) Conn(c repo.Conn) repo.SlotsConnQueryer {
	return slotsQueryer{connAccess(c)}
}

func (slotsRepo) Tx(t repo.Tx) repo.SlotsTxQueryer {
	return slotsQueryer{txAccess(t)}
}

type slotsQueryer struct {
	access
}

func slotNotFound(id int64) error {
	return cerr.NotFound(fmt.Errorf("slot %d: %w", id, model.ErrSlotNotFound))
}

func (q slotsQueryer) Get(_ context.Context, id int64) (sl *model.Slot, err error) {
	err = q.do(func(st *state) error {
		i := st.slotIndex(id)
		if i < 0 {
			return slotNotFound(id)
		}
		c := st.slots[i]
		sl = &c
		return nil
	})
	return
}

func (q slotsQueryer) GetByCode(_ context.Context, code string) (sl *model.Slot, err error) {
	err = q.do(func(st *state) error {
		for _, c := range st.slots {
			if c.Code == code {
				sl = &c
				return nil
			}
		}
		return cerr.NotFound(
			fmt.Errorf("slot %q: %w", code, model.ErrSlotNotFound),
		)
	})
	return
}

func (q slotsQueryer) List(_ context.Context, f model.SlotFilter) (ss []model.Slot, err error) {
	err = q.do(func(st *state) error {
		ss = []model.Slot{}
		for _, sl := range st.slots {
			if f.Class != model.VehicleTypeInvalid && sl.Class != f.Class {
				continue
			}
			if f.State != model.SlotStateInvalid && sl.State != f.State {
				continue
			}
			ss = append(ss, sl)
		}
		sort.Slice(ss, func(i, j int) bool { return ss[i].Code < ss[j].Code })
		return nil
	})
	return
}

func (q slotsQueryer) Count(context.Context) (n int64, err error) {
	err = q.do(func(st *state) error {
		n = int64(len(st.slots))
		return nil
	})
	return
}

func (q slotsQueryer) Availability(context.Context) (as []model.Availability, err error) {
	err = q.do(func(st *state) error {
		for _, vt := range model.VehicleTypes() {
			a := model.Availability{Class: vt}
			for _, sl := range st.slots {
				if sl.Class != vt {
					continue
				}
				switch sl.State {
				case model.SlotStateFree:
					a.Free++
				case model.SlotStateOccupied:
					a.Occupied++
				case model.SlotStateInactive:
					a.Inactive++
				}
			}
			as = append(as, a)
		}
		return nil
	})
	return
}

func (q slotsQueryer) LockFirstFree(_ context.Context, class model.VehicleType) (sl *model.Slot, err error) {
	err = q.do(func(st *state) error {
		for _, c := range st.slots {
			if c.Class == class && c.State == model.SlotStateFree {
				sl = &c
				return nil
			}
		}
		return nil
	})
	return
}

func (q slotsQueryer) LockByID(ctx context.Context, id int64) (*model.Slot, error) {
	return q.Get(ctx, id)
}

func (q slotsQueryer) SetState(_ context.Context, id int64, ss model.SlotState) error {
	return q.do(func(st *state) error {
		i := st.slotIndex(id)
		if i < 0 {
			return slotNotFound(id)
		}
		st.slots[i].State = ss
		return nil
	})
}

func (q slotsQueryer) SetClass(_ context.Context, id int64, class model.VehicleType) error {
	return q.do(func(st *state) error {
		i := st.slotIndex(id)
		if i < 0 {
			return slotNotFound(id)
		}
		st.slots[i].Class = class
		return nil
	})
}

func (q slotsQueryer) Create(_ context.Context, sl *model.Slot) error {
	return q.do(func(st *state) error {
		for _, c := range st.slots {
			if c.Code == sl.Code {
				return cerr.Conflict(fmt.Errorf(
					"slot %q: %w", sl.Code, model.ErrDuplicateSlotCode,
				))
			}
		}
		sl.ID = st.nextSlot
		st.nextSlot++
		st.slots = append(st.slots, *sl)
		return nil
	})
}

func (q slotsQueryer) Delete(_ context.Context, id int64) error {
	return q.do(func(st *state) error {
		i := st.slotIndex(id)
		if i < 0 {
			return slotNotFound(id)
		}
		st.slots = slices.Delete(st.slots, i, i+1)
		for j := range st.movements {
			if m := &st.movements[j]; m.SlotID != nil && *m.SlotID == id {
				m.SlotID = nil
			}
		}
		return nil
	})
}

// MovementsRepo returns the repo.Movements view of the store.
func (s *Store) MovementsRepo() repo.Movements {
	return movementsRepo{}
}

type movementsRepo struct{}

func (movementsRepo) Conn(c repo.Conn) repo.MovementsConnQueryer {
	return movementsQueryer{connAccess(c)}
}

func (movementsRepo) Tx(t repo.Tx) repo.MovementsTxQueryer {
	return movementsQueryer{txAccess(t)}
}

type movementsQueryer struct {
	access
}

func (q movementsQueryer) Get(_ context.Context, id int64) (m *model.Movement, err error) {
	err = q.do(func(st *state) error {
		i := st.movementIndex(id)
		if i < 0 {
			return cerr.NotFound(
				fmt.Errorf("movement %d: %w", id, model.ErrMovementNotFound),
			)
		}
		c := st.movements[i]
		m = &c
		return nil
	})
	return
}

func (q movementsQueryer) FindActive(_ context.Context, term string) (m *model.Movement, err error) {
	err = q.do(func(st *state) error {
		for _, match := range []func(*model.Movement) bool{
			func(c *model.Movement) bool { return c.Plate == term },
			func(c *model.Movement) bool { return c.SlotCode == term },
		} {
			for _, c := range st.movements {
				if c.Active() && match(&c) {
					m = &c
					return nil
				}
			}
		}
		return cerr.NotFound(
			fmt.Errorf("%q: %w", term, model.ErrNoActiveMovement),
		)
	})
	return
}

func (q movementsQueryer) HasActive(_ context.Context, plate string) (has bool, err error) {
	err = q.do(func(st *state) error {
		for _, c := range st.movements {
			if c.Active() && c.Plate == plate {
				has = true
			}
		}
		return nil
	})
	return
}

func (q movementsQueryer) ListActive(context.Context) (ms []model.Movement, err error) {
	err = q.do(func(st *state) error {
		ms = []model.Movement{}
		for _, c := range st.movements {
			if c.Active() {
				ms = append(ms, c)
			}
		}
		slices.Reverse(ms)
		return nil
	})
	return
}

func (q movementsQueryer) Recent(_ context.Context, limit int) (ms []model.Movement, err error) {
	err = q.do(func(st *state) error {
		ms = []model.Movement{}
		for _, c := range st.movements {
			if !c.Active() {
				ms = append(ms, c)
			}
		}
		sort.Slice(ms, func(i, j int) bool {
			if ms[i].ExitTime.Equal(*ms[j].ExitTime) {
				return ms[i].ID > ms[j].ID
			}
			return ms[i].ExitTime.After(*ms[j].ExitTime)
		})
		if len(ms) > limit {
			ms = ms[:limit]
		}
		return nil
	})
	return
}

func (q movementsQueryer) Summary(_ context.Context, from, to time.Time) (sum *model.LedgerSummary, err error) {
	err = q.do(func(st *state) error {
		sum = &model.LedgerSummary{From: from, To: to, Revenue: decimal.Zero}
		for _, c := range st.movements {
			if c.Active() || c.ExitTime.Before(from) || !c.ExitTime.Before(to) {
				continue
			}
			sum.Exits++
			if c.ForcedRelease {
				sum.Forced++
			}
			sum.Revenue = sum.Revenue.Add(*c.Fee)
		}
		return nil
	})
	return
}

func (q movementsQueryer) LockByID(ctx context.Context, id int64) (*model.Movement, error) {
	return q.Get(ctx, id)
}

func (q movementsQueryer) LockActiveBySlot(_ context.Context, slotID int64) (m *model.Movement, err error) {
	err = q.do(func(st *state) error {
		for _, c := range st.movements {
			if c.Active() && c.SlotID != nil && *c.SlotID == slotID {
				m = &c
				return nil
			}
		}
		return cerr.Conflict(fmt.Errorf(
			"slot %d: %w", slotID, model.ErrNoActiveMovement,
		))
	})
	return
}

func (q movementsQueryer) Insert(_ context.Context, m *model.Movement) error {
	return q.do(func(st *state) error {
		for _, c := range st.movements {
			if !c.Active() {
				continue
			}
			if c.Plate == m.Plate {
				return cerr.Conflict(fmt.Errorf(
					"plate %q: %w", m.Plate, model.ErrDuplicateActiveEntry,
				))
			}
			if c.SlotID != nil && m.SlotID != nil && *c.SlotID == *m.SlotID {
				return cerr.Conflict(fmt.Errorf(
					"slot %q: %w", m.SlotCode, model.ErrSlotOccupied,
				))
			}
		}
		m.ID = st.nextMove
		st.nextMove++
		c := *m
		c.ExitTime, c.Fee, c.ClosedBy, c.ForcedRelease = nil, nil, nil, false
		st.movements = append(st.movements, c)
		return nil
	})
}

func (q movementsQueryer) Close(
	_ context.Context,
	id int64,
	exit time.Time,
	fee decimal.Decimal,
	forced bool,
	actor uuid.UUID,
) error {
	return q.do(func(st *state) error {
		i := st.movementIndex(id)
		if i < 0 || !st.movements[i].Active() {
			return cerr.Conflict(
				fmt.Errorf("movement %d: %w", id, model.ErrAlreadyExited),
			)
		}
		m := &st.movements[i]
		m.ExitTime, m.Fee, m.ClosedBy = &exit, &fee, &actor
		m.ForcedRelease = forced
		return nil
	})
}

// SettingsRepo returns the repo.Settings view of the store.
func (s *Store) SettingsRepo() repo.Settings {
	return settingsRepo{}
}

type settingsRepo struct{}

func (settingsRepo) Conn(c repo.Conn) repo.SettingsConnQueryer {
	return settingsQueryer{connAccess(c)}
}

func (settingsRepo) Tx(t repo.Tx) repo.SettingsTxQueryer {
	return settingsQueryer{txAccess(t)}
}

type settingsQueryer struct {
	access
}

func missingSettings() error {
	return cerr.Configuration(model.ErrMissingSetting)
}

func (q settingsQueryer) Fetch(context.Context) (s *model.Settings, err error) {
	err = q.do(func(st *state) error {
		if st.settings == nil {
			return missingSettings()
		}
		s = st.clone().settings
		return nil
	})
	return
}

func (q settingsQueryer) UpdateBilling(_ context.Context, bp model.BillingPolicy) error {
	return q.do(func(st *state) error {
		if st.settings == nil {
			return missingSettings()
		}
		st.settings.Billing = bp
		return nil
	})
}

func (q settingsQueryer) UpdateTariff(_ context.Context, vt model.VehicleType, rate decimal.Decimal) error {
	return q.do(func(st *state) error {
		if st.settings == nil {
			return missingSettings()
		}
		if st.settings.Tariffs == nil {
			st.settings.Tariffs = model.Tariffs{}
		}
		st.settings.Tariffs[vt] = rate
		return nil
	})
}

func (q settingsQueryer) UpdateCapacityLimit(_ context.Context, limit int) error {
	return q.do(func(st *state) error {
		if st.settings == nil {
			return missingSettings()
		}
		st.settings.SlotCapacityLimit = limit
		return nil
	})
}

func (q settingsQueryer) LockCapacityLimit(context.Context) (limit int, err error) {
	err = q.do(func(st *state) error {
		if st.settings == nil {
			return missingSettings()
		}
		limit = st.settings.SlotCapacityLimit
		return nil
	})
	return
}
