package booking

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/alglobo/coordinator/internal/wire"
)

// row is one service's current (state, fee) pair.
type row struct {
	State TransactionState
	Fee   float64
}

// Transaction is the per-booking aggregate spec.md §3/§4.3 describes:
// an id plus exactly the three {Airline, Hotel, Bank} rows. It carries
// no internal locking of its own — per spec.md §5's "the Current-
// Transaction cell is the only cross-thread mutable state", all
// concurrent access is serialized by the cell that holds it
// (package cell), not by Transaction itself.
type Transaction struct {
	ID   uint64
	rows map[ServiceName]row
}

// New creates a Transaction with every service Waiting, the shape the
// File Reader produces (spec.md §3 "Lifecycle").
func New(id uint64, fees map[ServiceName]float64) *Transaction {
	t := &Transaction{ID: id, rows: make(map[ServiceName]row, 3)}
	for _, s := range Services {
		t.rows[s] = row{State: Waiting, Fee: fees[s]}
	}
	return t
}

// FromLogRows reconstructs a Transaction from a decoded LOG frame's
// rows, in the fixed {Airline, Hotel, Bank} order (spec.md §4.1/§4.4).
func FromLogRows(id uint64, rows [3]wire.Row) *Transaction {
	t := &Transaction{ID: id, rows: make(map[ServiceName]row, 3)}
	for i, s := range Services {
		t.rows[s] = row{State: FromByte(rows[i].State), Fee: rows[i].Fee}
	}
	return t
}

// FromRetry reconstructs a fresh, all-Waiting Transaction from a decoded
// RETRY frame (spec.md §4.4).
func FromRetry(p wire.RetryPayload) *Transaction {
	return New(p.ID, map[ServiceName]float64{
		Airline: p.AirlineFee,
		Hotel:   p.HotelFee,
		Bank:    p.BankFee,
	})
}

// transition applies the spec.md §4.3 transition matrix for one
// service: if fee is non-nil the Leader's authoritative view always
// wins (log-replication overwrite); otherwise the move is only taken
// when the service's current state is one of allowedSources. Returns
// true iff the transition was applied (always, when fee is non-nil).
func (t *Transaction) transition(s ServiceName, newState TransactionState, allowedSources []TransactionState, fee *float64) bool {
	r := t.rows[s]
	if fee != nil {
		r.State = newState
		r.Fee = *fee
		t.rows[s] = r
		return true
	}
	for _, src := range allowedSources {
		if r.State == src {
			r.State = newState
			t.rows[s] = r
			return true
		}
	}
	return false
}

// Wait marks s Waiting. Per spec.md §4.3, with no fee this is never a
// legal transition (the allowed-source set is empty) — wait only takes
// effect when fee is supplied, i.e. during log replication / retry
// reconstruction.
func (t *Transaction) Wait(s ServiceName, fee *float64) bool {
	return t.transition(s, Waiting, nil, fee)
}

// Accept marks s Accepted, from Waiting (or unconditionally if fee is
// supplied).
func (t *Transaction) Accept(s ServiceName, fee *float64) bool {
	return t.transition(s, Accepted, []TransactionState{Waiting}, fee)
}

// Abort marks s Aborted, from Waiting or Accepted (or unconditionally if
// fee is supplied).
func (t *Transaction) Abort(s ServiceName, fee *float64) bool {
	return t.transition(s, Aborted, []TransactionState{Waiting, Accepted}, fee)
}

// Commit marks s Committed, from Accepted (or unconditionally if fee is
// supplied).
func (t *Transaction) Commit(s ServiceName, fee *float64) bool {
	return t.transition(s, Committed, []TransactionState{Accepted}, fee)
}

// State returns s's current state and fee.
func (t *Transaction) State(s ServiceName) (TransactionState, float64) {
	r := t.rows[s]
	return r.State, r.Fee
}

func (t *Transaction) selectRows(match func(TransactionState) bool) map[ServiceName]float64 {
	names := mapset.NewSet[ServiceName]()
	for _, s := range Services {
		if match(t.rows[s].State) {
			names.Add(s)
		}
	}
	out := make(map[ServiceName]float64, names.Cardinality())
	for _, s := range names.ToSlice() {
		out[s] = t.rows[s].Fee
	}
	return out
}

// WaitingServices returns every service still Waiting, with its fee.
func (t *Transaction) WaitingServices() map[ServiceName]float64 {
	return t.selectRows(func(s TransactionState) bool { return s == Waiting })
}

// AcceptedServices returns every service currently Accepted, with its fee.
func (t *Transaction) AcceptedServices() map[ServiceName]float64 {
	return t.selectRows(func(s TransactionState) bool { return s == Accepted })
}

// NotAbortedServices returns every service that is Waiting or Accepted
// (i.e. not yet Aborted), with its fee.
func (t *Transaction) NotAbortedServices() map[ServiceName]float64 {
	return t.selectRows(func(s TransactionState) bool { return s == Waiting || s == Accepted })
}

// AllServices returns every service with its fee, regardless of state.
func (t *Transaction) AllServices() map[ServiceName]float64 {
	return t.selectRows(func(TransactionState) bool { return true })
}

func (t *Transaction) allMatch(match func(TransactionState) bool) bool {
	for _, s := range Services {
		if !match(t.rows[s].State) {
			return false
		}
	}
	return true
}

// IsAnyWaiting reports whether at least one service is still Waiting.
func (t *Transaction) IsAnyWaiting() bool {
	for _, s := range Services {
		if t.rows[s].State == Waiting {
			return true
		}
	}
	return false
}

// IsAccepted reports whether all three services are Accepted
// (spec.md §3 invariant (b), §8 invariant 1).
func (t *Transaction) IsAccepted() bool {
	return t.allMatch(func(s TransactionState) bool { return s == Accepted })
}

// IsAborted reports whether all three services are Aborted.
func (t *Transaction) IsAborted() bool {
	return t.allMatch(func(s TransactionState) bool { return s == Aborted })
}

// IsCommitted reports whether all three services are Committed.
func (t *Transaction) IsCommitted() bool {
	return t.allMatch(func(s TransactionState) bool { return s == Committed })
}

// Log encodes this Transaction as a LOG frame (spec.md §4.3/§4.1), in
// the fixed {Airline, Hotel, Bank} wire order.
func (t *Transaction) Log() []byte {
	var rows [3]wire.Row
	for i, s := range Services {
		r := t.rows[s]
		rows[i] = wire.Row{State: r.State.ByteCode(), Fee: r.Fee}
	}
	return wire.EncodeLog(t.ID, rows)
}

// Retry encodes this Transaction as a RETRY frame (spec.md §4.3/§4.1).
func (t *Transaction) Retry() []byte {
	return wire.EncodeRetry(t.ID, t.rows[Airline].Fee, t.rows[Hotel].Fee, t.rows[Bank].Fee)
}

// Representation renders a human-readable "id,[state?],fee,..." line
// used for the abort file (includeStates=false) and trace logs
// (includeStates=true), per spec.md §4.3/§6.
func (t *Transaction) Representation(includeStates bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", t.ID)
	for _, s := range Services {
		r := t.rows[s]
		if includeStates {
			fmt.Fprintf(&b, ",%s", r.State)
		}
		fmt.Fprintf(&b, ",%v", r.Fee)
	}
	return b.String()
}
