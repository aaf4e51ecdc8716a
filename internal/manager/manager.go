// Package manager implements the Transaction Manager (spec.md §4.5): the
// Leader-side 2PC driver that takes a booking through Prepare, then
// Commit or Abort, replicating state to followers after every phase and
// persisting aborted bookings to an append file.
//
// Grounded on the teacher's network/coordinator/manager.go 2PC
// coordinator loop and original_source/src/alglobo/transaction_manager.rs's
// prepare/commit/abort phase functions, restructured around
// internal/cell's condition-variable cells instead of the teacher's raw
// mutex + manual notify calls.
package manager

import (
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/tidwall/wal"

	"github.com/alglobo/coordinator/internal/booking"
	"github.com/alglobo/coordinator/internal/bookingfile"
	"github.com/alglobo/coordinator/internal/broadcast"
	"github.com/alglobo/coordinator/internal/cell"
	"github.com/alglobo/coordinator/internal/config"
	"github.com/alglobo/coordinator/internal/wire"
)

// Manager owns the outbound socket and drives (F) in spec.md §2's
// component table: Prepare -> {Commit | Abort}, with timeouts,
// replication, retries, and abort persistence.
type Manager struct {
	conn         net.PacketConn
	txCell       *cell.Cell[*booking.Transaction]
	ended        *cell.Cell[bool]
	services     map[booking.ServiceName]string
	peers        []string // every replica address, including self
	self         string
	phaseTimeout time.Duration
	abortFile    *os.File // nil disables abort persistence
	trace        *wal.Log // nil disables the phase-trace journal
}

// New builds a Manager. abortFile and trace may be nil.
func New(
	conn net.PacketConn,
	txCell *cell.Cell[*booking.Transaction],
	ended *cell.Cell[bool],
	services map[booking.ServiceName]string,
	peers []string,
	self string,
	phaseTimeout time.Duration,
	abortFile *os.File,
	trace *wal.Log,
) *Manager {
	return &Manager{
		conn:         conn,
		txCell:       txCell,
		ended:        ended,
		services:     services,
		peers:        peers,
		self:         self,
		phaseTimeout: phaseTimeout,
		abortFile:    abortFile,
		trace:        trace,
	}
}

func (m *Manager) requestFrame(op byte, id uint64, fee float64) []byte {
	switch op {
	case wire.OpPrepare:
		return wire.EncodePrepare(id, fee)
	case wire.OpAbort:
		return wire.EncodeAbort(id, fee)
	case wire.OpCommit:
		return wire.EncodeCommit(id, fee)
	default:
		panic(fmt.Sprintf("manager: unknown request opcode %q", op))
	}
}

// broadcastRequests sends op to every (service, fee) pair in targets,
// using each service's roster address.
func (m *Manager) broadcastRequests(op byte, id uint64, targets map[booking.ServiceName]float64) {
	frames := make(map[string][]byte, len(targets))
	for name, fee := range targets {
		addr, ok := m.services[name]
		if !ok {
			config.Warn("manager: no roster address for service %s", name)
			continue
		}
		frames[addr] = m.requestFrame(op, id, fee)
	}
	if err := broadcast.SendEach(m.conn, frames); err != nil {
		config.Warn("manager: request broadcast error: %v", err)
	}
}

// sendTransactionLogs replicates the current Transaction's LOG encoding
// to every peer except self, per spec.md §4.5's send_transaction_logs.
func (m *Manager) sendTransactionLogs() {
	var frame []byte
	m.txCell.Peek(func(tx *booking.Transaction) {
		if tx != nil {
			frame = tx.Log()
		}
	})
	if frame == nil {
		return
	}
	targets := make([]string, 0, len(m.peers))
	for _, peer := range m.peers {
		if peer != m.self {
			targets = append(targets, peer)
		}
	}
	if err := broadcast.Send(m.conn, targets, frame); err != nil {
		config.Warn("manager: log replication error: %v", err)
	}
}

// recordTrace appends a (txn id, phase, representation) line to the
// phase-trace journal, if one is configured. This is an auxiliary,
// inspectable record distinct from the plain-text abort file.
func (m *Manager) recordTrace(phase string) {
	if m.trace == nil {
		return
	}
	var line string
	m.txCell.Peek(func(tx *booking.Transaction) {
		if tx != nil {
			line = fmt.Sprintf("%d %s %s", tx.ID, phase, tx.Representation(true))
		}
	})
	if line == "" {
		return
	}
	idx, err := m.trace.LastIndex()
	if err != nil {
		config.Warn("manager: trace log read error: %v", err)
		return
	}
	if err := m.trace.Write(idx+1, []byte(line)); err != nil {
		config.Warn("manager: trace log write error: %v", err)
	}
}

// preparePhase sends Prepare to every waiting service, waits for every
// service to leave Waiting or for the phase timeout, then replicates.
func (m *Manager) preparePhase() {
	var id uint64
	var waiting map[booking.ServiceName]float64
	m.txCell.Peek(func(tx *booking.Transaction) {
		id = tx.ID
		waiting = tx.WaitingServices()
	})

	m.broadcastRequests(wire.OpPrepare, id, waiting)

	if err := m.txCell.WaitTimeoutWhile(m.phaseTimeout, func(tx *booking.Transaction) bool {
		return tx != nil && tx.IsAnyWaiting()
	}); err != nil {
		config.BookingPrintf(id, "prepare phase: %v", err)
	}

	m.sendTransactionLogs()
	m.recordTrace("PREPARE")
}

// commitLoop repeats Commit broadcasts until every service is Committed.
// Per spec.md §4.5, commits never abort — they are retried until
// universally acknowledged.
func (m *Manager) commitLoop() {
	for {
		var id uint64
		var committed bool
		var accepted map[booking.ServiceName]float64
		m.txCell.Peek(func(tx *booking.Transaction) {
			id = tx.ID
			committed = tx.IsCommitted()
			accepted = tx.AcceptedServices()
		})
		if committed {
			return
		}

		m.broadcastRequests(wire.OpCommit, id, accepted)

		if err := m.txCell.WaitTimeoutWhile(m.phaseTimeout, func(tx *booking.Transaction) bool {
			return tx == nil || !tx.IsCommitted()
		}); err != nil {
			config.BookingPrintf(id, "commit phase: %v, retrying", err)
		}

		m.sendTransactionLogs()
		m.recordTrace("COMMIT")
	}
}

// abortPhase repeats Abort broadcasts until every service is Aborted,
// then appends a one-line representation to the abort file.
func (m *Manager) abortPhase() {
	for {
		var id uint64
		var aborted bool
		var notAborted map[booking.ServiceName]float64
		m.txCell.Peek(func(tx *booking.Transaction) {
			id = tx.ID
			aborted = tx.IsAborted()
			notAborted = tx.NotAbortedServices()
		})
		if aborted {
			break
		}

		m.broadcastRequests(wire.OpAbort, id, notAborted)

		if err := m.txCell.WaitTimeoutWhile(m.phaseTimeout, func(tx *booking.Transaction) bool {
			return tx == nil || !tx.IsAborted()
		}); err != nil {
			config.BookingPrintf(id, "abort phase: %v, retrying", err)
		}

		m.sendTransactionLogs()
		m.recordTrace("ABORT")
	}
	m.appendAbortRecord()
}

func (m *Manager) appendAbortRecord() {
	if m.abortFile == nil {
		return
	}
	var line string
	m.txCell.Peek(func(tx *booking.Transaction) {
		if tx != nil {
			line = tx.Representation(false)
		}
	})
	if line == "" {
		return
	}
	if _, err := fmt.Fprintln(m.abortFile, line); err != nil {
		config.Warn("manager: failed to append abort record: %v", err)
	}
}

// Process runs the per-transaction pipeline spec.md §4.5 describes: if
// tx is non-nil it is installed into the cell first (step 1), otherwise
// whatever the cell currently holds is processed (e.g. a transaction
// just restored by a LOG replica or an admitted RETRY). Returns the id
// of the transaction now in the cell, or 0 if the cell is empty.
func (m *Manager) Process(tx *booking.Transaction) uint64 {
	if tx != nil {
		m.txCell.Set(tx)
	}

	var empty bool
	m.txCell.Peek(func(cur *booking.Transaction) { empty = cur == nil })
	if empty {
		return 0
	}

	m.preparePhase()

	var accepted, committed bool
	m.txCell.Peek(func(cur *booking.Transaction) {
		accepted = cur.IsAccepted()
		committed = cur.IsCommitted()
	})

	if accepted || committed {
		m.commitLoop()
	} else {
		m.abortPhase()
	}

	var id uint64
	m.txCell.Peek(func(cur *booking.Transaction) { id = cur.ID })
	return id
}

// Run is the Leader's main loop (spec.md §4.5): process whatever the
// cell already holds (the result is start_line, the last transaction
// already in progress), drive every later booking from the file paced
// by config.SleepManager, then enter the quiescent retry wait. finish
// is set once the Leader gives up waiting for a RETRY past
// config.EndTimeout.
func (m *Manager) Run(path string, finish *atomic.Bool) {
	startLine := m.Process(nil)

	reader, err := bookingfile.NewReader(path)
	config.CheckError(err)
	defer reader.Close()

	for {
		tx, ok := reader.Next()
		if !ok {
			break
		}
		if tx.ID <= startLine {
			continue
		}
		time.Sleep(config.SleepManager)
		m.Process(tx)
	}

	for {
		m.ended.Set(true)
		err := m.ended.WaitTimeoutWhile(config.EndTimeout, func(ended bool) bool { return ended })
		if err != nil {
			finish.Store(true)
			return
		}
		m.Process(nil)
	}
}
