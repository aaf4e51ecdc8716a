// Package receiver implements the Transaction Receiver (spec.md §4.4): a
// single-threaded ingest loop, run by both the Leader and every
// follower, that decodes one 36-byte datagram per iteration and
// dispatches on its category tag into the Current-Transaction cell and
// the "ended" cell.
//
// Grounded on the teacher's network/participant/manager.go recv loop
// and original_source/src/candidates/candidate.rs's response handling,
// restructured around the two cell.Cell holders package cell provides.
package receiver

import (
	"errors"
	"net"
	"time"

	"github.com/alglobo/coordinator/internal/booking"
	"github.com/alglobo/coordinator/internal/cell"
	"github.com/alglobo/coordinator/internal/config"
	"github.com/alglobo/coordinator/internal/txerr"
	"github.com/alglobo/coordinator/internal/wire"
)

// Receiver owns the inbound socket and the two shared cells. It does
// not own outbound sends — RESP handling never replies, only mutates
// state, per spec.md §4.4.
type Receiver struct {
	conn          net.PacketConn
	txCell        *cell.Cell[*booking.Transaction]
	ended         *cell.Cell[bool]
	addrToService map[string]booking.ServiceName
	recvTimeout   time.Duration
	buf           []byte
}

// New builds a Receiver. services maps each ServiceName to its UDP
// address, per the roster spec.md §6 describes; the Receiver inverts it
// to map an observed reply address back to the service that sent it.
func New(conn net.PacketConn, txCell *cell.Cell[*booking.Transaction], ended *cell.Cell[bool], services map[booking.ServiceName]string) *Receiver {
	inv := make(map[string]booking.ServiceName, len(services))
	for name, addr := range services {
		inv[addr] = name
	}
	return &Receiver{
		conn:          conn,
		txCell:        txCell,
		ended:         ended,
		addrToService: inv,
		recvTimeout:   config.DatagramRecvTimeout,
		buf:           make([]byte, wire.FrameSize),
	}
}

// Run blocks forever, processing one datagram per iteration, until conn
// is closed. Every read is bounded by recvTimeout (spec.md §5 "every
// datagram read is timeout-bounded"); a timeout is swallowed and the
// loop continues, every other read error is fatal (spec.md §4.4),
// matching the teacher's CheckError convention.
func (r *Receiver) Run() {
	for {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.recvTimeout)); err != nil {
			config.CheckError(err)
		}
		n, addr, err := r.conn.ReadFrom(r.buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			config.CheckError(err)
		}
		if n != wire.FrameSize {
			config.Warn("receiver: dropped short datagram (%d bytes) from %s", n, addr)
			continue
		}
		r.dispatch(addr.String(), r.buf)
	}
}

func (r *Receiver) dispatch(fromAddr string, frame []byte) {
	switch frame[0] {
	case wire.TagResponse:
		r.handleResponse(fromAddr, frame)
	case wire.TagLog:
		r.handleLog(frame)
	case wire.TagRetry:
		r.handleRetry(frame)
	default:
		config.CheckError(&wire.MalformedFrame{Context: "category tag", Byte: frame[0]})
	}
}

func (r *Receiver) handleResponse(fromAddr string, frame []byte) {
	resp, err := wire.DecodeResponse(frame)
	config.CheckError(err)

	r.txCell.Mutate(func(tx **booking.Transaction) bool {
		if *tx == nil {
			config.DPrintf("receiver: RESP for booking %d but %v", resp.ID, txerr.ErrNoCurrent)
			return false
		}
		if (*tx).ID != resp.ID {
			config.DPrintf("receiver: RESP for booking %d but %v (current is %d)", resp.ID, txerr.ErrWrongID, (*tx).ID)
			return false
		}
		service, ok := r.addrToService[fromAddr]
		if !ok {
			config.Warn("receiver: RESP from unrecognized address %s", fromAddr)
			return false
		}
		switch resp.Op {
		case wire.RespAccept:
			return (*tx).Accept(service, nil)
		case wire.RespAbort:
			return (*tx).Abort(service, nil)
		case wire.RespCommit:
			return (*tx).Commit(service, nil)
		default:
			return false
		}
	})
}

func (r *Receiver) handleLog(frame []byte) {
	id, rows, err := wire.DecodeLog(frame)
	config.CheckError(err)

	tx := booking.FromLogRows(id, rows)
	r.txCell.Set(tx)
	config.DPrintf("receiver: LOG applied for booking %d: %s", id, tx.Representation(true))
}

func (r *Receiver) handleRetry(frame []byte) {
	payload := wire.DecodeRetry(frame)

	admitted := false
	r.txCell.Mutate(func(tx **booking.Transaction) bool {
		if !r.ended.Get() {
			return false
		}
		if *tx != nil && (*tx).ID >= payload.ID {
			return false
		}
		*tx = booking.FromRetry(payload)
		admitted = true
		return true
	})

	if !admitted {
		config.DPrintf("receiver: RETRY for booking %d DENEGADO", payload.ID)
		return
	}
	r.ended.Set(false)
	config.DPrintf("receiver: RETRY for booking %d admitted", payload.ID)
}
