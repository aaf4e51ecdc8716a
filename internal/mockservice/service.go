// Package mockservice implements the three stand-in external services
// (Airline, Hotel, Bank) spec.md §1 describes as external collaborators:
// each is a UDP request/response loop that accepts or aborts a Prepare
// probabilistically and always acknowledges Commit/Abort, since
// spec.md's Non-goals exclude real service-side business logic.
//
// Grounded on original_source/src/services2/{hotel,bank,airline}.rs's
// recv-dispatch-until-"q" loop, adapted to the fixed Prepare/Abort/
// Commit/Response wire vocabulary internal/wire defines instead of the
// original's single-byte ad hoc messages.
package mockservice

import (
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/alglobo/coordinator/internal/config"
	"github.com/alglobo/coordinator/internal/wire"
)

// Service runs one mock external service's request loop.
type Service struct {
	name        string
	conn        net.PacketConn
	acceptProb  float64
	rng         *rand.Rand
	recvTimeout time.Duration
}

// New builds a Service bound to conn. acceptProb is the probability
// (0..1) that a Prepare request is accepted rather than aborted.
func New(name string, conn net.PacketConn, acceptProb float64) *Service {
	return &Service{
		name:        name,
		conn:        conn,
		acceptProb:  acceptProb,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		recvTimeout: config.DatagramRecvTimeout,
	}
}

// Run blocks forever, answering one request per datagram. A read
// timeout is swallowed; any other read error is fatal, matching
// internal/receiver's convention.
func (s *Service) Run() {
	buf := make([]byte, wire.FrameSize)
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.recvTimeout)); err != nil {
			config.CheckError(err)
		}
		n, addr, err := s.conn.ReadFrom(buf)
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
			continue
		}
		req, err := wire.DecodeRequest(buf)
		if err != nil {
			config.Warn("%s: malformed request: %v", s.name, err)
			continue
		}
		resp := s.answer(req)
		if _, err := s.conn.WriteTo(resp, addr); err != nil {
			config.Warn("%s: reply send error: %v", s.name, err)
		}
	}
}

func (s *Service) answer(req wire.Request) []byte {
	switch req.Op {
	case wire.OpPrepare:
		if s.rng.Float64() < s.acceptProb {
			config.DPrintf("%s: ACEPTADO booking %d (fee %.2f)", s.name, req.ID, req.Fee)
			return wire.EncodeAccept(req.ID)
		}
		config.DPrintf("%s: ABORTADO booking %d (fee %.2f)", s.name, req.ID, req.Fee)
		return wire.EncodeRespAbort(req.ID)
	case wire.OpCommit:
		config.DPrintf("%s: COMMITEADO booking %d", s.name, req.ID)
		return wire.EncodeRespCommit(req.ID)
	case wire.OpAbort:
		config.DPrintf("%s: ABORTADO (requested) booking %d", s.name, req.ID)
		return wire.EncodeRespAbort(req.ID)
	default:
		panic("mockservice: unreachable request opcode")
	}
}
