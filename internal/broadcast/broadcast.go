// Package broadcast fans datagram sends out across goroutines and joins
// them, shared by the Transaction Manager's per-phase broadcasts, the
// Bully election's peer broadcasts, and the Retrier.
//
// Grounded on the teacher's per-branch `go txn.from.sendDecide(...)`
// goroutines (network/coordinator/manager.go), generalized from
// fire-and-forget goroutines into a joinable golang.org/x/sync/errgroup
// group so callers observe send failures instead of losing them.
package broadcast

import (
	"net"

	"golang.org/x/sync/errgroup"
)

// Send writes frame to every address in addrs concurrently, returning
// the first error encountered (if any).
func Send(conn net.PacketConn, addrs []string, frame []byte) error {
	g := new(errgroup.Group)
	for _, raw := range addrs {
		addr := raw
		g.Go(func() error {
			return sendOne(conn, addr, frame)
		})
	}
	return g.Wait()
}

// SendEach writes a distinct frame per address concurrently — used
// where each recipient needs its own payload, e.g. Prepare/Commit/Abort
// requests carrying a per-service fee.
func SendEach(conn net.PacketConn, frames map[string][]byte) error {
	g := new(errgroup.Group)
	for rawAddr, rawFrame := range frames {
		addr, frame := rawAddr, rawFrame
		g.Go(func() error {
			return sendOne(conn, addr, frame)
		})
	}
	return g.Wait()
}

func sendOne(conn net.PacketConn, addr string, frame []byte) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	_, err = conn.WriteTo(frame, udpAddr)
	return err
}
