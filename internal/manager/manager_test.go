package manager

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alglobo/coordinator/internal/booking"
	"github.com/alglobo/coordinator/internal/cell"
	"github.com/alglobo/coordinator/internal/receiver"
	"github.com/alglobo/coordinator/internal/wire"
)

// mockService answers every Prepare with accept (or abort, if told to)
// and every Commit with a Commit ack, mirroring internal/mockservice's
// shape with a fixed, non-random answer per service.
func mockService(t *testing.T, accept bool) net.PacketConn {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, wire.FrameSize)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if n != wire.FrameSize {
				continue
			}
			req, err := wire.DecodeRequest(buf)
			if err != nil {
				continue
			}
			var resp []byte
			switch req.Op {
			case wire.OpPrepare:
				if accept {
					resp = wire.EncodeAccept(req.ID)
				} else {
					resp = wire.EncodeRespAbort(req.ID)
				}
			case wire.OpCommit:
				resp = wire.EncodeRespCommit(req.ID)
			case wire.OpAbort:
				resp = wire.EncodeRespAbort(req.ID)
			}
			if resp != nil {
				conn.WriteTo(resp, addr)
			}
		}
	}()
	return conn
}

func newTestManager(t *testing.T, airlineAccepts, hotelAccepts, bankAccepts bool) (*Manager, *cell.Cell[*booking.Transaction]) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	airline := mockService(t, airlineAccepts)
	hotel := mockService(t, hotelAccepts)
	bank := mockService(t, bankAccepts)

	services := map[booking.ServiceName]string{
		booking.Airline: airline.LocalAddr().String(),
		booking.Hotel:   hotel.LocalAddr().String(),
		booking.Bank:    bank.LocalAddr().String(),
	}
	self := conn.LocalAddr().String()

	txCell := cell.New[*booking.Transaction](nil)
	ended := cell.New(true)

	r := receiver.New(conn, txCell, ended, services)
	go r.Run()

	m := New(conn, txCell, ended, services, []string{self}, self, 2*time.Second, nil, nil)
	return m, txCell
}

// TestProcessAllAcceptCommits is scenario S1 in spec.md §8: all three
// services accept, so the transaction proceeds straight to Commit.
func TestProcessAllAcceptCommits(t *testing.T) {
	m, _ := newTestManager(t, true, true, true)
	fees := map[booking.ServiceName]float64{booking.Airline: 100, booking.Hotel: 200, booking.Bank: 300}
	tx := booking.New(1, fees)

	id := m.Process(tx)
	require.Equal(t, uint64(1), id)
	require.True(t, tx.IsCommitted())
}

// TestProcessAnyAbortAborts is scenario S2 in spec.md §8: any reject
// during Prepare takes the whole booking to Abort.
func TestProcessAnyAbortAborts(t *testing.T) {
	m, _ := newTestManager(t, true, false, true)
	fees := map[booking.ServiceName]float64{booking.Airline: 100, booking.Hotel: 200, booking.Bank: 300}
	tx := booking.New(2, fees)

	id := m.Process(tx)
	require.Equal(t, uint64(2), id)
	require.True(t, tx.IsAborted())
}

func TestProcessWithNilCellIsANoop(t *testing.T) {
	m, _ := newTestManager(t, true, true, true)
	require.Equal(t, uint64(0), m.Process(nil))
}
