package election

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newConn(t *testing.T) net.PacketConn {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestStartElectionWinsWhenNoHigherPeerReplies is spec.md §9's resolved
// Open Question (higher port wins): with no peer of a strictly greater
// port, start_election always wins.
func TestStartElectionWinsWhenNoHigherPeerReplies(t *testing.T) {
	me := newConn(t)
	lowerPeer := newConn(t)

	higher, lowerAddr := me.LocalAddr().String(), lowerPeer.LocalAddr().String()
	if portOf(higher) < portOf(lowerAddr) {
		t.Skip("flaky port ordering from the OS-assigned ephemeral ports")
	}

	e := New(me, higher, []string{lowerAddr}, nil)
	require.True(t, e.startElection())
}

// TestStartElectionLosesWhenHigherPeerReplies is the converse: any
// reply from a higher-port peer within the probe timeout is a loss,
// regardless of the reply's content.
func TestStartElectionLosesWhenHigherPeerReplies(t *testing.T) {
	me := newConn(t)
	higherPeer := newConn(t)

	lower, higherAddr := me.LocalAddr().String(), higherPeer.LocalAddr().String()
	if portOf(lower) > portOf(higherAddr) {
		t.Skip("flaky port ordering from the OS-assigned ephemeral ports")
	}

	go func() {
		buf := make([]byte, 36)
		n, addr, err := higherPeer.ReadFrom(buf)
		if err != nil || n != 36 {
			return
		}
		sendElection(higherPeer, addr.String(), 'v')
	}()

	e := New(me, lower, []string{higherAddr}, nil)
	require.False(t, e.startElection())
}

// TestAliveProbeReply is spec.md §4.6's leader-side 'v' handling.
func TestAliveProbeReply(t *testing.T) {
	// Higher port wins: the follower's Alive branch runs its own election,
	// so the leader must hold the higher port for the follower to lose it.
	followerConn, leaderConn := newConn(t), newConn(t)
	if portOf(followerConn.LocalAddr().String()) > portOf(leaderConn.LocalAddr().String()) {
		followerConn, leaderConn = leaderConn, followerConn
	}

	leaderAddr := leaderConn.LocalAddr().String()
	followerAddr := followerConn.LocalAddr().String()

	follower := New(followerConn, followerAddr, []string{leaderAddr}, nil)
	follower.leader.Set(time.Second, leaderAddr)

	leader := New(leaderConn, leaderAddr, []string{followerAddr}, nil)
	leader.imLeader.Store(true)
	finish := &atomic.Bool{}
	go func() {
		leader.LeaderServe(finish)
	}()
	defer finish.Store(true)

	follower.Tick()

	addr, ok := follower.Leader()
	require.True(t, ok)
	require.Equal(t, leaderAddr, addr)
	require.False(t, follower.IsLeader())
}

func TestLeaderServeAnswersFirstContactWithLeaderFrame(t *testing.T) {
	leaderConn := newConn(t)
	newcomerConn := newConn(t)

	leader := New(leaderConn, leaderConn.LocalAddr().String(), nil, nil)
	leader.imLeader.Store(true)
	finish := &atomic.Bool{}
	go leader.LeaderServe(finish)
	defer finish.Store(true)

	require.NoError(t, sendElection(newcomerConn, leaderConn.LocalAddr().String(), 'f'))

	newcomerConn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 36)
	n, _, err := newcomerConn.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, 36, n)
	require.Equal(t, byte('l'), buf[0])
}
