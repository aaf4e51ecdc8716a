// Package election implements the Bully leader election state machine
// (spec.md §4.6): periodic ticking while a follower, probing the last
// known leader, running off against higher-priority peers, and serving
// the leader-side recv loop once promoted.
//
// Grounded on original_source/src/candidates/candidate.rs (send_to,
// start_election, communicate_new_leader) and leader.rs (recv,
// start_leader), restructured so every blocking call is bounded — the
// original's "else { loop { recv with 10s timeout } }" retries forever
// on a lost election, which spec.md §5's "no blocking call is unbounded"
// rules out; here waitForLeaderAnnounce takes one bounded wait per tick
// instead.
package election

import (
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/viney-shih/go-lock"

	"github.com/alglobo/coordinator/internal/broadcast"
	"github.com/alglobo/coordinator/internal/config"
	"github.com/alglobo/coordinator/internal/wire"
)

// leaderState guards the last-known-leader address with a CASMutex
// instead of a plain sync.Mutex, so a tick() probe in flight can time
// out its attempt to read/write the cell rather than block a concurrent
// recv() indefinitely.
type leaderState struct {
	mu   lock.CASMutex
	addr string
}

func newLeaderState() *leaderState {
	return &leaderState{mu: lock.NewCASMutex(), addr: config.EMPTY}
}

func (l *leaderState) Get(timeout time.Duration) (string, bool) {
	if !l.mu.TryLockWithTimeout(timeout) {
		return "", false
	}
	defer l.mu.Unlock()
	return l.addr, true
}

func (l *leaderState) Set(timeout time.Duration, addr string) bool {
	if !l.mu.TryLockWithTimeout(timeout) {
		return false
	}
	defer l.mu.Unlock()
	l.addr = addr
	return true
}

// Election is one replica's view of the Bully state machine: its own
// address, every peer address, the last known leader, and whether it
// currently believes itself to be the leader.
type Election struct {
	conn     net.PacketConn
	self     string
	peers    []string // every other replica address, excluding self
	leader   *leaderState
	imLeader atomic.Bool

	aliveTimeout time.Duration
	probeTimeout time.Duration
	tickInterval time.Duration
	winnerWait   time.Duration
	pollTimeout  time.Duration

	// onPromotion is invoked in a dedicated goroutine once this replica
	// wins an election; it is expected to drive the Transaction
	// Manager's run and signal finish when it gives up (spec.md §4.6's
	// "spawns the Transaction Manager's run in a dedicated worker").
	onPromotion func(finish *atomic.Bool)
}

// New builds an Election. onPromotion may be nil (useful for tests that
// only exercise the state machine itself).
func New(conn net.PacketConn, self string, peers []string, onPromotion func(finish *atomic.Bool)) *Election {
	return &Election{
		conn:         conn,
		self:         self,
		peers:        peers,
		leader:       newLeaderState(),
		aliveTimeout: config.ElectionAliveRecvTimeout,
		probeTimeout: config.ElectionProbeTimeout,
		tickInterval: config.ElectionTickInterval,
		winnerWait:   config.ElectionWinnerWaitTimeout,
		pollTimeout:  config.LeaderFramePollTimeout,
		onPromotion:  onPromotion,
	}
}

// IsLeader reports whether this replica currently believes it is the
// leader.
func (e *Election) IsLeader() bool {
	return e.imLeader.Load()
}

// Leader returns the last known leader address, or ok=false if the
// leader cell could not be read within the probe timeout.
func (e *Election) Leader() (addr string, ok bool) {
	return e.leader.Get(e.probeTimeout)
}

func sendElection(conn net.PacketConn, addr string, code byte) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	_, err = conn.WriteTo(wire.EncodeElection(code), udpAddr)
	return err
}

func (e *Election) recvOne() (code byte, fromAddr string, err error) {
	buf := make([]byte, wire.FrameSize)
	n, addr, err := e.conn.ReadFrom(buf)
	if err != nil {
		return 0, "", err
	}
	if n != wire.FrameSize {
		return 0, "", fmt.Errorf("election: short datagram (%d bytes)", n)
	}
	code, err = wire.DecodeElection(buf)
	if err != nil {
		return 0, "", err
	}
	return code, addr.String(), nil
}

func portOf(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	config.CheckError(err)
	port, err := strconv.Atoi(portStr)
	config.CheckError(err)
	return port
}

// startElection is spec.md §4.6's start_election, resolved to the
// "higher port wins" orientation (see SPEC_FULL.md's Open Questions):
// every peer with a strictly greater port than mine is sent an Election
// frame; any reply within the probe timeout means I lost.
func (e *Election) startElection() bool {
	myPort := portOf(e.self)
	won := true
	for _, peer := range e.peers {
		if portOf(peer) <= myPort {
			continue
		}
		if err := e.conn.SetReadDeadline(time.Now().Add(e.probeTimeout)); err != nil {
			config.CheckError(err)
		}
		if err := sendElection(e.conn, peer, wire.ElectionElection); err != nil {
			config.Warn("election: election send error to %s: %v", peer, err)
			continue
		}
		if _, _, err := e.recvOne(); err == nil {
			won = false
		}
	}
	return won
}

// communicateNewLeader broadcasts a Leader frame to every peer, per
// spec.md §4.6.
func (e *Election) communicateNewLeader() {
	frame := wire.EncodeElection(wire.ElectionLeader)
	if err := broadcast.Send(e.conn, e.peers, frame); err != nil {
		config.Warn("election: leader announce error: %v", err)
	}
	e.leader.Set(e.probeTimeout, e.self)
}

func (e *Election) promote() {
	e.imLeader.Store(true)
	e.communicateNewLeader()
	config.LPrintf("election: %s is now leader", e.self)
}

// waitForLeaderAnnounce blocks for up to winnerWait for a Leader frame,
// recording it if one arrives. Bounded per spec.md §5 — a tick that
// loses an election and hears nothing just tries again next tick.
func (e *Election) waitForLeaderAnnounce() {
	if err := e.conn.SetReadDeadline(time.Now().Add(e.winnerWait)); err != nil {
		config.CheckError(err)
	}
	code, fromAddr, err := e.recvOne()
	if err != nil {
		config.LPrintf("election: no leader announce within %s, retrying next tick", e.winnerWait)
		return
	}
	if code == wire.ElectionLeader {
		e.leader.Set(e.probeTimeout, fromAddr)
	}
}

// electAndSettle runs start_election and either promotes this replica
// or waits for the winner's announce, per spec.md §4.6's "on win
// broadcast Leader; on loss block waiting for a Leader announce".
func (e *Election) electAndSettle() {
	if e.startElection() {
		e.promote()
	} else {
		e.waitForLeaderAnnounce()
	}
}

// Tick runs one iteration of the non-leader tick behavior (spec.md
// §4.6). A no-op once this replica is the leader.
func (e *Election) Tick() {
	if e.imLeader.Load() {
		return
	}

	leaderAddr, ok := e.leader.Get(e.probeTimeout)
	if !ok {
		config.Warn("election: leader cell busy, skipping tick")
		return
	}
	if leaderAddr == config.EMPTY {
		e.electAndSettle()
		return
	}

	if err := e.conn.SetReadDeadline(time.Now().Add(e.aliveTimeout)); err != nil {
		config.CheckError(err)
	}
	if err := sendElection(e.conn, leaderAddr, wire.ElectionAlive); err != nil {
		config.Warn("election: alive probe send error: %v", err)
		return
	}

	code, fromAddr, err := e.recvOne()
	if err != nil {
		e.electAndSettle()
		return
	}

	switch code {
	case wire.ElectionAlive:
		if e.startElection() {
			e.promote()
		}
	case wire.ElectionElection:
		if err := sendElection(e.conn, fromAddr, wire.ElectionAlive); err != nil {
			config.Warn("election: alive reply error: %v", err)
		}
		e.electAndSettle()
	case wire.ElectionLeader:
		e.leader.Set(e.probeTimeout, fromAddr)
	default:
		config.Warn("election: unrecognized tick reply %q from %s", code, fromAddr)
	}
}

// LeaderServe is the leader-side recv loop (spec.md §4.6): accept one
// frame per iteration and reply per the Alive/Election/first-contact
// rules, until finish is set by the Manager worker this replica spawned
// on promotion.
func (e *Election) LeaderServe(finish *atomic.Bool) {
	for !finish.Load() {
		if err := e.conn.SetReadDeadline(time.Now().Add(e.pollTimeout)); err != nil {
			config.CheckError(err)
		}
		code, fromAddr, err := e.recvOne()
		if err != nil {
			continue
		}
		switch code {
		case wire.ElectionAlive:
			if err := sendElection(e.conn, fromAddr, wire.ElectionAlive); err != nil {
				config.Warn("election: alive reply error: %v", err)
			}
		case wire.ElectionElection:
			frame := wire.EncodeElection(wire.ElectionLeader)
			if err := broadcast.Send(e.conn, e.peers, frame); err != nil {
				config.Warn("election: leader-restart announce error: %v", err)
			}
		case wire.ElectionFirst:
			if err := sendElection(e.conn, fromAddr, wire.ElectionLeader); err != nil {
				config.Warn("election: first-contact reply error: %v", err)
			}
		default:
			config.Warn("election: leader ignoring code %q from %s", code, fromAddr)
		}
	}
}

// Run drives the state machine forever: ticking at tickInterval while a
// follower, then, once promoted, spawning onPromotion in a dedicated
// goroutine and serving LeaderServe until it signals finish.
func (e *Election) Run() {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for !e.imLeader.Load() {
		<-ticker.C
		e.Tick()
	}

	finish := &atomic.Bool{}
	if e.onPromotion != nil {
		go e.onPromotion(finish)
	}
	e.LeaderServe(finish)
}
