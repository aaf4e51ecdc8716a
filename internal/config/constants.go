package config

import "time"

// EMPTY is the sentinel leader address meaning "no known leader yet",
// matching original_source's candidates::constants::EMPTY.
const EMPTY = "EMPTY"

// Default addresses and file paths. TransactionFile and AbortFile can be
// overridden by the properties file loaded through LoadOverrides; the
// others are not overridden.
var (
	DefaultIP       = "127.0.0.1"
	ReplicaPortBase = 49354
	ServicePortBase = 49152
	TransactionFile = "data/bookings.csv"
	AbortFile       = "data/aborted.csv"
	TraceLogDir     = "data/trace"
)

// ElectionPortOffset separates each replica's election socket from its
// data socket: the Receiver loop and the Election state machine each
// need their own blocking recv, so they can't share one port without
// one loop stealing the other's frames. The offset is added to a
// replica's data port to derive its election port (see ElectionAddr),
// preserving "higher port wins" since
// the transform is monotonic.
var ElectionPortOffset = 1000

// Timeouts and pacing. Values mirror
// original_source/src/candidates/constants.rs (SLEEP_MANAGER, END_TIMEOUT)
// and the request/response recv timeouts candidate.rs/leader.rs use.
var (
	SleepManager              = 1 * time.Second
	EndTimeout                = 10 * time.Second
	PhaseTimeout              = 3 * time.Second
	DatagramRecvTimeout       = 1 * time.Second
	ElectionAliveRecvTimeout  = 1 * time.Second
	ElectionWinnerWaitTimeout = 10 * time.Second
	ElectionProbeTimeout      = 100 * time.Millisecond
	ElectionTickInterval      = 500 * time.Millisecond
	LeaderFramePollTimeout    = 1 * time.Second
)

// FrameSize is the fixed envelope size every wire message is padded to,
// per spec.md §4.1/§6.
const FrameSize = 36
