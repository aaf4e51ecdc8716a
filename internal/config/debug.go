// Package config holds the process-wide constants and the debug/trace
// print helpers shared by every component, mirroring the teacher's own
// configs package.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
)

// Debugging switches. Flipped by cmd/alglobo's -debug flag.
var (
	ShowDebugInfo = false
	ShowTestInfo  = ShowDebugInfo
	ShowElection  = ShowDebugInfo
	ShowWarnings  = true
	LogToFile     = false
)

func stamp() string {
	return time.Now().Format("15:04:05.00")
}

func printf(format string, a ...interface{}) {
	if !LogToFile {
		fmt.Printf(stamp()+" <---> "+format+"\n", a...)
	} else {
		log.Printf(stamp()+" <---> "+format+"\n", a...)
	}
}

// DPrintf logs a debug line, gated by ShowDebugInfo.
func DPrintf(format string, a ...interface{}) {
	if ShowDebugInfo {
		printf(format, a...)
	}
}

// TPrintf logs a trace line, gated by ShowTestInfo.
func TPrintf(format string, a ...interface{}) {
	if ShowTestInfo {
		printf(format, a...)
	}
}

// LPrintf logs an election/state-transition line, gated by ShowElection.
func LPrintf(format string, a ...interface{}) {
	if ShowElection {
		printf(format, a...)
	}
}

// Warn logs a warning unconditionally unless ShowWarnings is turned off.
func Warn(format string, a ...interface{}) {
	if ShowWarnings {
		printf("[WARN] "+format, a...)
	}
}

// BookingPrintf tags a debug line with the booking id, matching the
// teacher's TxnPrint convention.
func BookingPrintf(id uint64, format string, a ...interface{}) {
	DPrintf(fmt.Sprintf("BOOKING%d: ", id)+format, a...)
}

// JPrint dumps v as JSON to stdout, used for ad-hoc trace dumps.
func JPrint(v interface{}) {
	byt, _ := json.Marshal(v)
	fmt.Println(string(byt))
}

// JToString marshals v to a JSON string.
func JToString(v interface{}) string {
	byt, _ := json.Marshal(v)
	return string(byt)
}

// Assert panics with msg if cond is false. Used for invariants that must
// never be violated by correct code, per spec.md's MalformedFrame/
// SocketFatal treatment: a violated invariant is an operator-visible
// abort, not a recoverable error.
func Assert(cond bool, msg string) {
	if !cond {
		panic("[ASSERT] " + msg)
	}
}

// CheckError panics on a non-nil err, matching the teacher's
// configs.CheckError: used only for conditions the process cannot
// continue past (bad config file, unreadable roster, socket setup
// failure).
func CheckError(err error) {
	if err != nil {
		panic(err.Error())
	}
}
