// Command alglobo is the replica process entrypoint (spec.md §6): a
// single positional argument selects whether this process runs as a
// coordinator replica (election + transaction manager) or as one of the
// three mock external services.
//
// Grounded on fc-server/main.go's global flag vars + init()-registered
// flag.Var pattern and network/coordinator/main.go's loadConfig idiom,
// adapted to spec.md's roster file and positional role argument instead
// of fc-server's "-node"/"-p" flags.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/tidwall/wal"

	"github.com/alglobo/coordinator/internal/booking"
	"github.com/alglobo/coordinator/internal/cell"
	"github.com/alglobo/coordinator/internal/config"
	"github.com/alglobo/coordinator/internal/election"
	"github.com/alglobo/coordinator/internal/manager"
	"github.com/alglobo/coordinator/internal/mockservice"
	"github.com/alglobo/coordinator/internal/receiver"
)

var (
	rosterPath    string
	overridesPath string
	debug         bool
	acceptProb    float64
)

func init() {
	flag.StringVar(&rosterPath, "roster", "configs/roster.json", "path to the replica/service roster JSON file")
	flag.StringVar(&overridesPath, "overrides", "", "optional .properties file overriding timeout/pacing knobs")
	flag.BoolVar(&debug, "debug", false, "log debug info to stderr")
	flag.Float64Var(&acceptProb, "accept-prob", 0.8, "mock service's Prepare accept probability")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: alglobo <c|a|h|b> [flags]")
	fmt.Fprintln(os.Stderr, "  c    coordinator replica (election + transaction manager)")
	fmt.Fprintln(os.Stderr, "  a    mock Airline service")
	fmt.Fprintln(os.Stderr, "  h    mock Hotel service")
	fmt.Fprintln(os.Stderr, "  b    mock Bank service")
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	role := os.Args[1]
	if err := flag.CommandLine.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	config.ShowDebugInfo = debug
	config.ShowTestInfo = debug
	config.ShowElection = debug
	config.CheckError(config.LoadOverrides(overridesPath))

	switch role {
	case "c":
		runCoordinator()
	case "a":
		runMockService(booking.Airline)
	case "h":
		runMockService(booking.Hotel)
	case "b":
		runMockService(booking.Bank)
	default:
		usage()
		os.Exit(2)
	}
}

func loadRoster() *config.Roster {
	if self, err := config.FieldFromRosterFile(rosterPath, "self"); err == nil {
		config.LPrintf("alglobo: loading roster %s (self=%s)", rosterPath, self)
	}
	roster, err := config.LoadRoster(rosterPath)
	config.CheckError(err)
	return roster
}

func serviceAddrs(roster *config.Roster) map[booking.ServiceName]string {
	out := make(map[booking.ServiceName]string, len(booking.Services))
	for _, name := range booking.Services {
		addr, ok := roster.Services[string(name)]
		if !ok {
			panic(fmt.Sprintf("alglobo: roster %s has no address for service %s", rosterPath, name))
		}
		out[name] = addr
	}
	return out
}

func runMockService(name booking.ServiceName) {
	roster := loadRoster()
	addr, ok := roster.Services[string(name)]
	if !ok {
		panic(fmt.Sprintf("alglobo: roster %s has no address for service %s", rosterPath, name))
	}

	conn, err := net.ListenPacket("udp", addr)
	config.CheckError(err)
	defer conn.Close()

	config.LPrintf("%s: listening on %s", name, addr)
	mockservice.New(string(name), conn, acceptProb).Run()
}

// runCoordinator wires up the two independent sockets a replica needs
// (see config.ElectionAddr: the Receiver loop and the Election state
// machine each run their own blocking recv) and starts the Bully
// election, which spawns the Transaction Manager's run once this
// replica is promoted to leader.
func runCoordinator() {
	roster := loadRoster()
	services := serviceAddrs(roster)

	dataConn, err := net.ListenPacket("udp", roster.Self)
	config.CheckError(err)
	defer dataConn.Close()

	electionConn, err := net.ListenPacket("udp", roster.ElectionSelf())
	config.CheckError(err)
	defer electionConn.Close()

	txCell := cell.New[*booking.Transaction](nil)
	ended := cell.New(true)

	r := receiver.New(dataConn, txCell, ended, services)
	go r.Run()

	abortFile := openAbortFile()
	defer abortFile.Close()

	trace := openTraceLog()
	if trace != nil {
		defer trace.Close()
	}

	mgr := manager.New(dataConn, txCell, ended, services, roster.Replicas, roster.Self, config.PhaseTimeout, abortFile, trace)

	el := election.New(electionConn, roster.ElectionSelf(), roster.ElectionPeers(), func(finish *atomic.Bool) {
		mgr.Run(config.TransactionFile, finish)
	})

	config.LPrintf("coordinator %s: data=%s election=%s", roster.Self, roster.Self, roster.ElectionSelf())
	el.Run()
}

func openAbortFile() *os.File {
	if err := os.MkdirAll(filepath.Dir(config.AbortFile), 0o755); err != nil {
		config.CheckError(err)
	}
	f, err := os.OpenFile(config.AbortFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	config.CheckError(err)
	return f
}

// openTraceLog opens the phase-trace journal. A failure to open it
// disables tracing rather than aborting the process, since the journal
// is a diagnostics aid, not a correctness dependency.
func openTraceLog() *wal.Log {
	if config.TraceLogDir == "" {
		return nil
	}
	if err := os.MkdirAll(config.TraceLogDir, 0o755); err != nil {
		config.Warn("alglobo: phase trace journal disabled: %v", err)
		return nil
	}
	log, err := wal.Open(config.TraceLogDir, nil)
	if err != nil {
		config.Warn("alglobo: phase trace journal disabled: %v", err)
		return nil
	}
	return log
}
