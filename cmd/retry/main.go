// Command retry is the standalone Retrier (spec.md §6): it takes a
// booking id and its three fees, builds a fresh all-Waiting transaction,
// and broadcasts a RETRY frame to every coordinator replica so that
// whichever one is currently leader picks it up and drives it through
// 2PC from scratch.
//
// Grounded on the teacher's small single-purpose cmd binaries
// (network/participant/main.go, network/learner/main.go) — a flag-free
// main reading loadConfig's roster, doing one thing, and exiting.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/alglobo/coordinator/internal/booking"
	"github.com/alglobo/coordinator/internal/broadcast"
	"github.com/alglobo/coordinator/internal/config"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: retry <id> <airline_fee> <hotel_fee> <bank_fee> [-roster path]")
}

func main() {
	rosterPath := "configs/roster.json"
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		if args[i] == "-roster" && i+1 < len(args) {
			rosterPath = args[i+1]
			args = append(args[:i], args[i+2:]...)
			break
		}
	}
	if len(args) != 4 {
		usage()
		os.Exit(2)
	}

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retry: invalid id %q: %v\n", args[0], err)
		os.Exit(2)
	}
	fees := make(map[booking.ServiceName]float64, 3)
	feeArgs := map[booking.ServiceName]string{
		booking.Airline: args[1],
		booking.Hotel:   args[2],
		booking.Bank:    args[3],
	}
	for name, raw := range feeArgs {
		fee, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "retry: invalid fee for %s %q: %v\n", name, raw, err)
			os.Exit(2)
		}
		fees[name] = fee
	}

	roster, err := config.LoadRoster(rosterPath)
	config.CheckError(err)

	conn, err := net.ListenPacket("udp", "0.0.0.0:0")
	config.CheckError(err)
	defer conn.Close()

	tx := booking.New(id, fees)
	if err := broadcast.Send(conn, roster.Replicas, tx.Retry()); err != nil {
		fmt.Fprintf(os.Stderr, "retry: broadcast error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("retry: booking %d broadcast to %d replicas\n", id, len(roster.Replicas))
}
