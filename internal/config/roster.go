package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/magiconair/properties"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Roster is the static, process-startup view of the replica set and the
// three backend services, loaded once and shared read-only thereafter —
// it never changes shape after LoadRoster returns, matching spec.md §3's
// "Replica roster"/"Service roster" (static; each process knows its own
// address and the full set at startup).
type Roster struct {
	Self     string            `json:"self"`
	Replicas []string          `json:"replicas"`
	Services map[string]string `json:"services"`
}

// rosterFile is the on-disk shape read via loadConfig's pattern in the
// teacher (network/coordinator/main.go): read the whole file, unmarshal
// into a generic shape, then project into the typed Roster.
type rosterFile struct {
	Self     string            `json:"self"`
	Replicas []string          `json:"replicas"`
	Services map[string]string `json:"services"`
}

// LoadRoster reads the JSON roster file at path and returns the
// (self, replicas, services) view for this process.
func LoadRoster(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	var rf rosterFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	replicas := append([]string(nil), rf.Replicas...)
	sort.Strings(replicas)
	r := &Roster{Self: rf.Self, Replicas: replicas, Services: rf.Services}
	if ShowDebugInfo {
		DPrintf("roster loaded: %s", string(pretty.Pretty(raw)))
	}
	return r, nil
}

// FieldFromRosterFile pulls a single top-level field out of the roster
// JSON without unmarshalling the whole document — used by diagnostics
// that only need "self" or one service address for a log line.
func FieldFromRosterFile(path, field string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, field).String(), nil
}

// LoadOverrides applies a .properties file of numeric/duration knobs on
// top of the package defaults (SleepManager, EndTimeout, ...). Missing
// keys keep their default; the file itself is optional.
func LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return fmt.Errorf("load overrides %s: %w", path, err)
	}
	durationMs := func(key string, dst *time.Duration) {
		if v, ok := p.Get(key); ok {
			var ms int64
			if _, err := fmt.Sscanf(v, "%d", &ms); err == nil {
				*dst = time.Duration(ms) * time.Millisecond
			}
		}
	}
	durationMs("sleep_manager_ms", &SleepManager)
	durationMs("end_timeout_ms", &EndTimeout)
	durationMs("phase_timeout_ms", &PhaseTimeout)
	durationMs("datagram_recv_timeout_ms", &DatagramRecvTimeout)
	durationMs("election_probe_timeout_ms", &ElectionProbeTimeout)
	durationMs("election_tick_interval_ms", &ElectionTickInterval)
	if v, ok := p.Get("transaction_file"); ok {
		TransactionFile = v
	}
	if v, ok := p.Get("abort_file"); ok {
		AbortFile = v
	}
	return nil
}

// OtherReplicas returns every replica address in r except self, the set
// spec.md §4.5 replicates LOG frames to ("every peer in the replica list
// except self").
func (r *Roster) OtherReplicas() []string {
	out := make([]string, 0, len(r.Replicas))
	for _, addr := range r.Replicas {
		if addr != r.Self {
			out = append(out, addr)
		}
	}
	return out
}

// ElectionAddr derives a replica's dedicated election-socket address
// from its data address, offsetting the port by ElectionPortOffset.
func ElectionAddr(dataAddr string) string {
	host, portStr, err := net.SplitHostPort(dataAddr)
	CheckError(err)
	port, err := strconv.Atoi(portStr)
	CheckError(err)
	return net.JoinHostPort(host, strconv.Itoa(port+ElectionPortOffset))
}

// ElectionSelf returns this replica's own election address.
func (r *Roster) ElectionSelf() string {
	return ElectionAddr(r.Self)
}

// ElectionPeers returns every other replica's election address, in the
// same order as OtherReplicas.
func (r *Roster) ElectionPeers() []string {
	others := r.OtherReplicas()
	out := make([]string, len(others))
	for i, addr := range others {
		out[i] = ElectionAddr(addr)
	}
	return out
}
