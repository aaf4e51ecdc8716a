package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestRequestRoundTrip checks that each request's opcode byte, id and fee
// round-trip through encode/decode.
func TestRequestRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		encode func(id uint64, fee float64) []byte
		op     byte
	}{
		{"prepare", EncodePrepare, OpPrepare},
		{"abort", EncodeAbort, OpAbort},
		{"commit", EncodeCommit, OpCommit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			frame := c.encode(42, 123.5)
			require.Len(t, frame, FrameSize)
			req, err := DecodeRequest(frame)
			require.NoError(t, err)
			require.Equal(t, c.op, req.Op)
			require.Equal(t, uint64(42), req.ID)
			require.Equal(t, 123.5, req.Fee)
		})
	}
}

// TestResponseOpcodeBijection is invariant 6 in spec.md §8: the response
// code mapping is a bijection between {Accept, Abort, Commit} and
// {'o','A','C'}.
func TestResponseOpcodeBijection(t *testing.T) {
	cases := []struct {
		encode func(id uint64) []byte
		op     byte
	}{
		{EncodeAccept, RespAccept},
		{EncodeRespAbort, RespAbort},
		{EncodeRespCommit, RespCommit},
	}
	seen := map[byte]bool{}
	for _, c := range cases {
		frame := c.encode(7)
		require.Equal(t, TagResponse, frame[0])
		resp, err := DecodeResponse(frame)
		require.NoError(t, err)
		require.Equal(t, c.op, resp.Op)
		require.Equal(t, uint64(7), resp.ID)
		require.False(t, seen[c.op], "opcode reused: %q", c.op)
		seen[c.op] = true
	}
	require.Len(t, seen, 3)
}

func TestDecodeResponseRejectsUnknownOpcode(t *testing.T) {
	frame := EncodeAccept(1)
	frame[1] = 'z'
	_, err := DecodeResponse(frame)
	require.Error(t, err)
	var mf *MalformedFrame
	require.ErrorAs(t, err, &mf)
}

// TestLogRoundTrip is invariant 4 in spec.md §8: decode(encode(T)) == T
// for the id and all per-service (state, fee) pairs.
func TestLogRoundTrip(t *testing.T) {
	rows := [3]Row{
		{State: 'O', Fee: 100.0},
		{State: 'A', Fee: 200.5},
		{State: 'C', Fee: 300.25},
	}
	frame := EncodeLog(9, rows)
	require.Equal(t, TagLog, frame[0])
	require.Len(t, frame, FrameSize)

	gotID, gotRows, err := DecodeLog(frame)
	require.NoError(t, err)
	require.Equal(t, uint64(9), gotID)
	if diff := cmp.Diff(rows, gotRows); diff != "" {
		t.Fatalf("log round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLogRejectsUnknownStateByte(t *testing.T) {
	rows := [3]Row{{State: 'O', Fee: 1}, {State: 'O', Fee: 2}, {State: 'O', Fee: 3}}
	frame := EncodeLog(1, rows)
	frame[9] = 'x'
	_, _, err := DecodeLog(frame)
	require.Error(t, err)
}

// TestRetryRoundTrip is invariant 5 in spec.md §8: decode(encode(T))
// yields a Transaction with the same id and fees and all-Waiting states
// — retry frames carry no state bytes at all, so "all-Waiting" is
// established by the caller (booking.FromRetry), not by this codec.
func TestRetryRoundTrip(t *testing.T) {
	frame := EncodeRetry(11, 100, 200, 300)
	require.Equal(t, TagRetry, frame[0])
	require.Len(t, frame, FrameSize)

	got := DecodeRetry(frame)
	require.Equal(t, RetryPayload{ID: 11, AirlineFee: 100, HotelFee: 200, BankFee: 300}, got)
}

// TestElectionBijection is invariant 7 in spec.md §8 extended to the
// election codes: every election byte round-trips and unknown bytes
// fail closed.
func TestElectionBijection(t *testing.T) {
	codes := []byte{ElectionAlive, ElectionElection, ElectionLeader, ElectionFirst}
	seen := map[byte]bool{}
	for _, c := range codes {
		frame := EncodeElection(c)
		require.Len(t, frame, FrameSize)
		got, err := DecodeElection(frame)
		require.NoError(t, err)
		require.Equal(t, c, got)
		require.False(t, seen[c])
		seen[c] = true
	}
}

func TestDecodeElectionRejectsUnknownByte(t *testing.T) {
	frame := EncodeElection(ElectionAlive)
	frame[0] = 'z'
	_, err := DecodeElection(frame)
	require.Error(t, err)
}

// TestFrameSizeIsAlwaysMax checks that every message category is encoded
// into exactly FrameSize bytes, so the receiver can use one read size.
func TestFrameSizeIsAlwaysMax(t *testing.T) {
	frames := [][]byte{
		EncodePrepare(1, 1),
		EncodeAccept(1),
		EncodeLog(1, [3]Row{{State: 'W', Fee: 0}, {State: 'W', Fee: 0}, {State: 'W', Fee: 0}}),
		EncodeRetry(1, 0, 0, 0),
		EncodeElection(ElectionAlive),
	}
	for _, f := range frames {
		require.Len(t, f, FrameSize)
	}
}
