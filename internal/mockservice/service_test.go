package mockservice

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alglobo/coordinator/internal/wire"
)

func TestAlwaysAcceptsPrepare(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	svc := New("Airline", conn, 1.0)
	go svc.Run()

	_, err = client.WriteTo(wire.EncodePrepare(1, 100), conn.LocalAddr())
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, wire.FrameSize)
	n, _, err := client.ReadFrom(buf)
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.RespAccept, resp.Op)
}

func TestNeverAcceptsAborts(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	svc := New("Hotel", conn, 0.0)
	go svc.Run()

	_, err = client.WriteTo(wire.EncodePrepare(2, 50), conn.LocalAddr())
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, wire.FrameSize)
	n, _, err := client.ReadFrom(buf)
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.RespAbort, resp.Op)
}

func TestCommitAlwaysAcknowledged(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	svc := New("Bank", conn, 0.0)
	go svc.Run()

	_, err = client.WriteTo(wire.EncodeCommit(3, 75), conn.LocalAddr())
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, wire.FrameSize)
	n, _, err := client.ReadFrom(buf)
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.RespCommit, resp.Op)
}
