package bookingfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alglobo/coordinator/internal/booking"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookings.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestNextSkipsBlankAndMalformedLines(t *testing.T) {
	path := writeTemp(t, "1,100,200,300\n\nbad,line\n2,10,20,30\n")
	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	tx1, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, uint64(1), tx1.ID)

	tx2, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, uint64(2), tx2.ID)

	_, ok = r.Next()
	require.False(t, ok)
}

func TestNextParsesFeesInOrder(t *testing.T) {
	path := writeTemp(t, "9,11.5,22.5,33.5\n")
	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	tx, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, map[booking.ServiceName]float64{
		booking.Airline: 11.5,
		booking.Hotel:   22.5,
		booking.Bank:    33.5,
	}, tx.AllServices())
}

func TestNewReaderReturnsErrorForMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
