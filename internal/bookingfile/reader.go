// Package bookingfile implements the File-Reader collaborator spec.md
// §6 specifies only the contract for: an iterator over pending bookings
// read from a CSV file of `id,airline_fee,hotel_fee,bank_fee` lines.
//
// Grounded on original_source/src/file_reader/file_iterator.rs's
// FileIterator, reshaped into Go's (value, ok) iterator idiom instead of
// implementing the standard Iterator trait.
package bookingfile

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/alglobo/coordinator/internal/booking"
	"github.com/alglobo/coordinator/internal/config"
)

// Reader iterates a booking CSV file line by line.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewReader opens path for reading. The teacher's FileIterator::create
// reports a missing file as a returned error rather than panicking, so
// this does the same instead of using config.CheckError.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, scanner: bufio.NewScanner(f)}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next parses and returns the next well-formed transaction line, or
// (nil, false) once the file is exhausted. Malformed or blank lines are
// logged and skipped rather than ending iteration, generalizing the
// original's "len(params) < 4 -> None" (which the original treats as
// end-of-file; here it just means "try the next line").
func (r *Reader) Next() (*booking.Transaction, bool) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			config.Warn("bookingfile: skipping malformed line %q", line)
			continue
		}
		id, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			config.Warn("bookingfile: skipping line with bad id %q", line)
			continue
		}
		airlineFee, err1 := strconv.ParseFloat(fields[1], 64)
		hotelFee, err2 := strconv.ParseFloat(fields[2], 64)
		bankFee, err3 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			config.Warn("bookingfile: skipping line with bad fee %q", line)
			continue
		}
		return booking.New(id, map[booking.ServiceName]float64{
			booking.Airline: airlineFee,
			booking.Hotel:   hotelFee,
			booking.Bank:    bankFee,
		}), true
	}
	return nil, false
}
