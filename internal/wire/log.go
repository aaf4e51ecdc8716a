package wire

// Row is one service's (state byte, fee) pair, used by Log and Retry
// frames in the fixed order {Airline, Hotel, Bank} spec.md §4.1/§6
// mandates. wire stays independent of package booking — it only deals
// in bytes and primitive rows; booking.Transaction.Log()/Retry() call
// into this package with its own three rows assembled from its service
// map.
type Row struct {
	State byte
	Fee   float64
}

// EncodeLog builds a LOG frame: TagLog, u64 id, then three (state byte,
// f64 fee) pairs in {Airline, Hotel, Bank} order.
func EncodeLog(id uint64, rows [3]Row) []byte {
	buf := newFrame()
	buf[0] = TagLog
	putUint64(buf, 1, id)
	off := 9
	for _, row := range rows {
		buf[off] = row.State
		putFloat64(buf, off+1, row.Fee)
		off += 9
	}
	return buf
}

// DecodeLog decodes a LOG frame into (id, rows). The caller must have
// already checked frame[0] == TagLog.
func DecodeLog(frame []byte) (uint64, [3]Row, error) {
	id := getUint64(frame, 1)
	var rows [3]Row
	off := 9
	for i := range rows {
		b := frame[off]
		if b != 'W' && b != 'O' && b != 'A' && b != 'C' {
			return 0, rows, &MalformedFrame{Context: "log state byte", Byte: b}
		}
		rows[i] = Row{State: b, Fee: getFloat64(frame, off+1)}
		off += 9
	}
	return id, rows, nil
}
