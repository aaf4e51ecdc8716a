package wire

// Request is a Prepare/Abort/Commit request sent by the Manager to one
// of the three backend services: opcode byte, then a big-endian u64 id
// and f64 fee, padded to FrameSize (spec.md §4.1/§6).
type Request struct {
	Op  byte
	ID  uint64
	Fee float64
}

// EncodePrepare/EncodeAbort/EncodeCommit build the three request frames.
func EncodePrepare(id uint64, fee float64) []byte { return encodeRequest(OpPrepare, id, fee) }
func EncodeAbort(id uint64, fee float64) []byte   { return encodeRequest(OpAbort, id, fee) }
func EncodeCommit(id uint64, fee float64) []byte  { return encodeRequest(OpCommit, id, fee) }

func encodeRequest(op byte, id uint64, fee float64) []byte {
	buf := newFrame()
	buf[0] = op
	putUint64(buf, 1, id)
	putFloat64(buf, 9, fee)
	return buf
}

// DecodeRequest decodes a request frame. The opcode byte must be one of
// {'P','A','C'}; any other value is a MalformedFrame.
func DecodeRequest(frame []byte) (Request, error) {
	op := frame[0]
	if op != OpPrepare && op != OpAbort && op != OpCommit {
		return Request{}, &MalformedFrame{Context: "request opcode", Byte: op}
	}
	return Request{
		Op:  op,
		ID:  getUint64(frame, 1),
		Fee: getFloat64(frame, 9),
	}, nil
}
