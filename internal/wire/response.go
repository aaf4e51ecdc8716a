package wire

// Response is a service's reply to a request: TagResponse, an opcode
// sub-byte in {'o','A','C'}, then a big-endian u64 id, padded to
// FrameSize (spec.md §4.1/§6).
type Response struct {
	Op byte
	ID uint64
}

func EncodeAccept(id uint64) []byte       { return encodeResponse(RespAccept, id) }
func EncodeRespAbort(id uint64) []byte    { return encodeResponse(RespAbort, id) }
func EncodeRespCommit(id uint64) []byte   { return encodeResponse(RespCommit, id) }

func encodeResponse(op byte, id uint64) []byte {
	buf := newFrame()
	buf[0] = TagResponse
	buf[1] = op
	putUint64(buf, 2, id)
	return buf
}

// DecodeResponse decodes a response frame. frame[0] must already be
// known to be TagResponse by the caller (the Receiver's category
// dispatch); the sub-opcode is validated here.
func DecodeResponse(frame []byte) (Response, error) {
	op := frame[1]
	if op != RespAccept && op != RespAbort && op != RespCommit {
		return Response{}, &MalformedFrame{Context: "response opcode", Byte: op}
	}
	return Response{Op: op, ID: getUint64(frame, 2)}, nil
}
