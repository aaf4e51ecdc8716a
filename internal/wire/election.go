package wire

// EncodeElection builds a single-byte election frame (Alive/Election/
// Leader/First), padded to FrameSize so the receiver can use one fixed
// recv size across every category, per spec.md §4.1/§6.
func EncodeElection(code byte) []byte {
	buf := newFrame()
	buf[0] = code
	return buf
}

// DecodeElection validates and returns the election code byte.
func DecodeElection(frame []byte) (byte, error) {
	b := frame[0]
	switch b {
	case ElectionAlive, ElectionElection, ElectionLeader, ElectionFirst:
		return b, nil
	default:
		return 0, &MalformedFrame{Context: "election code", Byte: b}
	}
}
