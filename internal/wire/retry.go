package wire

// EncodeRetry builds a RETRY frame: TagRetry, u64 id, then three f64
// fees in {Airline, Hotel, Bank} order (spec.md §4.1/§6). A retry always
// means "all three services start Waiting again", so no state bytes are
// carried on the wire.
func EncodeRetry(id uint64, airlineFee, hotelFee, bankFee float64) []byte {
	buf := newFrame()
	buf[0] = TagRetry
	putUint64(buf, 1, id)
	putFloat64(buf, 9, airlineFee)
	putFloat64(buf, 17, hotelFee)
	putFloat64(buf, 25, bankFee)
	return buf
}

// RetryPayload is the decoded content of a RETRY frame.
type RetryPayload struct {
	ID         uint64
	AirlineFee float64
	HotelFee   float64
	BankFee    float64
}

// DecodeRetry decodes a RETRY frame. The caller must have already
// checked frame[0] == TagRetry.
func DecodeRetry(frame []byte) RetryPayload {
	return RetryPayload{
		ID:         getUint64(frame, 1),
		AirlineFee: getFloat64(frame, 9),
		HotelFee:   getFloat64(frame, 17),
		BankFee:    getFloat64(frame, 25),
	}
}
