package booking

// ServiceName is the closed set of external participants spec.md §3
// fixes: {"Airline", "Hotel", "Bank"}. A named type instead of a bare
// string keeps the roster maps and the fixed wire order
// (spec.md §4.1/§4.3) compile-time checked; the wire bytes and JSON keys
// are still exactly these three strings.
type ServiceName string

const (
	Airline ServiceName = "Airline"
	Hotel   ServiceName = "Hotel"
	Bank    ServiceName = "Bank"
)

// Services is the fixed, ordered list every Transaction's service map
// must have exactly these keys for (spec.md §3 invariant (a)). The order
// here is the wire order used by Log/Retry frames (spec.md §4.1/§6).
var Services = [3]ServiceName{Airline, Hotel, Bank}
