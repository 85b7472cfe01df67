package conn

// State is the lifecycle state of a Connection.
type State int32

const (
	// Handshaking is the initial state: the key exchange is in progress.
	Handshaking State = iota
	// Ready means encryption contexts exist and data flows both ways.
	Ready
	// Closed is terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
