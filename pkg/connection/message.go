package connection

// Kind is the logical message kind carried by one Connection Core frame.
// Only Ack receipt clears an in-flight entry; only document-sync, file, and
// request/response sends are tracked as in-flight.
type Kind int

const (
	KindDocSync Kind = iota
	KindAwareness
	KindAck
	KindFile
	KindRequestResponse
)

// Message is one logical unit handed to Send. ID is the content-addressed
// or caller-assigned message id used for in-flight tracking and ACK
// correlation; it is ignored for Kind == KindAck and KindAwareness.
type Message struct {
	ID      string
	Kind    Kind
	Payload []byte
}

// trackable reports whether msg participates in in-flight tracking.
// Awareness and ACK messages are explicitly excluded by spec.
func trackable(msg Message) bool {
	return msg.Kind != KindAwareness && msg.Kind != KindAck
}
