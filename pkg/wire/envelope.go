package wire

import "github.com/relaydoc/relaydoc/pkg/errs"

// MessageKind discriminates the document-sync message kinds multiplexed
// over one full- or half-duplex transport connection, per spec.md §6's
// "Messages (logical kinds): document-sync (sync-step-1, sync-step-2,
// update, sync-done)". The remaining logical kinds (awareness, ack, file,
// request/response) are Connection Core bookkeeping concerns and carry
// their payloads unwrapped.
type MessageKind uint8

const (
	MessageKindSyncStep1 MessageKind = iota
	MessageKindSyncStep2
	MessageKindUpdate
	MessageKindSyncDone
)

// EncodeEnvelope prefixes body with a one-byte kind discriminator so a
// single duplex connection can multiplex all four document-sync message
// kinds without a side channel.
func EncodeEnvelope(kind MessageKind, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = byte(kind)
	copy(out[1:], body)
	return out
}

// DecodeEnvelope splits a prefixed payload back into its kind and body.
func DecodeEnvelope(b []byte) (MessageKind, []byte, error) {
	if len(b) < 1 {
		return 0, nil, errs.New(errs.CodeInvalidFrame, "empty envelope")
	}
	return MessageKind(b[0]), b[1:], nil
}
