package handlers

import (
	"context"

	"github.com/relaydoc/relaydoc/pkg/docstore"
	"github.com/relaydoc/relaydoc/pkg/wire"
)

// dispatchEnvelope decodes one wire.MessageKind-prefixed frame, applies
// it against store, and returns the envelope-wrapped reply to write back
// to the sender (nil if none), plus every frame that other clients of
// the same document need to see fanned out to them (nil/empty if
// nothing to broadcast).
//
// It is shared by the websocket, SSE and durable-stream handlers so the
// three transports dispatch document-sync frames identically.
func dispatchEnvelope(ctx context.Context, store *docstore.DocumentStore, docID string, payload []byte) (reply []byte, broadcasts [][]byte, err error) {
	kind, body, err := wire.DecodeEnvelope(payload)
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case wire.MessageKindSyncStep1:
		remote, err := wire.DecodeStateVector(body)
		if err != nil {
			return nil, nil, err
		}
		resp, _, err := store.HandleSyncStep1(ctx, docID, remote)
		if err != nil {
			return nil, nil, err
		}
		encoded, err := wire.EncodeSyncStep2(resp)
		if err != nil {
			return nil, nil, err
		}
		return wire.EncodeEnvelope(wire.MessageKindSyncStep2, encoded), nil, nil

	case wire.MessageKindUpdate:
		frame, err := wire.DecodeUpdateFrame(body)
		if err != nil {
			return nil, nil, err
		}
		result, err := store.HandleEncryptedUpdate(ctx, docID, frame)
		if err != nil {
			return nil, nil, err
		}
		if result == nil {
			return nil, nil, nil
		}
		encoded, err := wire.EncodeUpdateFrame(*result)
		if err != nil {
			return nil, nil, err
		}
		out := wire.EncodeEnvelope(wire.MessageKindUpdate, encoded)
		return out, [][]byte{out}, nil

	case wire.MessageKindSyncStep2:
		frame, err := wire.DecodeSyncStep2(body)
		if err != nil {
			return nil, nil, err
		}
		results, err := store.HandleEncryptedSyncStep2(ctx, docID, frame)
		if err != nil {
			return nil, nil, err
		}
		out := make([][]byte, 0, len(results))
		for _, res := range results {
			encoded, err := wire.EncodeUpdateFrame(res)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, wire.EncodeEnvelope(wire.MessageKindUpdate, encoded))
		}
		return nil, out, nil

	default:
		return nil, nil, nil
	}
}
