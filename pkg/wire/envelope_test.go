package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/wire"
)

func TestEncodeDecodeEnvelopeRoundTrip(t *testing.T) {
	body := []byte("frame-bytes")
	encoded := wire.EncodeEnvelope(wire.MessageKindUpdate, body)

	kind, decoded, err := wire.DecodeEnvelope(encoded)
	require.NoError(t, err)
	assert.Equal(t, wire.MessageKindUpdate, kind)
	assert.Equal(t, body, decoded)
}

func TestDecodeEnvelopeRejectsEmpty(t *testing.T) {
	_, _, err := wire.DecodeEnvelope(nil)
	assert.Error(t, err)
}
