package radius

import (
	"crypto/md5"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	p := New(CodeAccessRequest, 42)
	auth, err := NewRequestAuthenticator()
	require.NoError(t, err)
	p.Authenticator = auth
	p.Set(NewTextAttribute(AttrUserName, "alice"))
	p.Set(NewIntegerAttribute(AttrNASPort, 7))

	wire, err := p.Encode()
	require.NoError(t, err)
	assert.EqualValues(t, CodeAccessRequest, wire[0])
	assert.EqualValues(t, 42, wire[1])
	assert.EqualValues(t, len(wire), binary.BigEndian.Uint16(wire[2:4]))

	parsed, err := Parse(wire)
	require.NoError(t, err)
	assert.Equal(t, p.Code, parsed.Code)
	assert.Equal(t, p.Identifier, parsed.Identifier)
	assert.Equal(t, p.Authenticator, parsed.Authenticator)
	require.Len(t, parsed.Attributes, 2)

	name, ok := parsed.Get(AttrUserName)
	require.True(t, ok)
	assert.Equal(t, "alice", name.Text())
}

func TestSetReplacesSingleValued(t *testing.T) {
	p := New(CodeAccessRequest, 1)
	p.Set(NewTextAttribute(AttrUserName, "alice"))
	p.Set(NewTextAttribute(AttrUserName, "bob"))
	require.Len(t, p.Attributes, 1)
	assert.Equal(t, "bob", p.Attributes[0].Text())
}

func TestSetAppendsMultiValued(t *testing.T) {
	p := New(CodeAccessRequest, 1)
	p.Set(NewStringAttribute(AttrEAPMessage, []byte{1}))
	p.Set(NewStringAttribute(AttrEAPMessage, []byte{2}))
	assert.Len(t, p.GetAll(AttrEAPMessage), 2)
}

func TestRemove(t *testing.T) {
	p := New(CodeAccessRequest, 1)
	p.Add(NewStringAttribute(AttrEAPMessage, []byte{1}))
	p.Add(NewTextAttribute(AttrUserName, "alice"))
	p.Add(NewStringAttribute(AttrEAPMessage, []byte{2}))

	assert.Equal(t, 2, p.Remove(AttrEAPMessage))
	assert.Len(t, p.Attributes, 1)
	assert.Equal(t, 0, p.Remove(AttrEAPMessage))
}

func TestEncodeRejectsOversizedAttribute(t *testing.T) {
	p := New(CodeAccessRequest, 1)
	p.Add(NewStringAttribute(AttrEAPMessage, make([]byte, 254)))
	_, err := p.Encode()
	assert.Error(t, err)
}

func TestEncodeRejectsOversizedPacket(t *testing.T) {
	p := New(CodeAccessRequest, 1)
	for i := 0; i < 17; i++ {
		p.Add(NewStringAttribute(AttrEAPMessage, make([]byte, 253)))
	}
	_, err := p.Encode()
	assert.ErrorIs(t, err, ErrPacketTooLong)
}

func TestEncodeRequestBackfillsMessageAuthenticator(t *testing.T) {
	secret := []byte("s3cret")
	p := New(CodeAccessRequest, 5)
	auth, err := NewRequestAuthenticator()
	require.NoError(t, err)
	p.Authenticator = auth
	p.Set(NewTextAttribute(AttrUserName, "alice"))
	p.Set(NewStringAttribute(AttrMessageAuthenticator, make([]byte, 16)))

	wire, err := p.EncodeRequest(secret)
	require.NoError(t, err)

	parsed, err := Parse(wire)
	require.NoError(t, err)
	ma, ok := parsed.Get(AttrMessageAuthenticator)
	require.True(t, ok)
	require.Len(t, ma.Value, md5.Size)
	assert.NotEqual(t, make([]byte, 16), ma.Value)

	// Recompute over the wire with the digest zeroed.
	zeroed := append([]byte(nil), wire...)
	off := HeaderLength
	for off < len(zeroed) {
		if zeroed[off] == AttrMessageAuthenticator {
			copy(zeroed[off+2:off+2+md5.Size], make([]byte, md5.Size))
			break
		}
		off += int(zeroed[off+1])
	}
	expected := MessageAuthenticator(zeroed, secret)
	assert.Equal(t, expected[:], ma.Value)
}

func TestParseErrors(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		_, err := Parse(make([]byte, 10))
		assert.ErrorIs(t, err, ErrPacketTooShort)
	})

	t.Run("declared below header", func(t *testing.T) {
		wire := make([]byte, 20)
		binary.BigEndian.PutUint16(wire[2:4], 10)
		_, err := Parse(wire)
		assert.Error(t, err)
	})

	t.Run("declared beyond datagram", func(t *testing.T) {
		wire := make([]byte, 20)
		binary.BigEndian.PutUint16(wire[2:4], 30)
		_, err := Parse(wire)
		assert.Error(t, err)
	})

	t.Run("attribute length zero", func(t *testing.T) {
		wire := make([]byte, 22)
		binary.BigEndian.PutUint16(wire[2:4], 22)
		wire[20] = AttrUserName
		wire[21] = 0
		_, err := Parse(wire)
		assert.Error(t, err)
	})

	t.Run("attribute overruns packet", func(t *testing.T) {
		wire := make([]byte, 22)
		binary.BigEndian.PutUint16(wire[2:4], 22)
		wire[20] = AttrUserName
		wire[21] = 40
		_, err := Parse(wire)
		assert.Error(t, err)
	})
}

func TestParseIgnoresTrailingOctets(t *testing.T) {
	p := New(CodeAccessAccept, 3)
	wire, err := p.Encode()
	require.NoError(t, err)
	wire = append(wire, 0xFF, 0xFF, 0xFF)

	parsed, err := Parse(wire)
	require.NoError(t, err)
	assert.Empty(t, parsed.Attributes)
}

func TestVerifyResponseAuthenticator(t *testing.T) {
	secret := []byte("s3cret")
	requestAuth := [16]byte{1, 2, 3, 4}

	resp := New(CodeAccessAccept, 9)
	resp.Set(NewTextAttribute(AttrReplyMessage, "ok"))
	wire, err := resp.Encode()
	require.NoError(t, err)

	h := md5.New()
	h.Write(wire[:4])
	h.Write(requestAuth[:])
	h.Write(wire[HeaderLength:])
	h.Write(secret)
	copy(wire[4:20], h.Sum(nil))

	assert.True(t, VerifyResponseAuthenticator(wire, requestAuth, secret))
	assert.False(t, VerifyResponseAuthenticator(wire, [16]byte{9}, secret))
	assert.False(t, VerifyResponseAuthenticator(wire, requestAuth, []byte("wrong")))
	assert.False(t, VerifyResponseAuthenticator(wire[:10], requestAuth, secret))
}

func TestNewRequestAuthenticatorVaries(t *testing.T) {
	a, err := NewRequestAuthenticator()
	require.NoError(t, err)
	b, err := NewRequestAuthenticator()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "Access-Request", CodeAccessRequest.String())
	assert.Equal(t, "Access-Reject", CodeAccessReject.String())
	assert.Equal(t, "Code(99)", Code(99).String())
}
