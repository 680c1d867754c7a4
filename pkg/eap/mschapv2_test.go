package eap

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMSCHAPv2Challenge(t *testing.T) {
	payload := []byte{16}
	payload = append(payload, bytes.Repeat([]byte{0xAB}, 16)...)
	payload = append(payload, []byte("radsrv")...)

	data := []byte{byte(OpChallenge), 42, 0, 0}
	binary.BigEndian.PutUint16(data[2:4], uint16(4+len(payload)))
	data = append(data, payload...)

	p, err := ParseMSCHAPv2(data)
	require.NoError(t, err)
	assert.Equal(t, OpChallenge, p.OpCode)
	assert.EqualValues(t, 42, p.ID)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 16), p.Value)
	assert.Equal(t, "radsrv", p.Name)
}

func TestParseMSCHAPv2ChallengeBadValueSize(t *testing.T) {
	data := []byte{byte(OpChallenge), 1, 0, 6, 8, 0}
	_, err := ParseMSCHAPv2(data)
	assert.Error(t, err)
}

func TestParseMSCHAPv2SuccessMessage(t *testing.T) {
	msg := "S=407A5589115FD0D6209F510FE9C04566932CDA56 M=OK"
	data := []byte{byte(OpSuccess), 9, 0, 0}
	binary.BigEndian.PutUint16(data[2:4], uint16(4+len(msg)))
	data = append(data, []byte(msg)...)

	p, err := ParseMSCHAPv2(data)
	require.NoError(t, err)
	assert.Equal(t, OpSuccess, p.OpCode)
	assert.Equal(t, msg, p.Message)
}

func TestParseMSCHAPv2BareOpcode(t *testing.T) {
	p, err := ParseMSCHAPv2([]byte{byte(OpSuccess)})
	require.NoError(t, err)
	assert.Equal(t, OpSuccess, p.OpCode)
	assert.Empty(t, p.Message)
}

func TestParseMSCHAPv2LengthOverrun(t *testing.T) {
	_, err := ParseMSCHAPv2([]byte{byte(OpFailure), 1, 0, 99, 'E'})
	assert.Error(t, err)
}

func TestEncodeChallengeResponse(t *testing.T) {
	var peer [16]byte
	var nt [24]byte
	for i := range peer {
		peer[i] = byte(i)
	}
	for i := range nt {
		nt[i] = byte(0x80 + i)
	}

	data := EncodeChallengeResponse(5, peer, nt, "alice")
	require.Len(t, data, 5+49+5)
	assert.EqualValues(t, OpResponse, data[0])
	assert.EqualValues(t, 5, data[1])
	assert.EqualValues(t, len(data), binary.BigEndian.Uint16(data[2:4]))
	assert.EqualValues(t, 49, data[4])
	assert.Equal(t, peer[:], data[5:21])
	assert.Equal(t, bytes.Repeat([]byte{0}, 8), data[21:29])
	assert.Equal(t, nt[:], data[29:53])
	assert.EqualValues(t, 0, data[53])
	assert.Equal(t, "alice", string(data[54:]))

	parsed, err := ParseMSCHAPv2(data)
	require.NoError(t, err)
	assert.Equal(t, OpResponse, parsed.OpCode)
	assert.Equal(t, "alice", parsed.Name)
	assert.Len(t, parsed.Value, 49)
}

func TestEncodeChangePassword(t *testing.T) {
	var encPw [516]byte
	var encHash [16]byte
	var peer [16]byte
	var nt [24]byte
	encPw[0], encPw[515] = 0x11, 0x22
	encHash[0] = 0x33
	peer[0] = 0x44
	nt[0] = 0x55

	data := EncodeChangePassword(8, encPw, encHash, peer, nt)
	require.Len(t, data, 4+516+16+16+8+24+2)
	assert.EqualValues(t, OpChangePassword, data[0])
	assert.EqualValues(t, 8, data[1])
	assert.EqualValues(t, len(data), binary.BigEndian.Uint16(data[2:4]))
	assert.Equal(t, encPw[:], data[4:520])
	assert.Equal(t, encHash[:], data[520:536])
	assert.Equal(t, peer[:], data[536:552])
	assert.Equal(t, bytes.Repeat([]byte{0}, 8), data[552:560])
	assert.Equal(t, nt[:], data[560:584])
	assert.Equal(t, []byte{0, 0}, data[584:586])
}

func TestEncodeSuccessResponse(t *testing.T) {
	assert.Equal(t, []byte{3}, EncodeSuccessResponse())
}

func TestParseFailure(t *testing.T) {
	f, err := ParseFailure("E=648 R=1 C=5B5D7C7D7B3F2F3E3C2C602132262628 V=3 M=Password expired")
	require.NoError(t, err)
	assert.Equal(t, FailurePasswordExpired, f.Code)
	assert.True(t, f.Retry)
	assert.Len(t, f.Challenge, 16)
	assert.Equal(t, 3, f.Version)
	assert.Equal(t, "Password expired", f.Message)
}

func TestParseFailureMinimal(t *testing.T) {
	f, err := ParseFailure("E=691")
	require.NoError(t, err)
	assert.Equal(t, FailureAuthentication, f.Code)
	assert.False(t, f.Retry)
	assert.Nil(t, f.Challenge)
	assert.Empty(t, f.Message)
}

func TestParseFailureErrors(t *testing.T) {
	t.Run("no code", func(t *testing.T) {
		_, err := ParseFailure("R=1 M=denied")
		assert.Error(t, err)
	})

	t.Run("bad code", func(t *testing.T) {
		_, err := ParseFailure("E=abc")
		assert.Error(t, err)
	})

	t.Run("bad challenge hex", func(t *testing.T) {
		_, err := ParseFailure("E=691 C=zz")
		assert.Error(t, err)
	})
}

func TestOpCodeString(t *testing.T) {
	assert.Equal(t, "ChangePassword", OpChangePassword.String())
	assert.Equal(t, "OpCode(9)", OpCode(9).String())
}
