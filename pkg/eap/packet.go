package eap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// Code is the EAP packet code (RFC 3748 section 4).
type Code byte

const (
	CodeRequest  Code = 1
	CodeResponse Code = 2
	CodeSuccess  Code = 3
	CodeFailure  Code = 4
)

func (c Code) String() string {
	switch c {
	case CodeRequest:
		return "Request"
	case CodeResponse:
		return "Response"
	case CodeSuccess:
		return "Success"
	case CodeFailure:
		return "Failure"
	default:
		return "Code(" + strconv.Itoa(int(c)) + ")"
	}
}

// Type is the EAP method type.
type Type byte

const (
	TypeIdentity         Type = 1
	TypeNotification     Type = 2
	TypeLegacyNAK        Type = 3
	TypeMD5Challenge     Type = 4
	TypeOTP              Type = 5
	TypeGenericTokenCard Type = 6
	TypeTLS              Type = 13
	TypePEAP             Type = 25
	TypeMSCHAPv2         Type = 26
)

func (t Type) String() string {
	switch t {
	case TypeIdentity:
		return "Identity"
	case TypeNotification:
		return "Notification"
	case TypeLegacyNAK:
		return "Legacy-NAK"
	case TypeMD5Challenge:
		return "MD5-Challenge"
	case TypeOTP:
		return "OTP"
	case TypeGenericTokenCard:
		return "Generic-Token-Card"
	case TypeTLS:
		return "EAP-TLS"
	case TypePEAP:
		return "PEAP"
	case TypeMSCHAPv2:
		return "MS-CHAP-v2"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

const headerLength = 5

var ErrTruncated = errors.New("eap: truncated packet")

// Packet is one EAP message. Success and Failure packets have no type
// octet and no data; their encoded length is 4.
type Packet struct {
	Code       Code
	Identifier byte
	Type       Type
	Data       []byte
}

// NewIdentityResponse builds an EAP Response/Identity carrying the
// username octets.
func NewIdentityResponse(identifier byte, identity string) *Packet {
	return &Packet{
		Code:       CodeResponse,
		Identifier: identifier,
		Type:       TypeIdentity,
		Data:       []byte(identity),
	}
}

// NewLegacyNAK builds an EAP Response/Legacy-NAK proposing the desired
// authentication type.
func NewLegacyNAK(identifier byte, desired Type) *Packet {
	return &Packet{
		Code:       CodeResponse,
		Identifier: identifier,
		Type:       TypeLegacyNAK,
		Data:       []byte{byte(desired)},
	}
}

// NewSuccess builds an EAP Success, a bare four-octet header.
func NewSuccess(identifier byte) *Packet {
	return &Packet{Code: CodeSuccess, Identifier: identifier}
}

// Encode serializes the packet: code | id | length(2 BE) | type | data,
// length = 5 + len(data). Success/Failure omit the type octet.
func (p *Packet) Encode() []byte {
	if p.Code == CodeSuccess || p.Code == CodeFailure {
		wire := make([]byte, 4)
		wire[0] = byte(p.Code)
		wire[1] = p.Identifier
		binary.BigEndian.PutUint16(wire[2:4], 4)
		return wire
	}

	wire := make([]byte, headerLength+len(p.Data))
	wire[0] = byte(p.Code)
	wire[1] = p.Identifier
	binary.BigEndian.PutUint16(wire[2:4], uint16(len(wire)))
	wire[4] = byte(p.Type)
	copy(wire[headerLength:], p.Data)
	return wire
}

// Parse decodes one EAP message.
func Parse(data []byte) (*Packet, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	length := int(binary.BigEndian.Uint16(data[2:4]))
	if length < 4 || length > len(data) {
		return nil, fmt.Errorf("eap: declared length %d out of range for %d octets", length, len(data))
	}

	p := &Packet{
		Code:       Code(data[0]),
		Identifier: data[1],
	}
	if p.Code == CodeSuccess || p.Code == CodeFailure {
		return p, nil
	}
	if length < headerLength {
		return nil, ErrTruncated
	}
	p.Type = Type(data[4])
	p.Data = append([]byte(nil), data[headerLength:length]...)
	return p, nil
}

func (p *Packet) String() string {
	if p.Code == CodeSuccess || p.Code == CodeFailure {
		return fmt.Sprintf("%s ID=%d", p.Code, p.Identifier)
	}
	return fmt.Sprintf("%s/%s ID=%d (%d octets)", p.Code, p.Type, p.Identifier, len(p.Data))
}
