package radius

import (
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderLength is the fixed packet header size: code, identifier,
	// length and the 16-octet authenticator.
	HeaderLength = 20

	// MaxPacketLength bounds the wire size of a RADIUS datagram
	// (RFC 2865 section 3).
	MaxPacketLength = 4096
)

var (
	ErrPacketTooShort = errors.New("radius: packet too short")
	ErrPacketTooLong  = errors.New("radius: packet too long")
)

// Packet is a decoded RADIUS packet frame.
type Packet struct {
	Code          Code
	Identifier    byte
	Authenticator [16]byte
	Attributes    []Attribute
}

// New returns an empty packet with the given code and identifier.
func New(code Code, identifier byte) *Packet {
	return &Packet{Code: code, Identifier: identifier}
}

// NewRequestAuthenticator draws 16 octets from the system CSPRNG.
func NewRequestAuthenticator() ([16]byte, error) {
	var auth [16]byte
	if _, err := rand.Read(auth[:]); err != nil {
		return auth, fmt.Errorf("radius: generating request authenticator: %w", err)
	}
	return auth, nil
}

// Add appends an attribute regardless of its type.
func (p *Packet) Add(a Attribute) {
	p.Attributes = append(p.Attributes, a)
}

// Set stores an attribute. Multi-valued types (Vendor-Specific,
// EAP-Message) append; single-valued types replace an existing
// attribute of the same type in place.
func (p *Packet) Set(a Attribute) {
	if !IsMultiValued(a.Type) {
		for i := range p.Attributes {
			if p.Attributes[i].Type == a.Type {
				p.Attributes[i] = a
				return
			}
		}
	}
	p.Attributes = append(p.Attributes, a)
}

// Get returns the first attribute of the given type.
func (p *Packet) Get(t byte) (Attribute, bool) {
	for _, a := range p.Attributes {
		if a.Type == t {
			return a, true
		}
	}
	return Attribute{}, false
}

// GetAll returns every attribute of the given type in packet order.
func (p *Packet) GetAll(t byte) []Attribute {
	var out []Attribute
	for _, a := range p.Attributes {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// Remove deletes every attribute of the given type and reports how
// many were removed.
func (p *Packet) Remove(t byte) int {
	kept := p.Attributes[:0]
	removed := 0
	for _, a := range p.Attributes {
		if a.Type == t {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	p.Attributes = kept
	return removed
}

// Length is the encoded packet size in octets.
func (p *Packet) Length() int {
	n := HeaderLength
	for _, a := range p.Attributes {
		n += a.encodedLength()
	}
	return n
}

// Encode serializes the packet. The length field is computed from the
// attribute list; attributes whose value exceeds 253 octets are
// rejected (callers split long EAP payloads beforehand).
func (p *Packet) Encode() ([]byte, error) {
	total := p.Length()
	if total > MaxPacketLength {
		return nil, ErrPacketTooLong
	}

	wire := make([]byte, total)
	wire[0] = byte(p.Code)
	wire[1] = p.Identifier
	binary.BigEndian.PutUint16(wire[2:4], uint16(total))
	copy(wire[4:20], p.Authenticator[:])

	off := HeaderLength
	for _, a := range p.Attributes {
		if len(a.Value) > MaxAttributeValueLength {
			return nil, fmt.Errorf("radius: attribute %s value is %d octets, max %d",
				AttributeName(a.Type), len(a.Value), MaxAttributeValueLength)
		}
		wire[off] = a.Type
		wire[off+1] = byte(a.encodedLength())
		copy(wire[off+2:], a.Value)
		off += a.encodedLength()
	}
	return wire, nil
}

// EncodeRequest serializes an Access-Request. If a
// Message-Authenticator attribute is present its value is first
// written as 16 zero octets, the HMAC-MD5 over the whole packet is
// computed with the shared secret, and the digest is written back in
// place.
func (p *Packet) EncodeRequest(secret []byte) ([]byte, error) {
	maOffset := -1
	off := HeaderLength
	for i := range p.Attributes {
		if p.Attributes[i].Type == AttrMessageAuthenticator {
			if len(p.Attributes[i].Value) != md5.Size {
				p.Attributes[i].Value = make([]byte, md5.Size)
			}
			copy(p.Attributes[i].Value, make([]byte, md5.Size))
			maOffset = off + 2
		}
		off += p.Attributes[i].encodedLength()
	}

	wire, err := p.Encode()
	if err != nil {
		return nil, err
	}
	if maOffset >= 0 {
		digest := MessageAuthenticator(wire, secret)
		copy(wire[maOffset:maOffset+md5.Size], digest[:])
		for i := range p.Attributes {
			if p.Attributes[i].Type == AttrMessageAuthenticator {
				copy(p.Attributes[i].Value, digest[:])
			}
		}
	}
	return wire, nil
}

// Parse decodes a RADIUS packet frame.
func Parse(data []byte) (*Packet, error) {
	if len(data) < HeaderLength {
		return nil, ErrPacketTooShort
	}
	length := int(binary.BigEndian.Uint16(data[2:4]))
	if length < HeaderLength {
		return nil, fmt.Errorf("radius: declared length %d below header size", length)
	}
	if length > MaxPacketLength {
		return nil, ErrPacketTooLong
	}
	if length > len(data) {
		return nil, fmt.Errorf("radius: declared length %d exceeds datagram size %d", length, len(data))
	}

	p := &Packet{
		Code:       Code(data[0]),
		Identifier: data[1],
	}
	copy(p.Authenticator[:], data[4:20])

	rest := data[HeaderLength:length]
	for len(rest) > 0 {
		if len(rest) < 2 {
			return nil, fmt.Errorf("radius: truncated attribute header after %d attributes", len(p.Attributes))
		}
		alen := int(rest[1])
		if alen < 2 || alen > len(rest) {
			return nil, fmt.Errorf("radius: attribute %s length %d out of range",
				AttributeName(rest[0]), alen)
		}
		p.Attributes = append(p.Attributes, Attribute{
			Type:  rest[0],
			Value: append([]byte(nil), rest[2:alen]...),
		})
		rest = rest[alen:]
	}
	return p, nil
}

// VerifyResponseAuthenticator checks a received response datagram
// against the Request-Authenticator of the request it answers:
// MD5(code || id || length || requestAuth || attributes || secret)
// must equal the authenticator carried in the response.
func VerifyResponseAuthenticator(wire []byte, requestAuth [16]byte, secret []byte) bool {
	if len(wire) < HeaderLength {
		return false
	}
	h := md5.New()
	h.Write(wire[:4])
	h.Write(requestAuth[:])
	h.Write(wire[HeaderLength:])
	h.Write(secret)
	return bytes.Equal(h.Sum(nil), wire[4:20])
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s ID=%d Attributes=%d", p.Code, p.Identifier, len(p.Attributes))
}
