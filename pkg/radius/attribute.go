package radius

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// MaxAttributeValueLength is the largest value an attribute can carry:
// the one-octet length field covers type and length themselves.
const MaxAttributeValueLength = 253

// Attribute is a single RADIUS attribute. Value holds the raw wire
// octets; the typed accessors interpret them per the dictionary format.
type Attribute struct {
	Type  byte
	Value []byte
}

// NewTextAttribute builds a Text format attribute from a UTF-8 string.
func NewTextAttribute(t byte, s string) Attribute {
	return Attribute{Type: t, Value: []byte(s)}
}

// NewStringAttribute builds a String (opaque octets) attribute. The
// value is copied.
func NewStringAttribute(t byte, v []byte) Attribute {
	return Attribute{Type: t, Value: append([]byte(nil), v...)}
}

// NewAddressAttribute builds an Address attribute from an IPv4 address.
func NewAddressAttribute(t byte, ip net.IP) (Attribute, error) {
	v4 := ip.To4()
	if v4 == nil {
		return Attribute{}, fmt.Errorf("radius: %s is not an IPv4 address", ip)
	}
	return Attribute{Type: t, Value: append([]byte(nil), v4...)}, nil
}

// NewIntegerAttribute builds a 32-bit big-endian Integer attribute.
func NewIntegerAttribute(t byte, v uint32) Attribute {
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, v)
	return Attribute{Type: t, Value: value}
}

// NewTimeAttribute builds a Time attribute carrying big-endian Unix
// epoch seconds.
func NewTimeAttribute(t byte, tm time.Time) Attribute {
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, uint32(tm.Unix()))
	return Attribute{Type: t, Value: value}
}

// NewVendorAttribute builds a Vendor-Specific (26) attribute wrapping a
// single vendor sub-attribute: vendor-id(4) | vendor-type(1) |
// vendor-length(1) | data.
func NewVendorAttribute(vendorID uint32, vendorType byte, data []byte) (Attribute, error) {
	if len(data) > MaxAttributeValueLength-6 {
		return Attribute{}, fmt.Errorf("radius: vendor attribute data too long (%d octets)", len(data))
	}
	value := make([]byte, 6+len(data))
	binary.BigEndian.PutUint32(value, vendorID)
	value[4] = vendorType
	value[5] = byte(2 + len(data))
	copy(value[6:], data)
	return Attribute{Type: AttrVendorSpecific, Value: value}, nil
}

// Text returns the value as a string.
func (a Attribute) Text() string {
	return string(a.Value)
}

// Address interprets the value as an IPv4 address.
func (a Attribute) Address() (net.IP, error) {
	if len(a.Value) != 4 {
		return nil, fmt.Errorf("radius: %s: address value is %d octets, want 4", AttributeName(a.Type), len(a.Value))
	}
	return net.IPv4(a.Value[0], a.Value[1], a.Value[2], a.Value[3]).To4(), nil
}

// Integer interprets the value as a 32-bit big-endian unsigned integer.
func (a Attribute) Integer() (uint32, error) {
	if len(a.Value) != 4 {
		return 0, fmt.Errorf("radius: %s: integer value is %d octets, want 4", AttributeName(a.Type), len(a.Value))
	}
	return binary.BigEndian.Uint32(a.Value), nil
}

// Time interprets the value as big-endian Unix epoch seconds.
func (a Attribute) Time() (time.Time, error) {
	if len(a.Value) != 4 {
		return time.Time{}, fmt.Errorf("radius: %s: time value is %d octets, want 4", AttributeName(a.Type), len(a.Value))
	}
	return time.Unix(int64(binary.BigEndian.Uint32(a.Value)), 0).UTC(), nil
}

// Equal reports whether two attributes have the same type and value
// octets.
func (a Attribute) Equal(b Attribute) bool {
	return a.Type == b.Type && bytes.Equal(a.Value, b.Value)
}

func (a Attribute) String() string {
	return fmt.Sprintf("%s(%d octets)", AttributeName(a.Type), len(a.Value))
}

// encodedLength is the on-wire size of the attribute including the
// type and length octets.
func (a Attribute) encodedLength() int {
	return 2 + len(a.Value)
}

// VendorAttribute is one decoded vendor sub-attribute from a
// Vendor-Specific (26) value.
type VendorAttribute struct {
	VendorID uint32
	Type     byte
	Value    []byte
}

// ParseVendorSpecific walks the sub-attributes inside a
// Vendor-Specific value. The offset advances by the sub-attribute's
// total length (value length plus the two header octets).
func ParseVendorSpecific(value []byte) ([]VendorAttribute, error) {
	if len(value) < 6 {
		return nil, fmt.Errorf("radius: vendor-specific value is %d octets, want at least 6", len(value))
	}
	vendorID := binary.BigEndian.Uint32(value[:4])
	rest := value[4:]

	var subs []VendorAttribute
	for len(rest) > 0 {
		if len(rest) < 2 {
			return nil, fmt.Errorf("radius: truncated vendor sub-attribute header")
		}
		vlen := int(rest[1])
		if vlen < 2 || vlen > len(rest) {
			return nil, fmt.Errorf("radius: vendor sub-attribute length %d out of range", vlen)
		}
		subs = append(subs, VendorAttribute{
			VendorID: vendorID,
			Type:     rest[0],
			Value:    append([]byte(nil), rest[2:vlen]...),
		})
		rest = rest[vlen:]
	}
	return subs, nil
}
