package eap

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// OpCode is the MS-CHAP v2 operation code carried in the first octet
// of the EAP-MSCHAPv2 sub-packet (draft-kamath-pppext-eap-mschapv2).
type OpCode byte

const (
	OpChallenge      OpCode = 1
	OpResponse       OpCode = 2
	OpSuccess        OpCode = 3
	OpFailure        OpCode = 4
	OpChangePassword OpCode = 7
)

func (c OpCode) String() string {
	switch c {
	case OpChallenge:
		return "Challenge"
	case OpResponse:
		return "Response"
	case OpSuccess:
		return "Success"
	case OpFailure:
		return "Failure"
	case OpChangePassword:
		return "ChangePassword"
	default:
		return "OpCode(" + strconv.Itoa(int(c)) + ")"
	}
}

const (
	challengeValueSize = 16
	responseValueSize  = 49
)

// MSCHAPv2 is a decoded EAP-MSCHAPv2 sub-packet:
// opcode | msChapID | msLength(2 BE) | payload.
type MSCHAPv2 struct {
	OpCode  OpCode
	ID      byte
	Value   []byte // challenge or response octets
	Name    string
	Message string // Success/Failure text payload
}

// ParseMSCHAPv2 decodes the data portion of an EAP packet of type
// MS-CHAP-v2.
func ParseMSCHAPv2(data []byte) (*MSCHAPv2, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("eap: empty MS-CHAP-v2 sub-packet")
	}
	p := &MSCHAPv2{OpCode: OpCode(data[0])}
	if len(data) < 4 {
		// Bare opcode, seen in outer Success/Failure acknowledgements.
		return p, nil
	}
	p.ID = data[1]
	msLength := int(binary.BigEndian.Uint16(data[2:4]))
	if msLength < 4 || msLength > len(data) {
		return nil, fmt.Errorf("eap: MS-CHAP-v2 length %d out of range for %d available octets", msLength, len(data))
	}
	payload := data[4:msLength]

	switch p.OpCode {
	case OpChallenge, OpResponse:
		if len(payload) < 1 {
			return nil, fmt.Errorf("eap: MS-CHAP-v2 %s missing value size", p.OpCode)
		}
		valueSize := int(payload[0])
		if p.OpCode == OpChallenge && valueSize != challengeValueSize {
			return nil, fmt.Errorf("eap: MS-CHAP-v2 challenge value size %d, want %d", valueSize, challengeValueSize)
		}
		if p.OpCode == OpResponse && valueSize != responseValueSize {
			return nil, fmt.Errorf("eap: MS-CHAP-v2 response value size %d, want %d", valueSize, responseValueSize)
		}
		if len(payload) < 1+valueSize {
			return nil, fmt.Errorf("eap: MS-CHAP-v2 %s value truncated", p.OpCode)
		}
		p.Value = append([]byte(nil), payload[1:1+valueSize]...)
		p.Name = string(payload[1+valueSize:])
	case OpSuccess, OpFailure:
		p.Message = string(payload)
	}
	return p, nil
}

// EncodeChallengeResponse builds the data portion of an EAP
// Response/MS-CHAP-v2 packet (opcode 2). The 49-octet value is
// peerChallenge(16) | reserved(8) | ntResponse(24) | flags(1).
func EncodeChallengeResponse(msChapID byte, peerChallenge [16]byte, ntResponse [24]byte, name string) []byte {
	value := make([]byte, responseValueSize)
	copy(value, peerChallenge[:])
	copy(value[24:], ntResponse[:])

	data := make([]byte, 5+responseValueSize+len(name))
	data[0] = byte(OpResponse)
	data[1] = msChapID
	binary.BigEndian.PutUint16(data[2:4], uint16(len(data)))
	data[4] = responseValueSize
	copy(data[5:], value)
	copy(data[5+responseValueSize:], name)
	return data
}

// EncodeChangePassword builds the data portion of an EAP
// Response/MS-CHAP-v2 change-password packet (opcode 7, RFC 2759
// section 4): encryptedPassword(516) | encryptedHash(16) |
// peerChallenge(16) | reserved(8) | ntResponse(24) | flags(2).
func EncodeChangePassword(msChapID byte, encryptedPassword [516]byte, encryptedHash [16]byte, peerChallenge [16]byte, ntResponse [24]byte) []byte {
	data := make([]byte, 4+516+16+16+8+24+2)
	data[0] = byte(OpChangePassword)
	data[1] = msChapID
	binary.BigEndian.PutUint16(data[2:4], uint16(len(data)))

	off := 4
	copy(data[off:], encryptedPassword[:])
	off += 516
	copy(data[off:], encryptedHash[:])
	off += 16
	copy(data[off:], peerChallenge[:])
	off += 16 + 8 // reserved stays zero
	copy(data[off:], ntResponse[:])
	return data
}

// EncodeSuccessResponse builds the data portion of an EAP
// Response/MS-CHAP-v2 success acknowledgement: a bare opcode octet.
func EncodeSuccessResponse() []byte {
	return []byte{byte(OpSuccess)}
}

// Failure is the parsed ASCII payload of an MS-CHAP-v2 Failure packet:
// E=<code> R=<retry> C=<32-hex challenge> V=<version> M=<message>.
type Failure struct {
	Code      int
	Retry     bool
	Challenge []byte
	Version   int
	Message   string
}

// MS-CHAP-v2 failure codes (RFC 2759 section 6).
const (
	FailureRestrictedHours    = 646
	FailureAccountDisabled    = 647
	FailurePasswordExpired    = 648
	FailureNoDialinPermission = 649
	FailureAuthentication     = 691
	FailureChangingPassword   = 709
)

// ParseFailure parses the failure text payload. Fields other than E=
// are optional.
func ParseFailure(text string) (*Failure, error) {
	f := &Failure{Code: -1}
	for _, field := range strings.Fields(text) {
		eq := strings.IndexByte(field, '=')
		if eq < 1 {
			continue
		}
		key, val := field[:eq], field[eq+1:]
		switch key {
		case "E":
			code, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("eap: bad failure code %q: %w", val, err)
			}
			f.Code = code
		case "R":
			f.Retry = val == "1"
		case "C":
			challenge, err := hex.DecodeString(val)
			if err != nil {
				return nil, fmt.Errorf("eap: bad failure challenge %q: %w", val, err)
			}
			f.Challenge = challenge
		case "V":
			version, err := strconv.Atoi(val)
			if err == nil {
				f.Version = version
			}
		case "M":
			// M= runs to the end of the payload, spaces included.
			idx := strings.Index(text, "M=")
			f.Message = text[idx+2:]
		}
	}
	if f.Code < 0 {
		return nil, fmt.Errorf("eap: failure payload %q carries no E= code", text)
	}
	return f, nil
}
