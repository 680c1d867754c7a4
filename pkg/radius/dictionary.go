package radius

import "strconv"

// Format describes how an attribute value is encoded on the wire.
type Format int

const (
	FormatText    Format = iota // UTF-8 text
	FormatString                // opaque octets
	FormatAddress               // 4-octet IPv4 address, network order
	FormatInteger               // 4-octet big-endian unsigned
	FormatTime                  // 4-octet big-endian Unix epoch seconds
)

// RFC 2865 attribute types, plus the extensions the client needs
// (EAP-Message from RFC 3579, Event-Timestamp and Message-Authenticator
// from RFC 2869).
const (
	AttrUserName             byte = 1
	AttrUserPassword         byte = 2
	AttrCHAPPassword         byte = 3
	AttrNASIPAddress         byte = 4
	AttrNASPort              byte = 5
	AttrServiceType          byte = 6
	AttrFramedProtocol       byte = 7
	AttrFramedIPAddress      byte = 8
	AttrFramedIPNetmask      byte = 9
	AttrFramedRouting        byte = 10
	AttrFilterID             byte = 11
	AttrFramedMTU            byte = 12
	AttrFramedCompression    byte = 13
	AttrLoginIPHost          byte = 14
	AttrLoginService         byte = 15
	AttrLoginTCPPort         byte = 16
	AttrReplyMessage         byte = 18
	AttrCallbackNumber       byte = 19
	AttrCallbackID           byte = 20
	AttrFramedRoute          byte = 22
	AttrFramedIPXNetwork     byte = 23
	AttrState                byte = 24
	AttrClass                byte = 25
	AttrVendorSpecific       byte = 26
	AttrSessionTimeout       byte = 27
	AttrIdleTimeout          byte = 28
	AttrTerminationAction    byte = 29
	AttrCalledStationID      byte = 30
	AttrCallingStationID     byte = 31
	AttrNASIdentifier        byte = 32
	AttrProxyState           byte = 33
	AttrLoginLATService      byte = 34
	AttrLoginLATNode         byte = 35
	AttrLoginLATGroup        byte = 36
	AttrFramedAppleTalkLink  byte = 37
	AttrFramedAppleTalkNet   byte = 38
	AttrFramedAppleTalkZone  byte = 39
	AttrEventTimestamp       byte = 55
	AttrCHAPChallenge        byte = 60
	AttrNASPortType          byte = 61
	AttrPortLimit            byte = 62
	AttrLoginLATPort         byte = 63
	AttrEAPMessage           byte = 79
	AttrMessageAuthenticator byte = 80
)

// VendorMicrosoft is the Microsoft SMI enterprise code used by the
// MS-CHAP vendor attributes (RFC 2548).
const VendorMicrosoft uint32 = 311

// Microsoft vendor sub-attribute types used by MS-CHAP.
const (
	MSCHAPResponse  byte = 1
	MSCHAPChallenge byte = 11
)

// ServiceType values (RFC 2865 section 5.6).
const (
	ServiceTypeLogin  uint32 = 1
	ServiceTypeFramed uint32 = 2
)

type attrInfo struct {
	name   string
	format Format
}

var dictionary = map[byte]attrInfo{
	AttrUserName:             {"User-Name", FormatText},
	AttrUserPassword:         {"User-Password", FormatString},
	AttrCHAPPassword:         {"CHAP-Password", FormatString},
	AttrNASIPAddress:         {"NAS-IP-Address", FormatAddress},
	AttrNASPort:              {"NAS-Port", FormatInteger},
	AttrServiceType:          {"Service-Type", FormatInteger},
	AttrFramedProtocol:       {"Framed-Protocol", FormatInteger},
	AttrFramedIPAddress:      {"Framed-IP-Address", FormatAddress},
	AttrFramedIPNetmask:      {"Framed-IP-Netmask", FormatAddress},
	AttrFramedRouting:        {"Framed-Routing", FormatInteger},
	AttrFilterID:             {"Filter-Id", FormatText},
	AttrFramedMTU:            {"Framed-MTU", FormatInteger},
	AttrFramedCompression:    {"Framed-Compression", FormatInteger},
	AttrLoginIPHost:          {"Login-IP-Host", FormatAddress},
	AttrLoginService:         {"Login-Service", FormatInteger},
	AttrLoginTCPPort:         {"Login-TCP-Port", FormatInteger},
	AttrReplyMessage:         {"Reply-Message", FormatText},
	AttrCallbackNumber:       {"Callback-Number", FormatString},
	AttrCallbackID:           {"Callback-Id", FormatString},
	AttrFramedRoute:          {"Framed-Route", FormatText},
	AttrFramedIPXNetwork:     {"Framed-IPX-Network", FormatInteger},
	AttrState:                {"State", FormatString},
	AttrClass:                {"Class", FormatString},
	AttrVendorSpecific:       {"Vendor-Specific", FormatString},
	AttrSessionTimeout:       {"Session-Timeout", FormatInteger},
	AttrIdleTimeout:          {"Idle-Timeout", FormatInteger},
	AttrTerminationAction:    {"Termination-Action", FormatInteger},
	AttrCalledStationID:      {"Called-Station-Id", FormatString},
	AttrCallingStationID:     {"Calling-Station-Id", FormatString},
	AttrNASIdentifier:        {"NAS-Identifier", FormatString},
	AttrProxyState:           {"Proxy-State", FormatString},
	AttrLoginLATService:      {"Login-LAT-Service", FormatString},
	AttrLoginLATNode:         {"Login-LAT-Node", FormatString},
	AttrLoginLATGroup:        {"Login-LAT-Group", FormatString},
	AttrFramedAppleTalkLink:  {"Framed-AppleTalk-Link", FormatInteger},
	AttrFramedAppleTalkNet:   {"Framed-AppleTalk-Network", FormatInteger},
	AttrFramedAppleTalkZone:  {"Framed-AppleTalk-Zone", FormatString},
	AttrCHAPChallenge:        {"CHAP-Challenge", FormatString},
	AttrNASPortType:          {"NAS-Port-Type", FormatInteger},
	AttrPortLimit:            {"Port-Limit", FormatInteger},
	AttrLoginLATPort:         {"Login-LAT-Port", FormatString},
	AttrEventTimestamp:       {"Event-Timestamp", FormatTime},
	AttrEAPMessage:           {"EAP-Message", FormatString},
	AttrMessageAuthenticator: {"Message-Authenticator", FormatString},
}

// AttributeName returns the dictionary name for an attribute type.
func AttributeName(t byte) string {
	if info, ok := dictionary[t]; ok {
		return info.name
	}
	return "Attribute(" + strconv.Itoa(int(t)) + ")"
}

// AttributeFormat reports the wire format of a known attribute type.
func AttributeFormat(t byte) (Format, bool) {
	info, ok := dictionary[t]
	return info.format, ok
}

// IsMultiValued reports whether an attribute type may appear more than
// once in a packet. Vendor-Specific and EAP-Message append; everything
// else replaces on re-set.
func IsMultiValued(t byte) bool {
	return t == AttrVendorSpecific || t == AttrEAPMessage
}
