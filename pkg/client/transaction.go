package client

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/seed4me/radclient/pkg/radius"
)

// transaction is the mutable state of one request/response exchange.
// The EAP flows create a fresh transaction per round; the State
// attribute and challenge material are threaded through explicitly by
// the session code.
type transaction struct {
	request     *radius.Packet
	requestAuth [16]byte
	response    *radius.Packet
}

// newTransaction assigns the next identifier, draws a fresh
// Request-Authenticator and applies the client's default attributes.
func (c *Client) newTransaction(code radius.Code) (*transaction, error) {
	auth, err := radius.NewRequestAuthenticator()
	if err != nil {
		return nil, err
	}

	p := radius.New(code, c.nextIdentifier())
	p.Authenticator = auth

	if c.nasIP != "" {
		ip := net.ParseIP(c.nasIP)
		if ip == nil {
			return nil, fmt.Errorf("client: bad NAS-IP-Address %q", c.nasIP)
		}
		a, err := radius.NewAddressAttribute(radius.AttrNASIPAddress, ip)
		if err != nil {
			return nil, err
		}
		p.Set(a)
	}
	if c.nasPort != 0 {
		p.Set(radius.NewIntegerAttribute(radius.AttrNASPort, c.nasPort))
	}
	for _, a := range c.defaultAttributes {
		p.Set(a)
	}

	return &transaction{request: p, requestAuth: auth}, nil
}

// setEAPMessage attaches an EAP payload, splitting anything over the
// attribute value limit across consecutive EAP-Message attributes.
func (t *transaction) setEAPMessage(payload []byte) {
	t.request.Remove(radius.AttrEAPMessage)
	for len(payload) > radius.MaxAttributeValueLength {
		t.request.Add(radius.NewStringAttribute(radius.AttrEAPMessage, payload[:radius.MaxAttributeValueLength]))
		payload = payload[radius.MaxAttributeValueLength:]
	}
	t.request.Add(radius.NewStringAttribute(radius.AttrEAPMessage, payload))
}

// eapMessage concatenates the response's EAP-Message attributes in
// packet order.
func (t *transaction) eapMessage() []byte {
	var out []byte
	for _, a := range t.response.GetAll(radius.AttrEAPMessage) {
		out = append(out, a.Value...)
	}
	return out
}

// state returns the response's State attribute value, nil when absent.
func (t *transaction) state() []byte {
	if a, ok := t.response.Get(radius.AttrState); ok {
		return a.Value
	}
	return nil
}

// exchange sends the request and receives, parses and authenticates
// the response. On failure the client's sticky error is set and false
// is returned.
func (c *Client) exchange(t *transaction) bool {
	if c.includeMessageAuthenticator {
		if _, ok := t.request.Get(radius.AttrMessageAuthenticator); !ok {
			t.request.Set(radius.NewStringAttribute(radius.AttrMessageAuthenticator, make([]byte, 16)))
		}
	}

	wire, err := t.request.EncodeRequest(c.secret)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	c.log.WithFields(logrus.Fields{
		"server":     c.host,
		"code":       t.request.Code.String(),
		"identifier": t.request.Identifier,
		"octets":     len(wire),
	}).Debug("sending request")

	respWire, cerr := c.exchangeWire(wire)
	if cerr != nil {
		return c.fail(cerr.Code, cerr.Message)
	}

	resp, err := radius.Parse(respWire)
	if err != nil {
		return c.fail(ErrCodeInvalidResponse, err.Error())
	}
	if resp.Identifier != t.request.Identifier {
		return c.fail(ErrCodeInvalidResponse,
			fmt.Sprintf("response identifier %d does not match request %d", resp.Identifier, t.request.Identifier))
	}
	if !radius.VerifyResponseAuthenticator(respWire, t.requestAuth, c.secret) {
		return c.fail(ErrCodeAuthenticatorMismatch, "response authenticator mismatch")
	}

	t.response = resp
	c.receivedCode = resp.Code
	c.receivedAttr = resp.Attributes

	c.log.WithFields(logrus.Fields{
		"server":     c.host,
		"code":       resp.Code.String(),
		"identifier": resp.Identifier,
		"attributes": len(resp.Attributes),
	}).Debug("received response")
	return true
}
