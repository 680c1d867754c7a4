package client

import (
	"crypto/rand"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/seed4me/radclient/pkg/eap"
	"github.com/seed4me/radclient/pkg/radius"
)

// AuthenticatePAP runs a single Access-Request with an obfuscated
// User-Password. Service-Type and State may be attached via
// SetAttribute beforehand.
func (c *Client) AuthenticatePAP(username, password string) bool {
	c.begin()

	t, err := c.newTransaction(radius.CodeAccessRequest)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	cipher, err := radius.EncryptUserPassword([]byte(password), c.secret, t.requestAuth)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}
	t.request.Set(radius.NewTextAttribute(radius.AttrUserName, c.qualifiedUsername(username)))
	t.request.Set(radius.NewStringAttribute(radius.AttrUserPassword, cipher))

	if !c.exchange(t) {
		return false
	}
	return c.verdict(t)
}

// AuthenticateCHAP runs a single Access-Request with a CHAP-Password.
// The Request-Authenticator doubles as the CHAP challenge.
func (c *Client) AuthenticateCHAP(username, password string) bool {
	c.begin()

	t, err := c.newTransaction(radius.CodeAccessRequest)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	chapID := t.request.Identifier
	t.request.Set(radius.NewTextAttribute(radius.AttrUserName, c.qualifiedUsername(username)))
	t.request.Set(radius.NewStringAttribute(radius.AttrCHAPPassword,
		radius.CHAPPassword(chapID, []byte(password), t.requestAuth[:])))

	if !c.exchange(t) {
		return false
	}
	return c.verdict(t)
}

// AuthenticateMSCHAP runs the MS-CHAP v1 flow: an 8-octet challenge in
// vendor attribute 11 and the NT response in vendor attribute 1, with
// a Message-Authenticator on the request.
func (c *Client) AuthenticateMSCHAP(username, password string) bool {
	c.begin()

	t, err := c.newTransaction(radius.CodeAccessRequest)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	var challenge [8]byte
	if _, err := rand.Read(challenge[:]); err != nil {
		return c.fail(ErrCodeBadArgument, fmt.Sprintf("generating challenge: %v", err))
	}
	ntResponse, err := eap.NTResponseV1(challenge, password)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	// Response layout: flags 00 01, empty LM response, NT response.
	response := make([]byte, 2+24+24)
	response[1] = 0x01
	copy(response[26:], ntResponse[:])

	challengeAttr, err := radius.NewVendorAttribute(radius.VendorMicrosoft, radius.MSCHAPChallenge, challenge[:])
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}
	responseAttr, err := radius.NewVendorAttribute(radius.VendorMicrosoft, radius.MSCHAPResponse, response)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	t.request.Set(radius.NewTextAttribute(radius.AttrUserName, c.qualifiedUsername(username)))
	t.request.Add(challengeAttr)
	t.request.Add(responseAttr)
	t.request.Set(radius.NewStringAttribute(radius.AttrMessageAuthenticator, make([]byte, 16)))

	if !c.exchange(t) {
		return false
	}
	return c.verdict(t)
}

// verdict maps a terminal response to the boolean outcome.
func (c *Client) verdict(t *transaction) bool {
	switch t.response.Code {
	case radius.CodeAccessAccept:
		c.log.WithFields(logrus.Fields{"server": c.host}).Info("access accepted")
		return true
	case radius.CodeAccessReject:
		if a, ok := t.response.Get(radius.AttrReplyMessage); ok {
			return c.fail(ErrCodeRejected, a.Text())
		}
		return c.fail(ErrCodeRejected, "Access rejected")
	default:
		return c.fail(ErrCodeInvalidResponse,
			fmt.Sprintf("unexpected response code %s", t.response.Code))
	}
}
