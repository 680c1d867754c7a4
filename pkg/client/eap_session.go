package client

import (
	"fmt"

	"github.com/seed4me/radclient/pkg/eap"
	"github.com/seed4me/radclient/pkg/radius"
)

// maxEAPRounds bounds the challenge loop so a misbehaving server
// cannot hold the client in an endless exchange.
const maxEAPRounds = 10

// AuthenticateEAPMSCHAPv2 runs the EAP-MS-CHAP-v2 exchange: identity,
// challenge/response, success acknowledgement, final Access-Accept.
// A PEAP proposal is NAKed back to MS-CHAP-v2 once; an MD5-Challenge
// proposal falls back to plain CHAP.
func (c *Client) AuthenticateEAPMSCHAPv2(username, password string) bool {
	c.begin()
	return c.runEAP(c.qualifiedUsername(username), password, "", false)
}

// ChangePasswordEAPMSCHAPv2 authenticates with the old password and,
// on a password-expired failure (E=648), runs the RFC 2759
// change-password sub-flow with the new one.
func (c *Client) ChangePasswordEAPMSCHAPv2(username, oldPassword, newPassword string) bool {
	c.begin()
	if newPassword == "" {
		return c.fail(ErrCodeBadArgument, "new password must not be empty")
	}
	return c.runEAP(c.qualifiedUsername(username), oldPassword, newPassword, true)
}

// eapSession is the state threaded across challenge rounds: the State
// attribute echo and the challenge material needed to verify the
// server's authenticator response.
type eapSession struct {
	state         []byte
	authChallenge [16]byte
	peerChallenge [16]byte
	ntResponse    [24]byte
	nakSent       bool
}

func (c *Client) runEAP(username, password, newPassword string, changePassword bool) bool {
	var s eapSession

	t, ok := c.sendEAP(username, eap.NewIdentityResponse(0, username).Encode(), &s)
	if !ok {
		return false
	}

	for round := 0; round < maxEAPRounds; round++ {
		switch t.response.Code {
		case radius.CodeAccessAccept:
			return c.verdict(t)
		case radius.CodeAccessReject:
			return c.verdict(t)
		case radius.CodeAccessChallenge:
		default:
			return c.fail(ErrCodeInvalidResponse,
				fmt.Sprintf("unexpected response code %s", t.response.Code))
		}

		raw := t.eapMessage()
		if len(raw) == 0 {
			return c.fail(ErrCodeProtocol, "Access-Challenge carries no EAP-Message")
		}
		req, err := eap.Parse(raw)
		if err != nil {
			return c.fail(ErrCodeProtocol, err.Error())
		}
		if req.Code != eap.CodeRequest {
			return c.fail(ErrCodeProtocol,
				fmt.Sprintf("expected EAP Request, got %s", req.Code))
		}

		var payload []byte
		switch req.Type {
		case eap.TypeIdentity:
			payload = eap.NewIdentityResponse(req.Identifier, username).Encode()

		case eap.TypeMD5Challenge:
			return c.finishCHAP(username, password, s.state)

		case eap.TypePEAP:
			if s.nakSent {
				return c.fail(ErrCodeProtocol, "server re-proposed PEAP after NAK")
			}
			s.nakSent = true
			payload = eap.NewLegacyNAK(req.Identifier, eap.TypeMSCHAPv2).Encode()

		case eap.TypeMSCHAPv2:
			payload, ok = c.handleMSCHAPv2(req, &s, username, password, newPassword, changePassword)
			if !ok {
				return false
			}

		default:
			return c.fail(ErrCodeProtocol,
				fmt.Sprintf("server proposed unsupported EAP method %s", req.Type))
		}

		t, ok = c.sendEAP(username, payload, &s)
		if !ok {
			return false
		}
	}
	return c.fail(ErrCodeProtocol, "EAP exchange did not converge")
}

// handleMSCHAPv2 turns one MS-CHAP-v2 request into the next EAP
// payload, or fails the session.
func (c *Client) handleMSCHAPv2(req *eap.Packet, s *eapSession, username, password, newPassword string, changePassword bool) ([]byte, bool) {
	sub, err := eap.ParseMSCHAPv2(req.Data)
	if err != nil {
		return nil, c.fail(ErrCodeProtocol, err.Error())
	}

	switch sub.OpCode {
	case eap.OpChallenge:
		copy(s.authChallenge[:], sub.Value)
		peer, err := eap.NewPeerChallenge()
		if err != nil {
			return nil, c.fail(ErrCodeProtocol, err.Error())
		}
		nt, err := eap.GenerateNTResponse(s.authChallenge, peer, username, password)
		if err != nil {
			return nil, c.fail(ErrCodeBadArgument, err.Error())
		}
		s.peerChallenge = peer
		s.ntResponse = nt

		data := eap.EncodeChallengeResponse(sub.ID, peer, nt, username)
		wrap := &eap.Packet{Code: eap.CodeResponse, Identifier: req.Identifier, Type: eap.TypeMSCHAPv2, Data: data}
		return wrap.Encode(), true

	case eap.OpSuccess:
		ok, err := eap.VerifyAuthenticatorResponse(password, s.ntResponse, s.peerChallenge, s.authChallenge, username, sub.Message)
		if err != nil {
			return nil, c.fail(ErrCodeBadArgument, err.Error())
		}
		if !ok {
			return nil, c.fail(ErrCodeProtocol, "server authenticator response mismatch")
		}
		return eap.NewSuccess(sub.ID + 1).Encode(), true

	case eap.OpFailure:
		f, err := eap.ParseFailure(sub.Message)
		if err != nil {
			return nil, c.fail(ErrCodeProtocol, err.Error())
		}
		if f.Code == eap.FailurePasswordExpired && changePassword {
			return c.buildChangePassword(req, sub, f, s, username, password, newPassword)
		}
		return nil, c.fail(ErrCodeRejected, mschapFailureMessage(f.Code))

	default:
		return nil, c.fail(ErrCodeProtocol,
			fmt.Sprintf("unexpected MS-CHAP-v2 opcode %s", sub.OpCode))
	}
}

// buildChangePassword assembles the opcode-7 response against the
// challenge the Failure packet carried. The NT response covers the old
// password; the new one travels only inside the encrypted block.
func (c *Client) buildChangePassword(req *eap.Packet, sub *eap.MSCHAPv2, f *eap.Failure, s *eapSession, username, oldPassword, newPassword string) ([]byte, bool) {
	if len(f.Challenge) != 16 {
		return nil, c.fail(ErrCodeProtocol,
			fmt.Sprintf("password-expired failure carries %d challenge octets, want 16", len(f.Challenge)))
	}
	copy(s.authChallenge[:], f.Challenge)

	oldHash, err := eap.NtPasswordHash(oldPassword)
	if err != nil {
		return nil, c.fail(ErrCodeBadArgument, err.Error())
	}
	newHash, err := eap.NtPasswordHash(newPassword)
	if err != nil {
		return nil, c.fail(ErrCodeBadArgument, err.Error())
	}

	encryptedPassword, err := eap.EncryptPwBlockWithPasswordHash(newPassword, oldHash)
	if err != nil {
		return nil, c.fail(ErrCodeBadArgument, err.Error())
	}
	encryptedHash, err := eap.OldNtPasswordHashEncryptedWithNewNtPasswordHash(oldHash, newHash)
	if err != nil {
		return nil, c.fail(ErrCodeBadArgument, err.Error())
	}

	peer, err := eap.NewPeerChallenge()
	if err != nil {
		return nil, c.fail(ErrCodeProtocol, err.Error())
	}
	nt, err := eap.GenerateNTResponse(s.authChallenge, peer, username, oldPassword)
	if err != nil {
		return nil, c.fail(ErrCodeBadArgument, err.Error())
	}
	s.peerChallenge = peer
	s.ntResponse = nt

	data := eap.EncodeChangePassword(sub.ID, encryptedPassword, encryptedHash, peer, nt)
	wrap := &eap.Packet{Code: eap.CodeResponse, Identifier: req.Identifier, Type: eap.TypeMSCHAPv2, Data: data}
	return wrap.Encode(), true
}

// sendEAP wraps an EAP payload in an Access-Request with User-Name,
// Message-Authenticator and the echoed State, sends it, and refreshes
// the session's State from the response.
func (c *Client) sendEAP(username string, payload []byte, s *eapSession) (*transaction, bool) {
	t, err := c.newTransaction(radius.CodeAccessRequest)
	if err != nil {
		return nil, c.fail(ErrCodeBadArgument, err.Error())
	}
	t.request.Set(radius.NewTextAttribute(radius.AttrUserName, username))
	t.setEAPMessage(payload)
	if s.state != nil {
		t.request.Set(radius.NewStringAttribute(radius.AttrState, s.state))
	}
	t.request.Set(radius.NewStringAttribute(radius.AttrMessageAuthenticator, make([]byte, 16)))

	if !c.exchange(t) {
		return nil, false
	}
	if next := t.state(); next != nil {
		s.state = next
	}
	return t, true
}

// finishCHAP answers an EAP MD5-Challenge proposal by abandoning EAP
// and sending a plain CHAP-Password request, with the State echoed.
func (c *Client) finishCHAP(username, password string, state []byte) bool {
	t, err := c.newTransaction(radius.CodeAccessRequest)
	if err != nil {
		return c.fail(ErrCodeBadArgument, err.Error())
	}

	chapID := t.request.Identifier
	t.request.Set(radius.NewTextAttribute(radius.AttrUserName, username))
	t.request.Set(radius.NewStringAttribute(radius.AttrCHAPPassword,
		radius.CHAPPassword(chapID, []byte(password), t.requestAuth[:])))
	if state != nil {
		t.request.Set(radius.NewStringAttribute(radius.AttrState, state))
	}
	t.request.Set(radius.NewStringAttribute(radius.AttrMessageAuthenticator, make([]byte, 16)))

	if !c.exchange(t) {
		return false
	}
	return c.verdict(t)
}
