package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed4me/radclient/pkg/radius"
)

func TestQualifiedUsername(t *testing.T) {
	c := New("localhost", "xyzzy", WithSuffix(".example.org"))
	assert.Equal(t, "alice.example.org", c.qualifiedUsername("alice"))
	assert.Equal(t, "alice@corp", c.qualifiedUsername("alice@corp"))

	plain := New("localhost", "xyzzy")
	assert.Equal(t, "alice", plain.qualifiedUsername("alice"))
}

func TestNextIdentifierWraps(t *testing.T) {
	c := New("localhost", "xyzzy")
	c.identifier = 254
	assert.EqualValues(t, 254, c.nextIdentifier())
	assert.EqualValues(t, 255, c.nextIdentifier())
	assert.EqualValues(t, 0, c.nextIdentifier())
	assert.EqualValues(t, 1, c.nextIdentifier())
}

func TestOptionsApply(t *testing.T) {
	c := New("radius1", "xyzzy",
		WithTimeout(time.Second),
		WithAuthPort(18120),
		WithAcctPort(18130),
		WithSuffix("@realm"))
	assert.Equal(t, time.Second, c.timeout)
	assert.Equal(t, 18120, c.authPort)
	assert.Equal(t, 18130, c.acctPort)
	assert.Equal(t, "@realm", c.suffix)
}

func TestSetAttributeReplacesSingleValued(t *testing.T) {
	c := New("localhost", "xyzzy")
	c.SetAttribute(radius.NewIntegerAttribute(radius.AttrServiceType, radius.ServiceTypeLogin))
	c.SetAttribute(radius.NewIntegerAttribute(radius.AttrServiceType, radius.ServiceTypeFramed))
	require.Len(t, c.defaultAttributes, 1)

	v, err := c.defaultAttributes[0].Integer()
	require.NoError(t, err)
	assert.Equal(t, radius.ServiceTypeFramed, v)
}

func TestSetVendorAttribute(t *testing.T) {
	c := New("localhost", "xyzzy")
	require.NoError(t, c.SetVendorAttribute(radius.VendorMicrosoft, radius.MSCHAPChallenge, []byte{1, 2}))
	require.Len(t, c.defaultAttributes, 1)
	assert.EqualValues(t, radius.AttrVendorSpecific, c.defaultAttributes[0].Type)

	assert.Error(t, c.SetVendorAttribute(radius.VendorMicrosoft, 1, make([]byte, 300)))
}

func TestSetEAPMessageSplits(t *testing.T) {
	c := New("localhost", "xyzzy")
	tx, err := c.newTransaction(radius.CodeAccessRequest)
	require.NoError(t, err)

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	tx.setEAPMessage(payload)

	attrs := tx.request.GetAll(radius.AttrEAPMessage)
	require.Len(t, attrs, 3)
	assert.Len(t, attrs[0].Value, 253)
	assert.Len(t, attrs[1].Value, 253)
	assert.Len(t, attrs[2].Value, 94)

	var joined []byte
	for _, a := range attrs {
		joined = append(joined, a.Value...)
	}
	assert.Equal(t, payload, joined)
}

func TestSetEAPMessageReplacesPrevious(t *testing.T) {
	c := New("localhost", "xyzzy")
	tx, err := c.newTransaction(radius.CodeAccessRequest)
	require.NoError(t, err)

	tx.setEAPMessage(make([]byte, 600))
	tx.setEAPMessage([]byte{1, 2, 3})
	attrs := tx.request.GetAll(radius.AttrEAPMessage)
	require.Len(t, attrs, 1)
	assert.Equal(t, []byte{1, 2, 3}, attrs[0].Value)
}

func TestNewTransactionAppliesDefaults(t *testing.T) {
	c := New("localhost", "xyzzy")
	c.SetNASIPAddress("192.0.2.1")
	c.SetNASPort(20)

	tx, err := c.newTransaction(radius.CodeAccessRequest)
	require.NoError(t, err)

	a, ok := tx.request.Get(radius.AttrNASIPAddress)
	require.True(t, ok)
	ip, err := a.Address()
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", ip.String())

	port, ok := tx.request.Get(radius.AttrNASPort)
	require.True(t, ok)
	v, err := port.Integer()
	require.NoError(t, err)
	assert.EqualValues(t, 20, v)
}

func TestNewTransactionBadNASIP(t *testing.T) {
	c := New("localhost", "xyzzy")
	c.SetNASIPAddress("not-an-ip")
	_, err := c.newTransaction(radius.CodeAccessRequest)
	assert.Error(t, err)
}

func TestMSCHAPFailureMessages(t *testing.T) {
	assert.Equal(t, "Authentication failure, username or password incorrect.", mschapFailureMessage(691))
	assert.Equal(t, "Password expired", mschapFailureMessage(648))
	assert.Equal(t, "Account disabled", mschapFailureMessage(647))
	assert.Contains(t, mschapFailureMessage(999), "999")
}

func TestErrorString(t *testing.T) {
	e := &Error{Code: ErrCodeTimeout, Message: "no response"}
	assert.Contains(t, e.Error(), "no response")
	assert.Contains(t, e.Error(), "28")
}

func TestTryServersEmptyList(t *testing.T) {
	c := New("localhost", "xyzzy")
	assert.False(t, c.TryServers(nil, func() bool { return true }))
	assert.Equal(t, ErrCodeBadArgument, c.LastErrorCode())
}

func TestChangePasswordRequiresNewPassword(t *testing.T) {
	c := New("localhost", "xyzzy")
	assert.False(t, c.ChangePasswordEAPMSCHAPv2("alice", "old", ""))
	assert.Equal(t, ErrCodeBadArgument, c.LastErrorCode())
}
