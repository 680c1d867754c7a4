package client

import (
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seed4me/radclient/pkg/radius"
)

// DefaultTimeout bounds one request/response exchange, wall-clock
// across partial reads.
const DefaultTimeout = 5 * time.Second

// Client authenticates users against a RADIUS server. A Client is
// reusable across calls but not safe for concurrent use; run one
// Client per in-flight authentication.
type Client struct {
	host     string
	secret   []byte
	authPort int
	acctPort int
	timeout  time.Duration
	suffix   string

	nasIP   string
	nasPort uint32

	includeMessageAuthenticator bool
	defaultAttributes           []radius.Attribute

	identifier byte
	log        *logrus.Logger

	lastError    Error
	receivedCode radius.Code
	receivedAttr []radius.Attribute
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAuthPort overrides the authentication UDP port.
func WithAuthPort(port int) Option {
	return func(c *Client) { c.authPort = port }
}

// WithAcctPort overrides the accounting UDP port.
func WithAcctPort(port int) Option {
	return func(c *Client) { c.acctPort = port }
}

// WithSuffix sets the username suffix appended to usernames that do
// not already carry a domain.
func WithSuffix(suffix string) Option {
	return func(c *Client) { c.suffix = suffix }
}

// WithLogger routes the client's structured logs to the given logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a Client for one server and shared secret.
func New(server, secret string, opts ...Option) *Client {
	c := &Client{
		host:     server,
		secret:   []byte(secret),
		authPort: radius.DefaultAuthPort,
		acctPort: radius.DefaultAcctPort,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.New()
		c.log.SetOutput(io.Discard)
	}
	return c
}

// SetServer switches the target host without resetting counters.
func (c *Client) SetServer(host string) { c.host = host }

// SetTimeout changes the per-exchange timeout.
func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// SetSuffix changes the username suffix.
func (c *Client) SetSuffix(suffix string) { c.suffix = suffix }

// SetNASIPAddress sets the NAS-IP-Address attached to every request.
func (c *Client) SetNASIPAddress(ip string) { c.nasIP = ip }

// SetNASPort sets the NAS-Port attached to every request.
func (c *Client) SetNASPort(port uint32) { c.nasPort = port }

// SetIncludeMessageAuthenticator forces a Message-Authenticator on
// every request, not only EAP-bearing ones.
func (c *Client) SetIncludeMessageAuthenticator(on bool) {
	c.includeMessageAuthenticator = on
}

// SetAttribute stores a default attribute attached to every request.
// Single-valued types replace an earlier default of the same type.
func (c *Client) SetAttribute(a radius.Attribute) {
	if !radius.IsMultiValued(a.Type) {
		for i := range c.defaultAttributes {
			if c.defaultAttributes[i].Type == a.Type {
				c.defaultAttributes[i] = a
				return
			}
		}
	}
	c.defaultAttributes = append(c.defaultAttributes, a)
}

// SetVendorAttribute stores a default Vendor-Specific attribute.
func (c *Client) SetVendorAttribute(vendorID uint32, vendorType byte, data []byte) error {
	a, err := radius.NewVendorAttribute(vendorID, vendorType, data)
	if err != nil {
		return err
	}
	c.defaultAttributes = append(c.defaultAttributes, a)
	return nil
}

// LastErrorCode reports the code of the last failure, 0 when the last
// operation succeeded.
func (c *Client) LastErrorCode() int { return c.lastError.Code }

// LastErrorMessage reports the message of the last failure.
func (c *Client) LastErrorMessage() string { return c.lastError.Message }

// ReceivedCode is the packet code of the last response received.
func (c *Client) ReceivedCode() radius.Code { return c.receivedCode }

// ReceivedAttributes returns the attributes of the last response in
// packet order.
func (c *Client) ReceivedAttributes() []radius.Attribute { return c.receivedAttr }

// qualifiedUsername applies the suffix rule: usernames already
// carrying '@' pass through unchanged.
func (c *Client) qualifiedUsername(username string) string {
	if c.suffix == "" || strings.Contains(username, "@") {
		return username
	}
	return username + c.suffix
}

// nextIdentifier hands out packet identifiers, wrapping mod 256.
func (c *Client) nextIdentifier() byte {
	id := c.identifier
	c.identifier++
	return id
}

// begin clears sticky error state at the start of an operation.
func (c *Client) begin() {
	c.lastError = Error{}
	c.receivedCode = 0
	c.receivedAttr = nil
}

// fail records the failure and returns false for the caller to pass
// through.
func (c *Client) fail(code int, message string) bool {
	c.lastError = Error{Code: code, Message: message}
	c.log.WithFields(logrus.Fields{
		"server": c.host,
		"code":   code,
	}).Debug(message)
	return false
}
