package client

import "github.com/sirupsen/logrus"

// TryServers runs attempt against each server in order, sharing the
// client's secret and configuration. An Access-Accept stops with
// success; an Access-Reject stops with the rejection preserved; any
// other failure moves on to the next server. The original server is
// restored before returning.
func (c *Client) TryServers(servers []string, attempt func() bool) bool {
	if len(servers) == 0 {
		return c.fail(ErrCodeBadArgument, "empty server list")
	}

	original := c.host
	defer func() { c.host = original }()

	for _, server := range servers {
		c.host = server
		if attempt() {
			return true
		}
		if c.lastError.Code == ErrCodeRejected {
			return false
		}
		c.log.WithFields(logrus.Fields{
			"server": server,
			"code":   c.lastError.Code,
		}).Warn("server failed, trying next")
	}

	if c.lastError.Code == ErrCodeNone {
		return c.fail(ErrCodeSelect, "no server in the list produced a verdict")
	}
	return false
}

// AuthenticatePAPList tries a PAP authentication against each server
// in order.
func (c *Client) AuthenticatePAPList(servers []string, username, password string) bool {
	return c.TryServers(servers, func() bool {
		return c.AuthenticatePAP(username, password)
	})
}

// AuthenticateEAPMSCHAPv2List tries the EAP-MS-CHAP-v2 flow against
// each server in order.
func (c *Client) AuthenticateEAPMSCHAPv2List(servers []string, username, password string) bool {
	return c.TryServers(servers, func() bool {
		return c.AuthenticateEAPMSCHAPv2(username, password)
	})
}
