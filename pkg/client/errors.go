package client

import "fmt"

// Observable error codes. Operations return a boolean verdict; the
// code and message of the last failure stay readable until the next
// operation starts.
const (
	ErrCodeNone                  = 0
	ErrCodeSelect                = 2
	ErrCodeRejected              = 3
	ErrCodeTimeout               = 28
	ErrCodeSend                  = 55
	ErrCodeRecv                  = 56
	ErrCodeInvalidResponse       = 100
	ErrCodeAuthenticatorMismatch = 101
	ErrCodeProtocol              = 102
	ErrCodeBadArgument           = 127
)

// Error carries one observable failure.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("radius client: %s (code %d)", e.Message, e.Code)
}

// mschapFailureMessage maps an MS-CHAP-v2 E= failure code to the
// message reported to callers.
func mschapFailureMessage(code int) string {
	switch code {
	case 646:
		return "Restricted logon hours"
	case 647:
		return "Account disabled"
	case 648:
		return "Password expired"
	case 649:
		return "No dialin permission"
	case 691:
		return "Authentication failure, username or password incorrect."
	case 709:
		return "Error changing password"
	default:
		return fmt.Sprintf("MS-CHAP-v2 failure %d", code)
	}
}
