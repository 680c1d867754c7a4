package radius

import (
	"crypto/hmac"
	"crypto/md5"
	"fmt"
)

// MaxPasswordLength bounds the plaintext accepted by the RFC 2865
// section 5.2 User-Password cipher.
const MaxPasswordLength = 128

// EncryptUserPassword obfuscates a PAP password per RFC 2865 section
// 5.2. The plaintext is zero-padded to a 16-octet boundary; each block
// is XORed with MD5(secret || previous ciphertext block), seeded by
// the Request-Authenticator.
func EncryptUserPassword(password, secret []byte, requestAuth [16]byte) ([]byte, error) {
	if len(password) > MaxPasswordLength {
		return nil, fmt.Errorf("radius: password is %d octets, max %d", len(password), MaxPasswordLength)
	}

	padded := make([]byte, ((len(password)+15)/16)*16)
	if len(padded) == 0 {
		padded = make([]byte, 16)
	}
	copy(padded, password)

	out := make([]byte, len(padded))
	prev := requestAuth[:]
	for i := 0; i < len(padded); i += 16 {
		h := md5.New()
		h.Write(secret)
		h.Write(prev)
		digest := h.Sum(nil)
		for j := 0; j < 16; j++ {
			out[i+j] = padded[i+j] ^ digest[j]
		}
		prev = out[i : i+16]
	}
	return out, nil
}

// DecryptUserPassword reverses EncryptUserPassword and strips the
// trailing zero padding.
func DecryptUserPassword(cipher, secret []byte, requestAuth [16]byte) ([]byte, error) {
	if len(cipher) == 0 || len(cipher)%16 != 0 {
		return nil, fmt.Errorf("radius: ciphertext length %d is not a positive multiple of 16", len(cipher))
	}

	out := make([]byte, len(cipher))
	prev := requestAuth[:]
	for i := 0; i < len(cipher); i += 16 {
		h := md5.New()
		h.Write(secret)
		h.Write(prev)
		digest := h.Sum(nil)
		for j := 0; j < 16; j++ {
			out[i+j] = cipher[i+j] ^ digest[j]
		}
		prev = cipher[i : i+16]
	}

	end := len(out)
	for end > 0 && out[end-1] == 0 {
		end--
	}
	return out[:end], nil
}

// CHAPResponse computes the CHAP-MD5 response
// MD5(chapID || password || challenge). The Request-Authenticator
// doubles as the challenge when no CHAP-Challenge attribute is sent.
func CHAPResponse(chapID byte, password, challenge []byte) [16]byte {
	h := md5.New()
	h.Write([]byte{chapID})
	h.Write(password)
	h.Write(challenge)
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CHAPPassword assembles the CHAP-Password attribute value: the CHAP
// identifier octet followed by the 16-octet response.
func CHAPPassword(chapID byte, password, challenge []byte) []byte {
	response := CHAPResponse(chapID, password, challenge)
	out := make([]byte, 17)
	out[0] = chapID
	copy(out[1:], response[:])
	return out
}

// MessageAuthenticator computes the RFC 2869 Message-Authenticator:
// HMAC-MD5 keyed by the shared secret over the entire packet with the
// attribute value zeroed.
func MessageAuthenticator(wire, secret []byte) [16]byte {
	mac := hmac.New(md5.New, secret)
	mac.Write(wire)
	var out [16]byte
	copy(out[:], mac.Sum(nil))
	return out
}
