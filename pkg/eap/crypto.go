package eap

import (
	"crypto/des"
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha1"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/md4"
	"golang.org/x/text/encoding/unicode"
)

// ChallengeHash derives the 8-octet challenge for the NT response
// (RFC 2759 section 8.2): the first 8 octets of
// SHA1(peerChallenge || authenticatorChallenge || username). The
// username is hashed as given; a domain prefix is not stripped.
func ChallengeHash(peerChallenge, authenticatorChallenge [16]byte, username string) [8]byte {
	h := sha1.New()
	h.Write(peerChallenge[:])
	h.Write(authenticatorChallenge[:])
	h.Write([]byte(username))
	var out [8]byte
	copy(out[:], h.Sum(nil))
	return out
}

// NtPasswordHash is the MD4 digest of the password encoded as UTF-16LE
// (RFC 2759 section 8.3).
func NtPasswordHash(password string) ([16]byte, error) {
	var out [16]byte
	encoded, err := utf16LE(password)
	if err != nil {
		return out, err
	}
	h := md4.New()
	h.Write(encoded)
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashNtPasswordHash applies MD4 once more to a password hash
// (RFC 2759 section 8.4), producing the key material for the
// authenticator response.
func HashNtPasswordHash(hash [16]byte) [16]byte {
	h := md4.New()
	h.Write(hash[:])
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ChallengeResponse encrypts the 8-octet challenge under the password
// hash (RFC 2759 section 8.5): the hash is zero-padded to 21 octets and
// split into three 7-octet DES keys, each encrypting the challenge into
// one third of the 24-octet response.
func ChallengeResponse(challenge [8]byte, passwordHash [16]byte) ([24]byte, error) {
	var padded [21]byte
	copy(padded[:], passwordHash[:])

	var out [24]byte
	for i := 0; i < 3; i++ {
		block, err := desEncrypt(padded[i*7:i*7+7], challenge[:])
		if err != nil {
			return out, err
		}
		copy(out[i*8:], block)
	}
	return out, nil
}

// GenerateNTResponse computes the 24-octet NT response for an
// MS-CHAP v2 exchange (RFC 2759 section 8.1).
func GenerateNTResponse(authenticatorChallenge, peerChallenge [16]byte, username, password string) ([24]byte, error) {
	challenge := ChallengeHash(peerChallenge, authenticatorChallenge, username)
	hash, err := NtPasswordHash(password)
	if err != nil {
		return [24]byte{}, err
	}
	return ChallengeResponse(challenge, hash)
}

// NTResponseV1 computes the 24-octet MS-CHAP v1 NT response
// (RFC 2433 section A.5): DES over the 8-octet challenge with the
// password hash as key material.
func NTResponseV1(challenge [8]byte, password string) ([24]byte, error) {
	hash, err := NtPasswordHash(password)
	if err != nil {
		return [24]byte{}, err
	}
	return ChallengeResponse(challenge, hash)
}

// NewPeerChallenge draws 16 octets from the system CSPRNG.
func NewPeerChallenge() ([16]byte, error) {
	var out [16]byte
	if _, err := rand.Read(out[:]); err != nil {
		return out, fmt.Errorf("eap: generating peer challenge: %w", err)
	}
	return out, nil
}

var authenticatorResponseMagic1 = []byte{
	0x4D, 0x61, 0x67, 0x69, 0x63, 0x20, 0x73, 0x65, 0x72, 0x76,
	0x65, 0x72, 0x20, 0x74, 0x6F, 0x20, 0x63, 0x6C, 0x69, 0x65,
	0x6E, 0x74, 0x20, 0x73, 0x69, 0x67, 0x6E, 0x69, 0x6E, 0x67,
	0x20, 0x63, 0x6F, 0x6E, 0x73, 0x74, 0x61, 0x6E, 0x74,
}

var authenticatorResponseMagic2 = []byte{
	0x50, 0x61, 0x64, 0x20, 0x74, 0x6F, 0x20, 0x6D, 0x61, 0x6B,
	0x65, 0x20, 0x69, 0x74, 0x20, 0x64, 0x6F, 0x20, 0x6D, 0x6F,
	0x72, 0x65, 0x20, 0x74, 0x68, 0x61, 0x6E, 0x20, 0x6F, 0x6E,
	0x65, 0x20, 0x69, 0x74, 0x65, 0x72, 0x61, 0x74, 0x69, 0x6F,
	0x6E,
}

// GenerateAuthenticatorResponse computes the expected "S=<40 hex>"
// authenticator response string the server must present in its Success
// packet (RFC 2759 section 8.7).
func GenerateAuthenticatorResponse(password string, ntResponse [24]byte, peerChallenge, authenticatorChallenge [16]byte, username string) (string, error) {
	hash, err := NtPasswordHash(password)
	if err != nil {
		return "", err
	}
	hashHash := HashNtPasswordHash(hash)

	h := sha1.New()
	h.Write(hashHash[:])
	h.Write(ntResponse[:])
	h.Write(authenticatorResponseMagic1)
	digest := h.Sum(nil)

	challenge := ChallengeHash(peerChallenge, authenticatorChallenge, username)

	h = sha1.New()
	h.Write(digest)
	h.Write(challenge[:])
	h.Write(authenticatorResponseMagic2)
	return fmt.Sprintf("S=%X", h.Sum(nil)), nil
}

// VerifyAuthenticatorResponse checks the server's Success payload
// against the locally computed response (RFC 2759 section 8.8). The
// payload may carry trailing " M=<message>" text after the 42-octet
// S= field.
func VerifyAuthenticatorResponse(password string, ntResponse [24]byte, peerChallenge, authenticatorChallenge [16]byte, username, received string) (bool, error) {
	expected, err := GenerateAuthenticatorResponse(password, ntResponse, peerChallenge, authenticatorChallenge, username)
	if err != nil {
		return false, err
	}
	if len(received) < len(expected) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(received[:len(expected)]), []byte(expected)) == 1, nil
}

// EncryptPwBlockWithPasswordHash builds the 516-octet encrypted
// password block for a change-password exchange (RFC 2759 sections 8.9
// and 8.10): the UTF-16LE new password sits at the end of a 512-octet
// clear block, preceded by random fill, followed by its octet length as
// a 32-bit little-endian integer; the whole block is RC4-encrypted
// under the old password hash.
func EncryptPwBlockWithPasswordHash(newPassword string, oldPasswordHash [16]byte) ([516]byte, error) {
	var out [516]byte

	encoded, err := utf16LE(newPassword)
	if err != nil {
		return out, err
	}
	if len(encoded) > 512 {
		return out, fmt.Errorf("eap: new password is %d UTF-16 octets, max 512", len(encoded))
	}

	var clear [516]byte
	if _, err := rand.Read(clear[:512-len(encoded)]); err != nil {
		return out, fmt.Errorf("eap: generating password block fill: %w", err)
	}
	copy(clear[512-len(encoded):], encoded)
	n := uint32(len(encoded))
	clear[512] = byte(n)
	clear[513] = byte(n >> 8)
	clear[514] = byte(n >> 16)
	clear[515] = byte(n >> 24)

	cipher, err := rc4.NewCipher(oldPasswordHash[:])
	if err != nil {
		return out, fmt.Errorf("eap: rc4 key setup: %w", err)
	}
	cipher.XORKeyStream(out[:], clear[:])
	return out, nil
}

// OldNtPasswordHashEncryptedWithNewNtPasswordHash encrypts the old
// password hash under the new one (RFC 2759 section 8.12): each
// 8-octet half of the old hash is DES-encrypted with the corresponding
// 7-octet half of the new hash as key.
func OldNtPasswordHashEncryptedWithNewNtPasswordHash(oldHash, newHash [16]byte) ([16]byte, error) {
	var out [16]byte
	for i := 0; i < 2; i++ {
		block, err := desEncrypt(newHash[i*7:i*7+7], oldHash[i*8:i*8+8])
		if err != nil {
			return out, err
		}
		copy(out[i*8:], block)
	}
	return out, nil
}

// desEncrypt runs single-block DES with a 7-octet key expanded to 8
// octets by inserting parity bits (RFC 2759 section 8.6).
func desEncrypt(key7, block []byte) ([]byte, error) {
	cipher, err := des.NewCipher(expandDESKey(key7))
	if err != nil {
		return nil, fmt.Errorf("eap: des key setup: %w", err)
	}
	out := make([]byte, 8)
	cipher.Encrypt(out, block)
	return out, nil
}

// expandDESKey spreads 56 key bits across 8 octets, leaving the low
// bit of each octet for parity.
func expandDESKey(key7 []byte) []byte {
	key := make([]byte, 8)
	key[0] = key7[0] >> 1
	key[1] = key7[0]<<6 | key7[1]>>2
	key[2] = key7[1]<<5 | key7[2]>>3
	key[3] = key7[2]<<4 | key7[3]>>4
	key[4] = key7[3]<<3 | key7[4]>>5
	key[5] = key7[4]<<2 | key7[5]>>6
	key[6] = key7[5]<<1 | key7[6]>>7
	key[7] = key7[6]
	for i := range key {
		key[i] <<= 1
	}
	return key
}

func utf16LE(s string) ([]byte, error) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("eap: encoding password as UTF-16: %w", err)
	}
	return encoded, nil
}
