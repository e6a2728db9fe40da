package crypt

import (
	"crypto/md5"
	"crypto/rc4"
)

// RC4Encrypt encrypts data using RC4. A new cipher is created for every
// call; no keystream state survives between calls.
func RC4Encrypt(key, data []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	result := make([]byte, len(data))
	c.XORKeyStream(result, data)
	return result, nil
}

// RC4Decrypt decrypts data using RC4 (same as encrypt for RC4).
func RC4Decrypt(key, data []byte) ([]byte, error) {
	return RC4Encrypt(key, data)
}

// DeriveObjectKey derives the per-object encryption key from the file key
// (Algorithm 1 of ISO 32000-1).
func DeriveObjectKey(fileKey []byte, objNum, genNum int) []byte {
	h := md5.New()
	h.Write(fileKey)
	h.Write([]byte{byte(objNum), byte(objNum >> 8), byte(objNum >> 16)})
	h.Write([]byte{byte(genNum), byte(genNum >> 8)})
	key := h.Sum(nil)

	keyLen := len(fileKey) + 5
	if keyLen > 16 {
		keyLen = 16
	}
	return key[:keyLen]
}

// Password padding constant (32 bytes).
var passwordPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// padPassword truncates or pads a password to 32 bytes.
func padPassword(password []byte) []byte {
	result := make([]byte, 32)
	n := copy(result, password)
	copy(result[n:], passwordPadding)
	return result
}
