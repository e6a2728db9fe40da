// Package crypt implements the RC4 40-bit standard security handler used
// to protect generated documents.
package crypt

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrUnknownPermission = errors.New("unknown permission")
)

// Permissions represents PDF user access permissions (the /P value bits).
type Permissions uint32

const (
	PermPrint      Permissions = 1 << 2
	PermModify     Permissions = 1 << 3
	PermCopy       Permissions = 1 << 4
	PermAnnotForms Permissions = 1 << 5

	// permBase covers bits 7 and 8, which must always be set.
	permBase Permissions = 192
)

var permissionNames = map[string]Permissions{
	"print":       PermPrint,
	"modify":      PermModify,
	"copy":        PermCopy,
	"annot-forms": PermAnnotForms,
}

// ParsePermissions converts permission names into a bit set.
func ParsePermissions(names []string) (Permissions, error) {
	p := permBase
	for _, name := range names {
		bit, ok := permissionNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownPermission, name)
		}
		p |= bit
	}
	return p, nil
}

// Encryptor is the service the serializer consumes.
type Encryptor interface {
	IsEncrypted() bool
	ObjectKey(objNum int) []byte
	Cipher(key, data []byte) []byte
}

// Protection is a revision 2 standard security handler.
type Protection struct {
	encrypted bool
	key       []byte
	ownerKey  []byte
	userKey   []byte
	perms     Permissions
}

// NewProtection returns a handler with encryption disabled.
func NewProtection() *Protection {
	return &Protection{}
}

// SetProtection enables encryption. fileID is the first element of the
// trailer /ID and takes part in key derivation. An empty owner password is
// replaced with a random one. Passwords longer than 32 bytes are
// truncated.
func (p *Protection) SetProtection(permissions []string, userPassword, ownerPassword string, fileID []byte) error {
	perms, err := ParsePermissions(permissions)
	if err != nil {
		return err
	}
	owner := []byte(ownerPassword)
	if len(owner) == 0 {
		owner = make([]byte, 16)
		if _, err := rand.Read(owner); err != nil {
			return fmt.Errorf("generating owner password: %w", err)
		}
	}

	p.perms = perms
	p.ownerKey = computeOwnerKey([]byte(userPassword), owner)
	p.key = computeFileKey([]byte(userPassword), p.ownerKey, perms, fileID)
	p.userKey = mustRC4(p.key, passwordPadding)
	p.encrypted = true
	return nil
}

// IsEncrypted implements Encryptor.
func (p *Protection) IsEncrypted() bool {
	return p != nil && p.encrypted
}

// ObjectKey implements Encryptor.
func (p *Protection) ObjectKey(objNum int) []byte {
	return DeriveObjectKey(p.key, objNum, 0)
}

// Cipher implements Encryptor.
func (p *Protection) Cipher(key, data []byte) []byte {
	return mustRC4(key, data)
}

// OwnerKey returns the /O value.
func (p *Protection) OwnerKey() []byte { return p.ownerKey }

// UserKey returns the /U value.
func (p *Protection) UserKey() []byte { return p.userKey }

// P returns the signed /P value.
func (p *Protection) P() int32 {
	return int32(0xFFFFFF00 | uint32(p.perms))
}

// computeOwnerKey implements Algorithm 3 for revision 2.
func computeOwnerKey(userPassword, ownerPassword []byte) []byte {
	sum := md5.Sum(padPassword(ownerPassword))
	return mustRC4(sum[:5], padPassword(userPassword))
}

// computeFileKey implements Algorithm 2 for revision 2.
func computeFileKey(userPassword, ownerKey []byte, perms Permissions, fileID []byte) []byte {
	h := md5.New()
	h.Write(padPassword(userPassword))
	h.Write(ownerKey)
	var pb [4]byte
	binary.LittleEndian.PutUint32(pb[:], 0xFFFFFF00|uint32(perms))
	h.Write(pb[:])
	h.Write(fileID)
	return h.Sum(nil)[:5]
}

// AuthenticateUser reports whether password opens a document protected
// with the given values.
func AuthenticateUser(password, ownerKey, userKey []byte, p int32, fileID []byte) bool {
	key := computeFileKey(password, ownerKey, Permissions(uint32(p)&0xFF), fileID)
	u := mustRC4(key, passwordPadding)
	return string(u) == string(userKey)
}

// rc4.NewCipher only fails for keys outside 1..256 bytes, which the
// derivations above never produce.
func mustRC4(key, data []byte) []byte {
	out, err := RC4Encrypt(key, data)
	if err != nil {
		panic(err)
	}
	return out
}
