package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"main/model"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/argon2"
)

// Constants for Argon2 parameters
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	keyLength   = 32
)

var (
	// ErrConfirmationRequired means the request carried neither a PIN nor
	// a TOTP code the admin could be confirmed with.
	ErrConfirmationRequired = errors.New("step-up confirmation required")
	// ErrConfirmationRejected means a PIN or code was supplied but did
	// not verify.
	ErrConfirmationRejected = errors.New("step-up confirmation rejected")
)

// HashPIN hashes an admin PIN with Argon2id for storage.
func HashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", errors.New("pin must be at least 4 characters")
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.New("failed to generate salt")
	}

	hash := argon2.IDKey([]byte(pin), salt, iterations, memory, parallelism, keyLength)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return encodedSalt + "$" + encodedHash, nil
}

// VerifyPIN checks a provided PIN against the stored salt$hash pair.
func VerifyPIN(storedHash, providedPIN string) (bool, error) {
	parts := strings.Split(storedHash, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid stored pin format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, err
	}

	stored, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(providedPIN), salt, iterations, memory, parallelism, keyLength)
	return subtle.ConstantTimeCompare(computed, stored) == 1, nil
}

// ConfirmAdmin verifies the step-up credential accompanying an access mode
// transition. A TOTP code wins if the admin has a secret enrolled; the PIN
// is the fallback.
func ConfirmAdmin(admin *model.AdminUser, pin, totpCode string) error {
	if admin == nil {
		return ErrConfirmationRejected
	}

	if totpCode != "" && admin.TOTPSecret != "" {
		if totp.Validate(totpCode, admin.TOTPSecret) {
			return nil
		}
		return ErrConfirmationRejected
	}

	if pin != "" && admin.PINHash != "" {
		ok, err := VerifyPIN(admin.PINHash, pin)
		if err != nil || !ok {
			return ErrConfirmationRejected
		}
		return nil
	}

	return ErrConfirmationRequired
}
