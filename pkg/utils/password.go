package utils

import "golang.org/x/crypto/bcrypt"

// HashPIN hashes a staff PIN for storage
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPINHash compares a PIN with its stored hash
func CheckPINHash(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
