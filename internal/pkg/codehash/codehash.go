package codehash

import "golang.org/x/crypto/bcrypt"

// Verification codes are short-lived numeric secrets; they are still
// hashed at rest so a challenge record never holds the raw code.

func Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Matches(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
