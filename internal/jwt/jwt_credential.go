package jwt

import "golang.org/x/crypto/bcrypt"

// HashCredential produces the bcrypt hash stored in ADMIN_CREDENTIAL_HASH.
func HashCredential(credential string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), 10)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func ValidateCredential(hashedCredential, credential string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedCredential), []byte(credential))
	return err == nil
}
