// AngelaMos | 2026
// otp.go

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpDigits = 6

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random 6-digit numeric code. crypto/rand
// keeps codes unguessable in bulk; leading zeros are preserved.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

func signupEmailBody(name, otp string) string {
	return fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your Civix verification code is %s.\n\n"+
			"The code expires in 5 minutes. If you did not request it, you "+
			"can ignore this email.\n",
		name,
		otp,
	)
}

func resetEmailBody(otp string) string {
	return fmt.Sprintf(
		"A password reset was requested for your Civix account.\n\n"+
			"Your reset code is %s. It expires in 5 minutes.\n\n"+
			"If you did not request a reset, your password is unchanged and "+
			"you can ignore this email.\n",
		otp,
	)
}
