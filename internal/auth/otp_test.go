// AngelaMos | 2026
// otp_test.go

package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)

	for range 50 {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)

		for _, r := range otp {
			require.True(t, r >= '0' && r <= '9', "otp %q is not numeric", otp)
		}

		seen[otp] = true
	}

	// 50 draws from a million-code space collapsing to one value would
	// mean the generator is broken.
	require.Greater(t, len(seen), 1)
}

func TestEmailBodiesContainCode(t *testing.T) {
	require.Contains(t, signupEmailBody("Ada", "042137"), "042137")
	require.Contains(t, signupEmailBody("Ada", "042137"), "Ada")
	require.Contains(t, resetEmailBody("990001"), "990001")
}
