// AngelaMos | 2026
// dto.go

package auth

type SendOTPRequest struct {
	Name      string   `json:"name"      validate:"required,min=1,max=100"`
	Email     string   `json:"email"     validate:"required,email,max=255"`
	Password  string   `json:"password"  validate:"required,min=8,max=128"`
	Role      string   `json:"role"      validate:"omitempty,oneof=citizen official"`
	Latitude  *float64 `json:"latitude"  validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	OTP         string `json:"otp"         validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	ID      string `json:"id"`
}
