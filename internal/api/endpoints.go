package api

// User service endpoints
const (
	UserRegister       = "/api/v1/users/register"
	UserLogin          = "/api/v1/users/login"
	UserLogout         = "/api/v1/users/logout"
	UserVerify         = "/api/v1/users/verify"
	UserForgotPassword = "/api/v1/users/forgot-password"
	UserResetPassword  = "/api/v1/users/reset-password"
	UserMe             = "/api/v1/users/me"

	Health = "/healthz"
)

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[string]bool{
	UserRegister:       true,
	UserLogin:          true,
	UserVerify:         true,
	UserForgotPassword: true,
	UserResetPassword:  true,
	Health:             true,
}

// ThrottledEndpoints defines endpoints guarded by the attempt throttle
var ThrottledEndpoints = map[string]bool{
	UserRegister:       true,
	UserLogin:          true,
	UserForgotPassword: true,
}
