package client

const (
	PathLogin     = "/login"
	PathSendOTP   = "/send-otp"
	PathResendOTP = "/resend-otp"
	PathVerifyOTP = "/verify-otp"
	PathSetMPIN   = "/set-mpin"

	PathUsers           = "/users"
	PathDeletedUsers    = "/deleted-users"
	PathRestoreUser     = "/restore-user"
	PathForceDeleteUser = "/force-delete-user"

	PathRoles           = "/roles"
	PathDeletedRoles    = "/deleted-roles"
	PathCreateRole      = "/role"
	PathRestoreRole     = "/restore-role"
	PathForceDeleteRole = "/force-delete-role"
)
