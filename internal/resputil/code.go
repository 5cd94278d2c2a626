package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Login
	InvalidCredentials ErrorCode = 40106

	// Caller project is unknown or the caller is not allowed
	UnknownProject ErrorCode = 40401
	UserNotAllowed ErrorCode = 40301

	// Policy denial: cross-project or ownerless write
	WriteDenied ErrorCode = 40302

	// Rollout transition rejected (invalid edge, conflict, or eligibility)
	TransitionRejected ErrorCode = 40901

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
