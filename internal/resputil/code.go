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
	InvalidCredentials ErrorCode = 40103

	// User is not allowed to access the resource
	UserNotAllowed ErrorCode = 40301

	// Referenced entity does not exist
	ResourceNotFound ErrorCode = 40401

	// Duplicate round, active log, dependent entity, resolved approval
	ResourceConflict ErrorCode = 40901

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
