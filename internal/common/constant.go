package common

const (
	// AuthorizationHeader carries the bearer credential on HTTP requests.
	AuthorizationHeader = "Authorization"

	// AuthorizationMetadataKey is the gRPC metadata key for the bearer credential.
	// gRPC lower-cases metadata keys.
	AuthorizationMetadataKey = "authorization"

	// BearerPrefix precedes the token in the authorization value.
	BearerPrefix = "Bearer "

	// TokenType is reported to clients alongside issued tokens.
	TokenType = "Bearer"
)
