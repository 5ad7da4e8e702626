package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients key their messages off these.

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUnknownEmail       = "AUTH_UNKNOWN_EMAIL"
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID"
	AuthPasswordPolicy     = "AUTH_PASSWORD_POLICY"
	AuthPasswordMismatch   = "AUTH_PASSWORD_MISMATCH"

	// Authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationTooLong      = "VALIDATION_TOO_LONG"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Exploration
	ExploreWrongStage       = "EXPLORE_WRONG_STAGE"
	ExploreNotCurrent       = "EXPLORE_NOT_CURRENT_DISCOVERY"
	ExplorePromptsExhausted = "EXPLORE_PROMPTS_EXHAUSTED"

	// Archive
	ArchivePlanetNotFound    = "ARCHIVE_PLANET_NOT_FOUND"
	ArchiveDiscoveryNotFound = "ARCHIVE_DISCOVERY_NOT_FOUND"
	ArchiveNotArchived       = "ARCHIVE_PLANET_IN_PROGRESS"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
