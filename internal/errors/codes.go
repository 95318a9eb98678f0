package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to localized text.

const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthPasswordMismatch   = "AUTH_PASSWORD_MISMATCH"
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID"

	// authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// validation
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// plans and subscription
	PlanFeatureLocked    = "PLAN_FEATURE_LOCKED"
	PlanTemplateLocked   = "PLAN_TEMPLATE_LOCKED"
	PlanInvalidType      = "PLAN_INVALID_TYPE"
	PlanDowngradeBlocked = "PLAN_DOWNGRADE_BLOCKED"

	// restaurants
	RestaurantNotFound      = "RESTAURANT_NOT_FOUND"
	RestaurantSlugTaken     = "RESTAURANT_SLUG_TAKEN"
	RestaurantLimitReached  = "RESTAURANT_LIMIT_REACHED"
	RestaurantPartialCreate = "RESTAURANT_PARTIAL_CREATE"
	RestaurantInvalidDomain = "RESTAURANT_INVALID_DOMAIN"
	RestaurantDomainTaken   = "RESTAURANT_DOMAIN_TAKEN"
	DomainChangeLimit       = "DOMAIN_CHANGE_LIMIT"
	RestaurantInvalidTheme  = "RESTAURANT_INVALID_TEMPLATE"

	// menu
	CategoryNotFound    = "CATEGORY_NOT_FOUND"
	MenuItemNotFound    = "MENU_ITEM_NOT_FOUND"
	MenuInvalidDiscount = "MENU_INVALID_DISCOUNT"
	MenuImportFailed    = "MENU_IMPORT_FAILED"

	// uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// email
	EmailSendFailed    = "EMAIL_SEND_FAILED"
	EmailNotConfigured = "EMAIL_NOT_CONFIGURED"

	// internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
