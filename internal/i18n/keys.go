// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound = "user.not_found"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductReferenced = "product.referenced"

	// Orders
	KeyOrderCreated  = "order.created"
	KeyOrderUpdated  = "order.updated"
	KeyOrderDeleted  = "order.deleted"
	KeyOrderNotFound = "order.not_found"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationPrice    = "validation.price_positive"
	KeyValidationPage     = "validation.invalid_page"
	KeyValidationProduct  = "validation.product_missing"
	KeyValidationBadQuery = "validation.bad_query"

	// Infrastructure
	KeyThrottled          = "request.throttled"
	KeyServiceUnavailable = "service.unavailable"
	KeyInternalError      = "service.internal_error"
)
