package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code + message pair ready for ErrorResponse.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database and network errors to a client-safe code and
// message. context names the operation, e.g. "create restaurant".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// postgres 23505 / sqlite UNIQUE
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}
	// 23503
	if strings.Contains(errLower, "foreign key constraint") {
		return parseForeignKeyError(errLower, context)
	}
	// 23502
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return parseNotNullError(errLower)
	}
	// 23514
	if strings.Contains(errLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "A value is out of the allowed range"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{Code: InternalExternalAPI, Message: "A backing service is unreachable. Please try again"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: RestaurantSlugTaken, Message: "This menu URL is already taken"}
	case strings.Contains(errLower, "custom_domain"):
		return ErrorInfo{Code: RestaurantDomainTaken, Message: "This domain is already connected to another restaurant"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "An account with this email already exists"}
	case strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists. Please try again"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(errLower string, context string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "Other records still reference this " + subject(context)}
	}
	switch {
	case strings.Contains(errLower, "restaurant_id"):
		return ErrorInfo{Code: RestaurantNotFound, Message: "Restaurant not found"}
	case strings.Contains(errLower, "category_id"):
		return ErrorInfo{Code: CategoryNotFound, Message: "Category not found"}
	case strings.Contains(errLower, "user_id"):
		return ErrorInfo{Code: ResourceNotFound, Message: "User not found"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
}

func parseNotNullError(errLower string) ErrorInfo {
	for _, field := range []string{"email", "password", "name", "price", "slug"} {
		if strings.Contains(errLower, field) {
			return ErrorInfo{Code: ValidationRequired, Message: strings.ToUpper(field[:1]) + field[1:] + " is required"}
		}
	}
	return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
}

func subject(context string) string {
	c := strings.ToLower(context)
	for _, s := range []string{"restaurant", "category", "item", "user"} {
		if strings.Contains(c, s) {
			return s
		}
	}
	return "record"
}

func notFoundMessage(context string) string {
	switch subject(context) {
	case "restaurant":
		return "Restaurant not found"
	case "category":
		return "Category not found"
	case "item":
		return "Menu item not found"
	case "user":
		return "User not found"
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "create"):
		return "Could not save. Please try again"
	case strings.Contains(c, "update"):
		return "Could not update. Please try again"
	case strings.Contains(c, "delete"):
		return "Could not delete. Please try again"
	}
	return "Something went wrong. Please try again"
}

// ParseAndRespond parses err and writes it with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
