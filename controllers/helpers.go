package controllers

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// writeBindError renders a request binding failure as a 400 with one line
// per invalid field.
func writeBindError(c *gin.Context, err error) {
	apperrors.Write(c, apperrors.Validation("Invalid request", validationDetails(err)))
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			details = append(details, field+" is required")
		case "gte":
			details = append(details, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param()))
		case "gt":
			details = append(details, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "min":
			details = append(details, fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param()))
		case "email":
			details = append(details, field+" must be a valid email")
		default:
			details = append(details, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return details
}

// fieldPath turns "RestaurantInput.MenuItems[0].Name" into "menuItems[0].name".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = lowerFirst(p)
	}
	return strings.Join(parts, ".")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
