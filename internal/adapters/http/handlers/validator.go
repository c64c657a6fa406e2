// Package handlers contains the HTTP handlers of the REST API.
//
// A handler binds the request, builds a command or query DTO, calls the
// use case and writes the response envelope. Business rules live below
// this layer.
package handlers

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/commercekit/walletpay/internal/adapters/http/common"
)

var setupOnce sync.Once

// SetupValidator registers the custom validation tags with gin's binding
// engine. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Report field names by their json tag.
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("money_amount", validateMoneyAmount)
			_ = v.RegisterValidation("entry_type", validateEntryType)
			_ = v.RegisterValidation("payment_method", validatePaymentMethod)
		}
	})
}

// validateMoneyAmount accepts a decimal string with at most two fraction
// digits.
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

func validateMoneyAmount(fl validator.FieldLevel) bool {
	return moneyPattern.MatchString(fl.Field().String())
}

func validateEntryType(fl validator.FieldLevel) bool {
	t := fl.Field().String()
	return t == "CREDIT" || t == "DEBIT"
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	return kind == "wallet" || kind == "card" || kind == "check"
}

// HandleValidationErrors turns binding errors into the API error shape.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: validationMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
	}

	if len(fieldErrors) == 0 {
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		return "Value is too small (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too large (maximum: " + fe.Param() + ")"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "money_amount":
		return "Invalid amount format (use a decimal like '100.50')"
	case "entry_type":
		return "Entry type must be CREDIT or DEBIT"
	case "payment_method":
		return "Payment method must be wallet, card or check"
	default:
		return "Invalid value"
	}
}

// BindJSON binds the request body. On failure the error response has
// already been written and false is returned.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI binds path parameters.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// PaginationParams are the page/per_page query parameters.
type PaginationParams struct {
	Page    int `form:"page" binding:"min=1"`
	PerPage int `form:"per_page" binding:"min=1,max=100"`
}

// DefaultPaginationParams returns page 1, 20 per page.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Page: 1, PerPage: 20}
}

// ParsePagination reads pagination from the query string, falling back to
// the defaults on absent or unusable values.
func ParsePagination(c *gin.Context) PaginationParams {
	params := DefaultPaginationParams()

	if page := c.Query("page"); page != "" {
		if p := parseInt(page); p > 0 {
			params.Page = p
		}
	}

	if perPage := c.Query("per_page"); perPage != "" {
		if pp := parseInt(perPage); pp > 0 && pp <= 100 {
			params.PerPage = pp
		}
	}

	return params
}

func parseInt(s string) int {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// BuildMeta describes one returned page.
func BuildMeta(params PaginationParams, count int) *common.APIMeta {
	return &common.APIMeta{
		Page:    params.Page,
		PerPage: params.PerPage,
		Count:   count,
	}
}
