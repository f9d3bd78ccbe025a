package middleware

import (
	"quizbook/internal/domain"
	"quizbook/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by ValidationMiddleware
const (
	LocalQuestionNumber = "validated_question_number"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParams validates the named path parameters as identifiers
func (vm *ValidationMiddleware) ValidateIDParams(params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var errs domain.ValidationErrors
		for _, p := range params {
			errs = append(errs, vm.validator.ValidateID(p, c.Params(p))...)
		}
		if len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}
		return c.Next()
	}
}

// ValidateQuestionNumber parses the :number path parameter and stores it in Locals
func (vm *ValidationMiddleware) ValidateQuestionNumber() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("number")
		n, err := c.ParamsInt("number")
		if err != nil {
			return domain.ValidationErrors{domain.NewInvalidFormatError("number", raw)}
		}
		if errs := vm.validator.ValidateQuestionNumber(n); len(errs) > 0 {
			return errs
		}
		c.Locals(LocalQuestionNumber, n)
		return c.Next()
	}
}

// QuestionNumber returns the number stored by ValidateQuestionNumber
func QuestionNumber(c *fiber.Ctx) int {
	n, _ := c.Locals(LocalQuestionNumber).(int)
	return n
}
