package handler

import (
	"errors"
	"strconv"

	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/request"
	"github.com/echohealthcare/mvps-pos/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// productIDParam parses the :productId path parameter.
func productIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequestError("Invalid product ID")
	}
	return id, nil
}

// quantityOf converts operator input into a quantity. Text that is not a
// number becomes 0, which the cart raises to 1.
func quantityOf(n *request.NumericInput) (*int, error) {
	if n == nil {
		return nil, nil
	}
	q, err := entity.ParseQuantity(string(*n))
	if errors.Is(err, entity.ErrQuantityOutOfRange) {
		return nil, apperror.NewFieldError("quantity", "Quantity is too large")
	}
	return &q, nil
}

func rawOf(n *request.NumericInput) *string {
	if n == nil {
		return nil
	}
	s := string(*n)
	return &s
}
