package handler

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/apierror"
	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}

// parseDate reads a validated YYYY-MM-DD value as UTC midnight.
func parseDate(s string) time.Time {
	t, _ := time.ParseInLocation(time.DateOnly, s, time.UTC)
	return t
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t := parseDate(*s)
	return &t
}

// respondError maps domain errors onto status codes. Anything unrecognised is
// attached to the context for ErrorHandler to log and turn into a 500.
func respondError(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		ue *service.UnresolvedIngredientsError
		se *service.InsufficientStockError
		nf *service.NotFoundError
		sc *service.StateConflictError
	)
	switch {
	case errors.As(err, &ve):
		switch {
		case ve.Details != "":
			c.JSON(http.StatusBadRequest, apierror.WithDetails(ve.Message, ve.Details))
		case ve.ExpectedDays > 0:
			c.JSON(http.StatusBadRequest, apierror.WithDetails(ve.Message, gin.H{
				"expected_days": ve.ExpectedDays,
				"received_days": ve.ReceivedDays,
			}))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(ve.Message))
		}
	case errors.As(err, &ue):
		c.JSON(http.StatusBadRequest, apierror.WithDetails("Some ingredients are not in the product catalog", gin.H{
			"unresolved_ingredients": ue.Ingredients,
		}))
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, apierror.WithDetails("Not enough products in inventory", gin.H{
			"missing_items":          se.Missing,
			"added_to_shopping_list": se.AddedToShoppingList,
		}))
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, apierror.New(nf.Error()))
	case errors.As(err, &sc):
		c.JSON(http.StatusBadRequest, apierror.New(sc.Message))
	case errors.Is(err, infra.ErrLockBusy):
		c.JSON(http.StatusConflict, apierror.New("Another operation on this family is in progress, try again"))
	default:
		_ = c.Error(err)
	}
}
