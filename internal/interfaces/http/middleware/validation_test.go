package middleware

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
)

type windowQuery struct {
	Preset string `form:"preset" binding:"omitempty,oneof=all_time last_7_days"`
	Start  string `form:"start" binding:"omitempty,datetime=2006-01-02"`
	Month  int    `form:"month"`
}

type validationErrorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		RequestID string                 `json:"request_id"`
		Details   []dto.ValidationDetail `json:"details"`
	} `json:"error"`
}

func queryRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		var q windowQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(q))
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	router := queryRouter()

	t.Run("reports fields by query name", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test?preset=forever&start=01-05-2024", map[string]string{RequestIDHeader: "req-1"})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body validationErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, dto.ErrCodeValidation, body.Error.Code)
		assert.Equal(t, "Request validation failed", body.Error.Message)
		assert.Equal(t, "req-1", body.Error.RequestID)
		require.Len(t, body.Error.Details, 2)

		byField := map[string]string{}
		for _, d := range body.Error.Details {
			byField[d.Field] = d.Message
		}
		assert.Equal(t, "Must be one of: all_time last_7_days", byField["preset"])
		assert.Equal(t, "Must be a date in YYYY-MM-DD format", byField["start"])
	})

	t.Run("unparseable numbers are validation errors", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test?month=abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body validationErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, dto.ErrCodeValidation, body.Error.Code)
		require.Len(t, body.Error.Details, 1)
		assert.NotEmpty(t, body.Error.Details[0].Message)
	})

	t.Run("valid query passes", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test?preset=all_time&start=2024-01-05&month=3", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type rules struct {
		Required string `validate:"required"`
		OneOf    string `validate:"oneof=a b c"`
		Date     string `validate:"datetime=2006-01-02"`
		GTE      int    `validate:"gte=10"`
		LTE      int    `validate:"lte=1"`
	}

	v := validator.New()
	err := v.Struct(rules{OneOf: "d", Date: "2024/01/01", GTE: 1, LTE: 5})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		messages[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["Required"])
	assert.Equal(t, "Must be one of: a b c", messages["OneOf"])
	assert.Equal(t, "Must be a date in YYYY-MM-DD format", messages["Date"])
	assert.Equal(t, "Must be greater than or equal to 10", messages["GTE"])
	assert.Equal(t, "Must be less than or equal to 1", messages["LTE"])
}
