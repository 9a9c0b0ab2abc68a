package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

func principalFromContext(c *gin.Context) *models.Principal {
	return middleware.PrincipalFrom(c)
}

// bindJSON decodes the body and writes the 400 response on failure.
func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// bindOptionalJSON tolerates an empty body.
func bindOptionalJSON(c *gin.Context, target interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, target)
}

func pageParams(c *gin.Context) (int, int) {
	page, size := 1, 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return page, size
}

func boolQuery(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}

func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, appErrors.Field(key, "invalid date format, expected YYYY-MM-DD")
	}
	return &parsed, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query(key))); err == nil {
		return v
	}
	return fallback
}
