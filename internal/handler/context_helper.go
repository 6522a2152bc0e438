package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-admissions-api/internal/middleware"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}

func stepParam(c *gin.Context) (int, error) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "step must be a number")
	}
	return step, nil
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
