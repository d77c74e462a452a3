package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"carintel/internal/apperr"
	"carintel/internal/model"
)

// respondError writes {"error": code, "message": ...} with the status mapped from err
func respondError(c *gin.Context, err error) {
	body := gin.H{
		"error":   apperr.Code(err),
		"message": apperr.Message(err),
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) && len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(apperr.HTTPStatus(err), body)
}

func invalidRequest(c *gin.Context, err error) {
	respondError(c, apperr.BadRequest("Invalid request: "+err.Error()))
}

// vehicleTypeParam reads the :type path parameter
func vehicleTypeParam(c *gin.Context) (model.VehicleType, error) {
	raw := c.Param("type")
	vt, ok := model.ParseVehicleType(raw)
	if !ok {
		return "", apperr.BadRequest("unknown vehicle type " + strconv.Quote(raw))
	}
	return vt, nil
}

// intQuery reads an optional integer query parameter. Absent or blank yields nil.
func intQuery(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.BadRequest(key + " must be a number")
	}
	return &v, nil
}

// stringQuery reads an optional string query parameter. Absent or blank yields nil.
func stringQuery(c *gin.Context, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}
