// internal/handlers/common.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

// subjectFromContext projects the middleware's identity claims into the
// subject the policy engine decides on. No token means a guest subject, not
// an error; whether a guest may do anything is the engine's call.
func subjectFromContext(c *gin.Context) authz.Subject {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return authz.Guest()
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return authz.Guest()
	}

	return authz.ForUser(userID, utils.GetRolesFromContext(c)...)
}

// pathUUID parses a uuid path parameter, responding with 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// queryFloat parses an optional numeric query parameter. Unparseable values
// are treated as absent.
func queryFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
