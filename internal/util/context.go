package util

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-lab/warden/dao/model"
)

const (
	OperatorIDKey   = "x-operator-id"
	OperatorNameKey = "x-operator-name"
	RolePlatformKey = "x-role-platform"

	// CallerProjectHeader names the project a guarded request acts as. The
	// handler resolves it to a scope once per request; nothing ambient
	// survives the request.
	CallerProjectHeader = "X-Warden-Project"
)

func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(OperatorIDKey, msg.OperatorID)
	c.Set(OperatorNameKey, msg.OperatorName)
	c.Set(RolePlatformKey, msg.RolePlatform)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.OperatorID = ctx.GetUint(OperatorIDKey)
	msg.OperatorName = ctx.GetString(OperatorNameKey)

	rolePlatform, _ := ctx.Get(RolePlatformKey)
	if role, ok := rolePlatform.(model.Role); ok {
		msg.RolePlatform = role
	}
	return msg
}

// CallerProject returns the project id a guarded request acts on behalf of.
func CallerProject(ctx *gin.Context) string {
	return ctx.GetHeader(CallerProjectHeader)
}
