package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fwforge/fwportal/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Firmware  *FirmwareHandler
	Files     *FileHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/send-code", deps.Auth.SendCode)
	api.POST("/auth/verify-code", deps.Auth.VerifyCode)
	api.POST("/auth/verify-token", deps.Auth.VerifyToken)
	api.POST("/admin/auth/send-code", deps.Auth.SendAdminCode)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/firmware", deps.Firmware.List)
	authGroup.GET("/firmware/:id", deps.Firmware.Get)
	authGroup.GET("/firmware/:id/notes", deps.Firmware.Notes)

	adminGroup := authGroup.Group("")
	adminGroup.Use(middleware.RequireRole("admin"))
	adminGroup.POST("/firmware", deps.Firmware.Upload)
	adminGroup.PUT("/firmware/:id", deps.Firmware.Update)
	adminGroup.DELETE("/firmware/:id", deps.Firmware.Delete)

	api.GET("/files/:key", deps.Files.Get)
}
