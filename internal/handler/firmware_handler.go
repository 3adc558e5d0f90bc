package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fwforge/fwportal/internal/pkg/response"
	"github.com/fwforge/fwportal/internal/service"
)

type FirmwareHandler struct {
	firmware      *service.FirmwareService
	maxUploadSize int64
}

func NewFirmwareHandler(firmware *service.FirmwareService, maxUploadSize int64) *FirmwareHandler {
	return &FirmwareHandler{firmware: firmware, maxUploadSize: maxUploadSize}
}

func (h *FirmwareHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, http.StatusBadRequest, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open file")
		return
	}
	defer opened.Close()

	params := service.UploadParams{
		Name:         c.PostForm("name"),
		Version:      c.PostForm("version"),
		Channel:      c.PostForm("channel"),
		ReleaseNotes: c.PostForm("release_notes"),
		Filename:     file.Filename,
	}
	fw, err := h.firmware.Upload(c.Request.Context(), getUserEmail(c), params, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fw)
}

func (h *FirmwareHandler) List(c *gin.Context) {
	items, err := h.firmware.List(c.Request.Context(), c.Query("channel"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *FirmwareHandler) Get(c *gin.Context) {
	fw, err := h.firmware.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fw)
}

func (h *FirmwareHandler) Notes(c *gin.Context) {
	html, err := h.firmware.RenderNotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

type updateFirmwareRequest struct {
	Channel      *string `json:"channel"`
	ReleaseNotes *string `json:"release_notes"`
}

func (h *FirmwareHandler) Update(c *gin.Context) {
	var req updateFirmwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	fw, err := h.firmware.Update(c.Request.Context(), c.Param("id"), service.UpdateParams{
		Channel:      req.Channel,
		ReleaseNotes: req.ReleaseNotes,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fw)
}

func (h *FirmwareHandler) Delete(c *gin.Context) {
	if err := h.firmware.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}
