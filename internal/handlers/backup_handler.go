package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcastellanos/credifacil-api/internal/services"
)

type BackupHandler struct {
	backupService *services.BackupService
}

func NewBackupHandler(backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// @Summary List Backups
// @Description Get the stored backup archives
// @Tags Backups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /backups [get]
func (h *BackupHandler) Index(c *gin.Context) {
	files, err := h.backupService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": files})
}

// @Summary Create Backup
// @Description Dump the database into a compressed archive
// @Tags Backups
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	info, err := h.backupService.Create(c.Request.Context(), actor(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"backup": info})
}

// @Summary Download Backup
// @Description Download a backup archive
// @Tags Backups
// @Produce application/zip
// @Param name path string true "Archive name"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /backups/{name} [get]
func (h *BackupHandler) Download(c *gin.Context) {
	name := c.Param("name")

	file, err := h.backupService.Open(c.Request.Context(), name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrBackupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename="+name)
	c.File(file.Name())
}

// @Summary Restore Backup
// @Description Restore the database from a backup archive
// @Tags Backups
// @Produce json
// @Param name path string true "Archive name"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /backups/{name}/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	name := c.Param("name")

	if err := h.backupService.Restore(c.Request.Context(), name, actor(c)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrBackupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Base de datos restaurada exitosamente"})
}

// @Summary Delete Backup
// @Description Delete a backup archive
// @Tags Backups
// @Produce json
// @Param name path string true "Archive name"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /backups/{name} [delete]
func (h *BackupHandler) Delete(c *gin.Context) {
	name := c.Param("name")

	if err := h.backupService.Delete(c.Request.Context(), name, actor(c)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrBackupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Respaldo eliminado exitosamente"})
}
