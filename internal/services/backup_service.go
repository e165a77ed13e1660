package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/storage"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
)

const backupSubDir = "backups"

// BackupService dumps and restores the database through the postgres client
// tools. Dumps are compressed into zip archives under the backup directory.
type BackupService struct {
	databaseURL   string
	store         *storage.LocalStorage
	notifications *NotificationService
	audit         *AuditService
	retentionDays int
}

// NewBackupService creates a new backup service
func NewBackupService(cfg *config.Config, store *storage.LocalStorage, notifications *NotificationService, audit *AuditService) *BackupService {
	return &BackupService{
		databaseURL:   cfg.DatabaseURL,
		store:         store,
		notifications: notifications,
		audit:         audit,
		retentionDays: 30,
	}
}

// Create runs pg_dump and stores the compressed archive. Returns the
// archive's file info.
func (s *BackupService) Create(ctx context.Context, requestedBy *models.User) (*storage.FileInfo, error) {
	timestamp := time.Now().Format("20060102_150405")
	dumpName := fmt.Sprintf("credifacil_%s.sql", timestamp)

	cmd := exec.CommandContext(ctx, "pg_dump", "--no-owner", "--clean", "--if-exists", s.databaseURL)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pg_dump failed: %s: %w", stderr.String(), err)
	}

	archive, err := zipBytes(dumpName, out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to compress dump: %w", err)
	}

	archiveName := fmt.Sprintf("credifacil_%s.zip", timestamp)
	relPath, err := s.store.SaveBytes(archive, archiveName, backupSubDir)
	if err != nil {
		return nil, err
	}

	size, _ := s.store.Size(relPath)
	info := &storage.FileInfo{
		Name:      archiveName,
		Path:      relPath,
		SizeBytes: size,
		CreatedAt: time.Now(),
	}

	logger.Info("backup created", "file", archiveName, "size_bytes", size)

	if requestedBy != nil {
		s.audit.Record(ctx, requestedBy.ID, AuditActionBackup, AuditEntityBackup, 0,
			fmt.Sprintf("respaldo %s creado", archiveName))
		s.notifications.Create(ctx, requestedBy.ID, "Respaldo completado",
			fmt.Sprintf("El respaldo %s se generó exitosamente", archiveName),
			models.NotificationTypeBackupCompleted)
	}

	return info, nil
}

// List returns the stored backup archives, newest first
func (s *BackupService) List(ctx context.Context) ([]storage.FileInfo, error) {
	return s.store.List(backupSubDir)
}

// Open returns a backup archive for download
func (s *BackupService) Open(ctx context.Context, name string) (*os.File, error) {
	relPath := backupSubDir + "/" + name
	if !s.store.Exists(relPath) {
		return nil, ErrBackupNotFound
	}
	return s.store.Open(relPath)
}

// Restore loads a backup archive back into the database. Destructive: the
// dump carries drop statements for every table it recreates.
func (s *BackupService) Restore(ctx context.Context, name string, requestedBy *models.User) error {
	relPath := backupSubDir + "/" + name
	if !s.store.Exists(relPath) {
		return ErrBackupNotFound
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return err
	}
	defer file.Close()

	dump, err := unzipFirst(file)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	cmd := exec.CommandContext(ctx, "psql", s.databaseURL)
	cmd.Stdin = bytes.NewReader(dump)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("psql restore failed: %s: %w", stderr.String(), err)
	}

	logger.Warn("database restored from backup", "file", name)

	if requestedBy != nil {
		s.audit.Record(ctx, requestedBy.ID, AuditActionBackup, AuditEntityBackup, 0,
			fmt.Sprintf("base de datos restaurada desde %s", name))
	}
	return nil
}

// Delete removes a backup archive
func (s *BackupService) Delete(ctx context.Context, name string, requestedBy *models.User) error {
	relPath := backupSubDir + "/" + name
	if !s.store.Exists(relPath) {
		return ErrBackupNotFound
	}
	if err := s.store.Delete(relPath); err != nil {
		return err
	}
	if requestedBy != nil {
		s.audit.Record(ctx, requestedBy.ID, AuditActionDelete, AuditEntityBackup, 0,
			fmt.Sprintf("respaldo %s eliminado", name))
	}
	return nil
}

// CleanupOld deletes archives older than the retention window. Run by the
// job scheduler after each nightly backup.
func (s *BackupService) CleanupOld(ctx context.Context) (int, error) {
	files, err := s.store.List(backupSubDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	removed := 0
	for _, f := range files {
		if f.CreatedAt.Before(cutoff) {
			if err := s.store.Delete(f.Path); err != nil {
				logger.Error("failed to delete old backup", "file", f.Name, "error", err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		logger.Info("old backups removed", "count", removed)
	}
	return removed, nil
}

func zipBytes(name string, data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unzipFirst(file *os.File) ([]byte, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(file, info.Size())
	if err != nil {
		return nil, err
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("archive is empty")
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
