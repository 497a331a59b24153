package services

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/crawler"
	"docqa-platform/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceService runs the recurring housekeeping sweeps: flipping stuck
// documents to failed, purging expired documents and their history, and
// pruning upload files no document references anymore.
type MaintenanceService struct {
	config    *config.Config
	documents *DocumentStore
	history   *QAStore
	storage   *FileStorageManager
	scheduler *crawler.Scheduler
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(cfg *config.Config, documents *DocumentStore, history *QAStore, storage *FileStorageManager) *MaintenanceService {
	return &MaintenanceService{
		config:    cfg,
		documents: documents,
		history:   history,
		storage:   storage,
		scheduler: crawler.NewScheduler(),
	}
}

// Start schedules the sweep at the configured interval and begins running it
func (m *MaintenanceService) Start() error {
	interval := time.Duration(m.config.MaintenanceInterval) * time.Minute
	if err := m.scheduler.ScheduleInterval("maintenance.sweep", interval, m.runSweep); err != nil {
		return fmt.Errorf("failed to schedule maintenance sweep: %w", err)
	}

	m.scheduler.Start()
	logger.Info("maintenance scheduler started", "interval_min", m.config.MaintenanceInterval)
	return nil
}

// Stop halts the scheduler
func (m *MaintenanceService) Stop() {
	m.scheduler.Stop()
}

func (m *MaintenanceService) runSweep() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Each sweep is independent; one failing should not block the others
	if err := m.SweepStaleProcessing(ctx); err != nil {
		logger.Error("stale processing sweep failed", "error", err)
	}
	if err := m.SweepExpiredDocuments(ctx); err != nil {
		logger.Error("retention sweep failed", "error", err)
	}
	if err := m.SweepOrphanFiles(ctx); err != nil {
		logger.Error("orphan file sweep failed", "error", err)
	}

	return nil
}

// SweepStaleProcessing fails documents stuck in processing longer than the
// configured threshold so their owners see a terminal status.
func (m *MaintenanceService) SweepStaleProcessing(ctx context.Context) error {
	maxAge := time.Duration(m.config.StaleProcessingAfter) * time.Minute
	count, err := m.documents.MarkStaleProcessing(ctx, maxAge)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warn("marked stale processing documents as failed", "count", count, "max_age_min", m.config.StaleProcessingAfter)
	}
	return nil
}

// SweepExpiredDocuments purges documents older than the retention window along
// with their question history and any stored files. Retention of zero keeps
// everything.
func (m *MaintenanceService) SweepExpiredDocuments(ctx context.Context) error {
	if m.config.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -m.config.RetentionDays)
	expired, err := m.documents.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(expired))
	for _, doc := range expired {
		ids = append(ids, doc.ID)
		m.storage.Cleanup(doc.FilePath)
	}

	removed, err := m.history.DeleteByDocumentIDs(ctx, ids)
	if err != nil {
		logger.Error("failed to purge history for expired documents", "error", err)
	}

	logger.Info("purged expired documents", "documents", len(expired), "exchanges", removed, "retention_days", m.config.RetentionDays)
	return nil
}

// SweepOrphanFiles removes stored upload files that no live document points
// at. Files younger than the stale-processing threshold are left alone since
// they may belong to an upload still in flight.
func (m *MaintenanceService) SweepOrphanFiles(ctx context.Context) error {
	referenced, err := m.documents.ReferencedFilePaths(ctx)
	if err != nil {
		return err
	}

	grace := time.Duration(m.config.StaleProcessingAfter) * time.Minute
	removed := m.storage.PruneOrphans(referenced, grace)
	if removed > 0 {
		logger.Info("pruned orphan upload files", "count", removed)
	}
	return nil
}
