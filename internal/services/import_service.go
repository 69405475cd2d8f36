package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"retail-scraper-service/internal/apperrors"
	"retail-scraper-service/internal/csvparser"
	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

const importSuccessMessage = "Products imported successfully"

// ImportEventPublisher announces products written by an import
type ImportEventPublisher interface {
	PublishImported(ctx context.Context, created, updated []*models.Product)
}

// ImportService runs the product import pipeline:
// parse -> validate retailers -> resolve pack sizes -> classify -> store/update,
// all inside one transaction.
type ImportService struct {
	repo      repository.CatalogRepositoryInterface
	runs      repository.ImportRunStore
	publisher ImportEventPublisher
	logger    *logrus.Entry
	now       func() time.Time
}

// NewImportService creates an ImportService. runs and publisher may be nil.
func NewImportService(repo repository.CatalogRepositoryInterface, runs repository.ImportRunStore, publisher ImportEventPublisher, logger *logrus.Logger) *ImportService {
	return &ImportService{
		repo:      repo,
		runs:      runs,
		publisher: publisher,
		logger:    logger.WithField("component", "product-import"),
		now:       time.Now,
	}
}

// importOutcome collects what the transaction wrote
type importOutcome struct {
	rowCount int
	created  []*models.Product
	updated  []*models.Product
	dropped  int
}

// ImportProducts imports the CSV (or .xlsx) file at filePath.
func (s *ImportService) ImportProducts(ctx context.Context, filePath string) (*models.ImportResult, error) {
	start := time.Now()
	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	run := &models.ImportRun{
		ID:        uuid.New().String(),
		FileName:  filepath.Base(filePath),
		Status:    models.ImportStatusProcessing,
		StartedAt: s.now(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"importID": run.ID,
		"file":     run.FileName,
	})

	content, err := os.ReadFile(filePath)
	if err != nil {
		translated := apperrors.ImportError(err)
		log.WithError(err).Error("Failed to read import file")
		s.recordRun(ctx, run, nil, translated)
		return nil, translated
	}

	outcome, err := s.runImport(ctx, filePath, content)
	if err != nil {
		translated := TranslateError(ctx, s.repo, err)
		log.WithError(err).Error("Product import failed, transaction rolled back")
		s.recordRun(ctx, run, nil, translated)
		return nil, translated
	}

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	memoryMB := float64(int64(memAfter.HeapAlloc)-int64(memBefore.HeapAlloc)) / 1024 / 1024

	result := &models.ImportResult{
		ImportID:      run.ID,
		Message:       importSuccessMessage,
		Created:       len(outcome.created),
		Updated:       len(outcome.updated),
		Dropped:       outcome.dropped,
		ExecutionTime: strconv.FormatFloat(elapsed, 'f', 2, 64) + " ms",
		MemoryUsed:    strconv.FormatFloat(memoryMB, 'f', 2, 64) + " MB",
		RowCount:      outcome.rowCount,
	}

	s.repo.InvalidateCatalogCaches(ctx)
	if s.publisher != nil {
		s.publisher.PublishImported(ctx, outcome.created, outcome.updated)
	}
	s.recordRun(ctx, run, result, nil)

	log.WithFields(logrus.Fields{
		"rows":          result.RowCount,
		"created":       result.Created,
		"updated":       result.Updated,
		"dropped":       result.Dropped,
		"executionTime": result.ExecutionTime,
	}).Info("Product import completed")

	return result, nil
}

// runImport executes the pipeline in a single transaction. Any error rolls
// everything back, including pack sizes inserted earlier in the same run.
func (s *ImportService) runImport(ctx context.Context, filePath string, content []byte) (*importOutcome, error) {
	now := s.now()
	outcome := &importOutcome{}

	err := s.repo.WithTransaction(ctx, func(tx repository.CatalogRepositoryInterface) error {
		rows, err := parseRows(filePath, content)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apperrors.InvalidCsvError()
		}
		outcome.rowCount = len(rows)

		retailers, err := tx.ListRetailers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load retailers: %w", err)
		}
		if err := ValidateRetailers(rows, retailers); err != nil {
			return err
		}

		existing, err := tx.ListPackSizes(ctx)
		if err != nil {
			return fmt.Errorf("failed to load pack sizes: %w", err)
		}
		packSizes, err := ResolvePackSizes(ctx, tx, rows, existing, now)
		if err != nil {
			return err
		}

		classified := Classify(rows, packSizes, now)
		outcome.dropped = classified.Dropped

		if err := CheckDuplicates(ctx, tx, classified.Create.Entities, packSizes); err != nil {
			return err
		}
		if _, err := BulkStore(ctx, tx, classified.Create, retailers, now); err != nil {
			return err
		}
		if _, err := BulkUpdate(ctx, tx, classified.Update, retailers, now); err != nil {
			return err
		}

		outcome.created = classified.Create.Entities
		outcome.updated = classified.Update.Entities
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// parseRows picks the reader by file extension; anything but .xlsx is CSV.
func parseRows(filePath string, content []byte) ([]csvparser.Row, error) {
	if strings.EqualFold(filepath.Ext(filePath), "."+string(models.ImportFormatXLSX)) {
		return csvparser.ParseXLSX(bytes.NewReader(content), csvparser.Options{})
	}
	return csvparser.Parse(content, csvparser.Options{})
}

// recordRun stores the run outcome. Failures to store are logged, not returned.
func (s *ImportService) recordRun(ctx context.Context, run *models.ImportRun, result *models.ImportResult, failure error) {
	if s.runs == nil {
		return
	}

	finished := s.now()
	run.FinishedAt = &finished
	run.Result = result
	run.Status = models.ImportStatusCompleted
	if failure != nil {
		run.Status = models.ImportStatusFailed
		run.Error = failure.Error()
		var appErr *apperrors.Error
		if errors.As(failure, &appErr) {
			run.ErrorCode = appErr.Code
		}
	}

	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.WithField("importID", run.ID).WithError(err).Warn("Failed to store import run")
	}
}

// GetImportRun returns a stored import run
func (s *ImportService) GetImportRun(ctx context.Context, id string) (*models.ImportRun, error) {
	if s.runs == nil {
		return nil, repository.ErrNotFound
	}
	return s.runs.Get(ctx, id)
}
