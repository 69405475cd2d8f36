package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"retail-scraper-service/internal/models"
)

// Publisher wraps the go-shared events publisher for catalog events
type Publisher struct {
	publisher *events.Publisher
	tenantID  string
	logger    *logrus.Entry
}

// NewPublisher connects to NATS and makes sure the products stream exists
func NewPublisher(natsURL, tenantID string, logger *logrus.Logger) (*Publisher, error) {
	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "retail-scraper-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		tenantID:  tenantID,
		logger:    logger.WithField("component", "catalog-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishImported emits product.created / product.updated for every product
// written by an import. Publishing happens in the background.
func (p *Publisher) PublishImported(ctx context.Context, created, updated []*models.Product) {
	batch := make([]*events.ProductEvent, 0, len(created)+len(updated))
	for _, product := range created {
		batch = append(batch, p.buildProductEvent(events.ProductCreated, "created", product))
	}
	for _, product := range updated {
		if product.ID == 0 {
			continue
		}
		batch = append(batch, p.buildProductEvent(events.ProductUpdated, "updated", product))
	}
	if len(batch) == 0 {
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		failed := 0
		for _, event := range batch {
			if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
				failed++
				p.logger.WithFields(logrus.Fields{
					"eventType": event.EventType,
					"productID": event.ProductID,
				}).WithError(err).Error("Failed to publish product event")
			}
		}

		p.logger.WithFields(logrus.Fields{
			"published": len(batch) - failed,
			"failed":    failed,
		}).Info("Import events published")
	}()
}

func (p *Publisher) buildProductEvent(eventType, changeType string, product *models.Product) *events.ProductEvent {
	event := events.NewProductEvent(eventType, p.tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = strconv.FormatUint(uint64(product.ID), 10)
	event.ProductName = product.Title
	event.SKU = product.ManufacturerPartNumber
	event.ChangeType = changeType
	event.ActorName = "product-import"

	newValue := map[string]interface{}{
		"title":                    product.Title,
		"manufacturer_part_number": product.ManufacturerPartNumber,
	}
	if product.PackSizeID != nil {
		newValue["pack_size_id"] = *product.PackSizeID
	}
	event.NewValue = newValue
	return event
}
