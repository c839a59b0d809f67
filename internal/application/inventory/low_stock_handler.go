package inventory

import (
	"context"
	"fmt"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockNotifier delivers low-stock alerts. Implementations can back
// different channels (in-app, email, webhook).
type LowStockNotifier interface {
	Notify(ctx context.Context, alert LowStockAlert) error
}

// LowStockAlert describes an item whose on-hand level dropped below its
// configured minimum
type LowStockAlert struct {
	StockItemID string `json:"stock_item_id"`
	LocationID  string `json:"location_id"`
	ProductID   string `json:"product_id"`
	Quantity    string `json:"quantity"`
	MinQuantity string `json:"min_quantity"`
	AlertType   string `json:"alert_type"` // "low_stock" or "out_of_stock"
}

// LowStockHandler reacts to StockBelowThreshold events raised by
// withdrawals and write-offs
type LowStockHandler struct {
	logger   *zap.Logger
	notifier LowStockNotifier
}

// NewLowStockHandler creates a new LowStockHandler
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// WithNotifier sets the notifier used to deliver alerts
func (h *LowStockHandler) WithNotifier(notifier LowStockNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	h.logger.Warn("stock below threshold",
		zap.String("stock_item_id", thresholdEvent.StockItemID.String()),
		zap.String("location_id", thresholdEvent.LocationID.String()),
		zap.String("product_id", thresholdEvent.ProductID.String()),
		zap.String("quantity", thresholdEvent.Quantity.String()),
		zap.String("min_quantity", thresholdEvent.MinQuantity.String()),
	)

	if h.notifier == nil {
		return nil
	}

	alertType := "low_stock"
	if thresholdEvent.Quantity.IsZero() {
		alertType = "out_of_stock"
	}

	alert := LowStockAlert{
		StockItemID: thresholdEvent.StockItemID.String(),
		LocationID:  thresholdEvent.LocationID.String(),
		ProductID:   thresholdEvent.ProductID.String(),
		Quantity:    thresholdEvent.Quantity.String(),
		MinQuantity: thresholdEvent.MinQuantity.String(),
		AlertType:   alertType,
	}

	if err := h.notifier.Notify(ctx, alert); err != nil {
		// notification failure must not fail event handling
		h.logger.Error("failed to deliver low stock alert",
			zap.String("stock_item_id", alert.StockItemID),
			zap.Error(err),
		)
	}

	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingLowStockNotifier logs alerts instead of delivering them.
// Useful as the default wiring in development.
type LoggingLowStockNotifier struct {
	logger *zap.Logger
}

// NewLoggingLowStockNotifier creates a new logging notifier
func NewLoggingLowStockNotifier(logger *zap.Logger) *LoggingLowStockNotifier {
	return &LoggingLowStockNotifier{logger: logger}
}

// Notify logs the alert
func (n *LoggingLowStockNotifier) Notify(ctx context.Context, alert LowStockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("location_id", alert.LocationID),
		zap.String("quantity", alert.Quantity),
		zap.String("min_quantity", alert.MinQuantity),
	)
	return nil
}

var _ LowStockNotifier = (*LoggingLowStockNotifier)(nil)
