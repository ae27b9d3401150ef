// Package replenish adds inventory items that fall to low stock onto the
// inventory's default grocery list.
package replenish

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/grocery"
	"github.com/dukerupert/pantry/internal/metrics"
	"github.com/dukerupert/pantry/internal/model"
)

// AutoAddNote marks list entries created by replenishment.
const AutoAddNote = "Auto-added from low stock inventory"

type Outcome string

const (
	OutcomeSkipped         Outcome = "skipped"
	OutcomeAlreadyListed   Outcome = "already_listed"
	OutcomeAdded           Outcome = "added"
	OutcomeListUnavailable Outcome = "list_unavailable"
	OutcomeFailed          Outcome = "failed"
)

// Mutation describes one committed change to an inventory item.
// WasLowStock is the item's flag before the change; a newly created item
// counts as not low.
type Mutation struct {
	Actor       string
	Inventory   *model.Inventory
	Item        *model.InventoryItem
	WasLowStock bool
}

// ListAdder is satisfied by *grocery.Service.
type ListAdder interface {
	AddIfMissing(ctx context.Context, actor, listID string, d grocery.ItemDraft) (bool, error)
}

type Engine struct {
	lists   ListAdder
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewEngine(lists ListAdder, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		lists:   lists,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("github.com/dukerupert/pantry/internal/replenish"),
	}
}

// AfterMutation runs after the inventory change has been saved. It never
// fails: list problems are logged and reported in the returned Outcome.
func (e *Engine) AfterMutation(ctx context.Context, m Mutation) Outcome {
	ctx, span := e.tracer.Start(ctx, "replenish.AfterMutation", trace.WithAttributes(
		attribute.String("inventory.id", m.Inventory.ID),
		attribute.String("item.id", m.Item.ID),
	))
	defer span.End()

	outcome := e.run(ctx, span, m)
	span.SetAttributes(attribute.String("replenish.outcome", string(outcome)))
	e.metrics.Replenishment(string(outcome))
	return outcome
}

func (e *Engine) run(ctx context.Context, span trace.Span, m Mutation) Outcome {
	item := m.Item
	settings := m.Inventory.Settings
	isLow := item.Quantity <= item.LowStockThreshold

	if !settings.AutoAddToGroceryList || settings.DefaultGroceryListID == "" {
		return OutcomeSkipped
	}
	if m.WasLowStock || !isLow {
		return OutcomeSkipped
	}

	one := 1.0
	added, err := e.lists.AddIfMissing(ctx, m.Actor, settings.DefaultGroceryListID, grocery.ItemDraft{
		ProductID: item.ProductID,
		Name:      item.Name,
		Category:  item.Category,
		Quantity:  &one,
		Unit:      item.Unit,
		Notes:     AutoAddNote,
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound, apperr.KindForbidden:
			e.logger.Warn("default grocery list unavailable",
				"inventory_id", m.Inventory.ID,
				"list_id", settings.DefaultGroceryListID,
				"actor", m.Actor,
				"error", err,
			)
			return OutcomeListUnavailable
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "add to grocery list")
		e.logger.Error("replenish grocery list", "inventory_id", m.Inventory.ID, "item_id", item.ID, "error", err)
		return OutcomeFailed
	}
	if !added {
		return OutcomeAlreadyListed
	}
	e.logger.Info("low stock item added to grocery list",
		"inventory_id", m.Inventory.ID,
		"item", item.Name,
		"list_id", settings.DefaultGroceryListID,
	)
	return OutcomeAdded
}
