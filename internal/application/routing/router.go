package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orderbridge/backend/internal/application/inventory"
	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/fulfillment"
	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/config"
)

// InventoryChecker is the inventory gate the router consults before
// submitting an order
type InventoryChecker interface {
	CheckInventoryBatch(ctx context.Context, items []inventory.CheckItem) (*inventory.BatchResult, error)
}

// Router drives the per-order pipeline: validate, transform, inventory
// check, submit. Every attempt produces exactly one immutable RoutingResult
// appended to the audit trail.
type Router struct {
	platform    channel.SourcePlatform
	provider    fulfillment.Provider
	validator   *Validator
	transformer *Transformer
	inventory   InventoryChecker
	results     routing.ResultRepository
	cfg         config.RoutingConfig
	logger      *zap.Logger
}

// NewRouter creates the order router
func NewRouter(
	platform channel.SourcePlatform,
	provider fulfillment.Provider,
	validator *Validator,
	transformer *Transformer,
	inventoryChecker InventoryChecker,
	results routing.ResultRepository,
	cfg config.RoutingConfig,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		platform:    platform,
		provider:    provider,
		validator:   validator,
		transformer: transformer,
		inventory:   inventoryChecker,
		results:     results,
		cfg:         cfg,
		logger:      logger.Named("router"),
	}
}

// RouteOrder runs the full pipeline for one order by its source ID
func (r *Router) RouteOrder(ctx context.Context, sourceOrderID string) (*routing.Result, error) {
	order, err := r.platform.GetOrderDetail(ctx, sourceOrderID)
	if err != nil {
		result := routing.NewResult(sourceOrderID)
		result.MarkFailed(routing.StateFailed, routing.StageValidate,
			codeOrDefault(err, shared.ErrCodeProviderAPIError),
			fmt.Sprintf("failed to fetch order: %v", err))
		r.append(ctx, result)
		return result, nil
	}

	result := r.routeFetched(ctx, order)
	return result, nil
}

// RoutePendingOrders lists every pending order from the source platform and
// routes them with bounded concurrency. One bad order never aborts the
// batch; the aggregate always reports counts.
func (r *Router) RoutePendingOrders(ctx context.Context) (*routing.BatchResult, error) {
	orders, err := r.listPendingOrders(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []routing.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	concurrency := r.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i := range orders {
		order := &orders[i]

		// A caller may stop the batch between orders, never mid-order
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			result := r.routeFetched(gctx, order)
			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	batch := &routing.BatchResult{
		TotalOrders: len(results),
		Results:     results,
	}
	for _, result := range results {
		switch {
		case result.Success:
			batch.SuccessCount++
		case result.State == routing.StateSkipped:
			batch.SkippedCount++
		default:
			batch.FailedCount++
		}
	}

	r.logger.Info("routing batch finished",
		zap.Int("total", batch.TotalOrders),
		zap.Int("success", batch.SuccessCount),
		zap.Int("failed", batch.FailedCount),
		zap.Int("skipped", batch.SkippedCount),
	)

	return batch, nil
}

// listPendingOrders pages through the platform's pending orders
func (r *Router) listPendingOrders(ctx context.Context) ([]channel.SourceOrder, error) {
	status := channel.OrderStatusAwaitingShipment
	filter := channel.OrderFilter{
		Status:   &status,
		PageSize: r.cfg.PageSize,
	}

	var orders []channel.SourceOrder
	for {
		page, err := r.platform.ListPendingOrders(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending orders: %w", err)
		}
		orders = append(orders, page.Orders...)
		if !page.HasMore || page.NextCursor == "" {
			return orders, nil
		}
		filter.Cursor = page.NextCursor
	}
}

// routeFetched runs the pipeline for an already-fetched order. Each stage
// failure is tagged with the stage that produced it.
func (r *Router) routeFetched(ctx context.Context, order *channel.SourceOrder) *routing.Result {
	result := routing.NewResult(order.OrderID)
	defer r.append(ctx, result)

	// Validate
	validated, err := r.validator.Validate(order)
	if err != nil {
		if errors.Is(err, ErrOrderNotActionable) {
			result.MarkSkipped(fmt.Sprintf("status %s is not actionable", order.Status))
			return result
		}
		result.MarkFailed(routing.StateRejected, routing.StageValidate,
			codeOrDefault(err, shared.ErrCodeValidationError), err.Error())
		return result
	}
	result.State = routing.StateValidated
	for _, warning := range validated.Warnings {
		result.AddWarning(warning)
	}

	// Transform
	req, err := r.transformer.Transform(validated)
	if err != nil {
		result.MarkFailed(routing.StateFailed, routing.StageTransform,
			codeOrDefault(err, shared.ErrCodeValidationError), err.Error())
		return result
	}
	result.State = routing.StateTransformed

	// Inventory gate
	items := make([]inventory.CheckItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, inventory.CheckItem{SKU: item.SellerSKU, Quantity: int64(item.Quantity)})
	}
	batch, err := r.inventory.CheckInventoryBatch(ctx, items)
	if err != nil {
		result.MarkFailed(routing.StateInventoryBlocked, routing.StageInventory,
			shared.ErrCodeInventoryCheckFailed, err.Error())
		return result
	}
	for _, check := range batch.Results {
		if check.Err != nil {
			result.MarkFailed(routing.StateInventoryBlocked, routing.StageInventory,
				check.Err.Code, fmt.Sprintf("sku %s: %s", check.SKU, check.Err.Message))
			return result
		}
		if !check.Sufficient {
			result.MarkFailed(routing.StateInventoryBlocked, routing.StageInventory,
				shared.ErrCodeInsufficientInventory,
				fmt.Sprintf("sku %s: requested %d, available %d", check.SKU, check.Requested, check.Available))
			return result
		}
		if check.LowStock {
			result.AddWarning(fmt.Sprintf("sku %s is low on stock (%d available)", check.SKU, check.Available))
		}
	}

	// Submit. The deterministic order ID makes a repeat submission converge
	// to "already exists" on the provider side.
	result.State = routing.StateSubmitted
	if err := r.provider.CreateFulfillmentOrder(ctx, req); err != nil {
		if errors.Is(err, fulfillment.ErrOrderAlreadyExists) {
			result.AddWarning("fulfillment order already exists, treating as routed")
			result.MarkRouted(req.SellerFulfillmentOrderID)
			return result
		}
		result.MarkFailed(routing.StateFailed, routing.StageSubmit,
			codeOrDefault(err, shared.ErrCodeProviderAPIError), err.Error())
		return result
	}

	result.MarkRouted(req.SellerFulfillmentOrderID)
	r.logger.Info("order routed",
		zap.String("order_id", order.OrderID),
		zap.String("fulfillment_order_id", req.SellerFulfillmentOrderID),
	)
	return result
}

// append stores the result in the audit trail. Storage failures are logged,
// never surfaced; the routing outcome stands on its own.
func (r *Router) append(ctx context.Context, result *routing.Result) {
	if r.results == nil {
		return
	}
	if err := r.results.Append(ctx, result); err != nil {
		r.logger.Error("failed to append routing result",
			zap.String("order_id", result.OrderID),
			zap.Error(err),
		)
	}
}

// codeOrDefault extracts the domain error code, falling back when the error
// carries none
func codeOrDefault(err error, fallback string) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return fallback
}
