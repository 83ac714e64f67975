package grpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/contribution"
	"github.com/simaogato/fundquota-backend/internal/usecase/dashboard"
	"github.com/simaogato/fundquota-backend/internal/usecase/editor"
	"github.com/simaogato/fundquota-backend/internal/usecase/investor"
	"github.com/simaogato/fundquota-backend/internal/usecase/marking"
	"github.com/simaogato/fundquota-backend/internal/usecase/trade"
	"github.com/simaogato/fundquota-backend/internal/usecase/updatecheck"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// Server implements the FundService gRPC server
type Server struct {
	ContributionService *contribution.ContributionService
	TradeService        *trade.TradeService
	MarkingService      *marking.MarkingService
	DashboardService    *dashboard.DashboardService
	InvestorService     *investor.InvestorService
	ValuationService    *valuation.ValuationService
	EditorService       *editor.EditorService
	UpdateService       *updatecheck.UpdateService // Optional; CheckForUpdates is unimplemented without it
}

var _ FundServiceServer = (*Server)(nil)

// RecordMovement handles the RecordMovement RPC
func (s *Server) RecordMovement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}

	date, err := f.date("date")
	if err != nil {
		return nil, mapError(err)
	}

	kind, err := domain.ParseMovementKind(f.str("kind"))
	if err != nil {
		return nil, mapError(err)
	}

	amount, err := f.amount("cash_amount")
	if err != nil {
		return nil, mapError(err)
	}

	markID, err := f.id("mark_id")
	if err != nil {
		return nil, mapError(err)
	}

	movement, err := s.ContributionService.RecordMovement(ctx, contribution.RecordMovementInput{
		Date:         date,
		InvestorName: f.str("investor_name"),
		Kind:         kind,
		CashAmount:   amount,
		TickerRef:    f.str("ticker_ref"),
		MarkID:       markID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"movement": movementToMap(movement)})
}

// Buy handles the Buy RPC
func (s *Server) Buy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := tradeInput(fields{req})
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.TradeService.Buy(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return tradeReply(result)
}

// Sell handles the Sell RPC
func (s *Server) Sell(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := tradeInput(fields{req})
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.TradeService.Sell(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return tradeReply(result)
}

func tradeInput(f fields) (trade.TradeInput, error) {
	date, err := f.date("date")
	if err != nil {
		return trade.TradeInput{}, err
	}

	quantity, err := f.amount("quantity")
	if err != nil {
		return trade.TradeInput{}, err
	}

	price, err := f.amount("price")
	if err != nil {
		return trade.TradeInput{}, err
	}

	return trade.TradeInput{
		Date:     date,
		Ticker:   f.str("ticker"),
		Quantity: quantity,
		Price:    price,
	}, nil
}

func tradeReply(result *trade.TradeResult) (*structpb.Struct, error) {
	var position any
	if result.Position != nil {
		position = positionToMap(result.Position)
	}

	return reply(map[string]any{
		"position": position,
		"cash":     result.Cash.String(),
		"quota":    quotaPointToMap(result.Quota),
	})
}

// PendingPrices handles the PendingPrices RPC
func (s *Server) PendingPrices(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	positions, err := s.MarkingService.PendingPrices(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"positions": list(positions, positionToMap)})
}

// MarkToMarket handles the MarkToMarket RPC
// Request: {"prices": {"<ticker>": "<price>", ...}}
func (s *Server) MarkToMarket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := fields{&structpb.Struct{Fields: fields{req}.object("prices")}}

	prices := make(map[string]decimal.Decimal, len(raw.s.Fields))
	for ticker := range raw.s.Fields {
		price, err := raw.amount(ticker)
		if err != nil {
			return nil, mapError(err)
		}
		prices[ticker] = price
	}

	result, err := s.MarkingService.Mark(ctx, prices)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{
		"mark_id":   result.Mark.ID.String(),
		"marked_at": formatInstant(result.Mark.MarkedAt),
		"updated":   list(result.Updated, positionToMap),
		"quota":     quotaPointToMap(result.Quota),
	})
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.DashboardService.Summary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{
		"net_asset_value": summary.NetAssetValue.String(),
		"quota":           summary.Quota.String(),
		"free_cash":       summary.FreeCash.String(),
		"total_shares":    summary.TotalShares.String(),
		"investors":       list(summary.Investors, investorToMap),
	})
}

// ListInvestorPositions handles the ListInvestorPositions RPC
func (s *Server) ListInvestorPositions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rows, err := s.InvestorService.Report(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"investors": list(rows, investorToMap)})
}

// GetInvestorPosition handles the GetInvestorPosition RPC
func (s *Server) GetInvestorPosition(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	row, err := s.InvestorService.Position(ctx, fields{req}.str("investor_name"))
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"investor": investorToMap(*row)})
}

// ListQuotaHistory handles the ListQuotaHistory RPC
func (s *Server) ListQuotaHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	points, err := s.DashboardService.QuotaSeries(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"points": list(points, quotaPointToMap)})
}

// RecordQuotaHistory handles the RecordQuotaHistory RPC
func (s *Server) RecordQuotaHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := fields{req}.date("date")
	if err != nil {
		return nil, mapError(err)
	}

	point, err := s.ValuationService.RecordQuotaHistory(ctx, date)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"point": quotaPointToMap(point)})
}

// ListMovements handles the ListMovements RPC
func (s *Server) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := fields{req}.integer("limit")
	if err != nil {
		return nil, mapError(err)
	}

	movements, err := s.DashboardService.RecentMovements(ctx, int(limit))
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"movements": list(movements, movementToMap)})
}

// ListPositions handles the ListPositions RPC
func (s *Server) ListPositions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	views, err := s.DashboardService.Positions(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"positions": list(views, positionViewToMap)})
}

// UpdateMovement handles the UpdateMovement RPC
func (s *Server) UpdateMovement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}

	id, err := f.integer("id")
	if err != nil {
		return nil, mapError(err)
	}

	date, err := f.date("date")
	if err != nil {
		return nil, mapError(err)
	}
	if date.IsZero() {
		return nil, mapError(fmt.Errorf("%w: date is required", domain.ErrInvalidInput))
	}

	kind, err := domain.ParseMovementKind(f.str("kind"))
	if err != nil {
		return nil, mapError(err)
	}

	cash, err := f.amount("cash_amount")
	if err != nil {
		return nil, mapError(err)
	}

	quota, err := f.amount("quota_at_time")
	if err != nil {
		return nil, mapError(err)
	}

	delta, err := f.number("share_delta")
	if err != nil {
		return nil, mapError(err)
	}

	movement := &domain.Movement{
		ID:           id,
		Date:         date,
		InvestorName: f.str("investor_name"),
		Kind:         kind,
		CashAmount:   cash,
		QuotaAtTime:  quota,
		ShareDelta:   delta,
		TickerRef:    f.str("ticker_ref"),
	}

	if err := s.EditorService.UpdateMovement(ctx, movement); err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"movement": movementToMap(movement)})
}

// DeleteMovement handles the DeleteMovement RPC
func (s *Server) DeleteMovement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := fields{req}.integer("id")
	if err != nil {
		return nil, mapError(err)
	}

	if err := s.EditorService.DeleteMovement(ctx, id); err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"deleted": strconv.FormatInt(id, 10)})
}

// UpdatePosition handles the UpdatePosition RPC
// Only the fields present in the request are changed.
func (s *Server) UpdatePosition(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := fields{req}
	patch := editor.PositionPatch{Ticker: f.str("ticker")}

	var err error
	if patch.Quantity, err = f.optionalNumber("quantity"); err != nil {
		return nil, mapError(err)
	}
	if patch.AverageCost, err = f.optionalNumber("average_cost"); err != nil {
		return nil, mapError(err)
	}
	if patch.CurrentPrice, err = f.optionalNumber("current_price"); err != nil {
		return nil, mapError(err)
	}
	if patch.StopLoss, err = f.optionalNumber("stop_loss"); err != nil {
		return nil, mapError(err)
	}
	if category := f.str("category"); category != "" {
		c := domain.Category(category)
		patch.Category = &c
	}

	position, err := s.EditorService.UpdatePosition(ctx, patch)
	if err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"position": positionToMap(position)})
}

// DeletePosition handles the DeletePosition RPC
func (s *Server) DeletePosition(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ticker := fields{req}.str("ticker")

	if err := s.EditorService.DeletePosition(ctx, ticker); err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"deleted": domain.NormalizeTicker(ticker)})
}

// CheckForUpdates handles the CheckForUpdates RPC
func (s *Server) CheckForUpdates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.UpdateService == nil {
		return nil, status.Error(codes.Unimplemented, "update checks are disabled")
	}

	result, err := s.UpdateService.Check(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "update check failed: %v", err)
	}

	return reply(map[string]any{
		"latest":  result.Latest,
		"current": result.Current,
		"url":     result.URL,
		"newer":   result.Newer,
	})
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()

	// Malformed requests
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, errorMsg)

	// Well-formed requests the ledger state cannot satisfy
	case errors.Is(err, domain.ErrInsufficientCash),
		errors.Is(err, domain.ErrInsufficientQuantity),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrStalePrices),
		errors.Is(err, domain.ErrInvalidPosition):
		return status.Error(codes.FailedPrecondition, errorMsg)

	case errors.Is(err, domain.ErrNoSuchPosition),
		errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, errorMsg)

	case errors.Is(err, domain.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, errorMsg)
}
