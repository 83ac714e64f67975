package grpc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/fundquota-backend/internal/domain"
	"github.com/simaogato/fundquota-backend/internal/usecase/dashboard"
	"github.com/simaogato/fundquota-backend/internal/usecase/investor"
)

// fields reads typed values out of a request Struct
type fields struct {
	s *structpb.Struct
}

func (f fields) value(key string) *structpb.Value {
	if f.s == nil {
		return nil
	}
	return f.s.GetFields()[key]
}

func (f fields) str(key string) string {
	v := f.value(key)
	if v == nil {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		return ""
	}
}

// number parses a decimal given as a string (comma or dot separator) or a number
func (f fields) number(key string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(f.str(key), ",", ".")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", domain.ErrInvalidAmount, key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidAmount, key, raw)
	}
	return d, nil
}

// optionalNumber is number for a field that may be omitted; absent yields nil
func (f fields) optionalNumber(key string) (*decimal.Decimal, error) {
	if f.str(key) == "" {
		return nil, nil
	}
	d, err := f.number(key)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// amount parses a strictly positive decimal
func (f fields) amount(key string) (decimal.Decimal, error) {
	raw := f.str(key)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", domain.ErrInvalidAmount, key)
	}
	d, err := domain.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// date parses an optional ISO date; absent means the zero time
func (f fields) date(key string) (time.Time, error) {
	raw := f.str(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(raw)
}

func (f fields) integer(key string) (int64, error) {
	raw := f.str(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

func (f fields) id(key string) (uuid.UUID, error) {
	raw := f.str(key)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", domain.ErrInvalidInput, key)
	}
	return id, nil
}

func (f fields) object(key string) map[string]*structpb.Value {
	v := f.value(key)
	if v == nil || v.GetStructValue() == nil {
		return nil
	}
	return v.GetStructValue().GetFields()
}

func formatInstant(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func movementToMap(m *domain.Movement) map[string]any {
	return map[string]any{
		"id":            strconv.FormatInt(m.ID, 10),
		"date":          domain.FormatDate(m.Date),
		"investor_name": m.InvestorName,
		"kind":          string(m.Kind),
		"cash_amount":   m.CashAmount.String(),
		"quota_at_time": m.QuotaAtTime.String(),
		"share_delta":   m.ShareDelta.String(),
		"ticker_ref":    m.TickerRef,
	}
}

func positionToMap(p *domain.AssetPosition) map[string]any {
	return map[string]any{
		"ticker":        p.Ticker,
		"quantity":      p.Quantity.String(),
		"average_cost":  p.AverageCost.String(),
		"current_price": p.CurrentPrice.String(),
		"stop_loss":     p.StopLoss.String(),
		"category":      string(p.Category),
		"market_value":  p.MarketValue().String(),
		"priced_at":     formatInstant(p.PricedAt),
	}
}

func positionViewToMap(v dashboard.PositionView) map[string]any {
	m := positionToMap(&v.AssetPosition)
	m["market_value"] = v.MarketValue.String()
	return m
}

func investorToMap(r investor.Row) map[string]any {
	return map[string]any{
		"investor_name": r.InvestorName,
		"shares":        r.Shares.String(),
		"average_cost":  r.AverageCost.String(),
		"return_pct":    r.ReturnPct.StringFixed(2),
	}
}

func quotaPointToMap(p *domain.QuotaPoint) map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"date":  domain.FormatDate(p.Date),
		"quota": p.Value.String(),
	}
}

func list[T any](items []T, conv func(T) map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, conv(item))
	}
	return out
}

// reply encodes a response map into a Struct
func reply(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return s, nil
}
