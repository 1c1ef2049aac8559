package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance-core/variable-repository/application"
	domainerrors "agora/contexts/governance-core/variable-repository/domain/errors"
	httptransport "agora/contexts/governance-core/variable-repository/transport/http"
)

type Handler struct {
	Variables application.Service
	Logger    *slog.Logger
}

func (h Handler) UpdateVariableHandler(ctx context.Context, caller string, key string, req httptransport.UpdateVariableRequest) error {
	var activation *time.Time
	if req.ActivationTime != "" {
		at, err := time.Parse(time.RFC3339, req.ActivationTime)
		if err != nil {
			return domainerrors.ErrInvalidRequest
		}
		activation = &at
	}
	return h.Variables.Update(ctx, caller, key, req.Value, activation)
}

func (h Handler) VariableHandler(ctx context.Context, key string) (httptransport.VariableResponse, error) {
	value, err := h.Variables.Get(ctx, key)
	if err != nil {
		return httptransport.VariableResponse{}, err
	}
	return httptransport.VariableResponse{Key: key, Value: value}, nil
}

func (h Handler) ListVariablesHandler(ctx context.Context) (httptransport.VariableListResponse, error) {
	records, err := h.Variables.List(ctx)
	if err != nil {
		return httptransport.VariableListResponse{}, err
	}
	items := make([]httptransport.VariableResponse, 0, len(records))
	for _, record := range records {
		item := httptransport.VariableResponse{
			Key:         record.Key,
			Value:       record.Value,
			FutureValue: record.FutureValue,
		}
		if record.ActivationTime != nil {
			item.ActivationTime = record.ActivationTime.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return httptransport.VariableListResponse{Items: items}, nil
}
