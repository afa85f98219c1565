package usecase

import (
	"context"
	"encoding/json"

	"bullion_backend/internal/feature/quotes/domain/entity"
)

// QuoteRepository fetches raw upstream responses.
// Implementations: the alltick HTTP client, and the caching decorator wrapping it.
type QuoteRepository interface {
	FetchTicks(ctx context.Context, req entity.TickRequest) (entity.RawResponse, error)
	FetchKlines(ctx context.Context, req entity.KlineRequest) (entity.RawResponse, error)
}

// ResponseDecoder turns raw upstream bodies into domain entities.
// Records with absent or malformed prices are skipped, never defaulted.
type ResponseDecoder interface {
	DecodeTicks(body json.RawMessage) ([]entity.Tick, error)
	DecodeKlines(body json.RawMessage) ([]entity.KlineBar, error)
}
