package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/pricing"
)

// QuoteSource is the part of QuoteUsecase a Board needs.
type QuoteSource interface {
	Ticks(ctx context.Context, req entity.TickRequest) (entity.TickSnapshot, error)
	Klines(ctx context.Context, req entity.KlineRequest) (entity.KlineSeries, error)
}

var _ QuoteSource = (*QuoteUsecase)(nil)

// BoardConfig configures one instrument's board.
type BoardConfig struct {
	Instrument    entity.Instrument
	IsStock       bool
	KlineType     entity.KlineType // 0 = one-minute bars
	KlineNum      int              // 0 = entity.DefaultKlineNum
	SpreadPercent decimal.Decimal  // zero = pricing.DefaultSpreadPercent
	Poll          PollerConfig
}

// Board polls ticks and klines for a single instrument and derives its display quote.
type Board struct {
	cfg    BoardConfig
	ticks  *Poller[entity.TickSnapshot]
	klines *Poller[entity.KlineSeries]
}

// NewBoard はsrcを取得元とするBoardを生成します。ポーリングはStartまで開始しません。
func NewBoard(src QuoteSource, cfg BoardConfig, log *slog.Logger) *Board {
	if log == nil {
		log = slog.Default()
	}
	code := cfg.Instrument.Code
	tickReq := entity.TickRequest{Codes: []string{code}, IsStock: cfg.IsStock}
	klineReq := entity.KlineRequest{Code: code, Type: cfg.KlineType, Num: cfg.KlineNum, IsStock: cfg.IsStock}.WithDefaults()

	return &Board{
		cfg: cfg,
		ticks: NewPoller(code+"/tick", func(ctx context.Context) (entity.TickSnapshot, error) {
			return src.Ticks(ctx, tickReq)
		}, cfg.Poll, log),
		klines: NewPoller(code+"/kline", func(ctx context.Context) (entity.KlineSeries, error) {
			return src.Klines(ctx, klineReq)
		}, cfg.Poll, log),
	}
}

// Instrument returns the instrument this board tracks.
func (b *Board) Instrument() entity.Instrument { return b.cfg.Instrument }

// Start begins polling both endpoints.
func (b *Board) Start(ctx context.Context) {
	b.ticks.Start(ctx)
	b.klines.Start(ctx)
}

// Stop stops both pollers.
func (b *Board) Stop() {
	b.ticks.Stop()
	b.klines.Stop()
}

// Refresh fetches both endpoints now. It reports whether at least one fetch ran.
func (b *Board) Refresh(ctx context.Context) bool {
	var wg sync.WaitGroup
	var tickRan, klineRan bool
	wg.Add(2)
	go func() { defer wg.Done(); tickRan = b.ticks.Refresh(ctx) }()
	go func() { defer wg.Done(); klineRan = b.klines.Refresh(ctx) }()
	wg.Wait()
	return tickRan || klineRan
}

// TickState returns the tick poller snapshot.
func (b *Board) TickState() State[entity.TickSnapshot] { return b.ticks.State() }

// KlineState returns the kline poller snapshot.
func (b *Board) KlineState() State[entity.KlineSeries] { return b.klines.State() }

// Quote builds the display quote from the latest poller states.
func (b *Board) Quote() entity.DisplayQuote {
	in := pricing.Input{Instrument: b.cfg.Instrument, SpreadPercent: b.cfg.SpreadPercent}
	if ts := b.ticks.State(); ts.Data != nil {
		if t, ok := ts.Data.Find(b.cfg.Instrument.Code); ok {
			in.Tick = &t
			in.TickAt = ts.Data.FetchedAt
			in.Stale = ts.Data.Stale
		}
	}
	if ks := b.klines.State(); ks.Data != nil {
		in.Bars = ks.Data.Bars
		in.Stale = in.Stale || ks.Data.Stale
	}
	return pricing.BuildDisplayQuote(in)
}

// Klines returns the latest bar series. Before any successful fetch it returns the
// poller's last error, or domain.ErrNoData when nothing has been attempted.
func (b *Board) Klines() (entity.KlineSeries, error) {
	s := b.klines.State()
	if s.Data != nil {
		return *s.Data, nil
	}
	if s.Err != nil {
		return entity.KlineSeries{}, s.Err
	}
	return entity.KlineSeries{}, domain.ErrNoData
}

// CacheClearer drops every cached upstream response.
type CacheClearer interface {
	ClearAll(ctx context.Context)
}

// Dashboard groups independent boards. A failing board never affects the others.
type Dashboard struct {
	boards []*Board
	byCode map[string]*Board
	cache  CacheClearer
}

// NewDashboard indexes boards by upper-cased instrument code. cache may be nil.
func NewDashboard(boards []*Board, cache CacheClearer) *Dashboard {
	byCode := make(map[string]*Board, len(boards))
	for _, b := range boards {
		byCode[strings.ToUpper(b.Instrument().Code)] = b
	}
	return &Dashboard{boards: boards, byCode: byCode, cache: cache}
}

// Start starts every board.
func (d *Dashboard) Start(ctx context.Context) {
	for _, b := range d.boards {
		b.Start(ctx)
	}
}

// Stop stops every board.
func (d *Dashboard) Stop() {
	for _, b := range d.boards {
		b.Stop()
	}
}

// Instruments lists the tracked instruments in board order.
func (d *Dashboard) Instruments() []entity.Instrument {
	out := make([]entity.Instrument, 0, len(d.boards))
	for _, b := range d.boards {
		out = append(out, b.Instrument())
	}
	return out
}

// Quotes returns one display quote per board, in board order.
func (d *Dashboard) Quotes() []entity.DisplayQuote {
	out := make([]entity.DisplayQuote, 0, len(d.boards))
	for _, b := range d.boards {
		out = append(out, b.Quote())
	}
	return out
}

// Quote returns the display quote for code (case-insensitive).
func (d *Dashboard) Quote(code string) (entity.DisplayQuote, error) {
	b, err := d.board(code)
	if err != nil {
		return entity.DisplayQuote{}, err
	}
	return b.Quote(), nil
}

// Klines returns the latest bar series for code.
func (d *Dashboard) Klines(code string) (entity.KlineSeries, error) {
	b, err := d.board(code)
	if err != nil {
		return entity.KlineSeries{}, err
	}
	return b.Klines()
}

// Refresh fetches code's tick and kline data now and returns the resulting quote.
func (d *Dashboard) Refresh(ctx context.Context, code string) (entity.DisplayQuote, error) {
	b, err := d.board(code)
	if err != nil {
		return entity.DisplayQuote{}, err
	}
	b.Refresh(ctx)
	return b.Quote(), nil
}

// ClearCache drops every cached tick and kline response. Poller states are kept.
func (d *Dashboard) ClearCache(ctx context.Context) {
	if d.cache != nil {
		d.cache.ClearAll(ctx)
	}
}

// Ready reports whether every board is polling and at least one has a quote.
func (d *Dashboard) Ready() bool {
	available := false
	for _, b := range d.boards {
		if !b.ticks.Running() {
			return false
		}
		if b.Quote().Available {
			available = true
		}
	}
	return available
}

func (d *Dashboard) board(code string) (*Board, error) {
	b, ok := d.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownInstrument, code)
	}
	return b, nil
}
