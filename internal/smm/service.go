package smm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"brandbuzz/internal/events"
	"brandbuzz/internal/wallet"
	"brandbuzz/pkg/logger"
	"brandbuzz/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownService    = errors.New("unknown smm service")
	ErrInsufficientFunds = errors.New("insufficient balance for this order")
)

// Pricer prices panel orders. pricing.Service satisfies it.
type Pricer interface {
	SMMCost(rate string, quantity int64) (int64, error)
}

// Ledger charges and refunds orders. wallet.Service satisfies it.
type Ledger interface {
	Debit(ctx context.Context, userID string, req wallet.PostRequest) (wallet.Transaction, error)
	Refund(ctx context.Context, userID string, req wallet.PostRequest) (wallet.Transaction, error)
}

type Service struct {
	repo     Repository
	panel    Panel
	cache    ServicesCache
	pricer   Pricer
	ledger   Ledger
	events   events.Publisher
	cacheTTL time.Duration
	clock    func() time.Time
}

func NewService(repo Repository, panel Panel, cache ServicesCache, pricer Pricer, ledger Ledger, pub events.Publisher, cacheTTL time.Duration) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Service{repo: repo, panel: panel, cache: cache, pricer: pricer, ledger: ledger, events: pub, cacheTTL: cacheTTL, clock: time.Now}
}

// Services returns the panel catalogue, served from cache when fresh.
func (s *Service) Services(ctx context.Context) ([]PanelService, error) {
	log := logger.From(ctx)
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		log.Warn("smm services cache read failed", "err", err)
	} else if ok {
		return cached, nil
	}

	list, err := s.panel.Services(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, list, s.cacheTTL); err != nil {
		log.Warn("smm services cache write failed", "err", err)
	}
	return list, nil
}

func (s *Service) lookup(ctx context.Context, id string) (PanelService, error) {
	list, err := s.Services(ctx)
	if err != nil {
		return PanelService{}, err
	}
	for _, ps := range list {
		if ps.ID.String() == id {
			return ps, nil
		}
	}
	return PanelService{}, fmt.Errorf("%w: %s", ErrUnknownService, id)
}

type OrderRequest struct {
	Service  string `json:"service"`
	Link     string `json:"link"`
	Quantity int64  `json:"quantity"`
}

func validateOrder(userID string, req OrderRequest) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Service) == "" {
		return fmt.Errorf("%w: service is required", ErrInvalidArgument)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	u, err := url.Parse(strings.TrimSpace(req.Link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: link must be an http(s) url", ErrInvalidArgument)
	}
	return nil
}

// PlaceOrder charges the user, then places the order on the panel. When the
// panel refuses, the charge is refunded and the panel error is returned.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req OrderRequest) (Order, error) {
	if err := validateOrder(userID, req); err != nil {
		return Order{}, err
	}
	req.Service = strings.TrimSpace(req.Service)
	req.Link = strings.TrimSpace(req.Link)

	ps, err := s.lookup(ctx, req.Service)
	if err != nil {
		return Order{}, err
	}
	if lo, err := ps.Min.Int64(); err == nil && lo > 0 && req.Quantity < lo {
		return Order{}, fmt.Errorf("%w: quantity below minimum %d", ErrInvalidArgument, lo)
	}
	if hi, err := ps.Max.Int64(); err == nil && hi > 0 && req.Quantity > hi {
		return Order{}, fmt.Errorf("%w: quantity above maximum %d", ErrInvalidArgument, hi)
	}

	cost, err := s.pricer.SMMCost(ps.Rate.String(), req.Quantity)
	if err != nil {
		return Order{}, fmt.Errorf("price order: %w", err)
	}

	ref := uuid.NewString()
	log := logger.From(ctx).With("user_id", userID, "service", req.Service, "ref", ref)
	_, err = s.ledger.Debit(ctx, userID, wallet.PostRequest{
		Amount:         cost,
		Description:    fmt.Sprintf("SMM order: %s x%d", ps.Name, req.Quantity),
		Reference:      ref,
		IdempotencyKey: "smm-order:" + ref,
	})
	if errors.Is(err, wallet.ErrInsufficientFunds) {
		return Order{}, ErrInsufficientFunds
	}
	if err != nil {
		return Order{}, fmt.Errorf("charge order: %w", err)
	}

	// The user is charged; the order is settled even if the request is
	// cancelled.
	ctx = context.WithoutCancel(ctx)

	panelID, err := s.panel.AddOrder(ctx, req.Service, req.Link, req.Quantity)
	if err != nil {
		if _, rerr := s.ledger.Refund(ctx, userID, wallet.PostRequest{
			Amount:         cost,
			Description:    "Refund: SMM order not placed",
			Reference:      ref,
			IdempotencyKey: "smm-refund:" + ref,
		}); rerr != nil {
			log.Error("smm refund failed", "amount", cost, "err", rerr)
		}
		return Order{}, err
	}

	now := s.clock().UTC()
	o := Order{
		UserID:       userID,
		PanelOrderID: panelID,
		Service:      req.Service,
		Link:         req.Link,
		Quantity:     req.Quantity,
		Cost:         cost,
		Status:       OrderStatusPending,
		Remains:      req.Quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, &o); err != nil {
		log.Error("smm order placed but not stored", "panel_order_id", panelID, "err", err)
		return Order{}, fmt.Errorf("store order: %w", err)
	}

	if err := s.events.Publish(ctx, events.SubjectSMMOrder, o); err != nil {
		log.Warn("smm order event publish failed", "err", err)
	}
	log.Info("smm order placed", "panel_order_id", panelID, "cost", cost)
	return o, nil
}

// Status refreshes a stored order from the panel.
func (s *Service) Status(ctx context.Context, userID, orderID string) (Order, error) {
	if userID == "" || orderID == "" {
		return Order{}, fmt.Errorf("%w: userId and orderId are required", ErrInvalidArgument)
	}
	o, err := s.repo.FindByID(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}
	ps, err := s.panel.Status(ctx, o.PanelOrderID)
	if err != nil {
		return Order{}, err
	}

	patch := StatusPatch{Status: normalizeStatus(ps.Status), Remains: o.Remains, StartCount: o.StartCount}
	if v, err := ps.Remains.Int64(); err == nil {
		patch.Remains = v
	}
	if v, err := ps.StartCount.Int64(); err == nil {
		patch.StartCount = v
	}
	return s.repo.UpdateStatus(ctx, userID, orderID, patch)
}

type Page struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, userID string, page, limit int) (Page, error) {
	if userID == "" {
		return Page{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	skip, size, page, limit := utils.Page(page, limit)
	orders, total, err := s.repo.List(ctx, userID, skip, size)
	if err != nil {
		return Page{}, err
	}
	return Page{Orders: orders, Page: page, Limit: limit, Total: total, TotalPages: utils.TotalPages(total, limit)}, nil
}
