package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"kedaipos/backend/internal/barcode"
	"kedaipos/backend/internal/cart"
	"kedaipos/backend/internal/checkout"
	"kedaipos/backend/internal/display"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
	"kedaipos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// session pairs a register's cart with its own lock. Each cart is mutated by
// one request at a time; different terminals never contend.
type session struct {
	mu   sync.Mutex
	cart *cart.Cart
}

type Service struct {
	repo      store.Repository
	notifier  display.Notifier
	committer *checkout.Committer
	taxRate   float64

	mu       sync.Mutex
	sessions map[string]*session
}

func New(repo store.Repository, notifier display.Notifier, taxRate float64) *Service {
	if notifier == nil {
		notifier = display.NoopNotifier{}
	}
	if taxRate < 0 || taxRate > 1 {
		taxRate = 0.10
	}

	return &Service{
		repo:      repo,
		notifier:  notifier,
		committer: checkout.New(repo, repo, notifier),
		taxRate:   taxRate,
		sessions:  make(map[string]*session),
	}
}

func (s *Service) sessionFor(terminalID string) (*session, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[terminalID]
	if !ok {
		sess = &session{cart: cart.New(terminalID, s.repo, s.notifier, s.taxRate)}
		s.sessions[terminalID] = sess
	}
	return sess, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" || req.PriceCents < 1 || req.Stock < 0 {
		return domain.Product{}, store.ErrInvalid
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:         xid.New("prd"),
		Barcode:    req.Barcode,
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.PriceCents, created.Stock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalid
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalid
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, store.ErrInvalid
		}
		updated.Category = category
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrInvalid
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalid
		}
		updated.Stock = *req.Stock
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", saved.Name, saved.PriceCents, saved.Stock))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalid
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) GetCart(ctx context.Context, terminalID string) (domain.CartView, error) {
	sess, err := s.sessionFor(terminalID)
	if err != nil {
		return domain.CartView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.cart.View(ctx)
}

// AddItem resolves the product by id or barcode and adds one unit to the
// terminal's cart.
func (s *Service) AddItem(ctx context.Context, req domain.AddItemRequest) (domain.CartView, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CartView{}, err
	}

	var product *domain.Product
	switch {
	case strings.TrimSpace(req.ProductID) != "":
		product, err = s.repo.GetProductByID(ctx, strings.TrimSpace(req.ProductID))
	case strings.TrimSpace(req.Barcode) != "":
		product, err = s.repo.FindProductByBarcode(ctx, strings.TrimSpace(req.Barcode))
	default:
		return domain.CartView{}, store.ErrInvalid
	}
	if err != nil {
		return domain.CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.cart.AddItem(ctx, *product); err != nil {
		return domain.CartView{}, err
	}
	return sess.cart.View(ctx)
}

// Scan accepts either a decoded barcode or the raw keystroke stream from a
// scanner in keyboard-wedge mode. Keystrokes are replayed through the decoder
// at their recorded timestamps.
func (s *Service) Scan(ctx context.Context, req domain.ScanRequest) (domain.CartView, error) {
	code := strings.TrimSpace(req.Barcode)
	if code == "" && len(req.Keys) > 0 {
		decoder := barcode.NewDecoder()
		for _, key := range req.Keys {
			if decoded, ok := decoder.Feed(key.Key, time.UnixMilli(key.AtMS)); ok {
				code = decoded
				break
			}
		}
	}
	if code == "" {
		return domain.CartView{}, fmt.Errorf("%w: no barcode decoded", store.ErrInvalid)
	}

	return s.AddItem(ctx, domain.AddItemRequest{TerminalID: req.TerminalID, Barcode: code})
}

func (s *Service) UpdateQuantity(ctx context.Context, req domain.UpdateQuantityRequest) (domain.CartView, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	clamped, err := sess.cart.UpdateQuantity(ctx, strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		return domain.CartView{}, err
	}

	view, err := sess.cart.View(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	view.StockClamped = clamped
	return view, nil
}

func (s *Service) DecreaseQuantity(ctx context.Context, req domain.RemoveItemRequest) (domain.CartView, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	clamped, err := sess.cart.DecreaseQuantity(ctx, strings.TrimSpace(req.ProductID))
	if err != nil {
		return domain.CartView{}, err
	}

	view, err := sess.cart.View(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	view.StockClamped = clamped
	return view, nil
}

func (s *Service) RemoveItem(ctx context.Context, req domain.RemoveItemRequest) (domain.CartView, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.cart.RemoveItem(ctx, strings.TrimSpace(req.ProductID)); err != nil {
		return domain.CartView{}, err
	}
	return sess.cart.View(ctx)
}

func (s *Service) SetDiscount(ctx context.Context, req domain.SetDiscountRequest) (domain.CartView, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.cart.SetDiscount(ctx, req.Value, req.Type); err != nil {
		return domain.CartView{}, fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	return sess.cart.View(ctx)
}

func (s *Service) SetPayment(ctx context.Context, req domain.SetPaymentRequest) (domain.CartView, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CartView{}, err
	}
	if req.AmountCents < 0 {
		return domain.CartView{}, store.ErrInvalid
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.SetPaymentAmount(req.AmountCents)
	return sess.cart.View(ctx)
}

func (s *Service) ClearCart(ctx context.Context, terminalID string) (domain.CartView, error) {
	sess, err := s.sessionFor(terminalID)
	if err != nil {
		return domain.CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.Clear(ctx)
	return sess.cart.View(ctx)
}

// Checkout commits the terminal's cart. An empty cart yields Committed=false
// with no transaction rather than an error.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	sess, err := s.sessionFor(req.TerminalID)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	created, err := s.committer.Commit(ctx, sess.cart, strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	if created == nil {
		return domain.CheckoutResponse{Committed: false}, nil
	}

	s.logAudit(ctx, "checkout", "transaction", created.ID, fmt.Sprintf("terminal=%s,total=%d,payment=%s", req.TerminalID, created.TotalCents, created.PaymentMethod))
	return domain.CheckoutResponse{Committed: true, Transaction: created}, nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Transaction{}, store.ErrInvalid
	}
	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	var day time.Time
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return domain.DailyReport{}, store.ErrInvalid
		}
		day = parsed.UTC()
	}
	from := day
	to := from.Add(24 * time.Hour)

	transactions, err := s.repo.ListTransactions(ctx, from, to, 10000)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report := domain.DailyReport{Date: from.Format("2006-01-02")}
	for _, tx := range transactions {
		report.Transactions++
		report.GrossSalesCents += tx.SubtotalCents
		report.DiscountCents += tx.DiscountAmountCents
		report.TaxCents += tx.TaxCents
		report.NetSalesCents += tx.TotalCents
	}
	return report, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalid
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
