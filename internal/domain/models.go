package domain

import "time"

type Product struct {
	ID         string `json:"id"`
	Barcode    string `json:"barcode,omitempty"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

type ProductCreateRequest struct {
	Barcode    string `json:"barcode,omitempty"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

type ProductUpdateRequest struct {
	Barcode    *string `json:"barcode,omitempty"`
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	Stock      *int    `json:"stock,omitempty"`
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountNominal    DiscountType = "NOMINAL"
)

// Discount is the cart-level discount configuration. Both fields are always
// set together; Value is a percentage for PERCENTAGE and cents for NOMINAL.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value int64        `json:"value"`
}

// LineItem is one product-plus-quantity entry in the active cart. It holds a
// non-owning reference into the catalog; prices are resolved on read.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type TransactionLine struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// Transaction is the immutable record produced by a successful commit. It
// never shares state with the live cart.
type Transaction struct {
	ID                  string            `json:"id"`
	Items               []TransactionLine `json:"items"`
	SubtotalCents       int64             `json:"subtotal_cents"`
	DiscountType        DiscountType      `json:"discount_type"`
	DiscountValue       int64             `json:"discount_value"`
	DiscountAmountCents int64             `json:"discount_amount_cents"`
	TaxCents            int64             `json:"tax_cents"`
	TotalCents          int64             `json:"total_cents"`
	PaymentAmountCents  int64             `json:"payment_amount_cents"`
	ChangeCents         int64             `json:"change_cents"`
	PaymentMethod       string            `json:"payment_method"`
	CreatedAt           time.Time         `json:"created_at"`
}

type CartLineView struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type CartView struct {
	TerminalID          string         `json:"terminal_id"`
	Items               []CartLineView `json:"items"`
	ItemCount           int            `json:"item_count"`
	SubtotalCents       int64          `json:"subtotal_cents"`
	DiscountType        DiscountType   `json:"discount_type"`
	DiscountValue       int64          `json:"discount_value"`
	DiscountAmountCents int64          `json:"discount_amount_cents"`
	TaxCents            int64          `json:"tax_cents"`
	TotalCents          int64          `json:"total_cents"`
	PaymentAmountCents  int64          `json:"payment_amount_cents"`
	ChangeCents         int64          `json:"change_cents"`
	StockClamped        bool           `json:"stock_clamped,omitempty"`
}

type AddItemRequest struct {
	TerminalID string `json:"terminal_id"`
	ProductID  string `json:"product_id,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
}

type UpdateQuantityRequest struct {
	TerminalID string `json:"terminal_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

type RemoveItemRequest struct {
	TerminalID string `json:"terminal_id"`
	ProductID  string `json:"product_id"`
}

type SetDiscountRequest struct {
	TerminalID string       `json:"terminal_id"`
	Type       DiscountType `json:"type"`
	Value      int64        `json:"value"`
}

type SetPaymentRequest struct {
	TerminalID  string `json:"terminal_id"`
	AmountCents int64  `json:"amount_cents"`
}

type CheckoutRequest struct {
	TerminalID    string `json:"terminal_id"`
	PaymentMethod string `json:"payment_method"`
}

type CheckoutResponse struct {
	Committed   bool         `json:"committed"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// ScanKey is one raw keystroke from a barcode scanner acting as a keyboard.
type ScanKey struct {
	Key  string `json:"key"`
	AtMS int64  `json:"at_ms"`
}

type ScanRequest struct {
	TerminalID string    `json:"terminal_id"`
	Barcode    string    `json:"barcode,omitempty"`
	Keys       []ScanKey `json:"keys,omitempty"`
}

type DailyReport struct {
	Date            string `json:"date"`
	Transactions    int64  `json:"transactions"`
	GrossSalesCents int64  `json:"gross_sales_cents"`
	DiscountCents   int64  `json:"discount_cents"`
	TaxCents        int64  `json:"tax_cents"`
	NetSalesCents   int64  `json:"net_sales_cents"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
