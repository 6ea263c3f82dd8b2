package store

import (
	"errors"
	"time"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("not found")

	// ErrLoginRejected is a successful login response that carries no token.
	ErrLoginRejected = errors.New("login rejected")
)

// ShippingFee is the flat delivery charge added at checkout, in dong.
const ShippingFee resource.Price = 30000

const (
	RouteAdmin      = "/admin"
	RouteClientHome = "/client/home"
)

// CartSnapshot is an immutable view of the cart at Version.
type CartSnapshot struct {
	Items    []resource.CartItem
	Quantity int
	Version  uint64
}

// Total is the sum of line subtotals, without shipping.
func (s CartSnapshot) Total() resource.Price {
	var total resource.Price
	for _, item := range s.Items {
		total += item.Subtotal()
	}
	return total
}

// Due is what a checkout of ids costs, shipping included.
func (s CartSnapshot) Due(ids []string) resource.Price {
	total := ShippingFee
	for _, id := range ids {
		if item, ok := s.Find(id); ok {
			total += item.Subtotal()
		}
	}
	return total
}

func (s CartSnapshot) IDs() []string {
	ids := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (s CartSnapshot) Find(id string) (resource.CartItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return resource.CartItem{}, false
}

// LoginResult is what a successful login leaves behind.
type LoginResult struct {
	User    resource.User `json:"user"`
	Route   string        `json:"route"`
	Message string        `json:"message,omitempty"`
}

// Claims is the unverified content of the stored bearer token.
type Claims struct {
	Subject   string
	Username  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
