package resource

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Dmitrij-bot/vinabook/internal/client"
)

// Price is an amount in minor currency units (VND has none, so dong).
// The API sends it as a JSON number or as a numeric string.
type Price int64

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}

	s := strings.Trim(string(data), `"`)
	if s == "" {
		*p = 0
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*p = Price(n)
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	*p = Price(math.Round(f))
	return nil
}

type CartStatus string

const (
	CartPending   CartStatus = "pending"
	CartCompleted CartStatus = "completed"
)

// BookSnapshot is the copy of a book embedded in a cart line.
type BookSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       Price  `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type CartItem struct {
	ID       string       `json:"id"`
	UserID   string       `json:"userId"`
	Book     BookSnapshot `json:"book"`
	Quantity int          `json:"quantity"`
	Status   CartStatus   `json:"status"`
}

// Subtotal is the line price times its quantity.
func (c CartItem) Subtotal() Price {
	return c.Book.Price * Price(c.Quantity)
}

type BookType string

const (
	BookNew  BookType = "new"
	BookSale BookType = "sale"
)

type Book struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       Price    `json:"price"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Quantity    int      `json:"quantity,omitempty"`
	Label       string   `json:"label"`
	Type        BookType `json:"type"`
}

// BookInput is the admin form for creating or editing a book.
type BookInput struct {
	Name        string
	Price       int64
	Description string
	Label       string
	Type        BookType
	Image       *client.FormFile
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type CredentialsLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type SignupResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

type PayRequest struct {
	CartItemIDs []string `json:"cartItemIds"`
	NameClient  string   `json:"nameClient"`
	PhoneNumber string   `json:"phoneNumber"`
	Address     string   `json:"address"`
	Note        string   `json:"note"`
}

type PayResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          string      `json:"id"`
	IDBook      string      `json:"idBook"`
	NameClient  string      `json:"nameClient"`
	PhoneNumber string      `json:"phoneNumber"`
	Address     string      `json:"address"`
	Note        string      `json:"note"`
	Status      OrderStatus `json:"status"`
}

type OrderDetail struct {
	Order
	Book Book `json:"book"`
}

type Label struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type LabelInput struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Page is one page of an admin listing.
type Page[T any] struct {
	Rows  []T `json:"rows"`
	Count int `json:"count"`
	Page  int `json:"-"`
	Limit int `json:"-"`
}

func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 1
	}
	n := (p.Count + p.Limit - 1) / p.Limit
	if n < 1 {
		return 1
	}
	return n
}

type Message struct {
	Message string `json:"message"`
}
