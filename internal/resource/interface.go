package resource

import "context"

// CartAccessor is what the cart store needs from the API.
type CartAccessor interface {
	GetCart(ctx context.Context) ([]CartItem, error)
	AddToCart(ctx context.Context, bookID string) (CartItem, error)
	UpdateCart(ctx context.Context, cartID string, quantity int) (Message, error)
	DeleteCart(ctx context.Context, cartID string) (Message, error)
	PayCart(ctx context.Context, req PayRequest) (PayResponse, error)
}

// AuthAccessor is what the session store needs from the API.
type AuthAccessor interface {
	Login(ctx context.Context, credentials CredentialsLogin) (LoginResponse, error)
	Signup(ctx context.Context, credentials Credentials) (SignupResponse, error)
}

type CatalogAccessor interface {
	ListBooks(ctx context.Context, page, limit int) (Page[Book], error)
	AllBooks(ctx context.Context) ([]Book, error)
	SearchBooks(ctx context.Context, query string) ([]Book, error)
	CreateBook(ctx context.Context, in BookInput) (Book, error)
	UpdateBook(ctx context.Context, id string, in BookInput) (Message, error)
	DeleteBook(ctx context.Context, id string) (Message, error)

	ListLabels(ctx context.Context, page, limit int) (Page[Label], error)
	CreateLabel(ctx context.Context, in LabelInput) (Label, error)
	UpdateLabel(ctx context.Context, id string, in LabelInput) (Message, error)
	DeleteLabel(ctx context.Context, id string) (Message, error)
}

type AdminAccessor interface {
	ListOrders(ctx context.Context, page, limit int) (Page[Order], error)
	GetOrder(ctx context.Context, id string) (OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (Message, error)
	DeleteOrder(ctx context.Context, id string) (Message, error)

	ListUsers(ctx context.Context, page, limit int) (Page[User], error)
	CreateUser(ctx context.Context, in UserInput) (User, error)
	UpdateUser(ctx context.Context, id string, in UserInput) (Message, error)
	DeleteUser(ctx context.Context, id string) (Message, error)
}

// Interface is the full set of accessors.
type Interface interface {
	CartAccessor
	AuthAccessor
	CatalogAccessor
	AdminAccessor
}
