package resource_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmitrij-bot/vinabook/internal/client"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/testutil/fakeapi"
)

func newAccessor(t *testing.T) (*resource.Accessor, *fakeapi.Server) {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	c := client.New(client.Config{BaseURL: srv.BaseURL()}, nil)
	return resource.New(c), srv
}

func seedBooks(srv *fakeapi.Server) {
	srv.AddBook(resource.Book{ID: "book-42", Name: "Dế Mèn Phiêu Lưu Ký", Price: 68000, Description: "Tô Hoài", Label: "thieu-nhi", Type: resource.BookNew, Quantity: 10})
	srv.AddBook(resource.Book{ID: "book-7", Name: "Số Đỏ", Price: 95000, Description: "Vũ Trọng Phụng", Label: "van-hoc", Type: resource.BookSale, Quantity: 3})
}

func TestCartAccessors(t *testing.T) {
	ctx := context.Background()
	acc, srv := newAccessor(t)
	seedBooks(srv)

	cart, err := acc.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart)
	assert.NotNil(t, cart)

	item, err := acc.AddToCart(ctx, "book-42")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "book-42", item.Book.ID)
	assert.Equal(t, resource.Price(68000), item.Book.Price)
	assert.Equal(t, resource.CartPending, item.Status)

	_, err = acc.UpdateCart(ctx, item.ID, 4)
	require.NoError(t, err)

	cart, err = acc.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 4, cart[0].Quantity)
	assert.Equal(t, resource.Price(272000), cart[0].Subtotal())

	msg, err := acc.DeleteCart(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cart item deleted", msg.Message)

	_, err = acc.DeleteCart(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))
	assert.Equal(t, "Cart item not found", client.MessageOf(err, ""))
}

func TestPayCart(t *testing.T) {
	ctx := context.Background()
	acc, srv := newAccessor(t)
	seedBooks(srv)

	a, err := acc.AddToCart(ctx, "book-42")
	require.NoError(t, err)
	b, err := acc.AddToCart(ctx, "book-7")
	require.NoError(t, err)

	resp, err := acc.PayCart(ctx, resource.PayRequest{
		CartItemIDs: []string{a.ID, b.ID},
		NameClient:  "Nguyễn Văn A",
		PhoneNumber: "0973285886",
		Address:     "27 Chùa Bộc, Đống Đa, Hà Nội",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Empty(t, srv.Cart())
	assert.Len(t, srv.Orders(), 2)
}

func TestAddToCart_RequiresBookID(t *testing.T) {
	acc, srv := newAccessor(t)

	_, err := acc.AddToCart(context.Background(), "")
	require.ErrorIs(t, err, resource.ErrValidation)
	assert.Empty(t, srv.Requests())
}

func TestGetCart_MissingPayload(t *testing.T) {
	acc, srv := newAccessor(t)
	srv.FailNext(http.MethodGet, "/cart", http.StatusOK, "no cart here")

	_, err := acc.GetCart(context.Background())
	require.ErrorIs(t, err, resource.ErrUnexpectedPayload)
}

func TestLoginAndSignup(t *testing.T) {
	ctx := context.Background()
	acc, _ := newAccessor(t)

	resp, err := acc.Login(ctx, resource.CredentialsLogin{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "token-admin", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, resource.RoleAdmin, resp.User.Role)

	_, err = acc.Login(ctx, resource.CredentialsLogin{Username: "lan", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))

	signup, err := acc.Signup(ctx, resource.Credentials{Username: "lan", Email: "lan@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "lan", signup.User.Username)

	_, err = acc.Signup(ctx, resource.Credentials{Username: "taken", Password: "x"})
	assert.Equal(t, "Username already exists", client.MessageOf(err, ""))
}

func TestBooks(t *testing.T) {
	ctx := context.Background()
	acc, srv := newAccessor(t)
	seedBooks(srv)

	page, err := acc.ListBooks(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.Len(t, page.Rows, 1)
	assert.Equal(t, 2, page.TotalPages())

	found, err := acc.SearchBooks(ctx, "PHỤNG")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "book-7", found[0].ID)

	// "Số" typed with a combining acute accent.
	found, err = acc.SearchBooks(ctx, "so\u0302\u0301 đỏ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "book-7", found[0].ID)

	found, err = acc.SearchBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	created, err := acc.CreateBook(ctx, resource.BookInput{
		Name:  "Tắt Đèn",
		Price: 54000,
		Label: "van-hoc",
		Image: &client.FormFile{Filename: "tat-den.png", Content: strings.NewReader("img")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, resource.Price(54000), created.Price)
	assert.Equal(t, "/uploads/tat-den.png", created.Image)

	_, err = acc.UpdateBook(ctx, created.ID, resource.BookInput{Name: "Tắt Đèn", Price: 50000, Type: resource.BookSale})
	require.NoError(t, err)

	_, err = acc.CreateBook(ctx, resource.BookInput{Name: "x", Price: -1})
	require.ErrorIs(t, err, resource.ErrValidation)

	_, err = acc.DeleteBook(ctx, created.ID)
	require.NoError(t, err)
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	acc, srv := newAccessor(t)
	seedBooks(srv)
	srv.AddOrder(resource.Order{ID: "o1", IDBook: "book-7", NameClient: "Lan", Status: resource.OrderPending})

	detail, err := acc.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Số Đỏ", detail.Book.Name)
	assert.Equal(t, "Lan", detail.NameClient)

	_, err = acc.UpdateOrderStatus(ctx, "o1", resource.OrderCompleted)
	require.NoError(t, err)

	page, err := acc.ListOrders(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, resource.OrderCompleted, page.Rows[0].Status)

	_, err = acc.UpdateOrderStatus(ctx, "o1", "shipped")
	require.ErrorIs(t, err, resource.ErrValidation)
}

func TestLabelsAndUsers(t *testing.T) {
	ctx := context.Background()
	acc, _ := newAccessor(t)

	label, err := acc.CreateLabel(ctx, resource.LabelInput{Name: "Văn học", Value: "van-hoc"})
	require.NoError(t, err)
	assert.Equal(t, "van-hoc", label.Value)

	labels, err := acc.ListLabels(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, labels.Count)

	user, err := acc.CreateUser(ctx, resource.UserInput{Username: "lan", Password: "x", Role: resource.RoleUser})
	require.NoError(t, err)

	_, err = acc.UpdateUser(ctx, user.ID, resource.UserInput{Username: "lan", Role: resource.RoleAdmin})
	require.NoError(t, err)

	users, err := acc.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, users.Rows, 1)
	assert.Equal(t, resource.RoleAdmin, users.Rows[0].Role)

	_, err = acc.CreateUser(ctx, resource.UserInput{Username: "x", Password: "x", Role: "root"})
	require.ErrorIs(t, err, resource.ErrValidation)

	_, err = acc.DeleteLabel(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))
}

func TestPrice_UnmarshalJSON(t *testing.T) {
	cases := map[string]resource.Price{
		`120000`:     120000,
		`"120000"`:   120000,
		`"95000.00"`: 95000,
		`""`:         0,
		`null`:       0,
	}
	for in, want := range cases {
		var p resource.Price
		require.NoError(t, json.Unmarshal([]byte(in), &p), in)
		assert.Equal(t, want, p, in)
	}

	var p resource.Price
	err := json.Unmarshal([]byte(`"abc"`), &p)
	require.Error(t, err)
	assert.False(t, errors.Is(err, resource.ErrValidation))
}
