package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/testutil/fakeapi"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// harness is a fake API plus a config file pointing the CLI at it with a
// session database that outlives single commands.
type harness struct {
	srv    *fakeapi.Server
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "vinabook.yaml")
	body := fmt.Sprintf(`api:
  base_url: %s
storage:
  driver: sqlite3
  sqlite:
    path: %s
log:
  level: warn
`, srv.BaseURL(), filepath.Join(dir, "session.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	srv.AddBook(resource.Book{ID: "book-42", Name: "Dế Mèn Phiêu Lưu Ký", Price: 68000, Description: "Tô Hoài", Type: resource.BookNew, Quantity: 10})
	srv.AddBook(resource.Book{ID: "book-7", Name: "Số Đỏ", Price: 95000, Description: "Vũ Trọng Phụng", Type: resource.BookSale, Quantity: 3})

	return &harness{srv: srv, config: path}
}

func (h *harness) run(t *testing.T, args ...string) result {
	t.Helper()
	return execute(append([]string{"--config", h.config}, args...)...)
}

func execute(args ...string) result {
	var stdout, stderr bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"login", "logout", "register", "whoami", "cart", "books", "labels", "orders", "users", "serve"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "format", "verbose", "api-url"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	res := execute("--format", "xml", "cart", "list")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.False(t, IsReported(res.err))
	assert.Contains(t, res.err.Error(), `invalid format "xml"`)
}

func TestLoginThenShop(t *testing.T) {
	h := newHarness(t)
	h.srv.RequireToken = true

	res := h.run(t, "login", "-u", "lan", "-p", "secret")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Signed in as lan (user)")
	assert.Contains(t, res.stdout, "/client/home")

	res = h.run(t, "cart", "add", "book-42")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "✓ Thêm vào giỏ hàng thành công")
	assert.Contains(t, res.stdout, "Dế Mèn Phiêu Lưu Ký")
	assert.Contains(t, res.stdout, "68.000 ₫")
	assert.Contains(t, res.stdout, "98.000 ₫")
	assert.Contains(t, h.srv.AuthHeaders(), "Bearer token-lan")

	res = h.run(t, "whoami")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "lan@vinabook.vn")

	res = h.run(t, "logout")
	require.NoError(t, res.err, res.stderr)

	res = h.run(t, "cart", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error [E_UNAUTHORIZED]")
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "login", "-u", "lan", "-p", "wrong")
	require.Error(t, res.err)
	assert.True(t, IsReported(res.err))
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "✗ Invalid username or password")
	assert.Contains(t, res.stderr, "Error [E_UNAUTHORIZED]: Invalid username or password")
}

func TestCartPay(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "cart", "add", "book-7")
	require.NoError(t, res.err, res.stderr)

	res = h.run(t, "cart", "pay", "--name", "Nguyễn Văn A", "--phone", "0973285886", "--address", "27 Chùa Bộc, Hà Nội")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "✓ Đặt hàng thành công")
	assert.Contains(t, res.stdout, "125.000 ₫")
	assert.Empty(t, h.srv.Cart())
	assert.Len(t, h.srv.Orders(), 1)
}

func TestCartPay_MissingShippingInfo(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "cart", "add", "book-7")
	require.NoError(t, res.err, res.stderr)

	res = h.run(t, "cart", "pay", "--name", "Lan")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "! Vui lòng điền đầy đủ thông tin giao hàng!")
	assert.Contains(t, res.stderr, "Error [E_VALIDATION]")
	assert.Len(t, h.srv.Cart(), 1)
}

func TestCartAdd_ProceedsAfterFailedLoad(t *testing.T) {
	h := newHarness(t)
	h.srv.FailNext(http.MethodGet, "/cart", http.StatusServiceUnavailable, "Service Unavailable")

	res := h.run(t, "cart", "add", "book-42")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "✓ Thêm vào giỏ hàng thành công")
	assert.Contains(t, res.stdout, "Dế Mèn Phiêu Lưu Ký")
	assert.Len(t, h.srv.Cart(), 1)
}

func TestCartList_FailedLoadFails(t *testing.T) {
	h := newHarness(t)
	h.srv.FailNext(http.MethodGet, "/cart", http.StatusServiceUnavailable, "Service Unavailable")

	res := h.run(t, "cart", "list")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "Error [E_API]: Service Unavailable")
}

func TestCartUpdate_BadQuantity(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "cart", "update", "c1", "two")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, `invalid quantity "two"`)
	assert.Empty(t, h.srv.Requests())
}

func TestCartList_JSONError(t *testing.T) {
	h := newHarness(t)
	h.srv.RequireToken = true

	res := h.run(t, "--format", "json", "cart", "list")
	require.Error(t, res.err)
	assert.JSONEq(t, `{"status":"error","error":{"code":"E_UNAUTHORIZED","message":"Unauthorized","status":401}}`, res.stdout)
}

func TestBooksSearch(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "books", "search", "phụng")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Số Đỏ")
	assert.NotContains(t, res.stdout, "Dế Mèn")
}

func TestOrdersAdmin(t *testing.T) {
	h := newHarness(t)
	h.srv.AddOrder(resource.Order{ID: "o1", IDBook: "book-7", NameClient: "Lan", PhoneNumber: "0973285886", Address: "Hà Nội", Status: resource.OrderPending})

	res := h.run(t, "orders", "show", "o1")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Số Đỏ (95.000 ₫)")

	res = h.run(t, "orders", "status", "o1", "completed")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, resource.OrderCompleted, h.srv.Orders()[0].Status)

	res = h.run(t, "orders", "status", "o1", "shipped")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error [E_VALIDATION]")
}

func TestUsersAdmin(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, "users", "create", "-u", "lan", "-p", "x")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "lan")

	res = h.run(t, "--format", "json", "users", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, `"username": "lan"`)
	assert.Contains(t, res.stdout, `"count": 1`)
}
