// Package fakeapi serves an in-memory bookstore API for tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

const BasePath = "/api/v1"

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int
	cart     []resource.CartItem
	books    []resource.Book
	labels   []resource.Label
	orders   []resource.Order
	users    []resource.User
	requests []string
	auth     []string
	failures map[string]failure
	// RequireToken makes /cart routes answer 401 without a bearer token.
	RequireToken bool
}

func New() *Server {
	s := &Server{failures: make(map[string]failure)}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Route(BasePath, func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.authorize)
			r.Get("/cart", s.getCart)
			r.Post("/cart", s.addCart)
			r.Post("/cart/pay", s.payCart)
			r.Put("/cart/{id}", s.updateCart)
			r.Delete("/cart/{id}", s.deleteCart)
		})

		r.Get("/book/pagination", s.listBooks)
		r.Get("/book/get-all", s.allBooks)
		r.Post("/book", s.createBook)
		r.Put("/book/{id}", s.updateBook)
		r.Delete("/book/{id}", s.deleteBook)

		r.Get("/label/pagination", s.listLabels)
		r.Post("/label", s.createLabel)
		r.Put("/label/{id}", s.updateLabel)
		r.Delete("/label/{id}", s.deleteLabel)

		r.Get("/order/pagination", s.listOrders)
		r.Get("/order/get-by-id/{id}", s.getOrder)
		r.Put("/order/{id}", s.updateOrder)
		r.Delete("/order/{id}", s.deleteOrder)

		r.Get("/user/pagination", s.listUsers)
		r.Post("/user", s.createUser)
		r.Put("/user/{id}", s.updateUser)
		r.Delete("/user/{id}", s.deleteUser)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to hand to client.Config.
func (s *Server) BaseURL() string {
	return s.Server.URL + BasePath
}

func (s *Server) AddBook(b resource.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append(s.books, b)
}

func (s *Server) AddLabel(l resource.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, l)
}

func (s *Server) AddOrder(o resource.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

// SetCart replaces the server-side cart, simulating another session.
func (s *Server) SetCart(items []resource.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = append([]resource.CartItem(nil), items...)
}

func (s *Server) Cart() []resource.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]resource.CartItem(nil), s.cart...)
}

func (s *Server) Orders() []resource.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]resource.Order(nil), s.orders...)
}

// Requests lists "METHOD /path" for every request received, without the
// base path.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// AuthHeaders lists the Authorization header of every request.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth...)
}

// FailNext makes the next request to method+path answer status with message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, BasePath)

		s.mu.Lock()
		s.requests = append(s.requests, key)
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		f, fail := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if fail {
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.RequireToken && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return prefix + strconv.Itoa(s.nextID)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": what + " not found"})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"message": message})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid body")
		return false
	}
	return true
}

func paginate[T any](w http.ResponseWriter, r *http.Request, all []T) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  all[start:end],
		"count": len(all),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in resource.CredentialsLogin
	if !decode(w, r, &in) {
		return
	}
	if in.Password == "wrong" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
		return
	}
	if in.Password == "" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Missing password"})
		return
	}

	role := resource.RoleUser
	if in.Username == "admin" {
		role = resource.RoleAdmin
	}

	writeJSON(w, http.StatusOK, resource.LoginResponse{
		Message: "Login successful",
		Token:   "token-" + in.Username,
		User: &resource.User{
			ID:       "u-" + in.Username,
			Username: in.Username,
			Email:    in.Username + "@vinabook.vn",
			Role:     role,
		},
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in resource.Credentials
	if !decode(w, r, &in) {
		return
	}
	if in.Username == "taken" {
		badRequest(w, "Username already exists")
		return
	}

	writeJSON(w, http.StatusCreated, resource.SignupResponse{
		Message: "Register successful",
		User:    &resource.User{ID: "u-" + in.Username, Username: in.Username, Email: in.Email, Role: resource.RoleUser},
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart
	if cart == nil {
		cart = []resource.CartItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cart": cart})
}

func (s *Server) addCart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BookID string `json:"bookId"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].Book.ID == in.BookID {
			s.cart[i].Quantity++
			writeJSON(w, http.StatusOK, map[string]interface{}{"cartItem": s.cart[i]})
			return
		}
	}

	for _, b := range s.books {
		if b.ID != in.BookID {
			continue
		}
		item := resource.CartItem{
			ID:     s.newID("c"),
			UserID: "u-1",
			Book: resource.BookSnapshot{
				ID:          b.ID,
				Name:        b.Name,
				Price:       b.Price,
				Image:       b.Image,
				Description: b.Description,
				Quantity:    b.Quantity,
			},
			Quantity: 1,
			Status:   resource.CartPending,
		}
		s.cart = append(s.cart, item)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"cartItem": item})
		return
	}

	notFound(w, "Book")
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.cart {
		if s.cart[i].ID == id {
			s.cart[i].Quantity = in.Quantity
			writeJSON(w, http.StatusOK, map[string]string{"message": "Cart updated"})
			return
		}
	}
	notFound(w, "Cart item")
}

func (s *Server) deleteCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.cart {
		if s.cart[i].ID == id {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Cart item deleted"})
			return
		}
	}
	notFound(w, "Cart item")
}

func (s *Server) payCart(w http.ResponseWriter, r *http.Request) {
	var in resource.PayRequest
	if !decode(w, r, &in) {
		return
	}
	if len(in.CartItemIDs) == 0 {
		badRequest(w, "No cart items selected")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	paid := make(map[string]bool, len(in.CartItemIDs))
	for _, id := range in.CartItemIDs {
		paid[id] = true
	}

	kept := s.cart[:0]
	for _, item := range s.cart {
		if !paid[item.ID] {
			kept = append(kept, item)
			continue
		}
		s.orders = append(s.orders, resource.Order{
			ID:          s.newID("o"),
			IDBook:      item.Book.ID,
			NameClient:  in.NameClient,
			PhoneNumber: in.PhoneNumber,
			Address:     in.Address,
			Note:        in.Note,
			Status:      resource.OrderPending,
		})
	}
	s.cart = kept

	writeJSON(w, http.StatusOK, resource.PayResponse{Message: "Order placed", Status: "success"})
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paginate(w, r, s.books)
}

func (s *Server) allBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := s.books
	if books == nil {
		books = []resource.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": books})
}

func bookFromForm(r *http.Request, b *resource.Book) error {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return err
	}

	b.Name = r.FormValue("name")
	b.Description = r.FormValue("description")
	b.Label = r.FormValue("label")
	if t := r.FormValue("type"); t != "" {
		b.Type = resource.BookType(t)
	}

	price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid price")
	}
	b.Price = resource.Price(price)

	if _, header, err := r.FormFile("image"); err == nil {
		b.Image = "/uploads/" + header.Filename
	}
	return nil
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	b := resource.Book{Type: resource.BookNew}
	if err := bookFromForm(r, &b); err != nil {
		badRequest(w, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.newID("b")
	s.books = append(s.books, b)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"data": b, "message": "Book created"})
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.books {
		if s.books[i].ID == id {
			if err := bookFromForm(r, &s.books[i]); err != nil {
				badRequest(w, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Book updated"})
			return
		}
	}
	notFound(w, "Book")
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.books {
		if s.books[i].ID == id {
			s.books = append(s.books[:i], s.books[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted"})
			return
		}
	}
	notFound(w, "Book")
}

func (s *Server) listLabels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paginate(w, r, s.labels)
}

func (s *Server) createLabel(w http.ResponseWriter, r *http.Request) {
	var in resource.LabelInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := resource.Label{ID: s.newID("l"), Name: in.Name, Value: in.Value, Description: in.Description}
	s.labels = append(s.labels, l)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"label": l, "message": "Label created"})
}

func (s *Server) updateLabel(w http.ResponseWriter, r *http.Request) {
	var in resource.LabelInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.labels {
		if s.labels[i].ID == id {
			s.labels[i] = resource.Label{ID: id, Name: in.Name, Value: in.Value, Description: in.Description}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Label updated"})
			return
		}
	}
	notFound(w, "Label")
}

func (s *Server) deleteLabel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.labels {
		if s.labels[i].ID == id {
			s.labels = append(s.labels[:i], s.labels[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Label deleted"})
			return
		}
	}
	notFound(w, "Label")
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paginate(w, r, s.orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for _, o := range s.orders {
		if o.ID != id {
			continue
		}
		detail := resource.OrderDetail{Order: o}
		for _, b := range s.books {
			if b.ID == o.IDBook {
				detail.Book = b
			}
		}
		writeJSON(w, http.StatusOK, detail)
		return
	}
	notFound(w, "Order")
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status resource.OrderStatus `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = in.Status
			writeJSON(w, http.StatusOK, map[string]string{"message": "Order updated"})
			return
		}
	}
	notFound(w, "Order")
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
			return
		}
	}
	notFound(w, "Order")
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := append([]resource.User(nil), s.users...)
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	paginate(w, r, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in resource.UserInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := resource.User{ID: s.newID("u"), Username: in.Username, Role: in.Role}
	s.users = append(s.users, u)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": u, "message": "User created"})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in resource.UserInput
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Username = in.Username
			s.users[i].Role = in.Role
			writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
			return
		}
	}
	notFound(w, "User")
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
			return
		}
	}
	notFound(w, "User")
}
