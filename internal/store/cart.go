// Package store holds the process-wide client state: the cart and the
// user session.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Dmitrij-bot/vinabook/internal/client"
	"github.com/Dmitrij-bot/vinabook/internal/events"
	"github.com/Dmitrij-bot/vinabook/internal/notify"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

// CartStore is the local view of the server cart. Every mutation is applied
// optimistically and then reconciled by a full fetch. Each local write bumps
// version; a fetch that resolves after a newer write is discarded.
type CartStore struct {
	mu       sync.Mutex
	items    []resource.CartItem
	quantity int
	version  uint64
	subs     map[int]func(CartSnapshot)
	nextSub  int

	api       resource.CartAccessor
	notifier  notify.Notifier
	publisher events.Publisher
	log       *logrus.Entry
}

type CartOption func(*CartStore)

func WithPublisher(p events.Publisher) CartOption {
	return func(s *CartStore) { s.publisher = p }
}

func WithCartLogger(log *logrus.Entry) CartOption {
	return func(s *CartStore) { s.log = log }
}

func NewCartStore(api resource.CartAccessor, notifier notify.Notifier, opts ...CartOption) *CartStore {
	s := &CartStore{
		items:     []resource.CartItem{},
		subs:      make(map[int]func(CartSnapshot)),
		api:       api,
		notifier:  notifier,
		publisher: events.Nop{},
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "cart")

	return s
}

// Subscribe registers fn for every state change. Snapshots may reach fn
// out of order under concurrent use; compare Version to keep the newest.
func (s *CartStore) Subscribe(fn func(CartSnapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) snapshotLocked() CartSnapshot {
	items := make([]resource.CartItem, len(s.items))
	copy(items, s.items)
	return CartSnapshot{Items: items, Quantity: s.quantity, Version: s.version}
}

// write applies fn under the lock, bumps the version and notifies
// subscribers outside the lock.
func (s *CartStore) write(fn func()) CartSnapshot {
	snap, _ := s.commit(nil, fn)
	return snap
}

// commit is write guarded by the version a fetch was issued at. It reports
// false without applying fn when the store has moved on.
func (s *CartStore) commit(issued *uint64, fn func()) (CartSnapshot, bool) {
	s.mu.Lock()
	if issued != nil && *issued != s.version {
		s.mu.Unlock()
		return CartSnapshot{}, false
	}
	fn()
	s.version++
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return snap, true
}

func (s *CartStore) subscribersLocked() []func(CartSnapshot) {
	subs := make([]func(CartSnapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Fetch replaces the local cart with the server's. On failure the cart is
// reset to empty. A read superseded by a newer write is dropped, but its
// error is still returned.
func (s *CartStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	issued := s.version
	s.mu.Unlock()

	items, err := s.api.GetCart(ctx)
	if err != nil {
		items = []resource.CartItem{}
	}

	snap, applied := s.commit(&issued, func() {
		s.items = items
		s.quantity = len(items)
	})
	if !applied {
		s.log.WithField("issued", issued).Debug("discarding stale cart fetch")
	}

	if err != nil {
		s.log.WithError(err).Warn("failed to fetch cart")
		return fmt.Errorf("failed to fetch cart: %w", err)
	}

	if applied {
		s.log.WithFields(logrus.Fields{"items": len(snap.Items), "version": snap.Version}).Debug("cart fetched")
	}
	return nil
}

// reconcile is the trailing fetch after a mutation the server accepted. Its
// failure is logged only; the mutation stands.
func (s *CartStore) reconcile(ctx context.Context, op string) {
	if err := s.Fetch(ctx); err != nil {
		s.log.WithError(err).WithField("op", op).Warn("failed to reconcile cart")
	}
}

func (s *CartStore) Add(ctx context.Context, bookID string) error {
	item, err := s.api.AddToCart(ctx, bookID)
	if err != nil {
		s.report(err, msgAddFailed)
		return fmt.Errorf("failed to add book %q to cart: %w", bookID, err)
	}

	s.write(func() {
		for i := range s.items {
			if s.items[i].ID == item.ID {
				s.items[i].Quantity++
				return
			}
		}
		s.items = append(s.items, item)
		s.quantity = len(s.items)
	})
	s.notifier.Success(msgAdded)

	s.reconcile(ctx, "add")
	return nil
}

// Update sets the quantity of a cart line. A zero quantity removes the line.
func (s *CartStore) Update(ctx context.Context, cartID string, quantity int) error {
	if quantity < 0 {
		s.notifier.Warning(msgBadQuantity)
		return fmt.Errorf("%w: quantity must not be negative, got %d", resource.ErrValidation, quantity)
	}
	if quantity == 0 {
		return s.Delete(ctx, cartID)
	}

	if _, err := s.api.UpdateCart(ctx, cartID, quantity); err != nil {
		s.report(err, msgUpdateFailed)
		return fmt.Errorf("failed to update cart item %q: %w", cartID, err)
	}

	s.write(func() {
		for i := range s.items {
			if s.items[i].ID == cartID {
				s.items[i].Quantity = quantity
			}
		}
	})
	s.notifier.Success(msgUpdated)

	s.reconcile(ctx, "update")
	return nil
}

func (s *CartStore) Delete(ctx context.Context, cartID string) error {
	if _, err := s.api.DeleteCart(ctx, cartID); err != nil {
		s.report(err, msgDeleteFailed)
		return fmt.Errorf("failed to delete cart item %q: %w", cartID, err)
	}

	s.write(func() {
		kept := make([]resource.CartItem, 0, len(s.items))
		for _, item := range s.items {
			if item.ID != cartID {
				kept = append(kept, item)
			}
		}
		s.items = kept
		s.quantity = len(kept)
	})
	s.notifier.Success(msgDeleted)

	s.reconcile(ctx, "delete")
	return nil
}

// Pay checks out req.CartItemIDs, or the whole local cart when none are
// given. The local cart is only cleared once the server accepts the order.
func (s *CartStore) Pay(ctx context.Context, req resource.PayRequest) (resource.PayResponse, error) {
	req.NameClient = strings.TrimSpace(req.NameClient)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Address = strings.TrimSpace(req.Address)

	if req.NameClient == "" || req.PhoneNumber == "" || req.Address == "" {
		s.notifier.Warning(msgShippingInfo)
		return resource.PayResponse{}, fmt.Errorf("%w: name, phone number and address are required", resource.ErrValidation)
	}

	before := s.Snapshot()
	if len(req.CartItemIDs) == 0 {
		req.CartItemIDs = before.IDs()
	}
	if len(req.CartItemIDs) == 0 {
		s.notifier.Warning(msgEmptyCart)
		return resource.PayResponse{}, ErrEmptyCart
	}

	resp, err := s.api.PayCart(ctx, req)
	if err != nil {
		s.report(err, msgPayFailed)
		return resource.PayResponse{}, fmt.Errorf("failed to pay cart: %w", err)
	}

	s.write(func() {
		s.items = []resource.CartItem{}
		s.quantity = 0
	})
	s.notifier.Success(msgPaid)

	if err := s.publisher.Publish(ctx, orderPlaced(req, resp, before)); err != nil {
		s.log.WithError(err).Error("failed to publish order event")
	}

	s.reconcile(ctx, "pay")
	return resp, nil
}

func orderPlaced(req resource.PayRequest, resp resource.PayResponse, cart CartSnapshot) events.OrderPlaced {
	return events.OrderPlaced{
		CartItemIDs: req.CartItemIDs,
		NameClient:  req.NameClient,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Note:        req.Note,
		Total:       int64(cart.Due(req.CartItemIDs)),
		Status:      resp.Status,
	}
}

// Counter helpers. They touch only the badge counter, not the lines.

func (s *CartStore) SetQuantity(n int) {
	if n < 0 {
		n = 0
	}
	s.write(func() { s.quantity = n })
}

func (s *CartStore) IncreaseQuantity() {
	s.write(func() { s.quantity++ })
}

func (s *CartStore) DecreaseQuantity() {
	s.write(func() {
		if s.quantity > 0 {
			s.quantity--
		}
	})
}

func (s *CartStore) ResetQuantity() {
	s.write(func() { s.quantity = 0 })
}

// report shows err to the user. Server messages are shown as is; anything
// without a server response gets fallback.
func (s *CartStore) report(err error, fallback string) {
	notifyError(s.notifier, s.log, err, fallback)
}

func notifyError(n notify.Notifier, log *logrus.Entry, err error, fallback string) {
	if errors.Is(err, resource.ErrValidation) {
		n.Warning(err.Error())
		return
	}

	n.Error(client.MessageOf(err, fallback))
	log.WithError(err).WithField("status", client.StatusOf(err)).Warn(fallback)
}
