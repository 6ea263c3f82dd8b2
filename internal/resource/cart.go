package resource

import (
	"context"
	"net/url"
)

func (a *Accessor) GetCart(ctx context.Context) ([]CartItem, error) {
	body, err := a.c.Get(ctx, "/cart", nil)
	if err != nil {
		return nil, err
	}

	items := []CartItem{}
	if err := decodeField(body, "cart", &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []CartItem{}
	}

	return items, nil
}

func (a *Accessor) AddToCart(ctx context.Context, bookID string) (CartItem, error) {
	if err := requireID("book", bookID); err != nil {
		return CartItem{}, err
	}

	body, err := a.c.Post(ctx, "/cart", map[string]string{"bookId": bookID})
	if err != nil {
		return CartItem{}, err
	}

	var item CartItem
	if err := decodeField(body, "cartItem", &item); err != nil {
		return CartItem{}, err
	}

	return item, nil
}

func (a *Accessor) UpdateCart(ctx context.Context, cartID string, quantity int) (Message, error) {
	if err := requireID("cart", cartID); err != nil {
		return Message{}, err
	}

	body, err := a.c.Put(ctx, "/cart/"+url.PathEscape(cartID), map[string]int{"quantity": quantity})
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func (a *Accessor) DeleteCart(ctx context.Context, cartID string) (Message, error) {
	if err := requireID("cart", cartID); err != nil {
		return Message{}, err
	}

	body, err := a.c.Delete(ctx, "/cart/"+url.PathEscape(cartID))
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func (a *Accessor) PayCart(ctx context.Context, req PayRequest) (PayResponse, error) {
	if req.CartItemIDs == nil {
		req.CartItemIDs = []string{}
	}

	body, err := a.c.Post(ctx, "/cart/pay", req)
	if err != nil {
		return PayResponse{}, err
	}

	var resp PayResponse
	if err := decodeBody(body, &resp); err != nil {
		return PayResponse{}, err
	}

	return resp, nil
}
