package resource

import (
	"context"
	"fmt"
	"net/url"
)

func (a *Accessor) ListOrders(ctx context.Context, page, limit int) (Page[Order], error) {
	return listPage[Order](ctx, a.c, "/order/pagination", page, limit)
}

// GetOrder returns the order together with the book it references.
func (a *Accessor) GetOrder(ctx context.Context, id string) (OrderDetail, error) {
	if err := requireID("order", id); err != nil {
		return OrderDetail{}, err
	}

	body, err := a.c.Get(ctx, "/order/get-by-id/"+url.PathEscape(id), nil)
	if err != nil {
		return OrderDetail{}, err
	}

	var detail OrderDetail
	if err := decodeBody(body, &detail); err != nil {
		return OrderDetail{}, err
	}
	if detail.ID == "" {
		detail.ID = id
	}

	return detail, nil
}

func (a *Accessor) UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (Message, error) {
	if err := requireID("order", id); err != nil {
		return Message{}, err
	}
	if !status.Valid() {
		return Message{}, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	body, err := a.c.Put(ctx, "/order/"+url.PathEscape(id), map[string]OrderStatus{"status": status})
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func (a *Accessor) DeleteOrder(ctx context.Context, id string) (Message, error) {
	if err := requireID("order", id); err != nil {
		return Message{}, err
	}

	body, err := a.c.Delete(ctx, "/order/"+url.PathEscape(id))
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}
