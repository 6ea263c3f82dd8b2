package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func (a *Accessor) ListLabels(ctx context.Context, page, limit int) (Page[Label], error) {
	return listPage[Label](ctx, a.c, "/label/pagination", page, limit)
}

func (a *Accessor) CreateLabel(ctx context.Context, in LabelInput) (Label, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Label{}, fmt.Errorf("%w: label name is required", ErrValidation)
	}

	body, err := a.c.Post(ctx, "/label", in)
	if err != nil {
		return Label{}, err
	}

	var label Label
	if err := decodeField(body, "label", &label); err != nil {
		return Label{}, err
	}

	return label, nil
}

func (a *Accessor) UpdateLabel(ctx context.Context, id string, in LabelInput) (Message, error) {
	if err := requireID("label", id); err != nil {
		return Message{}, err
	}

	body, err := a.c.Put(ctx, "/label/"+url.PathEscape(id), in)
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func (a *Accessor) DeleteLabel(ctx context.Context, id string) (Message, error) {
	if err := requireID("label", id); err != nil {
		return Message{}, err
	}

	body, err := a.c.Delete(ctx, "/label/"+url.PathEscape(id))
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}
