package resource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Dmitrij-bot/vinabook/internal/client"
)

func (a *Accessor) ListBooks(ctx context.Context, page, limit int) (Page[Book], error) {
	return listPage[Book](ctx, a.c, "/book/pagination", page, limit)
}

func (a *Accessor) AllBooks(ctx context.Context) ([]Book, error) {
	body, err := a.c.Get(ctx, "/book/get-all", nil)
	if err != nil {
		return nil, err
	}

	books := []Book{}
	if err := decodeField(body, "data", &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}

	return books, nil
}

// SearchBooks filters the full catalogue by name, description or label,
// case-insensitively. An empty query returns every book.
func (a *Accessor) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	books, err := a.AllBooks(ctx)
	if err != nil {
		return nil, err
	}

	q := fold(query)
	if q == "" {
		return books, nil
	}

	found := []Book{}
	for _, b := range books {
		if strings.Contains(fold(b.Name), q) ||
			strings.Contains(fold(b.Description), q) ||
			strings.Contains(fold(b.Label), q) {
			found = append(found, b)
		}
	}

	return found, nil
}

// fold puts s in NFC and lower case so composed and decomposed Vietnamese
// input compare equal.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

func (a *Accessor) CreateBook(ctx context.Context, in BookInput) (Book, error) {
	form, err := bookForm(in, false)
	if err != nil {
		return Book{}, err
	}

	body, err := a.c.Upload(ctx, http.MethodPost, "/book", form)
	if err != nil {
		return Book{}, err
	}

	var book Book
	if err := decodeField(body, "data", &book); err != nil {
		return Book{}, err
	}

	return book, nil
}

func (a *Accessor) UpdateBook(ctx context.Context, id string, in BookInput) (Message, error) {
	if err := requireID("book", id); err != nil {
		return Message{}, err
	}

	form, err := bookForm(in, true)
	if err != nil {
		return Message{}, err
	}

	body, err := a.c.Upload(ctx, http.MethodPut, "/book/"+url.PathEscape(id), form)
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func (a *Accessor) DeleteBook(ctx context.Context, id string) (Message, error) {
	if err := requireID("book", id); err != nil {
		return Message{}, err
	}

	body, err := a.c.Delete(ctx, "/book/"+url.PathEscape(id))
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

// bookForm builds the multipart body. The type field is only sent on edit,
// new books always start as "new".
func bookForm(in BookInput, edit bool) (client.Form, error) {
	if strings.TrimSpace(in.Name) == "" {
		return client.Form{}, fmt.Errorf("%w: book name is required", ErrValidation)
	}
	if in.Price < 0 {
		return client.Form{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	form := client.Form{
		Fields: map[string]string{
			"name":        in.Name,
			"price":       strconv.FormatInt(in.Price, 10),
			"description": in.Description,
			"label":       in.Label,
		},
	}

	if edit {
		t := in.Type
		if t == "" {
			t = BookNew
		}
		if t != BookNew && t != BookSale {
			return client.Form{}, fmt.Errorf("%w: unknown book type %q", ErrValidation, in.Type)
		}
		form.Fields["type"] = string(t)
	}

	if in.Image != nil {
		img := *in.Image
		if img.Field == "" {
			img.Field = "image"
		}
		form.Files = append(form.Files, img)
	}

	return form, nil
}
