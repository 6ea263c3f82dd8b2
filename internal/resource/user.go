package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func (a *Accessor) ListUsers(ctx context.Context, page, limit int) (Page[User], error) {
	return listPage[User](ctx, a.c, "/user/pagination", page, limit)
}

func (a *Accessor) CreateUser(ctx context.Context, in UserInput) (User, error) {
	if err := validateUser(in); err != nil {
		return User{}, err
	}
	if in.Password == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	body, err := a.c.Post(ctx, "/user", in)
	if err != nil {
		return User{}, err
	}

	var user User
	if err := decodeField(body, "user", &user); err != nil {
		return User{}, err
	}

	return user, nil
}

// UpdateUser keeps the current password when in.Password is empty.
func (a *Accessor) UpdateUser(ctx context.Context, id string, in UserInput) (Message, error) {
	if err := requireID("user", id); err != nil {
		return Message{}, err
	}
	if err := validateUser(in); err != nil {
		return Message{}, err
	}

	body, err := a.c.Put(ctx, "/user/"+url.PathEscape(id), in)
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func (a *Accessor) DeleteUser(ctx context.Context, id string) (Message, error) {
	if err := requireID("user", id); err != nil {
		return Message{}, err
	}

	body, err := a.c.Delete(ctx, "/user/"+url.PathEscape(id))
	if err != nil {
		return Message{}, err
	}

	return decodeMessage(body), nil
}

func validateUser(in UserInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if in.Role != RoleAdmin && in.Role != RoleUser {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}
	return nil
}
