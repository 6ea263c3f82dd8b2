package resource

import "context"

func (a *Accessor) Login(ctx context.Context, credentials CredentialsLogin) (LoginResponse, error) {
	body, err := a.c.Post(ctx, "/auth/login", credentials)
	if err != nil {
		return LoginResponse{}, err
	}

	var resp LoginResponse
	if err := decodeBody(body, &resp); err != nil {
		return LoginResponse{}, err
	}

	return resp, nil
}

func (a *Accessor) Signup(ctx context.Context, credentials Credentials) (SignupResponse, error) {
	body, err := a.c.Post(ctx, "/auth/register", credentials)
	if err != nil {
		return SignupResponse{}, err
	}

	var resp SignupResponse
	if err := decodeBody(body, &resp); err != nil {
		return SignupResponse{}, err
	}

	return resp, nil
}
