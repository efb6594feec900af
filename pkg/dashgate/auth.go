package dashgate

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// authService implements the AuthService interface
type authService struct {
	client *Client
}

// Me retrieves the authenticated user behind the current session. This is
// the per-render identity check every dashboard layout performs; a dead
// session surfaces here first, as a redirect.
func (s *authService) Me(ctx context.Context) (*User, *Redirect, error) {
	out := s.client.builder.Get(s.client.audiencePath("/auth/me/"), nil)

	payload, redirect, err := s.client.execute(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var user User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse current user")
	}
	return &user, nil, nil
}
