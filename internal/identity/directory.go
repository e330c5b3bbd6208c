package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// User is the directory's view of an account. Only display data is
// exposed to read models; reviewer listings deliberately drop Email.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Directory resolves user ids to display data. Unknown ids are simply
// absent from the result, never an error.
type Directory interface {
	Lookup(ctx context.Context, ids []string) (map[string]User, error)
}

// StaticDirectory is an in-process Directory seeded at startup. Used for
// single-node deployments and tests.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewStaticDirectory creates a StaticDirectory with the given users.
func NewStaticDirectory(users ...User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Add inserts or replaces a user.
func (d *StaticDirectory) Add(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// Lookup returns the known subset of the requested ids.
func (d *StaticDirectory) Lookup(_ context.Context, ids []string) (map[string]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]User, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// HTTPDirectory resolves users against the identity context's lookup
// endpoint.
type HTTPDirectory struct {
	client *resty.Client
}

// NewHTTPDirectory creates an HTTPDirectory for the given base URL.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &HTTPDirectory{client: client}
}

// Lookup fetches users by id. Transient failures are retried by the
// client; reads are idempotent so that is safe.
func (d *HTTPDirectory) Lookup(ctx context.Context, ids []string) (map[string]User, error) {
	if len(ids) == 0 {
		return map[string]User{}, nil
	}

	var users []User
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetResult(&users).
		Get("/api/v1/users")
	if err != nil {
		return nil, fmt.Errorf("identity: directory lookup: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity: directory lookup: status %d", resp.StatusCode())
	}

	out := make(map[string]User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
