package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"groupkeys/internal/domain"
)

// StatusError is a non-2xx response from the relay.
type StatusError struct {
	Method string
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay %s %s: %s", e.Method, e.URL, e.Status)
}

// HTTP is a RelayClient speaking JSON to a relay server.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the relay at base. A zero timeout means none.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	return &HTTP{Base: base, HTTP: &http.Client{Timeout: timeout}}
}

func (c *HTTP) ChannelMembers(
	ctx context.Context,
	channel domain.ChannelID,
) ([]domain.Member, error) {
	var out []domain.Member
	if err := c.do(ctx, http.MethodGet, membersPath(channel), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTP) SetChannelMembers(
	ctx context.Context,
	channel domain.ChannelID,
	members []domain.Member,
) error {
	return c.do(ctx, http.MethodPut, membersPath(channel), members, nil)
}

func (c *HTTP) DeliverSenderKey(
	ctx context.Context,
	to domain.UserID,
	msg domain.SenderKeyDistribution,
) error {
	return c.do(ctx, http.MethodPost, senderKeysPath(to), msg, nil)
}

// FetchSenderKeys drains the pending distributions for user.
func (c *HTTP) FetchSenderKeys(
	ctx context.Context,
	user domain.UserID,
) ([]domain.SenderKeyDistribution, error) {
	var out []domain.SenderKeyDistribution
	if err := c.do(ctx, http.MethodGet, senderKeysPath(user), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTP) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	u := c.Base + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &StatusError{Method: method, URL: u, Status: resp.Status, Code: resp.StatusCode}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func membersPath(channel domain.ChannelID) string {
	return "/channels/" + url.PathEscape(string(channel)) + "/members"
}

func senderKeysPath(user domain.UserID) string {
	return "/sender-keys/" + url.PathEscape(string(user))
}

var _ domain.RelayClient = (*HTTP)(nil)
