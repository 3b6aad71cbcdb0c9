package main

import (
	"bytes"
	"chat-relay/domain/account"
	"chat-relay/domain/chat"
	"chat-relay/infrastructure/ws"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type loginResult struct {
	account.Profile
	Token string `json:"token"`
}

type apiError struct {
	Status  int
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to the relay REST endpoints and its websocket.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (loginResult, error) {
	var out loginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (account.Profile, error) {
	var out account.Profile
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]account.Profile, error) {
	var out []account.Profile
	err := c.do(ctx, http.MethodGet, "/api/auth/users", nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, other string) ([]chat.Message, error) {
	var out []chat.Message
	err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(other), nil, &out)
	return out, err
}

func (c *Client) Send(ctx context.Context, recipient, content string) (chat.Message, error) {
	var out chat.Message
	body := map[string]string{"recipient": recipient, "content": content}
	err := c.do(ctx, http.MethodPost, "/api/messages", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Listen joins as userID and hands every server frame to onFrame until ctx
// is done or the server closes the connection.
func (c *Client) Listen(ctx context.Context, userID string, onFrame func(ws.Received)) error {
	endpoint, err := c.websocketURL()
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	join, err := ws.Frame(chat.EventJoin, userID)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		var frame ws.Received
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		onFrame(frame)
	}
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
