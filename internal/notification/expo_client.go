package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"
	expoMaxBatch       = 100
)

type expoMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Data  Data   `json:"data"`
	Sound string `json:"sound,omitempty"`
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		ID      string `json:"id"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

type ExpoClient struct {
	URL         string
	AccessToken string
	Batch       int
	HTTP        *http.Client
}

func NewExpoClient(url, accessToken string, batch int) *ExpoClient {
	if url == "" {
		url = DefaultExpoPushURL
	}
	if batch <= 0 || batch > expoMaxBatch {
		batch = expoMaxBatch
	}
	return &ExpoClient{
		URL:         url,
		AccessToken: accessToken,
		Batch:       batch,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

func (c *ExpoClient) BatchSize() int {
	return c.Batch
}

func (c *ExpoClient) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	if len(msgs) > c.Batch {
		return nil, fmt.Errorf("expo: %d messages exceed batch size %d", len(msgs), c.Batch)
	}

	payload := make([]expoMessage, len(msgs))
	for i, m := range msgs {
		payload[i] = expoMessage{To: m.To, Title: m.Title, Body: m.Body, Data: m.Data, Sound: "default"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Kind: KindTransient, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Kind: KindTransient, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(raw, 300))}
	}

	var decoded expoResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Kind: KindTransient, Message: "decode response: " + err.Error()}
	}
	if len(decoded.Errors) > 0 {
		return nil, &TransportError{Kind: KindTransient, Message: decoded.Errors[0].Code + ": " + decoded.Errors[0].Message}
	}
	if len(decoded.Data) != len(msgs) {
		return nil, &TransportError{Kind: KindTransient, Message: fmt.Sprintf("got %d tickets for %d messages", len(decoded.Data), len(msgs))}
	}

	tickets := make([]Ticket, len(msgs))
	for i, d := range decoded.Data {
		if d.Status == "ok" {
			tickets[i] = Ticket{ID: d.ID}
			continue
		}
		kind := KindTransient
		if d.Details.Error == "DeviceNotRegistered" {
			kind = KindUnregistered
		}
		tickets[i] = Ticket{Err: &TransportError{Kind: kind, Message: d.Message}}
	}
	return tickets, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
