package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// WeComChannel 企业微信群机器人 webhook
type WeComChannel struct {
	webhook string
	client  *http.Client
}

type WeComOption func(*WeComChannel)

func WithWeComHTTPClient(client *http.Client) WeComOption {
	return func(c *WeComChannel) {
		c.client = client
	}
}

func NewWeComChannel(webhook string, opts ...WeComOption) *WeComChannel {
	c := &WeComChannel{
		webhook: webhook,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WeComChannel) Name() string {
	return "wecom"
}

type wecomPayload struct {
	MsgType string    `json:"msgtype"`
	Text    wecomText `json:"text"`
}

type wecomText struct {
	Content string `json:"content"`
}

type wecomResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (c *WeComChannel) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(wecomPayload{
		MsgType: "text",
		Text:    wecomText{Content: text},
	})
	if err != nil {
		return fmt.Errorf("marshal wecom payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new wecom request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post wecom webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wecom webhook status %d", resp.StatusCode)
	}
	var wr wecomResponse
	if err = json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return fmt.Errorf("decode wecom response: %w", err)
	}
	if wr.ErrCode != 0 {
		return fmt.Errorf("wecom webhook errcode %d: %s", wr.ErrCode, wr.ErrMsg)
	}
	return nil
}
