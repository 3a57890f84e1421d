package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ChatJSON runs a non-streaming chat whose output is constrained to the
// given JSON schema and decodes the model's answer into out. Callers doing
// extraction treat any error as "no result" and fall back to canned text.
func (c *Client) ChatJSON(ctx context.Context, system, user string, schema json.RawMessage, think bool, out any) error {
	resp, err := c.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Think:  think,
		Format: schema,
	})
	if err != nil {
		return err
	}

	content := strings.TrimSpace(resp.Message.Content)
	if content == "" {
		return fmt.Errorf("empty structured response")
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}

	return nil
}
