package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatStream sends a conversation to the LLM with streaming enabled. The
// response arrives as newline-delimited JSON chunks; each decoded chunk is
// passed to onDelta as it arrives. The returned response is the final chunk
// with the full content, thinking, and tool calls merged back in.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onDelta func(ChatResponse)) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var final ChatResponse
	var content, thinking strings.Builder
	var calls []ToolCall
	role := ""

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}

		if onDelta != nil {
			onDelta(chunk)
		}

		content.WriteString(chunk.Message.Content)
		thinking.WriteString(chunk.Message.Thinking)
		calls = append(calls, chunk.Message.ToolCalls...)
		if chunk.Message.Role != "" {
			role = chunk.Message.Role
		}
		if chunk.Done {
			final = chunk
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	if role == "" {
		role = "assistant"
	}
	final.Message = Message{
		Role:      role,
		Content:   content.String(),
		Thinking:  thinking.String(),
		ToolCalls: calls,
	}

	return &final, nil
}
