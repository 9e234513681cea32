package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/metrics"
)

var _ domain.Submitter = (*Client)(nil)

// Client отправляет инструкции подписывающему сайдкару. Сайдкар хранит
// ключи, собирает транзакцию, подписывает и дожидается подтверждения
// с уровнем commitment=confirmed.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient создаёт клиента сайдкара.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type submitRequest struct {
	Instructions []json.RawMessage `json:"instructions"`
	Signer       string            `json:"signer"`
}

type submitResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

// Submit отправляет одну транзакцию и возвращает её подпись.
func (c *Client) Submit(ctx context.Context, instructions []domain.Instruction, signerHandle string) (string, error) {
	raw := make([]json.RawMessage, 0, len(instructions))
	for _, ins := range instructions {
		raw = append(raw, json.RawMessage(ins))
	}
	payload, err := json.Marshal(submitRequest{Instructions: raw, Signer: signerHandle})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/submit", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("signer", "submit", "sidecar", start, err)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read submit response: %w", err)
	}
	var parsed submitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != "" {
		msg := parsed.Error
		if msg == "" {
			msg = fmt.Sprintf("статус %d", resp.StatusCode)
		}
		return "", fmt.Errorf("submit отклонён: %s", msg)
	}
	if parsed.Signature == "" {
		return "", fmt.Errorf("submit: пустая подпись в ответе")
	}
	return parsed.Signature, nil
}
