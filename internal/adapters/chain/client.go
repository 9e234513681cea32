package chain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mr-tron/base58"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/metrics"
)

var (
	_ domain.ChainReader    = (*Client)(nil)
	_ domain.SnapshotReader = (*Client)(nil)
)

// Client читает аккаунты и балансы через JSON-RPC узла.
type Client struct {
	http       *http.Client
	rpcURL     string
	programID  string
	orbMint    string
	commitment string
}

// NewClient создаёт RPC-клиента.
func NewClient(rpcURL, programID, orbMint, commitment string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if commitment == "" {
		commitment = "confirmed"
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		rpcURL:     rpcURL,
		programID:  programID,
		orbMint:    orbMint,
		commitment: commitment,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResponse struct {
	Result struct {
		Value *struct {
			Data []string `json:"data"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type tokenAccountsResponse struct {
	Result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								Amount string `json:"amount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// Сид для адреса аккаунта по типу. Адрес считается как
// sha256(owner || seed || program) — схема createAccountWithSeed.
var accountSeeds = map[domain.AccountKind]string{
	domain.AccountAutomation: "automation",
	domain.AccountMiner:      "miner",
	domain.AccountStake:      "stake",
}

func (c *Client) accountAddress(kind domain.AccountKind, owner string) (string, error) {
	seed, ok := accountSeeds[kind]
	if !ok {
		return "", fmt.Errorf("неизвестный тип аккаунта %q", kind)
	}
	ownerKey, err := base58.Decode(owner)
	if err != nil {
		return "", fmt.Errorf("decode owner: %w", err)
	}
	programKey, err := base58.Decode(c.programID)
	if err != nil {
		return "", fmt.Errorf("decode program: %w", err)
	}
	h := sha256.New()
	h.Write(ownerKey)
	h.Write([]byte(seed))
	h.Write(programKey)
	return base58.Encode(h.Sum(nil)), nil
}

func (c *Client) call(ctx context.Context, operation string, req rpcRequest, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.ObserveNetworkRequest("chain", operation, "rpc", start, err)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s: статус %d", operation, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ReadAccount возвращает сырой буфер аккаунта или domain.ErrAccountAbsent.
func (c *Client) ReadAccount(ctx context.Context, kind domain.AccountKind, owner string) ([]byte, error) {
	address, err := c.accountAddress(kind, owner)
	if err != nil {
		return nil, err
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAccountInfo",
		Params: []any{
			address,
			map[string]string{"encoding": "base64", "commitment": c.commitment},
		},
	}
	var resp accountInfoResponse
	if err := c.call(ctx, "getAccountInfo", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc getAccountInfo: %s", resp.Error.Message)
	}
	if resp.Result.Value == nil || len(resp.Result.Value.Data) == 0 {
		return nil, domain.ErrAccountAbsent
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Result.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return raw, nil
}

// OrbBalance возвращает баланс ORB кошелька в наименьших единицах.
func (c *Client) OrbBalance(ctx context.Context, owner string) (uint64, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTokenAccountsByOwner",
		Params: []any{
			owner,
			map[string]string{"mint": c.orbMint},
			map[string]string{"encoding": "jsonParsed", "commitment": c.commitment},
		},
	}
	var resp tokenAccountsResponse
	if err := c.call(ctx, "getTokenAccountsByOwner", req, &resp); err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("rpc getTokenAccountsByOwner: %s", resp.Error.Message)
	}
	var total uint64
	for _, acc := range resp.Result.Value {
		amount, err := strconv.ParseUint(acc.Account.Data.Parsed.Info.TokenAmount.Amount, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse token amount: %w", err)
		}
		total += amount
	}
	return total, nil
}
