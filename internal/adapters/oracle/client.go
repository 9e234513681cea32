package oracle

import (
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

const cacheKey = "orb_price"

var _ domain.PriceOracle = (*Client)(nil)

// Client запрашивает цену ORB у внешнего оракула и кэширует ответ в Redis,
// чтобы четыре цикла планировщика не дёргали оракула на каждого пользователя.
type Client struct {
	http     *http.Client
	baseURL  string
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewClient создаёт клиента оракула. cache может быть nil.
func NewClient(baseURL string, cache domain.Cache, cacheTTL time.Duration) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

type priceResponse struct {
	USD         float64 `json:"usd"`
	NativeRatio float64 `json:"native_ratio"`
}

// GetPrice возвращает текущую цену ORB. При недоступности оракула
// возвращает domain.ErrPriceUnavailable.
func (c *Client) GetPrice(ctx context.Context) (domain.Price, error) {
	if c.cache != nil {
		if cached, err := c.cache.Get(cacheKey); err == nil && len(cached) > 0 {
			var price domain.Price
			if err := json.Unmarshal(cached, &price); err == nil {
				return price, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/price", nil)
	if err != nil {
		return domain.Price{}, fmt.Errorf("build price request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("oracle", "get_price", "oracle", start, err)
	if err != nil {
		return domain.Price{}, fmt.Errorf("%w: %s", domain.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Price{}, fmt.Errorf("%w: read response: %s", domain.ErrPriceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Price{}, fmt.Errorf("%w: статус %d", domain.ErrPriceUnavailable, resp.StatusCode)
	}
	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.Price{}, fmt.Errorf("%w: decode: %s", domain.ErrPriceUnavailable, err)
	}
	if parsed.USD <= 0 {
		return domain.Price{}, domain.ErrPriceUnavailable
	}

	price := domain.Price{USD: parsed.USD, NativeRatio: parsed.NativeRatio}
	if c.cache != nil {
		if raw, err := json.Marshal(price); err == nil {
			_ = c.cache.Set(cacheKey, raw, c.cacheTTL)
		}
	}
	return price, nil
}
