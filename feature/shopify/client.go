package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"catalog-sync/core/reconcile"
	"catalog-sync/core/transport"

	"go.uber.org/zap"
)

var _ reconcile.Destination = (*Client)(nil)

// Client talks to the Admin GraphQL API of one store.
type Client struct {
	endpoint  string
	token     string
	pageSize  int
	http      *http.Client
	transport *transport.Transport
	logger    *zap.Logger

	locationMu sync.Mutex
	locationID string
}

// NewClient creates a client. Calls are retried and rate limited by t.
func NewClient(cfg Config, t *transport.Transport, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 50
	}
	return &Client{
		endpoint:  cfg.Endpoint(),
		token:     cfg.AccessToken,
		pageSize:  pageSize,
		http:      &http.Client{},
		transport: t,
		logger:    logger.With(zap.String("client", "shopify")),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// execute runs one GraphQL document and decodes its data into out.
func (c *Client) execute(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	return c.transport.Call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := transport.CheckResponse(resp); err != nil {
			return err
		}

		var envelope graphQLResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("failed to decode graphql response: %w", err)
		}

		if len(envelope.Errors) > 0 {
			gqlErr := &GraphQLError{}
			for _, e := range envelope.Errors {
				gqlErr.Messages = append(gqlErr.Messages, e.Message)
				gqlErr.Codes = append(gqlErr.Codes, e.Extensions.Code)
			}
			return gqlErr
		}

		if out == nil || len(envelope.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode graphql data: %w", err)
		}
		return nil
	})
}

// ShopInfo describes the connected store.
type ShopInfo struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
}

// Ping verifies the credentials and returns basic store details.
func (c *Client) Ping(ctx context.Context) (ShopInfo, error) {
	var data struct {
		Shop struct {
			Name         string `json:"name"`
			CurrencyCode string `json:"currencyCode"`
			Plan         struct {
				DisplayName string `json:"displayName"`
			} `json:"plan"`
		} `json:"shop"`
	}
	if err := c.execute(ctx, shopQuery, nil, &data); err != nil {
		return ShopInfo{}, fmt.Errorf("failed to query shop: %w", err)
	}
	return ShopInfo{Name: data.Shop.Name, Currency: data.Shop.CurrencyCode, Plan: data.Shop.Plan.DisplayName}, nil
}

// DefaultLocation returns the first active inventory location. The result is
// cached for the lifetime of the client.
func (c *Client) DefaultLocation(ctx context.Context) (string, error) {
	c.locationMu.Lock()
	defer c.locationMu.Unlock()

	if c.locationID != "" {
		return c.locationID, nil
	}

	var data struct {
		Locations struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"locations"`
	}
	if err := c.execute(ctx, locationsQuery, nil, &data); err != nil {
		return "", fmt.Errorf("failed to query locations: %w", err)
	}
	if len(data.Locations.Nodes) == 0 {
		return "", fmt.Errorf("store has no active inventory location")
	}

	loc := data.Locations.Nodes[0]
	c.logger.Info("Resolved inventory location", zap.String("location_id", loc.ID), zap.String("name", loc.Name))
	c.locationID = loc.ID
	return c.locationID, nil
}
