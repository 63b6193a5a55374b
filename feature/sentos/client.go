package sentos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"catalog-sync/core/catalog"
	"catalog-sync/core/paginate"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/transport"
	"catalog-sync/core/utils"

	"go.uber.org/zap"
)

var _ reconcile.Source = (*Client)(nil)

// ErrProductNotFound is returned by ProductBySKU when no product carries the SKU.
var ErrProductNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string             { return "product not found in sentos" }
func (notFoundError) Kind() transport.ErrorKind { return transport.NotFound }

const defaultImagePath = "/urun_sayfalari/include/ajax/fetch_urunresimler.php"

// imageLink matches the original-size image links of the panel image table.
var imageLink = regexp.MustCompile(`href="(https?://[^"]+/o_[^"]+)"`)

// Client reads products from the Sentos REST API.
type Client struct {
	cfg       Config
	apiURL    string
	siteURL   string
	pageSize  int
	http      *http.Client
	transport *transport.Transport
	logger    *zap.Logger

	noCookieOnce sync.Once
}

// NewClient creates a client. Calls are retried and rate limited by t.
func NewClient(cfg Config, t *transport.Transport, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	siteURL := apiURL
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		siteURL = u.Scheme + "://" + u.Host
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if cfg.ImagePath == "" {
		cfg.ImagePath = defaultImagePath
	}

	return &Client{
		cfg:       cfg,
		apiURL:    apiURL,
		siteURL:   siteURL,
		pageSize:  pageSize,
		http:      &http.Client{},
		transport: t,
		logger:    logger.With(zap.String("client", "sentos")),
	}
}

// Page is one page of the product listing.
type Page struct {
	Products []catalog.CatalogEntity
	// Total is the catalog size reported by the API.
	Total int
	// Received is the number of raw products on the page.
	Received int
}

type listResponse struct {
	Data          []rawProduct `json:"data"`
	TotalElements any          `json:"total_elements"`
}

// FetchPage reads one page of products. Pages are numbered from 1.
func (c *Client) FetchPage(ctx context.Context, page, size int) (Page, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprint(page))
	query.Set("size", fmt.Sprint(size))

	var resp listResponse
	if err := c.getJSON(ctx, "/products", query, &resp); err != nil {
		return Page{}, fmt.Errorf("failed to fetch products page %d: %w", page, err)
	}

	out := Page{Total: utils.ToInt(resp.TotalElements), Received: len(resp.Data)}
	for _, raw := range resp.Data {
		out.Products = append(out.Products, raw.toEntity(c.cfg.Vendor))
	}
	return out, nil
}

// Products walks the whole catalog. A page shorter than the page size ends it.
func (c *Client) Products(ctx context.Context) iter.Seq2[catalog.CatalogEntity, error] {
	return paginate.Pages(ctx, 1, func(ctx context.Context, page int) (paginate.Page[catalog.CatalogEntity, int], error) {
		p, err := c.FetchPage(ctx, page, c.pageSize)
		if err != nil {
			return paginate.Page[catalog.CatalogEntity, int]{}, err
		}
		c.logger.Debug("Fetched products page",
			zap.Int("page", page),
			zap.Int("received", p.Received),
			zap.Int("total", p.Total))
		return paginate.Page[catalog.CatalogEntity, int]{
			Items:   p.Products,
			Next:    page + 1,
			HasMore: p.Received >= c.pageSize,
		}, nil
	})
}

// ProductBySKU looks up a single product.
func (c *Client) ProductBySKU(ctx context.Context, sku string) (catalog.CatalogEntity, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return catalog.CatalogEntity{}, errors.New("sku must not be empty")
	}

	var resp listResponse
	if err := c.getJSON(ctx, "/products", url.Values{"sku": {sku}}, &resp); err != nil {
		return catalog.CatalogEntity{}, fmt.Errorf("failed to look up sku %s: %w", sku, err)
	}
	if len(resp.Data) == 0 {
		return catalog.CatalogEntity{}, fmt.Errorf("sku %s: %w", sku, ErrProductNotFound)
	}
	return resp.Data[0].toEntity(c.cfg.Vendor), nil
}

// Ping verifies the credentials and returns the catalog size.
func (c *Client) Ping(ctx context.Context) (int, error) {
	p, err := c.FetchPage(ctx, 1, 1)
	if err != nil {
		return 0, err
	}
	return p.Total, nil
}

// OrderedImageURLs returns the product's images in panel order.
func (c *Client) OrderedImageURLs(ctx context.Context, entity catalog.CatalogEntity) (catalog.MediaSource, error) {
	if c.cfg.Cookie == "" {
		c.noCookieOnce.Do(func() {
			c.logger.Warn("No session cookie configured, image order is unavailable and media sync is skipped")
		})
		return catalog.MediaSource{}, nil
	}

	form := url.Values{
		"draw":             {"1"},
		"start":            {"0"},
		"length":           {"100"},
		"search[value]":    {""},
		"search[regex]":    {"false"},
		"urun":             {entity.ID},
		"model":            {"0"},
		"renk":             {"0"},
		"order[0][column]": {"0"},
		"order[0][dir]":    {"desc"},
	}

	var table struct {
		Data [][]any `json:"data"`
	}
	err := c.transport.Call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL+c.cfg.ImagePath, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Cookie", c.cfg.Cookie)
		return c.doJSON(req, &table)
	})
	if err != nil {
		return catalog.MediaSource{}, fmt.Errorf("failed to fetch image order for product %s: %w", entity.ID, err)
	}

	media := catalog.MediaSource{Available: true}
	for _, row := range table.Data {
		if len(row) <= 2 {
			continue
		}
		if m := imageLink.FindStringSubmatch(utils.ToString(row[2])); m != nil {
			media.URLs = append(media.URLs, m[1])
		}
	}
	return media, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.transport.Call(ctx, func(ctx context.Context) error {
		endpoint := c.apiURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
		req.Header.Set("Accept", "application/json")
		return c.doJSON(req, out)
	})
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := transport.CheckResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
