package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sidegig/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type StateView struct {
	Day     int             `json:"day"`
	Money   float64         `json:"money"`
	Log     []game.LogEntry `json:"log"`
	Metrics *game.Metrics   `json:"metrics"`
}

func (c *Client) State(ctx context.Context) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/categories", nil, &out)
	return out.Categories, err
}

func (c *Client) Definitions(ctx context.Context) ([]*game.Template, error) {
	var out struct {
		Definitions []*game.Template `json:"definitions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/definitions", nil, &out)
	return out.Definitions, err
}

func (c *Client) Offers(ctx context.Context, category string, includeUpcoming bool) ([]*game.Offer, error) {
	path := "/v1/offers?category=" + url.QueryEscape(category)
	if includeUpcoming {
		path += "&upcoming=1"
	}
	var out struct {
		Offers []*game.Offer `json:"offers"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Offers, err
}

func (c *Client) Claim(ctx context.Context, category, offerID string) (*game.ClaimResult, error) {
	var out game.ClaimResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/offers/"+url.PathEscape(offerID)+"/claim", map[string]any{
		"category": category,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Release(ctx context.Context, category string, ids game.EntryIdentifiers) (bool, error) {
	var out struct {
		Released bool `json:"released"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/offers/release", map[string]any{
		"category":   category,
		"offerId":    ids.OfferID,
		"acceptedId": ids.AcceptedID,
		"instanceId": ids.InstanceID,
	}, &out)
	return out.Released, err
}

func (c *Client) Claimed(ctx context.Context, category string, includeCompleted bool) ([]*game.AcceptedEntry, error) {
	path := "/v1/claimed?category=" + url.QueryEscape(category)
	if includeCompleted {
		path += "&completed=1"
	}
	var out struct {
		Claimed []*game.AcceptedEntry `json:"claimed"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Claimed, err
}

func (c *Client) ActiveInstances(ctx context.Context) ([]*game.Instance, error) {
	var out struct {
		Instances []*game.Instance `json:"instances"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/instances", nil, &out)
	return out.Instances, err
}

func (c *Client) Instances(ctx context.Context, definitionID string) ([]*game.Instance, error) {
	var out struct {
		Instances []*game.Instance `json:"instances"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/definitions/"+url.PathEscape(definitionID)+"/instances", nil, &out)
	return out.Instances, err
}

func (c *Client) Accept(ctx context.Context, definitionID, name string) (*game.Instance, error) {
	var out game.Instance
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/instances/accept", map[string]any{
		"definitionId": definitionID,
		"name":         name,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LogHours(ctx context.Context, definitionID, instanceID string, hours float64) (game.AdvanceResult, error) {
	var out game.AdvanceResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/instances/"+url.PathEscape(instanceID)+"/log", map[string]any{
		"definitionId": definitionID,
		"hours":        hours,
	}, &out)
	return out, err
}

func (c *Client) Complete(ctx context.Context, definitionID, instanceID string) (*game.Instance, error) {
	var out game.Instance
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/instances/"+url.PathEscape(instanceID)+"/complete", map[string]any{
		"definitionId": definitionID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Abandon(ctx context.Context, definitionID, instanceID string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/instances/"+url.PathEscape(instanceID)+"/abandon", map[string]any{
		"definitionId": definitionID,
	}, nil)
}

func (c *Client) EndDay(ctx context.Context) (game.DaySummary, error) {
	var out game.DaySummary
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/day/end", map[string]any{}, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
