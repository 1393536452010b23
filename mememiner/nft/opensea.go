package nft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Asset is one NFT on the wallet, as reported by the indexer.
type Asset struct {
	Identifier string `json:"identifier"`
	Contract   string `json:"contract"`
	Name       string `json:"name"`
}

type assetsResponse struct {
	NFTs []Asset `json:"nfts"`
}

type assetDetailResponse struct {
	NFT struct {
		Traits []struct {
			TraitType string `json:"trait_type"`
			Value     string `json:"value"`
		} `json:"traits"`
	} `json:"nft"`
}

// Client is a thin OpenSea v2 API client, scoped to the ethereum chain.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ListWalletAssets returns the wallet's NFTs under one contract. A single
// page of 200 covers every realistic holder.
func (c *Client) ListWalletAssets(ctx context.Context, wallet, contract string) ([]Asset, error) {
	endpoint := fmt.Sprintf("%s/api/v2/chain/ethereum/account/%s/nfts?asset_contract_address=%s&limit=200",
		c.baseURL, url.PathEscape(wallet), url.QueryEscape(contract))

	var resp assetsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to list assets for %s: %w", contract, err)
	}
	return resp.NFTs, nil
}

// GetTierTrait fetches one NFT's metadata and returns its Tier trait, or ""
// when the token carries none.
func (c *Client) GetTierTrait(ctx context.Context, contract, identifier string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/chain/ethereum/contract/%s/nfts/%s",
		c.baseURL, url.PathEscape(contract), url.PathEscape(identifier))

	var resp assetDetailResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch token %s/%s: %w", contract, identifier, err)
	}

	for _, trait := range resp.NFT.Traits {
		if trait.TraitType == "Tier" {
			return trait.Value, nil
		}
	}
	return "", nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
