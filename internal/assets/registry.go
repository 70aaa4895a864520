package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patronus-pay/patronus/internal/config"
	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/logger"
)

// ErrUnknownAsset is returned when a symbol does not resolve to a configured
// asset.
var ErrUnknownAsset = errors.New("unknown asset")

// tokenListEntry is one entry of the remote token list document.
type tokenListEntry struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
}

// Registry is the closed mapping from asset symbol to either the native
// asset or a token contract. It is seeded from static configuration and can
// optionally refresh token entries from a remote token list. Lookups never
// block on a refresh.
type Registry struct {
	logger *logger.Logger

	nativeSymbol string
	listURL      string
	client       *http.Client

	mu     sync.RWMutex
	assets map[string]*models.Asset
	// static snapshots the seeded symbols; a remote list never touches them
	static map[string]bool

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry builds a registry seeded with the native asset and the static
// token entries from configuration.
func NewRegistry(cfg *config.Config, logger *logger.Logger) (*Registry, error) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		logger:       logger,
		nativeSymbol: strings.ToUpper(cfg.NativeSymbol),
		listURL:      cfg.TokenListURL,
		assets:       make(map[string]*models.Asset),
		static:       make(map[string]bool),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		ctx:    ctx,
		cancel: cancel,
	}

	now := time.Now().Unix()
	r.assets[r.nativeSymbol] = &models.Asset{
		Symbol:    r.nativeSymbol,
		Name:      cfg.NativeName,
		Decimals:  18,
		Native:    true,
		UpdatedAt: now,
	}
	r.static[r.nativeSymbol] = true

	entries, err := cfg.TokenEntries()
	if err != nil {
		cancel()
		return nil, err
	}
	for _, entry := range entries {
		if entry.Symbol == r.nativeSymbol {
			cancel()
			return nil, fmt.Errorf("token %s collides with the native asset symbol", entry.Symbol)
		}
		r.assets[entry.Symbol] = &models.Asset{
			Symbol:    entry.Symbol,
			Address:   entry.Address,
			Decimals:  entry.Decimals,
			UpdatedAt: now,
		}
		r.static[entry.Symbol] = true
	}

	return r, nil
}

// NativeSymbol returns the symbol the native asset is registered under.
func (r *Registry) NativeSymbol() string {
	return r.nativeSymbol
}

// Resolve looks a symbol up in the registry.
func (r *Registry) Resolve(symbol string) (*models.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
	}
	return asset, nil
}

// All returns all registered assets (thread-safe).
func (r *Registry) All() []*models.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := make([]*models.Asset, 0, len(r.assets))
	for _, asset := range r.assets {
		assets = append(assets, asset)
	}
	return assets
}

// FetchAndUpdateTokens fetches the remote token list and merges it into the
// registry. The native asset and statically configured tokens are never
// removed or replaced by a refresh.
func (r *Registry) FetchAndUpdateTokens() error {
	if r.listURL == "" {
		return nil
	}
	r.logger.Info("Fetching token list", "url", r.listURL)

	resp, err := r.client.Get(r.listURL)
	if err != nil {
		return fmt.Errorf("failed to fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var entries []tokenListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode token list: %w", err)
	}

	now := time.Now().Unix()
	added := 0

	r.mu.Lock()
	for _, entry := range entries {
		symbol := strings.ToUpper(entry.Symbol)
		if symbol == "" || entry.Address == "" {
			continue
		}
		if r.static[symbol] {
			// Never let a remote list shadow the native asset or a
			// statically configured token
			continue
		}
		r.assets[symbol] = &models.Asset{
			Symbol:    symbol,
			Name:      entry.Name,
			Address:   entry.Address,
			Decimals:  entry.Decimals,
			UpdatedAt: now,
		}
		added++
	}
	r.mu.Unlock()

	r.logger.Infof("Token list refreshed, %d entries merged", added)
	return nil
}

// StartPeriodicUpdate starts a goroutine that refreshes the token list
// periodically. Without a configured list URL it does nothing.
func (r *Registry) StartPeriodicUpdate() {
	if r.listURL == "" {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// Initial fetch with backoff; the static seed keeps the registry
		// usable while this retries
		backoff := 5 * time.Second
		maxBackoff := 5 * time.Minute

		for {
			if err := r.FetchAndUpdateTokens(); err != nil {
				r.logger.Error("Failed to fetch token list on startup, retrying...", "error", err, "retry_in", backoff)

				select {
				case <-time.After(backoff):
					backoff = backoff * 2
					if backoff > maxBackoff {
						backoff = maxBackoff
					}
					continue
				case <-r.ctx.Done():
					r.logger.Info("Asset registry stopped during initial fetch")
					return
				}
			}
			break
		}

		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.FetchAndUpdateTokens(); err != nil {
					r.logger.Error("Failed to refresh token list", "error", err)
				}
			case <-r.ctx.Done():
				r.logger.Info("Asset registry periodic update stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the registry's background refresh.
func (r *Registry) Stop() {
	r.cancel()
	r.wg.Wait()
}
