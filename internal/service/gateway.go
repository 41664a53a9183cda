package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
)

// StorageGateway raises the storage quota of a Network identity
type StorageGateway interface {
	UpgradeStorage(ctx context.Context, bridgeUser string, bytes int64) error
}

// HTTPGateway calls the Network gateway with basic auth
type HTTPGateway struct {
	URL    string
	User   string
	Pass   string
	Client *http.Client
}

func NewHTTPGateway(url, user, pass string) *HTTPGateway {
	return &HTTPGateway{
		URL:    strings.TrimRight(url, "/"),
		User:   user,
		Pass:   pass,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

type upgradeBody struct {
	Email string `json:"email"`
	Bytes int64  `json:"bytes"`
}

func (g *HTTPGateway) UpgradeStorage(ctx context.Context, bridgeUser string, bytesTotal int64) error {
	payload, err := json.Marshal(upgradeBody{Email: bridgeUser, Bytes: bytesTotal})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL+"/gateway/upgrade", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.User, g.Pass)

	resp, err := g.Client.Do(req)
	if err != nil {
		return apperr.ErrGatewayFailed.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.ErrGatewayFailed.Wrap(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return nil
}
