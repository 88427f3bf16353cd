package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-autopilot/pkg/config"
)

// CardStatus is the reconciler's view of a tracker card
type CardStatus string

const (
	CardStatusOpen    CardStatus = "open"    // Card exists and is not complete
	CardStatusDone    CardStatus = "done"    // Card is closed or sits in a Done list
	CardStatusMissing CardStatus = "missing" // Card no longer exists
)

// CardRef identifies a created card
type CardRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// BoardList is one list on a board
type BoardList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is a minimal Trello REST client covering card creation, card status
// reads and board-list browsing
type Client struct {
	apiKey  string
	token   string
	baseURL string
	client  *http.Client
}

// NewClient creates a Trello client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewClient(cfg *config.TrelloConfig) *Client {
	var apiKey, token string
	if cfg != nil {
		apiKey = cfg.APIKey
		token = cfg.Token
	}
	if apiKey == "" {
		apiKey = os.Getenv("TRELLO_API_KEY")
	}
	if token == "" {
		token = os.Getenv("TRELLO_API_TOKEN")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("TRELLO_API_URL")
		if base == "" {
			base = "https://api.trello.com"
		}
	}

	timeout := 15 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Client{
		apiKey:  apiKey,
		token:   token,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}
}

type cardResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Closed bool   `json:"closed"`
	List   struct {
		Name string `json:"name"`
	} `json:"list"`
}

// CreateCard creates a card on the given list. The list id alone addresses
// the card; Trello resolves the board from it. Trello has no native
// idempotency-key support; the caller-generated token rides as an
// X-Idempotency-Key header so a deduplicating proxy can collapse retries.
// Without one, a retry after a lost ack can create a duplicate card.
func (c *Client) CreateCard(ctx context.Context, listID, title, description, idempotencyToken string) (*CardRef, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("token", c.token)
	q.Set("idList", listID)
	q.Set("name", title)
	q.Set("desc", description)

	endpoint := fmt.Sprintf("%s/1/cards?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if idempotencyToken != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("trello returned status %d", resp.StatusCode)
	}

	var card cardResponse
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, err
	}
	if card.ID == "" {
		return nil, fmt.Errorf("trello response missing card id")
	}
	return &CardRef{ID: card.ID, URL: card.URL}, nil
}

// GetCardStatus re-reads the external state of a card. A 404 maps to
// CardStatusMissing, not an error: the card genuinely being gone is an
// observation the reconciler acts on.
func (c *Client) GetCardStatus(ctx context.Context, cardID string) (CardStatus, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("token", c.token)
	q.Set("fields", "closed")
	q.Set("list", "true")
	q.Set("list_fields", "name")

	endpoint := fmt.Sprintf("%s/1/cards/%s?%s", c.baseURL, url.PathEscape(cardID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return CardStatusMissing, nil
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("trello returned status %d", resp.StatusCode)
	}

	var card cardResponse
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return "", err
	}
	if card.Closed || isDoneList(card.List.Name) {
		return CardStatusDone, nil
	}
	return CardStatusOpen, nil
}

// ListLists returns the lists on a board, for target selection
func (c *Client) ListLists(ctx context.Context, boardID string) ([]BoardList, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("token", c.token)
	q.Set("fields", "name")

	endpoint := fmt.Sprintf("%s/1/boards/%s/lists?%s", c.baseURL, url.PathEscape(boardID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("trello returned status %d", resp.StatusCode)
	}

	var lists []BoardList
	if err := json.NewDecoder(resp.Body).Decode(&lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// isDoneList treats common completion list names as done
func isDoneList(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "done", "complete", "completed", "finished":
		return true
	}
	return false
}
