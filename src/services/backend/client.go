// Package backend is the HTTP transport to the Talk2Trade backend. Every
// endpoint the client consumes lives here; callers get typed errors from
// src/models for transport, status and decode failures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"talk2trade/src/config"
	"talk2trade/src/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pathChat         = "/api/chat"
	pathAudio        = "/api/audio"
	pathConversation = "/api/conversations/{conversation_id}"
	pathRefresh      = "/api/markets/refresh"
	pathMarkets      = "/api/markets/status"
	pathCategories   = "/api/events/categories"

	// RequestIDHeader correlates client and backend logs.
	RequestIDHeader = "X-Request-ID"
)

// Client talks to the backend over HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for cfg.BaseURL.
func New(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			r.SetHeader(RequestIDHeader, uuid.NewString())
			return nil
		})
	return &Client{http: httpClient, logger: logger.Named("backend")}
}

// Chat posts one user message and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var reply struct {
		Response *string `json:"response"`
	}
	err := c.do(ctx, "chat", http.MethodPost, pathChat, func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(req)
	}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.Response == nil {
		return nil, &models.DecodeError{Op: "chat", Err: errors.New(`missing "response"`)}
	}
	return &models.ChatResponse{Response: *reply.Response}, nil
}

// UploadAudio posts a recording as multipart form data and returns the
// transcript together with the assistant reply.
func (c *Client) UploadAudio(ctx context.Context, conversationID string, blob models.AudioBlob) (*models.AudioResponse, error) {
	var reply struct {
		TranscribedText *string `json:"transcribed_text"`
		Response        *string `json:"response"`
	}
	err := c.do(ctx, "audio", http.MethodPost, pathAudio, func(r *resty.Request) {
		r.SetMultipartField("audio", blob.Filename, blob.MimeType, bytes.NewReader(blob.Data)).
			SetMultipartFormData(map[string]string{"conversation_id": conversationID})
	}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.TranscribedText == nil || reply.Response == nil {
		return nil, &models.DecodeError{Op: "audio", Err: errors.New(`missing "transcribed_text" or "response"`)}
	}
	return &models.AudioResponse{TranscribedText: *reply.TranscribedText, Response: *reply.Response}, nil
}

// Conversation returns the stored history of a conversation in chronological order.
func (c *Client) Conversation(ctx context.Context, conversationID string) ([]models.ConversationMessage, error) {
	var history []models.ConversationMessage
	err := c.do(ctx, "conversation", http.MethodGet, pathConversation, func(r *resty.Request) {
		r.SetPathParam("conversation_id", conversationID)
	}, &history)
	if err != nil {
		return nil, err
	}
	return history, nil
}

// RefreshMarkets asks the backend to reload its market cache.
func (c *Client) RefreshMarkets(ctx context.Context) (*models.RefreshResponse, error) {
	var out models.RefreshResponse
	if err := c.do(ctx, "refresh markets", http.MethodPost, pathRefresh, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarketStatus returns the backend's market cache summary.
func (c *Client) MarketStatus(ctx context.Context) (*models.MarketStatus, error) {
	var out models.MarketStatus
	if err := c.do(ctx, "market status", http.MethodGet, pathMarkets, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventCategories returns the categories of currently listed events.
func (c *Client) EventCategories(ctx context.Context) (*models.CategoriesResponse, error) {
	var out models.CategoriesResponse
	if err := c.do(ctx, "event categories", http.MethodGet, pathCategories, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do executes one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, op, method, path string, prepare func(*resty.Request), out any) error {
	req := c.http.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &models.TransportError{Op: op, Err: err}
	}

	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", resp.Request.URL),
		zap.String("request_id", resp.Request.Header.Get(RequestIDHeader)),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &models.StatusError{Op: op, Status: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &models.DecodeError{Op: op, Err: err}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
