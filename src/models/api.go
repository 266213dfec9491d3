// api.go - Wire types for the Talk2Trade backend endpoints.
// Field names follow the backend JSON schema exactly.

package models

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	RefreshMarkets bool   `json:"refresh_markets"`
}

// ChatResponse is the reply of POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// AudioResponse is the reply of POST /api/audio.
type AudioResponse struct {
	TranscribedText string `json:"transcribed_text"`
	Response        string `json:"response"`
}

// ConversationMessage is one element of GET /api/conversations/{id}.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RefreshResponse is the reply of POST /api/markets/refresh.
type RefreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SampleMarket is a single market in the status sample list.
type SampleMarket struct {
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	LastPrice float64 `json:"last_price"`
	Volume    float64 `json:"volume"`
}

// MarketStatus is the reply of GET /api/markets/status.
type MarketStatus struct {
	Status        string         `json:"status"`
	MarketsCount  int            `json:"markets_count"`
	LastUpdated   string         `json:"last_updated"`
	SampleMarkets []SampleMarket `json:"sample_markets"`
}

// CategoriesResponse is the reply of GET /api/events/categories.
type CategoriesResponse struct {
	Success         bool     `json:"success"`
	TotalEvents     int      `json:"total_events"`
	CategoriesCount int      `json:"categories_count"`
	Timestamp       string   `json:"timestamp"`
	Categories      []string `json:"categories"`
}
