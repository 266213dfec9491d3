package dispatcher

import "talk2trade/src/models"

// Result messages delivered back to the update loop. Each carries the
// generation it was issued in so replies from before a new chat are dropped.

type ChatReplyMsg struct {
	gen      uint64
	Response *models.ChatResponse
	Err      error
}

type AudioReplyMsg struct {
	gen      uint64
	Response *models.AudioResponse
	Err      error
}

type MarketDataMsg struct {
	gen    uint64
	Status *models.MarketStatus
	Err    error
}

type CategoriesMsg struct {
	gen      uint64
	Response *models.CategoriesResponse
	Err      error
}

type ConversationLoadedMsg struct {
	gen      uint64
	Messages []models.ConversationMessage
	Err      error
}
