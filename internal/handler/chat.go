package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"carintel/internal/apperr"
	"carintel/internal/model"
	"carintel/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the recommendation chat
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// CreateSession handles POST /api/v1/chat/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	id, conv, err := h.chat.CreateSession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.ChatSessionResponse{
		SessionID: id,
		Messages:  conv.Visible(),
	})
}

// GetSession handles GET /api/v1/chat/sessions/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	conv, err := h.chat.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ChatSessionResponse{
		SessionID: id,
		Messages:  conv.Visible(),
	})
}

// SendMessage handles POST /api/v1/chat/sessions/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req model.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	turn, err := h.chat.Send(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, turnResponse(turn))
}

// SendMessageStream handles POST /api/v1/chat/sessions/:id/messages/stream - SSE streaming turn.
// Chunk text stops at the first "{" of the reply, so recommendation JSON never reaches
// the client as prose. The turn event carries the reply as stored in the session.
func (h *ChatHandler) SendMessageStream(c *gin.Context) {
	var req model.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	id := c.Param("id")
	if _, err := h.chat.History(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, apperr.Internal(nil, "streaming not supported"))
		return
	}

	sendSSE(c, "start", map[string]any{"session_id": id})
	flusher.Flush()

	var prose proseFilter
	turn, err := h.chat.SendStream(c.Request.Context(), id, req.Text, func(chunk *service.StreamChunk) error {
		content := prose.Next(chunk.Content)
		if content == "" && chunk.ThinkingContent == "" {
			return nil
		}
		sendSSE(c, "chunk", map[string]any{
			"content":  content,
			"thinking": chunk.ThinkingContent,
		})
		flusher.Flush()
		return nil
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": apperr.Code(err), "message": apperr.Message(err)})
		flusher.Flush()
		return
	}

	sendSSE(c, "turn", turnResponse(turn))
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// proseFilter passes streamed text through until the first "{"
type proseFilter struct {
	held bool
}

// Next returns the part of content that may be shown while streaming
func (f *proseFilter) Next(content string) string {
	if f.held {
		return ""
	}
	if i := strings.IndexByte(content, '{'); i >= 0 {
		f.held = true
		return content[:i]
	}
	return content
}

func turnResponse(turn service.ChatTurn) model.ChatTurnResponse {
	resp := model.ChatTurnResponse{
		SessionID:       turn.SessionID,
		Reply:           turn.Reply,
		Status:          string(turn.Extraction.Status),
		Recommendations: turn.Extraction.Recommendations,
		Messages:        turn.Conversation.Visible(),
	}
	for _, rec := range turn.Extraction.Recommendations {
		resp.Cards = append(resp.Cards, rec.Card())
	}
	return resp
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
