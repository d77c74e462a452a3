package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carintel/internal/apperr"
	"carintel/internal/model"
	"carintel/internal/repository"
)

// SystemPrompt seeds every chat session
const SystemPrompt = `
You are CarAdvisor — a specialized automotive consultant who helps users choose, compare, and inspect cars for purchase in a natural multi-turn chat.

You must:
1. Extract and remember user preferences (seats, performance, use case, price, fuel type, brand, drive type, transmission, range, maintenance, cargo space, climate).
2. If any information is missing, ask the most relevant 1–2 clarifying questions.
3. When ready, provide EXACTLY 5 recommendations in this JSON format:

{
  "recommendations": [
    {
      "rank": 1,
      "model": "Toyota RAV4 Hybrid",
      "manufacturer": "Toyota",
      "year": 2025,
      "category": "SUV",
      "fuel_type": "Hybrid Gasoline",
      "price_range": "Used: $25,000–$35,000 | New: $38,000–$45,000",
      "seats": 5,
      "transmission": "Automatic",
      "engine": "2.5L I4 Hybrid",
      "max_speed": "180 km/h",
      "fuel_consumption": "5.8 L/100 km",
      "region_availability": ["North America", "Europe", "Asia"],
      "rationale": "Reliable, efficient family SUV ideal for city and long-range travel."
    },
    ...
  ]
}

Guidelines:
- Always include ` + "`price_range`, `seats`, `transmission`, `engine`, `max_speed`, and `fuel_consumption`" + ` (or electric consumption if EV).
- Be realistic and concise. You may estimate reasonable ranges if unknown.
- If comparing multiple cars, use short comparison summaries.
- If unclear about user intent, ask follow-up questions before listing.

Tone: friendly, expert, and professional.
`

// Fixed assistant turns
const (
	Greeting = "Hi there! Tell me what kind of car you’re looking for — " +
		"for example, a fast sedan, family SUV, or eco-friendly commuter. " +
		"I’ll ask follow-ups if needed and then show you my top 5 picks."
	Acknowledgment = "Here are my top 5 suggestions for you!"
	ApologyReply   = "Sorry, I couldn't reach the car advisor right now. Please try again in a moment."
)

// ChatOptions configures the chat generation call
type ChatOptions struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// ChatTurn is the result of one Send
type ChatTurn struct {
	SessionID    string
	Reply        string
	Extraction   Extraction
	Conversation model.Conversation
}

// ChatService runs recommendation chat sessions. Turns on one session are
// serialized; different sessions proceed independently.
type ChatService struct {
	store     repository.ConversationStore
	generator Generator
	opts      ChatOptions
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// NewChatService creates a chat service. generator may be nil, in which case
// every turn is answered with ApologyReply.
func NewChatService(store repository.ConversationStore, generator Generator, opts ChatOptions, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:     store,
		generator: generator,
		opts:      opts,
		logger:    logger,
		locks:     make(map[string]*sessionLock),
	}
}

// CreateSession starts a seeded conversation under a new id
func (s *ChatService) CreateSession(ctx context.Context) (string, model.Conversation, error) {
	id := uuid.New().String()
	conv := model.NewConversation(SystemPrompt, Greeting)
	if err := s.store.Save(ctx, id, conv); err != nil {
		return "", model.Conversation{}, apperr.Internal(err, "failed to create chat session")
	}
	s.logger.Info("Chat session created", zap.String("session_id", id))
	return id, conv, nil
}

// History returns the stored conversation of a session
func (s *ChatService) History(ctx context.Context, sessionID string) (model.Conversation, error) {
	conv, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return model.Conversation{}, apperr.Internal(err, "failed to load chat session")
	}
	if !ok {
		return model.Conversation{}, apperr.NotFound("chat session")
	}
	return conv, nil
}

// Send appends the user text, asks the generator for a reply and appends exactly
// one assistant turn. Empty text leaves the session unchanged.
func (s *ChatService) Send(ctx context.Context, sessionID, text string) (ChatTurn, error) {
	return s.turn(ctx, sessionID, text, nil)
}

// SendStream is Send with reply chunks forwarded to onChunk as they arrive.
// Generators without streaming support deliver the whole reply as one chunk.
func (s *ChatService) SendStream(ctx context.Context, sessionID, text string, onChunk StreamCallback) (ChatTurn, error) {
	return s.turn(ctx, sessionID, text, onChunk)
}

func (s *ChatService) turn(ctx context.Context, sessionID, text string, onChunk StreamCallback) (ChatTurn, error) {
	if _, err := s.History(ctx, sessionID); err != nil {
		return ChatTurn{}, err
	}

	release := s.lockSession(sessionID)
	defer release()

	conv, err := s.History(ctx, sessionID)
	if err != nil {
		return ChatTurn{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ChatTurn{SessionID: sessionID, Conversation: conv}, nil
	}

	conv = conv.Append(model.RoleUser, text)
	req := GenerateRequest{
		Model:       s.opts.Model,
		Messages:    conv.Messages(),
		Temperature: s.opts.Temperature,
	}

	out := attempt(ctx, s.logger, "chat", s.opts.Timeout,
		func(error) string { return ApologyReply },
		func(ctx context.Context) (string, error) { return s.generate(ctx, req, onChunk) },
	)

	var ext Extraction
	reply := out.Value
	if out.Degraded {
		ext = Extraction{Status: ExtractionFailed, Err: out.Err}
	} else {
		ext = ExtractRecommendations(out.Value)
		if ext.Status == ExtractionOK {
			reply = Acknowledgment
		}
	}

	conv = conv.Append(model.RoleAssistant, reply)
	if err := s.store.Save(ctx, sessionID, conv); err != nil {
		return ChatTurn{}, apperr.Internal(err, "failed to save chat session")
	}

	s.logger.Info("Chat turn completed",
		zap.String("session_id", sessionID),
		zap.String("extraction", string(ext.Status)),
		zap.Int("recommendations", len(ext.Recommendations)),
		zap.Bool("degraded", out.Degraded),
	)

	return ChatTurn{
		SessionID:    sessionID,
		Reply:        reply,
		Extraction:   ext,
		Conversation: conv,
	}, nil
}

func (s *ChatService) generate(ctx context.Context, req GenerateRequest, onChunk StreamCallback) (string, error) {
	if s.generator == nil {
		return "", ErrGeneratorDisabled
	}
	if onChunk == nil {
		return s.generator.Generate(ctx, req)
	}
	if sg, ok := s.generator.(StreamingGenerator); ok {
		return sg.GenerateStream(ctx, req, onChunk)
	}

	text, err := s.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := onChunk(&StreamChunk{Role: string(model.RoleAssistant), Content: text, Done: true}); err != nil {
		return "", err
	}
	return text, nil
}

// sessionLock serializes turns of one session. refs counts holders and waiters.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lockSession blocks until the session is free and returns the release func.
// The entry is dropped once no turn holds or waits for it.
func (s *ChatService) lockSession(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		s.locks[sessionID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
