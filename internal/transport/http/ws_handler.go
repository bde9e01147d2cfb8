package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"squizer-game-service/internal/app"
	"squizer-game-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type answerResult struct {
	Correct    bool `json:"correct"`
	TotalScore int  `json:"totalScore"`
}

type questionPayload struct {
	Question domain.Question `json:"question"`
	Index    int             `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a battle.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	battleID := r.URL.Query().Get("battleId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if battleID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing battleId, userId, or name", http.StatusBadRequest)
		return
	}
	stake, err := strconv.ParseFloat(r.URL.Query().Get("stake"), 64)
	if err != nil {
		http.Error(w, "invalid stake", http.StatusBadRequest)
		return
	}
	players, err := strconv.Atoi(r.URL.Query().Get("players"))
	if err != nil {
		http.Error(w, "invalid players", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	battle, err := h.service.JoinBattle(r.Context(), battleID, userID, displayName, domain.BattleConfig(stake), players)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel := battle.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: update.Type, Payload: update}:
				case <-closeSignals:
					return
				}
				// Question delivery is per-participant: each player may
				// stand on a different index, so it rides alongside the
				// shared events instead of inside them.
				if update.Type == app.EventStarted || update.Type == app.EventTieBreak {
					if q, idx, err := battle.CurrentQuestion(userID); err == nil {
						select {
						case send <- outboundMessage[any]{Type: "question", Payload: questionPayload{Question: q, Index: idx}}:
						case <-closeSignals:
							return
						}
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: app.EventJoined, Payload: BattleStateView(battle)}

	// A join that fills the lobby starts the battle before this
	// subscription exists, so the started event never reaches it. Ask
	// for the current question directly instead.
	if q, idx, err := battle.CurrentQuestion(userID); err == nil {
		send <- outboundMessage[any]{Type: "question", Payload: questionPayload{Question: q, Index: idx}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			out, err := battle.SubmitAnswer(r.Context(), userID, payload.Option)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				Correct:    out.Correct,
				TotalScore: out.Score,
			}}
			if q, idx, err := battle.CurrentQuestion(userID); err == nil {
				send <- outboundMessage[any]{Type: "question", Payload: questionPayload{Question: q, Index: idx}}
			}
		case "quit":
			if err := battle.Quit(r.Context(), userID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	_ = battle.Quit(r.Context(), userID)
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// BattleStateView summarizes a battle for the joined acknowledgement.
func BattleStateView(b *app.BattleSession) map[string]any {
	return map[string]any{
		"battleId": b.ID(),
		"status":   b.Status(),
	}
}
