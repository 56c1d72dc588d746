package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-trainer/internal/domain"
	"quiz-trainer/internal/quiz"
)

// WSHandler drives a quiz session interactively over a websocket. Each
// connection owns one session; intents come in as typed messages and every
// accepted intent (and every timer tick) answers with a state snapshot.
type WSHandler struct {
	gateway  quiz.Gateway
	upgrader websocket.Upgrader
}

func NewWSHandler(gateway quiz.Gateway) *WSHandler {
	return &WSHandler{
		gateway: gateway,
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

type startPayload struct {
	NumQuestions int    `json:"numQuestions"`
	Mode         string `json:"mode"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type submitPayload struct {
	QuestionID string `json:"questionId"`
}

type explanationPayload struct {
	Showing bool `json:"showing"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the session loop until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := quiz.NewSession(h.gateway)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow
	// concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// External timer driver: one Tick per second while the connection
	// lives. The session itself decides whether the tick counts.
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if session.State() == quiz.StateInProgress {
					session.Tick()
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: session.Snapshot()}:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: session.Snapshot()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if result, handled := h.handleIntent(r, session, inbound, send); handled {
			if result != nil {
				send <- outboundMessage[any]{Type: "result", Payload: result}
			}
			send <- outboundMessage[any]{Type: "state", Payload: session.Snapshot()}
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

// handleIntent applies one inbound message to the session. It returns the
// comprehensive result on a successful finish, and whether a state snapshot
// should follow.
func (h *WSHandler) handleIntent(r *http.Request, session *quiz.Session, inbound inboundMessage, send chan<- outboundMessage[any]) (any, bool) {
	fail := func(err error) (any, bool) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return nil, false
	}

	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail(err)
		}
		if err := session.Start(r.Context(), payload.NumQuestions, domain.Mode(payload.Mode)); err != nil {
			return fail(err)
		}
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail(err)
		}
		if err := session.SelectOption(payload.QuestionID, payload.OptionID); err != nil {
			return fail(err)
		}
	case "submit":
		var payload submitPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail(err)
		}
		if err := session.Submit(payload.QuestionID); err != nil {
			return fail(err)
		}
	case "next":
		session.Advance()
	case "prev":
		session.Retreat()
	case "explanation":
		var payload explanationPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail(err)
		}
		session.SetShowingExplanation(payload.Showing)
	case "suspend":
		if err := session.Suspend(); err != nil {
			return fail(err)
		}
	case "resume":
		if err := session.Resume(); err != nil {
			return fail(err)
		}
	case "finish":
		if _, err := session.Finish(r.Context()); err != nil {
			return fail(err)
		}
		if comprehensive, ok := session.LatestResult(); ok {
			return comprehensive, true
		}
	case "reset":
		session.Reset()
	default:
		return fail(errUnsupportedMessage)
	}
	return nil, true
}

var errUnsupportedMessage = errors.New("unsupported message type")
