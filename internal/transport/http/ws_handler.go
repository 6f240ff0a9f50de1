package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nxt-assess-service/internal/app"
	"nxt-assess-service/internal/domain"
)

// WSHandler serves one assessment attempt per websocket connection.
type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.AssessmentService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
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

type selectPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type jumpPayload struct {
	QuestionID string `json:"questionId"`
}

type readyPayload struct {
	AttemptID string            `json:"attemptId"`
	Questions []domain.Question `json:"questions"`
	Summary   domain.Summary    `json:"summary"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ServeWS upgrades the request, starts an attempt for the requested question
// set, and bridges attempt updates and client operations until the socket
// closes. Disconnecting tears the attempt down, cancelling its countdown.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("setId")
	if setID == "" {
		http.Error(w, "missing setId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	attempt, startErr := h.service.Start(r.Context(), setID)
	attemptID := attempt.ID()
	defer h.service.Abandon(attemptID)

	updates, cancel, err := h.service.Subscribe(attemptID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
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
				var msg outboundMessage[any]
				if update.TimedOut != nil {
					msg = outboundMessage[any]{Type: "timedOut", Payload: update.TimedOut}
				} else {
					msg = outboundMessage[any]{Type: "summary", Payload: update}
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if startErr != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: startErr.Error(), Retryable: isFetchError(startErr)}}
	} else {
		send <- readyMessage(attempt)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(errors.New("invalid select payload"))
				continue
			}
			if _, err := h.service.SelectOption(attemptID, payload.QuestionID, payload.OptionID); err != nil {
				send <- errorMessage(err)
			}
		case "jump":
			var payload jumpPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(errors.New("invalid jump payload"))
				continue
			}
			if _, err := h.service.JumpToQuestion(attemptID, payload.QuestionID); err != nil {
				send <- errorMessage(err)
			}
		case "advance":
			if _, err := h.service.Advance(attemptID); err != nil {
				send <- errorMessage(err)
			}
		case "submit":
			result, err := h.service.Submit(attemptID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: result}
		case "retry":
			refreshed, err := h.service.Retry(r.Context(), attemptID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Retryable: isFetchError(err)}}
				continue
			}
			send <- readyMessage(refreshed)
		default:
			send <- errorMessage(errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func readyMessage(attempt *app.Attempt) outboundMessage[any] {
	snap := attempt.Snapshot()
	return outboundMessage[any]{Type: "ready", Payload: readyPayload{
		AttemptID: attempt.ID(),
		Questions: snap.Questions,
		Summary:   app.Project(snap),
	}}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

func isFetchError(err error) bool {
	var fetchErr *domain.FetchError
	return errors.As(err, &fetchErr)
}
