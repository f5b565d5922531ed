package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

const (
	sessionName = "setquiz"
	clientKey   = "client"
)

type WSHandler struct {
	service  *app.QuizService
	sessions sessions.Store
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, store sessions.Store) *WSHandler {
	return &WSHandler{
		service:  service,
		sessions: store,
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

type difficultyPayload struct {
	Level int `json:"level"`
}

type quantityPayload struct {
	Count int `json:"count"`
}

type answerPayload struct {
	Choice string `json:"choice"`
}

type hintPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives the browser's quiz flow over the
// socket. The client is identified by a cookie session so a reload resumes the
// same flow.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID, header, err := h.clientID(r)
	if err != nil {
		log.Printf("ws session error: %v", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	flow, updates, cancel := h.service.Attach(clientID)
	defer h.service.Detach(clientID)
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	workerDone := make(chan struct{})
	queue := make(chan queuedOp, 32)

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reportError := func(op string, err error) {
		select {
		case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Op: op, Message: err.Error()}}:
		case <-closeSignals:
		}
	}

	// operations run one at a time in arrival order
	go func() {
		defer close(workerDone)
		for op := range queue {
			if op.ctx.Err() != nil {
				continue
			}
			err := op.run(op.ctx)
			if err == nil || op.ctx.Err() != nil {
				continue
			}
			if !isUserError(err) {
				log.Printf("ws %s failed: %v", op.name, err)
			}
			reportError(op.name, err)
		}
	}()

	opCtx, opCancel := context.WithCancel(ctx)
	defer func() { opCancel() }()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		run, err := h.operation(flow, inbound)
		if err != nil {
			reportError(inbound.Type, err)
			continue
		}
		if inbound.Type == "home" {
			// home interrupts the running call and skips everything queued before it
			opCancel()
			opCtx, opCancel = context.WithCancel(ctx)
		}
		queue <- queuedOp{name: inbound.Type, ctx: opCtx, run: run}
	}

	stop()
	close(closeSignals)
	close(queue)
	<-workerDone
	<-updatesDone
	close(send)
	<-writerDone
}

type queuedOp struct {
	name string
	ctx  context.Context
	run  func(context.Context) error
}

var errUnsupported = errors.New("unsupported message type")

// operation decodes an inbound message into a flow operation.
func (h *WSHandler) operation(flow *app.Flow, msg inboundMessage) (func(context.Context) error, error) {
	switch msg.Type {
	case "start":
		return func(context.Context) error { return flow.Begin() }, nil
	case "difficulty":
		var p difficultyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid difficulty payload")
		}
		return func(context.Context) error { return flow.ChooseDifficulty(p.Level) }, nil
	case "quantity":
		var p quantityPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid quantity payload")
		}
		return func(ctx context.Context) error { return flow.ChooseQuantity(ctx, p.Count) }, nil
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid answer payload")
		}
		return func(ctx context.Context) error {
			_, err := flow.Submit(ctx, p.Choice)
			return err
		}, nil
	case "hint.open":
		return func(context.Context) error { return flow.OpenHint() }, nil
	case "hint.send":
		var p hintPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid hint payload")
		}
		return func(ctx context.Context) error {
			_, err := flow.SendHint(ctx, p.Text)
			return err
		}, nil
	case "hint.close":
		return func(context.Context) error { return flow.CloseHint() }, nil
	case "review.start":
		return func(ctx context.Context) error {
			_, err := flow.StartReview(ctx)
			return err
		}, nil
	case "review.next":
		return func(ctx context.Context) error {
			_, err := flow.NextReview(ctx)
			return err
		}, nil
	case "home":
		return func(context.Context) error {
			flow.Home()
			return nil
		}, nil
	}
	return nil, errUnsupported
}

// clientID reads the client id from the cookie session, minting one on first
// visit. The returned header carries the Set-Cookie for the upgrade response.
func (h *WSHandler) clientID(r *http.Request) (string, http.Header, error) {
	// a tampered or stale cookie yields a fresh session
	session, _ := h.sessions.Get(r, sessionName)
	if id, ok := session.Values[clientKey].(string); ok && id != "" {
		return id, nil, nil
	}

	id, err := newClientID()
	if err != nil {
		return "", nil, err
	}
	session.Values[clientKey] = id
	hw := &headerWriter{header: http.Header{}}
	if err := session.Save(r, hw); err != nil {
		return "", nil, err
	}
	return id, hw.header, nil
}

func newClientID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// headerWriter collects headers written by session.Save so they can be sent
// with the websocket handshake.
type headerWriter struct {
	header http.Header
}

func (w *headerWriter) Header() http.Header { return w.header }

func (w *headerWriter) Write(b []byte) (int, error) { return len(b), nil }

func (w *headerWriter) WriteHeader(int) {}

// isUserError reports whether err comes from the student acting out of turn
// rather than from a failing collaborator.
func isUserError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidStage, domain.ErrNotActive, domain.ErrVerificationPending,
		domain.ErrAlreadyAnswered, domain.ErrSessionClosed, domain.ErrMalformedAnswer,
		domain.ErrHintPending, domain.ErrHintClosed, domain.ErrEmptyMessage,
		domain.ErrInvalidDifficulty, domain.ErrInvalidCount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
