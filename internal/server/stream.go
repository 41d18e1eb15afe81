package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"frpengine/internal/frp"
	"frpengine/internal/store"
	"frpengine/internal/types"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// StreamMessage is one server-to-client frame. Type is "event", "result" or
// "error".
type StreamMessage struct {
	Type     string             `json:"type"`
	Event    *frp.Event         `json:"event,omitempty"`
	Record   *store.Record      `json:"record,omitempty"`
	Rendered string             `json:"rendered,omitempty"`
	Kind     string             `json:"kind,omitempty"`
	Error    string             `json:"error,omitempty"`
	Analysis *types.FRPAnalysis `json:"analysis,omitempty"`
}

// StreamAnalysis runs one analysis over a websocket. The first client frame
// is a RunRequest; stage events follow until a final result or error frame,
// after which the server closes the connection. The run is canceled when the
// client goes away.
func (h *Handler) StreamAnalysis(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		h.log.Warn("stream set read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	var req RunRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.log.Debug("stream read request", zap.Error(err))
		return
	}

	writeCh := make(chan StreamMessage, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out, ok := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Further client frames are ignored; a read error means the peer is gone.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	push := func(msg StreamMessage) {
		select {
		case writeCh <- msg:
		case <-writerDone:
		}
	}

	h.runStream(ctx, req, push)
	close(writeCh)
	<-writerDone
}

func (h *Handler) runStream(ctx context.Context, req RunRequest, push func(StreamMessage)) {
	if err := req.applyPreset(); err != nil {
		kind, _ := errorKind(err)
		push(StreamMessage{Type: "error", Kind: kind, Error: err.Error()})
		return
	}
	ctx = frp.ContextWithObserver(ctx, frp.ObserverFunc(func(e frp.Event) {
		push(StreamMessage{Type: "event", Event: &e})
	}))
	analysis, err := h.pipeline.Run(ctx, req.Config, req.InputText, req.Question, req.Resume)
	if err != nil {
		kind, _ := errorKind(err)
		push(StreamMessage{Type: "error", Kind: kind, Error: err.Error(), Analysis: analysis})
		return
	}
	rec := store.NewRecord(analysis, h.now())
	if err := h.store.Put(ctx, rec); err != nil {
		h.log.Error("store streamed analysis", zap.String("id", rec.ID), zap.Error(err))
		push(StreamMessage{Type: "error", Kind: "store", Error: err.Error(), Analysis: analysis})
		return
	}
	resp, err := respond(rec, req.Config.OutputFormat)
	if err != nil {
		push(StreamMessage{Type: "error", Kind: "internal", Error: err.Error(), Analysis: analysis})
		return
	}
	push(StreamMessage{Type: "result", Record: &resp.Record, Rendered: resp.Rendered})
}
