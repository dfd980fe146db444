// wordchain transport
//
// Every browser holds one websocket at $prefix/ws. Messages in both directions
// are JSON objects tagged by "type". Requests may carry an "id"; the reply to
// such a request is an "ack" with the same id, so clients can match answers
// to questions the way socket.io acknowledgements work.
//
// Requests: join, leave, set_target, reset_match, start_round, play.
// Pushed events: hello, plus everything the room engine broadcasts
// (system, state, timer, timer_stop, word_played, accept, reject,
// round_end, match_end).

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/Seednode/wordchain/internal/wordchain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Error codes that come from the transport rather than the room engine.
const (
	errBadRequest  = "bad_request"
	errRateLimited = "rate_limited"
)

var errSendBufferFull = errors.New("send buffer full")

// ClientMessage is any request a client can send. Which fields matter
// depends on Type.
type ClientMessage struct {
	Type        string          `json:"type"`                  // "join", "leave", "set_target", "reset_match", "start_round", "play"
	ID          json.RawMessage `json:"id,omitempty"`          // echoed in the ack
	RoomCode    string          `json:"roomCode,omitempty"`    // all
	Nickname    string          `json:"nickname,omitempty"`    // join
	TargetScore any             `json:"targetScore,omitempty"` // set_target
	Word        string          `json:"word,omitempty"`        // play
}

// AckMessage answers one ClientMessage.
type AckMessage struct {
	Type          string          `json:"type"` // "ack"
	ID            json.RawMessage `json:"id,omitempty"`
	Request       string          `json:"request,omitempty"`
	OK            bool            `json:"ok"`
	Error         string          `json:"error,omitempty"`
	RoomCode      string          `json:"roomCode,omitempty"`
	Players       int             `json:"players,omitempty"`
	AlreadyIn     bool            `json:"alreadyIn,omitempty"`
	TargetScore   int             `json:"targetScore,omitempty"`
	MustStartList []string        `json:"mustStartList,omitempty"`
}

// HelloMessage tells a fresh connection its participant id.
type HelloMessage struct {
	Type string `json:"type"` // "hello"
	ID   string `json:"id"`
}

// Client is one websocket connection, and the participant behind it.
type Client struct {
	conn    *websocket.Conn
	send    chan any
	id      string
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
	rooms  map[string]struct{}
}

func newClient(cfg *Config, conn *websocket.Conn) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan any, sendBufferSize),
		id:      uuid.NewString(),
		limiter: rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
		rooms:   make(map[string]struct{}),
	}
}

// Send queues ev for delivery. It never blocks: a client that cannot keep up
// is disconnected.
func (c *Client) Send(ev wordchain.Event) {
	_ = c.queue(ev)
}

func (c *Client) queue(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.closeLocked()
		return errSendBufferFull
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}

	c.closed = true
	close(c.send)
}

func (c *Client) joined(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rooms[code] = struct{}{}
}

func (c *Client) left(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.rooms, code)
}

func (c *Client) roomCodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	codes := make([]string, 0, len(c.rooms))
	for code := range c.rooms {
		codes = append(codes, code)
	}

	return codes
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, gm *wordchain.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Websocket upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := newClient(cfg, conn)

		logf(cfg, "SERVE: Player %s connected from %s", client.id, realIP(r))

		_ = client.queue(HelloMessage{Type: "hello", ID: client.id})

		go client.writePump()
		client.readPump(r.Context(), cfg, gm)

		logf(cfg, "SERVE: Player %s disconnected", client.id)
	}
}

func (c *Client) readPump(ctx context.Context, cfg *Config, gm *wordchain.Manager) {
	defer func() {
		gm.Disconnect(c.id, c.roomCodes())
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(cfg, "SERVE: Read error from %s: %v", c.id, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.queue(AckMessage{Type: "ack", Error: errBadRequest})
			continue
		}

		if !c.limiter.Allow() {
			_ = c.queue(AckMessage{Type: "ack", ID: msg.ID, Request: msg.Type, Error: errRateLimited})
			continue
		}

		if err := c.queue(c.handle(ctx, cfg, gm, msg)); err != nil {
			return
		}
	}
}

// handle applies one request and builds its ack. A panic while handling is
// reported to this client alone as server_error.
func (c *Client) handle(ctx context.Context, cfg *Config, gm *wordchain.Manager, msg ClientMessage) (ack AckMessage) {
	ack = AckMessage{Type: "ack", ID: msg.ID, Request: msg.Type}

	defer func() {
		if r := recover(); r != nil {
			errorf(cfg, "GAMES: Handling %q from %s panicked: %v", msg.Type, c.id, r)
			ack.OK = false
			ack.Error = string(wordchain.ReasonServerError)
		}
	}()

	var err error

	switch msg.Type {
	case "join":
		var res wordchain.JoinResult
		res, err = gm.Join(msg.RoomCode, c.id, msg.Nickname, c)
		if err == nil {
			c.joined(res.RoomCode)
			ack.RoomCode = res.RoomCode
			ack.Players = res.Players
			ack.AlreadyIn = res.AlreadyIn
			logf(cfg, "GAMES: Player %s joined %q (%d players)", c.id, res.RoomCode, res.Players)
		}

	case "leave":
		code := strings.TrimSpace(msg.RoomCode)
		err = gm.Leave(code, c.id)
		if err == nil {
			c.left(code)
			ack.RoomCode = code
		}

	case "set_target":
		ack.TargetScore, err = gm.SetTarget(msg.RoomCode, msg.TargetScore)

	case "reset_match":
		err = gm.ResetMatch(msg.RoomCode)

	case "start_round":
		err = gm.StartRound(msg.RoomCode)
		if err == nil {
			logf(cfg, "GAMES: Round started in %q", msg.RoomCode)
		}

	case "play":
		err = gm.Play(ctx, msg.RoomCode, c.id, msg.Word)
		ack.MustStartList = wordchain.DetailOf(err)

	default:
		ack.Error = errBadRequest
		return ack
	}

	if err != nil {
		ack.Error = string(wordchain.ReasonOf(err))
		return ack
	}

	ack.OK = true

	return ack
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveRoomQR renders a QR code pointing at the home page with the room code
// filled in, so players at the same table can join by scanning.
func serveRoomQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.TrimSpace(ps.ByName("code"))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		link := scheme + "://" + r.Host + cfg.prefix + "/?room=" + url.QueryEscape(code)

		const qrSize = 320
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func serveRoomState(cfg *Config, gm *wordchain.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		snapshot, ok := gm.Snapshot(ps.ByName("code"))
		if !ok {
			http.Error(w, string(wordchain.ReasonRoomNotFound), http.StatusNotFound)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(snapshot)
	}
}

// registerWordChain sets up routes so that:
//   - $prefix/ws               → websocket for all rooms
//   - $prefix/room/:code       → JSON snapshot of a room
//   - $prefix/room/:code/qr    → PNG QR code for joining a room
func registerWordChain(cfg *Config, gm *wordchain.Manager, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, gm))

	mux.GET(cfg.prefix+"/room/:code", serveRoomState(cfg, gm))

	mux.GET(cfg.prefix+"/room/:code/qr", serveRoomQR(cfg))
}
