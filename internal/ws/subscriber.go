package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Subscriber is one client connected to the availability feed.
type Subscriber struct {
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	onClose      func(*Subscriber)
}

// NewSubscriber wraps an upgraded connection.
func NewSubscriber(conn *websocket.Conn, writeTimeout time.Duration, logger *zap.Logger, onClose func(*Subscriber)) *Subscriber {
	return &Subscriber{
		ws:           conn,
		send:         make(chan []byte, 16),
		logger:       logger,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// Start launches the read and write pumps. The read pump only consumes
// control frames; the feed is one-way.
func (s *Subscriber) Start(ctx context.Context) {
	go s.writePump(ctx)
	s.readPump(ctx)
}

func (s *Subscriber) readPump(ctx context.Context) {
	defer s.cleanup()
	s.ws.SetReadLimit(512)
	s.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	s.ws.SetPongHandler(func(string) error {
		s.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, _, err := s.ws.ReadMessage(); err != nil {
			s.logger.Debug("subscriber read closed", zap.Error(err))
			return
		}
	}
}

func (s *Subscriber) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.send:
			if !ok {
				_ = s.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Send enqueues a snapshot for writing, dropping it when the buffer is full.
func (s *Subscriber) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("attempted to send on closed subscriber")
		}
	}()
	select {
	case s.send <- msg:
	default:
		s.logger.Warn("dropping snapshot, subscriber buffer full")
	}
}

// Ping sends a ping control frame.
func (s *Subscriber) Ping() error {
	return s.write(websocket.PingMessage, []byte("ping"))
}

func (s *Subscriber) write(messageType int, data []byte) error {
	s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.ws.WriteMessage(messageType, data)
}

func (s *Subscriber) cleanup() {
	close(s.send)
	_ = s.ws.Close()
	if s.onClose != nil {
		s.onClose(s)
	}
}
