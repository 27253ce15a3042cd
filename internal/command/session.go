package command

import (
	"strings"
	"sync"

	"github.com/intervaldb/intervaldb/internal/engine"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/notify"
)

const channelPrefix = "resource_"

// Session is connection-scoped Listen/Unlisten/UnlistenAll bookkeeping: it
// owns the set of channels one external connection has subscribed to and
// the underlying NotifyHub subscriptions backing them. It is not part of
// the engine's core state — a dropped connection just discards its
// Session, the engine never hears about it.
type Session struct {
	mu   sync.Mutex
	eng  *engine.Engine
	subs map[string]*notify.Subscription
}

// NewSession returns an empty session bound to eng.
func NewSession(eng *engine.Engine) *Session {
	return &Session{eng: eng, subs: make(map[string]*notify.Subscription)}
}

// ChannelName returns the "resource_<id>" channel name convention for id.
func ChannelName(id model.Id) string {
	return channelPrefix + id.String()
}

// parseChannel extracts the resource id from a "resource_<id>" channel
// name.
func parseChannel(channel string) (model.Id, bool) {
	rest, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return model.Id{}, false
	}
	id, err := model.ParseID(rest)
	if err != nil {
		return model.Id{}, false
	}
	return id, true
}

// Listen subscribes the session to channel, a no-op if already listening.
func (s *Session) Listen(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, already := s.subs[channel]; already {
		return
	}
	id, ok := parseChannel(channel)
	if !ok {
		return
	}
	s.subs[channel] = s.eng.Subscribe(id)
}

// Unlisten cancels the session's subscription to channel, if any.
func (s *Session) Unlisten(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[channel]
	if !ok {
		return
	}
	sub.Close()
	delete(s.subs, channel)
}

// UnlistenAll cancels every subscription the session holds. Called both
// for an explicit UnlistenAll command and when the connection closes.
func (s *Session) UnlistenAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for channel, sub := range s.subs {
		sub.Close()
		delete(s.subs, channel)
	}
}

// Events returns the channel name's event stream, or false if not
// currently listening on it.
func (s *Session) Events(channel string) (<-chan model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[channel]
	if !ok {
		return nil, false
	}
	return sub.Events, true
}
