// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent is one message recorded by Context.Send.
type Sent struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Context implements the parts of tele.Context used by handlers and
// middleware. Calling any other method panics.
type Context struct {
	tele.Context

	Upd  tele.Update
	User *tele.User
	Msg  *tele.Message

	// SendErr is returned by Send when set.
	SendErr error

	mu    sync.Mutex
	store map[string]interface{}
	sent  []Sent
}

// NewText builds a private-chat text message from userID.
func NewText(userID int64, text string) *Context {
	user := &tele.User{ID: userID, FirstName: "Test"}
	msg := &tele.Message{
		ID:     1,
		Sender: user,
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   text,
	}
	return &Context{
		Upd:  tele.Update{ID: 100, Message: msg},
		User: user,
		Msg:  msg,
	}
}

func (c *Context) Update() tele.Update   { return c.Upd }
func (c *Context) Message() *tele.Message { return c.Msg }
func (c *Context) Sender() *tele.User    { return c.User }

func (c *Context) Chat() *tele.Chat {
	if c.Msg == nil {
		return nil
	}
	return c.Msg.Chat
}

func (c *Context) Text() string {
	if c.Msg == nil {
		return ""
	}
	return c.Msg.Text
}

func (c *Context) Send(what interface{}, opts ...interface{}) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	s := Sent{}
	if text, ok := what.(string); ok {
		s.Text = text
	}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				s.Markup = v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			s.Markup = v
		}
	}
	c.mu.Lock()
	c.sent = append(c.sent, s)
	c.mu.Unlock()
	return nil
}

func (c *Context) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = val
}

// Sent returns a copy of every message sent so far.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Texts returns the texts of every message sent so far.
func (c *Context) Texts() []string {
	sent := c.Sent()
	out := make([]string, len(sent))
	for i, s := range sent {
		out[i] = s.Text
	}
	return out
}

// Last returns the most recent message or a zero Sent.
func (c *Context) Last() Sent {
	sent := c.Sent()
	if len(sent) == 0 {
		return Sent{}
	}
	return sent[len(sent)-1]
}
