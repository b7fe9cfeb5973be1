package chat

import "time"

// MaxMessages caps every room, role channel and private thread.
const MaxMessages = 100

type Message struct {
	ID       string    `json:"id"`
	Channel  string    `json:"channel"`
	From     string    `json:"from"`
	FromName string    `json:"from_name"`
	To       string    `json:"to,omitempty"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Log is a fixed-capacity ring of messages. Appending past capacity
// overwrites the oldest entry.
type Log struct {
	buf   []Message
	start int
	size  int
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = MaxMessages
	}
	return &Log{buf: make([]Message, capacity)}
}

func (l *Log) Append(m Message) {
	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = m
		l.size++
		return
	}
	l.buf[l.start] = m
	l.start = (l.start + 1) % len(l.buf)
}

func (l *Log) Len() int { return l.size }

// Messages returns a copy of the log, oldest first.
func (l *Log) Messages() []Message {
	out := make([]Message, 0, l.size)
	for i := 0; i < l.size; i++ {
		out = append(out, l.buf[(l.start+i)%len(l.buf)])
	}
	return out
}

// Since returns messages timestamped at or after t, oldest first.
func (l *Log) Since(t time.Time) []Message {
	out := []Message{}
	for i := 0; i < l.size; i++ {
		m := l.buf[(l.start+i)%len(l.buf)]
		if !m.At.Before(t) {
			out = append(out, m)
		}
	}
	return out
}
