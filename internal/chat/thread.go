package chat

import "strings"

// Thread is a 1:1 conversation. Both participants always see the whole log.
type Thread struct {
	Key string
	A   string
	B   string
	log *Log
}

// ThreadKey canonicalizes an unordered pair of participants.
func ThreadKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, ":")
}

func newThread(a, b string) *Thread {
	if b < a {
		a, b = b, a
	}
	return &Thread{Key: ThreadKey(a, b), A: a, B: b, log: NewLog(MaxMessages)}
}

func (t *Thread) Has(playerID string) bool { return t.A == playerID || t.B == playerID }

// Other returns the participant that is not playerID.
func (t *Thread) Other(playerID string) string {
	if t.A == playerID {
		return t.B
	}
	return t.A
}

func (t *Thread) Post(m Message) Message {
	m.Channel = t.Key
	t.log.Append(m)
	return m
}

func (t *Thread) Messages() []Message { return t.log.Messages() }

func (t *Thread) Len() int { return t.log.Len() }
