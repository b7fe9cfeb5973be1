package chat

import (
	"slices"
	"time"
)

// Room is a multi-member channel with join-time-scoped visibility: a member
// only sees messages sent at or after the moment they joined.
type Room struct {
	ID   string
	Name string

	joinedAt map[string]time.Time
	members  []string // join order
	log      *Log
}

func NewRoom(id, name string) *Room {
	return &Room{
		ID:       id,
		Name:     name,
		joinedAt: make(map[string]time.Time),
		log:      NewLog(MaxMessages),
	}
}

// Join adds a member. Re-joining keeps the original join time and reports false.
func (r *Room) Join(playerID string, at time.Time) bool {
	if _, ok := r.joinedAt[playerID]; ok {
		return false
	}
	r.joinedAt[playerID] = at
	r.members = append(r.members, playerID)
	return true
}

func (r *Room) Leave(playerID string) {
	if _, ok := r.joinedAt[playerID]; !ok {
		return
	}
	delete(r.joinedAt, playerID)
	r.members = slices.DeleteFunc(r.members, func(id string) bool { return id == playerID })
}

func (r *Room) IsMember(playerID string) bool {
	_, ok := r.joinedAt[playerID]
	return ok
}

func (r *Room) Members() []string { return slices.Clone(r.members) }

func (r *Room) JoinedAt(playerID string) (time.Time, bool) {
	t, ok := r.joinedAt[playerID]
	return t, ok
}

// Post appends m to the room log and returns it as stored.
func (r *Room) Post(m Message) Message {
	m.Channel = r.ID
	r.log.Append(m)
	return m
}

// Len is the size of the full log, regardless of who can see it.
func (r *Room) Len() int { return r.log.Len() }

// VisibleTo returns the messages playerID may read. Non-members see nothing.
func (r *Room) VisibleTo(playerID string) []Message {
	joined, ok := r.joinedAt[playerID]
	if !ok {
		return []Message{}
	}
	return r.log.Since(joined)
}
