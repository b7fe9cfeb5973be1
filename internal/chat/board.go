package chat

import "slices"

// Board owns every chat surface of one session: role channels, ad hoc rooms
// and private threads.
type Board struct {
	roles     map[string]*Room
	rooms     map[string]*Room
	roomOrder []string
	threads   map[string]*Thread
}

func NewBoard() *Board {
	return &Board{
		roles:   make(map[string]*Room),
		rooms:   make(map[string]*Room),
		threads: make(map[string]*Thread),
	}
}

// RoleChannel returns the channel for a role name, creating it on first use.
func (b *Board) RoleChannel(name string) *Room {
	if r, ok := b.roles[name]; ok {
		return r
	}
	r := NewRoom(name, name)
	b.roles[name] = r
	return r
}

func (b *Board) AddRoom(r *Room) {
	if _, ok := b.rooms[r.ID]; !ok {
		b.roomOrder = append(b.roomOrder, r.ID)
	}
	b.rooms[r.ID] = r
}

func (b *Board) Room(id string) (*Room, bool) {
	r, ok := b.rooms[id]
	return r, ok
}

// Rooms lists ad hoc rooms in creation order.
func (b *Board) Rooms() []*Room {
	out := make([]*Room, 0, len(b.roomOrder))
	for _, id := range b.roomOrder {
		out = append(out, b.rooms[id])
	}
	return out
}

// RoomsOf lists the ad hoc rooms playerID belongs to, in creation order.
func (b *Board) RoomsOf(playerID string) []*Room {
	out := []*Room{}
	for _, id := range b.roomOrder {
		if r := b.rooms[id]; r.IsMember(playerID) {
			out = append(out, r)
		}
	}
	return out
}

// Thread returns the thread between a and b, opening it if needed. The
// second return value reports whether it was newly opened.
func (b *Board) Thread(a, c string) (*Thread, bool) {
	key := ThreadKey(a, c)
	if t, ok := b.threads[key]; ok {
		return t, false
	}
	t := newThread(a, c)
	b.threads[key] = t
	return t, true
}

// ThreadsOf lists playerID's threads ordered by key.
func (b *Board) ThreadsOf(playerID string) []*Thread {
	keys := make([]string, 0)
	for k, t := range b.threads {
		if t.Has(playerID) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]*Thread, 0, len(keys))
	for _, k := range keys {
		out = append(out, b.threads[k])
	}
	return out
}
