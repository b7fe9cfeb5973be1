package engine

import (
	"strings"

	"github.com/DoyleJ11/traitors-backend/internal/chat"
)

// roleChannelPhase is the only phase in which each role channel is live.
var roleChannelPhase = map[Role]Phase{
	RoleTraitor:  PhaseTraitorMeeting,
	RoleFaithful: PhaseGroupDiscussion,
}

func (s *State) message(p *Player, cmd Command) (chat.Message, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	return chat.Message{
		ID:       newID(),
		From:     p.ID,
		FromName: p.Name,
		Text:     text,
		At:       cmd.At,
	}, nil
}

func (s *State) roleMessage(p *Player, cmd Command) ([]Event, error) {
	channel := cmd.Channel
	if channel == RoleUnassigned {
		channel = p.Role
	}
	if channel != p.Role {
		return nil, ErrNotMember
	}
	if s.Phase != roleChannelPhase[channel] {
		return nil, ErrWrongPhase
	}
	m, err := s.message(p, cmd)
	if err != nil {
		return nil, err
	}

	stored := s.Chat.RoleChannel(channel.String()).Post(m)
	return []Event{{
		Type:       EvtRoleMessage,
		Recipients: s.living(channel),
		PlayerID:   p.ID,
		Role:       channel,
		Message:    &stored,
	}}, nil
}

func (s *State) createRoom(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseGroupDiscussion {
		return nil, ErrWrongPhase
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	r := chat.NewRoom(newID(), name)
	r.Join(p.ID, cmd.At)
	s.Chat.AddRoom(r)
	return []Event{{Type: EvtRoomCreated, PlayerID: p.ID, RoomID: r.ID, RoomName: r.Name}}, nil
}

func (s *State) joinRoom(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseGroupDiscussion {
		return nil, ErrWrongPhase
	}
	r, ok := s.Chat.Room(cmd.RoomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !r.Join(p.ID, cmd.At) {
		return nil, nil
	}
	return []Event{{
		Type:       EvtRoomJoined,
		Recipients: r.Members(),
		PlayerID:   p.ID,
		RoomID:     r.ID,
		RoomName:   r.Name,
	}}, nil
}

func (s *State) inviteToRoom(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseGroupDiscussion {
		return nil, ErrWrongPhase
	}
	r, ok := s.Chat.Room(cmd.RoomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !r.IsMember(p.ID) {
		return nil, ErrNotMember
	}
	if _, ok := s.livingPlayer(cmd.TargetID); !ok || cmd.TargetID == p.ID {
		return nil, ErrInvalidTarget
	}
	if !r.Join(cmd.TargetID, cmd.At) {
		return nil, nil
	}
	return []Event{{
		Type:       EvtRoomInvite,
		Recipients: []string{cmd.TargetID},
		PlayerID:   p.ID,
		TargetID:   cmd.TargetID,
		RoomID:     r.ID,
		RoomName:   r.Name,
	}}, nil
}

func (s *State) roomMessage(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseGroupDiscussion {
		return nil, ErrWrongPhase
	}
	r, ok := s.Chat.Room(cmd.RoomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !r.IsMember(p.ID) {
		return nil, ErrNotMember
	}
	m, err := s.message(p, cmd)
	if err != nil {
		return nil, err
	}

	stored := r.Post(m)
	return []Event{{
		Type:       EvtRoomMessage,
		Recipients: r.Members(),
		PlayerID:   p.ID,
		RoomID:     r.ID,
		Message:    &stored,
	}}, nil
}

// privateChatOpen checks that a thread between p and target may be used now.
func (s *State) privateChatOpen(p *Player, target string) error {
	if s.Phase != PhaseGroupDiscussion && s.Phase != PhaseTraitorMeeting {
		return ErrWrongPhase
	}
	if _, ok := s.livingPlayer(target); !ok || target == p.ID {
		return ErrInvalidTarget
	}
	return nil
}

func (s *State) startPrivateChat(p *Player, cmd Command) ([]Event, error) {
	if err := s.privateChatOpen(p, cmd.TargetID); err != nil {
		return nil, err
	}
	t, _ := s.Chat.Thread(p.ID, cmd.TargetID)
	return []Event{{
		Type:       EvtPrivateChatStarted,
		Recipients: []string{p.ID, cmd.TargetID},
		PlayerID:   p.ID,
		TargetID:   cmd.TargetID,
		RoomID:     t.Key,
	}}, nil
}

func (s *State) privateMessage(p *Player, cmd Command) ([]Event, error) {
	if err := s.privateChatOpen(p, cmd.TargetID); err != nil {
		return nil, err
	}
	m, err := s.message(p, cmd)
	if err != nil {
		return nil, err
	}
	m.To = cmd.TargetID

	var events []Event
	t, opened := s.Chat.Thread(p.ID, cmd.TargetID)
	if opened {
		events = append(events, Event{
			Type:       EvtPrivateChatStarted,
			Recipients: []string{p.ID, cmd.TargetID},
			PlayerID:   p.ID,
			TargetID:   cmd.TargetID,
			RoomID:     t.Key,
		})
	}
	stored := t.Post(m)
	return append(events, Event{
		Type:       EvtPrivateMessage,
		Recipients: []string{p.ID, cmd.TargetID},
		PlayerID:   p.ID,
		TargetID:   cmd.TargetID,
		RoomID:     t.Key,
		Message:    &stored,
	}), nil
}
