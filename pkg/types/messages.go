package types

// Connect: GET /ws?name=<display name>&session=<code>
//   omit session and pass players=<6..12> to create a session and host it.

// Client -> Server
// CastVote:            target_id: string
// NightKillVote:       target_id: string           (traitors, traitor meeting)
// RecruitmentResponse: accept: boolean             (eligible faithful, recruitment)
// RoleMessage:         text: string, channel?: "traitor" | "faithful"
// CreateRoom:          name: string                (group discussion)
// JoinRoom:            room_id: string
// InviteToRoom:        room_id: string, target_id: string
// RoomMessage:         room_id: string, text: string
// StartPrivateChat:    target_id: string
// PrivateMessage:      target_id: string, text: string
// Sync: {}                                          (resend own snapshot)

// Server -> Client
// Welcome:
//   session_id: string
//   player_id: string
//
// StateSnapshot:
//   version: number
//   state: see snapshot.go
//
// Event:
//   version: number
//   event: { type, player_id?, target_id?, room_id?, room_name?, phase?, role?,
//            co_traitors?, consensus?, kind?, winner?, message? }
//   Events with a restricted audience (role assignment, traitor consensus,
//   recruitment offers, room and private chat) only reach those players.
//
// Error:
//   error: string
