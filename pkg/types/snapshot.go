package types

// StateSnapshot.state (personalized per player):
//   session_id: string
//   phase: "lobby" | "role_assignment" | "traitor_meeting" | "group_discussion"
//          | "voting" | "recruitment" | "game_over"
//   deadline: RFC 3339 time                     // absent in lobby and game_over
//   round: number
//   player_count: number
//   traitor_count: number
//   you: Player
//   players: Player[]   // role only for you, or everyone after game over
//   co_traitors: string[]                        // traitors only
//   role_channel: Room                           // your role's channel
//   rooms: Room[]       // rooms you belong to, messages since you joined
//   open_rooms: { id, name, members: number }[]  // group discussion only
//   threads: { id, with, messages }[]
//   recruitment: { eliminated_traitor: string }  // only while you may accept
//   winner: "traitor" | "faithful"
//
// Player: { id, name, role?, is_host, is_eliminated, has_voted }
// Room:   { id, name, members: string[], messages: Message[] }
// Message: { id, channel, from, from_name, to?, text, at }
