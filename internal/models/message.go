package models

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client → Server message types
const (
	MsgTypeJoinQueue    = "join_queue"
	MsgTypeSendLine     = "send_line"
	MsgTypeJoinSpectate = "join_spectate"
	MsgTypeSendReaction = "send_reaction"
	MsgTypeLeave        = "leave"
)

// Server → Client message types
const (
	MsgTypeSearching        = "searching"
	MsgTypeBattleStarted    = "battle_started"
	MsgTypeBattleState      = "battle_state" // resume / spectate snapshot
	MsgTypeNewLine          = "new_line"
	MsgTypeRoundChanged     = "round_changed"
	MsgTypeBattleEnded      = "battle_ended"
	MsgTypeNewReaction      = "new_reaction"
	MsgTypeReactionExpired  = "reaction_expired"
	MsgTypeSpectateRejected = "spectate_rejected"
	MsgTypeError            = "error"
)

// Spectate admission rejection reasons
const (
	RejectNotFound       = "not_found"
	RejectFull           = "full"
	RejectAlreadyPresent = "already_present"
)
