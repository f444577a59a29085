package types

// Client -> Server
//
// SubmitItem:    title: string, image_ref: string
// RetractItem:   {}
// StartGame:     {}
// ClaimFromPool: item_id?: string (random pool item when empty)
// StealItem:     target_player_id: string
// RevealNext:    {}
// TransferHost:  target_player_id: string
const (
	MsgSubmitItem    = "SubmitItem"
	MsgRetractItem   = "RetractItem"
	MsgStartGame     = "StartGame"
	MsgClaimFromPool = "ClaimFromPool"
	MsgStealItem     = "StealItem"
	MsgRevealNext    = "RevealNext"
	MsgTransferHost  = "TransferHost"
)

// Server -> Client
//
// Welcome:       player_id: string, token: string (pass token back to reconnect)
// StateSnapshot: version: number, state: View, events: Event[]
// Error:         code: string, error: string
const (
	MsgWelcome       = "Welcome"
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

// Error codes sent in Error messages.
const (
	CodeRoomNotJoinable       = "RoomNotJoinable"
	CodeDuplicateSubmission   = "DuplicateSubmission"
	CodeNotAuthorized         = "NotAuthorized"
	CodeInsufficientPlayers   = "InsufficientPlayers"
	CodeIncompleteSubmissions = "IncompleteSubmissions"
	CodeNotYourTurn           = "NotYourTurn"
	CodePoolEmpty             = "PoolEmpty"
	CodeTargetHasNoItem       = "TargetHasNoItem"
	CodeStealBackForbidden    = "StealBackForbidden"
	CodeItemLocked            = "ItemLocked"
	CodeAlreadyFinished       = "AlreadyFinished"
	CodeWrongPhase            = "WrongPhase"
	CodeUnknownPlayer         = "UnknownPlayer"
	CodeItemUnavailable       = "ItemUnavailable"
	CodeMalformedEvent        = "MalformedEvent"
	CodeUnsupported           = "UnsupportedCommand"
	CodeRoomClosed            = "RoomClosed"
	CodeRateLimited           = "RateLimited"
	CodeInternal              = "Internal"
)

// Event is the wire form of one engine event, attached to snapshots so
// clients can animate what changed.
type Event struct {
	Type           string        `json:"type"`
	PlayerID       string        `json:"player_id,omitempty"`
	TargetPlayerID string        `json:"target_player_id,omitempty"`
	ItemID         string        `json:"item_id,omitempty"`
	Phase          string        `json:"phase,omitempty"`
	Reveal         *RevealRecord `json:"reveal,omitempty"`
}
