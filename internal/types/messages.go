package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/gift-swap-backend/internal/engine"
	"github.com/DoyleJ11/gift-swap-backend/internal/room"
	wire "github.com/DoyleJ11/gift-swap-backend/pkg/types"
)

var ErrRateLimited = errors.New("rate limited")

const (
	MaxTitleLen    = 120
	MaxRefLen      = 512
	MaxMessageSize = 4096
)

type ClientMessage struct {
	Type           string `json:"type"`
	Title          string `json:"title,omitempty"`
	ImageRef       string `json:"image_ref,omitempty"`
	ItemID         string `json:"item_id,omitempty"`
	TargetPlayerID string `json:"target_player_id,omitempty"`
}

type ServerMessage struct {
	Type     string       `json:"type"` // "Welcome" | "StateSnapshot" | "Error"
	Version  int          `json:"version,omitempty"`
	PlayerID string       `json:"player_id,omitempty"`
	Token    string       `json:"token,omitempty"`
	State    *wire.View   `json:"state,omitempty"`
	Events   []wire.Event `json:"events,omitempty"`
	Code     string       `json:"code,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Decode parses one client frame into an engine command. Anything that is
// not a well-formed member of the client message set is ErrMalformedEvent.
func Decode(data []byte) (engine.Command, error) {
	if len(data) > MaxMessageSize {
		return engine.Command{}, fmt.Errorf("%w: message too large", engine.ErrMalformedEvent)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m ClientMessage
	if err := dec.Decode(&m); err != nil {
		return engine.Command{}, fmt.Errorf("%w: %v", engine.ErrMalformedEvent, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return engine.Command{}, malformed("trailing data after message")
	}
	return ToCommand(m)
}

func ToCommand(m ClientMessage) (engine.Command, error) {
	switch m.Type {
	case wire.MsgSubmitItem:
		title := strings.TrimSpace(m.Title)
		if title == "" {
			return engine.Command{}, malformed("title is required")
		}
		if utf8.RuneCountInString(title) > MaxTitleLen {
			return engine.Command{}, malformed("title too long")
		}
		if len(m.ImageRef) > MaxRefLen {
			return engine.Command{}, malformed("image_ref too long")
		}
		return engine.Command{Type: engine.CmdSubmitItem, Title: title, ImageRef: m.ImageRef}, nil

	case wire.MsgRetractItem:
		return engine.Command{Type: engine.CmdRetractItem}, nil

	case wire.MsgStartGame:
		return engine.Command{Type: engine.CmdStartGame}, nil

	case wire.MsgClaimFromPool:
		return engine.Command{Type: engine.CmdClaim, ItemID: strings.TrimSpace(m.ItemID)}, nil

	case wire.MsgStealItem:
		target := strings.TrimSpace(m.TargetPlayerID)
		if target == "" {
			return engine.Command{}, malformed("target_player_id is required")
		}
		return engine.Command{Type: engine.CmdSteal, TargetPlayerID: target}, nil

	case wire.MsgRevealNext:
		return engine.Command{Type: engine.CmdRevealNext}, nil

	case wire.MsgTransferHost:
		target := strings.TrimSpace(m.TargetPlayerID)
		if target == "" {
			return engine.Command{}, malformed("target_player_id is required")
		}
		return engine.Command{Type: engine.CmdTransferHost, TargetPlayerID: target}, nil

	case "":
		return engine.Command{}, malformed("type is required")
	default:
		return engine.Command{}, fmt.Errorf("%w: %q", engine.ErrUnsupportedCommand, m.Type)
	}
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", engine.ErrMalformedEvent, reason)
}

var errorCodes = []struct {
	err  error
	code string
}{
	{engine.ErrRoomNotJoinable, wire.CodeRoomNotJoinable},
	{engine.ErrDuplicateSubmission, wire.CodeDuplicateSubmission},
	{engine.ErrNotAuthorized, wire.CodeNotAuthorized},
	{engine.ErrInsufficientPlayers, wire.CodeInsufficientPlayers},
	{engine.ErrIncompleteSubmissions, wire.CodeIncompleteSubmissions},
	{engine.ErrNotYourTurn, wire.CodeNotYourTurn},
	{engine.ErrPoolEmpty, wire.CodePoolEmpty},
	{engine.ErrTargetHasNoItem, wire.CodeTargetHasNoItem},
	{engine.ErrStealBackForbidden, wire.CodeStealBackForbidden},
	{engine.ErrItemLocked, wire.CodeItemLocked},
	{engine.ErrAlreadyFinished, wire.CodeAlreadyFinished},
	{engine.ErrWrongPhase, wire.CodeWrongPhase},
	{engine.ErrUnknownPlayer, wire.CodeUnknownPlayer},
	{room.ErrNotJoined, wire.CodeUnknownPlayer},
	{engine.ErrItemUnavailable, wire.CodeItemUnavailable},
	{engine.ErrMalformedEvent, wire.CodeMalformedEvent},
	{engine.ErrUnsupportedCommand, wire.CodeUnsupported},
	{room.ErrClosed, wire.CodeRoomClosed},
	{ErrRateLimited, wire.CodeRateLimited},
}

// ErrorCode maps err to its wire code. Unknown errors are CodeInternal.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return wire.CodeInternal
}

func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: wire.MsgError, Code: ErrorCode(err), Error: err.Error()}
}

func WelcomeMessage(seat room.Seat) ServerMessage {
	return ServerMessage{Type: wire.MsgWelcome, PlayerID: seat.PlayerID, Token: seat.Token}
}

func SnapshotMessage(snap room.Snapshot) ServerMessage {
	view := snap.View
	return ServerMessage{
		Type:    wire.MsgStateSnapshot,
		Version: snap.Version,
		State:   &view,
		Events:  snap.Events,
	}
}
