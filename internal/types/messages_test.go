package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/gift-swap-backend/internal/engine"
	"github.com/DoyleJ11/gift-swap-backend/internal/room"
	wire "github.com/DoyleJ11/gift-swap-backend/pkg/types"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    engine.Command
		wantErr error
	}{
		{
			name: "submit trims title",
			raw:  `{"type":"SubmitItem","title":"  scarf ","image_ref":"img/1.png"}`,
			want: engine.Command{Type: engine.CmdSubmitItem, Title: "scarf", ImageRef: "img/1.png"},
		},
		{
			name: "claim without id",
			raw:  `{"type":"ClaimFromPool"}`,
			want: engine.Command{Type: engine.CmdClaim},
		},
		{
			name: "claim with id",
			raw:  `{"type":"ClaimFromPool","item_id":"item-1"}`,
			want: engine.Command{Type: engine.CmdClaim, ItemID: "item-1"},
		},
		{
			name: "steal",
			raw:  `{"type":"StealItem","target_player_id":"p2"}`,
			want: engine.Command{Type: engine.CmdSteal, TargetPlayerID: "p2"},
		},
		{name: "start", raw: `{"type":"StartGame"}`, want: engine.Command{Type: engine.CmdStartGame}},
		{name: "reveal", raw: `{"type":"RevealNext"}`, want: engine.Command{Type: engine.CmdRevealNext}},
		{name: "retract", raw: `{"type":"RetractItem"}`, want: engine.Command{Type: engine.CmdRetractItem}},
		{
			name: "transfer host",
			raw:  `{"type":"TransferHost","target_player_id":"p3"}`,
			want: engine.Command{Type: engine.CmdTransferHost, TargetPlayerID: "p3"},
		},
		{name: "bad json", raw: `{"type":`, wantErr: engine.ErrMalformedEvent},
		{name: "trailing garbage", raw: `{"type":"StartGame"} garbage{{{`, wantErr: engine.ErrMalformedEvent},
		{name: "two messages", raw: `{"type":"StartGame"}{"type":"RevealNext"}`, wantErr: engine.ErrMalformedEvent},
		{name: "trailing whitespace", raw: "{\"type\":\"StartGame\"}\n", want: engine.Command{Type: engine.CmdStartGame}},
		{name: "unknown field", raw: `{"type":"StartGame","player_id":"p1"}`, wantErr: engine.ErrMalformedEvent},
		{name: "missing type", raw: `{}`, wantErr: engine.ErrMalformedEvent},
		{name: "empty title", raw: `{"type":"SubmitItem","title":"   "}`, wantErr: engine.ErrMalformedEvent},
		{name: "steal without target", raw: `{"type":"StealItem"}`, wantErr: engine.ErrMalformedEvent},
		{name: "unknown type", raw: `{"type":"Dance"}`, wantErr: engine.ErrUnsupportedCommand},
		{
			name:    "title too long",
			raw:     fmt.Sprintf(`{"type":"SubmitItem","title":%q}`, strings.Repeat("a", MaxTitleLen+1)),
			wantErr: engine.ErrMalformedEvent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.raw))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, wire.CodeStealBackForbidden, ErrorCode(engine.ErrStealBackForbidden))
	assert.Equal(t, wire.CodeMalformedEvent, ErrorCode(fmt.Errorf("%w: title", engine.ErrMalformedEvent)))
	assert.Equal(t, wire.CodeUnknownPlayer, ErrorCode(room.ErrNotJoined))
	assert.Equal(t, wire.CodeRoomClosed, ErrorCode(room.ErrClosed))
	assert.Equal(t, wire.CodeRateLimited, ErrorCode(ErrRateLimited))
	assert.Equal(t, wire.CodeInternal, ErrorCode(errors.New("disk on fire")))

	welcome := WelcomeMessage(room.Seat{PlayerID: "p1", Token: "secret"})
	assert.Equal(t, ServerMessage{Type: wire.MsgWelcome, PlayerID: "p1", Token: "secret"}, welcome)

	msg := ErrorMessage(engine.ErrItemLocked)
	assert.Equal(t, wire.MsgError, msg.Type)
	assert.Equal(t, wire.CodeItemLocked, msg.Code)
	assert.Equal(t, "item is locked", msg.Error)
}
