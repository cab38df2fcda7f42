package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *Router {
	return newRouter(&Config{}, newRegistry())
}

// testClient is a client without a websocket behind it; tests drain the send
// channel directly.
func testClient() *client {
	return &client{send: make(chan Message, 64)}
}

func dispatchAction(t *testing.T, rt *Router, c *client, action string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	rt.dispatch(inbound{client: c, msg: inboundMessage{Action: action, Payload: raw}})
}

func received(c *client) []Message {
	var msgs []Message
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func lastWithAction(t *testing.T, msgs []Message, action string) Message {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Action == action {
			return msgs[i]
		}
	}
	t.Fatalf("no %q among %v", action, msgs)
	return Message{}
}

func TestIdentifyCreatesPlayer(t *testing.T) {
	rt := newTestRouter()
	c := testClient()

	dispatchAction(t, rt, c, "identify", "alice")

	require.NotNil(t, c.player)
	assert.Equal(t, "alice", c.player.name)

	got := lastWithAction(t, received(c), "got-name")
	id, ok := got.Payload.(string)
	require.True(t, ok)
	assert.Len(t, id, 4)

	p, err := rt.reg.player(id)
	require.NoError(t, err)
	assert.Same(t, c.player, p)
}

func TestActionsBeforeIdentificationRejected(t *testing.T) {
	rt := newTestRouter()
	c := testClient()

	dispatchAction(t, rt, c, "create", "")

	assert.Nil(t, c.player)
	msg := lastWithAction(t, received(c), "error")
	assert.Equal(t, "player-not-found", msg.Payload)
}

func TestRejoinUnknownPlayer(t *testing.T) {
	rt := newTestRouter()
	c := testClient()

	dispatchAction(t, rt, c, "re-join", "zzzz")

	assert.Nil(t, c.player)
	msg := lastWithAction(t, received(c), "error")
	assert.Equal(t, "player-not-found", msg.Payload)
}

func TestUndecodableMessage(t *testing.T) {
	rt := newTestRouter()
	c := testClient()

	rt.dispatch(inbound{client: c, err: errors.New("invalid character")})

	msg := lastWithAction(t, received(c), "error")
	assert.Equal(t, "parsing-json", msg.Payload)
}

func TestIdentifyWithMissingPayload(t *testing.T) {
	rt := newTestRouter()
	c := testClient()

	rt.dispatch(inbound{client: c, msg: inboundMessage{Action: "identify"}})

	// the identity exists, but the name never arrived
	require.NotNil(t, c.player)
	msg := lastWithAction(t, received(c), "error")
	assert.Equal(t, "parsing-json", msg.Payload)
}

func TestUnknownActionRejected(t *testing.T) {
	rt := newTestRouter()
	c := testClient()
	dispatchAction(t, rt, c, "identify", "alice")

	dispatchAction(t, rt, c, "self-destruct", "")

	msg := lastWithAction(t, received(c), "error")
	assert.Equal(t, "parsing-json", msg.Payload)
}

func TestJoinErrors(t *testing.T) {
	rt := newTestRouter()

	creator := testClient()
	dispatchAction(t, rt, creator, "identify", "alice")
	dispatchAction(t, rt, creator, "create", "")
	gameID, ok := lastWithAction(t, received(creator), "created").Payload.(string)
	require.True(t, ok)

	joiner := testClient()
	dispatchAction(t, rt, joiner, "identify", "bob")

	dispatchAction(t, rt, joiner, "join", "zzzz")
	msg := lastWithAction(t, received(joiner), "error")
	assert.Equal(t, "game-not-found", msg.Payload)

	dispatchAction(t, rt, creator, "start", "")

	dispatchAction(t, rt, joiner, "join", gameID)
	msg = lastWithAction(t, received(joiner), "error")
	assert.Equal(t, "game-in-progress", msg.Payload)
}

func TestGameActionsWithoutGame(t *testing.T) {
	rt := newTestRouter()
	c := testClient()
	dispatchAction(t, rt, c, "identify", "alice")

	for _, action := range []string{"category-change", "clue-change", "answer", "start"} {
		dispatchAction(t, rt, c, action, "whatever")
		msg := lastWithAction(t, received(c), "error")
		assert.Equal(t, "game-not-found", msg.Payload, "action %q", action)
	}
}

func TestRejoinSwapsConnection(t *testing.T) {
	rt := newTestRouter()

	c1 := testClient()
	dispatchAction(t, rt, c1, "identify", "alice")
	dispatchAction(t, rt, c1, "create", "")
	gameID, ok := lastWithAction(t, received(c1), "created").Payload.(string)
	require.True(t, ok)
	p := c1.player

	// the phone sleeps; the socket drops
	rt.dispatch(inbound{client: c1, gone: true})

	c2 := testClient()
	dispatchAction(t, rt, c2, "re-join", p.id)

	assert.Same(t, p, c2.player, "same identity, new channel")
	assert.Same(t, c2, p.conn)

	msg := lastWithAction(t, received(c2), "re-joined")
	st, ok := msg.Payload.(rejoinState)
	require.True(t, ok)
	assert.Equal(t, "alice", st.Name)
	assert.Equal(t, gameID, st.GameID)
	assert.True(t, st.Creator)
	assert.Equal(t, []string{"alice"}, st.Players)
	require.NotNil(t, st.Next)
	assert.Equal(t, "waiting", st.Next.Action)
}

func TestRejoinWithoutGame(t *testing.T) {
	rt := newTestRouter()
	c := testClient()
	dispatchAction(t, rt, c, "identify", "alice")
	received(c)

	dispatchAction(t, rt, c, "re-join", c.player.id)

	msg := lastWithAction(t, received(c), "re-joined")
	st, ok := msg.Payload.(rejoinState)
	require.True(t, ok)
	assert.False(t, st.Creator)
	assert.Empty(t, st.Players)
	assert.Nil(t, st.Next)
}

func TestInvariantViolationReportsUnknown(t *testing.T) {
	rt := newTestRouter()

	c := testClient()
	dispatchAction(t, rt, c, "identify", "alice")
	dispatchAction(t, rt, c, "create", "")

	// removing a vote nobody cast is a state-model bug
	dispatchAction(t, rt, c, "remove-vote", "alice")

	msg := lastWithAction(t, received(c), "error")
	assert.Equal(t, "unknown", msg.Payload)
}

func TestFullRound(t *testing.T) {
	rt := newTestRouter()

	alice, bob, carol := testClient(), testClient(), testClient()
	dispatchAction(t, rt, alice, "identify", "alice")
	dispatchAction(t, rt, bob, "identify", "bob")
	dispatchAction(t, rt, carol, "identify", "carol")

	dispatchAction(t, rt, alice, "create", "")
	gameID, ok := lastWithAction(t, received(alice), "created").Payload.(string)
	require.True(t, ok)

	dispatchAction(t, rt, bob, "join", gameID)
	dispatchAction(t, rt, carol, "join", gameID)
	msg := lastWithAction(t, received(carol), "waiting")
	assert.Equal(t, []string{"alice", "bob", "carol"}, msg.Payload)

	// alice created first, so alice dashes first
	dispatchAction(t, rt, alice, "start", "")
	assert.Equal(t, "dasher", lastWithAction(t, received(alice), "dasher").Action)
	assert.Equal(t, "pls-answer", lastWithAction(t, received(bob), "pls-answer").Action)

	dispatchAction(t, rt, alice, "category-change", "animals")
	msg = lastWithAction(t, received(carol), "category-change")
	assert.Equal(t, "animals", msg.Payload)

	dispatchAction(t, rt, bob, "answer", "woof")
	assert.Equal(t, "got-answer", lastWithAction(t, received(bob), "got-answer").Action)
	msg = lastWithAction(t, received(alice), "player-sent-answer")
	assert.Equal(t, 1, msg.Payload)

	dispatchAction(t, rt, carol, "answer", "yap")
	dispatchAction(t, rt, alice, "answer", "bark")

	sheet, ok := lastWithAction(t, received(alice), "read-answers").Payload.(voteSheet)
	require.True(t, ok)
	assert.Len(t, sheet.Answers, 3)
	assert.ElementsMatch(t, []string{"bob", "carol"}, sheet.YetToVote)
	assert.Equal(t, "listen-to-reading", lastWithAction(t, received(bob), "listen-to-reading").Action)

	// the dasher relays votes as players call them out
	dispatchAction(t, rt, alice, "add-vote", votePayload{Who: "bob", VotedFor: "alice (Dasher)"})
	dispatchAction(t, rt, alice, "add-vote", votePayload{Who: "carol", VotedFor: "bob"})

	msg = lastWithAction(t, received(bob), "votes-for-me")
	assert.Equal(t, 1, msg.Payload)

	sheet, ok = lastWithAction(t, received(alice), "read-answers").Payload.(voteSheet)
	require.True(t, ok)
	assert.Empty(t, sheet.YetToVote)

	dispatchAction(t, rt, alice, "calculate-scores", "")

	want := []playerScore{
		{Name: "alice", Points: 0, Details: []string{}},
		{Name: "bob", Points: 3, Details: []string{"1 point for being voted for", "2 points for guessing the right answer"}},
		{Name: "carol", Points: 0, Details: []string{}},
	}
	for _, c := range []*client{alice, bob, carol} {
		msg = lastWithAction(t, received(c), "show-scores")
		assert.Equal(t, want, msg.Payload)
	}
}
