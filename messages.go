package main

import (
	"encoding/json"
	"fmt"
)

// Message is the wire envelope in both directions: a tagged action plus an
// action-specific payload.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// inboundMessage keeps the payload raw until the action is known, so each
// handler can decode the shape it expects.
type inboundMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func (m inboundMessage) text() (string, error) {
	var s string
	if err := json.Unmarshal(m.Payload, &s); err != nil {
		return "", fmt.Errorf("%w: payload for %q is not a string", errMalformedPayload, m.Action)
	}

	return s, nil
}

func (m inboundMessage) vote() (votePayload, error) {
	var v votePayload
	if err := json.Unmarshal(m.Payload, &v); err != nil {
		return v, fmt.Errorf("%w: payload for %q is not a vote", errMalformedPayload, m.Action)
	}
	if v.Who == "" || v.VotedFor == "" {
		return v, fmt.Errorf("%w: add-vote payload missing who/votedFor", errMalformedPayload)
	}

	return v, nil
}

// votePayload is the add-vote payload: who cast the vote, and the name on the
// answer card they voted for.
type votePayload struct {
	Who      string `json:"who"`
	VotedFor string `json:"votedFor"`
}

// roundPrompt is the pls-answer payload shown to non-dashers.
type roundPrompt struct {
	AnswerReceived bool   `json:"answerReceived"`
	Clue           string `json:"clue"`
	Category       string `json:"category"`
}

// dasherPrompt is the dasher payload, with the live submission counter.
type dasherPrompt struct {
	ResponsesReceived int    `json:"responsesReceived"`
	AnswerReceived    bool   `json:"answerReceived"`
	Clue              string `json:"clue"`
	Category          string `json:"category"`
}

// answerCard is one anonymized answer plus the names of everyone who has
// voted for it so far.
type answerCard struct {
	Name   string   `json:"name"`
	Answer string   `json:"answer"`
	Votes  []string `json:"votes"`
}

// voteSheet is the read-answers payload the dasher works from while reading
// answers aloud.
type voteSheet struct {
	Answers   []answerCard `json:"answers"`
	YetToVote []string     `json:"yetToVote"`
}

// playerScore is one entry of the show-scores payload, in roster order.
type playerScore struct {
	Name    string   `json:"name"`
	Points  int      `json:"points"`
	Details []string `json:"details"`
}

// rejoinState is the re-joined payload: administrative info plus a next
// directive telling the client which view to restore.
type rejoinState struct {
	Name    string   `json:"name"`
	GameID  string   `json:"gameId,omitempty"`
	Creator bool     `json:"creator"`
	Players []string `json:"players"`
	Next    *Message `json:"next,omitempty"`
}
