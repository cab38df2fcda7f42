package main

import (
	"fmt"
	"log"
)

// outbox is the send side of a player's connection. Delivery is best-effort:
// a failed send is logged and never retried, and the state change that
// triggered it stands regardless.
type outbox interface {
	write(msg Message) error
}

// Player is a per-connection identity. The id is stable across reconnects and
// doubles as the client's rejoin key; the outbox handle is swapped on rejoin
// without changing identity. Players hold no game state, just a back-reference
// by id to at most one game.
type Player struct {
	id     string
	name   string
	conn   outbox
	gameID string
}

func newPlayer(reg *Registry, conn outbox) *Player {
	p := &Player{
		id:   reg.newPlayerID(),
		conn: conn,
	}
	reg.addPlayer(p)

	return p
}

func (p *Player) broadcast(action string, payload any) {
	if p.conn == nil {
		log.Printf("ERROR: player %s has no connection for %q", p.id, action)
		return
	}
	if err := p.conn.write(Message{Action: action, Payload: payload}); err != nil {
		log.Printf("ERROR: writing %q to player %s: %v", action, p.id, err)
	}
}

func (p *Player) currentGame(reg *Registry) (*Game, error) {
	if p.gameID == "" {
		return nil, errGameNotFound
	}

	return reg.game(p.gameID)
}

// exit removes the player from their game, if any, and clears the
// back-reference. The player stays registered for rejoin.
func (p *Player) exit(cfg *Config, reg *Registry) {
	if p.gameID == "" {
		return
	}

	logf(cfg, "GAMES: Player %s leaving game %s", p.id, p.gameID)
	if g, err := reg.game(p.gameID); err == nil {
		g.removePlayer(p)
	}
	p.gameID = ""
}

func (p *Player) rejoinState(reg *Registry) rejoinState {
	st := rejoinState{
		Name:    p.name,
		Players: []string{},
	}

	g, err := p.currentGame(reg)
	if err != nil {
		return st
	}

	next := g.rejoinDirective(p)
	st.GameID = g.id
	st.Creator = g.creatorID == p.id
	st.Players = g.names()
	st.Next = &next

	return st
}

// handle dispatches one inbound action. State mutation happens synchronously
// before any broadcast goes out; a returned error is reported to this player
// only and leaves shared state untouched.
func (p *Player) handle(cfg *Config, reg *Registry, msg inboundMessage) error {
	logf(cfg, "PLAYER: %s got action %q", p.id, msg.Action)

	switch msg.Action {
	case "identify":
		name, err := msg.text()
		if err != nil {
			return err
		}
		p.name = name
		p.broadcast("got-name", p.id) // the client keeps the id as its rejoin key

	case "re-join":
		p.broadcast("re-joined", p.rejoinState(reg))

	case "category-change":
		text, err := msg.text()
		if err != nil {
			return err
		}
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		g.setCategory(text)

	case "clue-change":
		text, err := msg.text()
		if err != nil {
			return err
		}
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		g.setClue(text)

	case "create":
		g := newGame(reg, p)
		p.gameID = g.id
		logf(cfg, "GAMES: Player %s created game %s", p.id, g.id)
		p.broadcast("created", g.id)

	case "join":
		id, err := msg.text()
		if err != nil {
			return err
		}
		g, err := reg.game(id)
		if err != nil {
			return err
		}
		if g.active() {
			return errGameInProgress
		}
		g.addPlayer(p)
		p.gameID = g.id
		logf(cfg, "GAMES: Player %s joined game %s", p.id, g.id)
		roster := g.names()
		g.broadcast("joined", roster)
		p.broadcast("waiting", roster)

	case "start", "reset":
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		return g.start()

	case "answer":
		text, err := msg.text()
		if err != nil {
			return err
		}
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		if err := g.handleAnswer(p, text); err != nil {
			return err
		}
		p.broadcast("got-answer", "")
		if d := g.dasher(); d != nil {
			d.broadcast("player-sent-answer", g.answersReceived())
		}

	case "leave":
		p.exit(cfg, reg)

	case "add-vote":
		v, err := msg.vote()
		if err != nil {
			return err
		}
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		return g.addVote(v.Who, v.VotedFor)

	case "remove-vote":
		name, err := msg.text()
		if err != nil {
			return err
		}
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		return g.removeVote(name)

	case "calculate-scores":
		g, err := p.currentGame(reg)
		if err != nil {
			return err
		}
		g.calculateScores()

	default:
		return fmt.Errorf("%w: unknown action %q", errMalformedPayload, msg.Action)
	}

	return nil
}
