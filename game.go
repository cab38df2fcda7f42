package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"slices"
)

// Game is the round state machine. It owns all round state; players are held
// by id and resolved through the registry, so tearing a game down is just map
// removal.
//
// A round moves through four stages: waiting (no dasher), collecting (dasher
// set, answers incomplete), voting (all answers in, shuffled) and scored
// (dasher finalized scoring). Losing the dasher, the creator, or all but one
// player drops the game back to waiting.
type Game struct {
	id        string
	creatorID string
	playerIDs []string
	dasherIdx int
	dasherID  string

	category string
	clue     string

	// answers holds one entry per roster member while a round is active;
	// nil marks an answer not yet submitted.
	answers map[string]*string

	// shuffled is the anonymization order, fixed once per round at the
	// moment the last answer arrives. Reads never reshuffle it.
	shuffled []shuffledAnswer
	votes    map[string]string // voter id -> votee id
	scored   bool

	reg *Registry
}

func newGame(reg *Registry, creator *Player) *Game {
	g := &Game{
		id:        reg.newGameID(),
		creatorID: creator.id,
		answers:   make(map[string]*string),
		votes:     make(map[string]string),
		reg:       reg,
	}
	g.addPlayer(creator)
	reg.addGame(g)

	return g
}

func (g *Game) active() bool {
	return g.dasherID != ""
}

func (g *Game) addPlayer(p *Player) {
	if !slices.Contains(g.playerIDs, p.id) {
		g.playerIDs = append(g.playerIDs, p.id)
	}
}

// roster resolves the ordered player ids against the registry. Players are
// never unregistered, so a missing entry would be a bug; it is skipped rather
// than crashed on.
func (g *Game) roster() []*Player {
	players := make([]*Player, 0, len(g.playerIDs))
	for _, id := range g.playerIDs {
		p, err := g.reg.player(id)
		if err != nil {
			log.Printf("ERROR: game %s roster references unknown player %s", g.id, id)
			continue
		}
		players = append(players, p)
	}

	return players
}

func (g *Game) names() []string {
	names := make([]string, 0, len(g.playerIDs))
	for _, p := range g.roster() {
		names = append(names, p.name)
	}

	return names
}

func (g *Game) dasher() *Player {
	if g.dasherID == "" {
		return nil
	}
	p, _ := g.reg.player(g.dasherID)

	return p
}

func (g *Game) playerByName(name string) (*Player, error) {
	for _, p := range g.roster() {
		if p.name == name {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: no player named %q in game %s", errPlayerNotFound, name, g.id)
}

func (g *Game) broadcast(action string, payload any) {
	for _, p := range g.roster() {
		p.broadcast(action, payload)
	}
}

func (g *Game) broadcastExcept(skip *Player, action string, payload any) {
	for _, p := range g.roster() {
		if p == skip {
			continue
		}
		p.broadcast(action, payload)
	}
}

func (g *Game) answered(playerID string) bool {
	return g.answers[playerID] != nil
}

func (g *Game) answersReceived() int {
	received := 0
	for _, a := range g.answers {
		if a != nil {
			received++
		}
	}

	return received
}

func (g *Game) allAnswered() bool {
	for _, a := range g.answers {
		if a == nil {
			return false
		}
	}

	return true
}

// start begins a new round: the cursor picks the dasher round-robin, answers
// reset to unsubmitted for the current roster, and the prompt goes out blank.
func (g *Game) start() error {
	if len(g.playerIDs) == 0 {
		return fmt.Errorf("start on game %s with empty roster", g.id)
	}

	if g.dasherIdx >= len(g.playerIDs) {
		g.dasherIdx = 0
	}
	g.dasherID = g.playerIDs[g.dasherIdx]
	g.dasherIdx = (g.dasherIdx + 1) % len(g.playerIDs)

	g.answers = make(map[string]*string, len(g.playerIDs))
	for _, id := range g.playerIDs {
		g.answers[id] = nil
	}
	g.shuffled = nil
	g.votes = make(map[string]string)
	g.scored = false
	g.category = ""
	g.clue = ""

	for _, p := range g.roster() {
		if p.id == g.dasherID {
			p.broadcast("dasher", dasherPrompt{})
		} else {
			p.broadcast("pls-answer", roundPrompt{})
		}
	}

	return nil
}

func (g *Game) setCategory(category string) {
	g.category = category
	g.broadcastExcept(g.dasher(), "category-change", category)
}

func (g *Game) setClue(clue string) {
	g.clue = clue
	g.broadcastExcept(g.dasher(), "clue-change", clue)
}

// handleAnswer records an answer. When the last one arrives the anonymization
// order is fixed and the round moves to voting.
func (g *Game) handleAnswer(p *Player, answer string) error {
	if !g.active() {
		return fmt.Errorf("answer for game %s with no active round", g.id)
	}
	if !slices.Contains(g.playerIDs, p.id) {
		return fmt.Errorf("answer from %s, who is not in game %s", p.id, g.id)
	}

	g.answers[p.id] = &answer

	if g.allAnswered() {
		// the anonymization order is fixed once per round; a re-submitted
		// answer during voting must not reshuffle it
		if g.shuffled == nil {
			g.shuffled = g.shuffleAnswers()
		}
		if d := g.dasher(); d != nil {
			d.broadcast("read-answers", g.voteSheet())
		}
		g.broadcastExcept(g.dasher(), "listen-to-reading", "")
	} else {
		g.broadcastExcept(p, "answer-received", p.name)
	}

	return nil
}

// shuffledAnswer is one entry of the anonymization order. The display name is
// annotated for the dasher's own card so the reader can spot it.
type shuffledAnswer struct {
	playerID string
	name     string
	answer   string
}

// shuffleAnswers builds the anonymized card list from the completed answers.
func (g *Game) shuffleAnswers() []shuffledAnswer {
	cards := make([]shuffledAnswer, 0, len(g.playerIDs))
	for _, p := range g.roster() {
		a, ok := g.answers[p.id]
		if !ok || a == nil {
			log.Printf("ERROR: missing answer for player %s in game %s", p.id, g.id)
			continue
		}
		name := p.name
		if p.id == g.dasherID {
			name += dasherSuffix
		}
		cards = append(cards, shuffledAnswer{playerID: p.id, name: name, answer: *a})
	}

	// Fisher-Yates shuffle using crypto/rand
	for i := len(cards) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return cards
}

// voteSheet renders the fixed shuffle order with the current votes attached.
// The dasher reads the answers, so they are left off the yet-to-vote list.
func (g *Game) voteSheet() voteSheet {
	answers := make([]answerCard, 0, len(g.shuffled))
	for _, card := range g.shuffled {
		votes := []string{}
		for _, p := range g.roster() {
			if votee, ok := g.votes[p.id]; ok && votee == card.playerID {
				votes = append(votes, p.name)
			}
		}
		answers = append(answers, answerCard{Name: card.name, Answer: card.answer, Votes: votes})
	}

	yetToVote := []string{}
	for _, p := range g.roster() {
		if p.id == g.dasherID {
			continue
		}
		if _, voted := g.votes[p.id]; !voted {
			yetToVote = append(yetToVote, p.name)
		}
	}

	return voteSheet{Answers: answers, YetToVote: yetToVote}
}

func (g *Game) addVote(who, votedFor string) error {
	voter, err := g.playerByName(who)
	if err != nil {
		return err
	}
	votee, err := g.playerByName(trimDasherSuffix(votedFor))
	if err != nil {
		return err
	}

	g.votes[voter.id] = votee.id
	g.broadcastVotes()

	return nil
}

func (g *Game) removeVote(name string) error {
	voter, err := g.playerByName(name)
	if err != nil {
		return err
	}
	if _, ok := g.votes[voter.id]; !ok {
		return fmt.Errorf("no vote to remove for %s in game %s", voter.id, g.id)
	}

	delete(g.votes, voter.id)
	g.broadcastVotes()

	return nil
}

func (g *Game) broadcastVotes() {
	if d := g.dasher(); d != nil {
		d.broadcast("read-answers", g.voteSheet())
	}
	for _, p := range g.roster() {
		count := 0
		for _, votee := range g.votes {
			if votee == p.id {
				count++
			}
		}
		p.broadcast("votes-for-me", count)
	}
}

func (g *Game) calculateScores() {
	g.scored = true
	g.broadcast("show-scores", g.scores())
}

// rejoinDirective works out what a returning player needs to know to pick up
// where they left off, without replaying history.
func (g *Game) rejoinDirective(p *Player) Message {
	switch {
	case !g.active():
		return Message{Action: "waiting", Payload: g.names()}
	case g.scored:
		return Message{Action: "show-scores", Payload: g.scores()}
	case g.allAnswered():
		if p.id == g.dasherID {
			return Message{Action: "read-answers", Payload: g.voteSheet()}
		}
		return Message{Action: "listen-to-reading", Payload: nil}
	case p.id == g.dasherID:
		return Message{Action: "dasher", Payload: dasherPrompt{
			ResponsesReceived: g.answersReceived(),
			AnswerReceived:    g.answered(p.id),
			Clue:              g.clue,
			Category:          g.category,
		}}
	default:
		return Message{Action: "pls-answer", Payload: roundPrompt{
			AnswerReceived: g.answered(p.id),
			Clue:           g.clue,
			Category:       g.category,
		}}
	}
}

// removePlayer drops a player from the roster. The creator leaving tears the
// game down; the dasher leaving resets the round; a game of one cannot play
// a round either way.
func (g *Game) removePlayer(p *Player) {
	idx := slices.Index(g.playerIDs, p.id)
	if idx >= 0 {
		g.playerIDs = slices.Delete(g.playerIDs, idx, idx+1)
		if g.dasherIdx >= len(g.playerIDs) {
			g.dasherIdx = 0
		}

		switch {
		case p.id == g.creatorID:
			for _, m := range g.roster() {
				m.broadcast("error", "creator-left")
				m.gameID = ""
			}
			g.reg.removeGame(g.id)
			return // torn down, no reset
		case p.id == g.dasherID:
			g.reset()
		default:
			g.broadcast("joined", g.names())
			delete(g.answers, p.id)
		}
	}

	if len(g.playerIDs) == 1 {
		g.reset()
	}
}

// reset drops the round back to waiting.
func (g *Game) reset() {
	g.dasherIdx = 0
	g.dasherID = ""
	g.votes = make(map[string]string)
	g.scored = false
	g.broadcast("waiting", g.names())
}
