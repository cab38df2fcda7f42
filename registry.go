package main

import (
	"strings"

	"github.com/google/uuid"
)

// Registry is the process-wide index of live players and games. Entries live
// for the lifetime of the process unless explicitly torn down. All access
// happens on the router goroutine, so no locking is needed.
type Registry struct {
	players map[string]*Player
	games   map[string]*Game
}

func newRegistry() *Registry {
	return &Registry{
		players: make(map[string]*Player),
		games:   make(map[string]*Game),
	}
}

// shortID is the first four characters of a UUID, enough for a party-sized
// namespace and easy to read out loud.
func shortID() string {
	return uuid.NewString()[:4]
}

func (r *Registry) newPlayerID() string {
	for {
		id := shortID()
		if _, taken := r.players[id]; !taken {
			return id
		}
	}
}

func (r *Registry) newGameID() string {
	for {
		id := shortID()
		if _, taken := r.games[id]; !taken {
			return id
		}
	}
}

func (r *Registry) addPlayer(p *Player) {
	r.players[p.id] = p
}

func (r *Registry) player(id string) (*Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, errPlayerNotFound
	}

	return p, nil
}

func (r *Registry) removePlayer(id string) {
	delete(r.players, id)
}

// Game ids are case-insensitive: stored lowercase, looked up lowercase.
func (r *Registry) addGame(g *Game) {
	r.games[strings.ToLower(g.id)] = g
}

func (r *Registry) game(id string) (*Game, error) {
	g, ok := r.games[strings.ToLower(id)]
	if !ok {
		return nil, errGameNotFound
	}

	return g, nil
}

func (r *Registry) removeGame(id string) {
	delete(r.games, strings.ToLower(id))
}
