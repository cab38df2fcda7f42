package main

import (
	"fmt"
	"strings"
)

// dasherSuffix annotates the dasher's own card on the vote sheet. Vote
// targets arrive as card names, so resolution strips it back off.
const dasherSuffix = " (Dasher)"

func trimDasherSuffix(name string) string {
	return strings.TrimSuffix(name, dasherSuffix)
}

// scores computes the round's score list, in roster order. The computation is
// a pure function of the votes map and the dasher, so it can be re-run at any
// time (rejoin after finalizing) with identical results.
//
// The dasher scores 3 when nobody guessed them, otherwise 0. Everyone else
// scores a point per vote their answer attracted (self-votes never count),
// plus 2 for guessing the dasher.
func (g *Game) scores() []playerScore {
	scores := make([]playerScore, 0, len(g.playerIDs))
	for _, p := range g.roster() {
		if p.id == g.dasherID {
			scores = append(scores, g.dasherScore(p))
			continue
		}

		votesFor := 0
		for voter, votee := range g.votes {
			if votee == p.id && voter != p.id {
				votesFor++
			}
		}

		score := playerScore{Name: p.name, Points: votesFor, Details: []string{}}
		if votesFor > 0 {
			score.Details = append(score.Details, fmt.Sprintf("%d point%s for being voted for", votesFor, plural(votesFor)))
		}
		if g.votes[p.id] == g.dasherID {
			score.Points += 2
			score.Details = append(score.Details, "2 points for guessing the right answer")
		}
		scores = append(scores, score)
	}

	return scores
}

func (g *Game) dasherScore(dasher *Player) playerScore {
	for _, votee := range g.votes {
		if votee == g.dasherID {
			return playerScore{Name: dasher.name, Points: 0, Details: []string{}}
		}
	}

	return playerScore{
		Name:    dasher.name,
		Points:  3,
		Details: []string{"no one guessed the right answer"},
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}

	return "s"
}
