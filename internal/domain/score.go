package domain

import "maps"

// Score holds per-round, per-player points.
type Score map[int]map[string]int

// Round returns the points recorded for a round, or nil.
func (s Score) Round(round int) map[string]int {
	return s[round]
}

// Total sums a player's points over every round.
func (s Score) Total(playerID string) int {
	total := 0
	for _, round := range s {
		total += round[playerID]
	}
	return total
}

func (s Score) clone() Score {
	out := make(Score, len(s))
	for r, points := range s {
		out[r] = maps.Clone(points)
	}
	return out
}

// record computes the round's points for the scoreable players.
//
// With winnerOnly, the winner receives the sum of the other hands' values and the
// rest receive 0. The winner is the player with an empty hand; if nobody went out
// (the round ended by quits) it is the only active player, or else the player with
// the lowest hand value, earliest seat first. Otherwise every player scores their
// own hand value.
func (s Score) record(round int, scoreable []*Player, winnerOnly bool) {
	points := make(map[string]int, len(scoreable))
	s[round] = points
	if len(scoreable) == 0 {
		return
	}
	if !winnerOnly {
		for _, p := range scoreable {
			points[p.ID] = HandValue(p.Hand)
		}
		return
	}

	winner := roundWinner(scoreable)
	total := 0
	for _, p := range scoreable {
		points[p.ID] = 0
		if p != winner {
			total += HandValue(p.Hand)
		}
	}
	points[winner.ID] = total
}

func roundWinner(players []*Player) *Player {
	for _, p := range players {
		if len(p.Hand) == 0 {
			return p
		}
	}
	var onlyActive *Player
	active := 0
	for _, p := range players {
		if p.Active {
			active++
			onlyActive = p
		}
	}
	if active == 1 {
		return onlyActive
	}
	best := players[0]
	for _, p := range players[1:] {
		if HandValue(p.Hand) < HandValue(best.Hand) {
			best = p
		}
	}
	return best
}
