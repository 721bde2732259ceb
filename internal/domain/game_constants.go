package domain

const (
	// MaxPlayers is the largest table the dealing table supports.
	MaxPlayers = 7
	// MinPlayers is the number of active players needed to play a round.
	MinPlayers = 2
	// MinMeldSize applies to both sets and runs.
	MinMeldSize = 3

	cardsPerPack   = 52
	jokersPerPack  = 2
	defaultDealMax = 10

	aceValue  = 15
	faceValue = 10
)

// DrawEntirePile as a discard draw amount takes the whole discard pile.
const DrawEntirePile = -1

// CardsToDeal returns how many cards each active player receives at round start.
//
//	2 players           -> 10
//	3-5 players, 1 pack -> 7, more packs -> 10
//	6-7 players, 1 pack -> 6, more packs -> 10
//
// Other table sizes get as many as the stock allows, up to 10.
func CardsToDeal(players, packs int) int {
	switch {
	case players == 2:
		return 10
	case players >= 3 && players <= 5:
		if packs <= 1 {
			return 7
		}
		return 10
	case players >= 6 && players <= 7:
		if packs <= 1 {
			return 6
		}
		return 10
	case players <= 0:
		return 0
	}
	perPlayer := (packs*cardsPerPack - 1) / players
	return min(perPlayer, defaultDealMax)
}
