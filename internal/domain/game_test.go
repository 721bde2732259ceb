package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedGame deals the first round from an unshuffled single pack.
// With deal n, seat 0 holds the top n spades and seat 1 the n below.
func startedGame(t *testing.T, ids []string, cfg GameConfig, deal int) *Game {
	t.Helper()
	cfg.DealCount = deal
	g := New(ids, cfg, DeckConfig{PackCount: 1, ShuffleSeed: seed(0)})
	out, err := g.ToNextRound()
	require.NoError(t, err)
	require.Equal(t, NextPhase, out)
	return g
}

func handSize(g *Game, i int) int {
	p, _ := g.Player(i)
	return len(p.Hand)
}

func TestQuickstartFourPlayers(t *testing.T) {
	g := Quickstart([]string{"a", "b", "c", "d"})
	assert.Equal(t, 1, g.DeckConfig().PackCount)
	assert.True(t, g.DeckConfig().UseJoker)
	assert.Equal(t, PhaseRoundEnd, g.Phase().Kind())

	out, err := g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)

	view := g.ViewState()
	assert.Equal(t, 1, view.Round)
	assert.Equal(t, PhaseDraw, view.Phase)
	assert.Equal(t, 0, view.CurrentPlayer)
	for _, p := range view.Players {
		assert.Len(t, p.Hand, 7, p.ID)
	}
	assert.Equal(t, 54-4*7, view.StockSize)
}

func TestQuickstartFivePlayersUsesTwoPacks(t *testing.T) {
	g := Quickstart([]string{"a", "b", "c", "d", "e"})
	assert.Equal(t, 2, g.DeckConfig().PackCount)
	_, err := g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, 108-5*10, g.ViewState().StockSize)
}

func TestNewSkipsDuplicatesAndCapsSeats(t *testing.T) {
	g := New([]string{"a", "a", "", "b", "c", "d", "e", "f", "g", "h"}, DefaultGameConfig(), DeckConfig{})
	assert.Equal(t, MaxPlayers, g.PlayerCount())
	assert.Equal(t, 1, g.PlayerIndex("b"))
	assert.Equal(t, -1, g.PlayerIndex("h"))
}

func TestTwoPlayersOnePackDealsTen(t *testing.T) {
	g := New([]string{"a", "b"}, DefaultGameConfig(), DeckConfig{PackCount: 1})
	_, err := g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, 10, handSize(g, 0))
	assert.Equal(t, 10, handSize(g, 1))
	assert.Equal(t, 32, g.ViewState().StockSize)
}

func TestTurnFlow(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)

	out, err := g.DrawStock()
	require.NoError(t, err)
	assert.Equal(t, SamePhase, out)
	assert.Equal(t, 11, handSize(g, 0))

	_, err = g.DrawStock()
	assert.ErrorIs(t, err, ErrPhaseSequence)
	_, err = g.Discard(0)
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.ErrorIs(t, err, ErrPhaseSequence)

	out, err = g.ToPlay()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)
	assert.Equal(t, 11, handSize(g, 0))

	out, err = g.ToDiscard()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)

	out, err = g.Discard(0)
	require.NoError(t, err)
	assert.Equal(t, SamePhase, out)
	assert.Equal(t, 10, handSize(g, 0))

	_, err = g.Discard(0)
	assert.ErrorIs(t, err, ErrPhaseSequence)
	assert.Equal(t, 10, handSize(g, 0))

	out, err = g.ToNextPlayer()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)
	assert.Equal(t, 1, g.CurrentPlayer())
	assert.Equal(t, "b", g.CurrentPlayerID())
	assert.Equal(t, DrawPhase{}, g.Phase())
}

func TestToPlayDrawsWhenPlayerHasNot(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	_, err := g.ToPlay()
	require.NoError(t, err)
	assert.Equal(t, 11, handSize(g, 0))
	assert.Equal(t, 31, g.ViewState().StockSize)
}

func TestToNextPlayerAutoDiscardsExactlyOnce(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	_, err := g.ToPlay()
	require.NoError(t, err)
	_, err = g.ToDiscard()
	require.NoError(t, err)

	before, _ := g.Player(0)
	_, err = g.ToNextPlayer()
	require.NoError(t, err)

	after, _ := g.Player(0)
	assert.Len(t, after.Hand, len(before.Hand)-1)
	assert.Equal(t, before.Hand[1:], after.Hand)
	view := g.ViewState()
	assert.Equal(t, 1, view.DiscardSize)
	require.NotNil(t, view.DiscardTop)
	assert.Equal(t, before.Hand[0], *view.DiscardTop)
}

func TestGoingOutByDiscardEndsRound(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 3)
	a, _ := g.Player(0)
	require.Equal(t, []Card{c(Jack, Spades), c(Queen, Spades), c(King, Spades)}, a.Hand)

	_, err := g.DrawStock()
	require.NoError(t, err)
	_, err = g.ToPlay()
	require.NoError(t, err)

	out, err := g.FormMeld([]int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, SamePhase, out)
	assert.Equal(t, PlayPhase{PlayCount: 1}, g.Phase())

	_, err = g.ToDiscard()
	require.NoError(t, err)
	out, err = g.Discard(0)
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)
	assert.Equal(t, RoundEndPhase{}, g.Phase())

	_, err = g.CalculateScore()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 27, "b": 0}, g.Score().Round(1))

	_, err = g.CalculateScore()
	require.NoError(t, err)
	assert.Equal(t, 27, g.Score().Total("a"))
}

func TestPerPlayerScoring(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.ScoreWinnerOnly = false
	g := startedGame(t, []string{"a", "b"}, cfg, 3)

	_, err := g.ToPlay()
	require.NoError(t, err)
	_, err = g.FormMeld([]int{0, 1, 2})
	require.NoError(t, err)
	_, err = g.ToDiscard()
	require.NoError(t, err)

	out, err := g.ToNextPlayer()
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)

	_, err = g.CalculateScore()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 27}, g.Score().Round(1))
}

func TestMeldEmptyingHandEndsRound(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	g.players[0].Hand = []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts)}
	g.phase = PlayPhase{}

	out, err := g.FormMeld([]int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)
	assert.Equal(t, PhaseRoundEnd, g.Phase().Kind())
}

func TestLayoffOntoOpponentEndsRound(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	g.players[0].Hand = []Card{c(Six, Hearts)}
	g.players[1].Melds = []Meld{{Kind: MeldRun, Suit: Hearts, Cards: []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts)}}}
	g.phase = PlayPhase{}

	out, err := g.LayoffCard(0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)
	b, _ := g.Player(1)
	assert.Len(t, b.Melds[0].Cards, 4)
}

func TestLayoffFailuresLeaveStateUnchanged(t *testing.T) {
	g := startedGame(t, []string{"a", "b", "c"}, DefaultGameConfig(), 0)
	run := Meld{Kind: MeldRun, Suit: Hearts, Cards: []Card{c(Three, Hearts), c(Four, Hearts), c(Five, Hearts)}}
	g.players[0].Hand = []Card{c(Nine, Clubs), c(Six, Hearts)}
	g.players[1].Melds = []Meld{run.Clone()}
	g.players[2].Melds = []Meld{run.Clone()}
	g.players[2].Active = false
	g.phase = PlayPhase{}

	_, err := g.LayoffCard(1, 2, 0)
	assert.ErrorIs(t, err, ErrInactiveSeat)
	assert.ErrorIs(t, err, ErrRuleViolation)

	_, err = g.LayoffCard(1, 5, 0)
	assert.ErrorIs(t, err, ErrIndex)
	_, err = g.LayoffCard(1, 1, 3)
	assert.ErrorIs(t, err, ErrIndex)
	_, err = g.LayoffCard(7, 1, 0)
	assert.ErrorIs(t, err, ErrIndex)

	_, err = g.LayoffCard(0, 1, 0)
	assert.ErrorIs(t, err, ErrRuleViolation)

	a, _ := g.Player(0)
	assert.Equal(t, []Card{c(Nine, Clubs), c(Six, Hearts)}, a.Hand)
	b, _ := g.Player(1)
	assert.Equal(t, run, b.Melds[0])
	assert.Equal(t, PlayPhase{}, g.Phase())

	out, err := g.LayoffCard(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, SamePhase, out)
	assert.Equal(t, PlayPhase{PlayCount: 1}, g.Phase())
}

func TestDrawDiscardPileAmountPolicy(t *testing.T) {
	one, five, entire := 1, 5, DrawEntirePile
	two := 2
	tests := []struct {
		name    string
		policy  *int
		request *int
		want    int
	}{
		{name: "player chooses the whole pile", policy: nil, request: nil, want: 3},
		{name: "player chooses two", policy: nil, request: &two, want: 2},
		{name: "fixed one ignores request", policy: &one, request: nil, want: 1},
		{name: "entire pile", policy: &entire, request: &two, want: 3},
		{name: "fixed amount capped at pile size", policy: &five, request: nil, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGameConfig()
			cfg.DiscardPileDrawAmount = tt.policy
			g := startedGame(t, []string{"a", "b"}, cfg, 0)
			cards, err := g.deck.Draw(3)
			require.NoError(t, err)
			g.deck.AddToDiscardPile(cards...)

			out, err := g.DrawDiscardPile(tt.request)
			require.NoError(t, err)
			assert.Equal(t, SamePhase, out)
			assert.Equal(t, 10+tt.want, handSize(g, 0))
			assert.Equal(t, 3-tt.want, g.ViewState().DiscardSize)
			assert.Equal(t, DrawPhase{HasDrawn: true}, g.Phase())
		})
	}
}

func TestDrawDiscardPileEmpty(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	_, err := g.DrawDiscardPile(nil)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, DrawPhase{}, g.Phase())
	assert.Equal(t, 10, handSize(g, 0))
}

func TestStockTurnedOverWhenDepleted(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	g.deck.stock = []Card{c(Ace, Clubs)}
	g.deck.discardPile = []Card{c(Two, Clubs), c(Three, Clubs)}

	_, err := g.DrawStock()
	require.NoError(t, err)
	a, _ := g.Player(0)
	assert.Equal(t, c(Ace, Clubs), a.Hand[len(a.Hand)-1])
	assert.Equal(t, []Card{c(Three, Clubs), c(Two, Clubs)}, g.deck.Stock())
	assert.Zero(t, g.deck.DiscardSize())
}

func TestStockShuffledWhenDepleted(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.ShuffleStockUponDepletion = true
	g := startedGame(t, []string{"a", "b"}, cfg, 0)
	g.deck.stock = nil
	g.deck.discardPile = []Card{c(Two, Clubs), c(Three, Clubs), c(Four, Clubs)}

	_, err := g.DrawStock()
	require.NoError(t, err)
	assert.Equal(t, 2, g.deck.StockSize())
	assert.Zero(t, g.deck.DiscardSize())
	assert.Equal(t, 11, handSize(g, 0))
}

func TestNoCardsLeftAnywhere(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	g.deck.stock = nil

	_, err := g.DrawStock()
	assert.ErrorIs(t, err, ErrCapacity)

	out, err := g.ToPlay()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)
	assert.Equal(t, 10, handSize(g, 0))
}

func TestToPlayWithEmptyStockAndPile(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	g.deck.stock = nil
	g.deck.discardPile = nil

	var out Outcome
	require.NotPanics(t, func() {
		var err error
		out, err = g.ToPlay()
		require.NoError(t, err)
	})
	assert.Equal(t, NextPhase, out)
	assert.Equal(t, PlayPhase{}, g.Phase())
	assert.Equal(t, 10, handSize(g, 0))
}

func TestInTurn(t *testing.T) {
	tests := []struct {
		phase Phase
		want  bool
	}{
		{DrawPhase{}, true},
		{DrawPhase{HasDrawn: true}, true},
		{PlayPhase{}, true},
		{DiscardPhase{HasDiscarded: true}, true},
		{RoundEndPhase{}, false},
		{RoundEndPhase{HasScoredRound: true}, false},
		{GameEndPhase{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InTurn(tt.phase), "%T %+v", tt.phase, tt.phase)
	}
}

func TestAddPlayerJoinsNextRound(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)

	require.NoError(t, g.AddPlayer("c", nil))
	assert.ErrorIs(t, g.AddPlayer("a", nil), ErrDuplicateID)

	p, ok := g.Player(2)
	require.True(t, ok)
	assert.False(t, p.Active)
	assert.Equal(t, 1, p.JoinedInRound)
	assert.Empty(t, p.Hand)

	g.phase = RoundEndPhase{}
	out, err := g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)
	assert.Equal(t, 2, g.Round())

	p, _ = g.Player(2)
	assert.True(t, p.Active)
	assert.Len(t, p.Hand, 7)
	assert.Equal(t, 1, g.CurrentPlayer())
}

func TestAddPlayerBeforeCurrentKeepsTurn(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	g.current = 1

	at := 0
	require.NoError(t, g.AddPlayer("c", &at))
	assert.Equal(t, 2, g.CurrentPlayer())
	assert.Equal(t, "b", g.CurrentPlayerID())
}

func TestAddPlayerTableFull(t *testing.T) {
	g := New([]string{"a", "b", "c", "d", "e", "f", "g"}, DefaultGameConfig(), DeckConfig{})
	assert.ErrorIs(t, g.AddPlayer("h", nil), ErrTableFull)
}

func TestQuitPlayer(t *testing.T) {
	g := startedGame(t, []string{"a", "b", "c"}, DefaultGameConfig(), 0)

	_, err := g.QuitPlayer(0)
	assert.ErrorIs(t, err, ErrCurrentPlayer)
	_, err = g.QuitPlayer(3)
	assert.ErrorIs(t, err, ErrIndex)

	out, err := g.QuitPlayer(1)
	require.NoError(t, err)
	assert.Equal(t, SamePhase, out)
	b, _ := g.Player(1)
	assert.False(t, b.Active)

	_, err = g.ToPlay()
	require.NoError(t, err)
	_, err = g.ToDiscard()
	require.NoError(t, err)
	_, err = g.ToNextPlayer()
	require.NoError(t, err)
	assert.Equal(t, 2, g.CurrentPlayer())

	out, err = g.QuitPlayer(0)
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)
	assert.Equal(t, PhaseRoundEnd, g.Phase().Kind())
}

func TestQuitCurrentPlayer(t *testing.T) {
	g := startedGame(t, []string{"a", "b", "c"}, DefaultGameConfig(), 0)
	_, err := g.DrawStock()
	require.NoError(t, err)

	out, err := g.QuitCurrentPlayer()
	require.NoError(t, err)
	assert.Equal(t, NextPhase, out)
	assert.Equal(t, 1, g.CurrentPlayer())
	assert.Equal(t, DrawPhase{HasDrawn: false}, g.Phase())

	out, err = g.QuitCurrentPlayer()
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)

	_, err = g.QuitCurrentPlayer()
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestQuitBeforeFirstRoundWithdrawsSeat(t *testing.T) {
	g := New([]string{"a", "b", "c"}, DefaultGameConfig(), DeckConfig{PackCount: 1})
	_, err := g.QuitPlayer(2)
	require.NoError(t, err)
	_, err = g.ToNextRound()
	require.NoError(t, err)

	p, _ := g.Player(2)
	assert.False(t, p.Active)
	assert.Empty(t, p.Hand)
	assert.Equal(t, 10, handSize(g, 0))
}

func TestMaxRoundsEndsGame(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.MaxRounds = 1
	g := startedGame(t, []string{"a", "b"}, cfg, 0)
	g.phase = RoundEndPhase{}

	out, err := g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, GameEnded, out)
	assert.Equal(t, GameEndPhase{}, g.Phase())
	assert.NotNil(t, g.Score().Round(1))

	_, err = g.DrawStock()
	assert.ErrorIs(t, err, ErrGameEnded)
	assert.ErrorIs(t, g.AddPlayer("c", nil), ErrGameEnded)
	assert.ErrorIs(t, g.MoveCardInHand(0, 0, 1), ErrGameEnded)
}

func TestTooFewPlayersEndsGame(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	out, err := g.QuitPlayer(1)
	require.NoError(t, err)
	assert.Equal(t, RoundEnded, out)

	out, err = g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, GameEnded, out)
}

func TestEndGame(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 0)
	_, err := g.EndGame()
	assert.ErrorIs(t, err, ErrWrongPhase)

	g.phase = RoundEndPhase{}
	out, err := g.EndGame()
	require.NoError(t, err)
	assert.Equal(t, GameEnded, out)
	assert.Contains(t, g.Score(), 1)
}

func TestIncreasingWildcardRank(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.IncreasingWildcardRank = true
	g := New([]string{"a", "b"}, cfg, DeckConfig{PackCount: 1, UseJoker: true})

	_, err := g.ToNextRound()
	require.NoError(t, err)
	require.NotNil(t, g.DeckConfig().WildcardRank)
	assert.Equal(t, Two, *g.DeckConfig().WildcardRank)
	assert.False(t, g.DeckConfig().UseJoker)
	assert.Equal(t, 52-20, g.ViewState().StockSize)

	g.phase = RoundEndPhase{}
	_, err = g.ToNextRound()
	require.NoError(t, err)
	assert.Equal(t, Three, *g.DeckConfig().WildcardRank)
}

func TestMoveCardInHand(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 3)
	require.NoError(t, g.MoveCardInHand(1, 0, 10))
	b, _ := g.Player(1)
	assert.Equal(t, []Card{c(Nine, Spades), c(Ten, Spades), c(Eight, Spades)}, b.Hand)

	assert.ErrorIs(t, g.MoveCardInHand(2, 0, 1), ErrIndex)
	assert.ErrorIs(t, g.MoveCardInHand(1, 5, 1), ErrIndex)
}

func TestViewStateIsDetached(t *testing.T) {
	g := startedGame(t, []string{"a", "b"}, DefaultGameConfig(), 3)
	g.players[1].Melds = []Meld{{Kind: MeldSet, Rank: Two, Cards: []Card{c(Two, Clubs), c(Two, Hearts), c(Two, Spades)}}}

	view := g.ViewState()
	assert.Nil(t, view.DiscardTop)
	view.Players[0].Hand[0] = joker
	view.Players[1].Melds[0].Cards[0] = joker
	view.Scores[99] = map[string]int{"a": 1}

	a, _ := g.Player(0)
	assert.Equal(t, c(Jack, Spades), a.Hand[0])
	b, _ := g.Player(1)
	assert.Equal(t, c(Two, Clubs), b.Melds[0].Cards[0])
	assert.Nil(t, g.Score().Round(99))
}

func TestScoringPolicies(t *testing.T) {
	setup := func(forfeit bool) *Game {
		cfg := DefaultGameConfig()
		cfg.ForfeitCardsOnQuit = forfeit
		g := startedGame(t, []string{"a", "b", "c"}, cfg, 0)
		g.players[0].Hand = nil
		g.players[1].Hand = []Card{c(King, Clubs)}
		g.players[2].Hand = []Card{c(Two, Clubs)}
		g.players[2].Active = false
		g.phase = RoundEndPhase{}
		_, err := g.CalculateScore()
		require.NoError(t, err)
		return g
	}

	assert.Equal(t, map[string]int{"a": 10, "b": 0}, setup(true).Score().Round(1))
	assert.Equal(t, map[string]int{"a": 12, "b": 0, "c": 0}, setup(false).Score().Round(1))
}

func TestRoundWinnerWithoutEmptyHand(t *testing.T) {
	a := &Player{ID: "a", Active: true, Hand: []Card{c(King, Clubs)}}
	b := &Player{ID: "b", Active: true, Hand: []Card{c(Two, Clubs)}}
	q := &Player{ID: "q", Active: false, Hand: []Card{c(Three, Clubs)}}

	assert.Equal(t, b, roundWinner([]*Player{a, b}))
	assert.Equal(t, a, roundWinner([]*Player{a, q}))

	s := Score{}
	s.record(4, []*Player{a, b}, true)
	assert.Equal(t, map[string]int{"a": 0, "b": 10}, s.Round(4))
}
