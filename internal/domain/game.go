package domain

import (
	"errors"
	"fmt"
	"slices"
)

// GameConfig selects the variant rules of a game.
type GameConfig struct {
	// ScoreWinnerOnly gives the round winner the value of every other hand.
	// Otherwise each player scores their own hand and the lowest total wins.
	ScoreWinnerOnly bool `json:"score_winner_only"`
	// ForfeitCardsOnQuit leaves players who quit out of scoring.
	ForfeitCardsOnQuit bool `json:"forfeit_cards_on_quit"`
	// ShuffleStockUponDepletion shuffles the discard pile back into an empty
	// stock instead of turning it over.
	ShuffleStockUponDepletion bool `json:"shuffle_stock_upon_depletion"`
	// IncreasingWildcardRank makes rank (round mod 13) wild: Two in round 1, Three in round 2.
	IncreasingWildcardRank bool `json:"increasing_wildcard_rank"`
	// DiscardPileDrawAmount fixes how many cards a discard-pile draw takes.
	// nil lets the player choose; DrawEntirePile takes the whole pile.
	DiscardPileDrawAmount *int `json:"discard_pile_draw_amount,omitempty"`
	// DealCount overrides the dealing table when positive.
	DealCount int `json:"deal_count,omitempty"`
	// MaxRounds ends the game after that many rounds when positive.
	MaxRounds int `json:"max_rounds,omitempty"`
}

// DefaultGameConfig returns standard Rummy rules.
func DefaultGameConfig() GameConfig {
	one := 1
	return GameConfig{
		ScoreWinnerOnly:       true,
		ForfeitCardsOnQuit:    true,
		DiscardPileDrawAmount: &one,
	}
}

// Game is one Rummy session: a deck, a fixed seat order and the current phase.
// It is not safe for concurrent use.
type Game struct {
	config  GameConfig
	deck    *Deck
	players []*Player
	round   int
	current int
	opener  int
	phase   Phase
	score   Score
}

// New seats the players and waits in RoundEnd for the first ToNextRound.
// Empty and repeated ids are skipped; at most MaxPlayers are seated.
func New(playerIDs []string, cfg GameConfig, deckCfg DeckConfig) *Game {
	g := &Game{
		config: cfg,
		deck:   NewDeck(deckCfg),
		opener: -1,
		phase:  RoundEndPhase{HasScoredRound: true},
		score:  Score{},
	}
	for _, id := range seatIDs(playerIDs) {
		g.players = append(g.players, NewPlayer(id, true, 0))
	}
	return g
}

// Quickstart uses default rules with jokers, one pack below five players and two from five.
func Quickstart(playerIDs []string) *Game {
	packs := 1
	if len(seatIDs(playerIDs)) >= 5 {
		packs = 2
	}
	return New(playerIDs, DefaultGameConfig(), DeckConfig{PackCount: packs, UseJoker: true})
}

func seatIDs(ids []string) []string {
	out := make([]string, 0, min(len(ids), MaxPlayers))
	for _, id := range ids {
		if len(out) == MaxPlayers {
			break
		}
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (g *Game) Phase() Phase           { return g.phase }
func (g *Game) Round() int             { return g.round }
func (g *Game) CurrentPlayer() int     { return g.current }
func (g *Game) Config() GameConfig     { return g.config }
func (g *Game) DeckConfig() DeckConfig { return g.deck.Config() }
func (g *Game) Score() Score           { return g.score.clone() }
func (g *Game) PlayerCount() int       { return len(g.players) }

// CurrentPlayerID returns the id of the player whose turn it is.
func (g *Game) CurrentPlayerID() string {
	if g.current < 0 || g.current >= len(g.players) {
		return ""
	}
	return g.players[g.current].ID
}

// PlayerIndex returns the seat of id, or -1.
func (g *Game) PlayerIndex(id string) int {
	return slices.IndexFunc(g.players, func(p *Player) bool { return p.ID == id })
}

// Player returns a copy of the player at seat i.
func (g *Game) Player(i int) (Player, bool) {
	if i < 0 || i >= len(g.players) {
		return Player{}, false
	}
	return g.players[i].clone(), true
}

func (g *Game) wrongPhase(action string) error {
	if _, ok := g.phase.(GameEndPhase); ok {
		return fmt.Errorf("%w: cannot %s", ErrGameEnded, action)
	}
	return fmt.Errorf("%w: cannot %s during %s", ErrWrongPhase, action, g.phase.Kind())
}

func (g *Game) cur() *Player { return g.players[g.current] }

// DrawStock draws one card from the stock. An empty stock is replenished from
// the discard pile first, and again right after the draw if it ran out.
func (g *Game) DrawStock() (Outcome, error) {
	p, ok := g.phase.(DrawPhase)
	if !ok {
		return SamePhase, g.wrongPhase("draw")
	}
	if p.HasDrawn {
		return SamePhase, fmt.Errorf("%w: already drew this turn", ErrPhaseSequence)
	}
	if err := g.drawStock(); err != nil {
		return SamePhase, err
	}
	g.phase = DrawPhase{HasDrawn: true}
	return SamePhase, nil
}

func (g *Game) drawStock() error {
	if g.deck.StockSize() == 0 {
		g.replenish()
	}
	cards, err := g.deck.Draw(1)
	if err != nil {
		return err
	}
	g.cur().Hand = append(g.cur().Hand, cards...)
	if g.deck.StockSize() == 0 {
		g.replenish()
	}
	return nil
}

func (g *Game) replenish() {
	if g.config.ShuffleStockUponDepletion {
		g.deck.ShuffleDiscarded()
	} else {
		g.deck.TurnoverDiscarded()
	}
}

// DrawDiscardPile draws from the discard pile. A configured draw amount takes
// precedence over amount and is capped at the pile size; otherwise a nil amount
// takes the whole pile.
func (g *Game) DrawDiscardPile(amount *int) (Outcome, error) {
	p, ok := g.phase.(DrawPhase)
	if !ok {
		return SamePhase, g.wrongPhase("draw")
	}
	if p.HasDrawn {
		return SamePhase, fmt.Errorf("%w: already drew this turn", ErrPhaseSequence)
	}
	if fixed := g.config.DiscardPileDrawAmount; fixed != nil {
		if *fixed == DrawEntirePile {
			amount = nil
		} else {
			n := min(*fixed, g.deck.DiscardSize())
			amount = &n
		}
	}
	cards, err := g.deck.DrawDiscardPile(amount)
	if err != nil {
		return SamePhase, err
	}
	g.cur().Hand = append(g.cur().Hand, cards...)
	g.phase = DrawPhase{HasDrawn: true}
	return SamePhase, nil
}

// ToPlay moves to the play phase, drawing from the stock first if the player
// has not drawn. When no card is left anywhere the draw is skipped.
func (g *Game) ToPlay() (Outcome, error) {
	p, ok := g.phase.(DrawPhase)
	if !ok {
		return SamePhase, g.wrongPhase("start playing")
	}
	if !p.HasDrawn {
		if err := g.drawStock(); err != nil && !errors.Is(err, ErrCapacity) {
			panic(fmt.Sprintf("rummy: draw on entering play failed for %s: %v", g.cur().ID, err))
		}
	}
	g.phase = PlayPhase{}
	return NextPhase, nil
}

// FormMeld melds the current player's cards at indices. Emptying the hand ends the round.
func (g *Game) FormMeld(indices []int) (Outcome, error) {
	p, ok := g.phase.(PlayPhase)
	if !ok {
		return SamePhase, g.wrongPhase("form a meld")
	}
	player := g.cur()
	meld, hand, err := FormMeld(player.Hand, indices, g.deck.Config())
	if err != nil {
		return SamePhase, err
	}
	player.Hand = hand
	player.Melds = append(player.Melds, meld)
	if len(hand) == 0 {
		g.phase = RoundEndPhase{}
		return RoundEnded, nil
	}
	g.phase = PlayPhase{PlayCount: p.PlayCount + 1}
	return SamePhase, nil
}

// LayoffCard lays the current player's card onto a meld of any active player.
// Emptying the hand ends the round.
func (g *Game) LayoffCard(cardIndex, targetPlayer, targetMeld int) (Outcome, error) {
	p, ok := g.phase.(PlayPhase)
	if !ok {
		return SamePhase, g.wrongPhase("lay off")
	}
	if targetPlayer < 0 || targetPlayer >= len(g.players) {
		return SamePhase, indexErr("player", targetPlayer, len(g.players))
	}
	target := g.players[targetPlayer]
	if !target.Active {
		return SamePhase, fmt.Errorf("%w: %s", ErrInactiveSeat, target.ID)
	}
	if targetMeld < 0 || targetMeld >= len(target.Melds) {
		return SamePhase, indexErr("meld", targetMeld, len(target.Melds))
	}

	player := g.cur()
	meld := target.Melds[targetMeld]
	hand, err := Layoff(&meld, player.Hand, cardIndex, g.deck.Config())
	if err != nil {
		return SamePhase, err
	}
	target.Melds[targetMeld] = meld
	player.Hand = hand
	if len(hand) == 0 {
		g.phase = RoundEndPhase{}
		return RoundEnded, nil
	}
	g.phase = PlayPhase{PlayCount: p.PlayCount + 1}
	return SamePhase, nil
}

// ToDiscard ends the play phase.
func (g *Game) ToDiscard() (Outcome, error) {
	if _, ok := g.phase.(PlayPhase); !ok {
		return SamePhase, g.wrongPhase("move to discard")
	}
	g.phase = DiscardPhase{}
	return NextPhase, nil
}

// Discard puts one hand card on the discard pile. Only one discard is allowed
// per turn; discarding the last card ends the round.
func (g *Game) Discard(cardIndex int) (Outcome, error) {
	p, ok := g.phase.(DiscardPhase)
	if !ok {
		return SamePhase, g.wrongPhase("discard")
	}
	if p.HasDiscarded {
		return SamePhase, fmt.Errorf("%w: already discarded this turn", ErrPhaseSequence)
	}
	player := g.cur()
	if cardIndex < 0 || cardIndex >= len(player.Hand) {
		return SamePhase, indexErr("card", cardIndex, len(player.Hand))
	}
	card := player.Hand[cardIndex]
	player.Hand = removeIndices(player.Hand, []int{cardIndex})
	g.deck.AddToDiscardPile(card)
	if len(player.Hand) == 0 {
		g.phase = RoundEndPhase{}
		return RoundEnded, nil
	}
	g.phase = DiscardPhase{HasDiscarded: true}
	return SamePhase, nil
}

// ToNextPlayer discards the first hand card if the player has not discarded,
// then passes the turn to the next active seat.
func (g *Game) ToNextPlayer() (Outcome, error) {
	p, ok := g.phase.(DiscardPhase)
	if !ok {
		return SamePhase, g.wrongPhase("end the turn")
	}
	if !p.HasDiscarded {
		out, err := g.Discard(0)
		if err != nil {
			panic(fmt.Sprintf("rummy: auto-discard failed for %s: %v", g.cur().ID, err))
		}
		if out == RoundEnded {
			return RoundEnded, nil
		}
	}
	g.current = g.nextActive(g.current)
	g.phase = DrawPhase{}
	return NextPhase, nil
}

func (g *Game) nextActive(from int) int {
	n := len(g.players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if idx >= 0 && g.players[idx].Active {
			return idx
		}
	}
	return max(from, 0)
}

func (g *Game) activeCount() int {
	n := 0
	for _, p := range g.players {
		if p.Active {
			n++
		}
	}
	return n
}

// CalculateScore records the round's points once; later calls do nothing.
func (g *Game) CalculateScore() (Outcome, error) {
	p, ok := g.phase.(RoundEndPhase)
	if !ok {
		return SamePhase, g.wrongPhase("score")
	}
	if !p.HasScoredRound {
		g.scoreRound()
	}
	return SamePhase, nil
}

// scoreRound scores active players, plus inactive players still holding cards
// unless cards are forfeited on quit.
func (g *Game) scoreRound() {
	var scoreable []*Player
	for _, p := range g.players {
		if p.Active || (!g.config.ForfeitCardsOnQuit && len(p.Hand) > 0) {
			scoreable = append(scoreable, p)
		}
	}
	g.score.record(g.round, scoreable, g.config.ScoreWinnerOnly)
	g.phase = RoundEndPhase{HasScoredRound: true}
}

// ToNextRound scores the round if needed, then deals a new one. The game ends
// instead when the round limit is reached or fewer than two players would play.
func (g *Game) ToNextRound() (Outcome, error) {
	p, ok := g.phase.(RoundEndPhase)
	if !ok {
		return SamePhase, g.wrongPhase("start the next round")
	}
	if !p.HasScoredRound {
		g.scoreRound()
	}
	if g.config.MaxRounds > 0 && g.round >= g.config.MaxRounds {
		g.phase = GameEndPhase{}
		return GameEnded, nil
	}

	for _, player := range g.players {
		player.Reset()
		if player.JoinedInRound == g.round {
			player.Active = true
		}
	}
	active := g.activeCount()
	if active < MinPlayers {
		g.phase = GameEndPhase{}
		return GameEnded, nil
	}

	next := g.round + 1
	if g.config.IncreasingWildcardRank {
		r := Rank(next % rankSpace)
		g.deck.SetWildcardRank(&r)
	}
	g.deck.Reset()

	deal := g.dealCount(active)
	for _, player := range g.players {
		if !player.Active {
			continue
		}
		cards, err := g.deck.Draw(deal)
		if err != nil {
			panic(fmt.Sprintf("rummy: dealing %d cards: %v", deal, err))
		}
		player.Hand = cards
	}

	g.round = next
	g.opener = g.nextActive(g.opener)
	g.current = g.opener
	g.phase = DrawPhase{}
	return NextPhase, nil
}

func (g *Game) dealCount(active int) int {
	n := g.config.DealCount
	if n <= 0 {
		n = CardsToDeal(active, g.deck.Config().PackCount)
	}
	return min(n, g.deck.StockSize()/active)
}

// EndGame scores the finished round if needed and ends the game.
func (g *Game) EndGame() (Outcome, error) {
	p, ok := g.phase.(RoundEndPhase)
	if !ok {
		return SamePhase, g.wrongPhase("end the game")
	}
	if !p.HasScoredRound {
		g.scoreRound()
	}
	g.phase = GameEndPhase{}
	return GameEnded, nil
}

// AddPlayer seats a new player at index, or at the end when index is nil or
// out of range. The player sits out until the next round starts.
func (g *Game) AddPlayer(id string, index *int) error {
	if _, ok := g.phase.(GameEndPhase); ok {
		return g.wrongPhase("add a player")
	}
	if id == "" {
		return fmt.Errorf("%w: empty player id", ErrRuleViolation)
	}
	if g.PlayerIndex(id) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if len(g.players) >= MaxPlayers {
		return ErrTableFull
	}

	player := NewPlayer(id, false, g.round)
	if index == nil || *index < 0 || *index >= len(g.players) {
		g.players = append(g.players, player)
		return nil
	}
	at := *index
	g.players = slices.Insert(g.players, at, player)
	if at <= g.current {
		g.current++
	}
	if g.opener >= 0 && at <= g.opener {
		g.opener++
	}
	return nil
}

// QuitPlayer deactivates a seat other than the current player's. If at most one
// active player remains mid-round, the round ends.
func (g *Game) QuitPlayer(i int) (Outcome, error) {
	if _, ok := g.phase.(GameEndPhase); ok {
		return SamePhase, g.wrongPhase("quit")
	}
	if i < 0 || i >= len(g.players) {
		return SamePhase, indexErr("player", i, len(g.players))
	}
	_, betweenRounds := g.phase.(RoundEndPhase)
	if i == g.current && !betweenRounds {
		return SamePhase, ErrCurrentPlayer
	}

	player := g.players[i]
	player.Active = false
	if player.JoinedInRound == g.round {
		// withdraw a pending join
		player.JoinedInRound = -1
	}
	if !betweenRounds && g.activeCount() <= 1 {
		g.phase = RoundEndPhase{}
		return RoundEnded, nil
	}
	return SamePhase, nil
}

// QuitCurrentPlayer deactivates the current player and hands the turn to the
// next active player's draw. If at most one active player remains, the round ends.
func (g *Game) QuitCurrentPlayer() (Outcome, error) {
	switch g.phase.(type) {
	case DrawPhase, PlayPhase, DiscardPhase:
	default:
		return SamePhase, g.wrongPhase("quit the current player")
	}
	g.cur().Active = false
	if g.activeCount() <= 1 {
		g.phase = RoundEndPhase{}
		return RoundEnded, nil
	}
	g.current = g.nextActive(g.current)
	g.phase = DrawPhase{}
	return NextPhase, nil
}

// MoveCardInHand reorders a player's hand.
func (g *Game) MoveCardInHand(playerIndex, oldPos, newPos int) error {
	if _, ok := g.phase.(GameEndPhase); ok {
		return g.wrongPhase("rearrange a hand")
	}
	if playerIndex < 0 || playerIndex >= len(g.players) {
		return indexErr("player", playerIndex, len(g.players))
	}
	return g.players[playerIndex].MoveCard(oldPos, newPos)
}

// StateView is a detached snapshot of a game for presentation.
type StateView struct {
	Round         int       `json:"round"`
	Phase         PhaseKind `json:"phase"`
	PhaseState    Phase     `json:"phase_state"`
	CurrentPlayer int       `json:"current_player"`
	StockSize     int       `json:"stock_size"`
	DiscardSize   int       `json:"discard_size"`
	DiscardTop    *Card     `json:"discard_top,omitempty"`
	Wildcard      *Rank     `json:"wildcard,omitempty"`
	HighRank      *Rank     `json:"high_rank,omitempty"`
	Players       []Player  `json:"players"`
	Scores        Score     `json:"scores"`
}

// ViewState returns a snapshot that shares no memory with the game.
func (g *Game) ViewState() StateView {
	cfg := g.deck.Config()
	view := StateView{
		Round:         g.round,
		Phase:         g.phase.Kind(),
		PhaseState:    g.phase,
		CurrentPlayer: g.current,
		StockSize:     g.deck.StockSize(),
		DiscardSize:   g.deck.DiscardSize(),
		Wildcard:      cfg.Wildcard(),
		Players:       make([]Player, len(g.players)),
		Scores:        g.score.clone(),
	}
	if cfg.HighRank != nil {
		r := *cfg.HighRank
		view.HighRank = &r
	}
	if top, ok := g.deck.PeekDiscardPile(); ok {
		view.DiscardTop = &top
	}
	for i, p := range g.players {
		view.Players[i] = p.clone()
	}
	return view
}

// DeckConfig returns the deck rules a view was taken under.
func (v StateView) DeckConfig() DeckConfig {
	return DeckConfig{WildcardRank: v.Wildcard, HighRank: v.HighRank}.Normalize()
}
