// Command rummy-sim plays batches of bot-only games and reports who wins.
package main

import (
	"errors"
	"io/fs"
	"math/rand"
	"os"
	"time"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/bot"
	"github.com/mhbka/rummy/internal/config"
	"github.com/mhbka/rummy/internal/domain"
	"github.com/mhbka/rummy/internal/sim"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	sc, err := config.ParseSimConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid simulator config")
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(sc.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if sc.Players < domain.MinPlayers || sc.Players > domain.MaxPlayers {
		log.Fatal().Int("players", sc.Players).Msgf("players must be between %d and %d", domain.MinPlayers, domain.MaxPlayers)
	}

	if err := config.LoadGameConfig(sc.Config); err != nil {
		log.Warn().Err(err).Str("path", sc.Config).Msg("using built-in rules")
	}
	variant := config.GetVariant(sc.Variant)

	seed := sc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	svc := app.NewService(rand.New(rand.NewSource(seed)), variant.Rules, variant.Deck)

	agents := make([]*bot.Agent, 0, sc.Players)
	for i := 0; i < sc.Players; i++ {
		identity := bot.GetBotIdentity(i)
		brain, err := bot.NewBrain(bot.LevelFromDifficulty(identity.Difficulty))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create bot")
		}
		agents = append(agents, &bot.Agent{ID: identity.UserID, Name: identity.DisplayName, Strategy: brain})
	}

	log.Info().
		Str("variant", variant.ID).
		Int("games", sc.Games).
		Int("players", sc.Players).
		Int64("seed", seed).
		Msg("starting simulation")

	runner := sim.NewRunner(svc, sc.MaxTurns, log.Logger)
	tally := sim.NewTally(agents)
	start := time.Now()
	for g := 0; g < sc.Games; g++ {
		res, err := runner.Play(agents)
		if err != nil {
			log.Fatal().Err(err).Int("game", g+1).Msg("game failed")
		}
		tally.Add(res)
		log.Info().
			Int("game", g+1).
			Str("game_id", res.GameID).
			Bool("finished", res.Finished).
			Int("rounds", res.Rounds).
			Int("turns", res.Turns).
			Str("winner", res.WinnerID).
			Interface("totals", res.Totals).
			Msg("game over")
	}

	log.Info().
		Int("games", tally.Games).
		Int("unfinished", tally.Unfinished).
		Interface("wins", tally.Wins).
		Dur("elapsed", time.Since(start)).
		Msg("simulation complete")
}
