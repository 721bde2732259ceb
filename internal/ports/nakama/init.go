package nakama

import (
	"context"
	"database/sql"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/bot"
	"github.com/mhbka/rummy/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if env == nil {
		env = map[string]string{}
	}
	rc, err := config.ParseRuntimeConfig(env)
	if err != nil {
		return err
	}

	if err := config.LoadGameConfig(rc.GameConfigPath); err != nil {
		logger.Warn("InitModule: Could not load game config, using standard rules: %v", err)
	}
	if err := bot.LoadIdentities(rc.BotIdentityPath); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else {
		bot.ProvisionBots(ctx, nk, logger)
	}

	if rc.TokensEnabled() {
		tableTokens = app.NewTableTokenService(rc.TableTokenSecret, rc.TableTokenIssuer, rc.TableTokenTTL)
	} else {
		logger.Warn("InitModule: rummy_table_token_secret not set, private tables are disabled.")
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}
	if err := initializer.RegisterMatch(MatchNameRummy, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		return err
	}

	logger.Info("Rummy Go module loaded.")
	return nil
}
