package app

import "github.com/mhbka/rummy/internal/domain"

// MinPlayersToStartGame is the number of occupied seats a table needs before a game can start.
const MinPlayersToStartGame = domain.MinPlayers
