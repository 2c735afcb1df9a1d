package models

// GameTypeID identifies a game mode.
type GameTypeID string

const (
	GameTypeMurder           GameTypeID = "MURDER"
	GameTypeMurderDouble     GameTypeID = "MURDER_DOUBLE"
	GameTypeFreeForAllGun    GameTypeID = "FREE_FOR_ALL_GUN"
	GameTypeFreeForAllSword  GameTypeID = "FREE_FOR_ALL_SWORD"
	GameTypeTeamGunVsGun     GameTypeID = "TEAM_GUN_VS_GUN"
	GameTypeTeamGunVsSword   GameTypeID = "TEAM_GUN_VS_SWORD"
	GameTypeTeamSwordVsSword GameTypeID = "TEAM_SWORD_VS_SWORD"
	GameTypeHotPotato        GameTypeID = "HOT_POTATO"
	GameTypeHotPotatoDouble  GameTypeID = "HOT_POTATO_DOUBLE"
	GameTypeOITC             GameTypeID = "OITC"
	GameTypeLavaFloor        GameTypeID = "LAVA_FLOOR"
	GameTypeHideAndSeek      GameTypeID = "HIDE_AND_SEEK"
	GameTypeBuildBattle      GameTypeID = "BUILD_BATTLE"
	GameTypeTeamBuildBattle  GameTypeID = "TEAM_BUILD_BATTLE"
	GameTypeSpeedBuilders    GameTypeID = "SPEED_BUILDERS"
	GameTypeHalloween        GameTypeID = "HALLOWEEN"
	GameTypeChristmas        GameTypeID = "CHRISTMAS"
)

// GameType describes a game mode. Values are immutable and come from the static catalog.
type GameType struct {
	ID           GameTypeID `json:"id"`
	Name         string     `json:"name"`
	Scoreboard   string     `json:"scoreboard"`
	MinPlayers   int        `json:"min_players"`
	TeamMode     bool       `json:"team_mode"`
	EventMode    bool       `json:"event_mode"`
	SpecialEvent bool       `json:"special_event"`
}

// CanRunAsEvent reports whether the type may be activated as a timed event.
func (g GameType) CanRunAsEvent() bool {
	return g.EventMode || g.SpecialEvent
}

// MinimumPlayers returns how many players a room of the given type needs before voting opens.
func MinimumPlayers(id GameTypeID) int {
	switch id {
	case GameTypeMurder:
		return 4
	case GameTypeMurderDouble:
		return 8
	default:
		return 2
	}
}

func newGameType(id GameTypeID, name, scoreboard string) GameType {
	if scoreboard == "" {
		scoreboard = name
	}
	gt := GameType{
		ID:         id,
		Name:       name,
		Scoreboard: scoreboard,
		MinPlayers: MinimumPlayers(id),
	}
	switch id {
	case GameTypeTeamGunVsGun, GameTypeTeamGunVsSword, GameTypeTeamSwordVsSword, GameTypeTeamBuildBattle:
		gt.TeamMode = true
	}
	switch id {
	case GameTypeFreeForAllGun, GameTypeFreeForAllSword, GameTypeHotPotato, GameTypeHotPotatoDouble,
		GameTypeOITC, GameTypeLavaFloor, GameTypeHideAndSeek:
		gt.EventMode = true
	}
	switch id {
	case GameTypeHalloween, GameTypeChristmas:
		gt.SpecialEvent = true
	}
	return gt
}

// Display names and scoreboard labels are the ones players know from the server.
var gameTypes = []GameType{
	newGameType(GameTypeMurder, "Detetive", ""),
	newGameType(GameTypeMurderDouble, "Detetive em Dupla", ""),
	newGameType(GameTypeFreeForAllGun, "Todos contra Todos-Armas", "Todos Armas"),
	newGameType(GameTypeFreeForAllSword, "Todos contra Todos-Espadas", "Todos Espadas"),
	newGameType(GameTypeTeamGunVsGun, "Time vs Time Armas", "Time Armas"),
	newGameType(GameTypeTeamGunVsSword, "Time vs Time Espadas", "Time Espadas"),
	newGameType(GameTypeTeamSwordVsSword, "Armas vs Espadas", ""),
	newGameType(GameTypeHotPotato, "Batata Quente", ""),
	newGameType(GameTypeHotPotatoDouble, "Batata Quente em Dupla", ""),
	newGameType(GameTypeOITC, "One In The Chamber", "OITC"),
	newGameType(GameTypeLavaFloor, "Chão é Lava", ""),
	newGameType(GameTypeHideAndSeek, "Esconde-Esconde", ""),
	newGameType(GameTypeBuildBattle, "Batalha das Contruções", ""),
	newGameType(GameTypeTeamBuildBattle, "Batalha das Contruções em Time", "Contruções em Time"),
	newGameType(GameTypeSpeedBuilders, "Speed Builders", ""),
	newGameType(GameTypeHalloween, "Dia das Bruxas", ""),
	newGameType(GameTypeChristmas, "Natal", ""),
}

var gameTypesByID = func() map[GameTypeID]GameType {
	m := make(map[GameTypeID]GameType, len(gameTypes))
	for _, gt := range gameTypes {
		if _, dup := m[gt.ID]; dup {
			panic("duplicate game type id " + string(gt.ID))
		}
		m[gt.ID] = gt
	}
	return m
}()

// GameTypes returns the full catalog in declaration order.
func GameTypes() []GameType {
	out := make([]GameType, len(gameTypes))
	copy(out, gameTypes)
	return out
}

// GameTypeByID looks up a descriptor by id.
func GameTypeByID(id GameTypeID) (GameType, bool) {
	gt, ok := gameTypesByID[id]
	return gt, ok
}

// GameTypeByName looks up a descriptor by display name or scoreboard label.
func GameTypeByName(name string) (GameType, bool) {
	for _, gt := range gameTypes {
		if gt.Name == name || gt.Scoreboard == name {
			return gt, true
		}
	}
	return GameType{}, false
}
