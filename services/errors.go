package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed     = errors.New("validation failed") // Общая ошибка валидации
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrPlayerNameRequired   = errors.New("player name is required")
	ErrChampionshipNameReq  = errors.New("championship name and season are required")
	ErrInvalidMaxTeams      = errors.New("max teams must be one of 6, 8, 10, 16")
	ErrInvalidScheduleType  = errors.New("schedule type must be random or manual")
	ErrInvalidMatchStage    = errors.New("invalid match stage")
	ErrInvalidMatchDate     = errors.New("match date is required")
	ErrInvalidLimit         = errors.New("limit must be positive")
	ErrDuplicateTeamEntry   = errors.New("team listed more than once")
	ErrInvalidAdminPassword = errors.New("invalid admin password")

	// Ошибки конфликтов и предусловий
	ErrTeamNameConflict        = errors.New("team name is already in use")
	ErrInvalidStatusTransition = errors.New("invalid championship status transition")
	ErrChampionshipExists      = errors.New("a championship is already in progress")
	ErrChampionshipFull        = errors.New("championship is full")
	ErrChampionshipNotFull     = errors.New("championship needs exactly max_teams teams to start")
	ErrRegistrationClosed      = errors.New("teams can only change while the championship is in setup")
	ErrTeamAlreadyRegistered   = errors.New("team is already registered in the championship")
	ErrTeamNotRegistered       = errors.New("team is not registered in the championship")
	ErrTeamHasPlayers          = errors.New("team still has players on its roster")
	ErrTeamLocked              = errors.New("team takes part in a championship that already started")
	ErrPlayerOnTeam            = errors.New("player must be a free agent to be deleted")
	ErrGroupPhaseIncomplete    = errors.New("every group match must be played before advancing")
	ErrNoGroupMatches          = errors.New("group phase has no matches")
	ErrMatchAlreadyScheduled   = errors.New("these teams already have a group match")
	ErrMatchNotEditable        = errors.New("match cannot be changed in the current championship state")
	ErrMatchPlayed             = errors.New("match has already been played")
	ErrMatchNotManual          = errors.New("only manually created matches can be deleted")
	ErrDependentMatchPlayed    = errors.New("the next knockout match has already been played")
	ErrResultNotAllowed        = errors.New("results can only be entered while the championship is running")
	ErrWinnerNotInChampionship = errors.New("winner is not a championship team")
	ErrScorerNotFound          = errors.New("scorer is not a registered player")

	// Ошибки, специфичные для сущностей (могут дублировать ErrNotFound, но дают больше контекста)
	ErrTeamNotFound         = errors.New("team not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrChampionshipNotFound = errors.New("no current championship")
)
