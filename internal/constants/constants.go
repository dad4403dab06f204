package constants

// Centralized constants for env keys, endpoints, protocol commands and
// the control API.
const (
	// Environment variable keys
	EnvPSUsername   = "PS_USERNAME"
	EnvPSPassword   = "PS_PASSWORD"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvConfigPath   = "PS_BATTLER_CONFIG"
	EnvDexDB        = "PS_BATTLER_DB"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// Pokemon Showdown endpoints
	ShowdownWebSocketURL = "wss://sim3.psim.us/showdown/websocket"
	ShowdownActionURL    = "https://play.pokemonshowdown.com/action.php"

	// OpenAI-compatible API defaults
	OpenAIBaseURL             = "https://api.openai.com"
	OpenAIChatCompletionsPath = "/v1/chat/completions"
	OpenAIChatModel           = "gpt-4o"

	// Default identity and format
	DefaultAvatar = "225"
	DefaultFormat = "gen9randombattle"
)

// Showdown command formats. Messages to the simulator are
// "ROOMID|TEXT"; global commands use an empty room id.
const (
	CmdTrainerFmt   = "|/trn %s,0,%s"
	CmdAvatarFmt    = "|/avatar %s"
	CmdJoinFmt      = "|/join %s"
	CmdChallengeFmt = "|/challenge %s, %s"
	CmdAcceptFmt    = "|/accept %s"
	CmdChooseFmt    = "%s|/choose %s|%d"
	CmdForfeitFmt   = "%s|/forfeit"
	CmdTimerFmt     = "%s|/timer on"
	CmdLeaveFmt     = "%s|/leave"
)

// Routes used by the control API router
const (
	RouteAPIPrefix     = "/api"
	RouteHealthz       = "/healthz"
	RouteVersion       = "/version"
	RouteStatus        = "/status"
	RouteChallenges    = "/challenges"
	RouteBattles       = "/battles"
	RouteBattleByID    = "/battles/:battleID"
	RouteBattleForfeit = "/battles/:battleID/forfeit"
	RouteSummaries     = "/summaries"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest     = "Invalid request"
	ErrBattleNotFound     = "Battle not found"
	ErrBattleAlreadyEnded = "Battle already ended"
	ErrNotLoggedIn        = "Not logged in to the simulator"
	ErrUsernameRequired   = "username is required"
	ErrChallengeFailed    = "Failed to issue challenge"
)

// Logging field names
const (
	LogFieldBattleID = "battle_id"
	LogFieldTurn     = "turn"
	LogFieldRoom     = "room"
	LogFieldCommand  = "command"
	LogFieldUser     = "user"
	LogFieldFormat   = "format"
	LogFieldAddr     = "addr"
	LogFieldReason   = "reason"
)
