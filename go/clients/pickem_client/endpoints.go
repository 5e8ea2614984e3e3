package pickem_client

const (
	// API Endpoints, formatted with the game ID
	GameStateEndpoint   = "/api/games/%s/state"
	MyStateEndpoint     = "/api/games/%s/me"
	MyPicksEndpoint     = "/api/games/%s/me/picks"
	SubmitPicksEndpoint = "/api/games/%s/me/submit"

	// Query parameters
	JoinCodeParam = "joinCode"

	// Headers
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
)
