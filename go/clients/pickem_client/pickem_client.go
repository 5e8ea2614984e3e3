package pickem_client

import (
	"github.com/mcdev12/pickem/go/clients"
)

type PickemClient struct {
	*clients.BaseClient
}

// NewPickemClient creates a client for the pick-'em game server. An empty
// token sends unauthenticated requests (display screens joined by code).
func NewPickemClient(baseURL, token string) *PickemClient {
	client := &PickemClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	if token != "" {
		client.SetHeader(AuthorizationHeader, "Bearer "+token)
	}

	return client
}
