package services

import (
	"errors"
	"log"

	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/query"
	"finspark-backoffice/internal/session"
	"finspark-backoffice/internal/workspace"
)

// Deps is what every service needs from the browser's workspace
type Deps struct {
	API     *apiclient.Client
	Session *session.Store
	Notify  *notify.Channel
	Queries *query.Client
	Policy  config.UnauthorizedPolicy
}

// NewDeps binds the shared API client to the session of ws
func NewDeps(api *apiclient.Client, ws *workspace.Workspace, policy config.UnauthorizedPolicy) Deps {
	return Deps{
		API:     api.As(ws.Session),
		Session: ws.Session,
		Notify:  ws.Notify,
		Queries: ws.Queries,
		Policy:  policy,
	}
}

// handleUnauthorized applies the 401 policy to err
func (d Deps) handleUnauthorized(err error) {
	if d.Policy != config.PolicyLogout || !errors.Is(err, apiclient.ErrUnauthorized) {
		return
	}
	if d.Session == nil || !d.Session.Authenticated() {
		return
	}
	log.Printf("🔒 API rejected token, signing out browser %s", d.Session.ID())
	if err := d.Session.Logout(); err != nil {
		log.Printf("❌ Failed to clear session: %v", err)
	}
}
