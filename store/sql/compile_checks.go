package sqlstore

import "github.com/goliatone/go-provision/core"

var (
	_ core.SessionStore  = (*SessionStore)(nil)
	_ core.SessionStore  = (*CachedSessionStore)(nil)
	_ core.ActivityStore = (*ActivityStore)(nil)
)
