package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-provision/core"
)

var (
	_ gocmd.Querier[SyncWalletMessage, core.WalletSnapshot] = (*SyncWalletQuery)(nil)
	_ gocmd.Querier[GetSessionMessage, core.Session]        = (*GetSessionQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage] = (*ListActivityQuery)(nil)
)
