package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-provision/core"
)

const (
	TypeSyncWallet   = "provision.query.wallet.sync"
	TypeGetSession   = "provision.query.session.get"
	TypeListActivity = "provision.query.activity.list"
)

type SyncWalletMessage struct {
	Credential string
}

func (SyncWalletMessage) Type() string { return TypeSyncWallet }

func (m SyncWalletMessage) Validate() error {
	if strings.TrimSpace(m.Credential) == "" {
		return fmt.Errorf("query: credential is required")
	}
	return nil
}

type GetSessionMessage struct{}

func (GetSessionMessage) Type() string { return TypeGetSession }

func (GetSessionMessage) Validate() error { return nil }

type ListActivityMessage struct {
	Filter core.ActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	return nil
}
