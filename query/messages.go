package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetWatermark = "relay.query.watermark.get"
	TypeGetSession   = "relay.query.session.get"
)

type GetWatermarkMessage struct {
	AccountID string
}

func (GetWatermarkMessage) Type() string { return TypeGetWatermark }

func (m GetWatermarkMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("query: account id is required")
	}
	return nil
}

type GetSessionMessage struct {
	AccountID string
}

func (GetSessionMessage) Type() string { return TypeGetSession }

func (m GetSessionMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("query: account id is required")
	}
	return nil
}
