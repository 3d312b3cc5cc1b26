package command

import (
	"fmt"
	"strings"
)

const (
	TypeTriggerRun        = "relay.command.run.trigger"
	TypeAdvanceWatermark  = "relay.command.watermark.advance"
	TypeInvalidateSession = "relay.command.session.invalidate"
)

// TriggerRunMessage requests one relay pass for the account.
type TriggerRunMessage struct {
	AccountID string
}

func (TriggerRunMessage) Type() string { return TypeTriggerRun }

func (m TriggerRunMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// AdvanceWatermarkMessage moves the account cursor forward by hand, skipping
// every post at or below the given timestamp. The store still rejects
// regressions.
type AdvanceWatermarkMessage struct {
	AccountID     string
	LastTimestamp int64
}

func (AdvanceWatermarkMessage) Type() string { return TypeAdvanceWatermark }

func (m AdvanceWatermarkMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	if m.LastTimestamp <= 0 {
		return fmt.Errorf("command: watermark timestamp must be positive")
	}
	return nil
}

// InvalidateSessionMessage drops the cached session so the next run performs
// a fresh credential login.
type InvalidateSessionMessage struct {
	AccountID string
}

func (InvalidateSessionMessage) Type() string { return TypeInvalidateSession }

func (m InvalidateSessionMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}
