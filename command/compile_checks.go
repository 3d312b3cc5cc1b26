package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[TriggerRunMessage]        = (*TriggerRunCommand)(nil)
	_ gocmd.Commander[AdvanceWatermarkMessage]  = (*AdvanceWatermarkCommand)(nil)
	_ gocmd.Commander[InvalidateSessionMessage] = (*InvalidateSessionCommand)(nil)
)
