package query

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Querier[GetWatermarkMessage, WatermarkStatus] = (*GetWatermarkQuery)(nil)
	_ gocmd.Querier[GetSessionMessage, SessionInfo]       = (*GetSessionQuery)(nil)
)
