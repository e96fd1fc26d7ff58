package featureflag

type Flag string

const (
	FlagRejectOutOfBoundsInsert Flag = "REJECT_OUT_OF_BOUNDS_INSERT"
	FlagDisableDebugEndpoints   Flag = "DISABLE_DEBUG_ENDPOINTS"
	FlagDisableRealtime         Flag = "DISABLE_REALTIME"
)
