package api

import "net/url"

// Paths shared by the server and the CLI client
const (
	// APIVersionPrefix prefixes every slot route
	APIVersionPrefix = "/api/v1"

	HealthPath  = "/health"
	MetricsPath = "/metrics"
	SlotsPath   = "/slots"

	FullSlotsPath = APIVersionPrefix + SlotsPath
)

// SlotPathPattern is the gin route for a single slot
const SlotPathPattern = SlotsPath + "/:key"

// SlotPath returns the full path of the slot named key
func SlotPath(key string) string {
	return FullSlotsPath + "/" + url.PathEscape(key)
}

// ListPath returns the list path filtered by prefix
func ListPath(prefix string) string {
	if prefix == "" {
		return FullSlotsPath
	}
	return FullSlotsPath + "?" + url.Values{"prefix": {prefix}}.Encode()
}
