package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/moodbuddy/moodbuddy/client/internal/types"
)

// GetStats fetches the aggregate statistics for the trailing days window.
func GetStats(ctx context.Context, rc *resty.Client, days int) (*types.AggregateStats, error) {
	if days <= 0 {
		return nil, types.NewValidationError("days", "stats window must be > 0")
	}
	c := call{op: "stats", method: http.MethodGet, path: "/mood/stats", query: map[string]string{"days": strconv.Itoa(days)}}
	status, raw, err := execute(ctx, rc, c)
	if err != nil {
		return nil, err
	}
	var st types.AggregateStats
	if err := decodeData(c.op, status, raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
