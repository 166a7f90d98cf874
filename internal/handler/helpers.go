package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parsePositiveInt parses a strictly positive integer, as used for
// party sizes.
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive, got %d", n)
	}
	return n, nil
}

// newPublishContext returns the context used for best-effort event
// publishing.  It is detached from the request context on purpose: the
// mutation has already committed, so a client disconnect must not
// cancel the event.
func newPublishContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
