package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointSets(t *testing.T) {
	// Every throttled endpoint is public; the throttle guards anonymous
	// traffic, authenticated endpoints sit behind the session gate instead.
	for endpoint := range ThrottledEndpoints {
		assert.True(t, PublicEndpoints[endpoint], "%s throttled but not public", endpoint)
	}

	for endpoint := range PublicEndpoints {
		ok := strings.HasPrefix(endpoint, "/api/v1/") || endpoint == Health
		assert.True(t, ok, "unexpected endpoint path %s", endpoint)
	}
}
