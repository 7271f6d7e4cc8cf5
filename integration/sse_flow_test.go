package integration

import (
	"bufio"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSSEDeliversFollowEvent opens the notification stream for one user and
// verifies that a follow by another user arrives as a relation event.
func TestSSEDeliversFollowEvent(t *testing.T) {
	ts := NewTestServer(t)

	aliceTok, _ := ts.Login(t, UniqueID("alice"), "pass1234")
	bobTok, bobUID := ts.Login(t, UniqueID("bob"), "pass1234")

	resp, err := http.Get(ts.URL + "/sse?token=" + bobTok)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	// Wait for the initial connected event before triggering the follow.
	waitForLine(t, lines, "event: connected")

	followResp := ts.PostJSON(t, "/api/social/follow/"+bobUID, nil, aliceTok)
	require.Equal(t, http.StatusOK, followResp.StatusCode)
	followResp.Body.Close()

	data := waitForLine(t, lines, "data: {")
	assert.Contains(t, data, `"type":"followed"`)
}

// waitForLine reads stream lines until one starts with the given prefix.
func waitForLine(t *testing.T, lines <-chan string, prefix string) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed while waiting for %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}

func TestSSERejectsBadToken(t *testing.T) {
	ts := NewTestServer(t)

	resp, err := http.Get(ts.URL + "/sse?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
