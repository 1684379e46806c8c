package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oulookup/oubot/internal/catalog"
	"github.com/oulookup/oubot/internal/config"
	"github.com/oulookup/oubot/internal/logger"
	"github.com/oulookup/oubot/internal/metrics"
	"github.com/oulookup/oubot/internal/replycache"
)

type sentReply struct {
	ChannelID string
	MessageID string
	Content   string
	Embeds    []Embed
}

type sentEdit struct {
	ChannelID string
	ReplyID   string
	Content   string
	Embeds    []Embed
}

type mockMessenger struct {
	mu      sync.Mutex
	replies []sentReply
	edits   []sentEdit
}

func (m *mockMessenger) Reply(_ context.Context, channelID, messageID, content string, embeds []Embed) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, sentReply{channelID, messageID, content, embeds})
	return fmt.Sprintf("reply-%d", len(m.replies)), nil
}

func (m *mockMessenger) Edit(_ context.Context, channelID, replyID, content string, embeds []Embed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, sentEdit{channelID, replyID, content, embeds})
	return nil
}

// testEnv wires a handler against an in-memory seed and a stub courses site.
// The stub serves 200 on /courses/modules/a123 and 404 everywhere else, and
// records every probed path.
type testEnv struct {
	handler   *Handler
	messenger *mockMessenger
	server    *httptest.Server
	probed    func() []string
}

const testSuffix = "\nNote: codes are being retired."

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	var mu sync.Mutex
	var probed []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		probed = append(probed, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/courses/modules/a123" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	seed, err := catalog.ParseSeed([]byte(fmt.Sprintf(`{
		"A123": ["Mocked active module", "%s/courses/modules/a123"],
		"B321": ["Mocked inactive module", null],
		"A012": ["Another module", null]
	}`, server.URL)))
	require.NoError(t, err)

	log := logger.NewWithWriter("error", io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	resolver := catalog.NewResolver([]catalog.Layer{catalog.NewSeedLayer(seed, m)}, m, log)
	liveness := catalog.NewLivenessChecker(time.Second, 0, time.Millisecond, server.URL+"/courses", m, log)

	messenger := &mockMessenger{}
	handler := NewHandler(
		config.BotConfig{
			CommandName:        "modulename",
			MaxCodesPerMessage: 5,
			ReplyCacheSize:     10,
			ReplySuffix:        testSuffix,
		},
		resolver, liveness, messenger, replycache.New(10), m, log,
	)

	return &testEnv{
		handler:   handler,
		messenger: messenger,
		server:    server,
		probed: func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), probed...)
		},
	}
}

func TestHandleInlineActiveModule(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "foo !A123"})

	require.Len(t, env.messenger.replies, 1)
	reply := env.messenger.replies[0]
	assert.Equal(t, "c1", reply.ChannelID)
	assert.Equal(t, "m1", reply.MessageID)
	assert.Equal(t,
		fmt.Sprintf("A123: [Mocked active module](<%s/courses/modules/a123>)", env.server.URL)+testSuffix,
		reply.Content)
	assert.Empty(t, reply.Embeds)
}

func TestHandleInlineInactiveModule(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "foo !B321"})

	require.Len(t, env.messenger.replies, 1)
	assert.Equal(t, "B321: Mocked inactive module"+testSuffix, env.messenger.replies[0].Content)

	// No seed URL, so both course-page templates get probed before giving up.
	assert.Equal(t, []string{
		"/courses/qualifications/details/b321",
		"/courses/modules/b321",
	}, env.probed())
}

func TestHandleMultipleInlineMentions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "!A123 and !A012"})

	require.Len(t, env.messenger.replies, 1)
	reply := env.messenger.replies[0]

	assert.Equal(t, "Note: codes are being retired.", reply.Content)
	require.Len(t, reply.Embeds, 1)
	require.Len(t, reply.Embeds[0].Fields, 2)
	assert.Equal(t, "A123", reply.Embeds[0].Fields[0].Name)
	assert.Equal(t, "A012", reply.Embeds[0].Fields[1].Name)
	assert.Equal(t, "Another module", reply.Embeds[0].Fields[1].Value)
}

func TestHandlePartialResolution(t *testing.T) {
	t.Parallel()

	t.Run("inline with one unresolved mention", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "!A123 and !ZZ9"})

		// Only the resolved code is reported: a single-module plain reply,
		// no embed and no mention of the miss.
		require.Len(t, env.messenger.replies, 1)
		reply := env.messenger.replies[0]
		assert.Equal(t,
			fmt.Sprintf("A123: [Mocked active module](<%s/courses/modules/a123>)", env.server.URL)+testSuffix,
			reply.Content)
		assert.Empty(t, reply.Embeds)
		assert.NotContains(t, reply.Content, "not found")
	})

	t.Run("command with one unknown code", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "!modulename B321 ZZ999"})

		require.Len(t, env.messenger.replies, 1)
		reply := env.messenger.replies[0]
		assert.Equal(t, "B321: Mocked inactive module"+testSuffix, reply.Content)
		assert.Empty(t, reply.Embeds)
	})

	t.Run("two resolved one unresolved keeps embed layout", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "!A123 !A012 !ZZ9"})

		require.Len(t, env.messenger.replies, 1)
		reply := env.messenger.replies[0]
		require.Len(t, reply.Embeds, 1)
		require.Len(t, reply.Embeds[0].Fields, 2)
		assert.Equal(t, "A123", reply.Embeds[0].Fields[0].Name)
		assert.Equal(t, "A012", reply.Embeds[0].Fields[1].Name)
	})
}

func TestHandleCommandSingleMalformedToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "!modulename notacode"})

	// A lone token that fails validation still earns an explicit answer.
	require.Len(t, env.messenger.replies, 1)
	assert.Equal(t, "NOTACODE: not found"+testSuffix, env.messenger.replies[0].Content)
}

func TestHandleStaysSilent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "no codes at all", content: "hello there"},
		{name: "inline mention that resolves nothing", content: "anyone taken !ZZ9?"},
		{name: "command with several invalid tokens", content: "!modulename foo bar"},
		{name: "command with several unknown codes", content: "!modulename ZZ999 YY888"},
		{name: "command with no tokens", content: "!modulename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: tt.content})

			assert.Empty(t, env.messenger.replies)
			assert.Empty(t, env.messenger.edits)
		})
	}
}

func TestHandleCommandSingleUnknownCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.HandleMessageCreate(context.Background(), Message{ID: "m1", ChannelID: "c1", Content: "!modulename ZZ999"})

	require.Len(t, env.messenger.replies, 1)
	assert.Equal(t, "ZZ999: not found"+testSuffix, env.messenger.replies[0].Content)
}

func TestHandleEditReconciliation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.handler.HandleMessageCreate(ctx, Message{ID: "m1", ChannelID: "c1", Content: "foo !A123"})
	require.Len(t, env.messenger.replies, 1)

	// Editing an answered message updates the existing reply in place.
	env.handler.HandleMessageUpdate(ctx, Message{ID: "m1", ChannelID: "c1", Content: "foo !B321"})
	require.Len(t, env.messenger.edits, 1)
	assert.Len(t, env.messenger.replies, 1, "edit must not create a second reply")

	edit := env.messenger.edits[0]
	assert.Equal(t, "reply-1", edit.ReplyID)
	assert.Equal(t, "B321: Mocked inactive module"+testSuffix, edit.Content)
	assert.Empty(t, edit.Embeds)

	// Editing a message never answered creates a fresh reply.
	env.handler.HandleMessageUpdate(ctx, Message{ID: "m2", ChannelID: "c1", Content: "foo !A123"})
	require.Len(t, env.messenger.replies, 2)
	assert.Equal(t, "m2", env.messenger.replies[1].MessageID)
}
