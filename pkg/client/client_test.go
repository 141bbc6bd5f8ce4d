package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Client, chan string) {
	t.Helper()
	seen := make(chan string, 16)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	mux.HandleFunc("POST /api/gateway/start", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true,"message":"Gateway started"}`)
	})
	mux.HandleFunc("POST /api/gateway/stop", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"gateway is not running"}`)
	})
	mux.HandleFunc("GET /api/gateway/logs", func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.RawQuery
		_, _ = io.WriteString(w, `{"lines":["[gateway] started (pid 42)"]}`)
	})
	mux.HandleFunc("GET /api/services", func(w http.ResponseWriter, r *http.Request) {
		if n := r.URL.Query().Get("name"); n != "" {
			_, _ = io.WriteString(w, `{"name":"Ollama","running":true,"port":11434,"health":"healthy"}`)
			return
		}
		_, _ = io.WriteString(w, `[{"name":"Gateway","running":false,"port":18789,"health":"not running"},{"name":"Docker","running":false,"health":"not installed"}]`)
	})
	mux.HandleFunc("GET /api/gateway/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"gateway","state":"running","pid":42,"healthy":true,"health_url":"http://127.0.0.1:18789/health","usage":{"pid":42,"memory_mb":12.5}}`)
	})
	mux.HandleFunc("POST /api/models/pull", func(w http.ResponseWriter, r *http.Request) {
		var req PullRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen <- req.Name
		_, _ = io.WriteString(w, `{"ok":true,"message":"Successfully pulled model: `+req.Name+`"}`)
	})
	mux.HandleFunc("DELETE /api/models/{name...}", func(w http.ResponseWriter, r *http.Request) {
		seen <- r.PathValue("name")
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("GET /api/models/{name...}", func(w http.ResponseWriter, r *http.Request) {
		seen <- r.PathValue("name")
		_, _ = io.WriteString(w, `{"parameters":"stop <eot>","details":{"family":"llama"}}`)
	})
	mux.HandleFunc("POST /api/containers/{name}/{action}", func(w http.ResponseWriter, r *http.Request) {
		seen <- r.PathValue("action") + " " + r.PathValue("name")
		if r.PathValue("name") != "searxng" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"unknown container: `+r.PathValue("name")+`"}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"name":"alfred-searxng","id":"cid-1"}`)
	})
	mux.HandleFunc("GET /api/system", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"hardware":{"cpu":{"cores":8}},"recommendations":[],"ollama_available":true,"docker_available":false}`)
	})
	mux.HandleFunc("GET /api/agents", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"a1","name":"Researcher","model":"llama3:8b","enabled":true,"tools_count":2}]`)
	})
	mux.HandleFunc("POST /api/agents", func(w http.ResponseWriter, r *http.Request) {
		var cfg AgentConfig
		_ = json.NewDecoder(r.Body).Decode(&cfg)
		seen <- "create " + cfg.Name
		_, _ = io.WriteString(w, `{"id":"a2","name":"`+cfg.Name+`","enabled":true}`)
	})
	mux.HandleFunc("PUT /api/agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen <- "update " + r.PathValue("id")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"failed to update agent (404): agent not found"}`)
	})
	mux.HandleFunc("DELETE /api/agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen <- "delete " + r.PathValue("id")
		_, _ = io.WriteString(w, `{"ok":true,"message":"Agent `+r.PathValue("id")+` deleted"}`)
	})
	mux.HandleFunc("GET /api/privacy/score", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"score":100,"recommendations":["Gateway not connected - all data stays local by default"]}`)
	})
	mux.HandleFunc("GET /api/privacy/audit", func(w http.ResponseWriter, r *http.Request) {
		seen <- "audit " + r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"timestamp":"t","action":"send","source":"agent","destination":"ollama","data_type":"message","privacy_level":"local"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api"}), seen
}

func TestDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultConfig().Timeout, c.client.Timeout)
}

func TestReachability(t *testing.T) {
	c, _ := newServer(t)
	assert.True(t, c.IsReachable(context.Background()))
	assert.False(t, New(Config{BaseURL: "http://127.0.0.1:1/api"}).IsReachable(context.Background()))
}

func TestGatewayCalls(t *testing.T) {
	ctx := context.Background()
	c, seen := newServer(t)

	msg, err := c.StartGateway(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gateway started", msg)

	_, err = c.StopGateway(ctx)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "gateway is not running", err.Error())

	st, err := c.GatewayStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "running", st.State)
	require.NotNil(t, st.Usage)
	assert.InDelta(t, 12.5, st.Usage.MemoryMB, 0.001)

	lines, err := c.Logs(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "tail=5", <-seen)
	assert.Equal(t, []string{"[gateway] started (pid 42)"}, lines)
}

func TestServiceCalls(t *testing.T) {
	ctx := context.Background()
	c, _ := newServer(t)

	all, err := c.Services(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, all[1].Port)
	require.NotNil(t, all[0].Port)
	assert.Equal(t, 18789, *all[0].Port)

	one, err := c.Service(ctx, "ollama")
	require.NoError(t, err)
	assert.Equal(t, "healthy", one.Health)
}

func TestModelCalls(t *testing.T) {
	ctx := context.Background()
	c, seen := newServer(t)

	msg, err := c.PullModel(ctx, "qwen2.5:7b")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:7b", <-seen)
	assert.Equal(t, "Successfully pulled model: qwen2.5:7b", msg)

	_, err = c.DeleteModel(ctx, "llama3:8b")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "HTTP 502", apiErr.Error())
	assert.Equal(t, "llama3:8b", <-seen)
}

func TestShowModel(t *testing.T) {
	c, seen := newServer(t)
	info, err := c.ShowModel(context.Background(), "llama3:8b")
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", <-seen)
	require.NotNil(t, info.Details)
	assert.Equal(t, "llama", info.Details.Family)
}

func TestNamespacedModel(t *testing.T) {
	ctx := context.Background()
	c, seen := newServer(t)

	_, err := c.ShowModel(ctx, "library/llama3:latest")
	require.NoError(t, err)
	assert.Equal(t, "library/llama3:latest", <-seen)

	_, err = c.DeleteModel(ctx, "library/llama3:latest")
	require.Error(t, err)
	assert.Equal(t, "library/llama3:latest", <-seen)
}

func TestModelPath(t *testing.T) {
	assert.Equal(t, "/models/llama3:8b", modelPath("llama3:8b"))
	assert.Equal(t, "/models/library/llama3:latest", modelPath("library/llama3:latest"))
	assert.Equal(t, "/models/a%20b", modelPath("a b"))
}

func TestContainerCalls(t *testing.T) {
	ctx := context.Background()
	c, seen := newServer(t)

	res, err := c.StartContainer(ctx, "searxng")
	require.NoError(t, err)
	assert.Equal(t, "start searxng", <-seen)
	assert.Equal(t, "cid-1", res.ID)

	_, err = c.StopContainer(ctx, "postgres")
	assert.Equal(t, "stop postgres", <-seen)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unknown container: postgres", apiErr.Message)
}

func TestSystem(t *testing.T) {
	c, _ := newServer(t)
	sys, err := c.System(context.Background())
	require.NoError(t, err)
	assert.True(t, sys.OllamaAvailable)
	assert.False(t, sys.DockerAvailable)
	assert.JSONEq(t, `{"cpu":{"cores":8}}`, string(sys.Hardware))
}

func TestAgents(t *testing.T) {
	ctx := context.Background()
	c, seen := newServer(t)

	agents, err := c.Agents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, 2, agents[0].ToolsCount)

	info, err := c.CreateAgent(ctx, AgentConfig{Name: "Writer", Model: "qwen2.5:7b", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "create Writer", <-seen)
	assert.Equal(t, "a2", info.ID)

	_, err = c.UpdateAgent(ctx, "missing", AgentConfig{Name: "x"})
	assert.Equal(t, "update missing", <-seen)
	assert.EqualError(t, err, "failed to update agent (404): agent not found")

	msg, err := c.DeleteAgent(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "delete a2", <-seen)
	assert.Equal(t, "Agent a2 deleted", msg)
}

func TestPrivacy(t *testing.T) {
	ctx := context.Background()
	c, seen := newServer(t)

	score, err := c.PrivacyScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), score.Score)
	assert.Len(t, score.Recommendations, 1)

	entries, err := c.AuditLog(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "audit ", <-seen)
	require.Len(t, entries, 1)
	assert.Equal(t, "local", entries[0].PrivacyLevel)

	_, err = c.AuditLog(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "audit limit=20", <-seen)
}
