package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/archon/alfredd/internal/app"
	"github.com/archon/alfredd/internal/docker"
	"github.com/archon/alfredd/internal/gateway"
	"github.com/archon/alfredd/internal/hardware"
	"github.com/archon/alfredd/internal/metrics"
	"github.com/archon/alfredd/internal/ollama"
)

// Router provides embeddable HTTP handlers for the daemon.
// Endpoints (relative to basePath):
//
//	GET    /health                 daemon liveness
//	POST   /gateway/start          start the supervised gateway
//	POST   /gateway/stop           stop it
//	GET    /gateway/status         supervisor snapshot plus live probe
//	GET    /gateway/logs           query: tail=N (optional)
//	GET    /services               query: name=... (optional, single entry)
//	GET    /system                 hardware snapshot and model recommendations
//	GET    /models                 installed models
//	POST   /models/pull            body: {"name": "..."}
//	GET    /models/*name           model details; name may contain "/"
//	DELETE /models/*name
//	GET    /containers             query: filter=... (default "alfred-")
//	POST   /containers/:name/start name: searxng | signal-cli
//	POST   /containers/:name/stop
//	GET    /update                 release feed check
//	GET    /agents                 gateway agents ([] while the gateway is down)
//	POST   /agents                 body: agent config
//	PUT    /agents/:id
//	DELETE /agents/:id
//	GET    /privacy/score          score 100 while the gateway is down
//	GET    /privacy/audit          query: limit=N (default 100)
//
// /metrics is served at the root regardless of basePath.
type Router struct {
	app      *app.App
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/gateway/start, /api/services, ...
func NewRouter(a *app.App, basePath string) *Router {
	return &Router{app: a, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/metrics", gin.WrapH(metrics.Handler()))

	group := g.Group(r.basePath)
	group.GET("/health", r.handleHealth)
	group.POST("/gateway/start", r.handleGatewayStart)
	group.POST("/gateway/stop", r.handleGatewayStop)
	group.GET("/gateway/status", r.handleGatewayStatus)
	group.GET("/gateway/logs", r.handleGatewayLogs)
	group.GET("/services", r.handleServices)
	group.GET("/system", r.handleSystem)
	group.GET("/models", r.handleModels)
	group.POST("/models/pull", r.handleModelPull)
	group.GET("/models/*name", r.handleModelShow)
	group.DELETE("/models/*name", r.handleModelDelete)
	group.GET("/containers", r.handleContainers)
	group.POST("/containers/:name/start", r.handleContainerStart)
	group.POST("/containers/:name/stop", r.handleContainerStop)
	group.GET("/update", r.handleUpdate)
	group.GET("/agents", r.handleAgents)
	group.POST("/agents", r.handleAgentCreate)
	group.PUT("/agents/:id", r.handleAgentUpdate)
	group.DELETE("/agents/:id", r.handleAgentDelete)
	group.GET("/privacy/score", r.handlePrivacyScore)
	group.GET("/privacy/audit", r.handleAuditLog)
	return g
}

// NewServer returns an http.Server for addr using this router. The caller
// runs ListenAndServe and Shutdown.
func NewServer(addr, basePath string, a *app.App) *http.Server {
	r := NewRouter(a, basePath)
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// model pulls are synchronous upstream
		WriteTimeout: 35 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type logsResp struct {
	Lines []string `json:"lines"`
}

type systemResp struct {
	Hardware        hardware.Snapshot               `json:"hardware"`
	Recommendations []hardware.ModelRecommendation `json:"recommendations"`
	OllamaAvailable bool                           `json:"ollama_available"`
	DockerAvailable bool                           `json:"docker_available"`
}

type containerResp struct {
	OK   bool   `json:"ok"`
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type pullReq struct {
	Name string `json:"name"`
}

func (r *Router) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleGatewayStart(c *gin.Context) {
	r.command(c, app.CmdStart{})
}

func (r *Router) handleGatewayStop(c *gin.Context) {
	r.command(c, app.CmdStop{})
}

func (r *Router) command(c *gin.Context, cmd app.Command) {
	res := r.app.Handle(c.Request.Context(), cmd)
	if res.Err != nil {
		writeError(c, statusFor(res.Err), res.Err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true, Message: res.Message})
}

func (r *Router) handleGatewayStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.app.GatewayStatus(c.Request.Context()))
}

func (r *Router) handleGatewayLogs(c *gin.Context) {
	lines := r.app.Handle(c.Request.Context(), app.CmdLogs{}).Logs
	if t := c.Query("tail"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || n < 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid tail: " + t})
			return
		}
		if n < len(lines) {
			lines = lines[len(lines)-n:]
		}
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(c, http.StatusOK, logsResp{Lines: lines})
}

func (r *Router) handleServices(c *gin.Context) {
	name := c.Query("name")
	res := r.app.Handle(c.Request.Context(), app.CmdStatus{Name: name})
	if res.Err != nil {
		writeError(c, statusFor(res.Err), res.Err)
		return
	}
	if name != "" && len(res.Statuses) == 1 {
		writeJSON(c, http.StatusOK, res.Statuses[0])
		return
	}
	writeJSON(c, http.StatusOK, res.Statuses)
}

func (r *Router) handleSystem(c *gin.Context) {
	ctx := c.Request.Context()
	snap := r.app.Hardware().Snapshot(ctx)
	writeJSON(c, http.StatusOK, systemResp{
		Hardware:        snap,
		Recommendations: hardware.Recommend(snap.GPU.VRAMMB),
		OllamaAvailable: r.app.Ollama().Detect(ctx),
		DockerAvailable: r.app.Docker().Available(ctx),
	})
}

func (r *Router) handleModels(c *gin.Context) {
	models, err := r.app.Ollama().ListEntries(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	if models == nil {
		models = []ollama.ModelEntry{}
	}
	writeJSON(c, http.StatusOK, models)
}

func (r *Router) handleModelPull(c *gin.Context) {
	var req pullReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !isSafeModelName(req.Name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid model name"})
		return
	}
	msg, err := r.app.Ollama().Pull(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true, Message: msg})
}

// modelParam returns the catch-all model name without its leading slash.
func modelParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("name"), "/")
}

func (r *Router) handleModelShow(c *gin.Context) {
	name := modelParam(c)
	if !isSafeModelName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid model name"})
		return
	}
	info, err := r.app.Ollama().Show(c.Request.Context(), name)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, info)
}

func (r *Router) handleModelDelete(c *gin.Context) {
	name := modelParam(c)
	if !isSafeModelName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid model name"})
		return
	}
	msg, err := r.app.Ollama().Delete(c.Request.Context(), name)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true, Message: msg})
}

func (r *Router) handleContainers(c *gin.Context) {
	filter := c.DefaultQuery("filter", docker.ContainerPrefix)
	list, err := r.app.Docker().ListContainers(c.Request.Context(), filter)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	if list == nil {
		list = []docker.ContainerInfo{}
	}
	writeJSON(c, http.StatusOK, list)
}

// containerName resolves the short names accepted by the container
// endpoints. Only auxiliary containers owned by the daemon are addressable.
func (r *Router) containerName(short string) (string, bool) {
	switch short {
	case "searxng", r.app.Config().Docker.SearxngContainer:
		return r.app.Config().Docker.SearxngContainer, true
	case "signal-cli", docker.SignalContainer:
		return docker.SignalContainer, true
	}
	return "", false
}

func (r *Router) handleContainerStart(c *gin.Context) {
	name, ok := r.containerName(c.Param("name"))
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "unknown container: " + c.Param("name")})
		return
	}
	ctx := c.Request.Context()
	var id string
	var err error
	if name == docker.SignalContainer {
		id, err = r.app.Docker().StartSignalCLI(ctx, r.app.Home())
	} else {
		id, err = r.app.Docker().StartSearxng(ctx, name, r.app.Config().Docker.SearxngPort)
	}
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, containerResp{OK: true, Name: name, ID: id})
}

func (r *Router) handleContainerStop(c *gin.Context) {
	name, ok := r.containerName(c.Param("name"))
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "unknown container: " + c.Param("name")})
		return
	}
	if err := r.app.Docker().StopContainer(c.Request.Context(), name); err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, containerResp{OK: true, Name: name})
}

func (r *Router) handleUpdate(c *gin.Context) {
	info, err := r.app.Updater().Check(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, info)
}

func (r *Router) handleAgents(c *gin.Context) {
	agents, err := r.app.GatewayAPI().ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, agents)
}

// bindAgent decodes an agent config body; it writes a 400 and returns false
// on failure.
func bindAgent(c *gin.Context) (gateway.AgentConfig, bool) {
	var cfg gateway.AgentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return cfg, false
	}
	if strings.TrimSpace(cfg.Name) == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "agent name is required"})
		return cfg, false
	}
	return cfg, true
}

// agentID reads :id; it writes a 400 and returns false when it is unusable.
func agentID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !gateway.ValidID(id) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid agent id"})
		return "", false
	}
	return id, true
}

func (r *Router) handleAgentCreate(c *gin.Context) {
	cfg, ok := bindAgent(c)
	if !ok {
		return
	}
	info, err := r.app.GatewayAPI().CreateAgent(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, info)
}

func (r *Router) handleAgentUpdate(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	cfg, ok := bindAgent(c)
	if !ok {
		return
	}
	info, err := r.app.GatewayAPI().UpdateAgent(c.Request.Context(), id, cfg)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, info)
}

func (r *Router) handleAgentDelete(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}
	msg, err := r.app.GatewayAPI().DeleteAgent(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true, Message: msg})
}

func (r *Router) handlePrivacyScore(c *gin.Context) {
	score, err := r.app.GatewayAPI().PrivacyScore(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, score)
}

func (r *Router) handleAuditLog(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid limit: " + l})
			return
		}
		limit = n
	}
	entries, err := r.app.GatewayAPI().AuditLog(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusBadGateway, err)
		return
	}
	writeJSON(c, http.StatusOK, entries)
}
