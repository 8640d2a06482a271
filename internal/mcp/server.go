// Package mcp exposes the local training data to LLM clients over the
// Model Context Protocol. Read-only: recording goes through the HTTP
// API or the session machine, never through a tool call.
package mcp

import (
	"log/slog"

	"github.com/FloScythe/fitness-rpg/internal/store"
	"github.com/FloScythe/fitness-rpg/internal/syncer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(st *store.Store, syncMgr *syncer.Manager, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitnessRPG", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Local fitness tracker with RPG progression. Query the profile, workout history, personal records, and training recommendations. All data lives on this device."),
	)

	h := &handlers{st: st, syncMgr: syncMgr, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetWorkoutDetails, Handler: h.getWorkoutDetails},
		server.ServerTool{Tool: toolGetPersonalRecord, Handler: h.getPersonalRecord},
		server.ServerTool{Tool: toolSuggestProgression, Handler: h.suggestProgression},
		server.ServerTool{Tool: toolCheckDeload, Handler: h.checkDeload},
		server.ServerTool{Tool: toolGetSyncStatus, Handler: h.getSyncStatus},
	)

	s.AddResources(
		server.ServerResource{Resource: resProfile, Handler: h.profileResource},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkoutsResource},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalogResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	st      *store.Store
	syncMgr *syncer.Manager
	log     *slog.Logger
}

// --- Resource definitions ---

var resProfile = mcp.NewResource(
	"fitnessrpg://profile",
	"Profile",
	mcp.WithResourceDescription("The athlete's profile: total XP, current level, and progress toward the next level"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"fitnessrpg://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The ten most recent workouts with totals"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"fitnessrpg://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All known exercises with category, movement type, and XP multiplier"),
	mcp.WithMIMEType("application/json"),
)
