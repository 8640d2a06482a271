package mcp

import (
	"context"
	"encoding/json"

	"github.com/FloScythe/fitness-rpg/internal/rpg"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) profileResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	user, err := h.st.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	summary := map[string]any{"user": user}
	if user != nil {
		summary["level"] = rpg.LevelFromXP(user.TotalXP)
	}
	return jsonResource(req, summary)
}

func (h *handlers) recentWorkoutsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.st.ListWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	if len(workouts) > 10 {
		workouts = workouts[:10]
	}
	return jsonResource(req, workouts)
}

func (h *handlers) exerciseCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.st.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req, exercises)
}

func jsonResource(req mcp.ReadResourceRequest, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
