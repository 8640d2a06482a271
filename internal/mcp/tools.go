package mcp

import (
	"context"

	"github.com/FloScythe/fitness-rpg/internal/rpg"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("Get the athlete's profile: total XP, current level, XP within the level, and progress toward the next level."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all exercises in the catalog with category, movement type (weighted/reps/timed), and XP multiplier."),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List workouts, most recent first. Returns summaries with total volume, XP earned, and duration."),
)

var toolGetWorkoutDetails = mcp.NewTool("get_workout_details",
	mcp.WithDescription("Get a single workout with its full exercise and set breakdown, including per-set volume, estimated 1RM, and PR flags."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolGetPersonalRecord = mcp.NewTool("get_personal_record",
	mcp.WithDescription("Get the best estimated one-rep max recorded for an exercise."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID from the catalog (e.g. 'bench-press')")),
)

var toolSuggestProgression = mcp.NewTool("suggest_progression",
	mcp.WithDescription("Recommend the next set's weight and reps from the last set and its RPE, using equipment-appropriate increments."),
	mcp.WithNumber("weight_kg", mcp.Required(), mcp.Description("Last working weight in kg")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Last set's rep count")),
	mcp.WithNumber("rpe", mcp.Description("Last set's RPE (1-10)")),
	mcp.WithString("equipment", mcp.Description("Equipment type"), mcp.Enum("barbell", "dumbbell", "machine", "bodyweight")),
)

var toolCheckDeload = mcp.NewTool("check_deload",
	mcp.WithDescription("Check whether recent workout volume suggests a deload week. Looks at the last few completed sessions."),
)

var toolGetSyncStatus = mcp.NewTool("get_sync_status",
	mcp.WithDescription("Report the sync state: pending queue depth, last successful sync, and last error."),
)

// --- Tool handlers ---

func (h *handlers) getProfile(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := h.st.CurrentUser(ctx)
	if err != nil {
		h.log.Error("mcp get_profile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if user == nil {
		return mcp.NewToolResultError("no profile exists yet"), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"user":  user,
		"level": rpg.LevelFromXP(user.TotalXP),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.st.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkouts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.st.ListWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	workout, err := h.st.GetWorkoutDetails(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout_details", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if workout == nil {
		return mcp.NewToolResultError("workout not found"), nil
	}
	result, err := mcp.NewToolResultJSON(workout)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	def, err := h.st.GetExercise(ctx, id)
	if err != nil {
		h.log.Error("mcp get_personal_record", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if def == nil {
		return mcp.NewToolResultError("exercise not found"), nil
	}
	best, err := h.st.BestOneRepMax(ctx, id)
	if err != nil {
		h.log.Error("mcp get_personal_record", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise_id": id,
		"name":        def.Name,
		"best_one_rm": best,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) suggestProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight_kg")
	if err != nil {
		return mcp.NewToolResultError("weight_kg parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	var rpe *float64
	if v := req.GetFloat("rpe", 0); v > 0 {
		rpe = &v
	}
	equipment := rpg.Equipment(req.GetString("equipment", string(rpg.EquipmentBarbell)))

	result, err := mcp.NewToolResultJSON(rpg.SuggestProgression(weight, reps, rpe, equipment))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) checkDeload(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	volumes, err := h.st.RecentVolumes(ctx, 4)
	if err != nil {
		h.log.Error("mcp check_deload", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"deload_recommended": rpg.ShouldDeload(volumes),
		"recent_volumes":     volumes,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSyncStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.syncMgr.Status(ctx)
	if err != nil {
		h.log.Error("mcp get_sync_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(status)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
