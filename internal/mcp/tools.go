package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/stats"
)

// --- Tool definitions ---

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Retrieve completed workout sessions, optionally filtered to a date range. Each session carries its exercises, logged sets and total volume."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Get the aggregate workout statistics: total workouts, average session time in minutes, last week's volume, and personal records per exercise."),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Get the best (weight, reps) tuple ever logged for every exercise name, with the date it was set."),
)

var toolSuggestNextLoad = mcp.NewTool("suggest_next_load",
	mcp.WithDescription("Suggest a starting weight and rep count for an exercise, averaged over its 3 most recent sessions."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (case-insensitive)")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List the effective workout days: defaults merged with custom overrides, deletions applied."),
)

var toolGetCurrentSession = mcp.NewTool("get_current_session",
	mcp.WithDescription("Get the phase and state of the workout session in progress, if any."),
)

// --- Tool handlers ---

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history, err := h.engine.History(ctx)
	if err != nil {
		return mcp.NewToolResultError("history query failed: " + err.Error()), nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if s := req.GetString("start", ""); s != "" {
		if start, err = models.ParseDate(s); err != nil {
			return mcp.NewToolResultError("invalid start date (YYYY-MM-DD)"), nil
		}
	}
	if s := req.GetString("end", ""); s != "" {
		if end, err = models.ParseDate(s); err != nil {
			return mcp.NewToolResultError("invalid end date (YYYY-MM-DD)"), nil
		}
	}

	var filtered []models.WorkoutSession
	for _, sess := range history {
		day, err := models.ParseDate(sess.Date)
		if err != nil {
			continue
		}
		if !day.Before(start) && !day.After(end) {
			filtered = append(filtered, sess)
		}
	}

	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cached, err := h.stats.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError("stats load failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(cached)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history, err := h.engine.History(ctx)
	if err != nil {
		return mcp.NewToolResultError("history query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(stats.PersonalRecords(history))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) suggestNextLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	history, err := h.engine.History(ctx)
	if err != nil {
		return mcp.NewToolResultError("history query failed: " + err.Error()), nil
	}
	suggestion, ok := stats.SuggestNext(history, exercise)
	if !ok {
		return mcp.NewToolResultError("no history for " + exercise), nil
	}
	result, err := mcp.NewToolResultJSON(suggestion)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.catalog.GetAllWorkouts(ctx)
	if err != nil {
		return mcp.NewToolResultError("catalog query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCurrentSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view := map[string]any{"phase": string(h.engine.Phase())}
	if sess, ok := h.engine.Active(); ok {
		view["session"] = sess
	}
	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) weeklyPlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.catalog.GetAllWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(workouts)
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

func (h *handlers) recentHistory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	history, err := h.engine.History(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -14)
	var recent []models.WorkoutSession
	for _, sess := range history {
		day, err := models.ParseDate(sess.Date)
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			recent = append(recent, sess)
		}
	}

	data, err := json.Marshal(recent)
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
