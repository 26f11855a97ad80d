package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
)

func TestStatsHandler_GetStats(t *testing.T) {
	r := setupHabitRouter(newHabitService(repository.NewInMemorySnapshotRepository()))
	user := "user-stats"

	for _, id := range []string{"meditation", "reading", "no-alcohol", "exercise"} {
		require.Equal(t, http.StatusCreated,
			performRequest(r, http.MethodPost, "/api/v1/habits", user, gin.H{"id": id}).Code)
	}
	performRequest(r, http.MethodPost, "/api/v1/habits/meditation/complete?date=2024-03-08", user, nil)
	performRequest(r, http.MethodPost, "/api/v1/habits/meditation/complete?date=2024-03-09", user, nil)
	performRequest(r, http.MethodPost, "/api/v1/habits/meditation/complete", user, nil)
	performRequest(r, http.MethodPost, "/api/v1/habits/reading/complete", user, nil)

	t.Run("Success: today's dashboard", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/api/v1/stats", user, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats domain.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, domain.DateKey("2024-03-10"), stats.Date)
		assert.Equal(t, 4, stats.TotalHabits)
		assert.Equal(t, 2, stats.CompletedToday)
		assert.Equal(t, 50.0, stats.CompletionRate)
		assert.Equal(t, 3, stats.CurrentStreak)
		assert.Equal(t, 3, stats.BestStreak)

		assert.Equal(t, domain.DateKey("2024-03-04"), stats.WeeklyProgress[0].Date)
		assert.Equal(t, 0, stats.WeeklyProgress[0].CompletedCount)
		assert.Equal(t, domain.DateKey("2024-03-10"), stats.WeeklyProgress[6].Date)
		assert.Equal(t, 2, stats.WeeklyProgress[6].CompletedCount)
		assert.Equal(t, 4, stats.WeeklyProgress[6].TotalCount)
		assert.Equal(t, 25.0, stats.WeeklyProgress[5].Percentage)
	})

	t.Run("Success: explicit date", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/api/v1/stats?date=2024-03-09", user, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats domain.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 1, stats.CompletedToday)
		assert.Equal(t, 2, stats.CurrentStreak)
	})

	t.Run("Success: empty user", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/api/v1/stats", "someone-else", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats domain.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Zero(t, stats.TotalHabits)
		assert.Zero(t, stats.CompletionRate)
		assert.Zero(t, stats.CurrentStreak)
	})

	t.Run("Fail: bad date", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/api/v1/stats?date=March", user, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: no user", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/api/v1/stats", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSyncHandler(t *testing.T) {
	repo := repository.NewInMemorySnapshotRepository()
	r := setupHabitRouter(newHabitService(repo))
	user := "user-sync"

	performRequest(r, http.MethodPost, "/api/v1/habits", user, gin.H{"id": "hydration"})
	performRequest(r, http.MethodPost, "/api/v1/habits/hydration/complete", user, nil)

	t.Run("Export returns the whole document", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/api/v1/snapshot", user, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var snap domain.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Contains(t, snap.Habits, "hydration")
		assert.Equal(t, []string{"hydration"}, snap.HabitCompletion["2024-03-10"])
		assert.True(t, snap.ActivityLog["2024-03-10"])
		assert.Positive(t, snap.Version)
	})

	t.Run("Sync bumps the version", func(t *testing.T) {
		before, err := repo.Load(context.Background(), user)
		require.NoError(t, err)

		w := performRequest(r, http.MethodPost, "/api/v1/sync", user, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Synced  bool `json:"synced"`
			Version int  `json:"version"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Synced)
		assert.Equal(t, before.Version+1, resp.Version)
	})

	t.Run("Import replaces the document", func(t *testing.T) {
		doc := gin.H{
			"habits": gin.H{
				"journaling": gin.H{"id": "journaling", "kind": "build", "streak": 4, "bestStreak": 9, "lastCompletedDate": "2024-03-09"},
			},
			"habitCompletion": gin.H{"2024-03-09": []string{"journaling"}},
			"activityLog":     gin.H{"2024-03-09": true},
		}

		w := performRequest(r, http.MethodPut, "/api/v1/snapshot", user, doc)
		require.Equal(t, http.StatusOK, w.Code)

		var snap domain.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.NotContains(t, snap.Habits, "hydration")
		assert.Equal(t, 4, snap.Habits["journaling"].Streak)

		stored, err := repo.Load(context.Background(), user)
		require.NoError(t, err)
		assert.Contains(t, stored.Habits, "journaling")
	})

	t.Run("Import rejects bad keys", func(t *testing.T) {
		w := performRequest(r, http.MethodPut, "/api/v1/snapshot", user, gin.H{
			"habitCompletion": gin.H{"yesterday": []string{"journaling"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = performRequest(r, http.MethodGet, "/api/v1/snapshot", user, nil)
		assert.Contains(t, w.Body.String(), "journaling")
	})

	t.Run("Reset wipes storage", func(t *testing.T) {
		w := performRequest(r, http.MethodDelete, "/api/v1/data", user, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		_, err := repo.Load(context.Background(), user)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

		w = performRequest(r, http.MethodGet, "/api/v1/habits", user, nil)
		assert.Contains(t, w.Body.String(), `"habits":[]`)
	})

	t.Run("Reset surfaces storage errors", func(t *testing.T) {
		broken := setupHabitRouter(newHabitService(brokenRepo{}))

		w := performRequest(broken, http.MethodDelete, "/api/v1/data", user, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
