// Package web provides API routes for the web server.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/store"
)

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, st *store.Store) {
	api := s.Group("/api")
	{
		api.GET("/status", statusHandler(st))
		api.GET("/health", healthHandler)
		api.GET("/stats", statsHandler(st))
	}
}

// statusHandler returns the bot and store status
func statusHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := discord.Get()

		botOnline := false
		if client != nil {
			botOnline = client.IsReady()
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		storeOnline := st != nil && st.Ping(ctx) == nil

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"store": gin.H{
				"isOnline": storeOnline,
			},
			"bot": gin.H{
				"isOnline": botOnline,
			},
		})
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Warden is running",
	})
}

// statsHandler returns case counts by type
func statsHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Store Offline",
				"message": "The case store is not available right now.",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		counts, err := st.CountCases(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load case counts",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"cases": gin.H{
				"notes":    counts[store.CaseNote],
				"warnings": counts[store.CaseWarning],
				"mutes":    counts[store.CaseMute],
			},
		})
	}
}
