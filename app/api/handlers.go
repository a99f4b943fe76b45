package api

import (
	"cmp"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cai-yang/arrs-rss-converter/app/feed"
	"github.com/cai-yang/arrs-rss-converter/app/rules"
)

func NewHandler(engine *rules.Engine, fetcher FeedFetcher, rewriter *feed.Rewriter,
	inspector *feed.Inspector) *Handler {
	return &Handler{
		engine:    engine,
		fetcher:   fetcher,
		rewriter:  rewriter,
		inspector: inspector,
	}
}

// GetFeed serves the rewritten upstream feed. Fetch and rewrite failures
// both surface as 502: the upstream, not this service, is at fault, and no
// partial body is ever written.
func (h *Handler) GetFeed(c *gin.Context) {
	data, contentType, err := h.fetcher.Run(c.Request.Context())
	if err != nil {
		slog.Error("Upstream fetch failed", "error", err)
		c.Status(http.StatusBadGateway)
		return
	}

	converted, err := h.rewriter.Run(data)
	if err != nil {
		slog.Error("Feed rewrite failed", "error", err)
		c.Status(http.StatusBadGateway)
		return
	}

	c.Header("X-Conversion-Rules", strconv.Itoa(h.engine.Len()))
	c.Data(http.StatusOK, cmp.Or(contentType, "application/xml; charset=utf-8"), converted)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"rules":     h.engine.Len(),
	})
}

func (h *Handler) APIListRules(c *gin.Context) {
	ruleList := h.engine.Rules()

	c.JSON(http.StatusOK, map[string]interface{}{
		"rules": ruleList,
		"total": len(ruleList),
	})
}

// APIGetFeedDetails fetches and rewrites the upstream feed, then reports
// its metadata and the converted titles. Intended for rule authors
// checking what their rules produce.
func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	data, _, err := h.fetcher.Run(c.Request.Context())
	if err != nil {
		slog.Error("Upstream fetch failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch upstream feed"})
		return
	}

	converted, err := h.rewriter.Run(data)
	if err != nil {
		slog.Error("Feed rewrite failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to rewrite feed"})
		return
	}

	metadata, err := h.inspector.Run(converted)
	if err != nil {
		slog.Error("Feed inspection failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to parse rewritten feed"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"title":       metadata.Title,
		"link":        metadata.Link,
		"description": metadata.Description,
		"language":    metadata.Language,
		"items":       len(metadata.ItemTitles),
		"titles":      metadata.ItemTitles,
	})
}

type convertRequest struct {
	Title string `json:"title" binding:"required"`
}

// APIConvertTitle runs a single title through the rule engine without
// touching the upstream feed.
func (h *Handler) APIConvertTitle(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'title' field"})
		return
	}

	converted := h.engine.Convert(req.Title)

	c.JSON(http.StatusOK, gin.H{
		"original":  req.Title,
		"converted": converted,
		"changed":   converted != req.Title,
	})
}
