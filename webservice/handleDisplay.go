package webservice

import (
	"bytes"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gifscreen/transcoder"
)

const downloadName = "anim.bin"

// POST /upload
func (wm *WebMaster) handleUpload(c *gin.Context) {
	url := strings.TrimSpace(c.PostForm("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	res, err := wm.store.CompileCurrent(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"kind":  transcoder.Kind(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"frames":   res.Frames,
		"delay_ms": res.DelayMs,
		"version":  res.Version,
	})
}

// GET /set_mode/:mode
// Unknown modes are ignored and still answered with 200.
func (wm *WebMaster) handleSetMode(c *gin.Context) {
	mode, err := transcoder.ParseFitMode(c.Param("mode"))
	if err != nil {
		slog.Debug("ignoring set_mode", "mode", c.Param("mode"), "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "mode": wm.store.Mode().String()})
		return
	}

	res, err := wm.store.SetMode(c.Request.Context(), mode)
	resp := gin.H{"status": "ok", "mode": mode.String(), "version": wm.store.Version()}
	if err != nil {
		resp["error"] = err.Error()
		resp["kind"] = transcoder.Kind(err)
	} else if res.Version != 0 {
		resp["frames"] = res.Frames
	}
	c.JSON(http.StatusOK, resp)
}

// GET /status
func (wm *WebMaster) handleStatus(c *gin.Context) {
	snap := wm.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"version": snap.Version,
		"mode":    snap.Mode.String(),
	})
}

// GET /download
func (wm *WebMaster) handleDownload(c *gin.Context) {
	snap := wm.store.Snapshot()
	if snap.Empty() {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	c.Header("X-Animation-Version", strconv.FormatUint(snap.Version, 10))
	c.Header("Vary", "Accept-Encoding")
	if acceptsZstd(c.GetHeader("Accept-Encoding")) {
		c.Header("Content-Encoding", "zstd")
		c.Data(http.StatusOK, "application/octet-stream", wm.zstd.EncodeAll(snap.Binary, nil))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", snap.Binary)
}

// GET /preview?frame=N
func (wm *WebMaster) handlePreview(c *gin.Context) {
	snap := wm.store.Snapshot()
	if snap.Empty() {
		c.Status(http.StatusNotFound)
		return
	}
	_, frames, err := transcoder.ParseBlob(snap.Binary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	idx, err := strconv.Atoi(c.DefaultQuery("frame", "0"))
	if err != nil || idx < 0 || idx >= len(frames) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame out of range", "frames": len(frames)})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, transcoder.Unpack(frames[idx])); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func acceptsZstd(header string) bool {
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), "zstd") {
			continue
		}
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				return false
			}
		}
		return true
	}
	return false
}
