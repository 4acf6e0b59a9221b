package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mrnavastar/modman-agent/util"
	"github.com/tidwall/gjson"
)

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.installer.Status(s.opts.Version, s.opts.DeviceId))
}

func (s *Server) handleInstallArchive(c *gin.Context) {
	body, ok := s.readJSON(c)
	if !ok {
		return
	}

	var req util.ArchiveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.fail(c, util.WrapError(err, util.ErrValidation, "invalid request"))
		return
	}
	req.Mode = util.ParseMode(string(req.Mode))

	// Installs run to completion even if the browser goes away.
	if err := s.installer.InstallArchive(context.WithoutCancel(c.Request.Context()), req); err != nil {
		s.fail(c, err)
		return
	}
	s.succeed(c, req.AutoClose)
}

func (s *Server) handleInstallFiles(c *gin.Context) {
	body, ok := s.readJSON(c)
	if !ok {
		return
	}
	if !gjson.GetBytes(body, "items").IsArray() {
		s.fail(c, util.NewError(util.ErrValidation, "items must be a list"))
		return
	}

	var req util.InstallRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.fail(c, util.WrapError(err, util.ErrValidation, "invalid request"))
		return
	}
	req.Mode = util.ParseMode(string(req.Mode))

	if err := s.installer.Install(context.WithoutCancel(c.Request.Context()), req); err != nil {
		s.fail(c, err)
		return
	}
	s.succeed(c, req.AutoClose)
}

func (s *Server) readJSON(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, util.WrapError(err, util.ErrValidation, "unreadable request body"))
		return nil, false
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		s.fail(c, util.NewError(util.ErrValidation, "request body must be a JSON object"))
		return nil, false
	}
	return body, true
}

func (s *Server) succeed(c *gin.Context, autoClose bool) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
	if autoClose {
		c.Writer.Flush()
		s.scheduleExit()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if util.IsErrorCode(err, util.ErrValidation) {
		status = http.StatusBadRequest
	}
	code := util.GetErrorCode(err)
	details := util.GetErrorDetails(err)
	s.logger.Warn().Err(err).Str("code", string(code)).Fields(details).Msg("Request failed")

	body := gin.H{"ok": false, "error": err.Error(), "code": code}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, body)
}
