// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every API reply uses. Code is 0 on success and
// -1 on failure.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Success writes data with HTTP 200.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "success", Data: data})
}

// Fail writes msg with the given HTTP status.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: -1, Msg: msg})
}
