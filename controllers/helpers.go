package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// paramUint membaca path param numerik; 0 berarti invalid.
func paramUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
