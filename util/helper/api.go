package helper_util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	dg_errors "github.com/securenet/dyngroups/errors"
)

const MaxPageLimit = 1000

func GetPaginationParams(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > MaxPageLimit {
		return 0, 0, fmt.Errorf("%w: limit must be between 1 and %d", dg_errors.ErrInvalidPagination, MaxPageLimit)
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("%w: offset must be a non-negative integer", dg_errors.ErrInvalidPagination)
	}
	return limit, offset, nil
}
