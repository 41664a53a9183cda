package share

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/internal/service"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
)

func directoryQuery(c *gin.Context) (service.DirectoryQuery, bool) {
	q := service.DirectoryQuery{
		Token: c.Query("token"),
		Code:  c.Query("code"),
	}

	offset, limit, err := validators.Page(c.Query("offset"), c.Query("limit"))
	if err != nil {
		respond.BadRequest(c, err.Error())
		return q, false
	}
	q.Offset, q.Limit = offset, limit

	if dir := c.Query("directoryId"); dir != "" {
		id, err := validators.UintID(dir)
		if err != nil {
			respond.BadRequest(c, err.Error())
			return q, false
		}
		q.DirectoryID = id
	}

	return q, true
}

// DownFolders lists a page of folders inside a shared folder
func DownFolders(c *gin.Context, d *internal.Deps) {
	q, ok := directoryQuery(c)
	if !ok {
		return
	}

	folders, err := d.Shares.ListSharedFolders(c.Request.Context(), q)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// DownFiles lists a page of files inside a shared folder
func DownFiles(c *gin.Context, d *internal.Deps) {
	q, ok := directoryQuery(c)
	if !ok {
		return
	}

	files, err := d.Shares.ListSharedFiles(c.Request.Context(), q)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}
