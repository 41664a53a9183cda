package folder

import (
	"net/http"

	"github.com/fork-archive-hub/drive-server/app/respond"
	"github.com/fork-archive-hub/drive-server/internal"
	"github.com/fork-archive-hub/drive-server/pkg/validators"
	"github.com/gin-gonic/gin"
)

func lockParams(c *gin.Context) (string, string, bool) {
	folderID, lockID := c.Param("folderId"), c.Param("lockId")

	if _, err := validators.UintID(folderID); err != nil {
		respond.BadRequest(c, err.Error())
		return "", "", false
	}

	if err := validators.LockIDValidator(lockID); err != nil {
		respond.BadRequest(c, err.Error())
		return "", "", false
	}

	return folderID, lockID, true
}

// AcquireLock takes the lease on a folder for lockId
func AcquireLock(c *gin.Context, d *internal.Deps) {
	folderID, lockID, ok := lockParams(c)
	if !ok {
		return
	}

	if err := d.Locks.Acquire(c.Request.Context(), c.MustGet("userID").(string), folderID, lockID); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// RefreshLock extends a held lease
func RefreshLock(c *gin.Context, d *internal.Deps) {
	folderID, lockID, ok := lockParams(c)
	if !ok {
		return
	}

	if err := d.Locks.Refresh(c.Request.Context(), c.MustGet("userID").(string), folderID, lockID); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func ReleaseLock(c *gin.Context, d *internal.Deps) {
	folderID, lockID, ok := lockParams(c)
	if !ok {
		return
	}

	if err := d.Locks.Release(c.Request.Context(), c.MustGet("userID").(string), folderID, lockID); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusOK)
}
