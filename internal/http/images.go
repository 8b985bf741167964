package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ImageStager stages a captured photo before the book commit references it.
type ImageStager interface {
	StashTemporary(data []byte) (string, error)
}

type ImagesController struct {
	stager ImageStager
}

func NewImagesController(stager ImageStager) *ImagesController {
	return &ImagesController{stager: stager}
}

// maxUploadBytes caps cover photo uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// StageImage accepts a cover photo and stages it in the temp directory.
// The returned path goes into a later create or update request as a "file"
// image reference; staged photos that are never committed stay in the temp
// directory and are cleaned up by the OS.
// POST /api/images
func (controller *ImagesController) StageImage(c *gin.Context) {
	reader := http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	data, err := io.ReadAll(reader)
	if err != nil {
		respondBadRequest(c, "could not read image data")
		return
	}
	if len(data) == 0 {
		respondBadRequest(c, "image data is empty")
		return
	}

	path, err := controller.stager.StashTemporary(data)
	if err != nil {
		respondInternalError(c, err, "stage image")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"image_kind": "file",
		"image_ref":  path,
	})
}
