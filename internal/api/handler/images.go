package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

const defaultImageType = "image/jpeg"

// ImagesHandler serves stored images so Telegram can fetch them by URL
type ImagesHandler struct {
	store       storage.ObjectStore
	photoBucket string
	facesBucket string
}

func NewImagesHandler(store storage.ObjectStore, photoBucket, facesBucket string) *ImagesHandler {
	return &ImagesHandler{
		store:       store,
		photoBucket: photoBucket,
		facesBucket: facesBucket,
	}
}

func (h *ImagesHandler) Face(c *fiber.Ctx) error {
	return h.serve(c, h.facesBucket)
}

func (h *ImagesHandler) Original(c *fiber.Ctx) error {
	return h.serve(c, h.photoBucket)
}

// serve reads the wildcard key, which may contain escaped slashes
func (h *ImagesHandler) serve(c *fiber.Ctx, bucket string) error {
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil || key == "" {
		return domain.ErrBadRequest
	}

	obj, err := h.store.Get(c.Context(), bucket, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return domain.ErrImageNotFound
		}
		return domain.ErrInternal.WithError(err)
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = defaultImageType
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(obj.Data)
}
