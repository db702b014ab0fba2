package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/search"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/avoskov/retail_pos/internal/transport"
	"github.com/labstack/echo/v4"
)

const maxImageBytes = 4 << 20

type ProductHTTP struct {
	Reg    *registry.ProductRegistry
	Blobs  store.Blobs
	Index  *search.Index
	Events *events.Publisher
}

func (h *ProductHTTP) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Reg.List())
}

func (h *ProductHTTP) Get(c echo.Context) error {
	p, ok := h.Reg.GetByID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) GetByBarcode(c echo.Context) error {
	p, ok := h.Reg.GetByBarcode(c.Param("code"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Reg.Add(ctx, registry.ProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		ImageRef: req.ImageRef,
		Barcode:  req.Barcode,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrDuplicateName):
			l.Warn("product_create_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "product name already taken")
		case errors.Is(err, registry.ErrValidation):
			l.Warn("product_create_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("product_create_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot save product")
		}
	}

	if err := h.Index.IndexProduct(ctx, *p); err != nil {
		l.Warn("product_index_error", "error", err)
	}
	if err := h.Events.Publish(ctx, events.TypeProductCreated, p.ID, p); err != nil {
		l.Warn("product_event_error", "error", err)
	}

	l.Info("product created", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Reg.Update(ctx, c.Param("id"), registry.ProductPatch{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		ImageRef: req.ImageRef,
		Barcode:  req.Barcode,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, registry.ErrDuplicateName):
			l.Warn("product_patch_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "product name already taken")
		case errors.Is(err, registry.ErrValidation):
			l.Warn("product_patch_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("product_patch_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot save product")
		}
	}

	if err := h.Index.IndexProduct(ctx, *p); err != nil {
		l.Warn("product_index_error", "error", err)
	}
	if err := h.Events.Publish(ctx, events.TypeProductUpdated, p.ID, p); err != nil {
		l.Warn("product_event_error", "error", err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")
	id := c.Param("id")

	if err := h.Reg.Delete(ctx, id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	if err := h.Blobs.Delete(ctx, id); err != nil {
		l.Warn("product_blob_delete_error", "error", err)
	}
	if err := h.Index.DeleteProduct(ctx, id); err != nil {
		l.Warn("product_index_error", "error", err)
	}
	if err := h.Events.Publish(ctx, events.TypeProductDeleted, id, map[string]string{"id": id}); err != nil {
		l.Warn("product_event_error", "error", err)
	}

	l.Info("product deleted", "product_id", id)
	return c.JSON(http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *ProductHTTP) PutImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.put_image")
	id := c.Param("id")

	if _, ok := h.Reg.GetByID(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImageBytes+1))
	if err != nil {
		l.Warn("product_image_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}
	if len(data) == 0 || len(data) > maxImageBytes {
		return echo.NewHTTPError(http.StatusBadRequest, "image must be between 1 byte and 4 MiB")
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if err := h.Blobs.Put(ctx, id, store.Blob{Data: data, ContentType: contentType}); err != nil {
		l.Error("product_image_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store image")
	}

	ref := "/api/products/" + id + "/image"
	if _, err := h.Reg.Update(ctx, id, registry.ProductPatch{ImageRef: &ref}); err != nil {
		l.Error("product_image_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save product")
	}

	return c.JSON(http.StatusOK, map[string]string{"image_ref": ref})
}

func (h *ProductHTTP) GetImage(c echo.Context) error {
	blob, ok, err := h.Blobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read image")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	contentType := blob.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, contentType, blob.Data)
}

func (h *ProductHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	if !h.Index.Enabled() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}

	total, products, err := h.Index.Search(ctx, q, from, size)
	if err != nil {
		l.Error("product_search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total": total,
		"items": products,
	})
}
