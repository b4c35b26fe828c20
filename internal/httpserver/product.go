package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/models"
	"github.com/Skotchmaster/ecom_proj/internal/service"
	"github.com/Skotchmaster/ecom_proj/internal/transport"
)

type CatalogHTTP struct {
	Svc            *service.CatalogService
	MaxUploadBytes int64
}

func parseID(c echo.Context, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_products")

	items, err := h.Svc.ListProducts(ctx)
	if err != nil {
		l.Error("list_products_error", "status", 500, "reason", "cannot load products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}
	if items == nil {
		items = []models.Product{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_product_error", "status", 404, "reason", "product not found", "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		l.Error("get_product_error", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_image")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("get_image_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	product, err := h.Svc.GetImage(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_image_error", "status", 404, "reason", err.Error(), "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		l.Error("get_image_error", "status", 500, "reason", "cannot load image", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load image")
	}

	contentType := product.ImageType
	if contentType == "" {
		contentType = http.DetectContentType(product.ImageData)
	}
	return c.Blob(http.StatusOK, contentType, product.ImageData)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	items, err := h.Svc.SearchProducts(ctx, c.QueryParam("keyword"))
	if err != nil {
		l.Error("search_products_error", "status", 500, "reason", "search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	if items == nil {
		items = []models.Product{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	req, img, err := h.readProductRequest(c)
	if err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.Svc.CreateProduct(ctx, req, img)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_product_error", "status", 400, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("create_product_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add product to db")
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("update_product_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	req, img, err := h.readProductRequest(c)
	if err != nil {
		l.Warn("update_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.Svc.UpdateProduct(ctx, id, req, img)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_product_error", "status", 404, "reason", "product not found", "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_product_error", "status", 400, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("update_product_error", "status", 500, "reason", "cannot update product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
		}
	}

	l.Info("update_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := parseID(c, "id")
	if err != nil {
		l.Warn("delete_product_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_product_error", "status", 404, "reason", "product not found", "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		l.Error("delete_product_error", "status", 500, "reason", "cannot delete product from db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product from db")
	}

	l.Info("delete_product_success", "product_id", id)
	return ok(c, "Product deleted successfully")
}

// readProductRequest accepts multipart/form-data with a JSON "product" part
// and an optional "imageFile" part, or a bare JSON body without an image.
func (h *CatalogHTTP) readProductRequest(c echo.Context) (transport.ProductRequest, *transport.ImageUpload, error) {
	var req transport.ProductRequest

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return req, nil, fmt.Errorf("invalid product json: %w", err)
		}
		return req, nil, nil
	}
	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return req, nil, errors.New("expected multipart/form-data with a product part")
	}

	raw, err := h.productPart(c)
	if err != nil {
		return req, nil, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, nil, fmt.Errorf("invalid product json: %w", err)
	}

	fh, err := c.FormFile("imageFile")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, fmt.Errorf("invalid imageFile part: %w", err)
	}

	data, err := h.readPart(fh)
	if err != nil {
		return req, nil, fmt.Errorf("invalid imageFile part: %w", err)
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	return req, &transport.ImageUpload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

// productPart reads the "product" part whether it came as a plain form field
// or as a file part (browsers send a JSON Blob as a file).
func (h *CatalogHTTP) productPart(c echo.Context) ([]byte, error) {
	if v := c.FormValue("product"); v != "" {
		return []byte(v), nil
	}
	fh, err := c.FormFile("product")
	if err != nil {
		return nil, errors.New("product part is required")
	}
	return h.readPart(fh)
}

func (h *CatalogHTTP) readPart(fh *multipart.FileHeader) ([]byte, error) {
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", fh.Filename, h.MaxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
