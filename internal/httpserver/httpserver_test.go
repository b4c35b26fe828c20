package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecom_proj/internal/auth"
	"github.com/Skotchmaster/ecom_proj/internal/db"
	"github.com/Skotchmaster/ecom_proj/internal/events"
	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/metrics"
	"github.com/Skotchmaster/ecom_proj/internal/models"
	"github.com/Skotchmaster/ecom_proj/internal/repo"
	"github.com/Skotchmaster/ecom_proj/internal/service"
)

type testEnv struct {
	e       *echo.Echo
	catalog *CatalogHTTP
	repo    *repo.GormRepo
	auth    *auth.Service
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, protectWrites bool) *testEnv {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	m := metrics.New()
	authSvc := auth.NewService(gdb, []byte("test-secret"))

	catalog := &CatalogHTTP{Svc: service.NewCatalogService(r, nil, events.NopPublisher{}), MaxUploadBytes: 1 << 20}
	e := NewEcho(Options{Logger: logging.NewWithWriter(io.Discard, "error"), Metrics: m, BodyLimit: "2M"})
	Register(e, &Deps{
		Catalog:              catalog,
		Cart:                 &CartHTTP{Svc: service.NewCartService(r, events.NopPublisher{}, m)},
		Auth:                 &AuthHTTP{Svc: authSvc},
		AuthMW:               auth.NewMiddleware(authSvc),
		ProtectCatalogWrites: protectWrites,
		Metrics:              m,
		Ready:                func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})
	return &testEnv{e: e, catalog: catalog, repo: r, auth: authSvc, metrics: m}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (env *testEnv) seedProduct(t *testing.T, name, price string, qty int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      name,
		Brand:     "Acme",
		Category:  "Misc",
		Price:     decimal.RequireFromString(price),
		Available: true,
		Quantity:  qty,
		ImageName: name + ".png",
		ImageType: "image/png",
		ImageData: []byte("\x89PNG image"),
	}
	require.NoError(t, env.repo.CreateProduct(context.Background(), p))
	return p
}

type multipartForm struct {
	product       string
	productAsFile bool
	image         []byte
	imageName     string
	imageType     string
}

func (f multipartForm) build(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if f.productAsFile {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="product"; filename="blob"`)
		h.Set("Content-Type", "application/json")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.product)
		require.NoError(t, err)
	} else if f.product != "" {
		require.NoError(t, w.WriteField("product", f.product))
	}

	if f.image != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imageFile"; filename=%q`, f.imageName))
		if f.imageType != "" {
			h.Set("Content-Type", f.imageType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.image)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (env *testEnv) sendForm(t *testing.T, method, path string, f multipartForm, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := f.build(t)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, ctype)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return env.do(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type apiMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func itoa(id int) string { return strconv.Itoa(id) }
