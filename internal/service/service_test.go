package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecom_proj/internal/db"
	"github.com/Skotchmaster/ecom_proj/internal/events"
	"github.com/Skotchmaster/ecom_proj/internal/models"
	"github.com/Skotchmaster/ecom_proj/internal/repo"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic, key string, e events.Event) error {
	args := m.Called(ctx, topic, key, e)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

// eventOfType matches an events.Event argument by its type.
func eventOfType(typ string) any {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == typ })
}

type fakeIndex struct {
	mu        sync.Mutex
	ids       []int
	searchErr error
	indexed   map[int]string
	deleted   []int
	keywords  []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[int]string{}}
}

func (f *fakeIndex) Index(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = p.Name
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, keyword string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
	return f.ids, f.searchErr
}

type countingRejections struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRejections) CartRejected(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[reason]++
}

func (c *countingRejections) get(reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[reason]
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return repo.New(gdb)
}

// quietPublisher accepts any event.
func quietPublisher() *mockPublisher {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

func seedProduct(t *testing.T, r *repo.GormRepo, price string, qty int, available bool) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      "Item " + price,
		Brand:     "Acme",
		Category:  "Misc",
		Price:     decimal.RequireFromString(price),
		Available: available,
		Quantity:  qty,
		ImageName: "item.png",
		ImageType: "image/png",
		ImageData: []byte("png"),
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}
