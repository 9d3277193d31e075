package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB opens a statement-building-only session; nothing ever reaches a
// server, so the generated SQL can be asserted without a database.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open dry-run session: %v", err)
	}
	return db
}

func TestNearestByTraitsOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	repo := &userRepo{db: newDryRunDB(t)}
	embedding := pgvector.NewVector([]float32{50, 50, 50, 50, 50, 50, 50, 50})

	t.Run("orders by the cosine operator", func(t *testing.T) {
		var out []models.User
		tx := repo.nearestByTraitsQuery(ctx, embedding, []string{"u1"}, "islam", 5).Find(&out)
		if tx.Error != nil {
			t.Fatalf("build query: %v", tx.Error)
		}

		sql := tx.Statement.SQL.String()
		if !strings.Contains(sql, "ORDER BY") {
			t.Fatalf("no ORDER BY in generated SQL: %s", sql)
		}
		if !strings.Contains(sql, "trait_embedding <=> ") {
			t.Fatalf("cosine distance operator missing: %s", sql)
		}
		if !strings.Contains(sql, "traits_computed_at IS NOT NULL") {
			t.Fatalf("computed-traits filter missing: %s", sql)
		}
		if !strings.Contains(sql, "LIMIT") {
			t.Fatalf("limit missing: %s", sql)
		}
	})

	t.Run("empty religion drops the religion filter", func(t *testing.T) {
		var out []models.User
		tx := repo.nearestByTraitsQuery(ctx, embedding, nil, "", 5).Find(&out)
		if tx.Error != nil {
			t.Fatalf("build query: %v", tx.Error)
		}

		sql := tx.Statement.SQL.String()
		if strings.Contains(sql, "religion") {
			t.Fatalf("unexpected religion filter: %s", sql)
		}
		if !strings.Contains(sql, "ORDER BY") {
			t.Fatalf("no ORDER BY in generated SQL: %s", sql)
		}
	})
}
