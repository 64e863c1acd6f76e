package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestFindByID(t *testing.T) {
	db := dbtest.Open(t)
	item := models.Item{Name: "A", Price: 1000}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := FindByID[models.Item](db, item.ID)
	if err != nil || got.Name != "A" {
		t.Fatalf("unexpected result %+v, %v", got, err)
	}
	if _, err := FindByID[models.Item](db, item.ID+100); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	err := base.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := base.WithTx(tx).DB(nil).Create(&models.Item{Name: "tmp", Price: 1}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var count int64
	db.Model(&models.Item{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
