package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
	lru "github.com/hashicorp/golang-lru"
)

const defaultCatalogCacheSize = 256

// QuestCatalog is a read-through LRU cache over the quests table. Quests are
// treated as immutable while the server runs.
type QuestCatalog struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	byID        *lru.Cache
	byCategory  *lru.Cache
}

func NewQuestCatalog(db *sql.DB, m repomanager.RepositoryManager, size int) (*QuestCatalog, error) {
	if size <= 0 {
		size = defaultCatalogCacheSize
	}
	byID, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("quest cache: %w", err)
	}
	byCategory, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("category cache: %w", err)
	}
	return &QuestCatalog{db: db, repomanager: m, byID: byID, byCategory: byCategory}, nil
}

// Quest returns the quest with id or common.ErrorNotFound.
func (c *QuestCatalog) Quest(ctx context.Context, id int64) (*models.Quest, error) {
	if v, ok := c.byID.Get(id); ok {
		q := v.(models.Quest)
		return &q, nil
	}

	q, err := c.repomanager.Quests(c.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.byID.Add(id, *q)
	return q, nil
}

// Category returns the quests of category. The result is a fresh slice the
// caller may modify.
func (c *QuestCatalog) Category(ctx context.Context, category string) ([]models.Quest, error) {
	if v, ok := c.byCategory.Get(category); ok {
		return slices.Clone(v.([]models.Quest)), nil
	}

	pool, err := c.repomanager.Quests(c.db).ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	c.byCategory.Add(category, pool)
	for _, q := range pool {
		c.byID.Add(q.ID, q)
	}
	return slices.Clone(pool), nil
}
