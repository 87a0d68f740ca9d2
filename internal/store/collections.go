package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/syrlavka/shop/internal/models"
)

const (
	keyProducts   = "products"
	keyOrders     = "orders"
	keyUsers      = "users"
	keyCategories = "categories"
)

// Store round-trips the persisted collections as one JSON blob per key and
// upgrades legacy-shaped records on load, before they reach the engine.
type Store struct {
	KV KV
}

func New(kv KV) *Store { return &Store{KV: kv} }

func (s *Store) load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.KV.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("store: get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.KV.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) LoadProducts(ctx context.Context) ([]models.Product, error) {
	var raw []json.RawMessage
	if ok, err := s.load(ctx, keyProducts, &raw); err != nil || !ok {
		return nil, err
	}
	products := make([]models.Product, 0, len(raw))
	for i, r := range raw {
		p, err := migrateProduct(r)
		if err != nil {
			return nil, fmt.Errorf("store: product record %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *Store) SaveProducts(ctx context.Context, products []models.Product) error {
	return s.save(ctx, keyProducts, products)
}

func (s *Store) LoadOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if _, err := s.load(ctx, keyOrders, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Status == "" {
			orders[i].Status = models.OrderStatusNew
		}
	}
	return orders, nil
}

func (s *Store) SaveOrders(ctx context.Context, orders []models.Order) error {
	return s.save(ctx, keyOrders, orders)
}

func (s *Store) LoadUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := s.load(ctx, keyUsers, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].CustomerType == "" {
			users[i].CustomerType = models.CustomerRetail
		}
	}
	return users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []models.User) error {
	return s.save(ctx, keyUsers, users)
}

func (s *Store) LoadCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if _, err := s.load(ctx, keyCategories, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) SaveCategories(ctx context.Context, categories []string) error {
	return s.save(ctx, keyCategories, categories)
}
