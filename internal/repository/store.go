package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"go.uber.org/zap"
)

// DefaultNamespace is the key the collection lives under.
const DefaultNamespace = "suivi_ordonnances"

// Medium is a string key-value store. Set must replace the value atomically.
type Medium interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

var _ prescription.Store = (*Store)(nil)

type Store struct {
	m   Medium
	key string
	log *zap.Logger
}

func NewStore(m Medium, namespace string, log *zap.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		m:   m,
		key: namespace,
		log: log.With(zap.String("component", "store"), zap.String("key", namespace)),
	}
}

// Load never fails: a missing, unreadable or malformed value yields an empty collection.
func (s *Store) Load(ctx context.Context) prescription.Collection {
	raw, ok, err := s.m.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("load: medium read failed, starting empty",
			zap.Error(fmt.Errorf("%w: %w", prescription.ErrStorageUnavailable, err)))
		return prescription.Collection{}
	}
	if !ok {
		return prescription.Collection{}
	}
	var c prescription.Collection
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.Warn("load: malformed value, starting empty", zap.Error(err))
		return prescription.Collection{}
	}
	if c == nil {
		c = prescription.Collection{}
	}
	return c
}

func (s *Store) Save(ctx context.Context, c prescription.Collection) error {
	if c == nil {
		c = prescription.Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	if err := s.m.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	s.log.Debug("collection saved", zap.Int("records", len(c)))
	return nil
}

func (s *Store) permissionKey() string { return s.key + ".permission" }

func (s *Store) LoadPermission(ctx context.Context) prescription.Permission {
	raw, ok, err := s.m.Get(ctx, s.permissionKey())
	if err != nil {
		s.log.Warn("load permission failed", zap.Error(err))
		return prescription.PermissionUnset
	}
	if !ok {
		return prescription.PermissionUnset
	}
	return prescription.ParsePermission(raw)
}

func (s *Store) SavePermission(ctx context.Context, p prescription.Permission) error {
	if err := s.m.Set(ctx, s.permissionKey(), string(p)); err != nil {
		return fmt.Errorf("save permission: %w", err)
	}
	return nil
}
