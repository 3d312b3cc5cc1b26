package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-feed-relay/core"
)

// RepositoryFactory builds the SQL-backed stores over one bun handle.
type RepositoryFactory struct {
	db *bun.DB

	watermarkStore *WatermarkStore
	sessionStore   *SessionStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.watermarkStore != nil && f.sessionStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) WatermarkStore() core.WatermarkStore {
	if f == nil {
		return nil
	}
	return f.watermarkStore
}

func (f *RepositoryFactory) SessionStore() core.SessionStore {
	if f == nil {
		return nil
	}
	return f.sessionStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	watermarkStore, err := NewWatermarkStore(f.db)
	if err != nil {
		return err
	}
	f.watermarkStore = watermarkStore
	sessionStore, err := NewSessionStore(f.db)
	if err != nil {
		return err
	}
	f.sessionStore = sessionStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
