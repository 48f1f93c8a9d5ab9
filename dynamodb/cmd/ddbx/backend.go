package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/awsddb"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/ddbstore"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/ddbui"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/logger"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/query"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// backend is an opened data source.
type backend struct {
	svc      *query.Service
	identity ddbui.IdentityFunc
	closer   io.Closer
}

func (b *backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func loadCatalog(cfg Config) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog)
}

// openBackend connects cat's operations to AWS or to a local BadgerDB store.
func openBackend(ctx context.Context, cfg Config, cat *catalog.Catalog, log logr.Logger) (*backend, error) {
	if cfg.Backend == backendLocal {
		store, err := ddbstore.New(ddbstore.StoreOptions{
			Path:     cfg.DataDir,
			InMemory: cfg.DataDir == "",
			Logger:   logger.NewBadger(log),
		}, ddbstore.Definitions(cat)...)
		if err != nil {
			return nil, err
		}
		b := &backend{svc: query.NewService(store, cat), closer: store}
		if cfg.Seed != "" {
			n, err := seed(ctx, b.svc, cfg.Seed)
			if err != nil {
				store.Close()
				return nil, err
			}
			log.Info("seeded local store", "file", cfg.Seed, "items", n)
		}
		return b, nil
	}

	awsCfg, err := awsddb.Load(ctx, awsddb.Options{Profile: cfg.Profile, Region: cfg.Region})
	if err != nil {
		return nil, err
	}
	return &backend{
		svc:      query.NewService(awsddb.NewClient(awsCfg), cat),
		identity: awsddb.IdentityFunc(awsCfg, cfg.Profile),
	}, nil
}

// seed loads a JSON file shaped {"<environment>": {"<table>": [items...]}}.
func seed(ctx context.Context, svc *query.Service, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var file map[string]map[string][]json.RawMessage
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	n := 0
	for env, tables := range file {
		for table, items := range tables {
			for i, raw := range items {
				item, err := record.DecodeRecord(raw)
				if err != nil {
					return n, fmt.Errorf("seed %s/%s item %d: %w", env, table, i, err)
				}
				if err := svc.Update(ctx, env, table, item); err != nil {
					return n, fmt.Errorf("seed %s/%s item %d: %w", env, table, i, err)
				}
				n++
			}
		}
	}
	return n, nil
}
