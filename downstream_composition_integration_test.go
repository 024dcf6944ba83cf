package ownership_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"database/sql"
	"fmt"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	ownership "github.com/goliatone/go-ownership"
	"github.com/goliatone/go-ownership/adapters/gocommand"
	ownershipcommand "github.com/goliatone/go-ownership/command"
	"github.com/goliatone/go-ownership/core"
	"github.com/goliatone/go-ownership/identity"
	ownershipmigrations "github.com/goliatone/go-ownership/migrations"
	ownershipquery "github.com/goliatone/go-ownership/query"
	sqlstore "github.com/goliatone/go-ownership/store/sql"
)

var compositionNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type compositionPersistenceConfig struct {
	dsn string
}

func (c compositionPersistenceConfig) GetDebug() bool {
	return false
}

func (c compositionPersistenceConfig) GetDriver() string {
	return sqlstore.DriverSQLite
}

func (c compositionPersistenceConfig) GetServer() string {
	return c.dsn
}

func (c compositionPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c compositionPersistenceConfig) GetOtelIdentifier() string {
	return "go-ownership-composition"
}

func TestDownstreamComposition_SQLStoreTokenVerifierAndDispatcher(t *testing.T) {
	ctx := context.Background()
	client := newCompositionClient(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	verifier, err := identity.NewTokenVerifier(identity.TokenConfig{
		Issuer:   "ownership-auth",
		Audience: "ownership",
		Key:      pub,
		Now:      func() time.Time { return compositionNow },
	})
	if err != nil {
		t.Fatalf("new token verifier: %v", err)
	}

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	registry, err := ownership.NewRegistry(ownership.DefaultConfig(),
		ownership.WithPersistenceClient(client),
		ownership.WithRepositoryFactory(sqlstore.NewRepositoryFactory(sqlstore.WithCacheService(cacheService))),
		ownership.WithIdentityVerifier(verifier),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	facade, err := ownership.NewFacade(registry)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	adapter := gocommand.NewRegistryAdapter(gocmd.NewRegistry())
	subscriptions, err := facade.Mount(adapter)
	if err != nil {
		t.Fatalf("mount facade: %v", err)
	}
	defer subscriptions.Unsubscribe()
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := gocommand.Dispatch(ctx, ownershipcommand.RegisterAssetMessage{AssetID: "asset1", Owner: "GALICE"}); err != nil {
		t.Fatalf("dispatch register: %v", err)
	}

	// No bearer token on ctx: the transfer is rejected before any lookup.
	if err := registry.Transfer(ctx, "asset1", "GALICE", "GBOB"); err == nil {
		t.Fatalf("expected unauthenticated transfer to fail")
	}

	aliceCtx := identity.WithBearerToken(ctx, "Bearer "+signCompositionToken(t, priv, "GALICE"))
	if err := gocommand.Dispatch(aliceCtx, ownershipcommand.TransferAssetMessage{AssetID: "asset1", From: "GALICE", To: "GBOB"}); err != nil {
		t.Fatalf("dispatch transfer: %v", err)
	}

	owner, err := gocommand.Query[ownershipquery.GetOwnerMessage, core.Principal](ctx, ownershipquery.GetOwnerMessage{AssetID: "asset1"})
	if err != nil {
		t.Fatalf("query owner: %v", err)
	}
	if owner != "GBOB" {
		t.Fatalf("expected GBOB after transfer, got %q", owner)
	}

	// Alice no longer owns the asset, even with a valid token.
	err = registry.Transfer(aliceCtx, "asset1", "GALICE", "GCAROL")
	if !ownership.IsNotAuthorized(err) {
		t.Fatalf("expected not authorized for previous owner, got %v", err)
	}
	mapped := ownership.MapError(err)
	if mapped == nil || mapped.TextCode != core.ErrorNotAuthorized {
		t.Fatalf("expected %q envelope, got %#v", core.ErrorNotAuthorized, mapped)
	}
}

func signCompositionToken(t *testing.T, key ed25519.PrivateKey, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Issuer:    "ownership-auth",
		Audience:  jwt.ClaimStrings{"ownership"},
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(compositionNow.Add(time.Hour)),
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newCompositionClient(t *testing.T) *persistence.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:ownership-composition-%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqlDB, err := sql.Open(sqlstore.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	client, err := persistence.New(compositionPersistenceConfig{dsn: dsn}, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := ownershipmigrations.Apply(context.Background(), client, ownershipmigrations.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}
