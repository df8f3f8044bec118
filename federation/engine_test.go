package federation

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowcms/burrow/errors"
	"github.com/burrowcms/burrow/tenant"
)

// staticResolver serves fixed descriptors without a live registry.
type staticResolver map[string]*tenant.Descriptor

func (r staticResolver) Resolve(id string) (*tenant.Descriptor, error) {
	desc, ok := r[id]
	if !ok {
		return nil, errors.NewTenantNotFound(id)
	}
	return desc, nil
}

// staticSource hands every caller the same handle.
type staticSource struct{ db *sql.DB }

func (s staticSource) Get(ctx context.Context, id string) (*sql.DB, error) {
	return s.db, nil
}

func embedded(id, locator string) *tenant.Descriptor {
	return &tenant.Descriptor{ID: id, Locator: locator, Kind: tenant.KindEmbedded}
}

func newMockEngine(t *testing.T, resolver staticResolver) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	engine := NewEngine(resolver, staticSource{db: mockDB}, nil, nil)
	return engine, mock
}

func TestFederate_AttachQueryDetachOrder(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
		"beta":  embedded("beta", "/stores/tenant-beta.db"),
		"gamma": embedded("gamma", "/stores/tenant-gamma.db"),
	}
	engine, mock := newMockEngine(t, resolver)

	// Attach in request order, detach in reverse, query in between.
	mock.ExpectExec("ATTACH DATABASE ? AS fed_1").
		WithArgs("/stores/tenant-beta.db").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ATTACH DATABASE ? AS fed_2").
		WithArgs("/stores/tenant-gamma.db").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT slug FROM main.posts UNION ALL SELECT slug FROM fed_1.posts UNION ALL SELECT slug FROM fed_2.posts").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("a").AddRow("b"))
	mock.ExpectExec("DETACH DATABASE fed_2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DETACH DATABASE fed_1").WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := engine.Federate(context.Background(), Request{
		Primary:     "alpha",
		Secondaries: []string{"beta", "gamma"},
		Template:    "SELECT slug FROM {{primary}}.posts UNION ALL SELECT slug FROM {{s1}}.posts UNION ALL SELECT slug FROM {{s2}}.posts",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"slug"}, result.Columns)
	assert.Len(t, result.Rows, 2)
	assert.Empty(t, result.Warnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFederate_AttachFailureRollsBack(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
		"beta":  embedded("beta", "/stores/tenant-beta.db"),
		"gamma": embedded("gamma", "/stores/tenant-gamma.db"),
	}
	engine, mock := newMockEngine(t, resolver)

	mock.ExpectExec("ATTACH DATABASE ? AS fed_1").
		WithArgs("/stores/tenant-beta.db").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ATTACH DATABASE ? AS fed_2").
		WithArgs("/stores/tenant-gamma.db").
		WillReturnError(errors.New("unable to open database"))
	// Rollback: only the alias that actually attached is detached.
	mock.ExpectExec("DETACH DATABASE fed_1").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := engine.Federate(context.Background(), Request{
		Primary:     "alpha",
		Secondaries: []string{"beta", "gamma"},
		Template:    "SELECT 1",
	})
	require.Error(t, err)

	var attachErr *AttachError
	require.True(t, errors.As(err, &attachErr))
	assert.Equal(t, "gamma", attachErr.Tenant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFederate_UnknownSecondary(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
	}
	engine, mock := newMockEngine(t, resolver)

	_, err := engine.Federate(context.Background(), Request{
		Primary:     "alpha",
		Secondaries: []string{"ghost"},
		Template:    "SELECT 1",
	})
	require.Error(t, err)

	var attachErr *AttachError
	require.True(t, errors.As(err, &attachErr))
	assert.Equal(t, "ghost", attachErr.Tenant)
	assert.True(t, errors.IsTenantNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL should have run")
}

func TestFederate_QueryFailureStillDetaches(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
		"beta":  embedded("beta", "/stores/tenant-beta.db"),
	}
	engine, mock := newMockEngine(t, resolver)

	mock.ExpectExec("ATTACH DATABASE ? AS fed_1").
		WithArgs("/stores/tenant-beta.db").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT nope FROM main.posts, fed_1.posts").
		WillReturnError(errors.New("no such column: nope"))
	mock.ExpectExec("DETACH DATABASE fed_1").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := engine.Federate(context.Background(), Request{
		Primary:     "alpha",
		Secondaries: []string{"beta"},
		Template:    "SELECT nope FROM {{primary}}.posts, {{s1}}.posts",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such column")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFederate_DetachFailureIsDegradedSuccess(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
		"beta":  embedded("beta", "/stores/tenant-beta.db"),
	}
	engine, mock := newMockEngine(t, resolver)

	mock.ExpectExec("ATTACH DATABASE ? AS fed_1").
		WithArgs("/stores/tenant-beta.db").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT(*) FROM fed_1.posts").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectExec("DETACH DATABASE fed_1").
		WillReturnError(errors.New("database fed_1 is locked"))

	result, err := engine.Federate(context.Background(), Request{
		Primary:     "alpha",
		Secondaries: []string{"beta"},
		Template:    "SELECT COUNT(*) FROM {{s1}}.posts",
	})
	require.NoError(t, err, "a failed detach after a successful query is a warning, not an error")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "fed_1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFederate_NetworkedTenantsRejected(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
		"remote": {
			ID:      "remote",
			Locator: "burrow@tcp(db.internal:3306)/tenant_remote",
			Kind:    tenant.KindNetworked,
		},
	}

	t.Run("networked secondary", func(t *testing.T) {
		engine, mock := newMockEngine(t, resolver)
		_, err := engine.Federate(context.Background(), Request{
			Primary:     "alpha",
			Secondaries: []string{"remote"},
			Template:    "SELECT 1",
		})
		var attachErr *AttachError
		require.True(t, errors.As(err, &attachErr))
		assert.Equal(t, "remote", attachErr.Tenant)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("networked primary with secondaries", func(t *testing.T) {
		engine, mock := newMockEngine(t, resolver)
		_, err := engine.Federate(context.Background(), Request{
			Primary:     "remote",
			Secondaries: []string{"alpha"},
			Template:    "SELECT 1",
		})
		var attachErr *AttachError
		require.True(t, errors.As(err, &attachErr))
		assert.Equal(t, "remote", attachErr.Tenant)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFederate_RequestValidation(t *testing.T) {
	resolver := staticResolver{
		"alpha": embedded("alpha", "/stores/tenant-alpha.db"),
		"beta":  embedded("beta", "/stores/tenant-beta.db"),
	}
	engine, _ := newMockEngine(t, resolver)
	ctx := context.Background()

	t.Run("duplicate secondaries rejected", func(t *testing.T) {
		_, err := engine.Federate(ctx, Request{
			Primary:     "alpha",
			Secondaries: []string{"beta", "beta"},
			Template:    "SELECT 1",
		})
		assert.Error(t, err)
	})

	t.Run("primary as secondary rejected", func(t *testing.T) {
		_, err := engine.Federate(ctx, Request{
			Primary:     "alpha",
			Secondaries: []string{"alpha"},
			Template:    "SELECT 1",
		})
		assert.Error(t, err)
	})

	t.Run("unknown primary rejected", func(t *testing.T) {
		_, err := engine.Federate(ctx, Request{Primary: "ghost", Template: "SELECT 1"})
		assert.True(t, errors.IsTenantNotFound(err))
	})
}
