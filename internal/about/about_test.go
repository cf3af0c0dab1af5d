package about

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "story", "mission", "facebook_url", "instagram_url", "updated_at"}

func TestRepo_GetEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM about_info").WillReturnError(pgx.ErrNoRows)
	info, err := (&Repo{DB: mock}).Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestRepo_SaveInsertsFirstThenUpdates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &Repo{DB: mock}
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("FROM about_info").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("INSERT INTO about_info").
		WithArgs(pgxmock.AnyArg(), "Since 2019", "Good food", "", "").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("a-1", "Since 2019", "Good food", "", "", now))
	info, err := repo.Save(ctx, Info{Story: " Since 2019 ", Mission: "Good food"})
	require.NoError(t, err)
	assert.Equal(t, "a-1", info.ID)

	mock.ExpectQuery("FROM about_info").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("a-1", "Since 2019", "Good food", "", "", now))
	mock.ExpectQuery("UPDATE about_info").
		WithArgs("a-1", "Since 2019", "Better food", "https://fb.example/getberg", "").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("a-1", "Since 2019", "Better food", "https://fb.example/getberg", "", now))
	info, err = repo.Save(ctx, Info{Story: "Since 2019", Mission: "Better food", FacebookURL: "https://fb.example/getberg"})
	require.NoError(t, err)
	assert.Equal(t, "Better food", info.Mission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_FailuresArePersistenceErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &Repo{DB: mock}
	ctx := context.Background()

	mock.ExpectQuery("FROM about_info").WillReturnError(errors.New("conn reset"))
	_, err = repo.Save(ctx, Info{Story: "x"})
	assert.ErrorIs(t, err, postgres.ErrPersistence)

	mock.ExpectQuery("FROM about_info").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("INSERT INTO about_info").WillReturnError(errors.New("disk full"))
	_, err = repo.Save(ctx, Info{Story: "x"})
	assert.ErrorIs(t, err, postgres.ErrPersistence)
	assert.ErrorContains(t, err, "save about info")
	assert.NoError(t, mock.ExpectationsWereMet())
}
