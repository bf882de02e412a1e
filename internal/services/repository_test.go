package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("FROM service WHERE active = true").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "active"}).
			AddRow(uuid.New(), "Bathroom reform", "bathroom-reform", true).
			AddRow(uuid.New(), "Kitchen reform", "kitchen-reform", true))

	out, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "bathroom-reform", out[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("FROM service WHERE id =").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "active"}))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
