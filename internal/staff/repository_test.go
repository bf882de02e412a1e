package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, name, email, role, active FROM staff").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "active"}).
			AddRow(id, "María García", "maria@arynstal.es", "manager", true))

	m, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "María García", m.Name)

	actor := m.Actor()
	assert.Equal(t, id, actor.ID)
	assert.Equal(t, "María García", actor.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, name, email, role, active FROM staff").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "active"}))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestListActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("FROM staff WHERE active = true").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "active"}).
			AddRow(uuid.New(), "Ana López", "ana@arynstal.es", "staff", true).
			AddRow(uuid.New(), "María García", "maria@arynstal.es", "manager", true))

	members, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
