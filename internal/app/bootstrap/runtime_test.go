package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/cgvrzon/arynstal/internal/config"
	"github.com/cgvrzon/arynstal/internal/notify"
	"github.com/cgvrzon/arynstal/internal/upload"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Default(), false)
	assert.Nil(t, client)

	client = BuildRedisClient(context.Background(), nil, logging.Default(), false)
	assert.Nil(t, client)
}

func TestBuildRedisClientWithoutVerify(t *testing.T) {
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: "localhost:6379"}, logging.Default(), false)
	require.NotNil(t, client)
	client.Close()
}

func TestBuildSQLDBNilPool(t *testing.T) {
	assert.Nil(t, BuildSQLDB(nil))
}

func TestBuildPoolRequiresDatabaseURL(t *testing.T) {
	_, err := BuildPool(context.Background(), &appconfig.Config{})
	assert.Error(t, err)
}

func TestBuildEmailSenderFallsBackToStub(t *testing.T) {
	sender := BuildEmailSender(context.Background(), &appconfig.Config{}, logging.Default())
	_, ok := sender.(*notify.StubEmailSender)
	assert.True(t, ok)
}

func TestBuildEmailSenderPrefersSendGrid(t *testing.T) {
	cfg := &appconfig.Config{
		SendGridAPIKey:    "SG.test",
		SendGridFromEmail: "no-reply@arynstal.es",
		SESFromEmail:      "no-reply@arynstal.es",
	}
	sender := BuildEmailSender(context.Background(), cfg, logging.Default())
	_, ok := sender.(*notify.SendGridSender)
	assert.True(t, ok)
}

func TestBuildUploadStoreLocalWithoutBucket(t *testing.T) {
	store, err := BuildUploadStore(context.Background(), &appconfig.Config{MediaDir: t.TempDir()}, logging.Default())
	require.NoError(t, err)
	_, ok := store.(*upload.LocalStore)
	assert.True(t, ok)
}
