package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestViper ignores the process environment
func newTestViper() *viper.Viper {
	return viper.New()
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load(context.Background(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "stockledger", cfg.App.Name)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, int64(5), cfg.Ledger.DefaultThreshold)
	assert.Equal(t, int64(1), cfg.Ledger.DefaultWarehouseID)
	assert.Equal(t, 200, cfg.Ledger.LowStockPageSize)
	assert.Equal(t, 30*time.Second, cfg.Ledger.LowStockCacheTTL)
	assert.Equal(t, time.Hour, cfg.Ledger.AlertCooldown)
	assert.Equal(t, "s3", cfg.FileProcessing.Storage)
	assert.Equal(t, "localhost:6379", cfg.Asynq.RedisAddr)
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, cfg.Asynq.Queues)
	assert.Equal(t, "X-User-ID", cfg.Security.PrincipalHeader)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LEDGER_MAX_RETRIES", "7")
	t.Setenv("LEDGER_RETRY_BACKOFF", "100ms")
	t.Setenv("LEDGER_LOWSTOCK_PAGE_SIZE", "50")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ASYNQ_QUEUES", "ledger:4,broken,low:x")

	cfg, err := Load(context.Background(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Ledger.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Ledger.RetryBackoff)
	assert.Equal(t, 50, cfg.Ledger.LowStockPageSize)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, map[string]int{"ledger": 4}, cfg.Asynq.Queues)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LEDGER_MAX_RETRIES", "many")
	t.Setenv("LEDGER_RETRY_BACKOFF", "soon")

	cfg, err := Load(context.Background(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryBackoff)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "defaults_are_valid",
			mutate: func(*Config) {},
		},
		{
			name:    "page_size_must_be_positive",
			mutate:  func(c *Config) { c.Ledger.LowStockPageSize = 0 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "retries_bounded",
			mutate:  func(c *Config) { c.Ledger.MaxRetries = 50 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "pool_bounds",
			mutate:  func(c *Config) { c.Database.MaxConnections = 2; c.Database.MinConnections = 5 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing_db_host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name:    "secret_name_required_when_enabled",
			mutate:  func(c *Config) { c.AWS.SecretsEnabled = true },
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name:    "bad_cron",
			mutate:  func(c *Config) { c.Ledger.LowStockScanCron = "every minute" },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown_file_storage",
			mutate:  func(c *Config) { c.FileProcessing.Storage = "ftp" },
			wantErr: ErrInvalidConfig,
		},
		{
			name:   "empty_cron_disables_job",
			mutate: func(c *Config) { c.Ledger.ReconcileCron = "" },
		},
		{
			name: "production_rejects_dev_password",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
				c.Security.AllowedOrigins = []string{"https://shop.example"}
			},
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name: "production_rejects_wildcard_origin",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Database.Password = "s3cret"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
				c.Security.AllowedOrigins = []string{"*"}
			},
			wantErr: ErrInsecureConfig,
		},
		{
			name: "production_valid",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Database.Password = "s3cret"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
				c.Security.AllowedOrigins = []string{"https://shop.example"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := build(newTestViper(), "test")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type fakeSecretsAPI struct {
	calls  int
	secret *string
	err    error
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secret}, nil
}

func TestApplySecrets_AWS(t *testing.T) {
	api := &fakeSecretsAPI{secret: aws.String(`{"DB_PASSWORD":"from-aws","REDIS_PASSWORD":"r3dis"}`)}
	sm := newAWSSecretsManager(api, "stockledger/prod", discardLogger())

	cfg := build(newTestViper(), "test")
	require.NoError(t, ApplySecrets(context.Background(), cfg, sm))

	assert.Equal(t, "from-aws", cfg.Database.Password)
	assert.Equal(t, "r3dis", cfg.Redis.Password)
	assert.Equal(t, "r3dis", cfg.Asynq.RedisPassword)
	assert.Empty(t, cfg.AWS.AccessKeyID)

	// second read is served from cache
	_, err := sm.GetSecrets(context.Background(), []string{SecretDBPassword})
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)

	require.NoError(t, sm.RefreshSecrets(context.Background()))
	assert.Equal(t, 2, api.calls)
}

func TestApplySecrets_Failures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeSecretsAPI
	}{
		{name: "api_error", api: &fakeSecretsAPI{err: errors.New("access denied")}},
		{name: "binary_secret", api: &fakeSecretsAPI{}},
		{name: "malformed_json", api: &fakeSecretsAPI{secret: aws.String("not json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newAWSSecretsManager(tt.api, "stockledger/prod", discardLogger())
			cfg := build(newTestViper(), "test")

			err := ApplySecrets(context.Background(), cfg, sm)
			require.Error(t, err)
			assert.Equal(t, "stockledger_dev", cfg.Database.Password)
		})
	}
}

func TestApplySecrets_Env(t *testing.T) {
	t.Setenv(SecretDBPassword, "from-env")

	cfg := build(newTestViper(), "test")
	require.NoError(t, ApplySecrets(context.Background(), cfg, NewEnvSecretsManager()))
	assert.Equal(t, "from-env", cfg.Database.Password)
}
