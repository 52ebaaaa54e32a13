package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/gartstein/vestledger/internal/vesting/events"
	"github.com/gartstein/vestledger/internal/vesting/ledger"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func parseConfigFlags(t *testing.T, args ...string) ConfigFlags {
	t.Helper()
	var cli struct {
		ConfigFlags `embed:""`
	}
	parser, err := kong.New(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cli.ConfigFlags
}

func TestConfigFlags_Load(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "DB_DRIVER: sqlite\nJWT_SECRET: from-yaml\nMAX_EMPLOYEES_PER_ORG: 50\n")
	envPath := writeFile(t, dir, ".env", "TOPIC=from-dotenv\nJWT_SECRET=from-dotenv\nMIN_VESTING_DURATION=60\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MAX_EMPLOYEES_PER_ORG", "7")
	t.Cleanup(func() {
		os.Unsetenv("TOPIC")
		os.Unsetenv("MIN_VESTING_DURATION")
	})

	require.NoError(t, LoadDotenv(envPath))
	cfg, err := parseConfigFlags(t, "--config", cfgPath, "--profile-cache-size=9").load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "from-dotenv", cfg.Topic)
	assert.Equal(t, uint64(7), cfg.MaxEmployeesPerOrg)
	assert.Equal(t, int64(60), cfg.MinVestingDuration)
	assert.Equal(t, 9, cfg.ProfileCacheSize)
	assert.Equal(t, 50051, cfg.GRPCPort)
}

func TestLoadDotenv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestConfigFlags_LoadInvalid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "DB_DRIVER: oracle\nJWT_SECRET: s\n")

	_, err := ConfigFlags{Config: cfgPath}.load()
	assert.ErrorContains(t, err, "invalid config")
}

func TestMintCmd(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.db")
	cfgPath := writeFile(t, dir, "config.yaml", "DB_DRIVER: sqlite\nJWT_SECRET: s\nLEDGER_PATH: "+ledgerPath+"\n")

	cmd := &MintCmd{
		ConfigFlags: ConfigFlags{Config: cfgPath},
		Token:       "TKN",
		Owner:       "alice",
		Amount:      500,
	}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))

	l, err := ledger.Open(ledgerPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer l.Close()
	balance, err := l.Balance(context.Background(), "TKN", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)
}

func TestAuditHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := auditHandler(zap.New(core))

	err := handler(context.Background(), events.Event{
		Type:     events.TokensClaimed,
		Key:      "org-1",
		Actor:    "alice",
		Schedule: &models.VestingSchedule{ScheduleID: 7, TokenType: "TKN"},
		Amount:   250,
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("Ledger event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "tokens_claimed", fields["type"])
	assert.Equal(t, uint64(7), fields["schedule_id"])
	assert.Equal(t, uint64(250), fields["amount"])
}
