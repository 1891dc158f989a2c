package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zentao-report.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
db:
  host: 127.0.0.1
  name: zentao
  user: reporter
  password: secret
roster:
  - name: QA
    accounts: [alice, bob]
  - name: Dev
    accounts: [carol]
short_period_days: 5
reports_path: /tmp/reports
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.DB.Host)
	assert.Equal(t, 3306, cfg.DB.Port, "port defaults")
	assert.Equal(t, "utf8mb4", cfg.DB.Charset, "charset defaults")

	require.Len(t, cfg.Roster, 2)
	assert.Equal(t, "QA", cfg.Roster[0].Name)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Roster[0].Accounts)
	assert.Equal(t, "Dev", cfg.Roster[1].Name)

	assert.Equal(t, 5, cfg.ShortPeriodDays)
	assert.Equal(t, "/tmp/reports", cfg.ReportsPath)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
db:
  host: localhost
  name: zentao
  user: reporter
roster:
  - name: QA
    accounts: [alice]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.ShortPeriodDays)
	assert.Equal(t, "reports", cfg.ReportsPath)
	assert.Equal(t, "ZenTao daily report %s", cfg.Titles.Daily)
	assert.Equal(t, "ZenTao weekly report %s to %s", cfg.Titles.Weekly)
}

func TestLoad_PasswordFromEnv(t *testing.T) {
	t.Setenv("ZENTAO_DB_PASSWORD", "env-secret")
	path := writeConfig(t, `
db:
  host: localhost
  name: zentao
  user: reporter
roster:
  - name: QA
    accounts: [alice]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.DB.Password)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty roster": `
db: {host: localhost, name: zentao, user: reporter}
roster: []
`,
		"unnamed group": `
roster:
  - accounts: [alice]
`,
		"group without accounts": `
roster:
  - name: QA
    accounts: []
`,
		"negative horizon": `
roster:
  - name: QA
    accounts: [alice]
short_period_days: -1
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
