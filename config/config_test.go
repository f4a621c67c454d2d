package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ODBCAndBatch(t *testing.T) {
	path := writeConfig(t, `
[odbc]
connect_template = "DRIVER=${driver};SERVER=${server};DATABASE=${database};UID=${uid};PWD=${pwd};"
driver = "ODBC Driver 17 for SQL Server"
server = "warehouse.internal"
database = "dns_telemetry"
uid = "svc_lindef"
pwd = "hunter2"

[batch]
dgas = ["bedep", "confickerab", "elephant"]
days = ["2015-08-03"]
hours = ["00:00:00", "01:00:00"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"bedep", "confickerab", "elephant"}, cfg.Batch.Dgas)
	assert.Equal(t, []string{"2015-08-03"}, cfg.Batch.Days)
	assert.Len(t, cfg.Batch.Hours, 2)

	conn, err := cfg.ODBC.ConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "DRIVER=ODBC Driver 17 for SQL Server;SERVER=warehouse.internal;DATABASE=dns_telemetry;UID=svc_lindef;PWD=hunter2;", conn)
}

func TestODBCConnectionString_MissingField(t *testing.T) {
	odbc := ODBCConfig{
		ConnectTemplate: "DRIVER=${driver};SERVER=${server};",
		Fields:          map[string]string{"driver": "x"},
	}
	_, err := odbc.ConnectionString()
	require.Error(t, err)
}
