package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/corekit-go/corekit/internal/fsutil"
)

func parseYAML(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &root))
	return &root
}

func TestLoadFromYAML(t *testing.T) {
	t.Cleanup(ClearAll)
	ClearAll()

	port, err := GetOrCreate("server.port", 0, "")
	require.NoError(t, err)
	host, err := GetOrCreate("server.host", "", "")
	require.NoError(t, err)
	ports, err := GetOrCreate("server.allowed_ports", []int(nil), "")
	require.NoError(t, err)

	LoadFromYAML(parseYAML(t, `
server:
  port: 9090
  host: example.org
  allowed_ports: [80, 443]
unknown_key:
  child: 1
`))

	assert.Equal(t, 9090, port.Value())
	assert.Equal(t, "example.org", host.Value())
	assert.Equal(t, []int{80, 443}, ports.Value())

	t.Run("UnknownKeysAreNotCreated", func(t *testing.T) {
		assert.Nil(t, GetBase("unknown_key"))
		assert.Nil(t, GetBase("unknown_key.child"))
	})

	t.Run("SubtreeBindsWhole", func(t *testing.T) {
		type serverConf struct {
			Port int    `yaml:"port"`
			Host string `yaml:"host"`
		}
		whole, err := GetOrCreate("server", serverConf{}, "")
		require.NoError(t, err)

		LoadFromYAML(parseYAML(t, "server: {port: 7070, host: inner.example}"))
		assert.Equal(t, serverConf{Port: 7070, Host: "inner.example"}, whole.Value())
		// The inner scalar variable is updated from the same document.
		assert.Equal(t, 7070, port.Value())
	})

	t.Run("InvalidKeySubtreeSkipped", func(t *testing.T) {
		before := port.Value()
		LoadFromYAML(parseYAML(t, "Server: {port: 1}"))
		assert.Equal(t, before, port.Value())
	})

	t.Run("BadScalarLeavesValue", func(t *testing.T) {
		before := port.Value()
		LoadFromYAML(parseYAML(t, "server: {port: not_a_number}"))
		assert.Equal(t, before, port.Value())
	})
}

func writeConfFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const workersFixture = `
workers:
  io:
    thread_num: 8
    queue_cap: 64
  compute:
    thread_num: 16
    queue_cap: 128
  timer:
    thread_num: 2
    queue_cap: 32
`

func TestLoadFromConfDirMtimeCache(t *testing.T) {
	t.Cleanup(ClearAll)
	ClearAll()

	root := t.TempDir()
	fsutil.SetProjectRoot(root)
	writeConfFile(t, filepath.Join(root, "test", "config"), "workers.yml", workersFixture)

	threadNum, err := GetOrCreate("workers.io.thread_num", 0, "")
	require.NoError(t, err)

	require.NoError(t, LoadFromConfDir("test/config", false))
	assert.Equal(t, 8, threadNum.Value())

	// Mutate in memory; the unchanged file is skipped on a plain reload.
	threadNum.SetValue(1)
	require.NoError(t, LoadFromConfDir("test/config", false))
	assert.Equal(t, 1, threadNum.Value())

	// A forced reload re-applies the file.
	require.NoError(t, LoadFromConfDir("test/config", true))
	assert.Equal(t, 8, threadNum.Value())
}

func TestLoadFromConfDir(t *testing.T) {
	t.Cleanup(ClearAll)
	ClearAll()

	root := t.TempDir()
	fsutil.SetProjectRoot(root)
	confDir := filepath.Join(root, "conf")

	writeConfFile(t, confDir, "a.yml", "alpha: 1\n")
	writeConfFile(t, filepath.Join(confDir, "nested"), "b.yml", "beta: 2\n")
	writeConfFile(t, confDir, "broken.yml", "{ this is : not yaml\n")
	writeConfFile(t, confDir, "ignored.yaml", "alpha: 99\n")
	writeConfFile(t, confDir, "ignored.YML", "alpha: 98\n")

	alpha, err := GetOrCreate("alpha", 0, "")
	require.NoError(t, err)
	beta, err := GetOrCreate("beta", 0, "")
	require.NoError(t, err)

	t.Run("RecursiveAndExactExtension", func(t *testing.T) {
		require.NoError(t, LoadFromConfDir("conf", false))
		assert.Equal(t, 1, alpha.Value())
		assert.Equal(t, 2, beta.Value())
	})

	t.Run("BrokenFileNotRetriedUntilTouched", func(t *testing.T) {
		// The broken file's mtime was cached before its failed parse.
		cached, err := fsutil.ModTimeUnix(filepath.Join(confDir, "broken.yml"))
		require.NoError(t, err)

		// Fix the content but keep the old mtime: still skipped.
		path := writeConfFile(t, confDir, "broken.yml", "alpha: 5\n")
		require.NoError(t, os.Chtimes(path, time.Unix(0, cached), time.Unix(0, cached)))
		require.NoError(t, LoadFromConfDir("conf", false))
		assert.Equal(t, 1, alpha.Value())

		// Touching the file makes the next plain reload apply it.
		touched := time.Unix(0, cached).Add(time.Second)
		require.NoError(t, os.Chtimes(path, touched, touched))
		require.NoError(t, LoadFromConfDir("conf", false))
		assert.Equal(t, 5, alpha.Value())
	})

	t.Run("MissingDirIsError", func(t *testing.T) {
		assert.Error(t, LoadFromConfDir("no/such/dir", false))
	})
}

func TestLoadFile(t *testing.T) {
	t.Cleanup(ClearAll)
	ClearAll()

	dir := t.TempDir()

	host, err := GetOrCreate("server.host", "", "")
	require.NoError(t, err)
	port, err := GetOrCreate("server.port", 0, "")
	require.NoError(t, err)

	t.Run("YAML", func(t *testing.T) {
		path := writeConfFile(t, dir, "c.yml", "server: {host: yaml-host, port: 7070}\n")
		require.NoError(t, LoadFile(path))
		assert.Equal(t, "yaml-host", host.Value())
		assert.Equal(t, 7070, port.Value())
	})

	t.Run("JSON", func(t *testing.T) {
		path := writeConfFile(t, dir, "c.json", `{"server": {"host": "json-host", "port": 9090}}`)
		require.NoError(t, LoadFile(path))
		assert.Equal(t, "json-host", host.Value())
		assert.Equal(t, 9090, port.Value())
	})

	t.Run("TOML", func(t *testing.T) {
		path := writeConfFile(t, dir, "c.toml", "[server]\nhost = \"toml-host\"\nport = 8081\n")
		require.NoError(t, LoadFile(path))
		assert.Equal(t, "toml-host", host.Value())
		assert.Equal(t, 8081, port.Value())
	})

	t.Run("ContentDetection", func(t *testing.T) {
		path := writeConfFile(t, dir, "c.conf", `{"server": {"host": "sniffed", "port": 1}}`)
		require.NoError(t, LoadFile(path))
		assert.Equal(t, "sniffed", host.Value())
	})

	t.Run("MissingFile", func(t *testing.T) {
		assert.Error(t, LoadFile(filepath.Join(dir, "absent.yml")))
	})
}

// Binding a whole sequence of records to one variable, in the shape a
// logging setup would use.
func TestSequenceOfRecordsBinding(t *testing.T) {
	t.Cleanup(ClearAll)
	ClearAll()

	type appenderConf struct {
		Type  string `yaml:"type"`
		File  string `yaml:"file,omitempty"`
		Level string `yaml:"level,omitempty"`
	}
	type logConf struct {
		Name      string         `yaml:"name"`
		Level     string         `yaml:"level"`
		Formatter string         `yaml:"formatter,omitempty"`
		Appenders []appenderConf `yaml:"appenders"`
	}

	logs, err := GetOrCreate("logs", []logConf(nil), "log sink definitions")
	require.NoError(t, err)

	LoadFromYAML(parseYAML(t, `
logs:
  - name: root
    level: INFO
    formatter: "%d [%p] %m%n"
    appenders:
      - type: StdoutLogAppender
      - type: FileLogAppender
        file: logs/app.log
        level: WARN
  - name: access
    level: DEBUG
    appenders:
      - type: FileLogAppender
        file: logs/access.log
`))

	got := logs.Value()
	require.Len(t, got, 2)
	assert.Equal(t, "root", got[0].Name)
	assert.Equal(t, "INFO", got[0].Level)
	require.Len(t, got[0].Appenders, 2)
	assert.Equal(t, "FileLogAppender", got[0].Appenders[1].Type)
	assert.Equal(t, "logs/app.log", got[0].Appenders[1].File)
	assert.Equal(t, "access", got[1].Name)

	// The sequence is bound whole at its parent key; elements are not
	// addressable as dotted children.
	assert.Nil(t, GetBase("logs.0"))
	assert.Nil(t, GetBase("logs.name"))

	// Round-trip through the variable's own text form.
	text := logs.ToString()
	require.NotEmpty(t, text)
	fresh := logs.Value()
	require.True(t, logs.FromString(text))
	assert.Equal(t, fresh, logs.Value())
}
