package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/authority-cli/internal/batch"
	"github.com/sells-group/authority-cli/internal/config"
	"github.com/sells-group/authority-cli/internal/store"
	"github.com/sells-group/authority-cli/internal/viaf"
)

const fixturePath = "../internal/viaf/testdata/search.xml"

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"process", "fetch", "clusters", "serve", "watch"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "authority-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestProcessCommand_Flags(t *testing.T) {
	for _, name := range []string{"format", "out", "save"} {
		assert.NotNil(t, processCmd.Flags().Lookup(name), name)
	}
}

func TestFetchCommand_Flags(t *testing.T) {
	flag := fetchCmd.Flags().Lookup("index")
	require.NotNil(t, flag)
	assert.Equal(t, "mainHeadingEl", flag.DefValue)

	flag = fetchCmd.Flags().Lookup("max")
	require.NotNil(t, flag)
	assert.Equal(t, "10", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestClustersCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range clustersCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["get"])
	assert.True(t, names["runs"])

	flag := clustersRunsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestProcessCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "e2e.db")
	outPath := filepath.Join(dir, "out.json")
	t.Setenv("AUTHORITY_STORE_DATABASE_URL", dbPath)
	t.Setenv("AUTHORITY_LOG_LEVEL", "error")

	rootCmd.SetArgs([]string{"process", fixturePath, "--out", outPath, "--save"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res batch.Result
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Len(t, res.Clusters, 2)
	assert.Len(t, res.Failures, 1)

	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "search.xml", runs[0].Source)
	assert.Equal(t, 197, runs[0].Total)
}

func TestScalePolicy(t *testing.T) {
	p := scalePolicy(config.ScaleConfig{Divisor: 3, Factor: 1})
	assert.Equal(t, viaf.ScalePolicy{Divisor: 3, Factor: 1}, p)
}

func TestBatchOptions(t *testing.T) {
	c := &config.Config{Process: config.ProcessConfig{Concurrency: 2}}
	opts := batchOptions(c)
	assert.Equal(t, 2, opts.Concurrency)
	require.NotNil(t, opts.Extractor)
}

func TestEmit(t *testing.T) {
	res := &batch.Result{Version: 1.1, Total: 3, Clusters: []*viaf.Cluster{}, Failures: []batch.Failure{}, Warnings: []viaf.Warning{}}

	var buf bytes.Buffer
	require.NoError(t, emit(&buf, "", "json", res))
	assert.Contains(t, buf.String(), `"total": 3`)

	buf.Reset()
	require.NoError(t, emit(&buf, "-", "yaml", res))
	assert.Contains(t, buf.String(), "total: 3")

	assert.Error(t, emit(&buf, "", "xlsx", res))
	assert.Error(t, emit(&buf, "", "csv", res))

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, emit(&buf, path, "xlsx", res))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestReadInput(t *testing.T) {
	raw, err := readInput(fixturePath)
	require.NoError(t, err)
	assert.Contains(t, raw, "searchRetrieveResponse")

	_, err = readInput(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, []store.Run{{
		ID:        "0123456789abcdef",
		Source:    "viaf",
		Query:     `local.mainHeadingEl all "a very long search term for kerouac"`,
		Clusters:  2,
		Failures:  1,
		Warnings:  6,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "CLUSTERS")
	assert.Contains(t, lines[2], "01234567")
	assert.NotContains(t, lines[2], "0123456789abcdef")
	assert.Contains(t, lines[2], "...")
	assert.Contains(t, lines[2], "2024-05-01 12:00:00")
}

func TestFormatCluster(t *testing.T) {
	var buf bytes.Buffer
	formatCluster(&buf, &store.StoredCluster{
		ID:       "27066713",
		NameType: "Personal",
		Heading:  "Kerouac, Jack, 1922-1969.",
		Cluster: &viaf.Cluster{
			Sources: []viaf.SourceEntry{{Source: "LC"}, {Source: "DNB"}},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "27066713")
	assert.Contains(t, out, "Kerouac, Jack, 1922-1969.")
	assert.Contains(t, out, "LC, DNB")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "12345678", truncateID("123456789"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 30))

	query := `local.mainHeadingEl all "Kérouac Kérouac Kérouac"`
	got := truncateText(query, 30)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 30, utf8.RuneCountInString(got))
	assert.Equal(t, `local.mainHeadingEl all "Ké...`, got)

	accented := strings.Repeat("é", 40)
	got = truncateText(accented, 30)
	assert.Equal(t, strings.Repeat("é", 27)+"...", got)
}
