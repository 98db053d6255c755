package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--quiet"))

	return cmd.ExecuteContext(context.Background())
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// writeExport lays out a two-table export and its mapping file: a main
// table with a choice field and a grouped field, plus a repeat table.
func writeExport(t *testing.T) (dir, mappingPath string) {
	t.Helper()

	dir = t.TempDir()

	writeFile(t, filepath.Join(dir, "data.csv"),
		"_submission__uuid,consent,name\n"+
			"u1,Yes,Ada\n"+
			"u2,No,Grace\n")

	writeFile(t, filepath.Join(dir, "items.csv"),
		"_submission__uuid,item_name,qty\n"+
			"u1,soap,2\n"+
			"u1,rice,1\n")

	mappingPath = writeFile(t, filepath.Join(dir, "mapping.json"), `{
  "fields": {
    "consent": "consent",
    "name": "hh/name",
    "hh": "hh",
    "items": "items",
    "item_name": "items/item_name",
    "qty": "items/qty"
  },
  "choices": {
    "consent": {"Yes": "1", "No": "0"}
  }
}`)

	return dir, mappingPath
}

const wantU1 = `<hh_survey id="hh_survey" version="3 (2026-08-21 00:00:00)">
    <consent>1</consent>
    <hh>
        <name>Ada</name>
    </hh>
    <items>
        <item_name>soap</item_name>
        <qty>2</qty>
    </items>
    <items>
        <item_name>rice</item_name>
        <qty>1</qty>
    </items>
    <__version__>vTEST</__version__>
    <meta>
        <instanceID>uuid:u1</instanceID>
    </meta>
</hh_survey>`

func TestConvertCommand(t *testing.T) {
	dir, mappingPath := writeExport(t)
	outDir := filepath.Join(t.TempDir(), "out")

	err := runCLI(t,
		"convert",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
		"--version-id", "vTEST",
		"--form-version", "3 (2026-08-21 00:00:00)",
		"--use-labels",
		"--output", outDir,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "u1.xml"))
	require.NoError(t, err)
	assert.Equal(t, wantU1, string(data))

	data, err = os.ReadFile(filepath.Join(outDir, "u2.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<consent>0</consent>")
	assert.NotContains(t, string(data), "<items>")
}

func TestConvertCommandSingleRecord(t *testing.T) {
	dir, mappingPath := writeExport(t)
	outDir := filepath.Join(t.TempDir(), "out")

	err := runCLI(t,
		"convert",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
		"--record", "u1",
		"--output", outDir,
	)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "u1.xml"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "u2.xml"))
	assert.True(t, os.IsNotExist(err))
}

func TestConvertCommandMissingFlags(t *testing.T) {
	err := runCLI(t, "convert", "--input", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestConvertCommandReportsFailures(t *testing.T) {
	dir, mappingPath := writeExport(t)

	writeFile(t, filepath.Join(dir, "data.csv"),
		"_submission__uuid,consent,name\n"+
			"u1,maybe,Ada\n"+
			"u2,No,Grace\n")

	err := runCLI(t,
		"convert",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
		"--use-labels",
		"--choice-mode", "reject",
		"--output", filepath.Join(t.TempDir(), "out"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 records failed to convert")
}

type capturedSubmission struct {
	filename string
	body     string
	auth     string
}

// newKoboServer stands in for both endpoints: the data-collection
// submissions route and the management assets route.
func newKoboServer(t *testing.T, assetJSON string, reject map[string]bool) (*httptest.Server, *[]capturedSubmission) {
	t.Helper()

	var mu sync.Mutex
	var subs []capturedSubmission

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/submissions":
			file, header, err := r.FormFile("xml_submission_file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			data, _ := io.ReadAll(file)
			_ = file.Close()

			mu.Lock()
			subs = append(subs, capturedSubmission{
				filename: header.Filename,
				body:     string(data),
				auth:     r.Header.Get("Authorization"),
			})
			mu.Unlock()

			if reject[header.Filename] {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v2/assets/"):
			_, _ = io.WriteString(w, assetJSON)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &subs
}

func TestSubmitCommand(t *testing.T) {
	dir, mappingPath := writeExport(t)
	srv, subs := newKoboServer(t, "", nil)

	err := runCLI(t,
		"submit",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
		"--version-id", "vTEST",
		"--use-labels",
		"--kc-server", srv.URL,
		"--token", "sekret",
	)
	require.NoError(t, err)

	got := *subs
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].filename)
	assert.Equal(t, "u2", got[1].filename)
	assert.Equal(t, "Token sekret", got[0].auth)
	assert.Contains(t, got[0].body, "<instanceID>uuid:u1</instanceID>")
	assert.Contains(t, got[0].body, "<consent>1</consent>")
}

func TestSubmitCommandFetchesMapping(t *testing.T) {
	dir, _ := writeExport(t)

	asset := `{
  "uid": "aHH",
  "version_id": "vFETCHED",
  "content": {
    "survey": [
      {"type": "text", "name": "consent", "$xpath": "consent"},
      {"type": "begin_group", "name": "hh", "$xpath": "hh"},
      {"type": "text", "name": "name", "$xpath": "hh/name"},
      {"type": "end_group"},
      {"type": "begin_repeat", "name": "items", "$xpath": "items"},
      {"type": "text", "name": "item_name", "$xpath": "items/item_name"},
      {"type": "integer", "name": "qty", "$xpath": "items/qty"},
      {"type": "end_repeat"}
    ],
    "choices": []
  }
}`

	srv, subs := newKoboServer(t, asset, nil)

	err := runCLI(t,
		"submit",
		"--input", dir,
		"--form-id", "aHH",
		"--kc-server", srv.URL,
		"--kf-server", srv.URL,
		"--token", "sekret",
	)
	require.NoError(t, err)

	got := *subs
	require.Len(t, got, 2)

	// The fetched version id fills in the unset --version-id flag.
	assert.Contains(t, got[0].body, "<__version__>vFETCHED</__version__>")
	assert.Contains(t, got[0].body, "<item_name>soap</item_name>")
	assert.Contains(t, got[0].body, "<consent>Yes</consent>")
}

func TestSubmitCommandDryRun(t *testing.T) {
	dir, mappingPath := writeExport(t)
	outDir := filepath.Join(t.TempDir(), "out")

	err := runCLI(t,
		"submit",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
		"--dry-run",
		"--output", outDir,
	)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "u1.xml"))
	assert.NoError(t, err)
}

func TestSubmitCommandUploadRejected(t *testing.T) {
	dir, mappingPath := writeExport(t)
	srv, subs := newKoboServer(t, "", map[string]bool{"u2": true})

	err := runCLI(t,
		"submit",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
		"--kc-server", srv.URL,
		"--token", "sekret",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 upload failures")
	assert.Len(t, *subs, 2)
}

func TestSubmitCommandNeedsToken(t *testing.T) {
	dir, mappingPath := writeExport(t)

	err := runCLI(t,
		"submit",
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "hh_survey",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--token is required")
}

func TestMappingCommandLocalContent(t *testing.T) {
	dir := t.TempDir()

	contentPath := writeFile(t, filepath.Join(dir, "content.json"), `{
  "survey": [
    {"type": "text", "name": "notes", "$xpath": "notes"},
    {"type": "select_one yesno", "name": "agree", "$xpath": "agree", "select_from_list_name": "yesno"}
  ],
  "choices": [
    {"list_name": "yesno", "name": "1", "label": ["Yes"]},
    {"list_name": "yesno", "name": "0", "label": ["No"]}
  ]
}`)

	outPath := filepath.Join(dir, "mapping.json")
	require.NoError(t, runCLI(t, "mapping", "--content", contentPath, "--out", outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var parsed struct {
		Fields  map[string]string            `json:"fields"`
		Choices map[string]map[string]string `json:"choices"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, map[string]string{"notes": "notes", "agree": "agree"}, parsed.Fields)
	assert.Equal(t, map[string]string{"Yes": "1", "No": "0"}, parsed.Choices["agree"])

	// Field mappings come first so the file reads top-down like the form.
	assert.Less(t, strings.Index(string(data), `"fields"`), strings.Index(string(data), `"choices"`))
}

func TestMappingCommandRequiresSource(t *testing.T) {
	err := runCLI(t, "mapping", "--out", filepath.Join(t.TempDir(), "m.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --content or --form-id with --token")
}

func TestPrepareCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "data.csv"), "name,age\nada,36\n")

	require.NoError(t, runCLI(t, "prepare", "--input", input))

	data, err := os.ReadFile(filepath.Join(dir, "data_with_uuids.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,age,deprecatedID,_submission__uuid", lines[0])

	cells := strings.Split(lines[1], ",")
	require.Len(t, cells, 4)
	assert.Equal(t, "ada", cells[0])
	assert.Empty(t, cells[2])

	_, err = uuid.Parse(cells[3])
	assert.NoError(t, err)
}

func TestConfigFileSuppliesFlags(t *testing.T) {
	dir, mappingPath := writeExport(t)

	cfgPath := writeFile(t, filepath.Join(dir, "cfg.yaml"),
		"form-id: cfg_form\nversion-id: vCFG\n")

	outDir := filepath.Join(t.TempDir(), "out")

	err := runCLI(t,
		"convert",
		"--config", cfgPath,
		"--input", dir,
		"--mapping", mappingPath,
		"--output", outDir,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "u1.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<cfg_form id="cfg_form"`)
	assert.Contains(t, string(data), "<__version__>vCFG</__version__>")
}

func TestConfigFileFlagPrecedence(t *testing.T) {
	dir, mappingPath := writeExport(t)

	cfgPath := writeFile(t, filepath.Join(dir, "cfg.yaml"),
		"form-id: cfg_form\nversion-id: vCFG\n")

	outDir := filepath.Join(t.TempDir(), "out")

	err := runCLI(t,
		"convert",
		"--config", cfgPath,
		"--input", dir,
		"--mapping", mappingPath,
		"--form-id", "cli_form",
		"--output", outDir,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "u1.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<cli_form id="cli_form"`)
	assert.Contains(t, string(data), "<__version__>vCFG</__version__>")
}
