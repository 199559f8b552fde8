package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/devserver"
	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/schema"
	"github.com/survaize/survaize-client/internal/transport"
)

const surveyJSON = `{
  "title": "Household Survey",
  "description": null,
  "id_fields": ["HH"],
  "sections": [{
    "id": "A", "number": "A", "title": "Cover", "description": null, "universe": null, "occurrences": 1,
    "questions": [
      {"number": "1", "id": "HH", "text": "Household number", "instructions": null, "universe": null,
       "type": "numeric", "min_value": 18, "max_value": 65, "decimal_places": null}
    ]
  }]
}`

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	ui.Init(true, false)
	ui.SetOutput(&out, &errOut)
	t.Cleanup(func() { ui.SetOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

func devServerURL(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(devserver.New(devserver.Options{}).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func devClient(t *testing.T) *transport.Client {
	t.Helper()
	opts := transport.DefaultOptions(devServerURL(t))
	opts.StartupDelay = 0
	opts.StreamTimeout = 2 * time.Second
	client, err := transport.NewClient(opts)
	require.NoError(t, err)
	return client
}

func TestStudio_OpenEditSave(t *testing.T) {
	out, errOut := captureOutput(t)
	client := devClient(t)

	dir := t.TempDir()
	source := filepath.Join(dir, "survey.json")
	require.NoError(t, os.WriteFile(source, []byte(surveyJSON), 0o644))
	outDir := filepath.Join(dir, "out")

	st := newStudio(client, client, schema.MustProvider(), "")
	st.runEditor = func(ctx context.Context, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		edited := strings.Replace(string(data), `"Household Survey"`, `"Edited Survey"`, 1)
		return os.WriteFile(path, []byte(edited), 0o644)
	}

	script := strings.Join([]string{
		"open " + source,
		"show",
		"edit",
		"save json " + outDir,
		"quit",
	}, "\n")
	require.NoError(t, st.loop(context.Background(), strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, `Loaded "Household Survey" (1 questions)`)
	assert.Contains(t, text, "Range: 18-65")
	assert.Contains(t, text, "Questionnaire updated")
	assert.NotContains(t, errOut.String(), "✗")

	assert.Equal(t, "Edited Survey", st.session.Document().Title)
	data, err := os.ReadFile(filepath.Join(outDir, "Edited_Survey.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Edited Survey"`)
}

func TestStudio_InvalidEditKeepsDocument(t *testing.T) {
	_, errOut := captureOutput(t)
	client := devClient(t)

	dir := t.TempDir()
	source := filepath.Join(dir, "survey.json")
	require.NoError(t, os.WriteFile(source, []byte(surveyJSON), 0o644))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"title": `), 0o644))

	st := newStudio(client, client, schema.MustProvider(), "")
	require.NoError(t, st.loop(context.Background(), strings.NewReader("open "+source+"\nload "+broken+"\nquit\n")))

	assert.Equal(t, "Household Survey", st.session.Document().Title)
	assert.Contains(t, errOut.String(), "Invalid JSON: ")
	assert.Error(t, st.editor.ParseError())
}

func TestStudio_OpenFailureIsReported(t *testing.T) {
	_, errOut := captureOutput(t)
	client := devClient(t)

	st := newStudio(client, client, nil, "")
	require.NoError(t, st.loop(context.Background(), strings.NewReader("open notes.docx\nbogus\n")))

	assert.Contains(t, errOut.String(), "Failed to load questionnaire: Unsupported file format")
	assert.Contains(t, errOut.String(), `unknown command "bogus"`)
	assert.Nil(t, st.session.Document())
}

func TestStudio_SaveWithoutDocument(t *testing.T) {
	_, errOut := captureOutput(t)
	client := devClient(t)

	st := newStudio(client, client, nil, "")
	require.NoError(t, st.loop(context.Background(), strings.NewReader("save json "+t.TempDir()+"\n")))
	assert.Contains(t, errOut.String(), "No questionnaire to save. Please open a questionnaire first.")
}

func TestRootCommand_Version(t *testing.T) {
	out, _ := captureOutput(t)
	t.Chdir(t.TempDir())

	Version = "1.2.3"
	rootCmd.SetArgs([]string{"version", "--no-color"})
	require.NoError(t, Execute())
	assert.Equal(t, "survaize version 1.2.3\n", out.String())
}

func TestRootCommand_RejectsBadBaseURL(t *testing.T) {
	captureOutput(t)
	t.Chdir(t.TempDir())

	rootCmd.SetArgs([]string{"version", "--base-url", "ftp://example.com"})
	defer func() { baseURL = "" }()
	assert.Error(t, Execute())
}

func TestValidateCommand(t *testing.T) {
	out, _ := captureOutput(t)
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile("good.json", []byte(surveyJSON), 0o644))
	require.NoError(t, os.WriteFile("bad.json", []byte(`{"title":`), 0o644))

	rootCmd.SetArgs([]string{"validate", "good.json"})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "good.json is a valid questionnaire")

	rootCmd.SetArgs([]string{"validate", "bad.json"})
	err := Execute()
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeMalformedEdit))
}

func TestBatchOutput(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "household form.json"), batchOutput("out", "/scans/household form.pdf"))
	assert.Equal(t, filepath.Join("out", "a.json"), batchOutput("out", "a.json"))
}

func TestWriteQuestionnaire(t *testing.T) {
	out := filepath.Join(t.TempDir(), "household.json")
	require.NoError(t, writeQuestionnaire(&domain.Questionnaire{Title: "x"}, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"title\": \"x\""))
}

func TestBatchCommand_FailureDoesNotStopOthers(t *testing.T) {
	_, errOut := captureOutput(t)
	t.Chdir(t.TempDir())
	url := devServerURL(t)

	require.NoError(t, os.WriteFile("good.json", []byte(surveyJSON), 0o644))
	require.NoError(t, os.WriteFile("broken.json", []byte(`{"title": `), 0o644))

	rootCmd.SetArgs([]string{"batch", "good.json", "broken.json", "-o", "out", "-j", "2", "--base-url", url})
	defer func() { baseURL = "" }()
	err := Execute()
	require.Error(t, err)
	assert.Equal(t, "1 of 2 file(s) failed", err.Error())

	data, readErr := os.ReadFile(filepath.Join("out", "good.json"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"title": "Household Survey"`)
	_, statErr := os.Stat(filepath.Join("out", "broken.json"))
	assert.True(t, os.IsNotExist(statErr))

	assert.Contains(t, errOut.String(), "broken.json: Failed to load questionnaire")
	assert.NotContains(t, errOut.String(), "good.json:")
	assert.NotContains(t, errOut.String(), "context canceled")
}

func TestBatchCommand_OutputCollision(t *testing.T) {
	_, errOut := captureOutput(t)
	t.Chdir(t.TempDir())
	url := devServerURL(t)

	require.NoError(t, os.Mkdir("a", 0o755))
	require.NoError(t, os.Mkdir("b", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("a", "survey.json"), []byte(surveyJSON), 0o644))
	second := strings.Replace(surveyJSON, "Household Survey", "Second Survey", 1)
	require.NoError(t, os.WriteFile(filepath.Join("b", "survey.json"), []byte(second), 0o644))

	rootCmd.SetArgs([]string{"batch", filepath.Join("a", "survey.json"), filepath.Join("b", "survey.json"), "-o", "out", "--base-url", url})
	defer func() { baseURL = "" }()
	err := Execute()
	require.Error(t, err)
	assert.Equal(t, "1 of 2 file(s) failed", err.Error())

	data, readErr := os.ReadFile(filepath.Join("out", "survey.json"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Household Survey")
	assert.Contains(t, errOut.String(), "is already written for "+filepath.Join("a", "survey.json"))
}

func TestActionError(t *testing.T) {
	cause := domain.RemoteExtractionError("X", nil)
	err := &actionError{msg: "Failed to load questionnaire: X", err: cause}

	assert.Equal(t, "Failed to load questionnaire: X", err.Error())
	var de *domain.DomainError
	assert.True(t, errors.As(err, &de))

	assert.Equal(t, cause.Error(), (&actionError{err: cause}).Error())
}
