package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/embeddings"
	"github.com/topic-modeler/internal/queue"
	"github.com/topic-modeler/internal/session"
	"github.com/topic-modeler/internal/table"
	"github.com/topic-modeler/internal/topicmodel"
)

const surveyReport = `Engagement survey
Comments: (4)
1. Pay and salary are low
2. Salary and pay bonus
Restricted Information - Not for Further Distribution
3. Manager support is great
4. Manager support for the team
`

type testEnv struct {
	dir     string
	srv     *httptest.Server
	session *session.Session
	stores  *database.Stores
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	stores, err := database.OpenStores(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	sess, err := session.New(session.Options{
		Factory: topicmodel.NewFactory(embeddings.NewMockEmbedder(128)),
		Queue:   queue.NewMemoryQueue(4),
		Runs:    stores.Runs,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx, 1)
	}()

	srv, err := New(Options{DataDir: dir, Session: sess, Stores: stores})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return &testEnv{dir: dir, srv: ts, session: sess, stores: stores}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, name), []byte(content), 0644))
}

func (e *testEnv) trainAndWait(t *testing.T, nrTopics int) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/train", map[string]any{"source": "raw_comments.csv", "nr_topics": nrTopics})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	require.Eventually(t, func() bool {
		return e.session.Phase() != session.Training
	}, 10*time.Second, 10*time.Millisecond)
	require.Equal(t, session.Ready, e.session.Phase(), e.session.Status().Error)
}

func TestServer_ReadyOnlyEndpointsConflictBeforeTraining(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/topics/details", "/api/topics/hierarchy", "/api/topics/barchart"} {
		resp, _ := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, path)
	}

	resp, _ := env.do(t, http.MethodPost, "/api/subset", map[string]string{"topics": "0", "output": "subset.csv"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Model not started")
}

func TestServer_ConvertAndListFiles(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "survey.txt", surveyReport)
	env.writeFile(t, "export.docx", "not really a docx")

	resp, body := env.do(t, http.MethodPost, "/api/convert", map[string]string{"input": "survey.txt"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var converted struct {
		Output   string `json:"output"`
		Comments int    `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(body, &converted))
	assert.Equal(t, "raw_comments.csv", converted.Output)
	assert.Equal(t, 4, converted.Comments)

	resp, body = env.do(t, http.MethodGet, "/api/files?type=csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"raw_comments.csv"`)
	assert.NotContains(t, string(body), "survey.txt")

	resp, body = env.do(t, http.MethodGet, "/api/files?type=docx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "export.docx")

	resp, _ = env.do(t, http.MethodGet, "/api/files?type=pptx", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/convert", map[string]string{"input": "missing.docx"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.writeFile(t, "plain.txt", "no marker")
	resp, _ = env.do(t, http.MethodPost, "/api/convert", map[string]string{"input": "plain.txt", "output": "plain.csv"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/convert", map[string]string{"input": "../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Sentences(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "raw_comments.csv", "comment\nGood pay. Bad hours.\nFine\n")

	resp, body := env.do(t, http.MethodPost, "/api/sentences", map[string]string{"input": "raw_comments.csv"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	sentences, err := table.Load(filepath.Join(env.dir, "raw_comments_sentences.csv"))
	require.NoError(t, err)
	values, _ := sentences.Column(table.CommentColumn)
	assert.Equal(t, []string{"Good pay", "Bad hours", "Fine"}, values)
}

func TestServer_TrainInspectAndExport(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "survey.txt", surveyReport)
	resp, _ := env.do(t, http.MethodPost, "/api/convert", map[string]string{"input": "survey.txt"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.trainAndWait(t, 2)

	resp, body := env.do(t, http.MethodGet, "/api/topics/details", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var details table.Table
	require.NoError(t, json.Unmarshal(body, &details))
	assert.Equal(t, []string{"Topic", "Count", "Name", "Representation"}, details.Columns)
	assert.Len(t, details.Rows, 2)

	resp, body = env.do(t, http.MethodGet, "/api/topics/barchart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, string(body), "Topic 0")

	resp, body = env.do(t, http.MethodGet, "/api/topics/hierarchy?format=json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fig topicmodel.Figure
	require.NoError(t, json.Unmarshal(body, &fig))
	assert.Equal(t, topicmodel.KindHierarchy, fig.Kind)

	resp, _ = env.do(t, http.MethodPost, "/api/subset", map[string]string{"topics": "0", "output": "topic0.csv"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	subset, err := table.Load(filepath.Join(env.dir, "topic0.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, subset.Len())
	assert.False(t, subset.HasColumn(table.TopicsColumn))

	resp, _ = env.do(t, http.MethodPost, "/api/subset", map[string]string{"topics": "0,x", "output": "bad.csv"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NoFileExists(t, filepath.Join(env.dir, "bad.csv"))

	resp, body = env.do(t, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Model not started")
	resp, _ = env.do(t, http.MethodGet, "/api/topics/details", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs struct {
		Runs []database.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(body, &runs))
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, database.RunStatusReady, runs.Runs[0].Status)
	assert.Equal(t, 4, runs.Runs[0].RowCount)
}

func TestServer_TrainValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/train", map[string]any{"nr_topics": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/train", strings.NewReader("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/train", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Compare(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "a.csv", "comment\na\nb\nc\n")
	env.writeFile(t, "b.csv", "comment\nb\nc\nd\ne\n")
	env.writeFile(t, "other.csv", "text\nb\n")

	resp, body := env.do(t, http.MethodPost, "/api/compare", map[string]string{"file_a": "a.csv", "file_b": "b.csv"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Percentage float64 `json:"percentage"`
		Message    string  `json:"message"`
		Error      string  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.InDelta(t, 66.67, result.Percentage, 0.01)
	assert.Equal(t, "The percentage of duplicates is 66.67%.", result.Message)

	resp, body = env.do(t, http.MethodPost, "/api/compare", map[string]string{"file_a": "a.csv", "file_b": "other.csv"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result.Error = ""
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, -1.0, result.Percentage)
	assert.NotEmpty(t, result.Error)

	resp, _ = env.do(t, http.MethodPost, "/api/compare", map[string]string{"file_a": "a.csv", "file_b": "missing.csv"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/comparisons", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logged struct {
		Comparisons []database.Comparison `json:"comparisons"`
	}
	require.NoError(t, json.Unmarshal(body, &logged))
	assert.Len(t, logged.Comparisons, 2)
}

func TestServer_StatusSocket(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "raw_comments.csv", "comment\nPay is low\nManager is great\n")

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var msg socketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.Status)
	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, "Model not started", msg.Status.Message)

	resp, _ := env.do(t, http.MethodPost, "/api/train", map[string]any{"nr_topics": 2})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var messages []string
	for len(messages) == 0 || messages[len(messages)-1] == "Model is training..." {
		var next socketMessage
		require.NoError(t, conn.ReadJSON(&next))
		require.NotNil(t, next.Status)
		messages = append(messages, next.Status.Message)
	}
	assert.Equal(t, []string{"Model is training...", "Model training done."}, messages)
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"up"}`, string(body))
}
