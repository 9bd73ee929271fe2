package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaffler-consolidator/backend/internal/models"
	"github.com/snaffler-consolidator/backend/internal/testutil"
	"github.com/snaffler-consolidator/backend/internal/upload"
)

type uploadTestEnv struct {
	e         *echo.Echo
	store     *testutil.MockStorage
	uploadMgr *upload.Manager
	handler   UploadHandler
}

func newUploadTestEnv() *uploadTestEnv {
	store := testutil.NewMockStorage()
	uploadMgr := upload.NewManager(store)
	return &uploadTestEnv{
		e:         echo.New(),
		store:     store,
		uploadMgr: uploadMgr,
		handler:   NewUploadHandler(store, uploadMgr),
	}
}

func (env *uploadTestEnv) jsonRequest(body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

func TestHandleUploadFile(t *testing.T) {
	env := newUploadTestEnv()

	content := base64.StdEncoding.EncodeToString([]byte(sampleLogLine + "\n"))
	c, rec := env.jsonRequest(`{"name":"scan.log","data":"` + content + `"}`)

	require.NoError(t, env.handler.HandleUploadFile(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var info models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "scan.log", info.Name)
	assert.Equal(t, int64(len(sampleLogLine)+1), info.Size)
	assert.NotEmpty(t, info.ID)
}

func TestHandleUploadFile_Validation(t *testing.T) {
	env := newUploadTestEnv()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"data":"aGVsbG8="}`},
		{"missing data", `{"name":"scan.log"}`},
		{"invalid base64", `{"name":"scan.log","data":"!!not base64!!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := env.jsonRequest(tt.body)
			err := env.handler.HandleUploadFile(c)
			require.Error(t, err)
			apiErr, ok := err.(*APIError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		})
	}
}

func TestHandleUploadBinary(t *testing.T) {
	env := newUploadTestEnv()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "scan.log")
	require.NoError(t, err)
	_, err = fw.Write([]byte(sampleLogLine + "\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	require.NoError(t, env.handler.HandleUploadBinary(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var info models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "scan.log", info.Name)
}

func TestChunkedUploadFlow(t *testing.T) {
	env := newUploadTestEnv()

	content := []byte(sampleLogLine + "\n" + sampleLogLine + "\n")
	half := len(content) / 2

	for i, chunk := range [][]byte{content[:half], content[half:]} {
		body := fmt.Sprintf(`{"uploadId":"up-1","chunkIndex":%d,"data":"%s"}`,
			i, base64.StdEncoding.EncodeToString(chunk))
		c, rec := env.jsonRequest(body)
		require.NoError(t, env.handler.HandleUploadChunk(c))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	c, rec := env.jsonRequest(fmt.Sprintf(
		`{"uploadId":"up-1","name":"big.log","totalChunks":2,"originalSize":%d}`, len(content)))
	require.NoError(t, env.handler.HandleCompleteUpload(c))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)

	job := waitForUploadJob(t, env.uploadMgr, resp.JobID)
	require.Equal(t, upload.StatusComplete, job.Status)
	require.NotNil(t, job.FileInfo)
	assert.Equal(t, int64(len(content)), job.FileInfo.Size)

	// Status endpoint reflects the finished job.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	jc := env.e.NewContext(req, rec)
	jc.SetParamNames("jobId")
	jc.SetParamValues(resp.JobID)
	require.NoError(t, env.handler.HandleUploadJobStatus(jc))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func waitForUploadJob(t *testing.T, m *upload.Manager, id string) *upload.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.GetJob(id)
		require.True(t, ok, "job disappeared")
		if job.Status == upload.StatusComplete || job.Status == upload.StatusError {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("upload job did not finish in time")
	return nil
}

func TestHandleGetRecentFiles_FiltersConfigFiles(t *testing.T) {
	env := newUploadTestEnv()

	for _, name := range []string{"scan.log", "rules.yaml", "app.xml", "notes.txt"} {
		_, err := env.store.SaveBytes(name, []byte("x"))
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	require.NoError(t, env.handler.HandleGetRecentFiles(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var files []*models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 2)
	for _, f := range files {
		assert.NotContains(t, []string{"rules.yaml", "app.xml"}, f.Name)
	}
}

func TestHandleGetFileSample(t *testing.T) {
	env := newUploadTestEnv()

	longLine := sampleLogLine[:len(sampleLogLine)-len("some context")] + strings.Repeat("y", 400)
	content := sampleLogLine + "\ngarbage line\n\n" + longLine + "\n"
	info, err := env.store.SaveBytes("scan.log", []byte(content))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)

	require.NoError(t, env.handler.HandleGetFileSample(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sampleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Blank line is skipped; the two findings match, the garbage does not.
	assert.Equal(t, 3, resp.TotalLines)
	assert.Equal(t, 2, resp.Matched)

	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Matched)
	require.NotNil(t, resp.Results[0].Parsed)
	assert.Equal(t, "Rule1", resp.Results[0].Parsed.MatchedRuleName)

	assert.False(t, resp.Results[1].Matched)
	assert.Nil(t, resp.Results[1].Parsed)

	// Overlong raw lines are shortened for display.
	assert.True(t, strings.HasSuffix(resp.Results[2].Raw, "..."))
	assert.LessOrEqual(t, len(resp.Results[2].Raw), 303)
}

func TestHandleDeleteAndRenameFile(t *testing.T) {
	env := newUploadTestEnv()

	info, err := env.store.SaveBytes("old.log", []byte("data"))
	require.NoError(t, err)

	// Rename.
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"new.log"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	require.NoError(t, env.handler.HandleRenameFile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var renamed models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renamed))
	assert.Equal(t, "new.log", renamed.Name)

	// Delete.
	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	rec = httptest.NewRecorder()
	c = env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	require.NoError(t, env.handler.HandleDeleteFile(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	c = env.e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	err = env.handler.HandleDeleteFile(c)
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
