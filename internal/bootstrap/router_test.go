package bootstrap

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/practicelog/internal/app/models/dto"
	"github.com/yigit/practicelog/internal/config"
	"github.com/yigit/practicelog/internal/pkg/notion"
	"github.com/yigit/practicelog/internal/pkg/notion/notiontest"
)

const (
	membersDB     = "members-db"
	submissionsDB = "submissions-db"
)

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func seededFake() *notiontest.Fake {
	fake := notiontest.New()
	created := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	fake.AddDatabase(membersDB, notiontest.TitleSchema("Name"), notiontest.Schema("Password", notion.PropertyNumber))
	fake.AddPages(membersDB,
		notiontest.Page("m-lilei", created, notiontest.Title("Name", "Li Lei"), notiontest.Number("Password", 1234)),
		notiontest.Page("m-han", created, notiontest.Title("Name", "韩梅梅")),
	)
	fake.AddDatabase(submissionsDB,
		notiontest.TitleSchema("StudentName"),
		notiontest.RelationSchema("学员", membersDB),
		notiontest.Schema("视频/图片", notion.PropertyFiles),
	)
	fake.AddPages(submissionsDB,
		notiontest.Page("s1", created,
			notiontest.Title("StudentName", "Li Lei"),
			notiontest.Relation("学员", "m-lilei"),
			notiontest.ExternalFiles("视频/图片", "https://cdn/a.png"),
		),
	)
	return fake
}

func newRouter(t *testing.T, fake *notiontest.Fake, configure func(*config.Config)) *gin.Engine {
	t.Helper()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Server.Mode = "production"
	cfg.Server.StoragePath = t.TempDir()
	cfg.Server.PublicBaseURL = "http://localhost:3001"
	cfg.Notion.MembersDBID = membersDB
	cfg.Notion.SubmissionsDBID = submissionsDB
	cfg.Session.Secret = "router-test-secret"
	if configure != nil {
		configure(cfg)
	}

	core, err := NewCore(cfg, fake, zerolog.Nop())
	require.NoError(t, err)
	deps, err := BuildDependencies(cfg, core, zerolog.Nop())
	require.NoError(t, err)
	return SetupRouter(cfg, deps, zerolog.Nop())
}

func do(router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPingAndMetrics(t *testing.T) {
	router := newRouter(t, seededFake(), nil)

	w, _ := do(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoginSetsSessionCookieForMe(t *testing.T) {
	router := newRouter(t, seededFake(), nil)

	w, env := do(router, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"name":"li lei","password":"1234"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "student_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), session.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(session)
	w, env = do(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary struct {
		Member struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"member"`
		TotalMedia int `json:"totalMedia"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "m-lilei", summary.Member.ID)
	assert.Equal(t, "Li Lei", summary.Member.DisplayName)
	assert.Equal(t, 1, summary.TotalMedia)
}

func TestLoginFailures(t *testing.T) {
	router := newRouter(t, seededFake(), nil)

	cases := []struct {
		name   string
		body   string
		status int
		code   dto.ErrorCode
	}{
		{"missing password", `{"name":"Li Lei"}`, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"non numeric", `{"name":"Li Lei","password":"abc"}`, http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"wrong password", `{"name":"Li Lei","password":"1"}`, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"no secret", `{"name":"韩梅梅","password":"1"}`, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"unknown member", `{"name":"Nobody","password":"1"}`, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(router, jsonRequest(http.MethodPost, "/api/v1/auth/login", tc.body))
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestMeRequiresSession(t *testing.T) {
	router := newRouter(t, seededFake(), nil)

	w, _ := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w, env := do(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodeInvalidToken, env.Error.Code)
}

func TestMembersHideSecrets(t *testing.T) {
	router := newRouter(t, seededFake(), nil)

	w, env := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/members", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var members []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &members))
	require.Len(t, members, 2)
	assert.NotContains(t, w.Body.String(), "1234")

	w, env = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/members/m-lilei/submissions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "https://cdn/a.png")
}

func TestCreateSubmissionEndpoint(t *testing.T) {
	fake := seededFake()
	router := newRouter(t, fake, nil)

	w, env := do(router, jsonRequest(http.MethodPost, "/api/v1/submissions",
		`{"memberName":"Li Lei","mediaText":"/uploads/a.png\nhttps://cdn/b.mp4","date":"2024-04-02"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Linked    bool     `json:"linked"`
		MediaURLs []string `json:"mediaUrls"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.Linked)
	assert.Equal(t, []string{"http://localhost:3001/uploads/a.png", "https://cdn/b.mp4"}, created.MediaURLs)
	require.Len(t, fake.Created(), 1)

	w, _ = do(router, jsonRequest(http.MethodPost, "/api/v1/submissions", `{"media":["https://cdn/x.png"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(router, jsonRequest(http.MethodPost, "/api/v1/submissions", `{"memberName":"Li Lei","date":"yesterday"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(router, jsonRequest(http.MethodPost, "/api/v1/submissions", `{"memberName":"Li Lei","mediaText":"notes.txt"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "mediaText", env.Error.Field)

	w, _ = do(router, jsonRequest(http.MethodPost, "/api/v1/submissions", `{"memberName":"Li Lei","media":["/etc/passwd"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, fake.Created(), 1)
}

func TestUnconfiguredCollectionsReturnServiceUnavailable(t *testing.T) {
	router := newRouter(t, seededFake(), func(cfg *config.Config) {
		cfg.Notion.SubmissionsDBID = ""
	})

	w, env := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/schemas", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodeNotConfigured, env.Error.Code)

	w, _ = do(router, jsonRequest(http.MethodPost, "/api/v1/submissions", `{"memberName":"Li Lei"}`))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, env = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/recent", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestProviderFailureReturnsBadGateway(t *testing.T) {
	fake := seededFake()
	fake.FailDatabase(membersDB, nil)
	router := newRouter(t, fake, nil)

	w, env := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/schemas", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodeExternalServiceError, env.Error.Code)
}

func TestUploadEndpoint(t *testing.T) {
	router := newRouter(t, seededFake(), nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range []string{"one.png", "two.mp4"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := do(router, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var uploaded dto.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	require.Len(t, uploaded.URLs, 2)
	for _, u := range uploaded.URLs {
		assert.True(t, strings.HasPrefix(u, "http://localhost:3001/uploads/"), u)
	}

	empty := &bytes.Buffer{}
	mw = multipart.NewWriter(empty)
	require.NoError(t, mw.WriteField("note", "nothing"))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads", empty)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, _ = do(router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadEndpointRejectsOversizedBody(t *testing.T) {
	router := newRouter(t, seededFake(), func(cfg *config.Config) {
		cfg.Server.MaxUploadBytes = 512
	})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := do(router, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodePayloadTooLarge, env.Error.Code)
}
