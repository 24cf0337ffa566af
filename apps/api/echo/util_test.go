package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
	emailsvc "github.com/trezcool/mentora/services/email"
	logsvc "github.com/trezcool/mentora/services/logger"
	inmemdb "github.com/trezcool/mentora/storage/database/inmem"
	"github.com/trezcool/mentora/testutil"
)

const testPassword = "Str0ng!Pass#2024"

var (
	app       *Server
	usrRepo   user.Repository
	qRepo     quiz.QuestionRepository
	sessRepo  quiz.SessionRepository
	embedder  *testutil.FakeEmbedder
	testConf  *core.Config
	matchAxes = []string{"psychiatry", "surgery", "paediatrics"}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	testConf = &core.Config{
		Env:                       "TEST",
		TestMode:                  true,
		AppName:                   "Mentora",
		SecretKey:                 "test-secret-key",
		DefaultFromEmail:          mail.Address{Name: "Mentora", Address: "noreply@mentora.test"},
		PasswordResetTimeoutDelta: 10 * time.Minute,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			DisableReqLogs:            true,
		},
		Matcher: core.MatcherConfig{TopK: 10},
	}

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	qRepo = inmemdb.NewQuestionRepository(db)
	sessRepo = inmemdb.NewSessionRepository(db)

	// set up services
	validate, translator := testutil.NewValidator()
	appLogger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), testConf)
	embedder = testutil.NewFakeEmbedder(matchAxes...)
	sponsorshipSvc := sponsorship.NewService(inmemdb.NewProfileRepository(db))

	app = NewServer(ServerDeps{
		Conf:           testConf,
		Logger:         appLogger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(testConf), testConf),
		QuizSvc:        quiz.NewService(sessRepo, qRepo),
		SponsorshipSvc: sponsorshipSvc,
		JobMatchSvc: jobmatch.NewService(
			sponsorshipSvc, inmemdb.NewJobRepository(db), embedder, appLogger, testConf.Matcher.TopK,
		),
	})

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

// do sends a request to the app and returns the recorded response.
func do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := do(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func getToken(t *testing.T, usr user.User) string {
	token, err := app.auth.userToken(usr)
	require.NoError(t, err, "getToken()")
	return token
}

func createUser(t *testing.T, firstName, email string, roles ...string) user.User {
	if len(roles) == 0 {
		roles = []string{user.RoleUser}
	}
	return testutil.CreateUser(t, usrRepo, firstName, "Tester", email, testPassword, roles, true)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshallObj()")
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "unmarshall(%s)", rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if assert.NoError(t, err, "jsonBytesEqual()") {
		assert.True(t, ok, "data = %s; wantData %s", rec.Body.String(), string(tt.wantData))
	}
}

func TestServer_home(t *testing.T) {
	rec := do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Mentora API!", rec.Body.String())
}
