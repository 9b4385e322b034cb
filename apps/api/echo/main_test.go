package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/activity"
	"github.com/nm2tech/classroom/core/assignment"
	"github.com/nm2tech/classroom/core/event"
	"github.com/nm2tech/classroom/core/newsletter"
	"github.com/nm2tech/classroom/core/user"
	emailsvc "github.com/nm2tech/classroom/services/email"
	logsvc "github.com/nm2tech/classroom/services/logger"
	pdfsvc "github.com/nm2tech/classroom/services/pdf"
	dummydb "github.com/nm2tech/classroom/storage/database/dummy"
)

func TestMain(m *testing.M) {
	// deterministic error bodies
	core.Conf.Debug = false
	core.Conf.TestMode = true
	os.Exit(m.Run())
}

type testEnv struct {
	db     *dummydb.Store
	app    Server
	usrSvc *user.Service
	nlSvc  *newsletter.Service
	evSvc  *event.Service
	asSvc  *assignment.Service
	actSvc *activity.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dummydb.NewStore()
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	renderer := pdfsvc.NewRenderer("MRS. SIMMS", "Ksimms@washingtonchristian.org", "240-390-0429")

	actSvc := activity.NewService(db)
	usrSvc := user.NewService(db, actSvc, logger)
	nlSvc := newsletter.NewService(db, mailSvc, renderer)
	evSvc := event.NewService(db)
	asSvc := assignment.NewService(db)

	app := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logger,
		UserSvc:        usrSvc,
		NewsletterSvc:  nlSvc,
		EventSvc:       evSvc,
		AssignmentSvc:  asSvc,
		ActivitySvc:    actSvc,
	})

	emailsvc.ResetSentMessages()

	return &testEnv{
		db:     db,
		app:    app,
		usrSvc: usrSvc,
		nlSvc:  nlSvc,
		evSvc:  evSvc,
		asSvc:  asSvc,
		actSvc: actSvc,
	}
}

func (env *testEnv) seedUser(t *testing.T, uname, pwd, role string, opts ...func(*user.NewUser)) user.User {
	t.Helper()
	nu := user.NewUser{
		Username: uname,
		Password: pwd,
		Role:     role,
		Email:    uname + "@email.com",
	}
	for _, opt := range opts {
		opt(&nu)
	}
	usr, err := env.usrSvc.Create(context.Background(), nu)
	if err != nil {
		t.Fatalf("seedUser(%s): %v", uname, err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
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
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

// deleteWithConfirm drives both phases of the delete handshake against path.
func deleteWithConfirm(t *testing.T, app Server, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req, rec := newAuthRequest(http.MethodDelete, path, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first delete call: code = %d, want %d; body = %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	var confirm ConfirmResponse
	decodeBody(t, rec, &confirm)
	if confirm.ConfirmToken == "" {
		t.Fatal("first delete call returned no confirmation token")
	}

	req, rec = newAuthRequest(http.MethodDelete, path+"?confirm="+confirm.ConfirmToken, token)
	app.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody(): %v; body = %s", err, rec.Body.String())
	}
}

type httpErr struct {
	Error string `json:"error"`
}

var (
	errMissingToken   = httpErr{Error: "missing or malformed jwt"}
	errBodyForbidden  = httpErr{Error: "permission denied"}
	errBodyNotFound   = httpErr{Error: "not found"}
	errBodyAuthFailed = httpErr{Error: "authentication failed"}
)
