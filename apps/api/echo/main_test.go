package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/core/note"
	"github.com/noteshub/backend/core/status"
	"github.com/noteshub/backend/core/user"
	"github.com/noteshub/backend/core/visit"
	emailsvc "github.com/noteshub/backend/services/email"
	inmemdb "github.com/noteshub/backend/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	core.Conf.TestMode = true
	core.Conf.Debug = false
	os.Exit(m.Run())
}

type testEnv struct {
	app      Server
	usrRepo  user.Repository
	noteRepo note.Repository
	usrSvc   *user.Service
	noteSvc  *note.Service
	mailSvc interface {
		core.EmailService
		SentMessages() []core.EmailMessage
	}
	tracker *visit.Tracker
	pinger  *fakePinger
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	noteRepo := inmemdb.NewNoteRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(usrRepo, mailSvc)
	noteSvc := note.NewService(noteRepo, mailSvc, usrSvc, nil)
	tracker := visit.NewTracker(newMapStore(), nil)
	pinger := &fakePinger{}
	checker := status.NewChecker(pinger, func() bool { return pinger.fallback })

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app := NewServer("", Deps{
		Logger:     nopLogger{},
		UserSvc:    usrSvc,
		NoteSvc:    noteSvc,
		Tracker:    tracker,
		Checker:    checker,
		Validate:   validate,
		Translator: translator,
	})

	return &testEnv{
		app:      app,
		usrRepo:  usrRepo,
		noteRepo: noteRepo,
		usrSvc:   usrSvc,
		noteSvc:  noteSvc,
		mailSvc:  mailSvc,
		tracker:  tracker,
		pinger:   pinger,
	}
}

// createUser persists a user directly through the repository, bypassing the
// service's welcome email.
func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	active := isActive
	usr := user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		IsActive: &active,
		Roles:    roles,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createNote(t *testing.T, svc *note.Service, uploaderID, title, course, semester string) note.Note {
	t.Helper()
	n, err := svc.Upload(uploaderID, note.NewNote{
		Title:    title,
		Course:   course,
		Semester: semester,
		FileURL:  "https://files.test/" + title + ".pdf",
	})
	if err != nil {
		t.Fatalf("Upload(): %v", err)
	}
	return n
}

// nopLogger swallows everything the handlers report.
type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fakePinger stands in for *sql.DB in checker tests.
type fakePinger struct {
	err      error
	fallback bool
}

func (p *fakePinger) PingContext(context.Context) error { return p.err }

// mapStore is an in-memory core.KVStore.
type mapStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]string)}
}

func (s *mapStore) Get(_ context.Context, key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if val, ok := s.data[key]; ok {
		return val, nil
	}
	return def, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
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
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, errors.Wrap(err, "unmarshalling body")
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, errors.Wrap(err, "unmarshalling wantData")
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
