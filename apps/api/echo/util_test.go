package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/ejournal/apps/api/echo"
	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/journal"
	"github.com/trezcool/ejournal/core/roster"
	emailsvc "github.com/trezcool/ejournal/services/email"
	testutil "github.com/trezcool/ejournal/tests"
)

type testApp struct {
	server  *echoapi.Server
	jnl     *journal.Journal
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) testApp {
	conf := &core.Config{
		Env:      "TEST",
		AppName:  "E-Journal",
		TestMode: true,
		Server:   core.ServerConfig{DisableReqLogs: true},
		Journal:  core.JournalConfig{ExcellentThreshold: 4.5},
	}
	logger, _ := testutil.NewLogger()

	validate := validator.New()
	translator := core.NewTranslator()
	echoapi.InitValidators(validate, translator)

	app := testApp{
		jnl:     testutil.NewJournal(t, nil),
		mailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
	}
	app.server = echoapi.NewServer(echoapi.Deps{
		Conf:       conf,
		Logger:     logger,
		Journal:    app.jnl,
		MailSvc:    app.mailSvc,
		Validate:   validate,
		Translator: translator,
	})
	return app
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     string
	wantCode int
	wantErrs map[string]string
}

func (app testApp) do(method, path string, body ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if len(body) > 0 {
		buf.WriteString(body[0])
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

// checkErrors asserts the status code and, for failed requests, the rendered field errors.
func checkErrors(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantErrs == nil {
		return
	}
	var errs map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errs))
	for fld, msg := range tt.wantErrs {
		got, ok := errs[fld]
		if !assert.True(t, ok, "missing error for %q in %v", fld, errs) {
			continue
		}
		if msg != "" {
			assert.Equal(t, msg, got)
		}
	}
}

func decodeStudent(t *testing.T, rec *httptest.ResponseRecorder) roster.Student {
	var st roster.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decodeStudent() failed: %v; body %s", err, rec.Body.String())
	}
	return st
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}
