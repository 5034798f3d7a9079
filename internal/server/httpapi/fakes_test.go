package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/server/auth"
	"github.com/dmitrijs2005/questline/internal/server/leaderboard"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testCookie = "sensum_token"

type fakeUsers struct {
	session *services.Session
	err     error
	me      *models.User
}

func (f *fakeUsers) Signup(_ context.Context, email, _ string) (*services.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeUsers) Login(_ context.Context, email, _ string) (*services.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeUsers) Me(_ context.Context, userID int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.me, nil
}

type fakeQuests struct {
	err error

	completeIn  services.CompleteInput
	completeUID int64
	completeOut *services.CompleteResult

	recUID      int64
	recAuth     bool
	recCategory string
	recK        int
	recOut      []models.Quest

	outcomeQuest int64
	outcome      string

	limit       int
	completions []models.QuestCompletion
}

func (f *fakeQuests) Complete(_ context.Context, userID int64, in services.CompleteInput) (*services.CompleteResult, error) {
	f.completeUID, f.completeIn = userID, in
	return f.completeOut, f.err
}

func (f *fakeQuests) Recommend(_ context.Context, userID int64, authenticated bool, category string, k int) ([]models.Quest, error) {
	f.recUID, f.recAuth, f.recCategory, f.recK = userID, authenticated, category, k
	return f.recOut, f.err
}

func (f *fakeQuests) RecordOutcome(_ context.Context, _ int64, questID int64, outcome string) error {
	f.outcomeQuest, f.outcome = questID, outcome
	return f.err
}

func (f *fakeQuests) Completions(_ context.Context, _ int64, limit int) ([]models.QuestCompletion, error) {
	f.limit = limit
	return f.completions, f.err
}

type fakeAchievements struct {
	allUID int64
	all    []services.AchievementStatus
	earned []services.EarnedAchievement
	err    error
}

func (f *fakeAchievements) Earned(context.Context, int64) ([]services.EarnedAchievement, error) {
	return f.earned, f.err
}

func (f *fakeAchievements) All(_ context.Context, userID int64) ([]services.AchievementStatus, error) {
	f.allUID = userID
	return f.all, f.err
}

type fakeBoard struct {
	metric   leaderboard.Metric
	entries  []leaderboard.Entry
	standing leaderboard.Standing
	err      error
}

func (f *fakeBoard) Global(_ context.Context, m leaderboard.Metric) ([]leaderboard.Entry, error) {
	f.metric = m
	return f.entries, f.err
}

func (f *fakeBoard) Friends(_ context.Context, _ int64, m leaderboard.Metric) ([]leaderboard.Entry, error) {
	f.metric = m
	return f.entries, f.err
}

func (f *fakeBoard) Rank(_ context.Context, _ int64, m leaderboard.Metric) (leaderboard.Standing, error) {
	f.metric = m
	return f.standing, f.err
}

type fakeEvents struct {
	userID    *int64
	batch     []services.EventInput
	rangeDays int
	today     *services.TodayStats
	summary   *services.SummaryStats
	err       error
}

func (f *fakeEvents) Ingest(_ context.Context, userID *int64, batch []services.EventInput) (int, error) {
	f.userID, f.batch = userID, batch
	if f.err != nil {
		return 0, f.err
	}
	return len(batch), nil
}

func (f *fakeEvents) Today(context.Context, int64) (*services.TodayStats, error) {
	return f.today, f.err
}

func (f *fakeEvents) Summary(_ context.Context, _ int64, rangeDays int) (*services.SummaryStats, error) {
	f.rangeDays = rangeDays
	return f.summary, f.err
}

type fakeMoments struct {
	uid     int64
	text    string
	limit   int
	created *models.Moment
	list    []models.Moment
	err     error
}

func (f *fakeMoments) Create(_ context.Context, userID int64, text string) (*models.Moment, error) {
	f.uid, f.text = userID, text
	return f.created, f.err
}

func (f *fakeMoments) List(_ context.Context, userID int64, limit int) ([]models.Moment, error) {
	f.uid, f.limit = userID, limit
	return f.list, f.err
}

type fakeSettings struct {
	uid     int64
	patch   services.SettingsPatch
	patched bool
	stored  *models.UserSettings
	err     error
}

func (f *fakeSettings) Get(_ context.Context, userID int64) (*models.UserSettings, error) {
	f.uid = userID
	return f.stored, f.err
}

func (f *fakeSettings) Update(_ context.Context, userID int64, p services.SettingsPatch) (*models.UserSettings, error) {
	f.uid, f.patch, f.patched = userID, p, true
	return f.stored, f.err
}

type testAPI struct {
	router       *gin.Engine
	codec        *auth.Codec
	users        *fakeUsers
	quests       *fakeQuests
	achievements *fakeAchievements
	board        *fakeBoard
	events       *fakeEvents
	moments      *fakeMoments
	settings     *fakeSettings
}

func newTestAPI(t *testing.T, mutate ...func(*RouterConfig)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := auth.NewCodec([]byte(strings.Repeat("k", 32)), time.Hour)
	require.NoError(t, err)

	api := &testAPI{
		codec:        codec,
		users:        &fakeUsers{},
		quests:       &fakeQuests{},
		achievements: &fakeAchievements{},
		board:        &fakeBoard{},
		events:       &fakeEvents{},
		moments:      &fakeMoments{},
		settings:     &fakeSettings{},
	}

	cfg := RouterConfig{
		Gate:         auth.NewGate(codec, testCookie),
		Users:        api.users,
		Quests:       api.quests,
		Achievements: api.achievements,
		Leaderboard:  api.board,
		Events:       api.events,
		Moments:      api.moments,
		Settings:     api.settings,
		Cookie:       CookieSettings{Name: testCookie, MaxAge: time.Hour},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	api.router = NewRouter(cfg)
	return api
}

func (a *testAPI) token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := a.codec.Issue(userID, "user@example.com")
	require.NoError(t, err)
	return tok
}

// do sends a request; a non-zero userID authenticates it with a Bearer token.
func (a *testAPI) do(t *testing.T, method, target, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+a.token(t, userID))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorEnvelope](t, rec).Error.Code
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func serve(a *testAPI, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}
