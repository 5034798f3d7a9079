package services

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
	achievementsrepo "github.com/dmitrijs2005/questline/internal/server/repositories/achievements"
	"github.com/dmitrijs2005/questline/internal/server/repositories/completions"
	"github.com/dmitrijs2005/questline/internal/server/repositories/events"
	"github.com/dmitrijs2005/questline/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/questline/internal/server/repositories/moments"
	"github.com/dmitrijs2005/questline/internal/server/repositories/outcomes"
	"github.com/dmitrijs2005/questline/internal/server/repositories/quests"
	settingsrepo "github.com/dmitrijs2005/questline/internal/server/repositories/settings"
	"github.com/dmitrijs2005/questline/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memStore is an in-memory stand-in for every repository. It ignores the
// DBTX it is bound to, so tests drive transactions through sqlmock and read
// results back from the store.
type memStore struct {
	mu sync.Mutex

	clock time.Time

	users      map[int64]models.User
	nextUserID int64
	friendsOf  map[int64][]int64

	quests       map[int64]models.Quest
	completions  []models.QuestCompletion
	outcomes     []models.QuestOutcome
	achievements []models.Achievement
	unlocked     []models.UserAchievement
	events       []models.Event
	moments      []models.Moment
	momentsLimit int
	settings     map[int64]models.UserSettings

	// conflicts makes the next N UpdateProgress calls fail with a version conflict.
	conflicts int
	fail      map[string]error
	calls     map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		users:     map[int64]models.User{},
		friendsOf: map[int64][]int64{},
		quests:    map[int64]models.Quest{},
		settings:  map[int64]models.UserSettings{},
		fail:      map[string]error{},
		calls:     map[string]int{},
	}
}

// hit records a call to op and returns its injected failure. s.mu must be held.
func (s *memStore) hit(op string) error {
	s.calls[op]++
	return s.fail[op]
}

func (s *memStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *memStore) addUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	} else if u.ID > s.nextUserID {
		s.nextUserID = u.ID
	}
	if u.Level == 0 {
		u.Level = 1
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) user(id int64) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *memStore) addQuest(q models.Quest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests[q.ID] = q
}

func (s *memStore) addAchievement(a models.Achievement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = append(s.achievements, a)
}

type memManager struct {
	s *memStore
}

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m memManager) Users(dbx.DBTX) users.Repository                   { return memUsers{m.s} }
func (m memManager) Quests(dbx.DBTX) quests.Repository                 { return memQuests{m.s} }
func (m memManager) Completions(dbx.DBTX) completions.Repository       { return memCompletions{m.s} }
func (m memManager) Outcomes(dbx.DBTX) outcomes.Repository             { return memOutcomes{m.s} }
func (m memManager) Achievements(dbx.DBTX) achievementsrepo.Repository { return memAchievements{m.s} }
func (m memManager) Friendships(dbx.DBTX) friendships.Repository       { return memFriendships{m.s} }
func (m memManager) Events(dbx.DBTX) events.Repository                 { return memEvents{m.s} }
func (m memManager) Moments(dbx.DBTX) moments.Repository               { return memMoments{m.s} }
func (m memManager) Settings(dbx.DBTX) settingsrepo.Repository         { return memSettings{m.s} }

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.s.nextUserID++
	out := *u
	out.ID = r.s.nextUserID
	out.Version = 1
	out.CreatedAt = r.s.clock
	r.s.users[out.ID] = out
	return &out, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) UpdateProgress(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.UpdateProgress"); err != nil {
		return err
	}
	if r.s.conflicts > 0 {
		r.s.conflicts--
		return common.ErrVersionConflict
	}
	stored, ok := r.s.users[u.ID]
	if !ok || stored.Version != u.Version {
		return common.ErrVersionConflict
	}
	u.Version++
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) sortedUsers(keep func(models.User) bool) []models.User {
	var out []models.User
	for _, u := range r.s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return int(a.ID - b.ID) })
	return out
}

func (r memUsers) List(context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.List"); err != nil {
		return nil, err
	}
	return r.sortedUsers(func(models.User) bool { return true }), nil
}

func (r memUsers) ListWithFriends(_ context.Context, userID int64) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.ListWithFriends"); err != nil {
		return nil, err
	}
	friends := r.s.friendsOf[userID]
	return r.sortedUsers(func(u models.User) bool {
		return u.ID == userID || slices.Contains(friends, u.ID)
	}), nil
}

// --- quests ---

type memQuests struct{ s *memStore }

func (r memQuests) GetByID(_ context.Context, id int64) (*models.Quest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("quests.GetByID"); err != nil {
		return nil, err
	}
	q, ok := r.s.quests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &q, nil
}

func (r memQuests) ListByCategory(_ context.Context, category string) ([]models.Quest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("quests.ListByCategory"); err != nil {
		return nil, err
	}
	var out []models.Quest
	for _, q := range r.s.quests {
		if q.Category == category {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b models.Quest) int { return int(a.ID - b.ID) })
	return out, nil
}

// --- completions ---

type memCompletions struct{ s *memStore }

func (r memCompletions) Create(_ context.Context, c *models.QuestCompletion) (*models.QuestCompletion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("completions.Create"); err != nil {
		return nil, err
	}
	out := *c
	out.ID = int64(len(r.s.completions) + 1)
	if out.CompletedAt.IsZero() {
		out.CompletedAt = r.s.clock
	}
	r.s.completions = append(r.s.completions, out)
	return &out, nil
}

func (r memCompletions) CountByUser(ctx context.Context, userID int64) (int, error) {
	return r.CountByUserSince(ctx, userID, time.Time{})
}

func (r memCompletions) CountByUserSince(_ context.Context, userID int64, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("completions.Count"); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range r.s.completions {
		if c.UserID == userID && !c.CompletedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r memCompletions) CountsPerUser(context.Context) (map[int64]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("completions.CountsPerUser"); err != nil {
		return nil, err
	}
	out := map[int64]int{}
	for _, c := range r.s.completions {
		out[c.UserID]++
	}
	return out, nil
}

func (r memCompletions) ListByUser(_ context.Context, userID int64, limit int) ([]models.QuestCompletion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("completions.ListByUser"); err != nil {
		return nil, err
	}
	var out []models.QuestCompletion
	for i := len(r.s.completions) - 1; i >= 0 && len(out) < limit; i-- {
		if c := r.s.completions[i]; c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- outcomes ---

type memOutcomes struct{ s *memStore }

func (r memOutcomes) Create(_ context.Context, o *models.QuestOutcome) (*models.QuestOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("outcomes.Create"); err != nil {
		return nil, err
	}
	out := *o
	out.ID = int64(len(r.s.outcomes) + 1)
	out.CreatedAt = r.s.clock
	r.s.outcomes = append(r.s.outcomes, out)
	return &out, nil
}

func (r memOutcomes) CountsByQuest(_ context.Context, userID int64) ([]models.OutcomeCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("outcomes.CountsByQuest"); err != nil {
		return nil, err
	}
	byQuest := map[int64]*models.OutcomeCount{}
	var order []int64
	for _, o := range r.s.outcomes {
		if o.UserID != userID {
			continue
		}
		c, ok := byQuest[o.QuestID]
		if !ok {
			c = &models.OutcomeCount{QuestID: o.QuestID}
			byQuest[o.QuestID] = c
			order = append(order, o.QuestID)
		}
		switch o.Outcome {
		case models.OutcomeCompleted:
			c.Completed++
		case models.OutcomeSkipped:
			c.Skipped++
		}
	}
	out := make([]models.OutcomeCount, 0, len(order))
	for _, id := range order {
		out = append(out, *byQuest[id])
	}
	return out, nil
}

// --- achievements ---

type memAchievements struct{ s *memStore }

func (r memAchievements) List(context.Context) ([]models.Achievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("achievements.List"); err != nil {
		return nil, err
	}
	return slices.Clone(r.s.achievements), nil
}

func (r memAchievements) ListUnlocked(_ context.Context, userID int64) ([]models.UserAchievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("achievements.ListUnlocked"); err != nil {
		return nil, err
	}
	var out []models.UserAchievement
	for _, ua := range r.s.unlocked {
		if ua.UserID == userID {
			out = append(out, ua)
		}
	}
	return out, nil
}

func (r memAchievements) Unlock(_ context.Context, userID, achievementID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("achievements.Unlock"); err != nil {
		return false, err
	}
	for _, ua := range r.s.unlocked {
		if ua.UserID == userID && ua.AchievementID == achievementID {
			return false, nil
		}
	}
	r.s.unlocked = append(r.s.unlocked, models.UserAchievement{
		ID:            int64(len(r.s.unlocked) + 1),
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    r.s.clock,
	})
	return true, nil
}

// --- friendships ---

type memFriendships struct{ s *memStore }

func (r memFriendships) CountAccepted(_ context.Context, userID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("friendships.CountAccepted"); err != nil {
		return 0, err
	}
	return len(r.s.friendsOf[userID]), nil
}

// --- events ---

type memEvents struct{ s *memStore }

func (r memEvents) Create(_ context.Context, e *models.Event) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("events.Create"); err != nil {
		return nil, err
	}
	out := *e
	out.ID = int64(len(r.s.events) + 1)
	out.CreatedAt = r.s.clock
	r.s.events = append(r.s.events, out)
	return &out, nil
}

func (r memEvents) Totals(_ context.Context, userID int64, since time.Time) (models.EventTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("events.Totals"); err != nil {
		return models.EventTotals{}, err
	}
	var t models.EventTotals
	for _, e := range r.s.events {
		if e.UserID == nil || *e.UserID != userID || e.TS.Before(since) {
			continue
		}
		switch e.EventType {
		case models.EventTick, models.EventTimeSpent:
			t.TrackedSeconds += e.DurationSec
		case models.EventNudge, models.EventNudgeShown:
			t.NudgesShown++
			if t.FirstNudgeAt == nil || e.TS.Before(*t.FirstNudgeAt) {
				ts := e.TS
				t.FirstNudgeAt = &ts
			}
		case models.EventNudgeClicked:
			t.NudgesClicked++
		}
	}
	return t, nil
}

// --- moments ---

type memMoments struct{ s *memStore }

func (r memMoments) Create(_ context.Context, m *models.Moment) (*models.Moment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("moments.Create"); err != nil {
		return nil, err
	}
	out := *m
	out.ID = int64(len(r.s.moments) + 1)
	out.CreatedAt = r.s.clock.Add(time.Duration(out.ID) * time.Second)
	r.s.moments = append(r.s.moments, out)
	return &out, nil
}

func (r memMoments) ListByUser(_ context.Context, userID int64, limit int) ([]models.Moment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("moments.ListByUser"); err != nil {
		return nil, err
	}
	r.s.momentsLimit = limit
	var out []models.Moment
	for i := len(r.s.moments) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.moments[i].UserID == userID {
			out = append(out, r.s.moments[i])
		}
	}
	return out, nil
}

// --- settings ---

type memSettings struct{ s *memStore }

func (r memSettings) CreateDefault(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("settings.CreateDefault"); err != nil {
		return err
	}
	if _, ok := r.s.settings[userID]; !ok {
		r.s.settings[userID] = models.DefaultSettings(userID)
	}
	return nil
}

func (r memSettings) get(op string, userID int64) (*models.UserSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(op); err != nil {
		return nil, err
	}
	st, ok := r.s.settings[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	st.SelectedPaths = slices.Clone(st.SelectedPaths)
	st.TrackedDomains = slices.Clone(st.TrackedDomains)
	return &st, nil
}

func (r memSettings) Get(_ context.Context, userID int64) (*models.UserSettings, error) {
	return r.get("settings.Get", userID)
}

func (r memSettings) GetForUpdate(_ context.Context, userID int64) (*models.UserSettings, error) {
	return r.get("settings.GetForUpdate", userID)
}

func (r memSettings) Save(_ context.Context, st *models.UserSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("settings.Save"); err != nil {
		return err
	}
	r.s.settings[st.UserID] = *st
	return nil
}

func (s *memStore) storedSettings(userID int64) (models.UserSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	return st, ok
}

// --- observer ---

type countingObserver struct {
	mu        sync.Mutex
	completed map[string]int
	unlocked  int
	conflicts int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{completed: map[string]int{}}
}

func (o *countingObserver) QuestCompleted(category string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed[category]++
}

func (o *countingObserver) AchievementsUnlocked(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unlocked += n
}

func (o *countingObserver) VersionConflict() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}
