package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/opengrade/opengrade-api/internal/dto"
	"github.com/opengrade/opengrade-api/internal/models"
	"github.com/opengrade/opengrade-api/pkg/ai"
)

type userRepoStub struct {
	users   map[string]models.User
	updated map[uint]datatypes.JSON
}

func newUserRepoStub(users ...models.User) *userRepoStub {
	stub := &userRepoStub{users: map[string]models.User{}, updated: map[uint]datatypes.JSON{}}
	for _, user := range users {
		stub.users[user.Username] = user
	}
	return stub
}

func (r *userRepoStub) GetByUsername(ctx context.Context, username string) (models.User, error) {
	if user, ok := r.users[username]; ok {
		return user, nil
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *userRepoStub) UpdateLedger(ctx context.Context, id uint, ledger datatypes.JSON) error {
	r.updated[id] = ledger
	for username, user := range r.users {
		if user.ID == id {
			user.Ledger = ledger
			r.users[username] = user
		}
	}
	return nil
}

func (r *userRepoStub) ListStudents(ctx context.Context) ([]models.User, error) {
	var users []models.User
	for _, user := range r.users {
		if user.Role == models.UserTypeStudent {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *userRepoStub) Create(ctx context.Context, user *models.User) error {
	r.users[user.Username] = *user
	return nil
}

type graderStub struct {
	result ai.GradingResult
	err    error
	input  ai.GradingInput
	calls  int
}

func (g *graderStub) Grade(ctx context.Context, input ai.GradingInput) (ai.GradingResult, error) {
	g.calls++
	g.input = input
	if g.err != nil {
		return ai.GradingResult{}, g.err
	}
	return g.result, nil
}

func ledgerUser(t *testing.T, id uint, username string, entries []models.GradeEntry) models.User {
	t.Helper()
	user := models.User{ID: id, Username: username, Role: models.UserTypeStudent}
	require.NoError(t, user.SetGradeEntries(entries))
	return user
}

func seedGradingRepo(t *testing.T) *submissionRepoStub {
	t.Helper()
	repo := newSubmissionRepoStub()
	require.NoError(t, repo.Create(context.Background(), &models.SubmissionRecord{
		Fingerprint: "task-fp",
		Text:        "Describe photosynthesis",
		UserType:    models.UserTypeTeacher,
		Username:    "prof",
		Homework:    "hw1",
	}))
	require.NoError(t, repo.Create(context.Background(), &models.SubmissionRecord{
		Fingerprint: "answer-fp",
		Text:        "Plants convert light to energy",
		UserType:    models.UserTypeStudent,
		Username:    "alice",
		Homework:    "hw1",
	}))
	return repo
}

func newGradingService(repo *submissionRepoStub, users *userRepoStub, grader ai.Grader, cache *redis.Client) GradingService {
	return NewGradingService(repo, users, grader, cache, time.Minute, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestGradeRecordsLedgerEntry(t *testing.T) {
	repo := seedGradingRepo(t)
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1"}}))
	grader := &graderStub{result: ai.GradingResult{Grade: 85, Feedback: "Solid answer"}}
	svc := newGradingService(repo, users, grader, nil)

	resp, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw1", GradedUsername: "alice"})
	require.NoError(t, err)
	require.InDelta(t, 85, resp.Grade, 0.001)
	require.Equal(t, "Solid answer", resp.Feedback)

	grade, ok := users.users["alice"].GradeFor("hw1")
	require.True(t, ok)
	require.NotNil(t, grade)
	require.InDelta(t, 85, *grade, 0.001)
}

func TestGradeOverwritesExistingGrade(t *testing.T) {
	repo := seedGradingRepo(t)
	old := 70.0
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1", Grade: &old}}))
	grader := &graderStub{result: ai.GradingResult{Grade: 85, Feedback: "Improved"}}
	svc := newGradingService(repo, users, grader, nil)

	_, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw1", GradedUsername: "alice"})
	require.NoError(t, err)

	entries, err := users.users["alice"].GradeEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.InDelta(t, 85, *entries[0].Grade, 0.001)
}

func TestGradeAggregatesAllSubmissions(t *testing.T) {
	repo := seedGradingRepo(t)
	require.NoError(t, repo.Create(context.Background(), &models.SubmissionRecord{
		Fingerprint: "answer2-fp",
		Text:        "Second part of the answer",
		UserType:    models.UserTypeStudent,
		Username:    "alice",
		Homework:    "hw1",
	}))
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1"}}))
	grader := &graderStub{result: ai.GradingResult{Grade: 90, Feedback: "Complete"}}
	svc := newGradingService(repo, users, grader, nil)

	_, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw1", GradedUsername: "alice"})
	require.NoError(t, err)
	require.Contains(t, grader.input.StudentText, "Plants convert light to energy")
	require.Contains(t, grader.input.StudentText, "Second part of the answer")
	require.Equal(t, "Describe photosynthesis", grader.input.TaskDescription)
	require.Equal(t, ai.DefaultSeverity, grader.input.Severity)
}

func TestGradeMissingTeacherTask(t *testing.T) {
	repo := newSubmissionRepoStub()
	users := newUserRepoStub()
	svc := newGradingService(repo, users, &graderStub{}, nil)

	_, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw9", GradedUsername: "alice"})
	require.ErrorIs(t, err, ErrNoTeacherTask)
}

func TestGradeNoSubmissions(t *testing.T) {
	repo := seedGradingRepo(t)
	users := newUserRepoStub()
	grader := &graderStub{}
	svc := newGradingService(repo, users, grader, nil)

	_, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw1", GradedUsername: "bob"})
	require.ErrorIs(t, err, ErrNoSubmissions)
	require.Zero(t, grader.calls)
}

func TestGradeUnparsableResponsePropagates(t *testing.T) {
	repo := seedGradingRepo(t)
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1"}}))
	svc := newGradingService(repo, users, &graderStub{err: ai.ErrUnparsableResponse}, nil)

	_, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw1", GradedUsername: "alice"})
	require.ErrorIs(t, err, ai.ErrUnparsableResponse)
	require.Empty(t, users.updated)
}

func TestGradeSurvivesLedgerMiss(t *testing.T) {
	repo := seedGradingRepo(t)
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "other"}}))
	grader := &graderStub{result: ai.GradingResult{Grade: 60, Feedback: "Fine"}}
	svc := newGradingService(repo, users, grader, nil)

	resp, err := svc.Grade(context.Background(), dto.GradeRequest{Homework: "hw1", GradedUsername: "alice"})
	require.NoError(t, err)
	require.InDelta(t, 60, resp.Grade, 0.001)
	require.Empty(t, users.updated)
}

func TestUpdateGradeUserNotFound(t *testing.T) {
	svc := newGradingService(newSubmissionRepoStub(), newUserRepoStub(), &graderStub{}, nil)

	err := svc.UpdateGrade(context.Background(), "ghost", "hw1", 50)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateGradeHomeworkNotFound(t *testing.T) {
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw2"}}))
	svc := newGradingService(newSubmissionRepoStub(), users, &graderStub{}, nil)

	err := svc.UpdateGrade(context.Background(), "alice", "hw1", 50)
	require.ErrorIs(t, err, ErrHomeworkNotFound)
	require.Empty(t, users.updated)
}

func TestGradeUsesTaskDescriptionCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := seedGradingRepo(t)
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1"}}))
	grader := &graderStub{result: ai.GradingResult{Grade: 80, Feedback: "Good"}}
	svc := newGradingService(repo, users, grader, cache)

	payload := dto.GradeRequest{Homework: "hw1", GradedUsername: "alice"}
	_, err := svc.Grade(context.Background(), payload)
	require.NoError(t, err)
	_, err = svc.Grade(context.Background(), payload)
	require.NoError(t, err)

	require.Equal(t, 1, repo.taskLookups)
}
