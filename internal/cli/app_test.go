package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"quiz-review/internal/config"
	"quiz-review/internal/domain"
	"quiz-review/internal/dto"
	"quiz-review/internal/selection"
	"quiz-review/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory domain.AttemptRepository.
type memoryRepo struct {
	rows    map[string]domain.Attempt
	batches int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[string]domain.Attempt{}}
}

func (r *memoryRepo) LoadAll(context.Context) (map[string]domain.Attempt, error) {
	out := make(map[string]domain.Attempt, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out, nil
}

func (r *memoryRepo) Upsert(_ context.Context, a domain.Attempt) error {
	r.rows[a.QuestionID] = a
	return nil
}

func (r *memoryRepo) UpsertBatch(ctx context.Context, attempts []domain.Attempt) error {
	r.batches++
	for _, a := range attempts {
		_ = r.Upsert(ctx, a)
	}
	return nil
}

func (r *memoryRepo) ResetAll(context.Context) error {
	r.rows = map[string]domain.Attempt{}
	return nil
}

func (r *memoryRepo) ListWrong(context.Context) ([]domain.Attempt, error) {
	var out []domain.Attempt
	for _, a := range r.rows {
		if !a.IsCorrect {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

const appTestBank = `[
  {"id": 1, "question": "Capital of France?", "options": ["Paris", "Lyon", "Nice"], "answer": 0, "explanation": "Seat of government."},
  {"id": 2, "question": "2 + 2?", "options": ["3", "4"], "answer": 1}
]`

func newTestApp(t *testing.T, repo *memoryRepo, input string) (*App, *bytes.Buffer) {
	t.Helper()
	return newTestAppWithReader(t, repo, strings.NewReader(input))
}

func newTestAppWithReader(t *testing.T, repo *memoryRepo, in io.Reader) (*App, *bytes.Buffer) {
	t.Helper()
	bankPath := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(bankPath, []byte(appTestBank), 0o644))

	svc, err := service.NewQuizService(repo, selection.NewSelector(rand.New(rand.NewSource(1))), nil,
		&config.Config{Bank: config.BankConfig{Path: bankPath, Mode: "strict"}})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return NewApp(svc, in, out), out
}

func TestApp_PlayRecordsRound(t *testing.T) {
	repo := newMemoryRepo()
	// "a" is Paris (right) for Q0001 and 3 (wrong) for Q0002, whatever the order
	input := "a\na\n"

	app, out := newTestApp(t, repo, input)
	require.NoError(t, app.Play(context.Background(), 10, domain.ModeAll, false))

	assert.Contains(t, out.String(), "Score: 1/2 (50.0%)")
	assert.Contains(t, out.String(), "correct answer: 4")
	assert.Equal(t, 1, repo.batches)
	assert.True(t, repo.rows["Q0001"].IsCorrect)
	assert.False(t, repo.rows["Q0002"].IsCorrect)
	assert.Equal(t, "3", *repo.rows["Q0002"].LastAnswer)
}

func TestApp_PlaySkipAndInvalidInput(t *testing.T) {
	repo := newMemoryRepo()
	// first question: two invalid tries then a blank line; second: three invalid tries
	app, out := newTestApp(t, repo, "z\n9\n\nfoo\nbar\nbaz\n")
	require.NoError(t, app.Play(context.Background(), 10, domain.ModeAll, false))

	assert.Contains(t, out.String(), `Invalid input "z"`)
	assert.Contains(t, out.String(), "Score: 0/2 (0.0%)")
	assert.Contains(t, out.String(), "(no answer)")
	require.Len(t, repo.rows, 2)
	for _, a := range repo.rows {
		assert.Nil(t, a.LastAnswer)
	}
}

func TestApp_PlayEOFDiscardsRound(t *testing.T) {
	repo := newMemoryRepo()
	app, out := newTestApp(t, repo, "a\n")
	require.NoError(t, app.Play(context.Background(), 10, domain.ModeAll, false))

	assert.Contains(t, out.String(), "Round discarded")
	assert.Zero(t, repo.batches)
	assert.Empty(t, repo.rows)
}

// cancelOnRead cancels its context the first time it is read from, the way
// Ctrl-C lands while the user is typing an answer.
type cancelOnRead struct {
	cancel context.CancelFunc
	r      io.Reader
}

func (c *cancelOnRead) Read(p []byte) (int, error) {
	c.cancel()
	return c.r.Read(p)
}

func TestApp_PlayCancelledWhileAnswering(t *testing.T) {
	repo := newMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, out := newTestAppWithReader(t, repo, &cancelOnRead{cancel: cancel, r: strings.NewReader("a\na\n")})
	err := app.Play(ctx, 10, domain.ModeAll, false)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEqual(t, domain.CodeStorage, domain.CodeOf(err))
	assert.Contains(t, out.String(), "[1/2]")
	assert.NotContains(t, out.String(), "[2/2]")
	assert.Contains(t, out.String(), "Interrupted. Round discarded")
	assert.Zero(t, repo.batches)
	assert.Empty(t, repo.rows)
}

func TestApp_PlayCancelledWhileWaitingForInput(t *testing.T) {
	repo := newMemoryRepo()
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	app, out := newTestAppWithReader(t, repo, pr)
	err := app.Play(ctx, 10, domain.ModeAll, false)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Interrupted. Round discarded")
	assert.Zero(t, repo.batches)
}

func TestApp_PlayJSON(t *testing.T) {
	repo := newMemoryRepo()
	app, out := newTestApp(t, repo, "a\na\n")
	prompts := &bytes.Buffer{}
	app.PromptTo(prompts)

	require.NoError(t, app.Play(context.Background(), 10, domain.ModeAll, true))

	assert.Contains(t, prompts.String(), "[1/2]")
	var score dto.ScoreResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &score), out.String())
	assert.NotEmpty(t, score.SessionID)
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 2, score.Total)
	assert.Equal(t, 50.0, score.Score)
	require.Len(t, score.Wrong, 1)
	assert.Equal(t, "Q0002", score.Wrong[0].ID)
	require.NotNil(t, score.Wrong[0].UserAnswer)
	assert.Equal(t, "3", *score.Wrong[0].UserAnswer)
	assert.Equal(t, "4", score.Wrong[0].CorrectAnswer)
}

func TestApp_PlayEmptyPool(t *testing.T) {
	repo := newMemoryRepo()
	app, out := newTestApp(t, repo, "")
	require.NoError(t, app.Play(context.Background(), 10, domain.ModeWrongOnly, false))
	assert.Contains(t, out.String(), "No wrong answers to review")

	repo.rows["Q0001"] = domain.Attempt{QuestionID: "Q0001", IsCorrect: true, CorrectAnswer: "Paris"}
	repo.rows["Q0002"] = domain.Attempt{QuestionID: "Q0002", IsCorrect: true, CorrectAnswer: "4"}
	app, out = newTestApp(t, repo, "")
	require.NoError(t, app.Play(context.Background(), 10, domain.ModeFresh, false))
	assert.Contains(t, out.String(), "quiz reset --yes")
}

func TestApp_StatsAndWrong(t *testing.T) {
	repo := newMemoryRepo()
	three := "3"
	repo.rows["Q0002"] = domain.Attempt{QuestionID: "Q0002", IsCorrect: false, LastAnswer: &three, CorrectAnswer: "4"}
	repo.rows["Q0050"] = domain.Attempt{QuestionID: "Q0050", IsCorrect: false, CorrectAnswer: "gone"}

	app, out := newTestApp(t, repo, "")
	require.NoError(t, app.Stats(context.Background(), true))
	var progress dto.ProgressResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &progress))
	assert.Equal(t, dto.ProgressResponse{BankTotal: 2, Attempted: 1, Wrong: 1, FreshRemaining: 1, Accuracy: 0}, progress)

	out.Reset()
	require.NoError(t, app.Wrong(context.Background(), false))
	assert.Contains(t, out.String(), "Q0002: 2 + 2?")
	assert.Contains(t, out.String(), "no longer in the question bank")

	out.Reset()
	require.NoError(t, app.Wrong(context.Background(), true))
	var notes []dto.WrongAnswerResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &notes))
	require.Len(t, notes, 2)
	assert.True(t, notes[0].InBank)
	assert.False(t, notes[1].InBank)
}

func TestApp_ResetRequiresConfirmation(t *testing.T) {
	repo := newMemoryRepo()
	repo.rows["Q0001"] = domain.Attempt{QuestionID: "Q0001", IsCorrect: true, CorrectAnswer: "Paris"}
	app, out := newTestApp(t, repo, "")

	err := app.Reset(context.Background(), false)
	assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
	assert.Len(t, repo.rows, 1)

	require.NoError(t, app.Reset(context.Background(), true))
	assert.Empty(t, repo.rows)
	assert.Contains(t, out.String(), "cleared")
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"a", 0, true},
		{"C", 2, true},
		{"d", -1, false},
		{"1", 0, true},
		{"3", 2, true},
		{"0", -1, false},
		{"4", -1, false},
		{"ab", -1, false},
	}
	for _, tt := range tests {
		got, ok := parseChoice(tt.input, 3)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}
