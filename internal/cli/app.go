package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-review/internal/domain"
	"quiz-review/internal/dto"
	"quiz-review/internal/logger"
	"quiz-review/internal/service"

	"go.uber.org/zap"
)

const maxAttempts = 3

// App drives the quiz over a line-oriented terminal.
type App struct {
	svc    service.QuizService
	reader *bufio.Reader
	out    io.Writer
	prompt io.Writer

	// pending is the in-flight read; it outlives a cancelled wait.
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewApp(svc service.QuizService, in io.Reader, out io.Writer) *App {
	return &App{svc: svc, reader: bufio.NewReader(in), out: out, prompt: out}
}

// PromptTo sends questions and prompts to w instead of the result writer.
func (a *App) PromptTo(w io.Writer) *App {
	a.prompt = w
	return a
}

// Play runs one interactive round. Closing the input before the last
// question discards the round without recording anything; so does
// cancelling ctx, which is then returned.
func (a *App) Play(ctx context.Context, count int, mode domain.SelectionMode, asJSON bool) error {
	picks, err := a.svc.Pick(ctx, count, mode)
	if err != nil {
		return err
	}
	if len(picks) == 0 {
		a.printEmptyPool(mode)
		return nil
	}

	session := domain.NewQuizSession()
	if err := a.svc.StartSession(session, picks); err != nil {
		return err
	}
	logger.Get().Debug("Round started", zap.String("session_id", session.ID()), zap.String("mode", string(mode)))

	for i, q := range picks {
		if err := ctx.Err(); err != nil {
			return a.discard(session, err)
		}
		printQuestion(a.prompt, i+1, len(picks), q)

		index, ok, err := a.readChoice(ctx, len(q.Choices))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return a.discard(session, ctxErr)
			}
			fmt.Fprintln(a.prompt, "\nInput closed. Round discarded, nothing was recorded.")
			return nil
		}
		if !ok {
			fmt.Fprintln(a.prompt, "Skipped.")
			continue
		}
		if err := a.svc.SetAnswer(session, q.ID, q.Choices[index]); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return a.discard(session, err)
	}

	result, err := a.svc.Submit(ctx, session)
	if err != nil {
		return err
	}
	if asJSON {
		return a.writeJSON(dto.NewScoreResponse(result))
	}
	a.printResult(result)
	return nil
}

func (a *App) discard(session *domain.QuizSession, err error) error {
	logger.Get().Info("Round interrupted", zap.String("session_id", session.ID()), zap.Int("answered", session.AnsweredCount()))
	fmt.Fprintln(a.prompt, "\nInterrupted. Round discarded, nothing was recorded.")
	return err
}

func (a *App) printEmptyPool(mode domain.SelectionMode) {
	switch mode {
	case domain.ModeWrongOnly:
		fmt.Fprintln(a.prompt, "No wrong answers to review. Play a fresh round with --mode fresh.")
	case domain.ModeFresh:
		fmt.Fprintln(a.prompt, "Every question has been attempted. Review mistakes with --mode wrong_only, or start over with `quiz reset --yes`.")
	default:
		fmt.Fprintln(a.prompt, "No questions available.")
	}
}

func printQuestion(out io.Writer, number, total int, q domain.Question) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "[%d/%d] %s: %s\n\n", number, total, q.ID, q.Text)
	for i, choice := range q.Choices {
		fmt.Fprintf(out, "  %s. %s\n", choiceLabel(i), choice)
	}
	fmt.Fprintln(out)
}

func choiceLabel(index int) string {
	if index < 26 {
		return string(rune('A' + index))
	}
	return strconv.Itoa(index + 1)
}

// readChoice returns ok=false for an empty line or after repeated invalid
// input. err is set once the input is exhausted or ctx is done.
func (a *App) readChoice(ctx context.Context, choiceCount int) (int, bool, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Fprintf(a.prompt, "Answer (A-%s or 1-%d, Enter to skip): ", choiceLabel(choiceCount-1), choiceCount)
		line, err := a.readLine(ctx)
		if err != nil && line == "" {
			return -1, false, err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			return -1, false, nil
		}
		if i, valid := parseChoice(input, choiceCount); valid {
			return i, true, nil
		}
		if err != nil {
			return -1, false, err
		}
		if attempt < maxAttempts {
			fmt.Fprintf(a.prompt, "Invalid input %q.\n", input)
		}
	}
	return -1, false, nil
}

// readLine blocks until a line arrives or ctx is done. A line that arrives
// after ctx is done is dropped.
func (a *App) readLine(ctx context.Context) (string, error) {
	if a.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := a.reader.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		a.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-a.pending:
		a.pending = nil
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return res.line, res.err
	}
}

// parseChoice accepts a letter (case-insensitive) or a 1-based number.
func parseChoice(input string, choiceCount int) (int, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= choiceCount {
			return n - 1, true
		}
		return -1, false
	}
	if len(input) == 1 {
		letter := strings.ToUpper(input)[0]
		if letter >= 'A' && letter <= 'Z' {
			i := int(letter - 'A')
			if i < choiceCount {
				return i, true
			}
		}
	}
	return -1, false
}

func (a *App) printResult(result *domain.ScoreResult) {
	fmt.Fprintf(a.out, "\nScore: %d/%d (%.1f%%)\n", result.Correct, result.Total, result.Score)
	if len(result.WrongList) == 0 {
		fmt.Fprintln(a.out, "All correct!")
		return
	}
	fmt.Fprintln(a.out, "\nWrong answers:")
	for _, w := range result.WrongList {
		printWrong(a.out, w.Question.ID, w.Question.Text, w.UserAnswer, w.Question.CorrectAnswer, w.Question.Explanation)
	}
}

func printWrong(out io.Writer, id, text string, userAnswer *string, correct, explanation string) {
	answer := "(no answer)"
	if userAnswer != nil {
		answer = *userAnswer
	}
	fmt.Fprintf(out, "\n%s: %s\n", id, text)
	fmt.Fprintf(out, "  your answer:    %s\n", answer)
	fmt.Fprintf(out, "  correct answer: %s\n", correct)
	if explanation != "" {
		fmt.Fprintf(out, "  explanation:    %s\n", explanation)
	}
}

// Stats prints the attempt history summary.
func (a *App) Stats(ctx context.Context, asJSON bool) error {
	progress, err := a.svc.Progress(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return a.writeJSON(dto.NewProgressResponse(progress))
	}
	fmt.Fprintf(a.out, "Questions in bank: %d\n", progress.BankTotal)
	fmt.Fprintf(a.out, "Attempted:         %d\n", progress.Attempted)
	fmt.Fprintf(a.out, "  correct:         %d\n", progress.Correct)
	fmt.Fprintf(a.out, "  wrong:           %d\n", progress.Wrong)
	fmt.Fprintf(a.out, "Not yet seen:      %d\n", progress.FreshRemaining)
	fmt.Fprintf(a.out, "Accuracy:          %.1f%%\n", progress.Accuracy)
	return nil
}

// Wrong prints the wrong-answer notebook.
func (a *App) Wrong(ctx context.Context, asJSON bool) error {
	notes, err := a.svc.WrongAnswers(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return a.writeJSON(dto.NewWrongAnswerResponses(notes))
	}
	if len(notes) == 0 {
		fmt.Fprintln(a.out, "No wrong answers recorded.")
		return nil
	}
	for _, note := range notes {
		text := "(no longer in the question bank)"
		explanation := ""
		if note.Question != nil {
			text = note.Question.Text
			explanation = note.Question.Explanation
		}
		printWrong(a.out, note.Attempt.QuestionID, text, note.Attempt.LastAnswer, note.Attempt.CorrectAnswer, explanation)
	}
	return nil
}

// Reset deletes every recorded attempt. confirmed must be set explicitly.
func (a *App) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.NewInvalidInputError("reset deletes every recorded attempt; pass --yes to confirm")
	}
	if err := a.svc.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Attempt history cleared.")
	return nil
}

func (a *App) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
