package app_test

import (
	"context"
	"errors"
	"testing"

	"setquiz/internal/app"
	"setquiz/internal/domain"
)

type flowFixture struct {
	flow      *app.Flow
	source    *fakeSource
	verifier  *fakeVerifier
	hints     *fakeHints
	explainer *fakeExplainer
	sched     *manualScheduler
}

func newFlowFixture(n int) *flowFixture {
	questions := sampleQuestions(n)
	fx := &flowFixture{
		source:    &fakeSource{questions: questions},
		verifier:  &fakeVerifier{key: answerKey(questions)},
		hints:     &fakeHints{},
		explainer: &fakeExplainer{},
		sched:     &manualScheduler{},
	}
	fx.flow = app.NewFlow("client-1", app.Services{
		Questions:    fx.source,
		Verifier:     fx.verifier,
		Hints:        fx.hints,
		Explanations: fx.explainer,
	}, app.WithScheduler(fx.sched))
	return fx
}

func (fx *flowFixture) startQuiz(t *testing.T, difficulty, count int) {
	t.Helper()
	if err := fx.flow.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fx.flow.ChooseDifficulty(difficulty); err != nil {
		t.Fatalf("difficulty: %v", err)
	}
	if err := fx.flow.ChooseQuantity(context.Background(), count); err != nil {
		t.Fatalf("quantity: %v", err)
	}
}

func (fx *flowFixture) answer(t *testing.T, correct bool) {
	t.Helper()
	view := fx.flow.View()
	if view.Session == nil || view.Session.Question == nil {
		t.Fatalf("expected a question, got %+v", view)
	}
	choice := view.Session.Question.Choices[1]
	if correct {
		choice = view.Session.Question.Choices[0]
	}
	if _, err := fx.flow.Submit(context.Background(), choice); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fx.sched.Fire()
}

func TestFlowStagesThroughReview(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(5)

	if got := fx.flow.View().Stage; got != domain.StageHome {
		t.Fatalf("expected home, got %s", got)
	}
	if err := fx.flow.ChooseDifficulty(1); !errors.Is(err, domain.ErrInvalidStage) {
		t.Fatalf("expected invalid stage, got %v", err)
	}
	fx.startQuiz(t, 2, 5)
	if view := fx.flow.View(); view.Stage != domain.StageActive || view.Difficulty != 2 {
		t.Fatalf("expected active at difficulty 2, got %+v", view)
	}

	for i := 0; i < 5; i++ {
		fx.answer(t, i%2 == 0)
	}
	view := fx.flow.View()
	if view.Stage != domain.StageFinished || view.Session.Correct != 3 || view.Session.Incorrect != 2 {
		t.Fatalf("expected finished 3/2, got %+v", view)
	}

	needed, err := fx.flow.StartReview(ctx)
	if err != nil || !needed {
		t.Fatalf("expected review, needed=%v err=%v", needed, err)
	}
	view = fx.flow.View()
	if view.Stage != domain.StageReview || view.Review.Question.ID != 2 || view.Review.Explanation != explanationFor(2) {
		t.Fatalf("unexpected review view %+v", view.Review)
	}

	more, err := fx.flow.NextReview(ctx)
	if err != nil || !more {
		t.Fatalf("expected second review question, more=%v err=%v", more, err)
	}
	more, err = fx.flow.NextReview(ctx)
	if err != nil || more {
		t.Fatalf("expected review to end, more=%v err=%v", more, err)
	}
	if got := fx.flow.View().Stage; got != domain.StageHome {
		t.Fatalf("expected home after review, got %s", got)
	}
}

func TestFlowPerfectQuizSkipsReview(t *testing.T) {
	fx := newFlowFixture(5)
	fx.startQuiz(t, 2, 5)
	for i := 0; i < 5; i++ {
		fx.answer(t, true)
	}

	needed, err := fx.flow.StartReview(context.Background())
	if err != nil || needed {
		t.Fatalf("expected no review, needed=%v err=%v", needed, err)
	}
	view := fx.flow.View()
	if view.Stage != domain.StageHome || view.Notice != app.NoReviewNeeded {
		t.Fatalf("expected home with notice, got %+v", view)
	}
	if calls := fx.explainer.Calls(); len(calls) != 0 {
		t.Fatalf("expected no explanation calls, got %v", calls)
	}
}

func TestFlowRejectsUnsupportedChoices(t *testing.T) {
	fx := newFlowFixture(5)
	if err := fx.flow.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fx.flow.ChooseDifficulty(9); !errors.Is(err, domain.ErrInvalidDifficulty) {
		t.Fatalf("expected invalid difficulty, got %v", err)
	}
	if err := fx.flow.ChooseDifficulty(1); err != nil {
		t.Fatalf("difficulty: %v", err)
	}
	if err := fx.flow.ChooseQuantity(context.Background(), 7); !errors.Is(err, domain.ErrInvalidCount) {
		t.Fatalf("expected invalid count, got %v", err)
	}
}

func TestFlowHintFollowsCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(5)
	fx.startQuiz(t, 1, 5)

	if err := fx.flow.OpenHint(); err != nil {
		t.Fatalf("open hint: %v", err)
	}
	if _, err := fx.flow.SendHint(ctx, "what is a union?"); err != nil {
		t.Fatalf("send hint: %v", err)
	}
	if view := fx.flow.View(); len(view.Hint.Exchange) != 2 || view.Hint.QuestionID != 1 {
		t.Fatalf("expected exchange on question 1, got %+v", view.Hint)
	}

	fx.answer(t, true)

	view := fx.flow.View()
	if !view.Hint.Open || view.Hint.QuestionID != 2 || len(view.Hint.Exchange) != 0 {
		t.Fatalf("expected hint rebound to question 2 and emptied, got %+v", view.Hint)
	}
	if _, err := fx.flow.SendHint(ctx, "and now?"); err != nil {
		t.Fatalf("send hint: %v", err)
	}
	asked := fx.hints.Asked()
	if asked[len(asked)-1] != 2 {
		t.Fatalf("expected the latest hint call to reference question 2, got %v", asked)
	}

	if err := fx.flow.CloseHint(); err != nil {
		t.Fatalf("close hint: %v", err)
	}
	if view := fx.flow.View(); view.Hint.Open || len(view.Hint.Exchange) != 0 {
		t.Fatalf("expected closed hint panel, got %+v", view.Hint)
	}
}

func TestFlowHomeCancelsPendingAdvance(t *testing.T) {
	fx := newFlowFixture(5)
	fx.startQuiz(t, 1, 5)

	view := fx.flow.View()
	if _, err := fx.flow.Submit(context.Background(), view.Session.Question.Choices[0]); err != nil {
		t.Fatalf("submit: %v", err)
	}
	active, ok := fx.flow.Stage().(app.ActiveStage)
	if !ok {
		t.Fatalf("expected active stage")
	}

	fx.flow.Home()
	fx.sched.FireAll()

	if snap := active.Session.Snapshot(); snap.Position != 0 || len(snap.Attempts) != 1 {
		t.Fatalf("session changed after leaving: %+v", snap)
	}
	if got := fx.flow.View().Stage; got != domain.StageHome {
		t.Fatalf("expected home, got %s", got)
	}
}

func TestFlowFetchErrorStaysOnActiveStage(t *testing.T) {
	fx := newFlowFixture(5)
	fx.source.err = errUnavailable
	if err := fx.flow.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	_ = fx.flow.ChooseDifficulty(3)
	if err := fx.flow.ChooseQuantity(context.Background(), 10); !errors.Is(err, domain.ErrQuestionFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	view := fx.flow.View()
	if view.Stage != domain.StageActive || view.Session.Status != domain.StatusFailed || view.Session.Error == "" {
		t.Fatalf("expected error display state, got %+v", view)
	}
	if _, err := fx.flow.Submit(context.Background(), "x"); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
}

func TestFlowSubscribeReceivesViews(t *testing.T) {
	fx := newFlowFixture(5)
	updates, cancel := fx.flow.Subscribe()
	defer cancel()

	if first := <-updates; first.Stage != domain.StageHome {
		t.Fatalf("expected initial home view, got %s", first.Stage)
	}
	if err := fx.flow.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if next := <-updates; next.Stage != domain.StageDifficulty {
		t.Fatalf("expected difficulty view, got %s", next.Stage)
	}
	if fx.flow.IsIdle() {
		t.Fatalf("expected a subscriber")
	}
	cancel()
	if !fx.flow.IsIdle() {
		t.Fatalf("expected idle after cancel")
	}
}

func TestFlowClosedRejectsOperations(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(5)
	fx.startQuiz(t, 1, 5)
	fx.flow.Close()

	if err := fx.flow.Begin(); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("begin: expected closed, got %v", err)
	}
	if err := fx.flow.ChooseDifficulty(1); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("difficulty: expected closed, got %v", err)
	}
	if err := fx.flow.ChooseQuantity(ctx, 5); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("quantity: expected closed, got %v", err)
	}
	if _, err := fx.flow.Submit(ctx, "{1}"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("submit: expected closed, got %v", err)
	}
	if err := fx.flow.OpenHint(); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("hint: expected closed, got %v", err)
	}
	if _, err := fx.flow.StartReview(ctx); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("review: expected closed, got %v", err)
	}

	fx.flow.Home()
	updates, _ := fx.flow.Subscribe()
	if _, ok := <-updates; ok {
		t.Fatalf("expected subscription on a closed flow to be closed")
	}
}
