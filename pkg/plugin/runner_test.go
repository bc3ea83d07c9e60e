package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/go-drift/kernel/pkg/config"
	kerrors "github.com/go-drift/kernel/pkg/errors"
	"github.com/go-drift/kernel/pkg/project"
)

// invocationLog records mutation calls in order.
type invocationLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *invocationLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *invocationLog) plugin(name string, err error) Plugin {
	fn := func(_ context.Context, _ *config.Config, _ *project.Tree) error {
		l.add(name)
		return err
	}
	return Plugin{Name: name, Mutations: map[Platform]MutateFunc{IOS: fn, Android: fn}}
}

func runFixture() (*config.Config, *project.Tree) {
	return &config.Config{IOS: config.IOS{Name: "kernel"}}, project.New(afero.NewMemMapFs())
}

func statuses(r *Report) map[string]OutcomeStatus {
	out := make(map[string]OutcomeStatus, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out[o.Plugin] = o.Status
	}
	return out
}

func TestRunExecutionOrder(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{"registered", []string{"A", "B", "C"}},
		{"reversed", []string{"C", "B", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &invocationLog{}
			r := NewRegistry()
			for _, n := range tt.order {
				require.NoError(t, r.Register(log.plugin(n, nil)))
			}
			cfg, tree := runFixture()

			report := NewRunner().Run(context.Background(), IOS, cfg, tree, r.List())

			assert.Equal(t, tt.order, log.calls)
			assert.Equal(t, StatusOK, report.Status)
			assert.Equal(t, StateCompleted, report.State)
			assert.Equal(t, 0, report.ExitCode())
			assert.NoError(t, report.Err())
		})
	}
}

func TestRunFailureIsolation(t *testing.T) {
	log := &invocationLog{}
	boom := errors.New("boom")
	plugins := []Plugin{log.plugin("A", nil), log.plugin("B", boom), log.plugin("C", nil)}
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), Android, cfg, tree, plugins)

	assert.Equal(t, []string{"A", "B", "C"}, log.calls)
	assert.Equal(t, map[string]OutcomeStatus{"A": OutcomeSuccess, "B": OutcomeFailed, "C": OutcomeSuccess}, statuses(report))
	assert.Equal(t, StatusPartial, report.Status)
	assert.Equal(t, StateCompleted, report.State)
	assert.Equal(t, 2, report.ExitCode())

	b, ok := report.Outcome("B")
	require.True(t, ok)
	assert.True(t, errors.Is(b.Err, kerrors.ErrMutation))
	assert.True(t, errors.Is(b.Err, boom))

	var kerr *kerrors.Error
	require.True(t, errors.As(b.Err, &kerr))
	assert.Equal(t, "B", kerr.Plugin)
	assert.Equal(t, "android", kerr.Platform)
}

func TestRunResourceFailureIsMutationFailure(t *testing.T) {
	log := &invocationLog{}
	res := kerrors.Resource("project.ReadFile", errors.New("no such file"))
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), IOS, cfg, tree, []Plugin{log.plugin("A", res)})

	o, _ := report.Outcome("A")
	assert.Equal(t, OutcomeFailed, o.Status)
	assert.True(t, errors.Is(o.Err, kerrors.ErrMutation))
	assert.True(t, errors.Is(o.Err, kerrors.ErrResource))
	assert.Equal(t, kerrors.KindMutation, kerrors.KindOf(o.Err))
}

func TestRunCriticalFailureAborts(t *testing.T) {
	log := &invocationLog{}
	critical := log.plugin("B", errors.New("identity files missing"))
	critical.Critical = true
	plugins := []Plugin{log.plugin("A", nil), critical, log.plugin("C", nil), log.plugin("D", nil)}
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), IOS, cfg, tree, plugins)

	assert.Equal(t, []string{"A", "B"}, log.calls)
	assert.Equal(t, map[string]OutcomeStatus{
		"A": OutcomeSuccess, "B": OutcomeFailed, "C": OutcomeSkipped, "D": OutcomeSkipped,
	}, statuses(report))
	assert.Equal(t, StatusAborted, report.Status)
	assert.Equal(t, StateAborted, report.State)
	assert.Equal(t, 3, report.ExitCode())
}

func TestRunCriticalSuccessContinues(t *testing.T) {
	log := &invocationLog{}
	critical := log.plugin("A", nil)
	critical.Critical = true
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), IOS, cfg, tree, []Plugin{critical, log.plugin("B", nil)})

	assert.Equal(t, []string{"A", "B"}, log.calls)
	assert.Equal(t, StatusOK, report.Status)
}

func TestRunRecoversPanics(t *testing.T) {
	log := &invocationLog{}
	panicky := Plugin{Name: "panicky", Mutations: map[Platform]MutateFunc{
		IOS: func(context.Context, *config.Config, *project.Tree) error { panic("nil icon") },
	}}
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), IOS, cfg, tree, []Plugin{panicky, log.plugin("after", nil)})

	assert.Equal(t, []string{"after"}, log.calls)
	assert.Equal(t, StatusPartial, report.Status)

	o, _ := report.Outcome("panicky")
	var perr *kerrors.PanicError
	require.True(t, errors.As(o.Err, &perr))
	assert.Equal(t, "nil icon", perr.Value)
	assert.Equal(t, "plugin panicky ios", perr.Op)

	var kerr *kerrors.Error
	require.True(t, errors.As(o.Err, &kerr))
	assert.NotEmpty(t, kerr.StackTrace)
}

func TestRunFiltersByPlatform(t *testing.T) {
	log := &invocationLog{}
	iosOnly := Plugin{Name: "ios-only", Mutations: map[Platform]MutateFunc{
		IOS: func(context.Context, *config.Config, *project.Tree) error {
			log.add("ios-only")
			return nil
		},
	}}
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), Android, cfg, tree, []Plugin{iosOnly, log.plugin("both", nil)})

	assert.Equal(t, []string{"both"}, log.calls)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "both", report.Outcomes[0].Plugin)
}

func TestRunContextCancelledBetweenPlugins(t *testing.T) {
	log := &invocationLog{}
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := Plugin{Name: "A", Mutations: map[Platform]MutateFunc{
		IOS: func(context.Context, *config.Config, *project.Tree) error {
			log.add("A")
			cancel()
			return nil
		},
	}}
	cfg, tree := runFixture()

	report := NewRunner().Run(ctx, IOS, cfg, tree, []Plugin{cancelling, log.plugin("B", nil)})

	assert.Equal(t, []string{"A"}, log.calls)
	assert.Equal(t, map[string]OutcomeStatus{"A": OutcomeSuccess, "B": OutcomeSkipped}, statuses(report))
	assert.Equal(t, StatusAborted, report.Status)
	assert.True(t, errors.Is(report.Interrupted(), context.Canceled))
	assert.True(t, errors.Is(report.Err(), context.Canceled))
}

func TestReportErrAggregates(t *testing.T) {
	log := &invocationLog{}
	plugins := []Plugin{
		log.plugin("A", errors.New("first")),
		log.plugin("B", nil),
		log.plugin("C", errors.New("second")),
	}
	cfg, tree := runFixture()

	report := NewRunner().Run(context.Background(), IOS, cfg, tree, plugins)

	errs := multierr.Errors(report.Err())
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "first")
	assert.Contains(t, errs[1].Error(), "second")
	assert.Len(t, report.Failed(), 2)
}

func TestRunUsesClockAndID(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	log := &invocationLog{}
	cfg, tree := runFixture()

	report := NewRunner(WithClock(clock)).Run(context.Background(), IOS, cfg, tree, []Plugin{log.plugin("A", nil)})

	assert.Len(t, report.ID, 26)
	assert.Equal(t, base.Add(time.Second), report.Started)
	assert.Equal(t, time.Second, report.Outcomes[0].Duration)
	assert.Equal(t, 3*time.Second, report.Duration())
}

func TestRunLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &invocationLog{}
	cfg, tree := runFixture()

	NewRunner(WithLogger(zap.New(core))).Run(context.Background(), IOS, cfg, tree, []Plugin{log.plugin("A", fmt.Errorf("broken"))})

	failed := logs.FilterMessage("plugin failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, "A", fields["plugin"])
	assert.Equal(t, "ios", fields["platform"])
	assert.Equal(t, "broken", fields["error"])
}

func TestStatusSeverity(t *testing.T) {
	assert.Less(t, StatusOK.Severity(), StatusPartial.Severity())
	assert.Less(t, StatusPartial.Severity(), StatusAborted.Severity())
}
