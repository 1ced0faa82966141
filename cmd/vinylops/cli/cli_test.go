package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/fx"
	"github.com/vinylworks/vinylops/internal/platform/db"
)

const sampleCSV = `id,date,partner,currency,amount,confirmed
# opening balance rows are ignored by range
1,2025-01-05,Alpha,JPY,15000,true
2,2025-01-20,Alpha,usd,50,false

3,2025-02-03,Beta,VND,2500000,yes
4,2024-12-31,Old,USD,999,true
`

type runResult struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, env Env, args ...string) runResult {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	env.Stdout, env.Stderr = stdout, stderr
	if env.Stdin == nil {
		env.Stdin = strings.NewReader(sampleCSV)
	}
	if env.DefaultRates == (fx.ExchangeRates{}) {
		env.DefaultRates = fx.DefaultRates()
	}
	code := Run(context.Background(), args, env)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestAggregateJSON(t *testing.T) {
	res := run(t, Env{}, "aggregate", "--file", "-", "--unit", "month", "--start", "2025-01-01", "--end", "2025-02-28", "--json")
	require.Zero(t, res.code, res.stderr)

	var out aggregation.Result
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 3, out.RowCount)
	assert.InDelta(t, 250.0, out.TotalUSD, 1e-9)
	require.Len(t, out.Buckets, 2)
	assert.Equal(t, "2025-01", out.Buckets[0].Key)
	assert.InDelta(t, 150.0, out.Buckets[0].TotalUSD, 1e-9)
	assert.Equal(t, "2025-02", out.Buckets[1].Key)
	require.Len(t, out.Partners, 2)
	assert.Equal(t, "Alpha", out.Partners[0].Partner)
	assert.Equal(t, 1, out.Partners[0].Confirmed)
	assert.Equal(t, 1, out.Partners[0].Pending)
	assert.Equal(t, fx.DefaultRates().JPYPerUSD, out.Rates.JPYPerUSD)
}

func TestAggregateUsesSuppliedRates(t *testing.T) {
	res := run(t, Env{}, "aggregate", "--file", "-", "--start", "2025-01-01", "--end", "2025-01-31", "--jpy", "100", "--vnd", "-5", "--json")
	require.Zero(t, res.code, res.stderr)

	var out aggregation.Result
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 100.0, out.Rates.JPYPerUSD)
	assert.Equal(t, fx.DefaultRates().VNDPerUSD, out.Rates.VNDPerUSD)
	assert.InDelta(t, 200.0, out.TotalUSD, 1e-9)
}

func TestAggregateHumanOutput(t *testing.T) {
	res := run(t, Env{}, "aggregate", "--file", "-", "--unit", "week", "--start", "2025-01-01")
	require.Zero(t, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Aggregated 3 row(s) by week, 2025-01-01 .. open")
	assert.Contains(t, res.stdout, "Total: 250.00 USD (2 confirmed, 1 pending)")
	assert.Contains(t, res.stdout, "2025-01-20 〜 2025-01-26")
	assert.Contains(t, res.stdout, "Alpha")
}

func TestAggregateUsageErrors(t *testing.T) {
	cases := map[string][]string{
		"missing file":    {"aggregate"},
		"bad unit":        {"aggregate", "--file", "-", "--unit", "year"},
		"bad date":        {"aggregate", "--file", "-", "--start", "2025/01/01"},
		"unknown flag":    {"aggregate", "--file", "-", "--currency", "EUR"},
		"extra arguments": {"aggregate", "--file", "-", "stray"},
		"no file on disk": {"aggregate", "--file", "/nonexistent/rows.csv"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res := run(t, Env{}, args...)
			assert.Equal(t, 1, res.code)
			assert.NotEmpty(t, res.stderr)
		})
	}
}

func TestAggregateRejectsBadCSV(t *testing.T) {
	res := run(t, Env{Stdin: strings.NewReader("date,partner,amount\n2025-01-01,A,1\n")}, "aggregate", "--file", "-")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `missing required column "currency"`)

	res = run(t, Env{Stdin: strings.NewReader("date,partner,currency,amount\n2025-01-01,A,USD,lots\n")}, "aggregate", "--file", "-")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid amount")
}

func TestAggregateEmptyInput(t *testing.T) {
	res := run(t, Env{Stdin: strings.NewReader("")}, "aggregate", "--file", "-", "--json")
	require.Zero(t, res.code, res.stderr)
	var out aggregation.Result
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Zero(t, out.RowCount)
	assert.NotNil(t, out.Buckets)
}

func TestMigrateCommand(t *testing.T) {
	var gotDSN, gotDir string
	var gotDirection db.Direction
	env := Env{DSN: "postgres://x", Migrations: "migrations", Migrate: func(dsn, dir string, d db.Direction) error {
		gotDSN, gotDir, gotDirection = dsn, dir, d
		return nil
	}}

	res := run(t, env, "migrate", "up")
	require.Zero(t, res.code, res.stderr)
	assert.Equal(t, "postgres://x", gotDSN)
	assert.Equal(t, "migrations", gotDir)
	assert.Equal(t, db.Up, gotDirection)
	assert.Contains(t, res.stdout, "file://migrations")

	assert.Equal(t, 1, run(t, env, "migrate").code)
	assert.Equal(t, 1, run(t, env, "migrate", "sideways").code)

	env.Migrate = func(string, string, db.Direction) error { return errors.New("dirty database version 1") }
	res = run(t, env, "migrate", "down")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "dirty database")
}

type fakeTriggerer struct {
	names []string
	err   error
}

func (f *fakeTriggerer) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.names = append(f.names, name)
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: name}, nil
}

func TestJobsTrigger(t *testing.T) {
	fake := &fakeTriggerer{}
	closed := false
	env := Env{Jobs: func() (Triggerer, func() error, error) {
		return fake, func() error { closed = true; return nil }, nil
	}}

	res := run(t, env, "jobs", "trigger", "analytics:warmup")
	require.Zero(t, res.code, res.stderr)
	assert.Equal(t, []string{"analytics:warmup"}, fake.names)
	assert.Contains(t, res.stdout, "id=task-1")
	assert.True(t, closed)

	res = run(t, env, "jobs", "trigger")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "analytics:warmup|idempotency:cleanup")

	fake.err = errors.New("unknown task")
	assert.Equal(t, 1, run(t, env, "jobs", "trigger", "nope").code)
	assert.Equal(t, 1, run(t, env, "jobs", "list").code)
}

func TestRunDispatch(t *testing.T) {
	assert.True(t, IsServe(nil))
	assert.True(t, IsServe([]string{"serve"}))
	assert.False(t, IsServe([]string{"aggregate"}))

	res := run(t, Env{}, "frobnicate")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown command")

	res = run(t, Env{}, "help")
	assert.Zero(t, res.code)
	assert.Contains(t, res.stdout, "migrate up|down")
}
